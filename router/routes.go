package router

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/ortakpos/ortakpos/handler"

	// Import for side-effect registration of the gateway adapters
	_ "github.com/ortakpos/ortakpos/provider/iyzico"
	_ "github.com/ortakpos/ortakpos/provider/parampos"
)

// Routes wires the HTTP facade over the payment service
func Routes(r chi.Router, payments *handler.PaymentHandler, health *handler.HealthHandler, log *zap.Logger) {
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Tenant-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", health.Health)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/payments/{provider}", payments.CreatePayment)
		r.Post("/payments/{provider}/3d", payments.Create3DPayment)
		r.Post("/payments/{provider}/cancel", payments.CancelPayment)
		r.Post("/payments/{provider}/refund", payments.RefundPayment)
		r.Get("/payments/{provider}/{paymentId}", payments.GetPaymentStatus)
		r.Post("/callback/{provider}", payments.Callback)
		r.Get("/bin/{provider}/{bin}", payments.BinCheck)
		r.Post("/installments/{provider}", payments.InstallmentInfo)
	})
}
