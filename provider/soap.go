package provider

import (
	"fmt"
	"regexp"
	"strings"
)

// The SOAP gateway speaks a flat request/response dialect: a single action
// element inside the body, scalar child elements, no attributes that
// matter. The codec below builds envelopes from ordered element fragments
// and scans responses by tag name rather than running a full XML parser.
// Responses with repeated elements go through ExtractXMLList instead of the
// flat extractor.

var (
	xmlEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	xmlUnescaper = strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&apos;", "'",
		"&amp;", "&",
	)

	tagPairPattern = regexp.MustCompile(`<([A-Za-z_][A-Za-z0-9_.\-]*)>([^<]*)</([A-Za-z_][A-Za-z0-9_.\-]*)>`)
)

// EscapeXML escapes caller-supplied text for insertion into an XML
// document. Basket ids, item names and addresses are attacker-reachable,
// so every string value crosses this before it reaches an envelope.
func EscapeXML(value string) string {
	return xmlEscaper.Replace(value)
}

// UnescapeXML reverses EscapeXML for extracted element text
func UnescapeXML(value string) string {
	return xmlUnescaper.Replace(value)
}

// XMLElement renders a single element with escaped text content
func XMLElement(name, value string) string {
	return fmt.Sprintf("<%s>%s</%s>", name, EscapeXML(value), name)
}

// XMLWrap renders an element around an already-built inner fragment, used
// for the credential block and other nested structures.
func XMLWrap(name, inner string) string {
	return fmt.Sprintf("<%s>%s</%s>", name, inner, name)
}

// BuildSOAPEnvelope wraps an ordered sequence of element fragments in a
// SOAP 1.1 envelope for the given action and namespace.
func BuildSOAPEnvelope(action, namespace string, fragments ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	b.WriteString(`<soap:Envelope xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xmlns:xsd="http://www.w3.org/2001/XMLSchema" xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">`)
	b.WriteString("<soap:Body>")
	fmt.Fprintf(&b, `<%s xmlns=%q>`, action, namespace)
	for _, fragment := range fragments {
		b.WriteString(fragment)
	}
	fmt.Fprintf(&b, "</%s>", action)
	b.WriteString("</soap:Body>")
	b.WriteString("</soap:Envelope>")
	return b.String()
}

// locateElement returns the inner content of the first element named tag,
// matched case-insensitively, ignoring namespaces and attributes.
func locateElement(body, tag string) (string, bool) {
	pattern := regexp.MustCompile(`(?is)<` + regexp.QuoteMeta(tag) + `(?:\s[^>]*)?>(.*?)</` + regexp.QuoteMeta(tag) + `>`)
	match := pattern.FindStringSubmatch(body)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// ParseSOAPResult locates the named result element in a SOAP response and
// extracts every scalar <Tag>value</Tag> pair under it into a flat map.
// The scan is deliberately lenient about namespaces and nesting, but a
// missing result element is a hard error so protocol drift fails loudly.
func ParseSOAPResult(body []byte, resultTag string) (map[string]string, error) {
	section, ok := locateElement(string(body), resultTag)
	if !ok {
		return nil, fmt.Errorf("soap: result element <%s> not found in response", resultTag)
	}
	return extractTagPairs(section), nil
}

// ExtractXMLList extracts every occurrence of the named repeating element
// as its own flat map, for list-shaped responses (installment schedules)
// the flat extractor cannot represent.
func ExtractXMLList(body []byte, itemTag string) []map[string]string {
	pattern := regexp.MustCompile(`(?is)<` + regexp.QuoteMeta(itemTag) + `(?:\s[^>]*)?>(.*?)</` + regexp.QuoteMeta(itemTag) + `>`)
	matches := pattern.FindAllStringSubmatch(string(body), -1)
	items := make([]map[string]string, 0, len(matches))
	for _, match := range matches {
		items = append(items, extractTagPairs(match[1]))
	}
	return items
}

func extractTagPairs(section string) map[string]string {
	fields := make(map[string]string)
	for _, match := range tagPairPattern.FindAllStringSubmatch(section, -1) {
		open, value, closing := match[1], match[2], match[3]
		if !strings.EqualFold(open, closing) {
			continue
		}
		fields[open] = UnescapeXML(value)
	}
	return fields
}
