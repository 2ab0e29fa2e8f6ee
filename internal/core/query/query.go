// Package query renders an understanding into the retrieval query string
// handed to the downstream answer stage. The rendering is deterministic
// and order-preserving so the collaborator can cache on the raw string.
package query

import (
	"net/url"
	"strings"

	"porter/internal/core/extract"
)

const delimiter = "&"

// Build renders domain, intent and the extracted slots as name=value
// pairs joined by "&". Domain and intent always lead; slots follow in
// extraction order with their canonical values. Names and values are
// percent-escaped so the delimiter and "=" cannot appear unescaped.
func Build(domain, intent string, slots []extract.Slot) string {
	var b strings.Builder
	b.Grow(32 + 24*len(slots))

	writePair(&b, "domain", domain)
	b.WriteString(delimiter)
	writePair(&b, "intent", intent)
	for _, s := range slots {
		b.WriteString(delimiter)
		writePair(&b, s.Name, s.Canonical)
	}
	return b.String()
}

func writePair(b *strings.Builder, name, value string) {
	b.WriteString(url.QueryEscape(name))
	b.WriteByte('=')
	b.WriteString(url.QueryEscape(value))
}
