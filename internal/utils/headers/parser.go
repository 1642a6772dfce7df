// Package headers parses "Key: Value" header flags.
package headers

import (
	"fmt"
	"net/textproto"
	"strings"
)

// Parse converts header strings ("Key: Value") into a map keyed by the
// canonical header name. A later value for the same name replaces an
// earlier one.
func Parse(h []string) (map[string]string, error) {
	m := make(map[string]string, len(h))
	for _, hdr := range h {
		key, value, ok := strings.Cut(hdr, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" || strings.ContainsAny(key, " \t") {
			return nil, fmt.Errorf("invalid header %q: expected \"Key: Value\"", hdr)
		}
		m[textproto.CanonicalMIMEHeaderKey(key)] = strings.TrimSpace(value)
	}
	return m, nil
}
