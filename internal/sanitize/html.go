// Package sanitize strips markup from user-supplied text before it is stored.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// StrictPolicy removes all HTML tags and attributes.
var StrictPolicy = bluemonday.StrictPolicy()

// maxPasses bounds the sanitize/decode loop for deeply nested entity encodings.
const maxPasses = 8

// Text strips all HTML and surrounding whitespace. Entities the policy
// escapes are decoded again so "Rock & Roll" is stored as typed; decoding
// repeats until the text stops changing so encoded markup cannot come back
// to life. Input that never settles is returned still escaped.
func Text(input string) string {
	out := input
	for range maxPasses {
		next := html.UnescapeString(StrictPolicy.Sanitize(out))
		if next == out {
			return strings.TrimSpace(out)
		}
		out = next
	}
	return strings.TrimSpace(StrictPolicy.Sanitize(out))
}

// Fields applies Text to each pointed-to string in place.
func Fields(fields ...*string) {
	for _, f := range fields {
		if f != nil {
			*f = Text(*f)
		}
	}
}
