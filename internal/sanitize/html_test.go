package sanitize

import (
	"testing"
)

func TestText_RemovesAllHTML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "script tag",
			input:    `Hello <script>alert('xss')</script> World`,
			expected: `Hello  World`,
		},
		{
			name:     "inline event handler",
			input:    `<div onclick="alert('xss')">Click me</div>`,
			expected: `Click me`,
		},
		{
			name:     "iframe injection",
			input:    `Safe text <iframe src="evil.com"></iframe> more text`,
			expected: `Safe text  more text`,
		},
		{
			name:     "mixed HTML tags",
			input:    `<b>Bold</b> <i>Italic</i> <a href="http://example.com">Link</a>`,
			expected: `Bold Italic Link`,
		},
		{
			name:     "ampersand and quotes survive",
			input:    `Rock & Roll "night" at Joe's`,
			expected: `Rock & Roll "night" at Joe's`,
		},
		{
			name:     "accents unchanged",
			input:    `Praça da Sé, São Paulo`,
			expected: `Praça da Sé, São Paulo`,
		},
		{
			name:     "surrounding whitespace trimmed",
			input:    "  Picnic \n",
			expected: `Picnic`,
		},
		{
			name:     "empty string",
			input:    ``,
			expected: ``,
		},
		{
			name:     "escaped script tag",
			input:    `&lt;script&gt;alert(1)&lt;/script&gt;`,
			expected: ``,
		},
		{
			name:     "escaped image tag inside text",
			input:    `Nice &lt;img src=x onerror=alert(1)&gt;party`,
			expected: `Nice party`,
		},
		{
			name:     "double escaped markup",
			input:    `&amp;lt;b&amp;gt;Party&amp;lt;/b&amp;gt;`,
			expected: `Party`,
		},
		{
			name:     "less-than in plain text survives",
			input:    `a < b`,
			expected: `a < b`,
		},
		{
			name:     "image tag with onerror",
			input:    `<img src=x onerror="alert('xss')">`,
			expected: ``,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.input); got != tt.expected {
				t.Errorf("Text(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFields(t *testing.T) {
	title := "<b>Party</b>"
	desc := " bring snacks "
	Fields(&title, &desc, nil)

	if title != "Party" || desc != "bring snacks" {
		t.Fatalf("Fields() = %q, %q", title, desc)
	}
}
