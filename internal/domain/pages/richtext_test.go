package pages

import (
	"strings"
	"testing"
)

func TestSanitizeRichText(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input string
		want  string
	}{
		{input: "", want: ""},
		{input: "<p>Plain <strong>bold</strong></p>", want: "<p>Plain <strong>bold</strong></p>"},
		{input: "<p>a</p><script>alert(1)</script>", want: "<p>a</p>"},
		{input: `<div><iframe src="x"></iframe>text</div>`, want: "<div>text</div>"},
		{input: `<img src="a.png" onerror="steal()">`, want: `<img src="a.png">`},
		{input: `<a href=" javascript:alert(1)">link</a>`, want: "link"},
		{input: `<a href="https://rara.studio">site</a>`, want: `<a href="https://rara.studio" rel="nofollow">site</a>`},
		{input: `<p style="color:red">kept</p><style></style>`, want: `<p>kept</p>`},
	}

	for _, tc := range cases {
		if got := SanitizeRichText(tc.input); got != tc.want {
			t.Fatalf("SanitizeRichText(%q): expected %q, got %q", tc.input, tc.want, got)
		}
	}
}

func TestSanitizeRichTextRemovesActiveContent(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"form action":  `<button formaction="javascript:alert(1)">x</button>`,
		"meta refresh": `<meta http-equiv="refresh" content="0;url=javascript:alert(1)"/>`,
		"data url":     `<a href="data:text/html;base64,PHNjcmlwdD5hbGVydCgxKTwvc2NyaXB0Pg==">x</a>`,
	}
	forbidden := []string{"javascript:", "data:", "formaction", "http-equiv", "<meta", "<button", "<script"}

	for name, input := range cases {
		got := SanitizeRichText(input)
		for _, marker := range forbidden {
			if strings.Contains(strings.ToLower(got), marker) {
				t.Fatalf("%s: expected %q to be removed, got %q", name, marker, got)
			}
		}
	}
}
