package pages

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// richTextPolicy allows the formatting an editor produces and nothing active:
// no scripts, frames, forms, meta refreshes, event handlers or non-http(s) URLs.
var richTextPolicy = bluemonday.UGCPolicy()

// SanitizeRichText removes active content from an editor's HTML fragment.
func SanitizeRichText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return fragment
	}
	return richTextPolicy.Sanitize(fragment)
}
