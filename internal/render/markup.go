package render

import "strings"

// markupReplacer removes the Markdown control characters Telegram interprets
// in legacy Markdown mode. Stripping (not escaping) keeps the plain-text
// fallback readable.
var markupReplacer = strings.NewReplacer(
	"*", "",
	"_", "",
	"`", "",
	"[", "",
	"]", "",
)

// StripMarkup sanitizes text for plain-text delivery.
func StripMarkup(text string) string {
	return markupReplacer.Replace(text)
}
