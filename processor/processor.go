// Package processor extracts UI text fragments from HTML documents and
// writes their translations back.
package processor

import "context"

// Fragment is one translatable piece of a document.
type Fragment struct {
	Text    string // Trimmed source text
	Context string // Where it appears, e.g. `in <button class="primary">`
	Source  string // "text" for text nodes, or the attribute name
}

// BulkTranslator translates many fragments at once. *gotlui.Translator
// satisfies it.
type BulkTranslator interface {
	TranslateMany(ctx context.Context, texts []string) map[string]string
	TargetLang() string
}

// IgnoredTags lists elements whose content is never translated.
var IgnoredTags = map[string]bool{
	"script":   true,
	"style":    true,
	"code":     true,
	"pre":      true,
	"textarea": true,
	"svg":      true,
	"noscript": true,
	"template": true,
}

// TranslatableAttrs lists attributes that carry user-visible text.
var TranslatableAttrs = []string{"placeholder", "title", "alt", "aria-label"}
