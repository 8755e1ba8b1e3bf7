package provider

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ZaguanLabs/gotlui"
	"github.com/leonelquinteros/gotext"
)

// CatalogProvider serves translations from gettext PO files, one per
// target language, laid out as <dir>/<locale>.po. It works offline and
// can back a deployment whose strings are already translated by hand.
type CatalogProvider struct {
	dir string

	mu       sync.Mutex
	catalogs map[string]map[string]string
}

// NewCatalogProvider creates a provider reading catalogs from dir.
func NewCatalogProvider(dir string) *CatalogProvider {
	return &CatalogProvider{
		dir:      dir,
		catalogs: make(map[string]map[string]string),
	}
}

// TranslateBatch looks every fragment up in the target language's
// catalog. Fragments without a msgstr are absent from the result.
func (c *CatalogProvider) TranslateBatch(ctx context.Context, req BatchRequest) (map[string]string, error) {
	messages, err := c.catalog(req.TargetLang)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(req.Texts))
	for _, text := range req.Texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if translated, ok := messages[text]; ok {
			out[text] = translated
		}
	}
	return out, nil
}

// TranslateText looks one fragment up, returning it unchanged when the
// catalog has no entry.
func (c *CatalogProvider) TranslateText(ctx context.Context, req TextRequest) (string, error) {
	out, err := c.TranslateBatch(ctx, BatchRequest{Texts: []string{req.Text}, TargetLang: req.TargetLang})
	if err != nil {
		return "", err
	}
	if translated, ok := out[req.Text]; ok {
		return translated, nil
	}
	return req.Text, nil
}

// catalog loads and memoizes the translated messages of the PO file for
// lang, trying the full locale (ar_SA.po) before the base language (ar.po).
// Messages are read as stored: msgids are UI text, not format strings.
func (c *CatalogProvider) catalog(lang string) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if messages, ok := c.catalogs[lang]; ok {
		return messages, nil
	}

	for _, name := range []string{gotlui.NormalizeLocale(lang), gotlui.BaseLang(lang)} {
		path := filepath.Join(c.dir, name+".po")
		if _, err := os.Stat(path); err != nil {
			continue
		}
		po := gotext.NewPo()
		po.ParseFile(path)

		messages := make(map[string]string)
		for id, tr := range po.GetDomain().GetTranslations() {
			// Get falls back to the msgid when msgstr is empty.
			if translated := tr.Get(); id != "" && translated != id {
				messages[id] = translated
			}
		}
		c.catalogs[lang] = messages
		return messages, nil
	}

	return nil, &gotlui.ProviderError{
		Message: fmt.Sprintf("no catalog for %q in %s", lang, c.dir),
	}
}

// Verify CatalogProvider implements Service and gotlui.TextTranslator
var (
	_ Service               = (*CatalogProvider)(nil)
	_ gotlui.TextTranslator = (*CatalogProvider)(nil)
)
