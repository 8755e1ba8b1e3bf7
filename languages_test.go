package gotlui

import (
	"testing"
	"unicode"
)

func TestGetLanguageName(t *testing.T) {
	tests := []struct {
		code     string
		expected string
	}{
		{"ar", "Arabic"},
		{"ar_SA", "Arabic"},
		{"es-ES", "Spanish"},
		{"unknown", "unknown"}, // fallback
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			result := GetLanguageName(tt.code)
			if result != tt.expected {
				t.Errorf("GetLanguageName(%q) = %q, want %q", tt.code, result, tt.expected)
			}
		})
	}
}

func TestGetDirection(t *testing.T) {
	tests := []struct {
		code     string
		expected string
	}{
		{"ar_SA", "rtl"},
		{"ar-EG", "rtl"},
		{"he", "rtl"},
		{"fa_IR", "rtl"},
		{"ar", "rtl"},
		{"es_ES", "ltr"},
		{"en", "ltr"},
		{"zh_CN", "ltr"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			result := GetDirection(tt.code)
			if result != tt.expected {
				t.Errorf("GetDirection(%q) = %q, want %q", tt.code, result, tt.expected)
			}
		})
	}
}

func TestBaseLangAndSameLanguage(t *testing.T) {
	if got := BaseLang(" AR-eg "); got != "ar" {
		t.Errorf("BaseLang = %q, want %q", got, "ar")
	}
	if !SameLanguage("en_US", "en") {
		t.Error("en_US and en should be the same language")
	}
	if SameLanguage("en", "ar") {
		t.Error("en and ar should differ")
	}
}

func TestScriptTables(t *testing.T) {
	tables := ScriptTables("ar_SA")
	if len(tables) != 1 || tables[0] != unicode.Arabic {
		t.Errorf("expected Arabic table for ar_SA, got %v", tables)
	}
	if ScriptTables("fr") != nil {
		t.Error("Latin-script languages should have no script tables")
	}
	if len(ScriptTables("ja")) != 3 {
		t.Error("Japanese should check kana and Han")
	}
}

func TestNormalizeLocaleAndHTMLLang(t *testing.T) {
	if got := NormalizeLocale("pt-BR"); got != "pt_BR" {
		t.Errorf("NormalizeLocale = %q", got)
	}
	if got := ToHTMLLang("pt_BR"); got != "pt-BR" {
		t.Errorf("ToHTMLLang = %q", got)
	}
}
