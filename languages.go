package gotlui

import (
	"strings"
	"unicode"
)

// LanguageNames maps base language codes to human-readable names for prompts
// and CLI output.
var LanguageNames = map[string]string{
	"ar": "Arabic",
	"bg": "Bulgarian",
	"bn": "Bengali",
	"de": "German",
	"el": "Greek",
	"en": "English",
	"es": "Spanish",
	"fa": "Persian",
	"fr": "French",
	"he": "Hebrew",
	"hi": "Hindi",
	"it": "Italian",
	"ja": "Japanese",
	"ko": "Korean",
	"nl": "Dutch",
	"pl": "Polish",
	"pt": "Portuguese",
	"ru": "Russian",
	"sr": "Serbian",
	"th": "Thai",
	"tr": "Turkish",
	"uk": "Ukrainian",
	"ur": "Urdu",
	"zh": "Chinese",
}

// languageScripts lists the Unicode scripts a language is written in. Text
// containing any of these runes is considered already translated. Latin
// script languages are absent: there is no way to tell English from French
// by script alone.
var languageScripts = map[string][]*unicode.RangeTable{
	"ar": {unicode.Arabic},
	"fa": {unicode.Arabic},
	"ur": {unicode.Arabic},
	"ps": {unicode.Arabic},
	"sd": {unicode.Arabic},
	"ug": {unicode.Arabic},
	"he": {unicode.Hebrew},
	"ru": {unicode.Cyrillic},
	"uk": {unicode.Cyrillic},
	"bg": {unicode.Cyrillic},
	"sr": {unicode.Cyrillic},
	"el": {unicode.Greek},
	"zh": {unicode.Han},
	"ja": {unicode.Hiragana, unicode.Katakana, unicode.Han},
	"ko": {unicode.Hangul},
	"th": {unicode.Thai},
	"hi": {unicode.Devanagari},
	"bn": {unicode.Bengali},
}

// BaseLang extracts the lower-cased base language code ("ar" from "ar_SA"
// or "ar-EG").
func BaseLang(lang string) string {
	lang = NormalizeLocale(strings.TrimSpace(lang))
	base, _, _ := strings.Cut(lang, "_")
	return strings.ToLower(base)
}

// GetLanguageName returns the human-readable name for a language code.
// Falls back to the code itself if not found.
func GetLanguageName(langCode string) string {
	if name, ok := LanguageNames[BaseLang(langCode)]; ok {
		return name
	}
	return langCode
}

// ScriptTables returns the script tables used to recognise text already
// written in langCode, or nil for Latin-script and unknown languages.
func ScriptTables(langCode string) []*unicode.RangeTable {
	return languageScripts[BaseLang(langCode)]
}

// GetDirection returns "rtl" for right-to-left languages, "ltr" otherwise.
func GetDirection(langCode string) string {
	if RTLLanguages[BaseLang(langCode)] {
		return "rtl"
	}
	return "ltr"
}

// IsRTL returns true if the language uses right-to-left text direction.
func IsRTL(langCode string) bool {
	return GetDirection(langCode) == "rtl"
}

// SameLanguage reports whether two codes share a base language
// ("en_US" and "en" do).
func SameLanguage(a, b string) bool {
	return BaseLang(a) == BaseLang(b)
}

// NormalizeLocale converts a language code to the standard format (e.g., "es-ES" → "es_ES").
func NormalizeLocale(langCode string) string {
	return strings.ReplaceAll(langCode, "-", "_")
}

// ToHTMLLang converts a locale code to HTML lang attribute format (e.g., "es_ES" → "es-ES").
func ToHTMLLang(langCode string) string {
	return strings.ReplaceAll(langCode, "_", "-")
}
