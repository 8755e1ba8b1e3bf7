package gotlui

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SkipReason names the rule that excluded a fragment from translation.
type SkipReason string

const (
	ReasonNone       SkipReason = ""
	ReasonTooShort   SkipReason = "too_short"
	ReasonEmail      SkipReason = "email"
	ReasonURL        SkipReason = "url"
	ReasonIdentifier SkipReason = "identifier"
	ReasonPhone      SkipReason = "phone"
	ReasonDate       SkipReason = "date"
	ReasonNumeric    SkipReason = "numeric"
	ReasonCurrency   SkipReason = "currency"
	ReasonPath       SkipReason = "path"
	ReasonTargetText SkipReason = "target_script"
)

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	urlPattern      = regexp.MustCompile(`(?i)^(https?://|www\.)\S+$`)
	domainPattern   = regexp.MustCompile(`(?i)^[\w-]+(\.[\w-]+)*\.(com|org|net|io|dev|app|co|edu|gov|info|biz|me|ai|sa|ae|eg)(:\d+)?(/\S*)?$`)
	uuidPattern     = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)
	phonePattern    = regexp.MustCompile(`^\+?[\d\s()\-.]+$`)
	datePatterns    = []*regexp.Regexp{
		regexp.MustCompile(`^\d{1,2}[/.\-]\d{1,2}[/.\-]\d{2,4}$`),
		regexp.MustCompile(`^\d{4}[/.\-]\d{1,2}[/.\-]\d{1,2}([T ]\d{1,2}:\d{2}(:\d{2})?)?$`),
	}
	numericPattern      = regexp.MustCompile(`^[\d\s.,]+$`)
	currencySymbol      = regexp.MustCompile(`^\p{Sc}\s*[\d.,]+|^[\d.,\s]+\p{Sc}$`)
	currencyCode        = regexp.MustCompile(`^(USD|EUR|GBP|SAR|AED|EGP|KWD|QAR|BHD|OMR|JOD|JPY|CNY|INR|TRY|CHF|CAD|AUD)\s*[\d.,]+`)
	fileExtPattern      = regexp.MustCompile(`(?i)^[\w\-. /\\]*\.(png|jpe?g|gif|svg|webp|pdf|docx?|xlsx?|pptx?|csv|txt|md|json|xml|ya?ml|js|ts|css|html?|zip|tar|gz|mp3|mp4|wav|mov)$`)
	pathPrefixPattern   = regexp.MustCompile(`^(~?/|\.{1,2}/|[A-Za-z]:\\)\S*$`)
	nestedPathPattern   = regexp.MustCompile(`^[\w.\-]+([/\\][\w.\-]+){2,}[/\\]?$`)
	phoneMinSignificant = 8
)

type skipRule struct {
	reason SkipReason
	match  func(text, targetLang string) bool
}

// skipRules are evaluated in order; several patterns overlap (a date is
// also phone-like punctuation) so the order is part of the contract.
var skipRules = []skipRule{
	{ReasonTooShort, func(s, _ string) bool { return utf8.RuneCountInString(s) < 2 }},
	{ReasonEmail, func(s, _ string) bool { return emailPattern.MatchString(s) }},
	{ReasonURL, isURL},
	{ReasonIdentifier, func(s, _ string) bool {
		return uuidPattern.MatchString(s) || objectIDPattern.MatchString(s)
	}},
	{ReasonPhone, isPhone},
	{ReasonDate, isDate},
	{ReasonNumeric, func(s, _ string) bool { return numericPattern.MatchString(s) }},
	{ReasonCurrency, func(s, _ string) bool {
		return currencySymbol.MatchString(s) || currencyCode.MatchString(s)
	}},
	{ReasonPath, isPath},
	{ReasonTargetText, containsTargetScript},
}

// Classify returns the first skip rule matching text for the given target
// language, or ReasonNone when the fragment needs translation.
func Classify(text, targetLang string) SkipReason {
	trimmed := strings.TrimSpace(text)
	for _, rule := range skipRules {
		if rule.match(trimmed, targetLang) {
			return rule.reason
		}
	}
	return ReasonNone
}

// ShouldSkip reports whether text must never be sent to the translation
// service. It is total: any string, including the empty one, is accepted.
func ShouldSkip(text, targetLang string) bool {
	return Classify(text, targetLang) != ReasonNone
}

func isURL(s, _ string) bool {
	if urlPattern.MatchString(s) {
		return true
	}
	// Bare domains only count when the fragment is a single token, so
	// sentences mentioning a site still get translated.
	return !strings.ContainsAny(s, " \t\n") && domainPattern.MatchString(s)
}

func isPhone(s, _ string) bool {
	if !phonePattern.MatchString(s) {
		return false
	}
	significant := 0
	digits := 0
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		significant++
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return digits > 0 && significant >= phoneMinSignificant
}

func isDate(s, _ string) bool {
	for _, p := range datePatterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

func isPath(s, _ string) bool {
	if strings.ContainsAny(s, "\n\t") {
		return false
	}
	return fileExtPattern.MatchString(s) ||
		pathPrefixPattern.MatchString(s) ||
		nestedPathPattern.MatchString(s)
}

func containsTargetScript(s, targetLang string) bool {
	tables := ScriptTables(targetLang)
	if len(tables) == 0 {
		return false
	}
	for _, r := range s {
		if unicode.IsOneOf(tables, r) {
			return true
		}
	}
	return false
}
