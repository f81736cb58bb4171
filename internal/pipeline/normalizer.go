package pipeline

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/expenselens/backend/internal/config"
	"github.com/expenselens/backend/internal/extraction"
	"github.com/expenselens/backend/internal/model"
)

var (
	// Patterns for cleaning vendor names
	vendorSuffixPattern = regexp.MustCompile(`(?i)\s+(llc|l\.l\.c|fze|fz-llc|fzc|est|trading|co|inc|ltd)\.?$`)
	longNumbers         = regexp.MustCompile(`\d{6,}`)
	specialChars        = regexp.MustCompile(`[*#]+`)
	nonAmountChars      = regexp.MustCompile(`[^0-9.\-]`)
	currencyCodePattern = regexp.MustCompile(`^[A-Za-z]{3}$`)
)

// dateFormats to try when parsing extracted dates. UAE invoices are
// overwhelmingly DD/MM, so day-first layouts come before month-first.
var dateFormats = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"02.01.2006",
	"2006/01/02",
	"02 Jan 2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"02/01/06",
	"2/1/06",
}

// Normalizer turns a raw extracted field set into a typed document draft.
// It performs no I/O; rule tables are injected at construction.
type Normalizer struct {
	vendorRules     []config.VendorRule
	keywordRules    []config.KeywordRule
	defaultCurrency string
	fallbackOther   bool
}

// NewNormalizer builds a normalizer from the configured rule tables.
func NewNormalizer(cfg config.PipelineConfig, rules config.RulesConfig) *Normalizer {
	return &Normalizer{
		vendorRules:     rules.Vendors,
		keywordRules:    rules.Keywords,
		defaultCurrency: cfg.DefaultCurrency,
		fallbackOther:   cfg.CategoryFallback == "other",
	}
}

// Normalize produces a typed document draft from raw extractor output.
// Parse failures yield nil fields, never errors: a field that cannot be
// typed is a missing field for the validator to question. The returned
// Confidences carry the extractor's per-field signals for fields that
// produced a usable value.
func (n *Normalizer) Normalize(raw *extraction.RawDocument, sourceFile string) (*model.Document, Confidences) {
	doc := &model.Document{
		Currency:   n.defaultCurrency,
		SourceFile: sourceFile,
		CreatedAt:  time.Now().UTC(),
	}
	conf := Confidences{}

	if raw == nil {
		// Extraction unavailable: minimal scaffold, everything null.
		return doc, conf
	}

	var matchedRule *config.VendorRule
	if raw.Vendor.Present() {
		name, rule := n.normalizeVendor(raw.Vendor.Value)
		if name != "" {
			doc.Vendor = &name
			conf[FieldVendor] = raw.Vendor.Confidence
			matchedRule = rule
		}
	}

	if raw.Date.Present() {
		if d := parseFlexibleDate(raw.Date.Value); d != nil {
			doc.Date = d
			conf[FieldDate] = raw.Date.Confidence
		}
	}

	if raw.Amount.Present() {
		if a := parseAmount(raw.Amount.Value); a != nil {
			doc.Amount = a
			conf[FieldAmount] = raw.Amount.Confidence
		}
	}

	if raw.TaxAmount.Present() {
		if a := parseAmount(raw.TaxAmount.Value); a != nil {
			doc.TaxAmount = a
			conf[FieldTaxAmount] = raw.TaxAmount.Confidence
		}
	}

	if raw.Currency.Present() {
		code := strings.ToUpper(strings.TrimSpace(raw.Currency.Value))
		if currencyCodePattern.MatchString(code) {
			doc.Currency = code
		}
	}

	if raw.VATInclusive.Present() {
		if b := parseTriState(raw.VATInclusive.Value); b != nil {
			doc.VATInclusive = b
		}
	}

	doc.TransactionType = strings.TrimSpace(raw.TransactionType.Value)
	doc.Notes = strings.TrimSpace(raw.Notes.Value)

	n.assignCategory(doc, raw, matchedRule, conf)

	return doc, conf
}

// normalizeVendor cleans a raw vendor string and applies the alias rule
// table. First matching rule wins; unmatched vendors pass through with
// display formatting only.
func (n *Normalizer) normalizeVendor(rawVendor string) (string, *config.VendorRule) {
	lower := strings.ToLower(strings.TrimSpace(rawVendor))
	if lower == "" {
		return "", nil
	}

	for i := range n.vendorRules {
		rule := &n.vendorRules[i]
		if strings.Contains(lower, rule.Match) {
			return rule.Name, rule
		}
	}

	return formatVendorName(rawVendor), nil
}

// assignCategory resolves the category: extractor suggestion (if it is a
// closed-set member), then the matched vendor rule, then keyword rules
// over vendor name and notes, then the configured fallback policy.
func (n *Normalizer) assignCategory(doc *model.Document, raw *extraction.RawDocument, rule *config.VendorRule, conf Confidences) {
	if raw.Category.Present() {
		if cat, ok := model.ParseCategory(strings.TrimSpace(raw.Category.Value)); ok {
			doc.Category = &cat
			conf[FieldCategory] = raw.Category.Confidence
			return
		}
	}

	if rule != nil && rule.Category != "" {
		if cat, ok := model.ParseCategory(rule.Category); ok {
			doc.Category = &cat
			conf[FieldCategory] = 0.95
			return
		}
	}

	haystack := strings.ToLower(raw.Vendor.Value + " " + doc.Notes)
	for _, kw := range n.keywordRules {
		if strings.Contains(haystack, kw.Keyword) {
			if cat, ok := model.ParseCategory(kw.Category); ok {
				doc.Category = &cat
				conf[FieldCategory] = 0.60
				return
			}
		}
	}

	if n.fallbackOther {
		cat := model.CategoryOther
		doc.Category = &cat
		conf[FieldCategory] = 0.30
	}
	// fallback "none": leave nil, the validator raises a select question
}

// formatVendorName formats a raw vendor name for display.
func formatVendorName(raw string) string {
	cleaned := vendorSuffixPattern.ReplaceAllString(raw, "")
	cleaned = longNumbers.ReplaceAllString(cleaned, "")
	cleaned = specialChars.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)

	caser := cases.Title(language.English)
	words := strings.Fields(cleaned)
	for i, word := range words {
		if len(word) > 2 {
			words[i] = caser.String(strings.ToLower(word))
		} else {
			words[i] = strings.ToUpper(word)
		}
	}

	result := strings.Join(words, " ")
	if len(result) > 50 {
		result = result[:50]
	}
	return result
}

// parseAmount parses a monetary string, tolerating currency symbols,
// codes, and thousands separators. Returns nil on failure.
func parseAmount(s string) *float64 {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = nonAmountChars.ReplaceAllString(cleaned, "")
	if cleaned == "" || cleaned == "-" || cleaned == "." {
		return nil
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}

// parseFlexibleDate tries the known date layouts. Returns nil on failure.
func parseFlexibleDate(s string) *time.Time {
	trimmed := strings.TrimSpace(s)
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, trimmed); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// parseTriState parses an explicit yes/no style flag. Returns nil when
// the extractor could not tell, preserving the unknown state.
func parseTriState(s string) *bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "inclusive", "paid":
		v := true
		return &v
	case "false", "no", "exclusive", "unpaid":
		v := false
		return &v
	}
	return nil
}
