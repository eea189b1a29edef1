package ingest

import (
	"regexp"
	"strings"
	"time"
)

const defaultCourt = "PH Supreme Court"

// Metadata holds the structured fields recovered from decision text.
// Extraction is best-effort: a rule miss leaves the field nil, it never
// fails a decision.
type Metadata struct {
	CaseNumber       *string
	Title            *string
	Court            *string
	PromulgationDate *time.Time
	Ponente          *string
	Division         *string
}

// Per-field rules, tried in priority order; the first match wins.
var (
	caseNumberRules = []*regexp.Regexp{
		regexp.MustCompile(`(?i)G\.\s*R\.\s*Nos?\.\s*[\w./-]+`),
		regexp.MustCompile(`(?i)A\.\s*M\.\s*Nos?\.\s*[\w./-]+`),
		regexp.MustCompile(`(?i)A\.\s*C\.\s*Nos?\.\s*[\w./-]+`),
	}
	dateRules = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},\s+\d{4}`),
	}
	ponenteRules = []*regexp.Regexp{
		regexp.MustCompile(`(?m)^\s*([A-ZÑ][A-ZÑa-z .'-]+),\s*(?:C\. ?J\.|J\.|SAJ\.)\s*:?\s*$`),
	}
	divisionRules = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bEN BANC\b`),
		regexp.MustCompile(`(?i)\b(FIRST|SECOND|THIRD) DIVISION\b`),
	}
)

// ExtractMetadata applies the pattern rules against normalized text.
func ExtractMetadata(text string) Metadata {
	meta := Metadata{Court: ptr(defaultCourt)}

	if m := firstMatch(caseNumberRules, text); m != "" {
		meta.CaseNumber = ptr(strings.Join(strings.Fields(m), " "))
	}
	if m := firstMatch(dateRules, text); m != "" {
		if date, err := time.Parse("January 2, 2006", canonicalDate(m)); err == nil {
			meta.PromulgationDate = &date
		}
	}
	for _, rule := range ponenteRules {
		if groups := rule.FindStringSubmatch(text); groups != nil {
			meta.Ponente = ptr(strings.TrimSpace(groups[1]))
			break
		}
	}
	if m := firstMatch(divisionRules, text); m != "" {
		meta.Division = ptr(strings.ToUpper(strings.Join(strings.Fields(m), " ")))
	}
	if line := firstNonEmptyLine(text); line != "" {
		meta.Title = ptr(line)
	}
	return meta
}

func firstMatch(rules []*regexp.Regexp, text string) string {
	for _, rule := range rules {
		if m := rule.FindString(text); m != "" {
			return m
		}
	}
	return ""
}

// canonicalDate normalizes the month casing so time.Parse accepts
// matches found in all-caps headers.
func canonicalDate(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return s
	}
	month := strings.ToLower(fields[0])
	fields[0] = strings.ToUpper(month[:1]) + month[1:]
	return strings.Join(fields, " ")
}

func firstNonEmptyLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func ptr[T any](v T) *T {
	return &v
}
