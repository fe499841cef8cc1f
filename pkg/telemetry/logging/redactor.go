package logging

import (
	"regexp"
	"strings"

	"caretrust-hq/minerva/pkg/config"
)

// Redactor scrubs PHI (Protected Health Information) from log output.
type Redactor struct {
	patterns map[string]*redactPattern
}

// redactPattern contains a compiled regex and replacement string.
type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Common PHI pattern names.
const (
	PatternSSN   = "ssn"
	PatternMRN   = "mrn"
	PatternPhone = "phone"
	PatternEmail = "email"
	PatternDOB   = "dob"
)

// NewRedactor creates a Redactor with the built-in PHI patterns plus any
// custom patterns from configuration. Custom patterns that fail to
// compile are skipped.
func NewRedactor(customPatterns []config.RedactPattern) *Redactor {
	r := &Redactor{patterns: make(map[string]*redactPattern)}
	r.addDefaultPatterns()

	for _, p := range customPatterns {
		regex, err := regexp.Compile(p.Pattern)
		if err != nil {
			continue
		}
		r.patterns[p.Name] = &redactPattern{
			name:        p.Name,
			regex:       regex,
			replacement: p.Replacement,
		}
	}
	return r
}

// addDefaultPatterns adds the built-in PHI redaction patterns.
func (r *Redactor) addDefaultPatterns() {
	patterns := map[string]struct {
		regex       string
		replacement string
	}{
		// Social Security Numbers
		PatternSSN: {
			regex:       `\b\d{3}[-\s]?\d{2}[-\s]?\d{4}\b`,
			replacement: "***-**-****",
		},

		// Medical record numbers, MRN-prefixed
		PatternMRN: {
			regex:       `\b(?:MRN|mrn)[-:\s]*\d{5,12}\b`,
			replacement: "MRN-********",
		},

		// Phone numbers
		PatternPhone: {
			regex:       `\b(?:\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`,
			replacement: "***-***-****",
		},

		// Email addresses
		PatternEmail: {
			regex:       `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`,
			replacement: "***@***",
		},

		// Dates of birth in common US formats
		PatternDOB: {
			regex:       `\b(?:0?[1-9]|1[0-2])/(?:0?[1-9]|[12]\d|3[01])/(?:19|20)\d{2}\b`,
			replacement: "**/**/****",
		},
	}

	for name, p := range patterns {
		r.patterns[name] = &redactPattern{
			name:        name,
			regex:       regexp.MustCompile(p.regex),
			replacement: p.replacement,
		}
	}
}

// RedactString scrubs PHI patterns from a string value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	redacted := value
	for _, pattern := range r.patterns {
		redacted = pattern.regex.ReplaceAllString(redacted, pattern.replacement)
	}
	return redacted
}

// IsSensitiveKey reports whether a field name indicates PHI regardless
// of its value.
func (r *Redactor) IsSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)

	sensitiveKeys := []string{
		"ssn", "social_security",
		"date_of_birth", "dob", "birth_date",
		"patient_name", "full_name",
		"address", "street",
		"phone", "email",
		"mrn", "medical_record",
		"insurance",
		"password", "secret", "token",
	}
	for _, sensitive := range sensitiveKeys {
		if strings.Contains(lowerKey, sensitive) {
			return true
		}
	}
	return false
}

// MaskValue redacts a sensitive value, keeping a short hint of the
// original for debugging.
func (r *Redactor) MaskValue(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return "***"
	}
	return value[:2] + "***"
}
