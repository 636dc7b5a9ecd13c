package security

import "regexp"

// denylist is matched against already-sanitized fields. Sanitization
// normalizes; this catches anything that slipped through or was reintroduced.
var denylist = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script`),
	regexp.MustCompile(`(?i)</script>`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)vbscript:`),
	regexp.MustCompile(`(?i)on\w+\s*=`),
	regexp.MustCompile(`(?i)eval\(`),
	regexp.MustCompile(`(?i)expression\(`),
	regexp.MustCompile(`(?i)<iframe`),
	regexp.MustCompile(`(?i)<object`),
	regexp.MustCompile(`(?i)<embed`),
	regexp.MustCompile(`(?i)<form`),
	regexp.MustCompile(`(?i)<input`),
}

// Scanner rejects entities whose free-text fields match a dangerous pattern.
type Scanner struct{}

// NewScanner returns a Scanner using the fixed denylist.
func NewScanner() *Scanner {
	return &Scanner{}
}

// IsSecure reports whether no free-text field of v matches the denylist.
func (sc *Scanner) IsSecure(v any) bool {
	_, ok := sc.Check(v)
	return ok
}

// Check returns the name of the first offending field, or ok=true when
// every field is clean.
func (sc *Scanner) Check(v any) (field string, ok bool) {
	for _, f := range textFields(v) {
		cur, present := f.get()
		if !present {
			continue
		}
		if MatchesDenylist(cur) {
			return f.name, false
		}
	}
	return "", true
}

// MatchesDenylist reports whether s contains any denylisted pattern.
func MatchesDenylist(s string) bool {
	for _, re := range denylist {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
