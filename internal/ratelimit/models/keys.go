package models

import "strings"

const keyPrefix = "ratelimit"

var segmentEscaper = strings.NewReplacer("%", "%25", ":", "%3A")

// SanitizeKeySegment percent-encodes the key delimiter and the escape
// character itself, so distinct segments always produce distinct keys.
func SanitizeKeySegment(s string) string {
	return segmentEscaper.Replace(s)
}

// Key identifies one sliding window: ratelimit:<principal>:<action>.
type Key struct {
	Principal string
	Action    string
}

// NewKey builds a key from a principal name and an action key such as
// "DEPARTMENT_CREATE".
func NewKey(principal, action string) Key {
	return Key{Principal: principal, Action: action}
}

func (k Key) String() string {
	return keyPrefix + ":" + SanitizeKeySegment(k.Principal) + ":" + SanitizeKeySegment(k.Action)
}
