package models

import (
	"time"
)

// Action classifies a mutating request for rate limiting purposes.
type Action string

const (
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// Rule is a sliding window limit: at most Limit requests in any Window.
type Rule struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

// IsZero reports whether the rule is unset. A zero rule disables limiting.
func (r Rule) IsZero() bool {
	return r.Limit <= 0 || r.Window <= 0
}

// Rules holds one rule per action class.
type Rules struct {
	Create Rule `mapstructure:"create"`
	Edit   Rule `mapstructure:"edit"`
	Delete Rule `mapstructure:"delete"`
}

// DefaultRules returns the stock limits: 5 creates, 10 edits and 10 deletes per five minutes.
func DefaultRules() Rules {
	return Rules{
		Create: Rule{Limit: 5, Window: 5 * time.Minute},
		Edit:   Rule{Limit: 10, Window: 5 * time.Minute},
		Delete: Rule{Limit: 10, Window: 5 * time.Minute},
	}
}

// For returns the rule configured for an action.
func (r Rules) For(a Action) (Rule, bool) {
	switch a {
	case ActionCreate:
		return r.Create, !r.Create.IsZero()
	case ActionEdit:
		return r.Edit, !r.Edit.IsZero()
	case ActionDelete:
		return r.Delete, !r.Delete.IsZero()
	}
	return Rule{}, false
}

// Result represents the outcome of a rate limit check.
type Result struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}
