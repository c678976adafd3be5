// Package validation collects field-level problems found in a draft before
// anything is sent to the records API.
package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// EmailPattern is the address check applied inline and at submit time.
var EmailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Issue names one field and what is wrong with it.
type Issue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (i Issue) String() string {
	if i.Field == "" {
		return i.Reason
	}
	return fmt.Sprintf("%s %s", i.Field, i.Reason)
}

// Issues is the ordered result of a validation pass.
type Issues []Issue

// Error joins the issues into one line so Issues can be returned as an error.
func (is Issues) Error() string {
	if len(is) == 0 {
		return ""
	}
	parts := make([]string, 0, len(is))
	for _, issue := range is {
		parts = append(parts, issue.String())
	}
	return strings.Join(parts, "; ")
}

// Has reports whether any issue mentions field.
func (is Issues) Has(field string) bool {
	for _, issue := range is {
		if issue.Field == field {
			return true
		}
	}
	return false
}

// Validator accumulates issues. A nil Validator ignores everything.
type Validator struct {
	prefix string
	issues []Issue
}

func New() *Validator {
	return &Validator{issues: make([]Issue, 0, 4)}
}

// Scoped returns a validator that prefixes every field, for list entries
// such as "educations[2].degree". Issues land in the parent.
func (v *Validator) Scoped(prefix string) *Validator {
	if v == nil {
		return nil
	}
	return &Validator{prefix: v.join(prefix), issues: nil}
}

// Merge appends the issues recorded on a scoped child.
func (v *Validator) Merge(child *Validator) {
	if v == nil || child == nil {
		return
	}
	v.issues = append(v.issues, child.issues...)
}

func (v *Validator) join(field string) string {
	field = strings.TrimSpace(field)
	if v.prefix == "" {
		return field
	}
	if field == "" {
		return v.prefix
	}
	return v.prefix + "." + field
}

func (v *Validator) Add(field, reason string) {
	if v == nil {
		return
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return
	}
	v.issues = append(v.issues, Issue{Field: v.join(field), Reason: reason})
}

func (v *Validator) Required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "is required")
	}
}

func (v *Validator) Enum(field, value string, allowed []string) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return
	}
	for _, candidate := range allowed {
		if normalized == strings.ToLower(strings.TrimSpace(candidate)) {
			return
		}
	}
	v.Add(field, "must be one of "+strings.Join(allowed, ", "))
}

// Email checks the address format when a value is present.
func (v *Validator) Email(field, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	if !EmailPattern.MatchString(value) {
		v.Add(field, "must be a valid email address")
	}
}

// Date parses an optional date; empty values are skipped.
func (v *Validator) Date(field, raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		v.Add(field, "must be a valid date in YYYY-MM-DD format")
		return time.Time{}, false
	}
	return parsed, true
}

func (v *Validator) DateOrder(startField string, start time.Time, endField string, end time.Time) {
	if start.IsZero() || end.IsZero() {
		return
	}
	if end.Before(start) {
		v.Add(endField, "must be on or after "+startField)
	}
}

func (v *Validator) HasIssues() bool {
	return v != nil && len(v.issues) > 0
}

// Issues returns a sorted copy of what was recorded.
func (v *Validator) Issues() Issues {
	if v == nil || len(v.issues) == 0 {
		return nil
	}
	out := make(Issues, len(v.issues))
	copy(out, v.issues)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Field == out[j].Field {
			return out[i].Reason < out[j].Reason
		}
		return out[i].Field < out[j].Field
	})
	return out
}

// Err returns the issues as an error, or nil when there are none.
func (v *Validator) Err() error {
	if !v.HasIssues() {
		return nil
	}
	return v.Issues()
}

// ParseDate accepts RFC3339 or YYYY-MM-DD.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	return time.Parse("2006-01-02", value)
}
