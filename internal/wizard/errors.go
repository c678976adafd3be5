package wizard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kingrea/hrdesk/internal/validation"
)

var (
	// ErrSubmitInProgress is returned when a form is asked to submit while
	// its previous submit has not finished.
	ErrSubmitInProgress = errors.New("wizard: a submit is already in progress")
	// ErrNoEmployee is returned by stages that need a saved record.
	ErrNoEmployee = errors.New("wizard: save personal information first")

	errPreviewUnavailable = errors.New("wizard: previews are not available")
)

// ValidationError carries the issues that blocked a submit. Nothing was
// sent to the server.
type ValidationError struct {
	Stage  Stage
	Issues validation.Issues
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Issues.Error())
}

func (e *ValidationError) Unwrap() error { return e.Issues }

// SubmitError is a failed save. Message is the server's text when it sent
// one; otherwise Error falls back to "Error <action>ing <subject>".
type SubmitError struct {
	Action  string
	Subject string
	Message string
	Err     error
}

func (e *SubmitError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("Error %s %s", gerund(e.Action), e.Subject)
}

func (e *SubmitError) Unwrap() error { return e.Err }

func gerund(verb string) string {
	verb = strings.TrimSpace(verb)
	if strings.HasSuffix(verb, "e") && !strings.HasSuffix(verb, "ee") {
		return verb[:len(verb)-1] + "ing"
	}
	return verb + "ing"
}

// Outcome is a successful save.
type Outcome struct {
	EmployeeID string
	Message    string
	// Skipped is set when there was nothing to send.
	Skipped bool
}
