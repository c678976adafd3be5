package wizard

import (
	"context"
	"io"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kingrea/hrdesk/internal/employee"
	"github.com/kingrea/hrdesk/internal/hrapi"
	"github.com/kingrea/hrdesk/internal/validation"
)

// Records is the part of the records client the forms use.
type Records interface {
	GetEmployeeByID(ctx context.Context, id string) (hrapi.Result[employee.Employee], error)
	CreateEmployee(ctx context.Context, payload hrapi.Payload) (hrapi.Result[employee.Employee], error)
	UpdateEmployee(ctx context.Context, id string, payload hrapi.Payload) (hrapi.Result[employee.Employee], error)
}

// Files resolves and fetches stored uploads.
type Files interface {
	FileURL(kind hrapi.UploadKind, ref string) string
	Download(ctx context.Context, rawURL string, w io.Writer) (int64, error)
}

// StepForm is the controller of one wizard stage.
//
// Loads and saves are split in three so the network work can run off the
// UI goroutine: PrepareLoad and Prepare run on the goroutine that owns the
// form and capture what the request needs, the returned Call does only
// network I/O, and Reply.Apply writes the result back on the owning
// goroutine. Load and Submit run all three in place.
type StepForm interface {
	Stage() Stage
	// PrepareLoad returns the fetch that hydrates the stage's existing
	// entries. An empty id loads nothing.
	PrepareLoad(employeeID string) Call
	Load(ctx context.Context, employeeID string) error
	// Validate checks the drafts without touching the network.
	Validate() validation.Issues
	// Prepare validates the drafts and captures the save. The form stays
	// busy until the Reply is applied. Drafts survive a failed save.
	Prepare(employeeID string) (Call, error)
	Submit(ctx context.Context, employeeID string) (Outcome, error)
	// Busy reports whether a save is in flight.
	Busy() bool
	// Close releases previews and other local resources.
	Close() error
}

// Call is the network half of a load or save. It only reads values
// captured when it was prepared.
type Call func(ctx context.Context) Reply

// Reply carries a Call's result back to the form's goroutine. The form is
// untouched until Apply runs.
type Reply struct {
	Stage   Stage
	Outcome Outcome
	Err     error

	apply func()
	done  func()
}

// Apply writes the result into the form, releases the in-flight guard and
// returns the call's error.
func (r Reply) Apply() error {
	if r.apply != nil {
		r.apply()
	}
	if r.done != nil {
		r.done()
	}
	return r.Err
}

// submitNow prepares, sends and applies in one go.
func submitNow(ctx context.Context, call Call, err error) (Outcome, error) {
	if err != nil {
		return Outcome{}, err
	}
	r := call(ctx)
	return r.Outcome, r.Apply()
}

// step holds what every form shares.
type step struct {
	stage   Stage
	records Records
	now     func() time.Time

	busy atomic.Bool
	// loadedFor is the id whose record was last fetched.
	loadedFor string
}

func (s *step) Stage() Stage { return s.stage }

func (s *step) Busy() bool { return s.busy.Load() }

func (s *step) begin() error {
	if !s.busy.CompareAndSwap(false, true) {
		return ErrSubmitInProgress
	}
	return nil
}

func (s *step) end() { s.busy.Store(false) }

// fetchEmployee loads the stored record; failures become SubmitErrors so
// the UI can show them like any other notice.
func fetchEmployee(ctx context.Context, records Records, id string) (employee.Employee, error) {
	res, err := records.GetEmployeeByID(ctx, id)
	if err != nil {
		return employee.Employee{}, &SubmitError{Action: "load", Subject: "employee", Message: hrapi.ServerMessage(err), Err: err}
	}
	if !res.Success {
		return employee.Employee{}, &SubmitError{Action: "load", Subject: "employee", Message: res.Message}
	}
	return res.Data, nil
}

// loader returns the Call that fetches id and hands the record to fill
// once applied.
func (s *step) loader(employeeID string, fill func(employee.Employee)) Call {
	id := strings.TrimSpace(employeeID)
	records, stage := s.records, s.stage
	return func(ctx context.Context) Reply {
		if id == "" {
			return Reply{Stage: stage}
		}
		emp, err := fetchEmployee(ctx, records, id)
		if err != nil {
			return Reply{Stage: stage, Err: err}
		}
		return Reply{Stage: stage, apply: func() {
			s.loadedFor = id
			fill(emp)
		}}
	}
}

// needsLoad reports whether a save must fetch before merging.
func (s *step) needsLoad(id string) bool {
	return s.loadedFor != id
}

// guard holds the in-flight guard while prepare runs and, when it
// succeeds, until the Call's Reply is applied.
func (s *step) guard(prepare func() (Call, error)) (Call, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	call, err := prepare()
	if err != nil {
		s.end()
		return nil, err
	}
	return call, nil
}

// sending wraps send into a Call whose Reply releases the guard.
func (s *step) sending(send func(ctx context.Context) (Outcome, func(), error)) Call {
	stage, done := s.stage, s.end
	return func(ctx context.Context) Reply {
		out, apply, err := send(ctx)
		return Reply{Stage: stage, Outcome: out, Err: err, apply: apply, done: done}
	}
}

// skip is the save of a list stage with nothing new.
func (s *step) skip(id string) Call {
	return s.sending(func(context.Context) (Outcome, func(), error) {
		return Outcome{EmployeeID: id, Skipped: true}, nil, nil
	})
}

// stored returns how a save finds the list to merge onto: a copy of the
// loaded list when id is loaded, otherwise a fresh fetch.
func stored[T any](s *step, id string, loaded []T, pick func(employee.Employee) []T) func(context.Context) ([]T, error) {
	if !s.needsLoad(id) {
		list := slices.Clone(loaded)
		return func(context.Context) ([]T, error) { return list, nil }
	}
	records := s.records
	return func(ctx context.Context) ([]T, error) {
		emp, err := fetchEmployee(ctx, records, id)
		if err != nil {
			return nil, err
		}
		return pick(emp), nil
	}
}

// update sends payload as a PATCH and turns failures into SubmitErrors.
// It only reads fields set at construction, so Calls may use it.
func (s *step) update(ctx context.Context, id, action string, payload hrapi.Payload) (hrapi.Result[employee.Employee], error) {
	res, err := s.records.UpdateEmployee(ctx, id, payload)
	if err != nil {
		return res, &SubmitError{Action: action, Subject: s.stage.Subject(), Message: hrapi.ServerMessage(err), Err: err}
	}
	if !res.Success {
		return res, &SubmitError{Action: action, Subject: s.stage.Subject(), Message: res.Message}
	}
	return res, nil
}

func requireEmployee(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrNoEmployee
	}
	return id, nil
}

func successMessage(res string, fallback string) string {
	if strings.TrimSpace(res) != "" {
		return res
	}
	return fallback
}

// returned picks the list from the response when the backend echoed the
// record, otherwise the list that was sent.
func returned[T any](res hrapi.Result[employee.Employee], fromResponse, sent []T) []T {
	if res.Data.ID == "" {
		return sent
	}
	return append([]T(nil), fromResponse...)
}
