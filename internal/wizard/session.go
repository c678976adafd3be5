package wizard

import (
	"context"
	"errors"

	"github.com/kingrea/hrdesk/internal/hrapi"
	"github.com/kingrea/hrdesk/internal/refdata"
	"github.com/kingrea/hrdesk/internal/viewer"
)

// Deps are the collaborators a session hands to its forms.
type Deps struct {
	Records Records
	Files   Files
	Catalog refdata.Catalog
	Opener  viewer.Opener
}

// Session is one run of the wizard: a controller plus the forms it has
// shown so far. Forms are built on first use and kept, so going back to a
// stage finds its drafts where the user left them.
type Session struct {
	Controller *Controller

	deps     Deps
	previews *viewer.Previews
	forms    map[Stage]StepForm
}

// NewSession starts a wizard for employeeID (empty for a new employee).
func NewSession(employeeID string, deps Deps) *Session {
	if deps.Catalog == nil {
		deps.Catalog = refdata.Catalog{}
	}
	return &Session{
		Controller: NewController(employeeID),
		deps:       deps,
		previews:   viewer.NewPreviews(deps.Opener),
		forms:      map[Stage]StepForm{},
	}
}

// Catalog is the reference data the forms offer as options.
func (s *Session) Catalog() refdata.Catalog {
	return s.deps.Catalog
}

// Options lists picker choices for kind.
func (s *Session) Options(kind hrapi.Kind) []string {
	return s.deps.Catalog.Names(kind)
}

// Form returns the form for the current stage.
func (s *Session) Form() StepForm {
	return s.FormFor(s.Controller.Stage())
}

// FormFor returns (building if needed) the form of stage.
func (s *Session) FormFor(stage Stage) StepForm {
	if form, ok := s.forms[stage]; ok {
		return form
	}
	var form StepForm
	switch stage {
	case StageEducation:
		form = NewEducationForm(s.deps.Records)
	case StageEmployment:
		form = NewEmploymentForm(s.deps.Records)
	case StageDocuments:
		form = NewDocumentsForm(s.deps.Records, s.deps.Files, s.deps.Opener, s.previews)
	case StageNextOfKin:
		form = NewNextOfKinForm(s.deps.Records)
	default:
		form = NewPersonalForm(s.deps.Records, s.previews)
		stage = StagePersonalInfo
	}
	s.forms[stage] = form
	return form
}

func (s *Session) Personal() *PersonalForm {
	return s.FormFor(StagePersonalInfo).(*PersonalForm)
}

func (s *Session) Education() *EducationForm {
	return s.FormFor(StageEducation).(*EducationForm)
}

func (s *Session) Employment() *EmploymentForm {
	return s.FormFor(StageEmployment).(*EmploymentForm)
}

func (s *Session) Documents() *DocumentsForm {
	return s.FormFor(StageDocuments).(*DocumentsForm)
}

func (s *Session) NextOfKin() *NextOfKinForm {
	return s.FormFor(StageNextOfKin).(*NextOfKinForm)
}

// PrepareLoad returns the fetch for the current stage. Apply its Reply on
// the goroutine that owns the session.
func (s *Session) PrepareLoad() Call {
	return s.Form().PrepareLoad(s.Controller.EmployeeID())
}

// LoadCurrent hydrates the current stage's form from the stored record.
func (s *Session) LoadCurrent(ctx context.Context) error {
	return s.PrepareLoad()(ctx).Apply()
}

// PrepareSubmit validates the current form and captures its save. It does
// not move the wizard; pass the applied outcome to Complete.
func (s *Session) PrepareSubmit() (Call, error) {
	return s.Form().Prepare(s.Controller.EmployeeID())
}

// SubmitCurrent submits the current form in place.
func (s *Session) SubmitCurrent(ctx context.Context) (Outcome, error) {
	call, err := s.PrepareSubmit()
	return submitNow(ctx, call, err)
}

// Complete applies a successful outcome and reports whether the wizard
// finished.
func (s *Session) Complete(out Outcome) bool {
	return s.Controller.StepSucceeded(out.EmployeeID)
}

// Close releases every form's local resources and ends the session.
func (s *Session) Close() error {
	var errs []error
	for _, form := range s.forms {
		if err := form.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.previews.Close(); err != nil {
		errs = append(errs, err)
	}
	s.Controller.Close()
	return errors.Join(errs...)
}
