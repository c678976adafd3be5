package wizard

import (
	"context"
	"fmt"
	"time"

	"github.com/kingrea/hrdesk/internal/employee"
	"github.com/kingrea/hrdesk/internal/hrapi"
	"github.com/kingrea/hrdesk/internal/validation"
)

// EducationForm appends qualifications, each with an optional certificate.
type EducationForm struct {
	step

	Existing []employee.Education
	Drafts   []employee.EducationDraft
}

func NewEducationForm(records Records) *EducationForm {
	return &EducationForm{
		step: step{stage: StageEducation, records: records, now: time.Now},
	}
}

func (f *EducationForm) PrepareLoad(employeeID string) Call {
	return f.loader(employeeID, func(emp employee.Employee) { f.Existing = emp.Educations })
}

func (f *EducationForm) Load(ctx context.Context, employeeID string) error {
	return f.PrepareLoad(employeeID)(ctx).Apply()
}

// AddDraft appends an empty entry and returns its index.
func (f *EducationForm) AddDraft() int {
	f.Drafts = append(f.Drafts, employee.NewEducationDraft())
	return len(f.Drafts) - 1
}

func (f *EducationForm) RemoveDraft(i int) error {
	drafts, err := employee.RemoveAt(f.Drafts, i)
	if err != nil {
		return err
	}
	f.Drafts = drafts
	return nil
}

// AttachCertificate sets the certificate of draft i. Rejected files leave
// the draft unchanged.
func (f *EducationForm) AttachCertificate(i int, path string) error {
	if i < 0 || i >= len(f.Drafts) {
		return fmt.Errorf("wizard: education entry %d out of range", i)
	}
	a, err := employee.OpenAttachment(path)
	if err != nil {
		return err
	}
	if err := employee.CheckDocumentFile(a); err != nil {
		return err
	}
	f.Drafts[i].Certificate = a
	return nil
}

func (f *EducationForm) Validate() validation.Issues {
	return employee.ValidateEducation(f.Drafts)
}

func (f *EducationForm) Prepare(employeeID string) (Call, error) {
	id, err := requireEmployee(employeeID)
	if err != nil {
		return nil, err
	}
	return f.guard(func() (Call, error) {
		if len(f.Drafts) == 0 {
			return f.skip(id), nil
		}
		if issues := f.Validate(); len(issues) > 0 {
			return nil, &ValidationError{Stage: f.stage, Issues: issues}
		}
		base := stored(&f.step, id, f.Existing, func(emp employee.Employee) []employee.Education { return emp.Educations })
		additions := make([]employee.Education, 0, len(f.Drafts))
		certificates := make([]*employee.Attachment, 0, len(f.Drafts))
		for _, d := range f.Drafts {
			additions = append(additions, d.Entry())
			certificates = append(certificates, d.Certificate)
		}

		return f.sending(func(ctx context.Context) (Outcome, func(), error) {
			existing, err := base(ctx)
			if err != nil {
				return Outcome{}, nil, err
			}
			merged := employee.Append(existing, additions)
			form := hrapi.NewForm()
			if err := form.SetJSON("educations", merged); err != nil {
				return Outcome{}, nil, err
			}
			for i, a := range certificates {
				form.AddFile(fmt.Sprintf("certificate_%d", len(existing)+i), a)
			}
			res, err := f.update(ctx, id, "save", form)
			if err != nil {
				return Outcome{}, nil, err
			}
			saved := returned(res, res.Data.Educations, merged)
			return Outcome{EmployeeID: id, Message: successMessage(res.Message, "Education details saved successfully")}, func() {
				f.loadedFor = id
				f.Existing = saved
				f.Drafts = nil
			}, nil
		}), nil
	})
}

func (f *EducationForm) Submit(ctx context.Context, employeeID string) (Outcome, error) {
	call, err := f.Prepare(employeeID)
	return submitNow(ctx, call, err)
}

func (f *EducationForm) Close() error { return nil }
