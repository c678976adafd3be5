package wizard

import (
	"context"
	"sort"
	"time"

	"github.com/kingrea/hrdesk/internal/employee"
	"github.com/kingrea/hrdesk/internal/hrapi"
	"github.com/kingrea/hrdesk/internal/validation"
)

// EmploymentForm saves the current job fields and appends history entries
// in one request.
type EmploymentForm struct {
	step

	Current  employee.CurrentEmploymentDraft
	Existing []employee.Employment
	Drafts   []employee.EmploymentDraft
}

func NewEmploymentForm(records Records) *EmploymentForm {
	return &EmploymentForm{step: step{stage: StageEmployment, records: records, now: time.Now}}
}

func (f *EmploymentForm) PrepareLoad(employeeID string) Call {
	return f.loader(employeeID, func(emp employee.Employee) {
		f.Current = employee.DraftFromCurrent(emp.CurrentEmployment)
		f.Existing = emp.Employments
	})
}

func (f *EmploymentForm) Load(ctx context.Context, employeeID string) error {
	return f.PrepareLoad(employeeID)(ctx).Apply()
}

func (f *EmploymentForm) AddDraft() int {
	f.Drafts = append(f.Drafts, employee.NewEmploymentDraft())
	return len(f.Drafts) - 1
}

func (f *EmploymentForm) RemoveDraft(i int) error {
	drafts, err := employee.RemoveAt(f.Drafts, i)
	if err != nil {
		return err
	}
	f.Drafts = drafts
	return nil
}

// DraftDuration previews the duration the backend will store for draft i.
func (f *EmploymentForm) DraftDuration(i int) string {
	if i < 0 || i >= len(f.Drafts) {
		return ""
	}
	d := f.Drafts[i]
	return employee.Duration(d.StartDate, d.EndDate, f.now())
}

func (f *EmploymentForm) Validate() validation.Issues {
	issues := append(employee.ValidateCurrentEmployment(f.Current), employee.ValidateEmploymentHistory(f.Drafts)...)
	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Field < issues[j].Field })
	return issues
}

// Prepare saves the current job fields as typed and appends the drafts to
// the stored history.
func (f *EmploymentForm) Prepare(employeeID string) (Call, error) {
	id, err := requireEmployee(employeeID)
	if err != nil {
		return nil, err
	}
	return f.guard(func() (Call, error) {
		if issues := f.Validate(); len(issues) > 0 {
			return nil, &ValidationError{Stage: f.stage, Issues: issues}
		}
		base := stored(&f.step, id, f.Existing, func(emp employee.Employee) []employee.Employment { return emp.Employments })
		now := f.now()
		additions := make([]employee.Employment, 0, len(f.Drafts))
		for _, d := range f.Drafts {
			additions = append(additions, d.Entry(now))
		}
		current := f.Current.Value()

		return f.sending(func(ctx context.Context) (Outcome, func(), error) {
			existing, err := base(ctx)
			if err != nil {
				return Outcome{}, nil, err
			}
			merged := employee.Append(existing, additions)
			res, err := f.update(ctx, id, "save", hrapi.JSON(map[string]any{
				"department":  current.Department,
				"jobTitle":    current.JobTitle,
				"startDate":   current.StartDate,
				"salary":      float64(current.Salary),
				"employments": merged,
			}))
			if err != nil {
				return Outcome{}, nil, err
			}
			saved := returned(res, res.Data.Employments, merged)
			return Outcome{EmployeeID: id, Message: successMessage(res.Message, "Employment details saved successfully")}, func() {
				f.loadedFor = id
				f.Existing = saved
				if res.Data.ID != "" {
					f.Current = employee.DraftFromCurrent(res.Data.CurrentEmployment)
				}
				f.Drafts = nil
			}, nil
		}), nil
	})
}

func (f *EmploymentForm) Submit(ctx context.Context, employeeID string) (Outcome, error) {
	call, err := f.Prepare(employeeID)
	return submitNow(ctx, call, err)
}

func (f *EmploymentForm) Close() error { return nil }
