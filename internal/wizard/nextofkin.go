package wizard

import (
	"context"
	"slices"
	"time"

	"github.com/kingrea/hrdesk/internal/employee"
	"github.com/kingrea/hrdesk/internal/hrapi"
	"github.com/kingrea/hrdesk/internal/validation"
)

// NextOfKinForm appends emergency contacts. At most one contact across the
// stored and new entries is primary.
type NextOfKinForm struct {
	step

	Existing []employee.NextOfKin
	Drafts   []employee.NextOfKinDraft
}

func NewNextOfKinForm(records Records) *NextOfKinForm {
	return &NextOfKinForm{
		step: step{stage: StageNextOfKin, records: records, now: time.Now},
	}
}

func (f *NextOfKinForm) PrepareLoad(employeeID string) Call {
	return f.loader(employeeID, func(emp employee.Employee) { f.Existing = emp.NextOfKins })
}

func (f *NextOfKinForm) Load(ctx context.Context, employeeID string) error {
	return f.PrepareLoad(employeeID)(ctx).Apply()
}

func (f *NextOfKinForm) AddDraft() int {
	f.Drafts = append(f.Drafts, employee.NewNextOfKinDraft())
	return len(f.Drafts) - 1
}

func (f *NextOfKinForm) RemoveDraft(i int) error {
	drafts, err := employee.RemoveAt(f.Drafts, i)
	if err != nil {
		return err
	}
	f.Drafts = drafts
	return nil
}

// SetPrimary flags draft k and clears every other draft.
func (f *NextOfKinForm) SetPrimary(k int, primary bool) error {
	return employee.SetPrimary(f.Drafts, k, primary)
}

func (f *NextOfKinForm) Validate() validation.Issues {
	return employee.ValidateNextOfKin(f.Drafts)
}

func (f *NextOfKinForm) Prepare(employeeID string) (Call, error) {
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
		base := stored(&f.step, id, f.Existing, func(emp employee.Employee) []employee.NextOfKin { return emp.NextOfKins })
		drafts := slices.Clone(f.Drafts)

		return f.sending(func(ctx context.Context) (Outcome, func(), error) {
			existing, err := base(ctx)
			if err != nil {
				return Outcome{}, nil, err
			}
			merged := employee.MergeNextOfKins(existing, drafts)
			res, err := f.update(ctx, id, "save", hrapi.JSON(map[string]any{"nextOfKins": merged}))
			if err != nil {
				return Outcome{}, nil, err
			}
			saved := returned(res, res.Data.NextOfKins, merged)
			return Outcome{EmployeeID: id, Message: successMessage(res.Message, "Next of kin saved successfully")}, func() {
				f.loadedFor = id
				f.Existing = saved
				f.Drafts = nil
			}, nil
		}), nil
	})
}

func (f *NextOfKinForm) Submit(ctx context.Context, employeeID string) (Outcome, error) {
	call, err := f.Prepare(employeeID)
	return submitNow(ctx, call, err)
}

func (f *NextOfKinForm) Close() error { return nil }
