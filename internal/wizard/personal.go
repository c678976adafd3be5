package wizard

import (
	"context"
	"strings"
	"time"

	"github.com/kingrea/hrdesk/internal/employee"
	"github.com/kingrea/hrdesk/internal/hrapi"
	"github.com/kingrea/hrdesk/internal/validation"
	"github.com/kingrea/hrdesk/internal/viewer"
)

// PersonalForm is the first stage and the only one that can create a
// record.
type PersonalForm struct {
	step
	previews *viewer.Previews

	Draft   employee.PersonalDraft
	picture employee.PictureInfo
}

func NewPersonalForm(records Records, previews *viewer.Previews) *PersonalForm {
	return &PersonalForm{step: step{stage: StagePersonalInfo, records: records, now: time.Now}, previews: previews}
}

func (f *PersonalForm) PrepareLoad(employeeID string) Call {
	return f.loader(employeeID, func(emp employee.Employee) { f.Draft.Personal = emp.Personal })
}

func (f *PersonalForm) Load(ctx context.Context, employeeID string) error {
	return f.PrepareLoad(employeeID)(ctx).Apply()
}

// EmailError is the inline hint for the email field.
func (f *PersonalForm) EmailError() string {
	return employee.EmailError(f.Draft.Email)
}

// SetPicture picks a new profile picture. A file that does not decode as
// an image is rejected and the previous picture is kept.
func (f *PersonalForm) SetPicture(path string) (employee.PictureInfo, error) {
	a, err := employee.OpenAttachment(path)
	if err != nil {
		return employee.PictureInfo{}, err
	}
	info, err := employee.CheckPicture(a)
	if err != nil {
		return employee.PictureInfo{}, err
	}
	f.releasePicture()
	f.Draft.Picture = a
	f.picture = info
	return info, nil
}

// Picture describes the unsaved picture, if one is picked.
func (f *PersonalForm) Picture() (employee.PictureInfo, bool) {
	return f.picture, f.Draft.Picture != nil
}

// PreviewPicture opens the unsaved picture.
func (f *PersonalForm) PreviewPicture() (string, error) {
	if f.previews == nil {
		return "", errPreviewUnavailable
	}
	return f.previews.Show(f.Draft.Picture)
}

// ClearPicture drops the unsaved picture and its preview.
func (f *PersonalForm) ClearPicture() {
	f.releasePicture()
	f.Draft.Picture = nil
	f.picture = employee.PictureInfo{}
}

func (f *PersonalForm) releasePicture() {
	if f.previews != nil && f.Draft.Picture != nil {
		_ = f.previews.Release(f.Draft.Picture)
	}
}

func (f *PersonalForm) Validate() validation.Issues {
	return employee.ValidatePersonal(f.Draft)
}

// Prepare creates the record when employeeID is empty and updates it
// otherwise. Empty fields are left out of a create.
func (f *PersonalForm) Prepare(employeeID string) (Call, error) {
	return f.guard(func() (Call, error) {
		if issues := f.Validate(); len(issues) > 0 {
			return nil, &ValidationError{Stage: f.stage, Issues: issues}
		}
		id := strings.TrimSpace(employeeID)
		creating := id == ""
		form := hrapi.NewForm()
		for _, field := range personalFields(f.Draft.Personal) {
			if creating && field.value == "" {
				continue
			}
			form.Set(field.name, field.value)
		}
		form.AddFile("profilePicture", f.Draft.Picture)

		return f.sending(func(ctx context.Context) (Outcome, func(), error) {
			var (
				res hrapi.Result[employee.Employee]
				err error
			)
			savedID := id
			if creating {
				res, err = f.records.CreateEmployee(ctx, form)
				if err != nil {
					return Outcome{}, nil, &SubmitError{Action: "create", Subject: "employee", Message: hrapi.ServerMessage(err), Err: err}
				}
				if !res.Success {
					return Outcome{}, nil, &SubmitError{Action: "create", Subject: "employee", Message: res.Message}
				}
				if res.Data.ID == "" {
					return Outcome{}, nil, &SubmitError{Action: "create", Subject: "employee"}
				}
				savedID = res.Data.ID
			} else {
				res, err = f.update(ctx, id, "update", form)
				if err != nil {
					return Outcome{}, nil, err
				}
			}
			fallback := "Personal information updated successfully"
			if creating {
				fallback = "Employee created successfully"
			}
			return Outcome{EmployeeID: savedID, Message: successMessage(res.Message, fallback)}, func() {
				f.ClearPicture()
				if res.Data.ID != "" {
					f.Draft.Personal = res.Data.Personal
				}
				f.loadedFor = savedID
			}, nil
		}), nil
	})
}

func (f *PersonalForm) Submit(ctx context.Context, employeeID string) (Outcome, error) {
	call, err := f.Prepare(employeeID)
	return submitNow(ctx, call, err)
}

func (f *PersonalForm) Close() error {
	f.ClearPicture()
	return nil
}

type namedValue struct {
	name  string
	value string
}

// personalFields lists the text fields sent by stage one. The profile
// picture reference is owned by the upload and never sent as text.
func personalFields(p employee.Personal) []namedValue {
	trim := strings.TrimSpace
	return []namedValue{
		{"title", trim(p.Title)},
		{"firstName", trim(p.FirstName)},
		{"middleName", trim(p.MiddleName)},
		{"lastName", trim(p.LastName)},
		{"email", trim(p.Email)},
		{"phoneNumber", trim(p.PhoneNumber)},
		{"alternatePhoneNumber", trim(p.AlternatePhoneNumber)},
		{"dateOfBirth", trim(p.DateOfBirth)},
		{"gender", trim(p.Gender)},
		{"maritalStatus", trim(p.MaritalStatus)},
		{"address", trim(p.Address)},
		{"city", trim(p.City)},
		{"country", trim(p.Country)},
		{"postalCode", trim(p.PostalCode)},
		{"nationality", trim(p.Nationality)},
		{"visaType", trim(p.VisaType)},
		{"visaExpiryDate", trim(p.VisaExpiryDate)},
		{"employeeStatus", trim(p.EmployeeStatus)},
	}
}
