package employee

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Document types offered by the documents stage.
var DocumentTypes = []string{
	"Passport",
	"National ID",
	"Visa",
	"Residence Permit",
	"Work Permit",
	"Employment Contract",
	"Educational Certificate",
	"Resume",
	"Medical Report",
	"Other",
}

// Employment types offered for history entries.
var EmploymentTypes = []string{"Full-time", "Part-time", "Contract", "Internship", "Freelance", "Temporary"}

// Genders offered by personal and next-of-kin forms.
var Genders = []string{"Male", "Female", "Other"}

// PersonalDraft is the editable form of stage one.
type PersonalDraft struct {
	Personal
	Picture *Attachment
}

// EducationDraft is one new education entry with its optional certificate.
type EducationDraft struct {
	Key         string
	Degree      string
	Institute   string
	PassingYear string
	Certificate *Attachment
}

func NewEducationDraft() EducationDraft {
	return EducationDraft{Key: uuid.NewString()}
}

func (d EducationDraft) Entry() Education {
	return Education{
		Degree:      strings.TrimSpace(d.Degree),
		Institute:   strings.TrimSpace(d.Institute),
		PassingYear: Text(strings.TrimSpace(d.PassingYear)),
	}
}

// CurrentEmploymentDraft keeps salary as typed text until validated.
type CurrentEmploymentDraft struct {
	Department string
	JobTitle   string
	StartDate  string
	Salary     string
}

// DraftFromCurrent seeds the form from a stored record.
func DraftFromCurrent(c CurrentEmployment) CurrentEmploymentDraft {
	return CurrentEmploymentDraft{
		Department: c.Department,
		JobTitle:   c.JobTitle,
		StartDate:  c.StartDate,
		Salary:     c.Salary.String(),
	}
}

// Value converts a validated draft. Call ValidateCurrentEmployment first.
func (d CurrentEmploymentDraft) Value() CurrentEmployment {
	salary, _ := strconv.ParseFloat(strings.TrimSpace(d.Salary), 64)
	return CurrentEmployment{
		Department: strings.TrimSpace(d.Department),
		JobTitle:   strings.TrimSpace(d.JobTitle),
		StartDate:  strings.TrimSpace(d.StartDate),
		Salary:     Amount(salary),
	}
}

// EmploymentDraft is one new history entry.
type EmploymentDraft struct {
	Key string
	Employment
}

func NewEmploymentDraft() EmploymentDraft {
	return EmploymentDraft{Key: uuid.NewString()}
}

// Entry fills in the derived duration.
func (d EmploymentDraft) Entry(now time.Time) Employment {
	e := d.Employment
	e.EndDate = strings.TrimSpace(e.EndDate)
	if strings.EqualFold(e.EndDate, PresentToken) {
		e.EndDate = PresentToken
	}
	e.Duration = Duration(e.StartDate, e.EndDate, now)
	return e
}

// DocumentDraft is one new document with its required file.
type DocumentDraft struct {
	Key           string
	DocumentType  string
	DocumentTitle string
	Description   string
	File          *Attachment
}

func NewDocumentDraft() DocumentDraft {
	return DocumentDraft{Key: uuid.NewString()}
}

// Attach sets the file only when it passes CheckDocumentFile; on error the
// draft keeps whatever file it had.
func (d *DocumentDraft) Attach(a *Attachment) error {
	if err := CheckDocumentFile(a); err != nil {
		return err
	}
	d.File = a
	return nil
}

func (d DocumentDraft) Entry() Document {
	return Document{
		DocumentType:  strings.TrimSpace(d.DocumentType),
		DocumentTitle: strings.TrimSpace(d.DocumentTitle),
		Description:   strings.TrimSpace(d.Description),
	}
}

// NextOfKinDraft is one new contact.
type NextOfKinDraft struct {
	Key string
	NextOfKin
}

func NewNextOfKinDraft() NextOfKinDraft {
	return NextOfKinDraft{Key: uuid.NewString()}
}
