package tui

import (
	"fmt"
	"strconv"

	"github.com/kingrea/hrdesk/internal/employee"
	"github.com/kingrea/hrdesk/internal/hrapi"
	"github.com/kingrea/hrdesk/internal/refdata"
	"github.com/kingrea/hrdesk/internal/wizard"
)

var maritalStatuses = []string{"Single", "Married", "Divorced", "Widowed"}

var relationships = []string{"Spouse", "Parent", "Child", "Sibling", "Relative", "Friend", "Other"}

// formField binds one text input to one draft value.
type formField struct {
	// key matches the field names used by validation issues.
	key     string
	label   string
	value   func() string
	set     func(string)
	options func() []string
	// attach is set on file fields; the typed path is attached on enter
	// instead of being written through set.
	attach func(path string) error
	// toggle is set on yes/no fields.
	toggle func()
}

func textField(key, label string, ptr *string) formField {
	return formField{
		key:   key,
		label: label,
		value: func() string { return *ptr },
		set:   func(s string) { *ptr = s },
	}
}

func optionField(key, label string, ptr *string, options func() []string) formField {
	f := textField(key, label, ptr)
	f.options = options
	return f
}

func static(values []string) func() []string {
	return func() []string { return values }
}

func lookupNames(catalog refdata.Catalog, kind hrapi.Kind) func() []string {
	return func() []string { return catalog.Names(kind) }
}

// buildFields returns the inputs of stage for draft entry (list stages) of
// the session's forms.
func buildFields(session *wizard.Session, catalog refdata.Catalog, entry int) []formField {
	switch session.Controller.Stage() {
	case wizard.StageEducation:
		return educationFields(session.Education(), catalog, entry)
	case wizard.StageEmployment:
		return employmentFields(session.Employment(), catalog, entry)
	case wizard.StageDocuments:
		return documentFields(session.Documents(), entry)
	case wizard.StageNextOfKin:
		return nextOfKinFields(session.NextOfKin(), catalog, entry)
	default:
		return personalFields(session.Personal(), catalog)
	}
}

func personalFields(form *wizard.PersonalForm, catalog refdata.Catalog) []formField {
	p := &form.Draft.Personal
	cities := func() []string {
		var names []string
		for _, city := range catalog.CitiesIn(p.Country) {
			names = append(names, city.Name)
		}
		return names
	}
	picture := formField{
		key:   "profilePicture",
		label: "Profile picture (path)",
		value: func() string {
			if form.Draft.Picture != nil {
				return form.Draft.Picture.Path
			}
			return ""
		},
		attach: func(path string) error {
			_, err := form.SetPicture(path)
			return err
		},
	}
	return []formField{
		optionField("title", "Title", &p.Title, lookupNames(catalog, hrapi.KindTitles)),
		textField("firstName", "First name*", &p.FirstName),
		textField("middleName", "Middle name", &p.MiddleName),
		textField("lastName", "Last name*", &p.LastName),
		textField("email", "Email*", &p.Email),
		textField("phoneNumber", "Phone*", &p.PhoneNumber),
		textField("alternatePhoneNumber", "Alternate phone", &p.AlternatePhoneNumber),
		textField("dateOfBirth", "Date of birth*", &p.DateOfBirth),
		optionField("gender", "Gender*", &p.Gender, static(employee.Genders)),
		optionField("maritalStatus", "Marital status", &p.MaritalStatus, static(maritalStatuses)),
		textField("address", "Address", &p.Address),
		optionField("country", "Country", &p.Country, lookupNames(catalog, hrapi.KindCountries)),
		optionField("city", "City", &p.City, cities),
		textField("postalCode", "Postal code", &p.PostalCode),
		optionField("nationality", "Nationality*", &p.Nationality, lookupNames(catalog, hrapi.KindNationalities)),
		optionField("visaType", "Visa type", &p.VisaType, lookupNames(catalog, hrapi.KindVisaTypes)),
		textField("visaExpiryDate", "Visa expiry", &p.VisaExpiryDate),
		optionField("employeeStatus", "Status", &p.EmployeeStatus, lookupNames(catalog, hrapi.KindEmployeeStatuses)),
		picture,
	}
}

func educationFields(form *wizard.EducationForm, catalog refdata.Catalog, entry int) []formField {
	if entry < 0 || entry >= len(form.Drafts) {
		return nil
	}
	d := &form.Drafts[entry]
	prefix := fmt.Sprintf("educations[%d].", entry)
	certificate := formField{
		key:   prefix + "certificate",
		label: "Certificate (path)",
		value: func() string {
			if d.Certificate != nil {
				return d.Certificate.Path
			}
			return ""
		},
		attach: func(path string) error { return form.AttachCertificate(entry, path) },
	}
	return []formField{
		optionField(prefix+"degree", "Degree*", &d.Degree, lookupNames(catalog, hrapi.KindQualifications)),
		textField(prefix+"institute", "Institute*", &d.Institute),
		textField(prefix+"passingYear", "Passing year*", &d.PassingYear),
		certificate,
	}
}

func employmentFields(form *wizard.EmploymentForm, catalog refdata.Catalog, entry int) []formField {
	c := &form.Current
	fields := []formField{
		optionField("department", "Department*", &c.Department, lookupNames(catalog, hrapi.KindDepartments)),
		optionField("jobTitle", "Job title*", &c.JobTitle, lookupNames(catalog, hrapi.KindDesignations)),
		textField("startDate", "Start date*", &c.StartDate),
		textField("salary", "Salary*", &c.Salary),
	}
	if entry < 0 || entry >= len(form.Drafts) {
		return fields
	}
	d := &form.Drafts[entry]
	prefix := fmt.Sprintf("employments[%d].", entry)
	return append(fields,
		textField(prefix+"employerName", "Previous employer*", &d.EmployerName),
		optionField(prefix+"jobTitle", "Job title*", &d.JobTitle, lookupNames(catalog, hrapi.KindDesignations)),
		optionField(prefix+"employmentType", "Employment type*", &d.EmploymentType, static(employee.EmploymentTypes)),
		textField(prefix+"companyAddress", "Company address*", &d.CompanyAddress),
		optionField(prefix+"department", "Department", &d.Department, lookupNames(catalog, hrapi.KindDepartments)),
		textField(prefix+"startDate", "Start date*", &d.StartDate),
		optionField(prefix+"endDate", "End date", &d.EndDate, static([]string{employee.PresentToken})),
		textField(prefix+"jobDescription", "Description", &d.JobDescription),
		textField(prefix+"reasonForLeaving", "Reason for leaving", &d.ReasonForLeaving),
	)
}

func documentFields(form *wizard.DocumentsForm, entry int) []formField {
	if entry < 0 || entry >= len(form.Drafts) {
		return nil
	}
	d := &form.Drafts[entry]
	prefix := fmt.Sprintf("documents[%d].", entry)
	file := formField{
		key:   prefix + "file",
		label: "File (path)*",
		value: func() string {
			if d.File != nil {
				return d.File.Path
			}
			return ""
		},
		attach: func(path string) error { return form.AttachFile(entry, path) },
	}
	return []formField{
		optionField(prefix+"documentType", "Type*", &d.DocumentType, static(employee.DocumentTypes)),
		textField(prefix+"documentTitle", "Title*", &d.DocumentTitle),
		textField(prefix+"description", "Description", &d.Description),
		file,
	}
}

func nextOfKinFields(form *wizard.NextOfKinForm, catalog refdata.Catalog, entry int) []formField {
	if entry < 0 || entry >= len(form.Drafts) {
		return nil
	}
	d := &form.Drafts[entry]
	prefix := fmt.Sprintf("nextOfKins[%d].", entry)
	primary := formField{
		key:   prefix + "isPrimary",
		label: "Primary contact",
		value: func() string { return strconv.FormatBool(d.IsPrimary) },
		toggle: func() {
			_ = form.SetPrimary(entry, !d.IsPrimary)
		},
	}
	return []formField{
		textField(prefix+"fullName", "Full name*", &d.FullName),
		optionField(prefix+"relationship", "Relationship*", &d.Relationship, static(relationships)),
		textField(prefix+"phoneNumber", "Phone*", &d.PhoneNumber),
		textField(prefix+"alternatePhoneNumber", "Alternate phone", &d.AlternatePhoneNumber),
		textField(prefix+"email", "Email", &d.Email),
		textField(prefix+"dateOfBirth", "Date of birth", &d.DateOfBirth),
		optionField(prefix+"gender", "Gender", &d.Gender, static(employee.Genders)),
		textField(prefix+"address", "Address", &d.Address),
		optionField(prefix+"country", "Country", &d.Country, lookupNames(catalog, hrapi.KindCountries)),
		textField(prefix+"city", "City", &d.City),
		textField(prefix+"occupation", "Occupation", &d.Occupation),
		primary,
	}
}

// cycleOption moves current to the next (or previous) option.
func cycleOption(options []string, current string, step int) string {
	if len(options) == 0 {
		return current
	}
	idx := -1
	for i, opt := range options {
		if opt == current {
			idx = i
			break
		}
	}
	if idx < 0 {
		if step > 0 {
			return options[0]
		}
		return options[len(options)-1]
	}
	return options[(idx+step+len(options))%len(options)]
}
