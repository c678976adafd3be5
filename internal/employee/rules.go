package employee

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kingrea/hrdesk/internal/validation"
)

var yearPattern = regexp.MustCompile(`^\d{4}$`)

// EmailError is the inline check shown next to the email field while the
// user types. It returns "" for an empty or well-formed address.
func EmailError(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || validation.EmailPattern.MatchString(value) {
		return ""
	}
	return "Please enter a valid email address"
}

func ValidatePersonal(d PersonalDraft) validation.Issues {
	v := validation.New()
	v.Required("firstName", d.FirstName)
	v.Required("lastName", d.LastName)
	v.Required("email", d.Email)
	v.Email("email", d.Email)
	v.Required("phoneNumber", d.PhoneNumber)
	v.Required("dateOfBirth", d.DateOfBirth)
	v.Date("dateOfBirth", d.DateOfBirth)
	v.Required("gender", d.Gender)
	v.Enum("gender", d.Gender, Genders)
	v.Required("nationality", d.Nationality)
	v.Date("visaExpiryDate", d.VisaExpiryDate)
	if d.Picture != nil {
		if _, err := CheckPicture(d.Picture); err != nil {
			v.Add("profilePicture", err.Error())
		}
	}
	return v.Issues()
}

// ValidateEducation checks every draft; degree, institute and a four-digit
// passing year are required.
func ValidateEducation(drafts []EducationDraft) validation.Issues {
	v := validation.New()
	for i, d := range drafts {
		entry := v.Scoped(fmt.Sprintf("educations[%d]", i))
		entry.Required("degree", d.Degree)
		entry.Required("institute", d.Institute)
		entry.Required("passingYear", d.PassingYear)
		if year := strings.TrimSpace(d.PassingYear); year != "" && !yearPattern.MatchString(year) {
			entry.Add("passingYear", "must be a four-digit year")
		}
		if d.Certificate != nil {
			if err := CheckDocumentFile(d.Certificate); err != nil {
				entry.Add("certificate", err.Error())
			}
		}
		v.Merge(entry)
	}
	return v.Issues()
}

func ValidateCurrentEmployment(d CurrentEmploymentDraft) validation.Issues {
	v := validation.New()
	v.Required("department", d.Department)
	v.Required("jobTitle", d.JobTitle)
	v.Required("startDate", d.StartDate)
	v.Date("startDate", d.StartDate)
	v.Required("salary", d.Salary)
	if raw := strings.TrimSpace(d.Salary); raw != "" {
		if amount, err := strconv.ParseFloat(raw, 64); err != nil || amount < 0 {
			v.Add("salary", "must be a non-negative number")
		}
	}
	return v.Issues()
}

func ValidateEmploymentHistory(drafts []EmploymentDraft) validation.Issues {
	v := validation.New()
	for i, d := range drafts {
		entry := v.Scoped(fmt.Sprintf("employments[%d]", i))
		entry.Required("employerName", d.EmployerName)
		entry.Required("jobTitle", d.JobTitle)
		entry.Required("employmentType", d.EmploymentType)
		entry.Required("companyAddress", d.CompanyAddress)
		entry.Required("startDate", d.StartDate)
		start, _ := entry.Date("startDate", d.StartDate)
		if end := strings.TrimSpace(d.EndDate); end != "" && !strings.EqualFold(end, PresentToken) {
			stop, _ := entry.Date("endDate", end)
			entry.DateOrder("startDate", start, "endDate", stop)
		}
		v.Merge(entry)
	}
	return v.Issues()
}

func ValidateDocuments(drafts []DocumentDraft) validation.Issues {
	v := validation.New()
	for i, d := range drafts {
		entry := v.Scoped(fmt.Sprintf("documents[%d]", i))
		entry.Required("documentType", d.DocumentType)
		entry.Enum("documentType", d.DocumentType, DocumentTypes)
		entry.Required("documentTitle", d.DocumentTitle)
		if d.File == nil {
			entry.Add("file", "is required")
		} else if err := CheckDocumentFile(d.File); err != nil {
			entry.Add("file", err.Error())
		}
		v.Merge(entry)
	}
	return v.Issues()
}

func ValidateNextOfKin(drafts []NextOfKinDraft) validation.Issues {
	v := validation.New()
	primaries := 0
	for i, d := range drafts {
		entry := v.Scoped(fmt.Sprintf("nextOfKins[%d]", i))
		entry.Required("fullName", d.FullName)
		entry.Required("relationship", d.Relationship)
		entry.Required("phoneNumber", d.PhoneNumber)
		entry.Email("email", d.Email)
		entry.Date("dateOfBirth", d.DateOfBirth)
		if d.IsPrimary {
			primaries++
		}
		v.Merge(entry)
	}
	if primaries > 1 {
		v.Add("nextOfKins", "only one contact can be primary")
	}
	return v.Issues()
}
