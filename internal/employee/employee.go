// Package employee holds the employee record as the records API stores it,
// the per-stage draft types edited by the onboarding wizard, and the pure
// rules (validation, list merges, durations) applied to them.
package employee

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// PresentToken marks an employment that has not ended.
const PresentToken = "Present"

// Employee is the server-owned aggregate. Each wizard stage mutates one
// slice of it.
type Employee struct {
	ID string `json:"_id,omitempty"`
	Personal
	CurrentEmployment
	Educations  []Education  `json:"educations,omitempty"`
	Employments []Employment `json:"employments,omitempty"`
	Documents   []Document   `json:"documents,omitempty"`
	NextOfKins  []NextOfKin  `json:"nextOfKins,omitempty"`
	CreatedAt   string       `json:"createdAt,omitempty"`
	UpdatedAt   string       `json:"updatedAt,omitempty"`
}

// Personal is the stage-one slice of the record.
type Personal struct {
	Title                string `json:"title,omitempty"`
	FirstName            string `json:"firstName,omitempty"`
	MiddleName           string `json:"middleName,omitempty"`
	LastName             string `json:"lastName,omitempty"`
	Email                string `json:"email,omitempty"`
	PhoneNumber          string `json:"phoneNumber,omitempty"`
	AlternatePhoneNumber string `json:"alternatePhoneNumber,omitempty"`
	DateOfBirth          string `json:"dateOfBirth,omitempty"`
	Gender               string `json:"gender,omitempty"`
	MaritalStatus        string `json:"maritalStatus,omitempty"`
	Address              string `json:"address,omitempty"`
	City                 string `json:"city,omitempty"`
	Country              string `json:"country,omitempty"`
	PostalCode           string `json:"postalCode,omitempty"`
	Nationality          string `json:"nationality,omitempty"`
	VisaType             string `json:"visaType,omitempty"`
	VisaExpiryDate       string `json:"visaExpiryDate,omitempty"`
	ProfilePicture       string `json:"profilePicture,omitempty"`
	EmployeeStatus       string `json:"employeeStatus,omitempty"`
}

// CurrentEmployment holds the flat "current job" fields.
type CurrentEmployment struct {
	Department string `json:"department,omitempty"`
	JobTitle   string `json:"jobTitle,omitempty"`
	StartDate  string `json:"startDate,omitempty"`
	Salary     Amount `json:"salary,omitempty"`
}

type Education struct {
	Degree       string `json:"degree"`
	Institute    string `json:"institute"`
	PassingYear  Text   `json:"passingYear"`
	DocumentPath string `json:"documentPath,omitempty"`
}

type Employment struct {
	EmployerName     string `json:"employerName"`
	JobTitle         string `json:"jobTitle"`
	EmploymentType   string `json:"employmentType"`
	CompanyAddress   string `json:"companyAddress"`
	Department       string `json:"department,omitempty"`
	StartDate        string `json:"startDate"`
	EndDate          string `json:"endDate,omitempty"`
	Duration         string `json:"duration,omitempty"`
	JobDescription   string `json:"jobDescription,omitempty"`
	ReasonForLeaving string `json:"reasonForLeaving,omitempty"`
}

// IsCurrent reports whether the entry runs until today.
func (e Employment) IsCurrent() bool {
	return strings.EqualFold(strings.TrimSpace(e.EndDate), PresentToken)
}

type Document struct {
	DocumentType  string `json:"documentType"`
	DocumentTitle string `json:"documentTitle"`
	Description   string `json:"description,omitempty"`
	DocumentPath  string `json:"documentPath,omitempty"`
}

type NextOfKin struct {
	FullName             string `json:"fullName"`
	Relationship         string `json:"relationship"`
	DateOfBirth          string `json:"dateOfBirth,omitempty"`
	Gender               string `json:"gender,omitempty"`
	Address              string `json:"address,omitempty"`
	City                 string `json:"city,omitempty"`
	Country              string `json:"country,omitempty"`
	PhoneNumber          string `json:"phoneNumber"`
	AlternatePhoneNumber string `json:"alternatePhoneNumber,omitempty"`
	Email                string `json:"email,omitempty"`
	Occupation           string `json:"occupation,omitempty"`
	IsPrimary            bool   `json:"isPrimary"`
}

// FullName joins the non-empty name parts.
func (e Employee) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{e.FirstName, e.MiddleName, e.LastName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Matches reports whether the query appears in the name, email, department
// or job title. Used by the list search box.
func (e Employee) Matches(query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	for _, field := range []string{e.FullName(), e.Email, e.Department, e.JobTitle, e.PhoneNumber} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// Amount decodes a salary that the backend may send as a number or a string.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*a = 0
			return nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		*a = Amount(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*a = Amount(v)
	return nil
}

func (a Amount) String() string {
	if a == 0 {
		return ""
	}
	return strconv.FormatFloat(float64(a), 'f', -1, 64)
}

// Text decodes a value the backend may send as a number or a string, such
// as a passing year.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*t = Text(raw)
		return nil
	}
	*t = Text(string(data))
	return nil
}
