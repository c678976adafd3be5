package employee

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDuration(t *testing.T) {
	now := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		start, end, want string
	}{
		{"2020-03-01", "2022-07-01", "2 years 4 months"},
		{"2022-07-01", "2022-07-01", "0 months"},
		{"2023-01-01", "2020-01-01", "0 months"},
		{"2021-01-10", "2022-01-09", "11 months"},
		{"2021-01-01", "2022-01-01", "1 year"},
		{"2023-12-01", "2024-01-01", "1 month"},
		{"2023-01-15", PresentToken, "1 year"},
		{"2023-01-15", "present", "1 year"},
		{"garbage", "2022-01-01", "0 months"},
		{"2020-03-01T00:00:00.000Z", "2022-07-01T00:00:00.000Z", "2 years 4 months"},
	}
	for _, tc := range cases {
		if got := Duration(tc.start, tc.end, now); got != tc.want {
			t.Fatalf("Duration(%q, %q) = %q, want %q", tc.start, tc.end, got, tc.want)
		}
	}
}

func TestEmailError(t *testing.T) {
	if EmailError("not-an-email") == "" {
		t.Fatal("expected inline email error")
	}
	if msg := EmailError("a@b.co"); msg != "" {
		t.Fatalf("unexpected error %q", msg)
	}
	if msg := EmailError(""); msg != "" {
		t.Fatalf("empty email should not show an inline error, got %q", msg)
	}
}

func TestValidatePersonalRequiresFields(t *testing.T) {
	issues := ValidatePersonal(PersonalDraft{})
	for _, field := range []string{"firstName", "lastName", "email", "phoneNumber", "dateOfBirth", "gender", "nationality"} {
		if !issues.Has(field) {
			t.Fatalf("expected issue for %s, got %v", field, issues)
		}
	}
	good := PersonalDraft{Personal: Personal{
		FirstName: "Amal", LastName: "Haddad", Email: "amal@example.com",
		PhoneNumber: "+971500000000", DateOfBirth: "1990-05-04", Gender: "Female", Nationality: "Jordanian",
	}}
	if issues := ValidatePersonal(good); len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
	good.Email = "not-an-email"
	if issues := ValidatePersonal(good); !issues.Has("email") {
		t.Fatalf("expected email issue, got %v", issues)
	}
}

func TestValidateEducation(t *testing.T) {
	drafts := []EducationDraft{
		{Degree: "BSc", Institute: "AUS", PassingYear: "2012"},
		{Degree: "MSc", PassingYear: "12"},
	}
	issues := ValidateEducation(drafts)
	if issues.Has("educations[0].degree") {
		t.Fatalf("first draft is valid, got %v", issues)
	}
	if !issues.Has("educations[1].institute") || !issues.Has("educations[1].passingYear") {
		t.Fatalf("expected second draft issues, got %v", issues)
	}
}

func TestValidateEmployment(t *testing.T) {
	current := ValidateCurrentEmployment(CurrentEmploymentDraft{Department: "Ops", JobTitle: "Lead", StartDate: "2024-01-01", Salary: "abc"})
	if !current.Has("salary") {
		t.Fatalf("expected salary issue, got %v", current)
	}
	history := ValidateEmploymentHistory([]EmploymentDraft{
		{Employment: Employment{EmployerName: "Acme", JobTitle: "Dev", EmploymentType: "Full-time", CompanyAddress: "Dubai", StartDate: "2020-01-01", EndDate: "Present"}},
		{Employment: Employment{EmployerName: "Beta", JobTitle: "Dev", EmploymentType: "Contract", CompanyAddress: "Doha", StartDate: "2020-01-01", EndDate: "2019-01-01"}},
		{Employment: Employment{EmployerName: "Gamma"}},
	})
	if history.Has("employments[0].endDate") {
		t.Fatalf("Present must be accepted, got %v", history)
	}
	if !history.Has("employments[1].endDate") {
		t.Fatalf("expected inverted range issue, got %v", history)
	}
	if !history.Has("employments[2].companyAddress") {
		t.Fatalf("expected missing fields, got %v", history)
	}
}

func TestDocumentAttachRules(t *testing.T) {
	dir := t.TempDir()
	exe := writeFile(t, dir, "tool.exe", 10)
	big := writeFile(t, dir, "scan.pdf", MaxUploadSize+1)
	ok := writeFile(t, dir, "passport.pdf", 1024)

	var draft DocumentDraft
	a, err := OpenAttachment(exe)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := draft.Attach(a); !errors.Is(err, ErrUnsupportedFileType) {
		t.Fatalf("expected unsupported type, got %v", err)
	}
	if draft.File != nil {
		t.Fatal("rejected file must leave draft file unset")
	}
	a, _ = OpenAttachment(big)
	if err := draft.Attach(a); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected size error, got %v", err)
	}
	if draft.File != nil {
		t.Fatal("oversize file must leave draft file unset")
	}
	a, _ = OpenAttachment(ok)
	if err := draft.Attach(a); err != nil {
		t.Fatalf("attach pdf: %v", err)
	}
	if draft.File == nil || draft.File.ContentType != "application/pdf" {
		t.Fatalf("unexpected file: %+v", draft.File)
	}
}

func TestValidateDocumentsRequiresFile(t *testing.T) {
	issues := ValidateDocuments([]DocumentDraft{{DocumentType: "Passport", DocumentTitle: "Main"}})
	if !issues.Has("documents[0].file") {
		t.Fatalf("expected file issue, got %v", issues)
	}
	issues = ValidateDocuments([]DocumentDraft{{DocumentType: "Spaceship", DocumentTitle: "x"}})
	if !issues.Has("documents[0].documentType") {
		t.Fatalf("expected type issue, got %v", issues)
	}
}

func TestSetPrimaryUnsetsOthers(t *testing.T) {
	drafts := []NextOfKinDraft{NewNextOfKinDraft(), NewNextOfKinDraft(), NewNextOfKinDraft()}
	if err := SetPrimary(drafts, 0, true); err != nil {
		t.Fatal(err)
	}
	if err := SetPrimary(drafts, 2, true); err != nil {
		t.Fatal(err)
	}
	for i, d := range drafts {
		if d.IsPrimary != (i == 2) {
			t.Fatalf("draft %d primary=%v", i, d.IsPrimary)
		}
	}
	if err := SetPrimary(drafts, 5, true); err == nil {
		t.Fatal("expected range error")
	}
}

func TestMergeNextOfKinsKeepsSinglePrimary(t *testing.T) {
	existing := []NextOfKin{{FullName: "Old", IsPrimary: true}, {FullName: "Other"}}
	drafts := []NextOfKinDraft{{NextOfKin: NextOfKin{FullName: "New", IsPrimary: true}}}
	merged := MergeNextOfKins(existing, drafts)
	if len(merged) != 3 || merged[2].FullName != "New" {
		t.Fatalf("unexpected merge: %+v", merged)
	}
	if PrimaryCount(merged) != 1 || !merged[2].IsPrimary {
		t.Fatalf("expected only the new contact to be primary: %+v", merged)
	}
	if !existing[0].IsPrimary {
		t.Fatal("merge must not mutate the fetched list")
	}

	noNewPrimary := MergeNextOfKins(existing, []NextOfKinDraft{{NextOfKin: NextOfKin{FullName: "New"}}})
	if !noNewPrimary[0].IsPrimary {
		t.Fatal("stored primary should survive when no draft is primary")
	}
}

func TestMergeNextOfKinsOnlyTouchesPrimaryFlag(t *testing.T) {
	existing := []NextOfKin{
		{FullName: "Old", Relationship: "Father", DateOfBirth: "1950-01-01", Gender: "Male", Address: "1 Road", City: "Leeds", Country: "UK", PhoneNumber: "1", IsPrimary: true},
		{FullName: "Other", Relationship: "Aunt", City: "York", PhoneNumber: "2"},
	}
	drafts := []NextOfKinDraft{
		{NextOfKin: NextOfKin{FullName: "First", Relationship: "Sister", PhoneNumber: "3"}},
		{NextOfKin: NextOfKin{FullName: "Second", Relationship: "Brother", PhoneNumber: "4", IsPrimary: true}},
	}
	merged := MergeNextOfKins(existing, drafts)
	if len(merged) != 4 {
		t.Fatalf("merged %d contacts", len(merged))
	}
	for i, want := range existing {
		want.IsPrimary = false
		if merged[i] != want {
			t.Fatalf("stored contact %d changed beyond the primary flag:\n got %+v\nwant %+v", i, merged[i], want)
		}
	}
	for i, d := range drafts {
		if merged[len(existing)+i] != d.NextOfKin {
			t.Fatalf("draft %d not appended in order: %+v", i, merged[len(existing)+i])
		}
	}
}

func TestAppendAndRemoveAt(t *testing.T) {
	existing := []Document{{DocumentTitle: "a"}, {DocumentTitle: "b"}}
	merged := Append(existing, []Document{{DocumentTitle: "c"}})
	if len(merged) != 3 || merged[2].DocumentTitle != "c" {
		t.Fatalf("unexpected merge %+v", merged)
	}
	merged[0].DocumentTitle = "changed"
	if existing[0].DocumentTitle != "a" {
		t.Fatal("Append must copy")
	}
	rest, err := RemoveAt(existing, 0)
	if err != nil || len(rest) != 1 || rest[0].DocumentTitle != "b" {
		t.Fatalf("RemoveAt = %+v, %v", rest, err)
	}
	if _, err := RemoveAt(existing, 2); err == nil {
		t.Fatal("expected range error")
	}
}

func TestEmployeeDecodesLooseNumbers(t *testing.T) {
	raw := `{"_id":"e1","firstName":"Amal","salary":"4500.5","educations":[{"degree":"BSc","institute":"AUS","passingYear":2012}]}`
	var emp Employee
	if err := json.Unmarshal([]byte(raw), &emp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if emp.ID != "e1" || emp.Salary != 4500.5 || emp.Educations[0].PassingYear != "2012" {
		t.Fatalf("unexpected decode: %+v", emp)
	}
	out, err := json.Marshal(emp)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `"salary":4500.5`) {
		t.Fatalf("salary should encode as a number: %s", out)
	}
}

func TestCheckPictureRejectsNonImages(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "me.png", 64)
	a, err := OpenAttachment(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := CheckPicture(a); !errors.Is(err, ErrNotAnImage) {
		t.Fatalf("expected ErrNotAnImage, got %v", err)
	}
}

func writeFile(t *testing.T, dir, name string, size int64) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Truncate(size); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}
