package report

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/kingrea/hrdesk/internal/employee"
)

func sampleEmployees() []employee.Employee {
	ada := employee.Employee{ID: "e1"}
	ada.FirstName, ada.LastName, ada.Email = "Ada", "Lovelace", "ada@example.com"
	ada.Department, ada.JobTitle, ada.Salary = "Engineering", "Analyst", 52000
	ada.Educations = []employee.Education{{Degree: "BSc", Institute: "UCL", PassingYear: "1835"}}
	ada.NextOfKins = []employee.NextOfKin{
		{FullName: "Anne", Relationship: "Mother", PhoneNumber: "1"},
		{FullName: "William", Relationship: "Spouse", PhoneNumber: "2", IsPrimary: true},
	}
	grace := employee.Employee{ID: "e2"}
	grace.FirstName, grace.MiddleName, grace.LastName = "Grace", "B.", "Hopper"
	return []employee.Employee{ada, grace}
}

func TestWriteEmployeesOpensWithExcelize(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEmployees(&buf, sampleEmployees()); err != nil {
		t.Fatalf("WriteEmployees: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	if name := f.GetSheetName(0); name != EmployeesSheet {
		t.Fatalf("sheet = %q", name)
	}
	header, err := f.GetCellValue(EmployeesSheet, "B1")
	if err != nil || header != "Name" {
		t.Fatalf("B1 = %q %v", header, err)
	}

	rows, err := ReadEmployeeRows(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("ReadEmployeeRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows", len(rows))
	}
	first := rows[0]
	if first[0] != "e1" || first[1] != "Ada Lovelace" || first[4] != "Engineering" || first[7] != "52000" {
		t.Fatalf("first row = %v", first)
	}
	if got := first[len(EmployeeColumns)-1]; got != "William (Spouse)" {
		t.Fatalf("primary contact = %q", got)
	}
	if rows[1][1] != "Grace B. Hopper" {
		t.Fatalf("second row = %v", rows[1])
	}
}

func TestWriteEmployeesEmptyList(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEmployees(&buf, nil); err != nil {
		t.Fatalf("WriteEmployees: %v", err)
	}
	rows, err := ReadEmployeeRows(&buf)
	if err != nil {
		t.Fatalf("ReadEmployeeRows: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected header only, got %v", rows)
	}
}

func TestWriteProfileProducesPDF(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var pic bytes.Buffer
	if err := png.Encode(&pic, img); err != nil {
		t.Fatal(err)
	}

	for name, picture := range map[string][]byte{"without picture": nil, "with picture": pic.Bytes()} {
		t.Run(name, func(t *testing.T) {
			var out bytes.Buffer
			if err := WriteProfile(&out, sampleEmployees()[0], picture); err != nil {
				t.Fatalf("WriteProfile: %v", err)
			}
			if !strings.HasPrefix(out.String(), "%PDF-") {
				t.Fatalf("output is not a PDF: %q", out.String()[:16])
			}
		})
	}
}

func TestWriteProfileRejectsUnknownPicture(t *testing.T) {
	var out bytes.Buffer
	if err := WriteProfile(&out, sampleEmployees()[1], []byte("not an image at all")); err == nil {
		t.Fatalf("expected error for unreadable picture")
	}
}

func TestJoinNonEmpty(t *testing.T) {
	if got := joinNonEmpty(", ", " a ", "", "b"); got != "a, b" {
		t.Fatalf("joinNonEmpty = %q", got)
	}
}
