package report

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"strings"

	"github.com/jung-kurt/gofpdf"
	_ "golang.org/x/image/webp"

	"github.com/kingrea/hrdesk/internal/employee"
)

const pictureName = "profile-picture"

// WriteProfile renders a one-page PDF profile sheet for e. picture holds the
// downloaded profile image bytes and may be nil.
func WriteProfile(w io.Writer, e employee.Employee, picture []byte) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr("Employee profile: "+e.FullName()), false)
	pdf.AddPage()

	textLeft := 10.0
	if len(picture) > 0 {
		opts, data, err := pictureImage(picture)
		if err != nil {
			return err
		}
		pdf.RegisterImageOptionsReader(pictureName, opts, bytes.NewReader(data))
		pdf.ImageOptions(pictureName, 10, 10, 30, 0, false, opts, 0, "")
		textLeft = 45
	}

	pdf.SetXY(textLeft, 12)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr(strings.TrimSpace(e.Title+" "+e.FullName())))
	pdf.SetXY(textLeft, 22)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, tr(strings.Trim(e.JobTitle+" | "+e.Department, " |")))
	pdf.SetY(45)

	section(pdf, tr, "Personal Information", [][2]string{
		{"Email", e.Email},
		{"Phone", e.PhoneNumber},
		{"Alternate phone", e.AlternatePhoneNumber},
		{"Date of birth", e.DateOfBirth},
		{"Gender", e.Gender},
		{"Marital status", e.MaritalStatus},
		{"Address", joinNonEmpty(", ", e.Address, e.City, e.PostalCode, e.Country)},
		{"Nationality", e.Nationality},
		{"Visa", joinNonEmpty(" until ", e.VisaType, e.VisaExpiryDate)},
		{"Status", e.EmployeeStatus},
	})
	section(pdf, tr, "Employment", [][2]string{
		{"Department", e.Department},
		{"Job title", e.JobTitle},
		{"Start date", e.StartDate},
		{"Salary", e.Salary.String()},
	})

	if len(e.Educations) > 0 {
		heading(pdf, tr, "Education")
		for _, ed := range e.Educations {
			line(pdf, tr, joinNonEmpty(", ", ed.Degree, ed.Institute, string(ed.PassingYear)))
		}
	}
	if len(e.Employments) > 0 {
		heading(pdf, tr, "Employment History")
		for _, em := range e.Employments {
			end := em.EndDate
			if end == "" {
				end = employee.PresentToken
			}
			line(pdf, tr, fmt.Sprintf("%s at %s, %s to %s (%s)", em.JobTitle, em.EmployerName, em.StartDate, end, em.Duration))
		}
	}
	if len(e.Documents) > 0 {
		heading(pdf, tr, "Documents")
		for _, d := range e.Documents {
			line(pdf, tr, joinNonEmpty(": ", d.DocumentType, d.DocumentTitle))
		}
	}
	if len(e.NextOfKins) > 0 {
		heading(pdf, tr, "Next of Kin")
		for _, k := range e.NextOfKins {
			text := joinNonEmpty(", ", k.FullName, k.Relationship, k.PhoneNumber)
			if k.IsPrimary {
				text += " (primary)"
			}
			line(pdf, tr, text)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("report: write profile: %w", err)
	}
	return nil
}

func heading(pdf *gofpdf.Fpdf, tr func(string) string, title string) {
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, tr(title), "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
}

func line(pdf *gofpdf.Fpdf, tr func(string) string, text string) {
	pdf.MultiCell(0, 6, tr(text), "", "L", false)
}

func section(pdf *gofpdf.Fpdf, tr func(string) string, title string, rows [][2]string) {
	heading(pdf, tr, title)
	for _, row := range rows {
		if strings.TrimSpace(row[1]) == "" {
			continue
		}
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(45, 6, tr(row[0]), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, tr(row[1]), "", "L", false)
	}
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// pictureImage maps the picture onto a type gofpdf can embed. WebP images
// are re-encoded as PNG.
func pictureImage(data []byte) (gofpdf.ImageOptions, []byte, error) {
	switch http.DetectContentType(data) {
	case "image/jpeg":
		return gofpdf.ImageOptions{ImageType: "JPG"}, data, nil
	case "image/png":
		return gofpdf.ImageOptions{ImageType: "PNG"}, data, nil
	case "image/gif":
		return gofpdf.ImageOptions{ImageType: "GIF"}, data, nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return gofpdf.ImageOptions{}, nil, fmt.Errorf("report: unsupported profile picture: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return gofpdf.ImageOptions{}, nil, fmt.Errorf("report: re-encode profile picture: %w", err)
	}
	return gofpdf.ImageOptions{ImageType: "PNG"}, buf.Bytes(), nil
}
