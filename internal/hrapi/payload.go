package hrapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"

	"github.com/kingrea/hrdesk/internal/employee"
)

// Payload is a request body: either JSON or a multipart form.
type Payload interface {
	encode() (io.Reader, string, error)
}

type jsonPayload struct {
	value any
}

// JSON sends value as application/json.
func JSON(value any) Payload {
	return jsonPayload{value: value}
}

func (p jsonPayload) encode() (io.Reader, string, error) {
	data, err := json.Marshal(p.value)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(data), "application/json", nil
}

type formField struct {
	name  string
	value string
}

type formFile struct {
	field      string
	attachment *employee.Attachment
}

// Form is a multipart/form-data payload. Array values are sent as JSON
// strings in a single field, files under their own field names.
type Form struct {
	fields []formField
	files  []formFile
}

func NewForm() *Form {
	return &Form{}
}

// Set adds a text field. Empty values are still sent so the backend can
// clear a field.
func (f *Form) Set(name, value string) *Form {
	f.fields = append(f.fields, formField{name: name, value: value})
	return f
}

// SetJSON adds value encoded as a JSON string field.
func (f *Form) SetJSON(name string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("hrapi: encode %s: %w", name, err)
	}
	f.fields = append(f.fields, formField{name: name, value: string(data)})
	return nil
}

// AddFile attaches a local file under field. A nil attachment is ignored.
func (f *Form) AddFile(field string, a *employee.Attachment) *Form {
	if a != nil {
		f.files = append(f.files, formFile{field: field, attachment: a})
	}
	return f
}

// FileCount reports how many files the form will upload.
func (f *Form) FileCount() int {
	return len(f.files)
}

func (f *Form) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, field := range f.fields {
		if err := w.WriteField(field.name, field.value); err != nil {
			return nil, "", err
		}
	}
	for _, file := range f.files {
		if err := writeFilePart(w, file); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func writeFilePart(w *multipart.Writer, file formFile) error {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.field, file.attachment.Name))
	contentType := file.attachment.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return err
	}
	src, err := file.attachment.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", file.attachment.Name, err)
	}
	defer src.Close()
	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("copy %s: %w", file.attachment.Name, err)
	}
	return nil
}
