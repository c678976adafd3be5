package wizard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/kingrea/hrdesk/internal/employee"
	"github.com/kingrea/hrdesk/internal/hrapi"
	"github.com/kingrea/hrdesk/internal/validation"
	"github.com/kingrea/hrdesk/internal/viewer"
)

// DocumentsForm uploads new documents and manages stored ones.
type DocumentsForm struct {
	step
	files    Files
	opener   viewer.Opener
	previews *viewer.Previews

	Existing []employee.Document
	Drafts   []employee.DocumentDraft
}

func NewDocumentsForm(records Records, files Files, opener viewer.Opener, previews *viewer.Previews) *DocumentsForm {
	return &DocumentsForm{
		step:     step{stage: StageDocuments, records: records, now: time.Now},
		files:    files,
		opener:   opener,
		previews: previews,
	}
}

func (f *DocumentsForm) PrepareLoad(employeeID string) Call {
	return f.loader(employeeID, func(emp employee.Employee) { f.Existing = emp.Documents })
}

func (f *DocumentsForm) Load(ctx context.Context, employeeID string) error {
	return f.PrepareLoad(employeeID)(ctx).Apply()
}

func (f *DocumentsForm) AddDraft() int {
	f.Drafts = append(f.Drafts, employee.NewDocumentDraft())
	return len(f.Drafts) - 1
}

func (f *DocumentsForm) RemoveDraft(i int) error {
	if i >= 0 && i < len(f.Drafts) {
		f.release(f.Drafts[i].File)
	}
	drafts, err := employee.RemoveAt(f.Drafts, i)
	if err != nil {
		return err
	}
	f.Drafts = drafts
	return nil
}

// AttachFile picks the file of draft i. Wrong types and files over the
// size cap are rejected and the draft keeps its previous file.
func (f *DocumentsForm) AttachFile(i int, filePath string) error {
	if i < 0 || i >= len(f.Drafts) {
		return fmt.Errorf("wizard: document entry %d out of range", i)
	}
	a, err := employee.OpenAttachment(filePath)
	if err != nil {
		return err
	}
	previous := f.Drafts[i].File
	if err := f.Drafts[i].Attach(a); err != nil {
		return err
	}
	f.release(previous)
	return nil
}

// PreviewDraft opens a temp copy of draft i's unsaved file.
func (f *DocumentsForm) PreviewDraft(i int) (string, error) {
	if i < 0 || i >= len(f.Drafts) {
		return "", fmt.Errorf("wizard: document entry %d out of range", i)
	}
	if f.previews == nil {
		return "", errPreviewUnavailable
	}
	return f.previews.Show(f.Drafts[i].File)
}

// URL returns where stored document i is served.
func (f *DocumentsForm) URL(i int) (string, error) {
	if i < 0 || i >= len(f.Existing) {
		return "", fmt.Errorf("wizard: stored document %d out of range", i)
	}
	ref := f.Existing[i].DocumentPath
	if strings.TrimSpace(ref) == "" {
		return "", fmt.Errorf("wizard: %q has no file", f.Existing[i].DocumentTitle)
	}
	if f.files == nil {
		return "", errPreviewUnavailable
	}
	return f.files.FileURL(hrapi.UploadDocuments, ref), nil
}

// View opens stored document i with the system viewer.
func (f *DocumentsForm) View(i int) error {
	url, err := f.URL(i)
	if err != nil {
		return err
	}
	if f.opener == nil {
		return errPreviewUnavailable
	}
	return f.opener.Open(url)
}

// PrepareDownload resolves stored document i and returns the transfer
// that saves it into dir and reports the file path.
func (f *DocumentsForm) PrepareDownload(i int, dir string) (func(ctx context.Context) (string, error), error) {
	url, err := f.URL(i)
	if err != nil {
		return nil, err
	}
	name := path.Base(strings.ReplaceAll(f.Existing[i].DocumentPath, "\\", "/"))
	files := f.files
	return func(ctx context.Context) (string, error) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("wizard: download dir: %w", err)
		}
		dst := filepath.Join(dir, name)
		out, err := os.Create(dst)
		if err != nil {
			return "", fmt.Errorf("wizard: create %s: %w", dst, err)
		}
		if _, err := files.Download(ctx, url, out); err != nil {
			out.Close()
			_ = os.Remove(dst)
			return "", &SubmitError{Action: "download", Subject: "document", Message: hrapi.ServerMessage(err), Err: err}
		}
		if err := out.Close(); err != nil {
			return "", err
		}
		return dst, nil
	}, nil
}

// Download saves stored document i into dir and returns the file path.
func (f *DocumentsForm) Download(ctx context.Context, i int, dir string) (string, error) {
	download, err := f.PrepareDownload(i, dir)
	if err != nil {
		return "", err
	}
	return download(ctx)
}

// PrepareDelete captures the removal of stored document i. The Call
// fetches the current list, drops the entry and saves the remainder.
func (f *DocumentsForm) PrepareDelete(employeeID string, i int) (Call, error) {
	id, err := requireEmployee(employeeID)
	if err != nil {
		return nil, err
	}
	return f.guard(func() (Call, error) {
		if i < 0 || i >= len(f.Existing) {
			return nil, fmt.Errorf("wizard: stored document %d out of range", i)
		}
		target := f.Existing[i]
		records := f.records

		return f.sending(func(ctx context.Context) (Outcome, func(), error) {
			emp, err := fetchEmployee(ctx, records, id)
			if err != nil {
				return Outcome{}, nil, err
			}
			idx := indexOfDocument(emp.Documents, target)
			if idx < 0 {
				return Outcome{}, func() {
					f.loadedFor = id
					f.Existing = emp.Documents
				}, &SubmitError{Action: "delete", Subject: "document", Message: "Document no longer exists"}
			}
			remaining, err := employee.RemoveAt(emp.Documents, idx)
			if err != nil {
				return Outcome{}, nil, err
			}
			res, err := f.update(ctx, id, "delete", hrapi.JSON(map[string]any{"documents": remaining}))
			if err != nil {
				var submitErr *SubmitError
				if errors.As(err, &submitErr) {
					submitErr.Subject = "document"
				}
				return Outcome{}, nil, err
			}
			saved := returned(res, res.Data.Documents, remaining)
			return Outcome{EmployeeID: id, Message: successMessage(res.Message, "Document deleted successfully")}, func() {
				f.loadedFor = id
				f.Existing = saved
			}, nil
		}), nil
	})
}

// Delete removes stored document i in place.
func (f *DocumentsForm) Delete(ctx context.Context, employeeID string, i int) (Outcome, error) {
	call, err := f.PrepareDelete(employeeID, i)
	return submitNow(ctx, call, err)
}

func indexOfDocument(list []employee.Document, target employee.Document) int {
	for i, d := range list {
		if d == target {
			return i
		}
	}
	return -1
}

func (f *DocumentsForm) Validate() validation.Issues {
	return employee.ValidateDocuments(f.Drafts)
}

func (f *DocumentsForm) Prepare(employeeID string) (Call, error) {
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
		base := stored(&f.step, id, f.Existing, func(emp employee.Employee) []employee.Document { return emp.Documents })
		additions := make([]employee.Document, 0, len(f.Drafts))
		uploads := make([]*employee.Attachment, 0, len(f.Drafts))
		for _, d := range f.Drafts {
			additions = append(additions, d.Entry())
			uploads = append(uploads, d.File)
		}

		return f.sending(func(ctx context.Context) (Outcome, func(), error) {
			existing, err := base(ctx)
			if err != nil {
				return Outcome{}, nil, err
			}
			merged := employee.Append(existing, additions)
			form := hrapi.NewForm()
			if err := form.SetJSON("documents", merged); err != nil {
				return Outcome{}, nil, err
			}
			for i, a := range uploads {
				form.AddFile(fmt.Sprintf("document_%d", len(existing)+i), a)
			}
			res, err := f.update(ctx, id, "upload", form)
			if err != nil {
				return Outcome{}, nil, err
			}
			saved := returned(res, res.Data.Documents, merged)
			return Outcome{EmployeeID: id, Message: successMessage(res.Message, "Documents uploaded successfully")}, func() {
				for _, a := range uploads {
					f.release(a)
				}
				f.loadedFor = id
				f.Existing = saved
				f.Drafts = nil
			}, nil
		}), nil
	})
}

func (f *DocumentsForm) Submit(ctx context.Context, employeeID string) (Outcome, error) {
	call, err := f.Prepare(employeeID)
	return submitNow(ctx, call, err)
}

func (f *DocumentsForm) release(a *employee.Attachment) {
	if f.previews != nil && a != nil {
		_ = f.previews.Release(a)
	}
}

func (f *DocumentsForm) Close() error {
	for _, d := range f.Drafts {
		f.release(d.File)
	}
	return nil
}
