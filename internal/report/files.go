package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kingrea/hrdesk/internal/employee"
	"github.com/kingrea/hrdesk/internal/hrapi"
)

// Source is the part of the records client the file writers need.
type Source interface {
	GetAllEmployees(ctx context.Context) (hrapi.Result[[]employee.Employee], error)
	GetEmployeeByID(ctx context.Context, id string) (hrapi.Result[employee.Employee], error)
	FileURL(kind hrapi.UploadKind, ref string) string
	Download(ctx context.Context, rawURL string, w io.Writer) (int64, error)
}

// ExportFileName is the default workbook name for an export taken at t.
func ExportFileName(t time.Time) string {
	return "employees-" + t.Format("20060102-150405") + ".xlsx"
}

// ProfileFileName is the default PDF name for e.
func ProfileFileName(e employee.Employee) string {
	name := strings.ToLower(strings.Join(strings.Fields(e.FullName()), "-"))
	if name == "" {
		name = e.ID
	}
	return name + "-profile.pdf"
}

// ExportEmployeesFile fetches every employee and writes them to path. It
// returns the number of rows written.
func ExportEmployeesFile(ctx context.Context, src Source, path string) (int, error) {
	res, err := src.GetAllEmployees(ctx)
	if err != nil {
		return 0, fmt.Errorf("report: list employees: %w", err)
	}
	if !res.Success {
		return 0, fmt.Errorf("report: list employees: %s", fallback(res.Message, "request failed"))
	}
	if err := writeFile(path, func(w io.Writer) error { return WriteEmployees(w, res.Data) }); err != nil {
		return 0, err
	}
	return len(res.Data), nil
}

// ProfileFile fetches employee id and writes its profile sheet to path. A
// profile picture that cannot be downloaded is left out and logged.
func ProfileFile(ctx context.Context, src Source, id, path string, logger zerolog.Logger) (employee.Employee, error) {
	res, err := src.GetEmployeeByID(ctx, id)
	if err != nil {
		return employee.Employee{}, fmt.Errorf("report: fetch employee: %w", err)
	}
	if !res.Success {
		return employee.Employee{}, fmt.Errorf("report: fetch employee: %s", fallback(res.Message, "request failed"))
	}
	emp := res.Data
	var picture []byte
	if ref := strings.TrimSpace(emp.ProfilePicture); ref != "" {
		var buf bytes.Buffer
		if _, err := src.Download(ctx, src.FileURL(hrapi.UploadProfilePictures, ref), &buf); err != nil {
			logger.Warn().Err(err).Str("employee", id).Msg("profile picture unavailable")
		} else {
			picture = buf.Bytes()
		}
	}
	err = writeFile(path, func(w io.Writer) error { return WriteProfile(w, emp, picture) })
	return emp, err
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("report: ensure dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create %s: %w", path, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
		if err != nil {
			_ = os.Remove(path)
		}
	}()
	return write(f)
}

func fallback(message, def string) string {
	if strings.TrimSpace(message) == "" {
		return def
	}
	return message
}
