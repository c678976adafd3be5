// internal/viewer/viewer.go
//
// Opens stored files with the desktop's default handler and shows local
// attachments before they are uploaded. Previews are temp copies that live
// until the owning form releases them.

package viewer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/kingrea/hrdesk/internal/employee"
)

// Opener hands a URL or file path to something that can display it.
type Opener interface {
	Open(target string) error
}

// SystemOpener runs the platform's "open" command. Command overrides the
// default (xdg-open, open, or rundll32 on Windows).
type SystemOpener struct {
	Command string
}

func (o SystemOpener) Open(target string) error {
	target = strings.TrimSpace(target)
	if target == "" {
		return errors.New("viewer: nothing to open")
	}
	name, args := o.command(target)
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("viewer: start %s: %w", name, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

func (o SystemOpener) command(target string) (string, []string) {
	if o.Command != "" {
		fields := strings.Fields(o.Command)
		return fields[0], append(fields[1:], target)
	}
	switch runtime.GOOS {
	case "darwin":
		return "open", []string{target}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", target}
	default:
		return "xdg-open", []string{target}
	}
}

// Previews manages temp copies of unsaved attachments.
type Previews struct {
	opener Opener

	mu    sync.Mutex
	dir   string
	files map[string]string
}

func NewPreviews(opener Opener) *Previews {
	return &Previews{opener: opener, files: map[string]string{}}
}

// Show copies a to the preview directory (once per source path) and opens
// the copy. It returns the copy's path.
func (p *Previews) Show(a *employee.Attachment) (string, error) {
	if a == nil {
		return "", errors.New("viewer: no file selected")
	}
	path, err := p.copyOf(a)
	if err != nil {
		return "", err
	}
	if p.opener != nil {
		if err := p.opener.Open(path); err != nil {
			return path, err
		}
	}
	return path, nil
}

func (p *Previews) copyOf(a *employee.Attachment) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.files[a.Path]; ok {
		return existing, nil
	}
	if p.dir == "" {
		dir, err := os.MkdirTemp("", "hrdesk-preview-")
		if err != nil {
			return "", fmt.Errorf("viewer: preview dir: %w", err)
		}
		p.dir = dir
	}
	out, err := os.CreateTemp(p.dir, "*-"+a.Name)
	if err != nil {
		return "", fmt.Errorf("viewer: create preview: %w", err)
	}
	if err := copyFile(a, out); err != nil {
		_ = os.Remove(out.Name())
		return "", err
	}
	p.files[a.Path] = out.Name()
	return out.Name(), nil
}

// copyFile writes a into out and closes it. The name keeps a's extension
// so the system viewer picks the right application.
func copyFile(a *employee.Attachment, out *os.File) error {
	src, err := a.Open()
	if err != nil {
		out.Close()
		return fmt.Errorf("viewer: open %s: %w", a.Name, err)
	}
	defer src.Close()
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return fmt.Errorf("viewer: copy %s: %w", a.Name, err)
	}
	return out.Close()
}

// Release removes the preview of a, if any.
func (p *Previews) Release(a *employee.Attachment) error {
	if a == nil {
		return nil
	}
	p.mu.Lock()
	path, ok := p.files[a.Path]
	delete(p.files, a.Path)
	p.mu.Unlock()
	if !ok {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("viewer: release preview: %w", err)
	}
	return nil
}

// Count reports live previews.
func (p *Previews) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.files)
}

// Close removes every preview and the temp directory.
func (p *Previews) Close() error {
	p.mu.Lock()
	dir := p.dir
	p.dir = ""
	p.files = map[string]string{}
	p.mu.Unlock()
	if dir == "" {
		return nil
	}
	return os.RemoveAll(dir)
}
