package employee

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/webp"
)

// MaxUploadSize caps every file picked in the wizard.
const MaxUploadSize int64 = 5 * 1024 * 1024

var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds 5MB limit")
	ErrNotAnImage          = errors.New("file is not a jpeg, png or webp image")
)

// Content types accepted for employee documents.
var DocumentContentTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"image/jpeg",
	"image/png",
	"image/webp",
}

var extensionTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// Attachment is a local file picked for upload. It is not read until the
// payload is encoded.
type Attachment struct {
	Path        string
	Name        string
	ContentType string
	Size        int64
}

// OpenAttachment stats the file and resolves its content type from the
// extension, falling back to sniffing the first bytes.
func OpenAttachment(path string) (*Attachment, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("employee: attachment path is required")
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("employee: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("employee: %s is a directory", path)
	}
	contentType, ok := extensionTypes[strings.ToLower(filepath.Ext(path))]
	if !ok {
		contentType, err = sniffContentType(path)
		if err != nil {
			return nil, err
		}
	}
	return &Attachment{
		Path:        path,
		Name:        filepath.Base(path),
		ContentType: contentType,
		Size:        info.Size(),
	}, nil
}

func sniffContentType(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("employee: open %s: %w", path, err)
	}
	defer f.Close()
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("employee: read %s: %w", path, err)
	}
	contentType := http.DetectContentType(head[:n])
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	return contentType, nil
}

// Open returns a reader over the file contents.
func (a *Attachment) Open() (io.ReadCloser, error) {
	if a == nil {
		return nil, fmt.Errorf("employee: nil attachment")
	}
	return os.Open(a.Path)
}

// CheckDocumentFile applies the document upload rules: an accepted type and
// at most MaxUploadSize bytes.
func CheckDocumentFile(a *Attachment) error {
	if a == nil {
		return fmt.Errorf("employee: file is required")
	}
	if !acceptedDocumentType(a.ContentType) {
		return fmt.Errorf("%s (%s): %w", a.Name, a.ContentType, ErrUnsupportedFileType)
	}
	if a.Size > MaxUploadSize {
		return fmt.Errorf("%s: %w", a.Name, ErrFileTooLarge)
	}
	return nil
}

func acceptedDocumentType(contentType string) bool {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	for _, accepted := range DocumentContentTypes {
		if contentType == accepted {
			return true
		}
	}
	return false
}

// PictureInfo describes a decoded profile picture.
type PictureInfo struct {
	Format string
	Width  int
	Height int
}

func (p PictureInfo) String() string {
	return fmt.Sprintf("%s %dx%d", p.Format, p.Width, p.Height)
}

// CheckPicture decodes the image header so broken or non-image files are
// rejected before upload.
func CheckPicture(a *Attachment) (PictureInfo, error) {
	if a == nil {
		return PictureInfo{}, fmt.Errorf("employee: picture is required")
	}
	if a.Size > MaxUploadSize {
		return PictureInfo{}, fmt.Errorf("%s: %w", a.Name, ErrFileTooLarge)
	}
	f, err := a.Open()
	if err != nil {
		return PictureInfo{}, err
	}
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return PictureInfo{}, fmt.Errorf("%s: %w", a.Name, ErrNotAnImage)
	}
	switch format {
	case "jpeg", "png", "webp":
	default:
		return PictureInfo{}, fmt.Errorf("%s (%s): %w", a.Name, format, ErrNotAnImage)
	}
	return PictureInfo{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}
