// Package resume validates and stores uploaded resume files.
package resume

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

const (
	FormField = "resume"
	MaxSize   = 5 << 20
)

var (
	ErrMissing         = errors.New("resume file is required")
	ErrTooLarge        = errors.New("resume must be 5MB or smaller")
	ErrUnsupportedType = errors.New("resume must be a pdf, doc or docx file")
)

// allowed maps an extension to the sniffed types accepted for it. Older
// Word files sniff as generic OLE storage and minimal docx files as zip.
var allowed = map[string][]string{
	".pdf":  {"application/pdf"},
	".doc":  {"application/msword", "application/x-ole-storage"},
	".docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "application/zip"},
}

// File describes a stored resume. Name is the reference kept on the
// application record.
type File struct {
	Name         string `json:"name"`
	OriginalName string `json:"originalName"`
	ContentType  string `json:"contentType"`
	Size         int64  `json:"size"`
}

type Store struct {
	fs     afero.Fs
	dir    string
	logger *slog.Logger
}

// NewStore keeps files under dir on fs. Pass afero.NewOsFs in production and
// afero.NewMemMapFs in tests.
func NewStore(fs afero.Fs, dir string, logger *slog.Logger) (*Store, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir %s: %w", dir, err)
	}
	return &Store{fs: fs, dir: dir, logger: logger}, nil
}

// Save validates size, extension and sniffed content, then writes the file
// under a random name.
func (s *Store) Save(ctx context.Context, originalName string, r io.Reader) (*File, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	accepted, ok := allowed[ext]
	if !ok {
		return nil, ErrUnsupportedType
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read resume: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrMissing
	}
	if len(data) > MaxSize {
		return nil, ErrTooLarge
	}

	mtype := mimetype.Detect(data)
	if !matches(mtype, accepted) {
		s.logger.WarnContext(ctx, "resume content does not match extension", "ext", ext, "detected", mtype.String())
		return nil, ErrUnsupportedType
	}

	name := uuid.NewString() + ext
	if err := afero.WriteReader(s.fs, path.Join(s.dir, name), bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to store resume: %w", err)
	}

	return &File{
		Name:         name,
		OriginalName: filepath.Base(originalName),
		ContentType:  mtype.String(),
		Size:         int64(len(data)),
	}, nil
}

// Open returns a stored resume for download.
func (s *Store) Open(name string) (afero.File, error) {
	if name == "" || name != filepath.Base(name) {
		return nil, os.ErrNotExist
	}
	return s.fs.Open(path.Join(s.dir, name))
}

// Remove deletes a stored file. Missing files are not an error.
func (s *Store) Remove(name string) error {
	if name == "" || name != filepath.Base(name) {
		return nil
	}
	err := s.fs.Remove(path.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func matches(mtype *mimetype.MIME, accepted []string) bool {
	for m := mtype; m != nil; m = m.Parent() {
		for _, a := range accepted {
			if m.Is(a) {
				return true
			}
		}
	}
	return false
}

// FromRequest extracts the resume part of a multipart request. The caller
// closes the returned reader. Other form values, such as coverLetter, are
// available through r.FormValue afterwards.
func FromRequest(w http.ResponseWriter, r *http.Request) (io.ReadCloser, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxSize+1<<20)
	if err := r.ParseMultipartForm(MaxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", ErrTooLarge
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, "", ErrMissing
		}
		return nil, "", fmt.Errorf("invalid multipart form: %w", err)
	}

	file, header, err := r.FormFile(FormField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, "", ErrMissing
		}
		return nil, "", err
	}
	if header.Size > MaxSize {
		file.Close()
		return nil, "", ErrTooLarge
	}
	return file, header.Filename, nil
}
