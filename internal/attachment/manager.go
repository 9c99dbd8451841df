package attachment

import (
	"context"
	"fmt"
	"mime"
	"mime/multipart"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sharath018/campus-events-backend/pkg/apperror"
	"github.com/sharath018/campus-events-backend/utils"
)

// URLPrefix is the public path uploads are served under.
const URLPrefix = "/uploads/"

var allowedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
	".pdf": true, ".doc": true, ".docx": true, ".ppt": true, ".pptx": true, ".txt": true,
}

type Options struct {
	MaxFiles    int
	MaxFileSize int64
}

// Manager curates event attachment lists on top of a Storage backend.
type Manager struct {
	storage     Storage
	maxFiles    int
	maxFileSize int64
	clock       utils.Clock
	log         zerolog.Logger
}

func NewManager(storage Storage, opts Options, clock utils.Clock, log zerolog.Logger) *Manager {
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = 10
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = 10 << 20
	}
	return &Manager{
		storage:     storage,
		maxFiles:    opts.MaxFiles,
		maxFileSize: opts.MaxFileSize,
		clock:       clock,
		log:         log,
	}
}

func (m *Manager) MaxFiles() int { return m.maxFiles }

// SaveUpload validates a multipart file and writes it to storage under a fresh name.
func (m *Manager) SaveUpload(ctx context.Context, fh *multipart.FileHeader) (Upload, error) {
	if fh.Size > m.maxFileSize {
		return Upload{}, apperror.Validation("", fmt.Sprintf("file %s exceeds %dMB limit", fh.Filename, m.maxFileSize>>20))
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExtensions[ext] {
		return Upload{}, apperror.Validation("", fmt.Sprintf("file type %s not allowed", ext))
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			contentType = byExt
		}
	}

	src, err := fh.Open()
	if err != nil {
		return Upload{}, apperror.Internal(fmt.Errorf("failed to open uploaded file: %w", err))
	}
	defer src.Close()

	name := uuid.NewString() + ext
	if err := m.storage.Save(ctx, name, contentType, src); err != nil {
		return Upload{}, apperror.Internal(err)
	}

	return Upload{
		StoredName:   name,
		OriginalName: fh.Filename,
		ContentType:  contentType,
		Size:         fh.Size,
	}, nil
}

// SaveUploads stores every file or none: a failure removes the ones already written.
func (m *Manager) SaveUploads(ctx context.Context, files []*multipart.FileHeader) ([]Upload, error) {
	uploads := make([]Upload, 0, len(files))
	for _, fh := range files {
		u, err := m.SaveUpload(ctx, fh)
		if err != nil {
			m.DeleteFiles(ctx, StoredNames(uploads))
			return nil, err
		}
		uploads = append(uploads, u)
	}
	return uploads, nil
}

// ProcessUploadedFiles maps stored uploads to attachment records.
func (m *Manager) ProcessUploadedFiles(files []Upload) []Attachment {
	out := make([]Attachment, 0, len(files))
	now := m.clock.Now()
	for _, f := range files {
		fileType := FileTypeDocument
		if strings.HasPrefix(f.ContentType, "image") {
			fileType = FileTypeImage
		}
		out = append(out, Attachment{
			ID:         uuid.NewString(),
			URL:        URLPrefix + f.StoredName,
			Name:       f.OriginalName,
			FileType:   fileType,
			Size:       f.Size,
			UploadedAt: now,
		})
	}
	return out
}

// ValidateFileLimit rejects a change that would push an event past the per-event maximum.
func (m *Manager) ValidateFileLimit(currentCount, newCount int) error {
	if currentCount+newCount > m.maxFiles {
		return apperror.Validation(apperror.CodeFileLimitExceeded,
			fmt.Sprintf("Total file limit exceeded. Each event is allowed a maximum of %d files.", m.maxFiles))
	}
	return nil
}

// SortAttachments puts images first. Order inside each group is preserved.
func SortAttachments(list []Attachment) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].FileType == FileTypeImage && list[j].FileType != FileTypeImage
	})
}

// SelectTitleImage picks the title image url for a sorted list:
// the attachment named requestedName, else current if still attached, else the first image.
func SelectTitleImage(list []Attachment, requestedName string, current *string) *string {
	if requestedName != "" {
		for _, a := range list {
			if a.Name == requestedName {
				url := a.URL
				return &url
			}
		}
	}
	if current != nil {
		for _, a := range list {
			if a.URL == *current {
				url := a.URL
				return &url
			}
		}
	}
	for _, a := range list {
		if a.FileType == FileTypeImage {
			url := a.URL
			return &url
		}
	}
	return nil
}

// DeleteFiles removes stored files by name or url. Failures are logged, never returned.
func (m *Manager) DeleteFiles(ctx context.Context, identifiers []string) {
	for _, id := range identifiers {
		name := path.Base(strings.TrimSpace(id))
		if name == "" || name == "." || name == "/" {
			continue
		}
		if err := m.storage.Delete(ctx, name); err != nil {
			m.log.Error().Err(err).Str("file", name).Msg("❌ storage cleanup failed")
		}
	}
}
