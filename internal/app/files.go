package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"citylyfe/api/internal/rbac"
	"citylyfe/api/internal/store"
	"citylyfe/api/internal/util"
)

// MaxUploadBytes is the upload size ceiling. Oversized payloads are rejected
// before anything is written to the blob store.
const MaxUploadBytes = 10 << 20

var extensionTypes = map[string]string{
	".pdf":  "pdf",
	".doc":  "document",
	".docx": "document",
	".txt":  "document",
	".rtf":  "document",
	".odt":  "document",
	".jpg":  "image",
	".jpeg": "image",
	".png":  "image",
	".gif":  "image",
	".webp": "image",
	".svg":  "image",
	".xls":  "spreadsheet",
	".xlsx": "spreadsheet",
	".csv":  "spreadsheet",
	".ppt":  "presentation",
	".pptx": "presentation",
	".zip":  "archive",
	".rar":  "archive",
	".7z":   "archive",
	".tar":  "archive",
	".gz":   "archive",
	".mp4":  "video",
	".mov":  "video",
	".avi":  "video",
	".webm": "video",
	".mp3":  "audio",
	".wav":  "audio",
	".ogg":  "audio",
}

// fileTypeForName maps a filename to its coarse type tag.
func fileTypeForName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	return "other"
}

// storageName builds a collision-resistant blob name: the sanitized original
// base, a nanosecond timestamp, and the original extension.
func storageName(original string, now time.Time) string {
	base := filepath.Base(original)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	var b strings.Builder
	for _, r := range stem {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	sanitized := strings.Trim(b.String(), "-")
	if sanitized == "" {
		sanitized = "upload"
	}
	return fmt.Sprintf("%s_%d%s", sanitized, now.UnixNano(), strings.ToLower(ext))
}

func (s *Service) ListFiles(ctx context.Context, session Session, projectID string) ([]map[string]any, error) {
	if _, err := s.loadOwnedProject(ctx, session, projectID); err != nil {
		return nil, err
	}
	files, err := s.store.ListFilesByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	payload := make([]map[string]any, 0, len(files))
	for _, f := range files {
		payload = append(payload, filePayload(f))
	}
	return payload, nil
}

// UploadFile writes the payload to the blob store, then records the File row.
// If the insert fails the blob is removed so no orphan is left behind.
func (s *Service) UploadFile(ctx context.Context, session Session, projectID, filename string, size int64, reader io.Reader) (map[string]any, error) {
	if projectID == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "projectId is required", nil)
	}
	if filename == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "a file is required", nil)
	}
	if size <= 0 {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "file is empty", nil)
	}
	if size > MaxUploadBytes {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR",
			fmt.Sprintf("file exceeds the %d MiB limit", MaxUploadBytes>>20), nil)
	}
	if _, err := s.loadOwnedProject(ctx, session, projectID); err != nil {
		return nil, err
	}

	name := storageName(filename, time.Now())
	url, err := s.blobs.Put(ctx, name, io.LimitReader(reader, MaxUploadBytes), size, contentTypeForName(filename))
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	uploadedBy := session.UserID
	file := store.File{
		ID:         util.NewID("fil"),
		ProjectID:  projectID,
		Name:       filepath.Base(filename),
		FileType:   fileTypeForName(filename),
		URL:        url,
		Size:       size,
		UploadedBy: &uploadedBy,
	}
	if err := s.store.InsertFile(ctx, file); err != nil {
		if cleanupErr := s.blobs.Remove(ctx, name); cleanupErr != nil {
			log.Printf("files: cleanup blob %s after failed insert: %v", name, cleanupErr)
		}
		return nil, err
	}
	return filePayload(file), nil
}

// DeleteFile is admin-only; uploads by clients stay until the admin prunes
// them or the project is deleted.
func (s *Service) DeleteFile(ctx context.Context, session Session, fileID string) error {
	if rbac.Normalize(session.Role) != rbac.RoleAdmin {
		return domainError(http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
	}
	file, err := s.store.GetFile(ctx, fileID)
	if err != nil {
		return err
	}
	affected, err := s.store.DeleteFile(ctx, fileID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	if err := s.blobs.Remove(ctx, file.URL); err != nil {
		log.Printf("files: remove blob %s: %v", file.URL, err)
	}
	return nil
}

func contentTypeForName(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return "application/pdf"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".svg":
		return "image/svg+xml"
	case ".csv":
		return "text/csv"
	case ".txt":
		return "text/plain"
	case ".zip":
		return "application/zip"
	case ".mp4":
		return "video/mp4"
	case ".mp3":
		return "audio/mpeg"
	default:
		return "application/octet-stream"
	}
}

func filePayload(f store.File) map[string]any {
	payload := map[string]any{
		"id":        f.ID,
		"projectId": f.ProjectID,
		"name":      f.Name,
		"fileType":  f.FileType,
		"url":       f.URL,
		"size":      f.Size,
		"createdAt": f.CreatedAt,
	}
	if f.UploadedBy != nil {
		payload["uploadedBy"] = *f.UploadedBy
	}
	return payload
}
