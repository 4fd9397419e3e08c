package dto

import (
	"time"

	"github.com/spec-kit/drive-service/internal/domain"
)

// FileResponse is the public view of a file record.
type FileResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	MimeType  string    `json:"mime_type"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// NewFileResponse maps a domain file to its public view. The object
// key and bucket are storage internals and never leave the service.
func NewFileResponse(file *domain.File) FileResponse {
	return FileResponse{
		ID:        file.ID,
		Name:      file.Name,
		MimeType:  file.MimeType,
		SizeBytes: file.SizeBytes,
		CreatedAt: file.CreatedAt,
	}
}
