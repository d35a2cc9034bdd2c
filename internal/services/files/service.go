// File: internal/services/files/service.go
package files

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// MaxFileSize is the largest upload the provider accepts.
const MaxFileSize = 200 << 20 // 200 MiB

// Logger defines the logging interface used by the file service.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// Client is the provider file-API surface; *openai.Client satisfies it.
type Client interface {
	CreateFileBytes(ctx context.Context, req openai.FileBytesRequest) (openai.File, error)
	ListFiles(ctx context.Context) (openai.FilesList, error)
	DeleteFile(ctx context.Context, fileID string) error
}

// Info is the listing projection for one stored file.
type Info struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Bytes     int       `json:"bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// Service manages reference documents stored with the assistant provider so
// the assistant can draw on them when answering.
type Service struct {
	client Client
	logger Logger
}

func NewService(client Client, logger Logger) (*Service, error) {
	if client == nil {
		return nil, NewConfigError("client is required")
	}
	return &Service{client: client, logger: logger}, nil
}

// Upload stores one document with the provider and returns its ID.
func (s *Service) Upload(ctx context.Context, name string, data []byte) (string, error) {
	if name == "" {
		return "", NewValidationError("upload", "file name is required")
	}
	if len(data) == 0 {
		return "", NewValidationError("upload", "file is empty")
	}
	if len(data) > MaxFileSize {
		return "", NewValidationError("upload",
			fmt.Sprintf("file exceeds the %d MiB limit", MaxFileSize>>20))
	}

	file, err := s.client.CreateFileBytes(ctx, openai.FileBytesRequest{
		Name:    name,
		Bytes:   data,
		Purpose: openai.PurposeAssistants,
	})
	if err != nil {
		return "", NewProviderError("upload", "file upload failed", err)
	}
	s.logger.Info("file uploaded", "file_id", file.ID, "name", name, "bytes", len(data))
	return file.ID, nil
}

// List returns the stored documents, newest first as reported by the
// provider.
func (s *Service) List(ctx context.Context) ([]Info, error) {
	list, err := s.client.ListFiles(ctx)
	if err != nil {
		return nil, NewProviderError("list", "file listing failed", err)
	}
	infos := make([]Info, 0, len(list.Files))
	for _, f := range list.Files {
		infos = append(infos, Info{
			ID:        f.ID,
			Name:      f.FileName,
			Bytes:     f.Bytes,
			CreatedAt: time.Unix(f.CreatedAt, 0).UTC(),
		})
	}
	return infos, nil
}

// Delete removes a stored document.
func (s *Service) Delete(ctx context.Context, fileID string) error {
	if fileID == "" {
		return NewValidationError("delete", "file ID is required")
	}
	if err := s.client.DeleteFile(ctx, fileID); err != nil {
		return NewProviderError("delete", "file deletion failed", err)
	}
	s.logger.Info("file deleted", "file_id", fileID)
	return nil
}
