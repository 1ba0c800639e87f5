package core

import (
	"context"
	"io"
)

// UploadResult describes a stored media asset.
type UploadResult struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
	Format   string `json:"format,omitempty"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Bytes    int64  `json:"bytes,omitempty"`
}

// MediaService stores and removes uploaded files (lesson thumbnails,
// answer attachments).
type MediaService interface {
	Upload(ctx context.Context, file io.Reader, filename string) (UploadResult, error)
	Delete(ctx context.Context, publicID string) error
}
