package service

import (
	"context"
	"io"
)

// FileUploader stores an asset in external file storage and returns its URL.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}
