package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
)

// ErrUnsupportedAssetType indicates an upload with a disallowed MIME type.
var ErrUnsupportedAssetType = errors.New("unsupported asset type")

var allowedAssetTypes = []string{"image/png", "image/jpeg", "image/webp", "application/pdf"}

// AssetService uploads question images and exam attachments to external
// file storage.
type AssetService interface {
	Upload(ctx context.Context, file *multipart.FileHeader) (string, error)
}

type assetService struct {
	uploader FileUploader
	logger   zerolog.Logger
}

// NewAssetService constructs an AssetService instance.
func NewAssetService(uploader FileUploader, logger zerolog.Logger) AssetService {
	return &assetService{
		uploader: uploader,
		logger:   logger.With().Str("component", "asset_service").Logger(),
	}
}

func (s *assetService) Upload(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if file == nil {
		return "", fmt.Errorf("asset file is required")
	}

	probe, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}

	mime, err := mimetype.DetectReader(probe)
	probe.Close()
	if err != nil {
		return "", fmt.Errorf("failed to detect file type: %w", err)
	}

	allowed := false
	for _, candidate := range allowedAssetTypes {
		if mime.Is(candidate) {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedAssetType, mime.String())
	}

	reader, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	url, err := s.uploader.Upload(ctx, file.Filename, reader)
	if err != nil {
		return "", fmt.Errorf("failed to upload asset: %w", err)
	}

	s.logger.Info().Str("filename", file.Filename).Msg("asset uploaded")

	return url, nil
}
