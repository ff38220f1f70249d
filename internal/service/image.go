package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"

	"github.com/google/uuid"

	"github.com/beanbook/beanbook/internal/metrics"
)

// Image kinds, one folder each under a user's prefix.
const (
	ImageKindBrews   = "brews"
	ImageKindBags    = "bags"
	ImageKindAvatars = "avatars"
)

// StockAvatarPrefix holds the profile pictures offered to every user.
const StockAvatarPrefix = "stock/avatars/"

// ImageService stores uploaded pictures and returns their public URLs.
type ImageService struct {
	store   ObjectStore
	maxSize int64
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewImageService creates a new ImageService.
func NewImageService(store ObjectStore, maxSize int64, logger *slog.Logger, recorder metrics.Recorder) *ImageService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ImageService{
		store:   store,
		maxSize: maxSize,
		logger:  logger.With("component", "service.image"),
		metrics: recorder,
	}
}

// ValidImageKind reports whether kind names an upload folder.
func ValidImageKind(kind string) bool {
	switch kind {
	case ImageKindBrews, ImageKindBags, ImageKindAvatars:
		return true
	}
	return false
}

// Upload stores an image for userID under kind and returns its URL.
// The content type is sniffed from the bytes; only JPEG and PNG are kept.
func (s *ImageService) Upload(ctx context.Context, userID, kind string, body io.Reader) (string, error) {
	if !ValidImageKind(kind) {
		return "", ErrInvalidImageKind
	}

	data, err := io.ReadAll(io.LimitReader(body, s.maxSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return "", ErrImageTooLarge
	}

	contentType := http.DetectContentType(data)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", ErrUnsupportedImage
	}

	key := fmt.Sprintf("users/%s/%s/%s%s", userID, kind, uuid.NewString(), ext)
	if err := s.store.Put(ctx, key, contentType, bytes.NewReader(data), int64(len(data))); err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}

	s.metrics.IncImageUploaded(kind)
	s.logger.Debug("image stored", "key", key, "size", len(data))
	return s.store.URL(key), nil
}

// StockAvatars lists the URLs of the stock profile pictures.
func (s *ImageService) StockAvatars(ctx context.Context) ([]string, error) {
	keys, err := s.store.List(ctx, StockAvatarPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock avatars: %w", err)
	}
	sort.Strings(keys)

	urls := make([]string, 0, len(keys))
	for _, key := range keys {
		urls = append(urls, s.store.URL(key))
	}
	return urls, nil
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}
