package handler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"school-directory/internal/models"
	"school-directory/internal/service"
)

// Submitter runs the submission pipeline.
type Submitter interface {
	Submit(ctx context.Context, sub service.Submission) (service.Result, error)
	CheckDuplicate(ctx context.Context, email, contact string) (models.DuplicateCheck, error)
}

// SchoolLister reads persisted school records.
type SchoolLister interface {
	List(ctx context.Context) ([]models.School, error)
}

// ImageUploader stores raw image bytes with content dedup.
type ImageUploader interface {
	Store(ctx context.Context, data []byte, contentType string) (models.StoredImage, error)
}

// ListCache holds rendered list responses. Optional; a nil cache means every
// list hits the database.
type ListCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
}

type Handler struct {
	submit   Submitter
	schools  SchoolLister
	images   ImageUploader
	cache    ListCache
	cacheTTL time.Duration
	timeout  time.Duration
	log      *zap.SugaredLogger
}

func NewHandler(submit Submitter, schools SchoolLister, images ImageUploader, cache ListCache, cacheTTL, timeout time.Duration, log *zap.SugaredLogger) *Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Handler{
		submit:   submit,
		schools:  schools,
		images:   images,
		cache:    cache,
		cacheTTL: cacheTTL,
		timeout:  timeout,
		log:      log,
	}
}
