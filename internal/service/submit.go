// Package service coordinates the school submission pipeline: validation,
// advisory duplicate check, conditional image upload, authoritative insert.
package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"school-directory/internal/models"
	"school-directory/internal/validation"
)

// RecordStore persists and queries school records.
type RecordStore interface {
	Insert(ctx context.Context, in models.SchoolInput, imageURL *string) (int64, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	ContactExists(ctx context.Context, contact string) (bool, error)
}

// ImageStore stores image bytes with content-based deduplication.
type ImageStore interface {
	Store(ctx context.Context, data []byte, contentType string) (models.StoredImage, error)
}

// TaskPublisher queues follow-up work for a freshly stored image.
type TaskPublisher interface {
	PublishThumbnail(objectKey string) error
}

// Submission is one attempt to add a school. At most one of ImageData and
// ImageURL is expected: raw bytes drive the upload step, a URL from an
// earlier upload is attached as-is.
type Submission struct {
	models.SchoolInput
	ImageData        []byte
	ImageContentType string
	ImageURL         string
}

// Result of an accepted submission. Image is nil when no image bytes were
// uploaded as part of this attempt.
type Result struct {
	ID    int64
	Image *models.StoredImage
}

type SubmitService struct {
	records RecordStore
	images  ImageStore
	tasks   TaskPublisher
	log     *zap.SugaredLogger
}

// NewSubmitService wires the submission pipeline. tasks may be nil when no
// queue is available; thumbnails are then simply not produced.
func NewSubmitService(records RecordStore, images ImageStore, tasks TaskPublisher, log *zap.SugaredLogger) *SubmitService {
	return &SubmitService{
		records: records,
		images:  images,
		tasks:   tasks,
		log:     log,
	}
}

// CheckDuplicate reports whether email or contact is already taken. Email is
// checked first; a contact conflict is only reported when the email is free.
// The result is advisory: nothing is reserved, and the insert-time constraint
// remains authoritative.
func (s *SubmitService) CheckDuplicate(ctx context.Context, email, contact string) (models.DuplicateCheck, error) {
	exists, err := s.records.EmailExists(ctx, email)
	if err != nil {
		return models.DuplicateCheck{}, &models.SystemError{Err: err}
	}
	if exists {
		return models.DuplicateCheck{IsDuplicate: true, Field: "email"}, nil
	}

	exists, err = s.records.ContactExists(ctx, contact)
	if err != nil {
		return models.DuplicateCheck{}, &models.SystemError{Err: err}
	}
	if exists {
		return models.DuplicateCheck{IsDuplicate: true, Field: "contact"}, nil
	}

	return models.DuplicateCheck{}, nil
}

// Submit runs one submission attempt through the fixed sequence
// validate -> duplicate check -> conditional upload -> insert. Any failure is
// terminal for the attempt; the caller may re-invoke the whole sequence,
// which is safe because each step re-checks fresh state and identical image
// bytes deduplicate to the same object.
//
// The duplicate check runs before the upload on purpose: an upload is never
// spent on a submission that is already known to be rejected. The check is
// still only advisory; a concurrent submission can slip past it, and the
// record store's unique constraint settles the race at insert time.
func (s *SubmitService) Submit(ctx context.Context, sub Submission) (Result, error) {
	if err := validation.ValidateSchool(sub.SchoolInput); err != nil {
		return Result{}, err
	}

	check, err := s.CheckDuplicate(ctx, sub.Email, sub.Contact)
	if err != nil {
		return Result{}, err
	}
	if check.IsDuplicate {
		return Result{}, &models.DuplicateError{Field: check.Field}
	}

	var imageURL *string
	var stored *models.StoredImage
	switch {
	case len(sub.ImageData) > 0:
		img, err := s.images.Store(ctx, sub.ImageData, sub.ImageContentType)
		if err != nil {
			var verr *models.ValidationError
			var uerr *models.UploadError
			if errors.As(err, &verr) || errors.As(err, &uerr) {
				return Result{}, err
			}
			return Result{}, &models.UploadError{Err: err}
		}
		stored = &img
		imageURL = &img.URL
	case sub.ImageURL != "":
		imageURL = &sub.ImageURL
	}

	id, err := s.records.Insert(ctx, sub.SchoolInput, imageURL)
	if err != nil {
		var derr *models.DuplicateError
		if errors.As(err, &derr) {
			// Lost the race to a concurrent submission after the
			// advisory check passed. The constraint wins.
			s.log.Infow("insert rejected by uniqueness constraint", "field", derr.Field)
			return Result{}, derr
		}
		return Result{}, &models.SystemError{Err: err}
	}

	if stored != nil && !stored.IsDuplicate && s.tasks != nil {
		if perr := s.tasks.PublishThumbnail(stored.PublicID); perr != nil {
			// Thumbnails are best-effort; the record is already in.
			s.log.Warnw("failed to queue thumbnail task", "public_id", stored.PublicID, "error", perr)
		}
	}

	s.log.Infow("school added", "id", id, "city", sub.City, "has_image", imageURL != nil)
	return Result{ID: id, Image: stored}, nil
}
