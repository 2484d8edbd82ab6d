package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"school-directory/internal/models"
	"school-directory/internal/service"
)

type insertCall struct {
	input    models.SchoolInput
	imageURL *string
}

type fakeRecords struct {
	emails    map[string]bool
	contacts  map[string]bool
	lookups   int
	insertErr error
	nextID    int64
	inserted  []insertCall
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{
		emails:   map[string]bool{},
		contacts: map[string]bool{},
		nextID:   1,
	}
}

func (f *fakeRecords) Insert(_ context.Context, in models.SchoolInput, imageURL *string) (int64, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.inserted = append(f.inserted, insertCall{input: in, imageURL: imageURL})
	id := f.nextID
	f.nextID++
	f.emails[in.Email] = true
	f.contacts[in.Contact] = true
	return id, nil
}

func (f *fakeRecords) EmailExists(_ context.Context, email string) (bool, error) {
	f.lookups++
	return f.emails[email], nil
}

func (f *fakeRecords) ContactExists(_ context.Context, contact string) (bool, error) {
	f.lookups++
	return f.contacts[contact], nil
}

type failingRecords struct {
	fakeRecords
}

func (f *failingRecords) EmailExists(context.Context, string) (bool, error) {
	return false, errors.New("database unreachable")
}

type fakeImages struct {
	calls  int
	err    error
	result models.StoredImage
}

func (f *fakeImages) Store(context.Context, []byte, string) (models.StoredImage, error) {
	f.calls++
	if f.err != nil {
		return models.StoredImage{}, f.err
	}
	return f.result, nil
}

type fakeTasks struct {
	published []string
	err       error
}

func (f *fakeTasks) PublishThumbnail(objectKey string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, objectKey)
	return nil
}

func validSubmission() service.Submission {
	return service.Submission{
		SchoolInput: models.SchoolInput{
			Name:    "X School",
			Address: "123 Long Enough Address Here",
			City:    "Pune",
			State:   "Maharashtra",
			Contact: "9000000001",
			Email:   "x@example.com",
		},
	}
}

func newService(records service.RecordStore, images service.ImageStore, tasks service.TaskPublisher) *service.SubmitService {
	return service.NewSubmitService(records, images, tasks, zap.NewNop().Sugar())
}

func TestSubmitAccepted(t *testing.T) {
	records := newFakeRecords()
	images := &fakeImages{}
	svc := newService(records, images, nil)

	res, err := svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)

	assert.Equal(t, int64(1), res.ID)
	assert.Nil(t, res.Image)
	require.Len(t, records.inserted, 1)
	assert.Equal(t, "x@example.com", records.inserted[0].input.Email)
	assert.Nil(t, records.inserted[0].imageURL)
	assert.Zero(t, images.calls)
}

func TestSubmitDuplicateEmailSkipsUpload(t *testing.T) {
	records := newFakeRecords()
	records.emails["x@example.com"] = true
	images := &fakeImages{}
	svc := newService(records, images, nil)

	sub := validSubmission()
	sub.Contact = "9000000002"
	sub.ImageData = []byte("fake image bytes")
	sub.ImageContentType = "image/png"

	_, err := svc.Submit(context.Background(), sub)
	var derr *models.DuplicateError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "email", derr.Field)

	// A known-rejected submission must never spend an upload or an insert.
	assert.Zero(t, images.calls)
	assert.Empty(t, records.inserted)
}

func TestSubmitDuplicateContact(t *testing.T) {
	records := newFakeRecords()
	records.contacts["9000000001"] = true
	svc := newService(records, &fakeImages{}, nil)

	sub := validSubmission()
	sub.Email = "different@example.com"

	_, err := svc.Submit(context.Background(), sub)
	var derr *models.DuplicateError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "contact", derr.Field)
	assert.Empty(t, records.inserted)
}

func TestSubmitInvalidStopsBeforeAnyCall(t *testing.T) {
	records := newFakeRecords()
	images := &fakeImages{}
	svc := newService(records, images, nil)

	sub := validSubmission()
	sub.Contact = "12345"
	sub.ImageData = []byte("fake image bytes")
	sub.ImageContentType = "image/png"

	_, err := svc.Submit(context.Background(), sub)
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "contact must be 10 digits", verr.Message)

	assert.Zero(t, records.lookups, "no duplicate check for invalid input")
	assert.Zero(t, images.calls)
	assert.Empty(t, records.inserted)
}

func TestSubmitDuplicateCheckFailure(t *testing.T) {
	svc := newService(&failingRecords{}, &fakeImages{}, nil)

	_, err := svc.Submit(context.Background(), validSubmission())
	var serr *models.SystemError
	require.ErrorAs(t, err, &serr)
}

func TestSubmitUploadFailureAbortsInsert(t *testing.T) {
	records := newFakeRecords()
	images := &fakeImages{err: &models.UploadError{Err: errors.New("object store unreachable")}}
	svc := newService(records, images, nil)

	sub := validSubmission()
	sub.ImageData = []byte("fake image bytes")
	sub.ImageContentType = "image/png"

	_, err := svc.Submit(context.Background(), sub)
	var uerr *models.UploadError
	require.ErrorAs(t, err, &uerr)
	assert.Empty(t, records.inserted, "a failed upload must not insert the record")
}

func TestSubmitBadImagePassesValidationError(t *testing.T) {
	records := newFakeRecords()
	images := &fakeImages{err: &models.ValidationError{Message: "only image files are allowed"}}
	svc := newService(records, images, nil)

	sub := validSubmission()
	sub.ImageData = []byte("definitely a pdf")
	sub.ImageContentType = "application/pdf"

	_, err := svc.Submit(context.Background(), sub)
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, records.inserted)
}

func TestSubmitInsertRaceResolvedByConstraint(t *testing.T) {
	// The advisory check passes, but a concurrent identical submission wins
	// the insert. The constraint's rejection is surfaced as a duplicate.
	records := newFakeRecords()
	records.insertErr = &models.DuplicateError{Field: "email"}
	svc := newService(records, &fakeImages{}, nil)

	_, err := svc.Submit(context.Background(), validSubmission())
	var derr *models.DuplicateError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "email", derr.Field)
}

func TestSubmitWithImageQueuesThumbnail(t *testing.T) {
	records := newFakeRecords()
	images := &fakeImages{result: models.StoredImage{
		URL:      "http://objects.test/school-images/img_abc",
		PublicID: "img_abc",
		Width:    750,
		Height:   600,
	}}
	tasks := &fakeTasks{}
	svc := newService(records, images, tasks)

	sub := validSubmission()
	sub.ImageData = []byte("fake image bytes")
	sub.ImageContentType = "image/png"

	res, err := svc.Submit(context.Background(), sub)
	require.NoError(t, err)

	require.NotNil(t, res.Image)
	assert.Equal(t, "img_abc", res.Image.PublicID)
	require.Len(t, records.inserted, 1)
	require.NotNil(t, records.inserted[0].imageURL)
	assert.Equal(t, images.result.URL, *records.inserted[0].imageURL)
	assert.Equal(t, []string{"img_abc"}, tasks.published)
}

func TestSubmitDuplicateImageSkipsThumbnailTask(t *testing.T) {
	records := newFakeRecords()
	images := &fakeImages{result: models.StoredImage{
		URL:         "http://objects.test/school-images/img_abc",
		PublicID:    "img_abc",
		IsDuplicate: true,
	}}
	tasks := &fakeTasks{}
	svc := newService(records, images, tasks)

	sub := validSubmission()
	sub.ImageData = []byte("fake image bytes")
	sub.ImageContentType = "image/png"

	res, err := svc.Submit(context.Background(), sub)
	require.NoError(t, err)
	assert.True(t, res.Image.IsDuplicate)
	assert.Empty(t, tasks.published, "existing images already have thumbnails")
}

func TestSubmitPublishFailureIsNonFatal(t *testing.T) {
	records := newFakeRecords()
	images := &fakeImages{result: models.StoredImage{URL: "u", PublicID: "img_abc"}}
	tasks := &fakeTasks{err: errors.New("queue down")}
	svc := newService(records, images, tasks)

	sub := validSubmission()
	sub.ImageData = []byte("fake image bytes")
	sub.ImageContentType = "image/png"

	res, err := svc.Submit(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.ID)
}

func TestSubmitWithImageURLAttachesReference(t *testing.T) {
	records := newFakeRecords()
	images := &fakeImages{}
	svc := newService(records, images, nil)

	sub := validSubmission()
	sub.ImageURL = "http://objects.test/school-images/img_prev"

	res, err := svc.Submit(context.Background(), sub)
	require.NoError(t, err)
	assert.Nil(t, res.Image)
	assert.Zero(t, images.calls, "a reference from a prior upload is attached as-is")
	require.Len(t, records.inserted, 1)
	require.NotNil(t, records.inserted[0].imageURL)
	assert.Equal(t, sub.ImageURL, *records.inserted[0].imageURL)
}

func TestCheckDuplicateEmailPrecedence(t *testing.T) {
	// Both values conflict; email wins by fixed precedence.
	records := newFakeRecords()
	records.emails["x@example.com"] = true
	records.contacts["9000000001"] = true
	svc := newService(records, &fakeImages{}, nil)

	check, err := svc.CheckDuplicate(context.Background(), "x@example.com", "9000000001")
	require.NoError(t, err)
	assert.True(t, check.IsDuplicate)
	assert.Equal(t, "email", check.Field)
}

func TestCheckDuplicateIdempotent(t *testing.T) {
	records := newFakeRecords()
	records.contacts["9000000001"] = true
	svc := newService(records, &fakeImages{}, nil)

	first, err := svc.CheckDuplicate(context.Background(), "x@example.com", "9000000001")
	require.NoError(t, err)
	second, err := svc.CheckDuplicate(context.Background(), "x@example.com", "9000000001")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCheckDuplicateNone(t *testing.T) {
	svc := newService(newFakeRecords(), &fakeImages{}, nil)
	check, err := svc.CheckDuplicate(context.Background(), "free@example.com", "9111111111")
	require.NoError(t, err)
	assert.False(t, check.IsDuplicate)
	assert.Empty(t, check.Field)
}
