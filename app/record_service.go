package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"strings"
	"time"

	"bhss/domain/core"
	"bhss/internal/errors"
	"bhss/internal/notify"
	"bhss/internal/validation"
	"bhss/models"
	"bhss/ports"
)

// AttendanceService records daily headcounts
type AttendanceService struct {
	repo      ports.AttendanceRepository
	validator *validation.Validator
	publisher notify.Publisher
}

// NewAttendanceService creates an attendance service
func NewAttendanceService(repo ports.AttendanceRepository, validator *validation.Validator, publisher notify.Publisher) *AttendanceService {
	return &AttendanceService{repo: repo, validator: validator, publisher: publisher}
}

// Save stores a new attendance record on behalf of actor
func (s *AttendanceService) Save(ctx context.Context, actor *models.User, in models.AttendanceInput) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}
	if err := checkScope(actor, in.Municipality, in.School); err != nil {
		return nil, err
	}

	record := &models.AttendanceRecord{
		DateKey:      in.DateKey,
		Municipality: strings.TrimSpace(in.Municipality),
		School:       strings.TrimSpace(in.School),
		Grade:        strings.TrimSpace(in.Grade),
		Present:      in.Present,
		Absent:       in.Absent,
		Notes:        in.Notes,
		CreatedBy:    actor.ID,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}

	log.Printf("[Attendance] saved %s %s %s (%d present)", record.DateKey, record.School, record.Grade, record.Present)
	publish(s.publisher, notify.EventAttendanceSaved, record.ID.String(), record.UpdatedAt, recordAudience(record.Municipality, record.School), record)
	return record, nil
}

// History lists attendance; field users only see their own school
func (s *AttendanceService) History(ctx context.Context, actor *models.User, filter models.RecordFilter) ([]models.AttendanceRecord, error) {
	return s.repo.List(ctx, scopeFilter(actor, filter))
}

// Get returns one record
func (s *AttendanceService) Get(ctx context.Context, id core.ID) (*models.AttendanceRecord, error) {
	return s.repo.GetByID(ctx, id)
}

// Update applies patch to the record with id
func (s *AttendanceService) Update(ctx context.Context, id core.ID, patch models.AttendancePatch) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(patch); err != nil {
		return nil, err
	}
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(record)
	if err := s.repo.Update(ctx, record); err != nil {
		return nil, err
	}
	publish(s.publisher, notify.EventAttendanceSaved, record.ID.String(), record.UpdatedAt, recordAudience(record.Municipality, record.School), record)
	return record, nil
}

// Delete removes the record with id
func (s *AttendanceService) Delete(ctx context.Context, id core.ID) error {
	return s.repo.Delete(ctx, id)
}

// Upload is one file received from a multipart form
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// DeliveryService logs food deliveries and their photos
type DeliveryService struct {
	repo      ports.DeliveryRepository
	blobs     ports.BlobStore
	validator *validation.Validator
	publisher notify.Publisher
	now       func() time.Time
}

// NewDeliveryService creates a delivery service
func NewDeliveryService(repo ports.DeliveryRepository, blobs ports.BlobStore, validator *validation.Validator, publisher notify.Publisher) *DeliveryService {
	return &DeliveryService{repo: repo, blobs: blobs, validator: validator, publisher: publisher, now: time.Now}
}

// Save stores a new delivery record on behalf of actor
func (s *DeliveryService) Save(ctx context.Context, actor *models.User, in models.DeliveryInput) (*models.DeliveryRecord, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}
	if err := checkScope(actor, in.Municipality, in.School); err != nil {
		return nil, err
	}

	record := &models.DeliveryRecord{
		DateKey:       in.DateKey,
		Municipality:  strings.TrimSpace(in.Municipality),
		School:        strings.TrimSpace(in.School),
		CategoryKey:   in.CategoryKey,
		CategoryLabel: in.CategoryLabel,
		Status:        in.Status,
		StatusReason:  in.StatusReason,
		Concerns:      models.StringList(in.Concerns),
		Remarks:       in.Remarks,
		CreatedBy:     actor.ID,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}

	log.Printf("[Delivery] saved %s %s %s (%s)", record.DateKey, record.School, record.CategoryKey, record.Status)
	publish(s.publisher, notify.EventDeliverySaved, record.ID.String(), record.UpdatedAt, recordAudience(record.Municipality, record.School), record)
	return record, nil
}

// History lists deliveries; field users only see their own school
func (s *DeliveryService) History(ctx context.Context, actor *models.User, filter models.RecordFilter) ([]models.DeliveryRecord, error) {
	return s.repo.List(ctx, scopeFilter(actor, filter))
}

// Get returns one record
func (s *DeliveryService) Get(ctx context.Context, id core.ID) (*models.DeliveryRecord, error) {
	return s.repo.GetByID(ctx, id)
}

// Update applies patch to the record with id
func (s *DeliveryService) Update(ctx context.Context, id core.ID, patch models.DeliveryPatch) (*models.DeliveryRecord, error) {
	if err := s.validator.Struct(patch); err != nil {
		return nil, err
	}
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(record)
	if err := s.repo.Update(ctx, record); err != nil {
		return nil, err
	}
	publish(s.publisher, notify.EventDeliverySaved, record.ID.String(), record.UpdatedAt, recordAudience(record.Municipality, record.School), record)
	return record, nil
}

// Delete removes the record with id and its stored images
func (s *DeliveryService) Delete(ctx context.Context, id core.ID) error {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	for _, img := range record.Images {
		key := imageKey(id, img.URL)
		if err := s.blobs.Delete(ctx, key); err != nil {
			log.Printf("[Delivery] WARNING: failed to delete image %s: %v", key, err)
		}
	}
	return nil
}

// AddImages stores uploads as photos of the delivery and stamps UploadedAt
func (s *DeliveryService) AddImages(ctx context.Context, actor *models.User, id core.ID, uploads []Upload) (*models.DeliveryRecord, error) {
	if len(uploads) == 0 {
		return nil, errors.InvalidInput("no images uploaded")
	}
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkScope(actor, record.Municipality, record.School); err != nil {
		return nil, err
	}

	for _, up := range uploads {
		if !strings.HasPrefix(up.ContentType, "image/") {
			return nil, errors.InvalidInput(fmt.Sprintf("%s is not an image", up.Filename))
		}
		key := fmt.Sprintf("deliveries/%s/%s%s", id, core.NewID(), strings.ToLower(path.Ext(up.Filename)))
		url, err := s.blobs.Put(ctx, key, up.ContentType, up.Body)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to store image %s", up.Filename)
		}
		record.Images = append(record.Images, models.FileRef{URL: url, Filename: path.Base(up.Filename)})
	}

	uploadedAt := s.now().UTC()
	record.UploadedAt = &uploadedAt
	if err := s.repo.Update(ctx, record); err != nil {
		return nil, err
	}

	log.Printf("[Delivery] %d image(s) attached to %s", len(uploads), id)
	publish(s.publisher, notify.EventDeliverySaved, record.ID.String(), record.UpdatedAt, recordAudience(record.Municipality, record.School), record)
	return record, nil
}

// imageKey recovers the blob key from a stored image URL
func imageKey(id core.ID, url string) string {
	prefix := "deliveries/" + id.String() + "/"
	if i := strings.Index(url, prefix); i >= 0 {
		return url[i:]
	}
	return prefix + path.Base(url)
}
