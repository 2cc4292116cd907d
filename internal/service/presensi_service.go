package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-presensi/internal/metrics"
	"go-presensi/internal/model"
	"go-presensi/internal/photo"
	"go-presensi/internal/storage"
	"go-presensi/pkg/apierror"
)

type PresensiStore interface {
	CreateOpen(ctx context.Context, p model.Presensi) (model.Presensi, error)
	CloseOpen(ctx context.Context, userID string, at time.Time) (model.Presensi, error)
	FindByID(ctx context.Context, id string) (model.Presensi, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]model.Presensi, error)
	UpdateTimes(ctx context.Context, id string, checkIn time.Time, checkOut *time.Time, updatedAt time.Time) (model.Presensi, error)
	Delete(ctx context.Context, id string) error
}

type PresensiService struct {
	store     PresensiStore
	photos    storage.PhotoStore
	processor *photo.Processor
	metrics   *metrics.Metrics
	location  *time.Location
	now       func() time.Time
}

func NewPresensiService(store PresensiStore, photos storage.PhotoStore, processor *photo.Processor, loc *time.Location, m *metrics.Metrics) *PresensiService {
	if loc == nil {
		loc = time.UTC
	}
	return &PresensiService{
		store:     store,
		photos:    photos,
		processor: processor,
		metrics:   m,
		location:  loc,
		now:       func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// CheckIn opens a new session for userID. The storage layer rejects a
// second open session atomically; there is no read-before-insert.
func (s *PresensiService) CheckIn(ctx context.Context, userID string, input model.CheckInInput) (record model.Presensi, err error) {
	defer func() { s.metrics.CheckIn(err) }()

	if loc := input.Location; loc != nil {
		if !(loc.Latitude >= -90 && loc.Latitude <= 90) || !(loc.Longitude >= -180 && loc.Longitude <= 180) {
			return model.Presensi{}, apierror.Validation("latitude must be within -90..90 and longitude within -180..180", "")
		}
	}

	now := s.now()
	record = model.Presensi{
		ID:        uuid.NewString(),
		UserID:    userID,
		CheckIn:   now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if input.Location != nil {
		lat, lng := input.Location.Latitude, input.Location.Longitude
		record.Latitude = &lat
		record.Longitude = &lng
	}

	if input.Photo != nil {
		ref, err := s.storePhoto(ctx, now, input.Photo)
		if err != nil {
			return model.Presensi{}, err
		}
		record.Photo = &ref
	}

	created, err := s.store.CreateOpen(ctx, record)
	if err != nil {
		if record.Photo != nil {
			s.discardPhoto(ctx, *record.Photo)
		}
		if errors.Is(err, model.ErrAlreadyCheckedIn) {
			return model.Presensi{}, apierror.AlreadyCheckedIn()
		}
		return model.Presensi{}, err
	}

	slog.Info("checked in", "user_id", userID, "presensi_id", created.ID, "with_photo", created.Photo != nil)
	return created, nil
}

func (s *PresensiService) CheckOut(ctx context.Context, userID string) (record model.Presensi, err error) {
	defer func() { s.metrics.CheckOut(err) }()

	record, err = s.store.CloseOpen(ctx, userID, s.now())
	if errors.Is(err, model.ErrNoOpenSession) {
		return model.Presensi{}, apierror.NoOpenSession()
	}
	if err != nil {
		return model.Presensi{}, err
	}

	slog.Info("checked out", "user_id", userID, "presensi_id", record.ID)
	return record, nil
}

// Get returns a record visible to the caller: their own, or any for admins.
func (s *PresensiService) Get(ctx context.Context, caller *model.AuthClaims, id string) (model.Presensi, error) {
	record, err := s.find(ctx, id)
	if err != nil {
		return model.Presensi{}, err
	}
	if record.UserID != caller.UserID && !caller.IsAdmin() {
		return model.Presensi{}, apierror.Forbidden("you can only view your own presensi")
	}
	return record, nil
}

func (s *PresensiService) ListMine(ctx context.Context, userID string, limit int) ([]model.Presensi, error) {
	return s.store.ListByUser(ctx, userID, limit)
}

// Update corrects the timestamps of a record. Owners and admins may do so.
func (s *PresensiService) Update(ctx context.Context, caller *model.AuthClaims, id string, req model.UpdatePresensiRequest) (model.Presensi, error) {
	patch, err := s.ParsePatch(req)
	if err != nil {
		return model.Presensi{}, err
	}

	record, err := s.find(ctx, id)
	if err != nil {
		return model.Presensi{}, err
	}
	if record.UserID != caller.UserID && !caller.IsAdmin() {
		return model.Presensi{}, apierror.Forbidden("you can only update your own presensi")
	}

	checkIn := record.CheckIn
	if patch.CheckIn != nil {
		checkIn = *patch.CheckIn
	}
	checkOut := record.CheckOut
	if patch.CheckOut != nil {
		checkOut = patch.CheckOut
	}
	if checkOut != nil && checkOut.Before(checkIn) {
		return model.Presensi{}, apierror.Validation("checkOut must not be before checkIn", "")
	}

	updated, err := s.store.UpdateTimes(ctx, id, checkIn, checkOut, s.now())
	switch {
	case errors.Is(err, model.ErrPresensiNotFound):
		return model.Presensi{}, apierror.NotFound("presensi not found", id)
	case errors.Is(err, model.ErrAlreadyCheckedIn):
		return model.Presensi{}, apierror.AlreadyCheckedIn()
	case err != nil:
		return model.Presensi{}, err
	}

	slog.Info("presensi updated", "presensi_id", id, "by", caller.UserID)
	return updated, nil
}

// Delete removes a record owned by the caller. Ownership is required even
// for admins.
func (s *PresensiService) Delete(ctx context.Context, caller *model.AuthClaims, id string) error {
	record, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if record.UserID != caller.UserID {
		return apierror.Forbidden("you can only delete your own presensi")
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, model.ErrPresensiNotFound) {
			return apierror.NotFound("presensi not found", id)
		}
		return err
	}

	if record.Photo != nil {
		s.discardPhoto(ctx, *record.Photo)
	}

	slog.Info("presensi deleted", "presensi_id", id, "by", caller.UserID)
	return nil
}

// ParsePatch validates an update request. Timestamps are RFC 3339; values
// without an offset are read in the display time zone.
func (s *PresensiService) ParsePatch(req model.UpdatePresensiRequest) (model.PresensiPatch, error) {
	var patch model.PresensiPatch

	if req.CheckIn != nil {
		t, err := ParseTimestamp(*req.CheckIn, s.location)
		if err != nil {
			return patch, apierror.Validation("checkIn is not a valid ISO-8601 timestamp", err.Error())
		}
		patch.CheckIn = &t
	}
	if req.CheckOut != nil {
		t, err := ParseTimestamp(*req.CheckOut, s.location)
		if err != nil {
			return patch, apierror.Validation("checkOut is not a valid ISO-8601 timestamp", err.Error())
		}
		patch.CheckOut = &t
	}

	if patch.IsEmpty() {
		return patch, apierror.Validation("at least one of checkIn or checkOut is required", "")
	}
	return patch, nil
}

var localTimestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

func ParseTimestamp(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("empty timestamp")
	}

	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC().Truncate(time.Microsecond), nil
	}

	for _, layout := range localTimestampLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t.UTC().Truncate(time.Microsecond), nil
		}
	}

	return time.Time{}, fmt.Errorf("cannot parse %q", raw)
}

func (s *PresensiService) find(ctx context.Context, id string) (model.Presensi, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.Presensi{}, apierror.NotFound("presensi not found", id)
	}

	record, err := s.store.FindByID(ctx, id)
	if errors.Is(err, model.ErrPresensiNotFound) {
		return model.Presensi{}, apierror.NotFound("presensi not found", id)
	}
	if err != nil {
		return model.Presensi{}, err
	}
	return record, nil
}

func (s *PresensiService) storePhoto(ctx context.Context, now time.Time, upload *model.PhotoUpload) (string, error) {
	if s.photos == nil || s.processor == nil {
		return "", apierror.Validation("photo uploads are not enabled", "")
	}

	normalized, err := s.processor.Normalize(upload.Data)
	if err != nil {
		slog.Debug("photo rejected", "filename", upload.Filename, "size", len(upload.Data), "error", err)
		return "", err
	}

	key := fmt.Sprintf("%s/%s%s", now.Format("2006/01"), uuid.NewString(), photo.Extension)
	ref, err := s.photos.Save(ctx, key, photo.ContentType, normalized)
	if err != nil {
		return "", fmt.Errorf("store photo: %w", err)
	}

	slog.Debug("photo stored", "filename", upload.Filename, "ref", ref, "original_size", len(upload.Data), "stored_size", len(normalized))
	return ref, nil
}

// discardPhoto removes a stored photo; failures are logged and otherwise
// ignored.
func (s *PresensiService) discardPhoto(ctx context.Context, ref string) {
	if s.photos == nil {
		return
	}
	if err := s.photos.Delete(context.WithoutCancel(ctx), ref); err != nil && !errors.Is(err, model.ErrPhotoNotFound) {
		slog.Warn("failed to delete photo", "photo", ref, "error", err)
	}
}
