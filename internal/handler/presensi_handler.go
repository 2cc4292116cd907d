package handler

import (
	"errors"
	"fmt"
	"io"
	"math"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"go-presensi/internal/middleware"
	"go-presensi/internal/model"
	"go-presensi/internal/photo"
	"go-presensi/internal/service"
	"go-presensi/pkg/apierror"
)

// multipartOverhead covers form fields and part headers around the photo.
const multipartOverhead = 64 * 1024

type PresensiHandler struct {
	service      *service.PresensiService
	location     *time.Location
	maxPhotoSize int64
}

// NewPresensiHandler bounds multipart photo parts by processor.MaxBytes.
func NewPresensiHandler(service *service.PresensiService, loc *time.Location, processor *photo.Processor) *PresensiHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &PresensiHandler{service: service, location: loc, maxPhotoSize: processor.MaxBytes()}
}

func (h *PresensiHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.MissingToken())
		return
	}

	var (
		input model.CheckInInput
		err   error
	)
	if isMultipart(r) {
		input, err = h.readMultipartCheckIn(w, r)
	} else {
		input, err = readJSONCheckIn(w, r)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	record, err := h.service.CheckIn(r.Context(), claims.UserID, input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "check-in recorded", model.NewPresensiView(record, h.location))
}

func (h *PresensiHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.MissingToken())
		return
	}

	record, err := h.service.CheckOut(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "check-out recorded", model.NewPresensiView(record, h.location))
}

func (h *PresensiHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.MissingToken())
		return
	}

	limit := parseIntOrDefault(r.URL.Query().Get("limit"), 0)
	records, err := h.service.ListMine(r.Context(), claims.UserID, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", model.NewPresensiViews(records, h.location))
}

func (h *PresensiHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.MissingToken())
		return
	}

	record, err := h.service.Get(r.Context(), claims, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", model.NewPresensiView(record, h.location))
}

func (h *PresensiHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.MissingToken())
		return
	}

	var req model.UpdatePresensiRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	record, err := h.service.Update(r.Context(), claims, chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "presensi updated", model.NewPresensiView(record, h.location))
}

func (h *PresensiHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.MissingToken())
		return
	}

	if err := h.service.Delete(r.Context(), claims, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func readJSONCheckIn(w http.ResponseWriter, r *http.Request) (model.CheckInInput, error) {
	var req model.CheckInRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		return model.CheckInInput{}, err
	}

	loc, err := pairLocation(req.Latitude, req.Longitude)
	if err != nil {
		return model.CheckInInput{}, err
	}
	return model.CheckInInput{Location: loc}, nil
}

func (h *PresensiHandler) readMultipartCheckIn(w http.ResponseWriter, r *http.Request) (model.CheckInInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxPhotoSize+multipartOverhead)
	defer r.Body.Close()

	reader, err := r.MultipartReader()
	if err != nil {
		return model.CheckInInput{}, apierror.Validation("invalid multipart body", err.Error())
	}

	var (
		input    model.CheckInInput
		lat, lng *float64
	)
	for {
		part, nextErr := reader.NextPart()
		if nextErr == io.EOF {
			break
		}
		if nextErr != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(nextErr, &maxBytesErr) {
				return model.CheckInInput{}, nextErr
			}
			return model.CheckInInput{}, apierror.Validation("invalid multipart stream", nextErr.Error())
		}

		switch part.FormName() {
		case "latitude":
			lat, err = readFloatField(part)
		case "longitude":
			lng, err = readFloatField(part)
		case "photo":
			input.Photo, err = h.readPhotoPart(part)
		}
		_ = part.Close()
		if err != nil {
			return model.CheckInInput{}, err
		}
	}

	input.Location, err = pairLocation(lat, lng)
	if err != nil {
		return model.CheckInInput{}, err
	}
	return input, nil
}

func readFloatField(part *multipart.Part) (*float64, error) {
	raw, err := io.ReadAll(io.LimitReader(part, 64))
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil, nil
	}

	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nil, apierror.Validation(fmt.Sprintf("%s must be a number", part.FormName()), err.Error())
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, apierror.Validation(fmt.Sprintf("%s must be a finite number", part.FormName()), trimmed)
	}
	return &v, nil
}

func (h *PresensiHandler) readPhotoPart(part *multipart.Part) (*model.PhotoUpload, error) {
	if ct := part.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" && !photo.IsImageMIME(ct) {
		return nil, apierror.New(apierror.CodeUnsupportedMedia, "photo must be an image", ct, http.StatusUnsupportedMediaType)
	}

	data, err := io.ReadAll(io.LimitReader(part, h.maxPhotoSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > h.maxPhotoSize {
		return nil, apierror.New(apierror.CodePayloadTooLarge,
			fmt.Sprintf("photo exceeds %d bytes", h.maxPhotoSize), "", http.StatusRequestEntityTooLarge)
	}
	if len(data) == 0 {
		return nil, nil
	}

	return &model.PhotoUpload{Filename: part.FileName(), Data: data}, nil
}

// pairLocation requires latitude and longitude to be given together.
func pairLocation(lat, lng *float64) (*model.Location, error) {
	switch {
	case lat == nil && lng == nil:
		return nil, nil
	case lat == nil || lng == nil:
		return nil, apierror.Validation("latitude and longitude must be provided together", "")
	}
	return &model.Location{Latitude: *lat, Longitude: *lng}, nil
}

func parseIntOrDefault(raw string, fallback int) int {
	if strings.TrimSpace(raw) == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}
