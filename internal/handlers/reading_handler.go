package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"rent-backend/internal/apperrors"
	"rent-backend/internal/models"
	"rent-backend/internal/services"
	"rent-backend/pkg/utils"
)

const maxUploadBytes = 10 << 20

type ReadingHandler struct {
	Uploads  *services.UploadService
	Readings *services.ReadingService
	logger   *zap.Logger
}

func NewReadingHandler(uploads *services.UploadService, readings *services.ReadingService, logger *zap.Logger) *ReadingHandler {
	return &ReadingHandler{Uploads: uploads, Readings: readings, logger: logger}
}

// Upload accepts a multipart form with electricity_reading and/or
// water_reading plus optional electricity_image and water_image files.
func (h *ReadingHandler) Upload(w http.ResponseWriter, r *http.Request) {
	tenant, ok := currentUser(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		utils.ErrorMessage(w, http.StatusBadRequest, "Invalid upload form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	var uploads []services.MeterUpload
	for _, kind := range []models.MeterType{models.MeterElectricity, models.MeterWater} {
		upload, file, err := meterFromForm(r, kind)
		if err != nil {
			utils.Error(w, err)
			return
		}
		if file != nil {
			defer file.Close()
		}
		if upload != nil {
			uploads = append(uploads, *upload)
		}
	}

	resp, err := h.Uploads.Upload(r.Context(), tenant, uploads)
	if err != nil {
		writeError(w, h.logger, "upload readings", err)
		return
	}
	utils.JSON(w, http.StatusCreated, resp)
}

// meterFromForm returns nil when the form has no value for kind.
func meterFromForm(r *http.Request, kind models.MeterType) (*services.MeterUpload, multipart.File, error) {
	raw := strings.TrimSpace(r.FormValue(string(kind) + "_reading"))
	if raw == "" {
		return nil, nil, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, nil, apperrors.Validation("invalid %s reading", kind)
	}
	upload := &services.MeterUpload{Kind: kind, Value: value}

	file, header, err := r.FormFile(string(kind) + "_image")
	if errors.Is(err, http.ErrMissingFile) {
		return upload, nil, nil
	}
	if err != nil {
		return nil, nil, apperrors.Validation("invalid %s image", kind)
	}
	upload.Photo = &services.MeterPhoto{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}
	return upload, file, nil
}

// History lists the caller's readings with consumption
func (h *ReadingHandler) History(w http.ResponseWriter, r *http.Request) {
	tenant, ok := currentUser(w, r)
	if !ok {
		return
	}
	views, err := h.Readings.History(r.Context(), tenant.ID, historyLimit(r))
	if err != nil {
		writeError(w, h.logger, "reading history", err)
		return
	}
	utils.JSON(w, http.StatusOK, views)
}
