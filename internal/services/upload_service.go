package services

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"rent-backend/internal/apperrors"
	"rent-backend/internal/cache"
	"rent-backend/internal/events"
	"rent-backend/internal/models"
	"rent-backend/internal/repositories"
	"rent-backend/internal/storage"
	"rent-backend/internal/timeutil"
)

// MeterPhoto is an uploaded photo of a meter.
type MeterPhoto struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// MeterUpload is one meter value submitted by a tenant.
type MeterUpload struct {
	Kind  models.MeterType
	Value decimal.Decimal
	Photo *MeterPhoto
}

// UploadService stores tenant meter readings with their photos. A water
// reading also produces a water bill.
type UploadService struct {
	Tx         repositories.TxManager
	Readings   *ReadingService
	WaterBills *WaterBillService
	Images     storage.ImageStore
	Events     events.Publisher
	Now        Clock
	logger     *zap.Logger
}

func NewUploadService(tx repositories.TxManager, readings *ReadingService, waterBills *WaterBillService,
	images storage.ImageStore, logger *zap.Logger) *UploadService {
	return &UploadService{
		Tx:         tx,
		Readings:   readings,
		WaterBills: waterBills,
		Images:     images,
		Now:        clockOrDefault(nil),
		logger:     logger.Named("uploads"),
	}
}

func (s *UploadService) photoName(kind models.MeterType, tenantID int, filename string) string {
	return storage.SanitizeName(fmt.Sprintf("%s_%s_%s_%s",
		kind, strconv.Itoa(tenantID), timeutil.FormatIST(s.Now(), timeutil.UploadLayout), filename))
}

// Upload stores the submitted readings in one transaction. Photos are saved
// first; a failed save aborts the upload.
func (s *UploadService) Upload(ctx context.Context, tenant *models.User, uploads []MeterUpload) (*models.UploadReadingResponse, error) {
	if tenant == nil || tenant.IsOwner {
		return nil, apperrors.Unauthorized("only tenants can upload readings")
	}
	if len(uploads) == 0 {
		return nil, apperrors.Validation("at least one reading is required")
	}
	seen := make(map[models.MeterType]bool, len(uploads))
	for _, u := range uploads {
		if !u.Kind.Valid() {
			return nil, apperrors.Validation("invalid meter type %q", u.Kind)
		}
		if seen[u.Kind] {
			return nil, apperrors.Validation("duplicate %s reading", u.Kind)
		}
		seen[u.Kind] = true
		if u.Value.IsNegative() {
			return nil, apperrors.Validation("%s reading cannot be negative", u.Kind)
		}
	}

	now := s.Now()
	readings := make([]*models.MeterReading, 0, len(uploads))
	for _, u := range uploads {
		r := &models.MeterReading{
			UserID:       tenant.ID,
			MeterType:    u.Kind,
			ReadingValue: u.Value,
			ReadingDate:  now,
			IsProcessed:  true,
		}
		if u.Photo != nil && u.Photo.Filename != "" {
			path, err := s.Images.Save(ctx, s.photoName(u.Kind, tenant.ID, u.Photo.Filename), u.Photo.ContentType, u.Photo.Body)
			if err != nil {
				return nil, fmt.Errorf("save %s photo: %w", u.Kind, err)
			}
			r.ImagePath = path
		}
		readings = append(readings, r)
	}

	resp := &models.UploadReadingResponse{Readings: readings}
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		resp.Warnings = nil
		resp.WaterBill = nil
		for _, r := range readings {
			warning, err := s.Readings.Append(ctx, r)
			if err != nil {
				return err
			}
			if warning != nil {
				resp.Warnings = append(resp.Warnings, warning.Error())
			}
			if r.MeterType == models.MeterWater {
				bill, err := s.WaterBills.RecordForUpload(ctx, r.ReadingValue)
				if err != nil {
					return err
				}
				resp.WaterBill = bill
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cache.InvalidateKeys(ctx, cache.OwnerDashboardKey)
	publish(s.Events, events.Event{Type: events.TypeReadingsUploaded, TenantID: tenant.ID, Data: resp})
	s.logger.Info("readings uploaded", zap.Int("tenant_id", tenant.ID), zap.Int("count", len(readings)))
	return resp, nil
}
