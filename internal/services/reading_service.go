package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"rent-backend/internal/apperrors"
	"rent-backend/internal/metrics"
	"rent-backend/internal/models"
	"rent-backend/internal/repositories"
)

// ReadingService is the per-tenant, per-meter reading log.
type ReadingService struct {
	Readings repositories.ReadingStore
	Now      Clock
	logger   *zap.Logger
}

func NewReadingService(readings repositories.ReadingStore, logger *zap.Logger) *ReadingService {
	return &ReadingService{
		Readings: readings,
		Now:      clockOrDefault(nil),
		logger:   logger.Named("readings"),
	}
}

func (s *ReadingService) Latest(ctx context.Context, tenantID int, kind models.MeterType) (*models.MeterReading, error) {
	return s.Readings.Latest(ctx, tenantID, kind, s.Now())
}

func (s *ReadingService) PriorTo(ctx context.Context, tenantID int, kind models.MeterType, before time.Time) (*models.MeterReading, error) {
	return s.Readings.PriorTo(ctx, tenantID, kind, before)
}

// Append stores a reading. A value lower than the previous reading is
// stored anyway and reported through the returned warning.
func (s *ReadingService) Append(ctx context.Context, r *models.MeterReading) (*apperrors.DataConsistencyWarning, error) {
	if !r.MeterType.Valid() {
		return nil, apperrors.Validation("invalid meter type %q", r.MeterType)
	}
	if r.ReadingValue.IsNegative() {
		return nil, apperrors.Validation("reading value cannot be negative")
	}
	if r.ReadingDate.IsZero() {
		r.ReadingDate = s.Now()
	}

	previous, err := s.Readings.Latest(ctx, r.UserID, r.MeterType, r.ReadingDate)
	if err != nil {
		return nil, fmt.Errorf("load previous reading: %w", err)
	}
	if err := s.Readings.Append(ctx, r); err != nil {
		return nil, fmt.Errorf("store reading: %w", err)
	}
	metrics.ReadingsAppended.WithLabelValues(string(r.MeterType)).Inc()

	if previous != nil && r.ReadingValue.LessThan(previous.ReadingValue) {
		warning := &apperrors.DataConsistencyWarning{
			TenantID:  r.UserID,
			MeterType: string(r.MeterType),
			Previous:  previous.ReadingValue.String(),
			Current:   r.ReadingValue.String(),
		}
		metrics.ReadingRegressions.WithLabelValues(string(r.MeterType)).Inc()
		s.logger.Warn("meter reading regression",
			zap.Int("tenant_id", r.UserID),
			zap.String("meter_type", string(r.MeterType)),
			zap.String("previous", warning.Previous),
			zap.String("current", warning.Current))
		return warning, nil
	}
	return nil, nil
}

// Consumption is latest minus the reading before it, considering readings
// at or before at. Nil when fewer than two readings exist.
func (s *ReadingService) Consumption(ctx context.Context, tenantID int, kind models.MeterType, at time.Time) (*decimal.Decimal, error) {
	latest, err := s.Readings.Latest(ctx, tenantID, kind, at)
	if err != nil || latest == nil {
		return nil, err
	}
	prior, err := s.Readings.PriorTo(ctx, tenantID, kind, latest.ReadingDate)
	if err != nil || prior == nil {
		return nil, err
	}
	delta := latest.ReadingValue.Sub(prior.ReadingValue)
	return &delta, nil
}

// View derives the display view of a reading. The reading itself is not modified.
func (s *ReadingService) View(ctx context.Context, r *models.MeterReading) (models.ReadingView, error) {
	view := models.ReadingView{Reading: r}
	prev, err := s.Readings.PriorTo(ctx, r.UserID, r.MeterType, r.ReadingDate)
	if err != nil {
		return view, err
	}
	if prev != nil {
		delta := r.ReadingValue.Sub(prev.ReadingValue)
		view.Previous = prev
		view.Consumption = &delta
	}
	return view, nil
}

// LatestView returns the view of the newest reading of a meter, nil when none.
func (s *ReadingService) LatestView(ctx context.Context, tenantID int, kind models.MeterType) (*models.ReadingView, error) {
	latest, err := s.Latest(ctx, tenantID, kind)
	if err != nil || latest == nil {
		return nil, err
	}
	view, err := s.View(ctx, latest)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// History returns the tenant's newest readings of both meters with consumption.
func (s *ReadingService) History(ctx context.Context, tenantID int, limit int) ([]models.ReadingView, error) {
	readings, err := s.Readings.ListByUser(ctx, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	views := make([]models.ReadingView, 0, len(readings))
	for _, r := range readings {
		view, err := s.View(ctx, r)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}
