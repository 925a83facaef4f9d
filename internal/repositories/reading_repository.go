package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rent-backend/internal/models"
)

// ReadingRepository reads the per-tenant log through idx_meter_readings_log.
type ReadingRepository struct {
	DB *pgxpool.Pool
}

func NewReadingRepository(db *pgxpool.Pool) *ReadingRepository {
	return &ReadingRepository{DB: db}
}

const readingColumns = `id, user_id, meter_type, reading_value, reading_date, COALESCE(image_path, ''), is_processed`

func scanReading(row pgx.Row) (*models.MeterReading, error) {
	var m models.MeterReading
	var kind string
	err := row.Scan(&m.ID, &m.UserID, &kind, &m.ReadingValue, &m.ReadingDate, &m.ImagePath, &m.IsProcessed)
	if err != nil {
		return nil, err
	}
	m.MeterType = models.MeterType(kind)
	return &m, nil
}

func (r *ReadingRepository) one(ctx context.Context, query string, args ...any) (*models.MeterReading, error) {
	m, err := scanReading(conn(ctx, r.DB).QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

func (r *ReadingRepository) Append(ctx context.Context, m *models.MeterReading) error {
	return conn(ctx, r.DB).QueryRow(ctx,
		`INSERT INTO meter_readings(user_id, meter_type, reading_value, reading_date, image_path, is_processed)
         VALUES($1, $2, $3, $4, $5, $6)
         RETURNING id`,
		m.UserID, string(m.MeterType), m.ReadingValue, m.ReadingDate, nullString(m.ImagePath), m.IsProcessed,
	).Scan(&m.ID)
}

func (r *ReadingRepository) Latest(ctx context.Context, userID int, kind models.MeterType, asOf time.Time) (*models.MeterReading, error) {
	return r.one(ctx,
		`SELECT `+readingColumns+` FROM meter_readings
         WHERE user_id=$1 AND meter_type=$2 AND reading_date <= $3
         ORDER BY reading_date DESC, id DESC LIMIT 1`,
		userID, string(kind), asOf)
}

func (r *ReadingRepository) PriorTo(ctx context.Context, userID int, kind models.MeterType, before time.Time) (*models.MeterReading, error) {
	return r.one(ctx,
		`SELECT `+readingColumns+` FROM meter_readings
         WHERE user_id=$1 AND meter_type=$2 AND reading_date < $3
         ORDER BY reading_date DESC, id DESC LIMIT 1`,
		userID, string(kind), before)
}

func (r *ReadingRepository) LatestAny(ctx context.Context, userID int) (*models.MeterReading, error) {
	return r.one(ctx,
		`SELECT `+readingColumns+` FROM meter_readings
         WHERE user_id=$1
         ORDER BY reading_date DESC, id DESC LIMIT 1`,
		userID)
}

func (r *ReadingRepository) Earliest(ctx context.Context, kind models.MeterType) (*models.MeterReading, error) {
	return r.one(ctx,
		`SELECT `+readingColumns+` FROM meter_readings
         WHERE meter_type=$1
         ORDER BY reading_date ASC, id ASC LIMIT 1`,
		string(kind))
}

func (r *ReadingRepository) ListByUser(ctx context.Context, userID int, limit int) ([]*models.MeterReading, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := conn(ctx, r.DB).Query(ctx,
		`SELECT `+readingColumns+` FROM meter_readings
         WHERE user_id=$1
         ORDER BY reading_date DESC, id DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []*models.MeterReading
	for rows.Next() {
		m, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		readings = append(readings, m)
	}
	return readings, rows.Err()
}

func (r *ReadingRepository) DeleteByUser(ctx context.Context, userID int) error {
	_, err := conn(ctx, r.DB).Exec(ctx, `DELETE FROM meter_readings WHERE user_id=$1`, userID)
	return err
}
