package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rent-backend/internal/models"
)

type PaymentRepository struct {
	DB *pgxpool.Pool
}

func NewPaymentRepository(db *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{DB: db}
}

const paymentSelect = `SELECT p.id, p.user_id, p.amount, p.rent_amount, p.electricity_amount, p.water_amount,
	p.payment_method, p.status, COALESCE(p.processor_reference, ''), COALESCE(p.transaction_reference, ''),
	p.payment_date, u.name
	FROM payments p JOIN users u ON u.id = p.user_id`

func scanPayment(row pgx.Row) (*models.Payment, error) {
	var p models.Payment
	var method, status string
	err := row.Scan(&p.ID, &p.UserID, &p.Amount, &p.RentAmount, &p.ElectricityAmount, &p.WaterAmount,
		&method, &status, &p.ProcessorReference, &p.TransactionReference, &p.PaymentDate, &p.TenantName)
	if err != nil {
		return nil, err
	}
	p.PaymentMethod = models.PaymentMethod(method)
	p.Status = models.PaymentStatus(status)
	return &p, nil
}

func (r *PaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	if p.Status == "" {
		p.Status = models.PaymentStatusPending
	}
	return conn(ctx, r.DB).QueryRow(ctx,
		`INSERT INTO payments(user_id, amount, rent_amount, electricity_amount, water_amount,
             payment_method, status, processor_reference, transaction_reference, payment_date)
         VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
         RETURNING id`,
		p.UserID, p.Amount, p.RentAmount, p.ElectricityAmount, p.WaterAmount,
		string(p.PaymentMethod), string(p.Status), nullString(p.ProcessorReference),
		nullString(p.TransactionReference), p.PaymentDate,
	).Scan(&p.ID)
}

func (r *PaymentRepository) Get(ctx context.Context, id int) (*models.Payment, error) {
	p, err := scanPayment(conn(ctx, r.DB).QueryRow(ctx, paymentSelect+` WHERE p.id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (r *PaymentRepository) GetByProcessorReference(ctx context.Context, reference string) (*models.Payment, error) {
	p, err := scanPayment(conn(ctx, r.DB).QueryRow(ctx,
		paymentSelect+` WHERE p.processor_reference=$1`, reference))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (r *PaymentRepository) UpdateStatus(ctx context.Context, id int, status models.PaymentStatus) error {
	tag, err := conn(ctx, r.DB).Exec(ctx, `UPDATE payments SET status=$1 WHERE id=$2`, string(status), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PaymentRepository) list(ctx context.Context, query string, args ...any) ([]*models.Payment, error) {
	rows, err := conn(ctx, r.DB).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *PaymentRepository) ListByUser(ctx context.Context, userID int, limit int) ([]*models.Payment, error) {
	if limit <= 0 {
		return r.list(ctx, paymentSelect+` WHERE p.user_id=$1 ORDER BY p.payment_date DESC, p.id DESC`, userID)
	}
	return r.list(ctx,
		paymentSelect+` WHERE p.user_id=$1 ORDER BY p.payment_date DESC, p.id DESC LIMIT $2`, userID, limit)
}

func (r *PaymentRepository) ListAll(ctx context.Context) ([]*models.Payment, error) {
	return r.list(ctx, paymentSelect+` ORDER BY p.payment_date DESC, p.id DESC`)
}

func (r *PaymentRepository) ListByStatus(ctx context.Context, status models.PaymentStatus) ([]*models.Payment, error) {
	return r.list(ctx,
		paymentSelect+` WHERE p.status=$1 ORDER BY p.payment_date DESC, p.id DESC`, string(status))
}

func (r *PaymentRepository) LatestSince(ctx context.Context, userID int, since time.Time) (*models.Payment, error) {
	p, err := scanPayment(conn(ctx, r.DB).QueryRow(ctx,
		paymentSelect+` WHERE p.user_id=$1 AND p.payment_date >= $2
         ORDER BY p.payment_date DESC, p.id DESC LIMIT 1`, userID, since))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (r *PaymentRepository) DeleteByUser(ctx context.Context, userID int) error {
	_, err := conn(ctx, r.DB).Exec(ctx, `DELETE FROM payments WHERE user_id=$1`, userID)
	return err
}
