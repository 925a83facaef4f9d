package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"rent-backend/internal/models"
)

type UserRepository struct {
	DB *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{DB: db}
}

const userColumns = `id, COALESCE(tenant_code, ''), COALESCE(email, ''), name, password_hash, is_owner,
	rent_amount, COALESCE(phone_number, ''), COALESCE(rent_due_day, 0),
	COALESCE(totp_secret, ''), totp_enabled, created_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.TenantCode, &u.Email, &u.Name, &u.PasswordHash, &u.IsOwner,
		&u.RentAmount, &u.Phone, &u.RentDueDay, &u.TOTPSecret, &u.TOTPEnabled, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	return conn(ctx, r.DB).QueryRow(ctx,
		`INSERT INTO users(tenant_code, email, name, password_hash, is_owner, rent_amount, phone_number, rent_due_day)
         VALUES($1, $2, $3, $4, $5, $6, $7, $8)
         RETURNING id, created_at`,
		nullString(u.TenantCode), nullString(u.Email), u.Name, u.PasswordHash, u.IsOwner,
		u.RentAmount, nullString(u.Phone), nullInt(u.RentDueDay),
	).Scan(&u.ID, &u.CreatedAt)
}

func (r *UserRepository) Get(ctx context.Context, id int) (*models.User, error) {
	u, err := scanUser(conn(ctx, r.DB).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	u, err := scanUser(conn(ctx, r.DB).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+where+` LIMIT 1`, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func (r *UserRepository) GetByTenantCode(ctx context.Context, code string) (*models.User, error) {
	return r.getOne(ctx, "tenant_code=$1", code)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "LOWER(email)=LOWER($1)", email)
}

func (r *UserRepository) GetOwner(ctx context.Context) (*models.User, error) {
	return r.getOne(ctx, "is_owner=$1", true)
}

func (r *UserRepository) list(ctx context.Context, query string, args ...any) ([]*models.User, error) {
	rows, err := conn(ctx, r.DB).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ListTenants returns all tenants ordered by name
func (r *UserRepository) ListTenants(ctx context.Context) ([]*models.User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users WHERE NOT is_owner ORDER BY name, id`)
}

func (r *UserRepository) CountTenants(ctx context.Context) (int, error) {
	var n int
	err := conn(ctx, r.DB).QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE NOT is_owner`).Scan(&n)
	return n, err
}

// ListTenantsByDueDay returns tenants whose rent falls due on the given day of month
func (r *UserRepository) ListTenantsByDueDay(ctx context.Context, day int) ([]*models.User, error) {
	return r.list(ctx,
		`SELECT `+userColumns+` FROM users WHERE NOT is_owner AND rent_due_day=$1 ORDER BY name, id`, day)
}

func (r *UserRepository) exec(ctx context.Context, query string, args ...any) error {
	tag, err := conn(ctx, r.DB).Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdateRent(ctx context.Context, id int, rent decimal.Decimal) error {
	return r.exec(ctx, `UPDATE users SET rent_amount=$1 WHERE id=$2`, rent, id)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	return r.exec(ctx, `UPDATE users SET password_hash=$1 WHERE id=$2`, passwordHash, id)
}

// SetTOTPSecret stores the TOTP secret for a user (during setup, before verification)
func (r *UserRepository) SetTOTPSecret(ctx context.Context, id int, secret string) error {
	return r.exec(ctx, `UPDATE users SET totp_secret=$1 WHERE id=$2`, secret, id)
}

// EnableTOTP marks 2FA as enabled after verification
func (r *UserRepository) EnableTOTP(ctx context.Context, id int) error {
	return r.exec(ctx, `UPDATE users SET totp_enabled=true WHERE id=$1`, id)
}

// DisableTOTP disables 2FA and clears the secret
func (r *UserRepository) DisableTOTP(ctx context.Context, id int) error {
	return r.exec(ctx, `UPDATE users SET totp_enabled=false, totp_secret=NULL WHERE id=$1`, id)
}

func (r *UserRepository) Delete(ctx context.Context, id int) error {
	return r.exec(ctx, `DELETE FROM users WHERE id=$1`, id)
}
