// Package memory is an in-process implementation of the repository stores.
// It backs the "memory" store driver and the service tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"rent-backend/internal/models"
	"rent-backend/internal/repositories"
)

type logKey struct {
	userID int
	kind   models.MeterType
}

type state struct {
	users      map[int]models.User
	readings   map[logKey][]models.MeterReading // sorted by (ReadingDate, ID)
	rates      []models.ElectricityRate
	waterBills []models.WaterBill
	payments   map[int]models.Payment

	userSeq, readingSeq, rateSeq, billSeq, paymentSeq int
}

func newState() *state {
	return &state{
		users:    make(map[int]models.User),
		readings: make(map[logKey][]models.MeterReading),
		payments: make(map[int]models.Payment),
	}
}

func (s *state) clone() *state {
	c := *s
	c.users = make(map[int]models.User, len(s.users))
	for k, v := range s.users {
		c.users[k] = v
	}
	c.readings = make(map[logKey][]models.MeterReading, len(s.readings))
	for k, v := range s.readings {
		c.readings[k] = append([]models.MeterReading(nil), v...)
	}
	c.rates = append([]models.ElectricityRate(nil), s.rates...)
	c.waterBills = append([]models.WaterBill(nil), s.waterBills...)
	c.payments = make(map[int]models.Payment, len(s.payments))
	for k, v := range s.payments {
		c.payments[k] = v
	}
	return &c
}

// DB holds the shared state of all stores.
type DB struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	st   *state
}

type txMarker struct{}

// NewStore returns a repositories.Store whose stores share one DB.
func NewStore() *repositories.Store {
	db := &DB{st: newState()}
	return &repositories.Store{
		Users:      &UserStore{db: db},
		Readings:   &ReadingStore{db: db},
		Rates:      &RateStore{db: db},
		WaterBills: &WaterBillStore{db: db},
		Payments:   &PaymentStore{db: db},
		Tx:         db,
	}
}

// WithinTx serializes transactions and restores the prior state when fn fails.
// Writes outside a transaction wait for it to finish, so a rollback never
// discards them.
func (d *DB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txMarker{}) != nil {
		return fn(ctx)
	}

	d.txMu.Lock()
	defer d.txMu.Unlock()

	d.mu.RLock()
	snapshot := d.st.clone()
	d.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txMarker{}, true)); err != nil {
		d.mu.Lock()
		d.st = snapshot
		d.mu.Unlock()
		return err
	}
	return nil
}

// lockWrite takes the write lock for one store mutation. Outside a
// transaction the mutation also waits for any running transaction.
func (d *DB) lockWrite(ctx context.Context) func() {
	if ctx.Value(txMarker{}) != nil {
		d.mu.Lock()
		return d.mu.Unlock
	}
	d.txMu.Lock()
	d.mu.Lock()
	return func() {
		d.mu.Unlock()
		d.txMu.Unlock()
	}
}

func ptr[T any](v T) *T { return &v }

// ---- users ----

type UserStore struct{ db *DB }

func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	defer s.db.lockWrite(ctx)()
	st := s.db.st
	for _, existing := range st.users {
		if u.TenantCode != "" && existing.TenantCode == u.TenantCode {
			return errDuplicate("tenant_code")
		}
		if u.Email != "" && strings.EqualFold(existing.Email, u.Email) {
			return errDuplicate("email")
		}
		if u.IsOwner && existing.IsOwner {
			return errDuplicate("owner")
		}
	}
	st.userSeq++
	u.ID = st.userSeq
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	st.users[u.ID] = *u
	return nil
}

func (s *UserStore) Get(_ context.Context, id int) (*models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	u, ok := s.db.st.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

func (s *UserStore) find(match func(models.User) bool) *models.User {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	for _, u := range s.db.st.users {
		if match(u) {
			return ptr(u)
		}
	}
	return nil
}

func (s *UserStore) GetByTenantCode(_ context.Context, code string) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.TenantCode != "" && u.TenantCode == code }), nil
}

func (s *UserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.Email != "" && strings.EqualFold(u.Email, email) }), nil
}

func (s *UserStore) GetOwner(_ context.Context) (*models.User, error) {
	return s.find(func(u models.User) bool { return u.IsOwner }), nil
}

func (s *UserStore) tenants(match func(models.User) bool) []*models.User {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var out []*models.User
	for _, u := range s.db.st.users {
		if !u.IsOwner && match(u) {
			out = append(out, ptr(u))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *UserStore) ListTenants(_ context.Context) ([]*models.User, error) {
	return s.tenants(func(models.User) bool { return true }), nil
}

func (s *UserStore) CountTenants(ctx context.Context) (int, error) {
	tenants, _ := s.ListTenants(ctx)
	return len(tenants), nil
}

func (s *UserStore) ListTenantsByDueDay(_ context.Context, day int) ([]*models.User, error) {
	return s.tenants(func(u models.User) bool { return u.RentDueDay == day }), nil
}

func (s *UserStore) update(ctx context.Context, id int, fn func(*models.User)) error {
	defer s.db.lockWrite(ctx)()
	u, ok := s.db.st.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	fn(&u)
	s.db.st.users[id] = u
	return nil
}

func (s *UserStore) UpdateRent(ctx context.Context, id int, rent decimal.Decimal) error {
	return s.update(ctx, id, func(u *models.User) { u.RentAmount = rent })
}

func (s *UserStore) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	return s.update(ctx, id, func(u *models.User) { u.PasswordHash = passwordHash })
}

func (s *UserStore) SetTOTPSecret(ctx context.Context, id int, secret string) error {
	return s.update(ctx, id, func(u *models.User) { u.TOTPSecret = secret })
}

func (s *UserStore) EnableTOTP(ctx context.Context, id int) error {
	return s.update(ctx, id, func(u *models.User) { u.TOTPEnabled = true })
}

func (s *UserStore) DisableTOTP(ctx context.Context, id int) error {
	return s.update(ctx, id, func(u *models.User) {
		u.TOTPEnabled = false
		u.TOTPSecret = ""
	})
}

func (s *UserStore) Delete(ctx context.Context, id int) error {
	defer s.db.lockWrite(ctx)()
	if _, ok := s.db.st.users[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.db.st.users, id)
	return nil
}

type duplicateError string

func (e duplicateError) Error() string { return "duplicate " + string(e) }

func errDuplicate(field string) error { return duplicateError(field) }
