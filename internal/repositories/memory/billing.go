package memory

import (
	"context"
	"sort"
	"time"

	"rent-backend/internal/models"
	"rent-backend/internal/repositories"
)

type RateStore struct{ db *DB }

func (s *RateStore) Create(ctx context.Context, rate *models.ElectricityRate) error {
	defer s.db.lockWrite(ctx)()
	s.db.st.rateSeq++
	rate.ID = s.db.st.rateSeq
	s.db.st.rates = append(s.db.st.rates, *rate)
	return nil
}

func (s *RateStore) CurrentAsOf(_ context.Context, asOf time.Time) (*models.ElectricityRate, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var current *models.ElectricityRate
	for _, r := range s.db.st.rates {
		if r.EffectiveFrom.After(asOf) {
			continue
		}
		if current == nil || r.EffectiveFrom.After(current.EffectiveFrom) ||
			(r.EffectiveFrom.Equal(current.EffectiveFrom) && r.ID > current.ID) {
			current = ptr(r)
		}
	}
	return current, nil
}

func (s *RateStore) List(_ context.Context) ([]*models.ElectricityRate, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	out := make([]*models.ElectricityRate, 0, len(s.db.st.rates))
	for _, r := range s.db.st.rates {
		out = append(out, ptr(r))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EffectiveFrom.Equal(out[j].EffectiveFrom) {
			return out[i].EffectiveFrom.After(out[j].EffectiveFrom)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

type WaterBillStore struct{ db *DB }

func (s *WaterBillStore) Create(ctx context.Context, bill *models.WaterBill) error {
	defer s.db.lockWrite(ctx)()
	s.db.st.billSeq++
	bill.ID = s.db.st.billSeq
	s.db.st.waterBills = append(s.db.st.waterBills, *bill)
	return nil
}

func (s *WaterBillStore) Latest(ctx context.Context) (*models.WaterBill, error) {
	bills, _ := s.List(ctx, 1)
	if len(bills) == 0 {
		return nil, nil
	}
	return bills[0], nil
}

func (s *WaterBillStore) List(_ context.Context, limit int) ([]*models.WaterBill, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	out := make([]*models.WaterBill, 0, len(s.db.st.waterBills))
	for _, b := range s.db.st.waterBills {
		out = append(out, ptr(b))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].BillingDate.Equal(out[j].BillingDate) {
			return out[i].BillingDate.After(out[j].BillingDate)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type PaymentStore struct{ db *DB }

func (s *PaymentStore) Create(ctx context.Context, p *models.Payment) error {
	defer s.db.lockWrite(ctx)()
	if p.Status == "" {
		p.Status = models.PaymentStatusPending
	}
	if p.ProcessorReference != "" {
		for _, existing := range s.db.st.payments {
			if existing.ProcessorReference == p.ProcessorReference {
				return errDuplicate("processor_reference")
			}
		}
	}
	s.db.st.paymentSeq++
	p.ID = s.db.st.paymentSeq
	s.db.st.payments[p.ID] = *p
	return nil
}

// withName fills the joined tenant name; caller holds the read lock.
func (s *PaymentStore) withName(p models.Payment) *models.Payment {
	if u, ok := s.db.st.users[p.UserID]; ok {
		p.TenantName = u.Name
	}
	return &p
}

func (s *PaymentStore) Get(_ context.Context, id int) (*models.Payment, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	p, ok := s.db.st.payments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return s.withName(p), nil
}

func (s *PaymentStore) GetByProcessorReference(_ context.Context, reference string) (*models.Payment, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	for _, p := range s.db.st.payments {
		if p.ProcessorReference != "" && p.ProcessorReference == reference {
			return s.withName(p), nil
		}
	}
	return nil, nil
}

func (s *PaymentStore) UpdateStatus(ctx context.Context, id int, status models.PaymentStatus) error {
	defer s.db.lockWrite(ctx)()
	p, ok := s.db.st.payments[id]
	if !ok {
		return repositories.ErrNotFound
	}
	p.Status = status
	s.db.st.payments[id] = p
	return nil
}

// filter returns matching payments newest first
func (s *PaymentStore) filter(match func(models.Payment) bool) []*models.Payment {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var out []*models.Payment
	for _, p := range s.db.st.payments {
		if match(p) {
			out = append(out, s.withName(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PaymentDate.Equal(out[j].PaymentDate) {
			return out[i].PaymentDate.After(out[j].PaymentDate)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *PaymentStore) ListByUser(_ context.Context, userID int, limit int) ([]*models.Payment, error) {
	out := s.filter(func(p models.Payment) bool { return p.UserID == userID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *PaymentStore) ListAll(_ context.Context) ([]*models.Payment, error) {
	return s.filter(func(models.Payment) bool { return true }), nil
}

func (s *PaymentStore) ListByStatus(_ context.Context, status models.PaymentStatus) ([]*models.Payment, error) {
	return s.filter(func(p models.Payment) bool { return p.Status == status }), nil
}

func (s *PaymentStore) LatestSince(_ context.Context, userID int, since time.Time) (*models.Payment, error) {
	out := s.filter(func(p models.Payment) bool {
		return p.UserID == userID && !p.PaymentDate.Before(since)
	})
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (s *PaymentStore) DeleteByUser(ctx context.Context, userID int) error {
	defer s.db.lockWrite(ctx)()
	for id, p := range s.db.st.payments {
		if p.UserID == userID {
			delete(s.db.st.payments, id)
		}
	}
	return nil
}
