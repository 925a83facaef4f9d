package memory

import (
	"context"
	"sort"
	"time"

	"rent-backend/internal/models"
)

// ReadingStore keeps one slice per (tenant, meter) sorted by reading date
// then id, and binary-searches it.
type ReadingStore struct{ db *DB }

func before(a, b models.MeterReading) bool {
	if !a.ReadingDate.Equal(b.ReadingDate) {
		return a.ReadingDate.Before(b.ReadingDate)
	}
	return a.ID < b.ID
}

func (s *ReadingStore) Append(ctx context.Context, r *models.MeterReading) error {
	defer s.db.lockWrite(ctx)()
	st := s.db.st
	st.readingSeq++
	r.ID = st.readingSeq

	key := logKey{userID: r.UserID, kind: r.MeterType}
	log := st.readings[key]
	// new ids are the largest, so the slot is after every reading dated at or before r
	i := sort.Search(len(log), func(i int) bool { return log[i].ReadingDate.After(r.ReadingDate) })
	log = append(log, models.MeterReading{})
	copy(log[i+1:], log[i:])
	log[i] = *r
	st.readings[key] = log
	return nil
}

func (s *ReadingStore) Latest(_ context.Context, userID int, kind models.MeterType, asOf time.Time) (*models.MeterReading, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	log := s.db.st.readings[logKey{userID, kind}]
	i := sort.Search(len(log), func(i int) bool { return log[i].ReadingDate.After(asOf) })
	if i == 0 {
		return nil, nil
	}
	return ptr(log[i-1]), nil
}

func (s *ReadingStore) PriorTo(_ context.Context, userID int, kind models.MeterType, t time.Time) (*models.MeterReading, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	log := s.db.st.readings[logKey{userID, kind}]
	i := sort.Search(len(log), func(i int) bool { return !log[i].ReadingDate.Before(t) })
	if i == 0 {
		return nil, nil
	}
	return ptr(log[i-1]), nil
}

func (s *ReadingStore) LatestAny(_ context.Context, userID int) (*models.MeterReading, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var latest *models.MeterReading
	for _, kind := range []models.MeterType{models.MeterElectricity, models.MeterWater} {
		log := s.db.st.readings[logKey{userID, kind}]
		if len(log) == 0 {
			continue
		}
		last := log[len(log)-1]
		if latest == nil || before(*latest, last) {
			latest = ptr(last)
		}
	}
	return latest, nil
}

func (s *ReadingStore) ListByUser(_ context.Context, userID int, limit int) ([]*models.MeterReading, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var out []*models.MeterReading
	for _, kind := range []models.MeterType{models.MeterElectricity, models.MeterWater} {
		for _, r := range s.db.st.readings[logKey{userID, kind}] {
			out = append(out, ptr(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return before(*out[j], *out[i]) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *ReadingStore) Earliest(_ context.Context, kind models.MeterType) (*models.MeterReading, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var earliest *models.MeterReading
	for key, log := range s.db.st.readings {
		if key.kind != kind || len(log) == 0 {
			continue
		}
		if earliest == nil || before(log[0], *earliest) {
			earliest = ptr(log[0])
		}
	}
	return earliest, nil
}

func (s *ReadingStore) DeleteByUser(ctx context.Context, userID int) error {
	defer s.db.lockWrite(ctx)()
	delete(s.db.st.readings, logKey{userID, models.MeterElectricity})
	delete(s.db.st.readings, logKey{userID, models.MeterWater})
	return nil
}
