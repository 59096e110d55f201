package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/drumok/cashflowpre/models"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps everything in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	now      func() time.Time
	profiles map[string]*models.UserProfile
	runs     map[string]*models.AnalysisRun
	leads    []models.StoredLead
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:      time.Now,
		profiles: make(map[string]*models.UserProfile),
		runs:     make(map[string]*models.AnalysisRun),
	}
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() {}

func copyProfile(p *models.UserProfile) *models.UserProfile {
	cp := *p
	return &cp
}

func (s *MemoryStore) GetOrCreateProfile(_ context.Context, userID, email string) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[userID]
	if !ok {
		now := s.now()
		p = &models.UserProfile{
			ID:           userID,
			Email:        email,
			Subscription: models.Subscription{Plan: models.PlanFree, Status: models.StatusNone},
			UsageResetAt: now,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		s.profiles[userID] = p
	}
	return copyProfile(p), nil
}

func (s *MemoryStore) GetProfileBySubscription(_ context.Context, subscriptionID string) (*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.profiles {
		if id := p.Subscription.StripeSubscriptionID; id != nil && *id == subscriptionID {
			return copyProfile(p), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpdateSubscription(_ context.Context, userID string, sub models.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[userID]
	if !ok {
		return ErrNotFound
	}
	if sub.StripeCustomerID == nil {
		sub.StripeCustomerID = p.Subscription.StripeCustomerID
	}
	if sub.StripeSubscriptionID == nil {
		sub.StripeSubscriptionID = p.Subscription.StripeSubscriptionID
	}
	p.Subscription = sub
	p.UpdatedAt = s.now()
	return nil
}

func (s *MemoryStore) IncrementUsage(_ context.Context, userID string, delta models.Usage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[userID]
	if !ok {
		return ErrNotFound
	}
	p.Usage = p.Usage.Add(delta)
	p.UpdatedAt = s.now()
	return nil
}

func (s *MemoryStore) ResetUsage(_ context.Context, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[userID]
	if !ok {
		return ErrNotFound
	}
	p.Usage = models.Usage{}
	p.UsageResetAt = at
	p.UpdatedAt = at
	return nil
}

func (s *MemoryStore) ResetUnpaidUsage(_ context.Context, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, p := range s.profiles {
		if p.HasPaidSubscription() {
			continue
		}
		p.Usage = models.Usage{}
		p.UsageResetAt = at
		p.UpdatedAt = at
		n++
	}
	return n, nil
}

func (s *MemoryStore) SaveAnalysisRun(_ context.Context, run *models.AnalysisRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *run
	s.runs[run.ID] = &cp
	return nil
}

func (s *MemoryStore) GetAnalysisRun(_ context.Context, userID, id string) (*models.AnalysisRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok || run.UserID != userID {
		return nil, ErrNotFound
	}
	cp := *run
	return &cp, nil
}

func (s *MemoryStore) ListAnalysisRuns(_ context.Context, userID string, filter models.RunFilter) ([]models.AnalysisRun, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.AnalysisRun
	for _, run := range s.runs {
		if run.UserID == userID && (filter.Type == "" || run.Type == filter.Type) {
			matched = append(matched, *run)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	start := min(filter.Offset(), len(matched))
	end := min(start+filter.PageSize, len(matched))
	page := make([]models.AnalysisRun, end-start)
	copy(page, matched[start:end])
	return page, len(matched), nil
}

func (s *MemoryStore) SaveLeads(_ context.Context, leads []models.StoredLead) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.leads = append(s.leads, leads...)
	return nil
}

func (s *MemoryStore) ListLeads(_ context.Context, userID string, filter models.LeadFilter) ([]models.StoredLead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultLeadLimit
	}

	out := []models.StoredLead{}
	for _, l := range s.leads {
		if l.UserID == userID && filter.Matches(l.Lead) {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Lead.Score > out[j].Lead.Score
	})
	return out[:min(limit, len(out))], nil
}
