package database

import (
	"context"
	"errors"
	"time"

	"github.com/drumok/cashflowpre/models"
)

// ErrNotFound is returned when a row does not exist or belongs to another user.
var ErrNotFound = errors.New("not found")

// Store is the persistence the HTTP layer needs. PgStore backs production;
// MemoryStore backs tests and local runs without a database.
type Store interface {
	Ping(ctx context.Context) error
	Close()

	// GetOrCreateProfile returns the user's profile, creating a free one
	// on first sight.
	GetOrCreateProfile(ctx context.Context, userID, email string) (*models.UserProfile, error)
	GetProfileBySubscription(ctx context.Context, subscriptionID string) (*models.UserProfile, error)
	UpdateSubscription(ctx context.Context, userID string, sub models.Subscription) error
	IncrementUsage(ctx context.Context, userID string, delta models.Usage) error
	ResetUsage(ctx context.Context, userID string, at time.Time) error
	// ResetUnpaidUsage zeroes counters of every profile without an active
	// paid subscription and returns how many were reset.
	ResetUnpaidUsage(ctx context.Context, at time.Time) (int64, error)

	SaveAnalysisRun(ctx context.Context, run *models.AnalysisRun) error
	GetAnalysisRun(ctx context.Context, userID, id string) (*models.AnalysisRun, error)
	// ListAnalysisRuns returns one page, newest first, plus the total count.
	ListAnalysisRuns(ctx context.Context, userID string, filter models.RunFilter) ([]models.AnalysisRun, int, error)

	SaveLeads(ctx context.Context, leads []models.StoredLead) error
	ListLeads(ctx context.Context, userID string, filter models.LeadFilter) ([]models.StoredLead, error)
}

var store Store

// SetStore installs the process-wide store.
func SetStore(s Store) {
	store = s
}

// GetStore returns the store installed at startup.
func GetStore() Store {
	return store
}

// Close closes the installed store, if any.
func Close() {
	if store != nil {
		store.Close()
	}
}
