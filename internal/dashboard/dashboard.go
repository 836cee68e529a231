package dashboard

import (
	"context"
	"log"

	"github.com/emicollect/client/internal/cache"
	"github.com/emicollect/client/internal/models"
)

// Backend is the slice of the API client the dashboard depends on.
type Backend interface {
	ListLoans(ctx context.Context, userID int) ([]models.LoanSummary, error)
}

// Overview is the derived loan summary shown on the authenticated
// landing screen. Only server-provided fields feed into it; nothing is
// padded with placeholder data.
type Overview struct {
	Loans       []models.LoanSummary
	LoanCount   int
	TotalEMIDue models.Money
}

// Service loads the user's loans, through the optional cache.
type Service struct {
	backend Backend
	cache   *cache.AccountCache
}

// New creates a dashboard service. accounts may wrap a nil Redis client.
func New(backend Backend, accounts *cache.AccountCache) *Service {
	return &Service{backend: backend, cache: accounts}
}

// Overview returns the user's loans and totals, serving from cache when
// a fresh copy exists.
func (s *Service) Overview(ctx context.Context, userID int) (*Overview, error) {
	loans, hit := s.cache.Get(ctx, userID)
	if !hit {
		fetched, err := s.backend.ListLoans(ctx, userID)
		if err != nil {
			return nil, err
		}
		loans = fetched
		s.cache.Put(ctx, userID, loans)
	}

	return summarize(loans), nil
}

// Refresh bypasses and repopulates the cache, the pull-to-refresh path.
func (s *Service) Refresh(ctx context.Context, userID int) (*Overview, error) {
	s.cache.Invalidate(ctx, userID)
	loans, err := s.backend.ListLoans(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.cache.Put(ctx, userID, loans)
	log.Printf("[DASHBOARD] Refreshed %d loan(s) for user %d", len(loans), userID)
	return summarize(loans), nil
}

func summarize(loans []models.LoanSummary) *Overview {
	overview := &Overview{Loans: loans, LoanCount: len(loans)}
	for _, loan := range loans {
		overview.TotalEMIDue += loan.EMIDue
	}
	return overview
}
