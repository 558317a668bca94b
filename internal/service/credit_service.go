package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/kineticfit/booking-api/internal/models"
	appErrors "github.com/kineticfit/booking-api/pkg/errors"
)

type creditLedger interface {
	GetBalance(ctx context.Context, userID string) (*models.ClientCredit, error)
	Grant(ctx context.Context, userID string, count int) error
}

// CreditService exposes the client credit ledger. Deduction and restoration
// happen inside booking and cancellation transactions, not here.
type CreditService struct {
	repo   creditLedger
	logger *zap.Logger
}

// NewCreditService constructs CreditService.
func NewCreditService(repo creditLedger, logger *zap.Logger) *CreditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CreditService{repo: repo, logger: logger}
}

// Balance returns the client's current credit balance. Clients with no ledger
// row have a zero balance.
func (s *CreditService) Balance(ctx context.Context, userID string) (*models.ClientCredit, error) {
	credit, err := s.repo.GetBalance(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load credit balance")
	}
	return credit, nil
}

// Grant adds credits to a client's balance.
func (s *CreditService) Grant(ctx context.Context, userID string, count int) (*models.ClientCredit, error) {
	if count <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "credit count must be positive")
	}
	if err := s.repo.Grant(ctx, userID, count); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to grant credits")
	}
	return s.Balance(ctx, userID)
}
