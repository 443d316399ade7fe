package companies

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"blue-carbon/registry-portal/registry-portal-backend/internal/notifications"
	"blue-carbon/registry-portal/registry-portal-backend/pkg/apperrors"
	"blue-carbon/registry-portal/registry-portal-backend/pkg/chain"
)

// RegisterRequest carries company registration input.
type RegisterRequest struct {
	Name               string `json:"name"`
	WalletAddress      string `json:"wallet_address"`
	RegistrationNumber string `json:"registration_number"`
	Sector             string `json:"sector"`
}

// Service implements the company registry: buyer identity and the
// verification gate consumed by the buy-request workflow.
type Service struct {
	repo   Repository
	events notifications.Publisher
	logger *zap.Logger
}

// NewService creates a new companies service
func NewService(repo Repository, events notifications.Publisher, logger *zap.Logger) *Service {
	return &Service{repo: repo, events: events, logger: logger}
}

// Register creates a Pending company. The wallet address is unique across the
// registry.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Company, error) {
	if req.Name == "" || req.WalletAddress == "" || req.RegistrationNumber == "" || req.Sector == "" {
		return nil, apperrors.Validationf("name, wallet_address, registration_number and sector are required")
	}

	wallet := chain.NormalizeAddress(req.WalletAddress)

	existing, err := s.repo.GetByWallet(ctx, wallet)
	if err != nil && !apperrors.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.Conflictf("company with wallet %s already registered", wallet)
	}

	company := &Company{
		Name:               req.Name,
		WalletAddress:      wallet,
		RegistrationNumber: req.RegistrationNumber,
		Sector:             req.Sector,
		Status:             CompanyStatusPending,
	}
	if err := s.repo.Create(ctx, company); err != nil {
		return nil, err
	}

	s.logger.Info("company registered",
		zap.String("company_id", company.ID.String()),
		zap.String("wallet", wallet))

	return company, nil
}

// SetStatus approves or rejects a company. IsVerified is recomputed from the
// new status when the record is saved.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status CompanyStatus) (*Company, error) {
	if status != CompanyStatusApproved && status != CompanyStatusRejected {
		return nil, apperrors.Validationf("status must be %s or %s", CompanyStatusApproved, CompanyStatusRejected)
	}

	company, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	company.Status = status
	if err := s.repo.Update(ctx, company); err != nil {
		return nil, err
	}

	s.events.Publish(notifications.NewEvent(notifications.EventCompanyStatusSet, map[string]interface{}{
		"company_id": company.ID.String(),
		"status":     string(status),
	}))

	return company, nil
}

// GetCompany returns a company by id.
func (s *Service) GetCompany(ctx context.Context, id uuid.UUID) (*Company, error) {
	return s.repo.GetByID(ctx, id)
}

// ListPending returns companies awaiting an approval decision.
func (s *Service) ListPending(ctx context.Context) ([]Company, error) {
	return s.repo.ListByStatus(ctx, CompanyStatusPending)
}
