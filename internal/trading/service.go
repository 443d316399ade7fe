package trading

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"blue-carbon/registry-portal/registry-portal-backend/internal/certificates"
	"blue-carbon/registry-portal/registry-portal-backend/internal/notifications"
	"blue-carbon/registry-portal/registry-portal-backend/pkg/apperrors"
	"blue-carbon/registry-portal/registry-portal-backend/pkg/chain"
)

// CreateBuyRequestInput carries the parameters for opening a buy request.
type CreateBuyRequestInput struct {
	CompanyID uuid.UUID `json:"company_id"`
	ProjectID uuid.UUID `json:"project_id"`
	Amount    int64     `json:"amount"`
}

// RetireInput carries the parameters for retiring credits.
type RetireInput struct {
	CompanyWallet string    `json:"company_wallet"`
	ProjectID     uuid.UUID `json:"project_id"`
	Amount        int64     `json:"amount"`
	SettlementRef string    `json:"settlement_ref"`
}

// RetireResult reports a completed retirement.
type RetireResult struct {
	TransactionID   uuid.UUID `json:"transaction_id"`
	RetiredCCT      int64     `json:"retired_cct"`
	CertificatePath string    `json:"certificate_path,omitempty"`
}

// Service implements the buy-request workflow and credit retirement. All
// ledger mutations run inside a transaction with the project row locked,
// and holdings are always derived from the append-only transaction log
// rather than trusted from the caller.
type Service struct {
	repo   Repository
	chain  chain.Client
	certs  *certificates.Generator
	events notifications.Publisher
	logger *zap.Logger
}

// NewService creates a new trading service. certs may be nil, in which case
// retirements complete without a certificate.
func NewService(repo Repository, chainClient chain.Client, certs *certificates.Generator, events notifications.Publisher, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		chain:  chainClient,
		certs:  certs,
		events: events,
		logger: logger,
	}
}

// CreateBuyRequest opens a Pending buy request. The company must be verified
// and may hold at most one pending request per project. The check and the
// insert run in one transaction with the project row locked, so concurrent
// creates for the same pair serialize and the loser sees the winner's
// pending request. A partial unique index on the pair backs this up.
func (s *Service) CreateBuyRequest(ctx context.Context, input CreateBuyRequestInput) (*BuyRequest, error) {
	if input.Amount <= 0 {
		return nil, apperrors.Validationf("amount must be positive")
	}

	company, err := s.repo.GetCompany(ctx, input.CompanyID)
	if err != nil {
		return nil, err
	}
	if !company.IsVerified {
		return nil, apperrors.Authorizationf("company %s is not verified", company.ID)
	}

	var request *BuyRequest
	err = s.repo.Transact(ctx, func(r Repository) error {
		project, err := r.GetProjectForUpdate(ctx, input.ProjectID)
		if err != nil {
			return err
		}

		if existing, err := r.FindPendingBuyRequest(ctx, company.ID, project.ID); err == nil {
			return apperrors.Conflictf("buy request %s is already pending for this project", existing.ID)
		} else if !apperrors.IsNotFound(err) {
			return err
		}

		request = &BuyRequest{
			CompanyID:   company.ID,
			ProjectID:   project.ID,
			OwnerWallet: project.OwnerWallet,
			Amount:      input.Amount,
			Status:      BuyRequestStatusPending,
		}
		return r.CreateBuyRequest(ctx, request)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("buy request created",
		zap.String("request_id", request.ID.String()),
		zap.String("company_id", company.ID.String()),
		zap.Int64("amount", input.Amount))

	s.events.Publish(notifications.NewEvent(notifications.EventBuyRequestCreated, map[string]interface{}{
		"request_id": request.ID.String(),
		"company_id": company.ID.String(),
		"project_id": request.ProjectID.String(),
		"amount":     input.Amount,
	}))

	return request, nil
}

// ApproveBuy settles a pending buy request: the sold counter moves by the
// requested amount and a Completed buy entry lands on the ledger. The sale
// is rejected when it would exceed the project's available credits.
func (s *Service) ApproveBuy(ctx context.Context, requestID uuid.UUID, settlementRef string) (*BuyRequest, error) {
	if err := s.chain.ValidateSettlementRef(ctx, settlementRef); err != nil {
		return nil, err
	}

	var approved *BuyRequest
	err := s.repo.Transact(ctx, func(r Repository) error {
		request, err := r.GetBuyRequestForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if request.Status != BuyRequestStatusPending {
			return apperrors.Conflictf("buy request %s is already %s", requestID, request.Status)
		}

		project, err := r.GetProjectForUpdate(ctx, request.ProjectID)
		if err != nil {
			return err
		}
		if request.Amount > project.AvailableCCT() {
			return apperrors.Statef("requested %d CCT exceeds available %d", request.Amount, project.AvailableCCT())
		}

		company, err := r.GetCompany(ctx, request.CompanyID)
		if err != nil {
			return err
		}

		project.SoldCCT += request.Amount
		if err := r.UpdateProject(ctx, project); err != nil {
			return err
		}

		request.Status = BuyRequestStatusApproved
		request.SettlementRef = &settlementRef
		if err := r.UpdateBuyRequest(ctx, request); err != nil {
			return err
		}

		txn := &CompanyTransaction{
			CompanyID:     company.ID,
			ProjectID:     project.ID,
			CompanyWallet: company.WalletAddress,
			OwnerWallet:   project.OwnerWallet,
			Amount:        request.Amount,
			Type:          TransactionTypeBuy,
			Status:        TransactionStatusCompleted,
			SettlementRef: &settlementRef,
		}
		if err := r.AppendTransaction(ctx, txn); err != nil {
			return err
		}

		approved = request
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(notifications.NewEvent(notifications.EventBuyRequestApproved, map[string]interface{}{
		"request_id": approved.ID.String(),
		"company_id": approved.CompanyID.String(),
		"project_id": approved.ProjectID.String(),
		"amount":     approved.Amount,
	}))

	return approved, nil
}

// Retire permanently removes credits a company owns in a project. Ownership
// is derived from the ledger (completed buys minus completed retirements);
// the retirement fails when the amount exceeds it. A certificate is issued
// on a best-effort basis and never rolls the retirement back.
func (s *Service) Retire(ctx context.Context, input RetireInput) (*RetireResult, error) {
	if input.Amount <= 0 {
		return nil, apperrors.Validationf("amount must be positive")
	}
	wallet := chain.NormalizeAddress(input.CompanyWallet)
	if wallet == "" {
		return nil, apperrors.Validationf("company wallet is required")
	}
	if err := s.chain.ValidateSettlementRef(ctx, input.SettlementRef); err != nil {
		return nil, err
	}

	company, err := s.repo.GetCompanyByWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if !company.IsVerified {
		return nil, apperrors.Authorizationf("company %s is not verified", company.ID)
	}

	var (
		result        RetireResult
		projectName   string
		ecosystemType string
	)
	err = s.repo.Transact(ctx, func(r Repository) error {
		p, err := r.GetProjectForUpdate(ctx, input.ProjectID)
		if err != nil {
			return err
		}

		bought, err := r.SumCompletedTransactions(ctx, company.ID, p.ID, TransactionTypeBuy)
		if err != nil {
			return err
		}
		retired, err := r.SumCompletedTransactions(ctx, company.ID, p.ID, TransactionTypeRetire)
		if err != nil {
			return err
		}
		owned := bought - retired
		if input.Amount > owned {
			return apperrors.Statef("requested %d CCT exceeds owned %d", input.Amount, owned)
		}

		p.RetiredCCT += input.Amount
		if err := r.UpdateProject(ctx, p); err != nil {
			return err
		}

		ref := input.SettlementRef
		txn := &CompanyTransaction{
			CompanyID:     company.ID,
			ProjectID:     p.ID,
			CompanyWallet: company.WalletAddress,
			OwnerWallet:   p.OwnerWallet,
			Amount:        input.Amount,
			Type:          TransactionTypeRetire,
			Status:        TransactionStatusCompleted,
			SettlementRef: &ref,
		}
		if err := r.AppendTransaction(ctx, txn); err != nil {
			return err
		}

		result = RetireResult{TransactionID: txn.ID, RetiredCCT: input.Amount}
		projectName = p.Name
		ecosystemType = p.EcosystemType
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.certs != nil {
		path, certErr := s.certs.GenerateRetirement(certificates.Data{
			CertificateID: result.TransactionID.String(),
			CompanyName:   company.Name,
			CompanyWallet: company.WalletAddress,
			ProjectName:   projectName,
			EcosystemType: ecosystemType,
			Amount:        input.Amount,
			SettlementRef: input.SettlementRef,
			RetiredAt:     time.Now().UTC(),
		})
		if certErr != nil {
			s.logger.Warn("retirement certificate generation failed",
				zap.String("transaction_id", result.TransactionID.String()),
				zap.Error(certErr))
		} else {
			result.CertificatePath = path
		}
	}

	s.events.Publish(notifications.NewEvent(notifications.EventCreditsRetired, map[string]interface{}{
		"transaction_id": result.TransactionID.String(),
		"company_id":     company.ID.String(),
		"project_id":     input.ProjectID.String(),
		"amount":         input.Amount,
	}))

	return &result, nil
}

// GetCompanyBalance derives a company's position in a project from the
// ledger.
func (s *Service) GetCompanyBalance(ctx context.Context, companyID, projectID uuid.UUID) (*CompanyBalance, error) {
	if _, err := s.repo.GetCompany(ctx, companyID); err != nil {
		return nil, err
	}

	bought, err := s.repo.SumCompletedTransactions(ctx, companyID, projectID, TransactionTypeBuy)
	if err != nil {
		return nil, err
	}
	retired, err := s.repo.SumCompletedTransactions(ctx, companyID, projectID, TransactionTypeRetire)
	if err != nil {
		return nil, err
	}

	return &CompanyBalance{
		CompanyID: companyID,
		ProjectID: projectID,
		Owned:     bought - retired,
		Retired:   retired,
	}, nil
}

// ListBuyRequestsByCompany returns a company's buy requests, newest first.
func (s *Service) ListBuyRequestsByCompany(ctx context.Context, companyID uuid.UUID) ([]BuyRequest, error) {
	return s.repo.ListBuyRequestsByCompany(ctx, companyID)
}

// ListPendingForOwner returns pending buy requests addressed to a project
// owner's wallet.
func (s *Service) ListPendingForOwner(ctx context.Context, ownerWallet string) ([]BuyRequest, error) {
	wallet := chain.NormalizeAddress(ownerWallet)
	if wallet == "" {
		return nil, apperrors.Validationf("owner wallet is required")
	}
	return s.repo.ListPendingBuyRequestsByOwner(ctx, wallet)
}

// ListTransactions returns a company's ledger entries, newest first.
func (s *Service) ListTransactions(ctx context.Context, companyID uuid.UUID) ([]CompanyTransaction, error) {
	return s.repo.ListTransactionsByCompany(ctx, companyID)
}
