package trading

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"blue-carbon/registry-portal/registry-portal-backend/internal/companies"
	"blue-carbon/registry-portal/registry-portal-backend/internal/projects"
	"blue-carbon/registry-portal/registry-portal-backend/pkg/apperrors"
)

// Repository handles all database operations for buy requests and the
// transaction ledger. ForUpdate variants take row locks and are only valid
// inside Transact.
type Repository interface {
	Transact(ctx context.Context, fn func(Repository) error) error

	CreateBuyRequest(ctx context.Context, request *BuyRequest) error
	GetBuyRequest(ctx context.Context, id uuid.UUID) (*BuyRequest, error)
	GetBuyRequestForUpdate(ctx context.Context, id uuid.UUID) (*BuyRequest, error)
	UpdateBuyRequest(ctx context.Context, request *BuyRequest) error
	FindPendingBuyRequest(ctx context.Context, companyID, projectID uuid.UUID) (*BuyRequest, error)
	ListBuyRequestsByCompany(ctx context.Context, companyID uuid.UUID) ([]BuyRequest, error)
	ListPendingBuyRequestsByOwner(ctx context.Context, ownerWallet string) ([]BuyRequest, error)

	AppendTransaction(ctx context.Context, txn *CompanyTransaction) error
	ListTransactionsByCompany(ctx context.Context, companyID uuid.UUID) ([]CompanyTransaction, error)
	SumCompletedTransactions(ctx context.Context, companyID, projectID uuid.UUID, txnType TransactionType) (int64, error)

	GetCompany(ctx context.Context, id uuid.UUID) (*companies.Company, error)
	GetCompanyByWallet(ctx context.Context, wallet string) (*companies.Company, error)

	GetProject(ctx context.Context, id uuid.UUID) (*projects.Project, error)
	GetProjectForUpdate(ctx context.Context, id uuid.UUID) (*projects.Project, error)
	UpdateProject(ctx context.Context, project *projects.Project) error
}

// GormRepository implements Repository using PostgreSQL
type GormRepository struct {
	db *gorm.DB
}

// NewRepository creates a new trading repository
func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Transact runs fn inside a database transaction; the Repository passed to fn
// is bound to that transaction.
func (r *GormRepository) Transact(ctx context.Context, fn func(Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepository{db: tx})
	})
}

func (r *GormRepository) CreateBuyRequest(ctx context.Context, request *BuyRequest) error {
	if err := r.db.WithContext(ctx).Create(request).Error; err != nil {
		// the partial unique index on (company_id, project_id) Pending rows
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.Conflictf("a buy request is already pending for company %s on project %s",
				request.CompanyID, request.ProjectID)
		}
		return err
	}
	return nil
}

func (r *GormRepository) GetBuyRequest(ctx context.Context, id uuid.UUID) (*BuyRequest, error) {
	return r.getBuyRequest(ctx, id, false)
}

func (r *GormRepository) GetBuyRequestForUpdate(ctx context.Context, id uuid.UUID) (*BuyRequest, error) {
	return r.getBuyRequest(ctx, id, true)
}

func (r *GormRepository) getBuyRequest(ctx context.Context, id uuid.UUID, forUpdate bool) (*BuyRequest, error) {
	query := r.db.WithContext(ctx)
	if forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var request BuyRequest
	if err := query.First(&request, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("buy request %s not found", id)
		}
		return nil, err
	}
	return &request, nil
}

func (r *GormRepository) UpdateBuyRequest(ctx context.Context, request *BuyRequest) error {
	return r.db.WithContext(ctx).Save(request).Error
}

// FindPendingBuyRequest returns the Pending request for a company/project
// pair, or a not-found error when none exists.
func (r *GormRepository) FindPendingBuyRequest(ctx context.Context, companyID, projectID uuid.UUID) (*BuyRequest, error) {
	var request BuyRequest
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND project_id = ? AND status = ?", companyID, projectID, BuyRequestStatusPending).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("no pending buy request for company %s on project %s", companyID, projectID)
		}
		return nil, err
	}
	return &request, nil
}

func (r *GormRepository) ListBuyRequestsByCompany(ctx context.Context, companyID uuid.UUID) ([]BuyRequest, error) {
	var list []BuyRequest
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *GormRepository) ListPendingBuyRequestsByOwner(ctx context.Context, ownerWallet string) ([]BuyRequest, error) {
	var list []BuyRequest
	if err := r.db.WithContext(ctx).
		Where("owner_wallet = ? AND status = ?", ownerWallet, BuyRequestStatusPending).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *GormRepository) AppendTransaction(ctx context.Context, txn *CompanyTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *GormRepository) ListTransactionsByCompany(ctx context.Context, companyID uuid.UUID) ([]CompanyTransaction, error) {
	var list []CompanyTransaction
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// SumCompletedTransactions totals Completed ledger entries of one type for a
// company/project pair.
func (r *GormRepository) SumCompletedTransactions(ctx context.Context, companyID, projectID uuid.UUID, txnType TransactionType) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&CompanyTransaction{}).
		Where("company_id = ? AND project_id = ? AND type = ? AND status = ?",
			companyID, projectID, txnType, TransactionStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *GormRepository) GetCompany(ctx context.Context, id uuid.UUID) (*companies.Company, error) {
	var company companies.Company
	if err := r.db.WithContext(ctx).First(&company, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("company %s not found", id)
		}
		return nil, err
	}
	return &company, nil
}

func (r *GormRepository) GetCompanyByWallet(ctx context.Context, wallet string) (*companies.Company, error) {
	var company companies.Company
	if err := r.db.WithContext(ctx).First(&company, "wallet_address = ?", wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("company with wallet %s not found", wallet)
		}
		return nil, err
	}
	return &company, nil
}

func (r *GormRepository) GetProject(ctx context.Context, id uuid.UUID) (*projects.Project, error) {
	return r.getProject(ctx, id, false)
}

func (r *GormRepository) GetProjectForUpdate(ctx context.Context, id uuid.UUID) (*projects.Project, error) {
	return r.getProject(ctx, id, true)
}

func (r *GormRepository) getProject(ctx context.Context, id uuid.UUID, forUpdate bool) (*projects.Project, error) {
	query := r.db.WithContext(ctx)
	if forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var project projects.Project
	if err := query.First(&project, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("project %s not found", id)
		}
		return nil, err
	}
	return &project, nil
}

func (r *GormRepository) UpdateProject(ctx context.Context, project *projects.Project) error {
	return r.db.WithContext(ctx).Save(project).Error
}
