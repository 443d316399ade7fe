package companies

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"blue-carbon/registry-portal/registry-portal-backend/pkg/apperrors"
)

// Repository handles all database operations for companies
type Repository interface {
	Create(ctx context.Context, company *Company) error
	GetByID(ctx context.Context, id uuid.UUID) (*Company, error)
	GetByWallet(ctx context.Context, wallet string) (*Company, error)
	Update(ctx context.Context, company *Company) error
	ListByStatus(ctx context.Context, status CompanyStatus) ([]Company, error)
}

// GormRepository implements Repository using PostgreSQL
type GormRepository struct {
	db *gorm.DB
}

// NewRepository creates a new companies repository
func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Create(ctx context.Context, company *Company) error {
	return r.db.WithContext(ctx).Create(company).Error
}

func (r *GormRepository) GetByID(ctx context.Context, id uuid.UUID) (*Company, error) {
	var company Company
	if err := r.db.WithContext(ctx).First(&company, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("company %s not found", id)
		}
		return nil, err
	}
	return &company, nil
}

func (r *GormRepository) GetByWallet(ctx context.Context, wallet string) (*Company, error) {
	var company Company
	if err := r.db.WithContext(ctx).First(&company, "wallet_address = ?", wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("company with wallet %s not found", wallet)
		}
		return nil, err
	}
	return &company, nil
}

func (r *GormRepository) Update(ctx context.Context, company *Company) error {
	return r.db.WithContext(ctx).Save(company).Error
}

func (r *GormRepository) ListByStatus(ctx context.Context, status CompanyStatus) ([]Company, error) {
	var list []Company
	if err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
