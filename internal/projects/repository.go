package projects

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"blue-carbon/registry-portal/registry-portal-backend/pkg/apperrors"
)

// Repository handles all database operations for projects
type Repository interface {
	Create(ctx context.Context, project *Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*Project, error)
	Update(ctx context.Context, project *Project) error
	List(ctx context.Context) ([]Project, error)
	ListByOwner(ctx context.Context, ownerWallet string) ([]Project, error)
}

// GormRepository implements Repository using PostgreSQL
type GormRepository struct {
	db *gorm.DB
}

// NewRepository creates a new projects repository
func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Create(ctx context.Context, project *Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

func (r *GormRepository) GetByID(ctx context.Context, id uuid.UUID) (*Project, error) {
	var project Project
	if err := r.db.WithContext(ctx).First(&project, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("project %s not found", id)
		}
		return nil, err
	}
	return &project, nil
}

func (r *GormRepository) Update(ctx context.Context, project *Project) error {
	return r.db.WithContext(ctx).Save(project).Error
}

func (r *GormRepository) List(ctx context.Context) ([]Project, error) {
	var list []Project
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *GormRepository) ListByOwner(ctx context.Context, ownerWallet string) ([]Project, error) {
	var list []Project
	if err := r.db.WithContext(ctx).
		Where("owner_wallet = ?", ownerWallet).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
