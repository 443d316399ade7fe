package minting

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"blue-carbon/registry-portal/registry-portal-backend/internal/projects"
	"blue-carbon/registry-portal/registry-portal-backend/pkg/apperrors"
)

// Repository handles all database operations for mint requests. ForUpdate
// variants take row locks and are only valid inside Transact.
type Repository interface {
	Transact(ctx context.Context, fn func(Repository) error) error

	Create(ctx context.Context, request *MintRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*MintRequest, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*MintRequest, error)
	Update(ctx context.Context, request *MintRequest) error
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]MintRequest, error)
	ListOpenWithProjects(ctx context.Context) ([]MintRequest, error)

	GetProject(ctx context.Context, id uuid.UUID) (*projects.Project, error)
	GetProjectForUpdate(ctx context.Context, id uuid.UUID) (*projects.Project, error)
	UpdateProject(ctx context.Context, project *projects.Project) error
}

// GormRepository implements Repository using PostgreSQL
type GormRepository struct {
	db *gorm.DB
}

// NewRepository creates a new minting repository
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

func (r *GormRepository) Create(ctx context.Context, request *MintRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *GormRepository) GetByID(ctx context.Context, id uuid.UUID) (*MintRequest, error) {
	return r.getByID(ctx, id, false)
}

func (r *GormRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*MintRequest, error) {
	return r.getByID(ctx, id, true)
}

func (r *GormRepository) getByID(ctx context.Context, id uuid.UUID, forUpdate bool) (*MintRequest, error) {
	query := r.db.WithContext(ctx)
	if forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var request MintRequest
	if err := query.First(&request, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("mint request %s not found", id)
		}
		return nil, err
	}
	return &request, nil
}

func (r *GormRepository) Update(ctx context.Context, request *MintRequest) error {
	return r.db.WithContext(ctx).Save(request).Error
}

func (r *GormRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]MintRequest, error) {
	var list []MintRequest
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// ListOpenWithProjects returns non-terminal requests with their projects
// preloaded, for per-verifier filtering.
func (r *GormRepository) ListOpenWithProjects(ctx context.Context) ([]MintRequest, error) {
	var list []MintRequest
	if err := r.db.WithContext(ctx).
		Preload("Project").
		Where("status IN ?", []RequestStatus{RequestStatusPending, RequestStatusPartiallyApproved}).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
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
