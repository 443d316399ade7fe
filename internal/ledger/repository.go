package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"blue-carbon/registry-portal/registry-portal-backend/internal/minting"
	"blue-carbon/registry-portal/registry-portal-backend/internal/projects"
	"blue-carbon/registry-portal/registry-portal-backend/internal/trading"
	"blue-carbon/registry-portal/registry-portal-backend/pkg/apperrors"
)

// Repository reads the authoritative records (executed mint requests, the
// transaction log) and rewrites project counters derived from them.
type Repository interface {
	Transact(ctx context.Context, fn func(Repository) error) error

	ListProjectIDs(ctx context.Context) ([]uuid.UUID, error)
	GetProjectForUpdate(ctx context.Context, id uuid.UUID) (*projects.Project, error)
	UpdateProject(ctx context.Context, project *projects.Project) error

	SumExecutedMints(ctx context.Context, projectID uuid.UUID) (minted, buffer int64, err error)
	SumCompletedByType(ctx context.Context, projectID uuid.UUID, txnType trading.TransactionType) (int64, error)
}

// GormRepository implements Repository using PostgreSQL
type GormRepository struct {
	db *gorm.DB
}

// NewRepository creates a new ledger repository
func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Transact(ctx context.Context, fn func(Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepository{db: tx})
	})
}

func (r *GormRepository) ListProjectIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&projects.Project{}).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *GormRepository) GetProjectForUpdate(ctx context.Context, id uuid.UUID) (*projects.Project, error) {
	var project projects.Project
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&project, "id = ?", id).Error
	if err != nil {
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

// SumExecutedMints totals executed issuance for a project. The buffer share
// is summed per request so the floor of each 10% holdback is preserved.
func (r *GormRepository) SumExecutedMints(ctx context.Context, projectID uuid.UUID) (int64, int64, error) {
	var row struct {
		Minted int64
		Buffer int64
	}
	err := r.db.WithContext(ctx).
		Model(&minting.MintRequest{}).
		Where("project_id = ? AND status = ?", projectID, minting.RequestStatusExecuted).
		Select("COALESCE(SUM(amount), 0) AS minted, COALESCE(SUM(amount / 10), 0) AS buffer").
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.Minted, row.Buffer, nil
}

func (r *GormRepository) SumCompletedByType(ctx context.Context, projectID uuid.UUID, txnType trading.TransactionType) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&trading.CompanyTransaction{}).
		Where("project_id = ? AND type = ? AND status = ?", projectID, txnType, trading.TransactionStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}
