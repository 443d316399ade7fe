package ledger

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"blue-carbon/registry-portal/registry-portal-backend/internal/trading"
)

// RebuildReport summarizes a projection rebuild run.
type RebuildReport struct {
	ProjectsChecked  int         `json:"projects_checked"`
	ProjectsRepaired int         `json:"projects_repaired"`
	RepairedIDs      []uuid.UUID `json:"repaired_ids,omitempty"`
}

// Service recomputes project counters from the authoritative records. The
// counters on the project row are a cached projection; executed mint
// requests and the completed transaction log are the source of truth, so a
// rebuild can always restore a diverged counter.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates a new ledger service
func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// RebuildAll recomputes the counters of every project, repairing any that
// diverged from the authoritative records. Each project is handled in its
// own transaction so one failure does not abort the run.
func (s *Service) RebuildAll(ctx context.Context) (*RebuildReport, error) {
	ids, err := s.repo.ListProjectIDs(ctx)
	if err != nil {
		return nil, err
	}

	report := &RebuildReport{ProjectsChecked: len(ids)}
	for _, id := range ids {
		repaired, err := s.RebuildProject(ctx, id)
		if err != nil {
			s.logger.Error("projection rebuild failed for project",
				zap.String("project_id", id.String()),
				zap.Error(err))
			continue
		}
		if repaired {
			report.ProjectsRepaired++
			report.RepairedIDs = append(report.RepairedIDs, id)
		}
	}
	return report, nil
}

// RebuildProject recomputes one project's counters under lock and reports
// whether any of them had diverged.
func (s *Service) RebuildProject(ctx context.Context, projectID uuid.UUID) (bool, error) {
	var repaired bool
	err := s.repo.Transact(ctx, func(r Repository) error {
		project, err := r.GetProjectForUpdate(ctx, projectID)
		if err != nil {
			return err
		}

		minted, buffer, err := r.SumExecutedMints(ctx, projectID)
		if err != nil {
			return err
		}
		sold, err := r.SumCompletedByType(ctx, projectID, trading.TransactionTypeBuy)
		if err != nil {
			return err
		}
		retired, err := r.SumCompletedByType(ctx, projectID, trading.TransactionTypeRetire)
		if err != nil {
			return err
		}

		diverged := project.TotalMintedCCT != minted ||
			project.BufferCCT != buffer ||
			project.SoldCCT != sold ||
			project.RetiredCCT != retired
		if !diverged {
			return nil
		}

		s.logger.Warn("project counters diverged from authoritative records",
			zap.String("project_id", projectID.String()),
			zap.Int64("cached_minted", project.TotalMintedCCT), zap.Int64("actual_minted", minted),
			zap.Int64("cached_buffer", project.BufferCCT), zap.Int64("actual_buffer", buffer),
			zap.Int64("cached_sold", project.SoldCCT), zap.Int64("actual_sold", sold),
			zap.Int64("cached_retired", project.RetiredCCT), zap.Int64("actual_retired", retired))

		project.TotalMintedCCT = minted
		project.BufferCCT = buffer
		project.SoldCCT = sold
		project.RetiredCCT = retired
		if err := r.UpdateProject(ctx, project); err != nil {
			return err
		}
		repaired = true
		return nil
	})
	return repaired, err
}
