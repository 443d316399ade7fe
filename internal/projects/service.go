package projects

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"blue-carbon/registry-portal/registry-portal-backend/pkg/apperrors"
	"blue-carbon/registry-portal/registry-portal-backend/pkg/chain"
	"blue-carbon/registry-portal/registry-portal-backend/pkg/storage"
)

// CreateProjectRequest carries project intake input.
type CreateProjectRequest struct {
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	EcosystemType string    `json:"ecosystem_type"`
	Location      []float64 `json:"location"` // [lat, lng]
	OwnerWallet   string    `json:"owner_wallet"`
	EvidenceCID   string    `json:"evidence_cid"`
	AreaHectares  int64     `json:"area_hectares"`
	Saplings      int64     `json:"saplings"`
	SurvivalRate  int64     `json:"survival_rate"`
	ProjectYears  int64     `json:"project_years"`
}

// Service implements project intake, approval, verifier assignment and the
// project balance read.
type Service struct {
	repo     Repository
	evidence storage.EvidenceClient
	logger   *zap.Logger
}

// NewService creates a new projects service
func NewService(repo Repository, evidence storage.EvidenceClient, logger *zap.Logger) *Service {
	return &Service{repo: repo, evidence: evidence, logger: logger}
}

// CreateProject registers a Pending project.
func (s *Service) CreateProject(ctx context.Context, req CreateProjectRequest) (*Project, error) {
	if req.Name == "" || req.EcosystemType == "" || req.OwnerWallet == "" {
		return nil, apperrors.Validationf("name, ecosystem_type and owner_wallet are required")
	}
	if req.AreaHectares <= 0 || req.Saplings <= 0 || req.ProjectYears <= 0 {
		return nil, apperrors.Validationf("area_hectares, saplings and project_years must be positive")
	}
	if req.SurvivalRate < 0 || req.SurvivalRate > 100 {
		return nil, apperrors.Validationf("survival_rate must be between 0 and 100")
	}

	if req.EvidenceCID != "" {
		if err := s.evidence.CheckPin(ctx, req.EvidenceCID); err != nil {
			return nil, err
		}
	}

	project := &Project{
		Name:          req.Name,
		Description:   req.Description,
		EcosystemType: req.EcosystemType,
		OwnerWallet:   chain.NormalizeAddress(req.OwnerWallet),
		EvidenceCID:   req.EvidenceCID,
		AreaHectares:  req.AreaHectares,
		Saplings:      req.Saplings,
		SurvivalRate:  req.SurvivalRate,
		ProjectYears:  req.ProjectYears,
		MinApprovals:  DefaultMinApprovals,
		Status:        ProjectStatusPending,
	}
	if err := project.SetVerifiers(nil); err != nil {
		return nil, err
	}
	if len(req.Location) == 2 {
		if err := setLocation(project, req.Location); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Create(ctx, project); err != nil {
		return nil, err
	}

	s.logger.Info("project created",
		zap.String("project_id", project.ID.String()),
		zap.String("owner_wallet", project.OwnerWallet))

	return project, nil
}

// SetStatus approves or rejects a project.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status ProjectStatus) (*Project, error) {
	if status != ProjectStatusApproved && status != ProjectStatusRejected {
		return nil, apperrors.Validationf("status must be %s or %s", ProjectStatusApproved, ProjectStatusRejected)
	}

	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	project.Status = status
	if err := s.repo.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// AssignVerifiers assigns exactly three verifier identities to a project and
// approves it for issuance. Identities are normalized here, once.
func (s *Service) AssignVerifiers(ctx context.Context, id uuid.UUID, verifiers []string) (*Project, error) {
	if len(verifiers) != AssignedVerifiers {
		return nil, apperrors.Validationf("exactly %d verifier identities required", AssignedVerifiers)
	}

	normalized := make([]string, 0, len(verifiers))
	seen := make(map[string]bool, len(verifiers))
	for _, v := range verifiers {
		identity := chain.NormalizeAddress(v)
		if identity == "" {
			return nil, apperrors.Validationf("verifier identity must not be empty")
		}
		if seen[identity] {
			return nil, apperrors.Validationf("duplicate verifier identity %s", identity)
		}
		seen[identity] = true
		normalized = append(normalized, identity)
	}

	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := project.SetVerifiers(normalized); err != nil {
		return nil, err
	}
	project.Status = ProjectStatusApproved

	if err := s.repo.Update(ctx, project); err != nil {
		return nil, err
	}

	s.logger.Info("verifiers assigned",
		zap.String("project_id", project.ID.String()),
		zap.Strings("verifiers", normalized))

	return project, nil
}

// GetBalance returns the project's credit ledger counters and derived
// available balance.
func (s *Service) GetBalance(ctx context.Context, id uuid.UUID) (*Balance, error) {
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	balance := BalanceOf(project)
	return &balance, nil
}

// GetProject returns a project by id.
func (s *Service) GetProject(ctx context.Context, id uuid.UUID) (*Project, error) {
	return s.repo.GetByID(ctx, id)
}

// ListProjects returns all projects, newest first.
func (s *Service) ListProjects(ctx context.Context) ([]Project, error) {
	return s.repo.List(ctx)
}

// ListByOwner returns the projects owned by a wallet.
func (s *Service) ListByOwner(ctx context.Context, ownerWallet string) ([]Project, error) {
	return s.repo.ListByOwner(ctx, chain.NormalizeAddress(ownerWallet))
}
