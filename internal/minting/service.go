package minting

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"blue-carbon/registry-portal/registry-portal-backend/internal/notifications"
	"blue-carbon/registry-portal/registry-portal-backend/internal/projects"
	"blue-carbon/registry-portal/registry-portal-backend/pkg/apperrors"
	"blue-carbon/registry-portal/registry-portal-backend/pkg/chain"
	"blue-carbon/registry-portal/registry-portal-backend/pkg/workflows"
)

// bufferDivisor holds back 10% of each executed mint as the reserve pool.
const bufferDivisor = 10

// CreateResult is returned when a mint request is created.
type CreateResult struct {
	RequestID   uuid.UUID `json:"request_id"`
	EligibleCCT int64     `json:"eligible_cct"`
}

// ApprovalResult is returned after a verifier approval lands.
type ApprovalResult struct {
	Executed      bool `json:"executed"`
	ApprovedCount int  `json:"approved_count"`
}

// Service implements the quorum-based mint-request workflow. The
// read-approvals / check-threshold / execute / mutate-ledger sequence runs
// inside one transaction with the request and project rows locked, so the
// ledger mutation applies exactly once no matter how approvals race.
type Service struct {
	repo    Repository
	chain   chain.Client
	machine *workflows.StateMachine
	events  notifications.Publisher
	logger  *zap.Logger
}

// NewService creates a new minting service
func NewService(repo Repository, chainClient chain.Client, events notifications.Publisher, logger *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		chain:   chainClient,
		machine: workflows.NewMintRequestMachine(),
		events:  events,
		logger:  logger,
	}
}

// CreateMintRequest derives the eligible CCT for a project and opens a
// Pending request. The amount is immutable from here on.
func (s *Service) CreateMintRequest(ctx context.Context, projectID uuid.UUID) (*CreateResult, error) {
	project, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.Status != projects.ProjectStatusApproved {
		return nil, apperrors.Validationf("project %s is not approved for issuance", projectID)
	}

	amount := EligibleCCT(project)
	if amount <= 0 {
		return nil, apperrors.Validationf("project attributes yield no eligible CCT")
	}

	request := &MintRequest{
		ProjectID: projectID,
		Amount:    amount,
		Status:    RequestStatusPending,
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, err
	}

	s.logger.Info("mint request created",
		zap.String("request_id", request.ID.String()),
		zap.String("project_id", projectID.String()),
		zap.Int64("eligible_cct", amount))

	s.events.Publish(notifications.NewEvent(notifications.EventMintRequestCreated, map[string]interface{}{
		"request_id":   request.ID.String(),
		"project_id":   projectID.String(),
		"eligible_cct": amount,
	}))

	return &CreateResult{RequestID: request.ID, EligibleCCT: amount}, nil
}

// Approve records a verifier approval and, when the quorum is reached,
// executes the request: 10% of the amount goes to the buffer pool, the full
// amount to the project's minted total. Execution is terminal and applied
// exactly once.
func (s *Service) Approve(ctx context.Context, requestID uuid.UUID, verifierIdentity, settlementRef string) (*ApprovalResult, error) {
	identity := chain.NormalizeAddress(verifierIdentity)
	if identity == "" {
		return nil, apperrors.Validationf("verifier identity is required")
	}
	if err := s.chain.ValidateSettlementRef(ctx, settlementRef); err != nil {
		return nil, err
	}

	var result ApprovalResult
	err := s.repo.Transact(ctx, func(r Repository) error {
		request, err := r.GetByIDForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		project, err := r.GetProjectForUpdate(ctx, request.ProjectID)
		if err != nil {
			return err
		}

		if !project.HasVerifier(identity) {
			return apperrors.Authorizationf("verifier %s is not assigned to project %s", identity, project.ID)
		}
		if s.machine.IsTerminal(string(request.Status)) {
			return apperrors.Conflictf("mint request %s is already %s", requestID, request.Status)
		}
		if request.HasApproval(identity) {
			return apperrors.Conflictf("verifier %s already approved mint request %s", identity, requestID)
		}

		if err := request.AddApproval(identity); err != nil {
			return err
		}
		// every approval reports a ref; the latest one is recorded
		request.SettlementRef = &settlementRef
		approvedCount := len(request.ApprovedBy())

		if approvedCount >= project.MinApprovals && !request.Processed {
			request.Processed = true
			request.Status = RequestStatusExecuted

			bufferAmount := request.Amount / bufferDivisor
			project.TotalMintedCCT += request.Amount
			project.BufferCCT += bufferAmount
			if err := r.UpdateProject(ctx, project); err != nil {
				return err
			}
		} else {
			request.Status = RequestStatusPartiallyApproved
		}

		if err := r.Update(ctx, request); err != nil {
			return err
		}

		result = ApprovalResult{
			Executed:      request.Status == RequestStatusExecuted,
			ApprovedCount: approvedCount,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	eventType := notifications.EventMintRequestApproved
	if result.Executed {
		eventType = notifications.EventMintRequestExecuted
	}
	s.events.Publish(notifications.NewEvent(eventType, map[string]interface{}{
		"request_id":     requestID.String(),
		"verifier":       identity,
		"approved_count": result.ApprovedCount,
	}))

	return &result, nil
}

// Reject moves a non-terminal request to the terminal Rejected status. This
// is the administrative path; it never touches the ledger.
func (s *Service) Reject(ctx context.Context, requestID uuid.UUID) error {
	err := s.repo.Transact(ctx, func(r Repository) error {
		request, err := r.GetByIDForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if !s.machine.CanTransition(string(request.Status), string(RequestStatusRejected)) {
			return apperrors.Conflictf("mint request %s is already %s", requestID, request.Status)
		}
		request.Status = RequestStatusRejected
		return r.Update(ctx, request)
	})
	if err != nil {
		return err
	}

	s.events.Publish(notifications.NewEvent(notifications.EventMintRequestRejected, map[string]interface{}{
		"request_id": requestID.String(),
	}))
	return nil
}

// ListByProject returns a project's mint requests, newest first.
func (s *Service) ListByProject(ctx context.Context, projectID uuid.UUID) ([]MintRequest, error) {
	return s.repo.ListByProject(ctx, projectID)
}

// ListPendingForVerifier returns open requests on projects the verifier is
// assigned to.
func (s *Service) ListPendingForVerifier(ctx context.Context, verifierIdentity string) ([]MintRequest, error) {
	identity := chain.NormalizeAddress(verifierIdentity)
	if identity == "" {
		return nil, apperrors.Validationf("verifier identity is required")
	}

	open, err := s.repo.ListOpenWithProjects(ctx)
	if err != nil {
		return nil, err
	}

	assigned := make([]MintRequest, 0, len(open))
	for _, request := range open {
		if request.Project.HasVerifier(identity) {
			assigned = append(assigned, request)
		}
	}
	return assigned, nil
}
