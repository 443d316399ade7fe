package minting

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"blue-carbon/registry-portal/registry-portal-backend/internal/notifications"
	"blue-carbon/registry-portal/registry-portal-backend/internal/projects"
	"blue-carbon/registry-portal/registry-portal-backend/pkg/apperrors"
	"blue-carbon/registry-portal/registry-portal-backend/pkg/chain"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

// Transact runs fn against the mock itself, so locking variants can be
// expected like any other call.
func (m *MockRepository) Transact(ctx context.Context, fn func(Repository) error) error {
	return fn(m)
}

func (m *MockRepository) Create(ctx context.Context, request *MintRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*MintRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*MintRequest), args.Error(1)
}

func (m *MockRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*MintRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*MintRequest), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, request *MintRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]MintRequest, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).([]MintRequest), args.Error(1)
}

func (m *MockRepository) ListOpenWithProjects(ctx context.Context) ([]MintRequest, error) {
	args := m.Called(ctx)
	return args.Get(0).([]MintRequest), args.Error(1)
}

func (m *MockRepository) GetProject(ctx context.Context, id uuid.UUID) (*projects.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*projects.Project), args.Error(1)
}

func (m *MockRepository) GetProjectForUpdate(ctx context.Context, id uuid.UUID) (*projects.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*projects.Project), args.Error(1)
}

func (m *MockRepository) UpdateProject(ctx context.Context, project *projects.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

const validRef = "0x4e9f1a2b3c4d5e6f7a8b9c0d1e2f3a4b5c6d7e8f9a0b1c2d3e4f5a6b7c8d9e0f"

func newTestService(repo Repository) *Service {
	return NewService(repo, chain.NewLedgerClient("", time.Second), notifications.NopPublisher{}, zap.NewNop())
}

func newApprovedProject(t *testing.T) *projects.Project {
	project := &projects.Project{
		ID:            uuid.New(),
		Name:          "Sundarbans Mangrove Restoration",
		EcosystemType: "Mangrove",
		OwnerWallet:   "0xowner",
		AreaHectares:  10,
		Saplings:      1000,
		SurvivalRate:  80,
		ProjectYears:  5,
		MinApprovals:  2,
		Status:        projects.ProjectStatusApproved,
	}
	err := project.SetVerifiers([]string{"0xv1", "0xv2", "0xv3"})
	assert.NoError(t, err)
	return project
}

func TestCreateMintRequest(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	project := newApprovedProject(t)
	mockRepo.On("GetProject", ctx, project.ID).Return(project, nil)
	mockRepo.On("Create", ctx, mock.AnythingOfType("*minting.MintRequest")).Return(nil)

	result, err := service.CreateMintRequest(ctx, project.ID)

	assert.NoError(t, err)
	assert.Equal(t, int64(48000), result.EligibleCCT)
	mockRepo.AssertExpectations(t)
}

func TestCreateMintRequestProjectNotApproved(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	project := newApprovedProject(t)
	project.Status = projects.ProjectStatusPending
	mockRepo.On("GetProject", ctx, project.ID).Return(project, nil)

	_, err := service.CreateMintRequest(ctx, project.ID)

	assert.True(t, apperrors.IsValidation(err))
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateMintRequestProjectNotFound(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	id := uuid.New()
	mockRepo.On("GetProject", ctx, id).Return(nil, apperrors.NotFoundf("project %s not found", id))

	_, err := service.CreateMintRequest(ctx, id)

	assert.True(t, apperrors.IsNotFound(err))
}

func TestApproveFirstApprovalStaysPartial(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	project := newApprovedProject(t)
	request := &MintRequest{ID: uuid.New(), ProjectID: project.ID, Amount: 48000, Status: RequestStatusPending}

	mockRepo.On("GetByIDForUpdate", ctx, request.ID).Return(request, nil)
	mockRepo.On("GetProjectForUpdate", ctx, project.ID).Return(project, nil)
	mockRepo.On("Update", ctx, request).Return(nil)

	result, err := service.Approve(ctx, request.ID, "0xV1", validRef)

	assert.NoError(t, err)
	assert.False(t, result.Executed)
	assert.Equal(t, 1, result.ApprovedCount)
	assert.Equal(t, RequestStatusPartiallyApproved, request.Status)
	assert.False(t, request.Processed)
	// the reported ref is recorded even below quorum
	assert.Equal(t, validRef, *request.SettlementRef)
	assert.Equal(t, int64(0), project.TotalMintedCCT)
	mockRepo.AssertNotCalled(t, "UpdateProject", mock.Anything, mock.Anything)
}

func TestApproveQuorumExecutesOnce(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	project := newApprovedProject(t)
	request := &MintRequest{ID: uuid.New(), ProjectID: project.ID, Amount: 48005, Status: RequestStatusPartiallyApproved}
	assert.NoError(t, request.AddApproval("0xv1"))

	mockRepo.On("GetByIDForUpdate", ctx, request.ID).Return(request, nil)
	mockRepo.On("GetProjectForUpdate", ctx, project.ID).Return(project, nil)
	mockRepo.On("UpdateProject", ctx, project).Return(nil)
	mockRepo.On("Update", ctx, request).Return(nil)

	result, err := service.Approve(ctx, request.ID, "0xv2", validRef)

	assert.NoError(t, err)
	assert.True(t, result.Executed)
	assert.Equal(t, 2, result.ApprovedCount)
	assert.Equal(t, RequestStatusExecuted, request.Status)
	assert.True(t, request.Processed)
	assert.Equal(t, validRef, *request.SettlementRef)
	assert.Equal(t, int64(48005), project.TotalMintedCCT)
	// buffer share floors the 10% holdback
	assert.Equal(t, int64(4800), project.BufferCCT)
	mockRepo.AssertExpectations(t)
}

// serialRepository emulates the database serializing the locking
// transactions of concurrent callers.
type serialRepository struct {
	*MockRepository
	mu sync.Mutex
}

func (s *serialRepository) Transact(ctx context.Context, fn func(Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s)
}

func TestApproveConcurrentAtQuorumMutatesLedgerOnce(t *testing.T) {
	mockRepo := &serialRepository{MockRepository: new(MockRepository)}
	service := newTestService(mockRepo)
	ctx := context.Background()

	project := newApprovedProject(t)
	request := &MintRequest{ID: uuid.New(), ProjectID: project.ID, Amount: 48000, Status: RequestStatusPartiallyApproved}
	assert.NoError(t, request.AddApproval("0xv1"))

	mockRepo.On("GetByIDForUpdate", ctx, request.ID).Return(request, nil)
	mockRepo.On("GetProjectForUpdate", ctx, project.ID).Return(project, nil)
	mockRepo.On("UpdateProject", ctx, project).Return(nil)
	mockRepo.On("Update", ctx, request).Return(nil)

	// two remaining verifiers race; whoever lands second hits a terminal
	// request
	verifiers := []string{"0xv2", "0xv3"}
	errs := make([]error, len(verifiers))
	var wg sync.WaitGroup
	for i, verifier := range verifiers {
		wg.Add(1)
		go func(i int, verifier string) {
			defer wg.Done()
			_, errs[i] = service.Approve(ctx, request.ID, verifier, validRef)
		}(i, verifier)
	}
	wg.Wait()

	executed, conflicted := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			executed++
		case apperrors.IsConflict(err):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, executed)
	assert.Equal(t, 1, conflicted)
	assert.Equal(t, int64(48000), project.TotalMintedCCT)
	assert.Equal(t, int64(4800), project.BufferCCT)
	mockRepo.AssertNumberOfCalls(t, "UpdateProject", 1)
}

func TestApproveUnassignedVerifier(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	project := newApprovedProject(t)
	request := &MintRequest{ID: uuid.New(), ProjectID: project.ID, Amount: 48000, Status: RequestStatusPending}

	mockRepo.On("GetByIDForUpdate", ctx, request.ID).Return(request, nil)
	mockRepo.On("GetProjectForUpdate", ctx, project.ID).Return(project, nil)

	_, err := service.Approve(ctx, request.ID, "0xstranger", validRef)

	assert.True(t, apperrors.IsAuthorization(err))
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestApproveDuplicateVerifier(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	project := newApprovedProject(t)
	request := &MintRequest{ID: uuid.New(), ProjectID: project.ID, Amount: 48000, Status: RequestStatusPartiallyApproved}
	assert.NoError(t, request.AddApproval("0xv1"))

	mockRepo.On("GetByIDForUpdate", ctx, request.ID).Return(request, nil)
	mockRepo.On("GetProjectForUpdate", ctx, project.ID).Return(project, nil)

	_, err := service.Approve(ctx, request.ID, " 0xV1 ", validRef)

	assert.True(t, apperrors.IsConflict(err))
	assert.Equal(t, 1, len(request.ApprovedBy()))
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestApproveExecutedRequestDoesNotMutateLedger(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	project := newApprovedProject(t)
	project.TotalMintedCCT = 48000
	project.BufferCCT = 4800
	request := &MintRequest{ID: uuid.New(), ProjectID: project.ID, Amount: 48000, Status: RequestStatusExecuted, Processed: true}
	assert.NoError(t, request.AddApproval("0xv1"))
	assert.NoError(t, request.AddApproval("0xv2"))

	mockRepo.On("GetByIDForUpdate", ctx, request.ID).Return(request, nil)
	mockRepo.On("GetProjectForUpdate", ctx, project.ID).Return(project, nil)

	_, err := service.Approve(ctx, request.ID, "0xv3", validRef)

	assert.True(t, apperrors.IsConflict(err))
	assert.Equal(t, int64(48000), project.TotalMintedCCT)
	assert.Equal(t, int64(4800), project.BufferCCT)
	mockRepo.AssertNotCalled(t, "UpdateProject", mock.Anything, mock.Anything)
}

func TestApproveMalformedSettlementRef(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	_, err := service.Approve(ctx, uuid.New(), "0xv1", "not-a-hash")

	assert.True(t, apperrors.IsExternal(err))
	mockRepo.AssertNotCalled(t, "GetByIDForUpdate", mock.Anything, mock.Anything)
}

func TestRejectPendingRequest(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	request := &MintRequest{ID: uuid.New(), ProjectID: uuid.New(), Amount: 100, Status: RequestStatusPending}
	mockRepo.On("GetByIDForUpdate", ctx, request.ID).Return(request, nil)
	mockRepo.On("Update", ctx, request).Return(nil)

	err := service.Reject(ctx, request.ID)

	assert.NoError(t, err)
	assert.Equal(t, RequestStatusRejected, request.Status)
}

func TestRejectExecutedRequest(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	request := &MintRequest{ID: uuid.New(), ProjectID: uuid.New(), Amount: 100, Status: RequestStatusExecuted, Processed: true}
	mockRepo.On("GetByIDForUpdate", ctx, request.ID).Return(request, nil)

	err := service.Reject(ctx, request.ID)

	assert.True(t, apperrors.IsConflict(err))
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestListPendingForVerifierFiltersByAssignment(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	assigned := newApprovedProject(t)
	other := newApprovedProject(t)
	assert.NoError(t, other.SetVerifiers([]string{"0xa", "0xb", "0xc"}))

	open := []MintRequest{
		{ID: uuid.New(), ProjectID: assigned.ID, Status: RequestStatusPending, Project: *assigned},
		{ID: uuid.New(), ProjectID: other.ID, Status: RequestStatusPending, Project: *other},
	}
	mockRepo.On("ListOpenWithProjects", ctx).Return(open, nil)

	list, err := service.ListPendingForVerifier(ctx, "0xV2")

	assert.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, assigned.ID, list[0].ProjectID)
}
