package projects

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"blue-carbon/registry-portal/registry-portal-backend/pkg/apperrors"
	"blue-carbon/registry-portal/registry-portal-backend/pkg/storage"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, project *Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Project), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, project *Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockRepository) List(ctx context.Context) ([]Project, error) {
	args := m.Called(ctx)
	return args.Get(0).([]Project), args.Error(1)
}

func (m *MockRepository) ListByOwner(ctx context.Context, ownerWallet string) ([]Project, error) {
	args := m.Called(ctx, ownerWallet)
	return args.Get(0).([]Project), args.Error(1)
}

// MockEvidenceClient is a mock implementation of storage.EvidenceClient
type MockEvidenceClient struct {
	mock.Mock
}

func (m *MockEvidenceClient) CheckPin(ctx context.Context, cid string) error {
	args := m.Called(ctx, cid)
	return args.Error(0)
}

var _ storage.EvidenceClient = (*MockEvidenceClient)(nil)

func newTestService(repo Repository, evidence storage.EvidenceClient) *Service {
	return NewService(repo, evidence, zap.NewNop())
}

func validCreateRequest() CreateProjectRequest {
	return CreateProjectRequest{
		Name:          "Sundarbans Mangrove Restoration",
		EcosystemType: "Mangrove",
		Location:      []float64{21.9497, 89.1833},
		OwnerWallet:   "0xOwner",
		AreaHectares:  10,
		Saplings:      1000,
		SurvivalRate:  80,
		ProjectYears:  5,
	}
}

func TestCreateProject(t *testing.T) {
	mockRepo := new(MockRepository)
	mockEvidence := new(MockEvidenceClient)
	service := newTestService(mockRepo, mockEvidence)
	ctx := context.Background()

	mockRepo.On("Create", ctx, mock.AnythingOfType("*projects.Project")).Return(nil)

	project, err := service.CreateProject(ctx, validCreateRequest())

	assert.NoError(t, err)
	assert.Equal(t, "0xowner", project.OwnerWallet)
	assert.Equal(t, ProjectStatusPending, project.Status)
	assert.Equal(t, DefaultMinApprovals, project.MinApprovals)
	assert.Empty(t, project.VerifierSet())
	mockEvidence.AssertNotCalled(t, "CheckPin", mock.Anything, mock.Anything)
}

func TestCreateProjectChecksEvidencePin(t *testing.T) {
	mockRepo := new(MockRepository)
	mockEvidence := new(MockEvidenceClient)
	service := newTestService(mockRepo, mockEvidence)
	ctx := context.Background()

	req := validCreateRequest()
	req.EvidenceCID = "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"
	mockEvidence.On("CheckPin", ctx, req.EvidenceCID).
		Return(apperrors.Externalf("pin service unavailable"))

	_, err := service.CreateProject(ctx, req)

	assert.True(t, apperrors.IsExternal(err))
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateProjectInvalidSurvivalRate(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo, new(MockEvidenceClient))

	req := validCreateRequest()
	req.SurvivalRate = 130

	_, err := service.CreateProject(context.Background(), req)

	assert.True(t, apperrors.IsValidation(err))
}

func TestAssignVerifiers(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo, new(MockEvidenceClient))
	ctx := context.Background()

	project := &Project{ID: uuid.New(), Status: ProjectStatusPending}
	mockRepo.On("GetByID", ctx, project.ID).Return(project, nil)
	mockRepo.On("Update", ctx, project).Return(nil)

	updated, err := service.AssignVerifiers(ctx, project.ID, []string{"0xV1", " 0xv2", "0xV3 "})

	assert.NoError(t, err)
	assert.Equal(t, ProjectStatusApproved, updated.Status)
	assert.Equal(t, []string{"0xv1", "0xv2", "0xv3"}, updated.VerifierSet())
}

func TestAssignVerifiersWrongCount(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo, new(MockEvidenceClient))

	_, err := service.AssignVerifiers(context.Background(), uuid.New(), []string{"0xv1", "0xv2"})

	assert.True(t, apperrors.IsValidation(err))
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestAssignVerifiersDuplicateIdentity(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo, new(MockEvidenceClient))

	_, err := service.AssignVerifiers(context.Background(), uuid.New(), []string{"0xv1", "0xV1", "0xv3"})

	assert.True(t, apperrors.IsValidation(err))
}

func TestGetBalance(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo, new(MockEvidenceClient))
	ctx := context.Background()

	project := &Project{
		ID:             uuid.New(),
		TotalMintedCCT: 48000,
		BufferCCT:      4800,
		SoldCCT:        500,
		RetiredCCT:     100,
	}
	mockRepo.On("GetByID", ctx, project.ID).Return(project, nil)

	balance, err := service.GetBalance(ctx, project.ID)

	assert.NoError(t, err)
	assert.Equal(t, int64(42600), balance.Available)
	assert.Equal(t, int64(48000), balance.TotalMinted)
}
