package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"blue-carbon/registry-portal/registry-portal-backend/internal/projects"
	"blue-carbon/registry-portal/registry-portal-backend/internal/trading"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Transact(ctx context.Context, fn func(Repository) error) error {
	return fn(m)
}

func (m *MockRepository) ListProjectIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	return args.Get(0).([]uuid.UUID), args.Error(1)
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

func (m *MockRepository) SumExecutedMints(ctx context.Context, projectID uuid.UUID) (int64, int64, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *MockRepository) SumCompletedByType(ctx context.Context, projectID uuid.UUID, txnType trading.TransactionType) (int64, error) {
	args := m.Called(ctx, projectID, txnType)
	return args.Get(0).(int64), args.Error(1)
}

func TestRebuildProjectNoDivergence(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, zap.NewNop())
	ctx := context.Background()

	project := &projects.Project{
		ID:             uuid.New(),
		TotalMintedCCT: 48000,
		BufferCCT:      4800,
		SoldCCT:        500,
		RetiredCCT:     100,
	}
	mockRepo.On("GetProjectForUpdate", ctx, project.ID).Return(project, nil)
	mockRepo.On("SumExecutedMints", ctx, project.ID).Return(int64(48000), int64(4800), nil)
	mockRepo.On("SumCompletedByType", ctx, project.ID, trading.TransactionTypeBuy).Return(int64(500), nil)
	mockRepo.On("SumCompletedByType", ctx, project.ID, trading.TransactionTypeRetire).Return(int64(100), nil)

	repaired, err := service.RebuildProject(ctx, project.ID)

	assert.NoError(t, err)
	assert.False(t, repaired)
	mockRepo.AssertNotCalled(t, "UpdateProject", mock.Anything, mock.Anything)
}

func TestRebuildProjectRepairsDivergedCounters(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, zap.NewNop())
	ctx := context.Background()

	project := &projects.Project{
		ID:             uuid.New(),
		TotalMintedCCT: 48000,
		BufferCCT:      4800,
		SoldCCT:        999, // diverged from the ledger
		RetiredCCT:     100,
	}
	mockRepo.On("GetProjectForUpdate", ctx, project.ID).Return(project, nil)
	mockRepo.On("SumExecutedMints", ctx, project.ID).Return(int64(48000), int64(4800), nil)
	mockRepo.On("SumCompletedByType", ctx, project.ID, trading.TransactionTypeBuy).Return(int64(500), nil)
	mockRepo.On("SumCompletedByType", ctx, project.ID, trading.TransactionTypeRetire).Return(int64(100), nil)
	mockRepo.On("UpdateProject", ctx, project).Return(nil)

	repaired, err := service.RebuildProject(ctx, project.ID)

	assert.NoError(t, err)
	assert.True(t, repaired)
	assert.Equal(t, int64(500), project.SoldCCT)
	mockRepo.AssertExpectations(t)
}

func TestRebuildAllContinuesPastFailures(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, zap.NewNop())
	ctx := context.Background()

	healthy := &projects.Project{ID: uuid.New(), TotalMintedCCT: 10, BufferCCT: 1}
	broken := uuid.New()
	mockRepo.On("ListProjectIDs", ctx).Return([]uuid.UUID{broken, healthy.ID}, nil)

	mockRepo.On("GetProjectForUpdate", ctx, broken).Return(nil, assert.AnError)
	mockRepo.On("GetProjectForUpdate", ctx, healthy.ID).Return(healthy, nil)
	mockRepo.On("SumExecutedMints", ctx, healthy.ID).Return(int64(10), int64(1), nil)
	mockRepo.On("SumCompletedByType", ctx, healthy.ID, trading.TransactionTypeBuy).Return(int64(0), nil)
	mockRepo.On("SumCompletedByType", ctx, healthy.ID, trading.TransactionTypeRetire).Return(int64(0), nil)

	report, err := service.RebuildAll(ctx)

	assert.NoError(t, err)
	assert.Equal(t, 2, report.ProjectsChecked)
	assert.Equal(t, 0, report.ProjectsRepaired)
}
