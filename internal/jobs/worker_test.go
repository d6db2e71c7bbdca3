package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/shoshlabs/shoshchat/internal/service"
)

// MockJobProcessor is a mock implementation of JobProcessor
type MockJobProcessor struct {
	mock.Mock
}

func (m *MockJobProcessor) ProcessJobs(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockPendingSourceRepository is a mock implementation of PendingSourceRepository
type MockPendingSourceRepository struct {
	mock.Mock
}

func (m *MockPendingSourceRepository) ClaimPending(ctx context.Context, limit int) ([]string, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockPendingSourceRepository) ResetClaim(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockIngestor is a mock implementation of Ingestor
type MockIngestor struct {
	mock.Mock
}

func (m *MockIngestor) ProcessClaimed(ctx context.Context, sourceID string) (service.IngestOutcome, error) {
	args := m.Called(ctx, sourceID)
	return args.Get(0).(service.IngestOutcome), args.Error(1)
}

// TestWorker_StartStop tests the worker start and stop functionality
func TestWorker_StartStop(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start worker in goroutine
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	// Let it run for a bit
	time.Sleep(250 * time.Millisecond)

	// Stop worker
	worker.Stop()
	wg.Wait()

	// Verify ProcessJobs was called at least once
	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

// TestWorker_ContextCancellation tests worker stops on context cancellation
func TestWorker_ContextCancellation(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())

	// Start worker in goroutine
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	// Let it run for a bit
	time.Sleep(150 * time.Millisecond)

	// Cancel context
	cancel()
	wg.Wait()

	// Verify ProcessJobs was called
	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

// TestWorker_ImmediateFirstPoll tests that the worker polls once at startup
// without waiting for the first tick
func TestWorker_ImmediateFirstPoll(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, time.Hour)

	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	worker.Stop()
	wg.Wait()

	mockProcessor.AssertNumberOfCalls(t, "ProcessJobs", 1)
}

// TestWorker_ProcessorError tests that processor errors do not stop the loop
func TestWorker_ProcessorError(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(errors.New("transient failure"))

	worker := NewWorker(mockProcessor, 50*time.Millisecond)

	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	time.Sleep(180 * time.Millisecond)
	worker.Stop()
	wg.Wait()

	assert.GreaterOrEqual(t, len(mockProcessor.Calls), 2)
}

func TestIngestWorker_ProcessJobs_NoPendingSources(t *testing.T) {
	repo := new(MockPendingSourceRepository)
	ingestor := new(MockIngestor)
	worker := NewIngestWorker(repo, ingestor)

	ctx := context.Background()
	repo.On("ClaimPending", ctx, DefaultClaimBatch).Return([]string{}, nil)

	err := worker.ProcessJobs(ctx)
	assert.NoError(t, err)
	ingestor.AssertNotCalled(t, "ProcessClaimed", mock.Anything, mock.Anything)
}

func TestIngestWorker_ProcessJobs_IngestsEachClaim(t *testing.T) {
	repo := new(MockPendingSourceRepository)
	ingestor := new(MockIngestor)
	worker := NewIngestWorker(repo, ingestor)

	ctx := context.Background()
	repo.On("ClaimPending", ctx, DefaultClaimBatch).Return([]string{"src-1", "src-2"}, nil)
	ingestor.On("ProcessClaimed", ctx, "src-1").Return(service.IngestOutcomeReady, nil)
	ingestor.On("ProcessClaimed", ctx, "src-2").Return(service.IngestOutcomeFailed, nil)

	err := worker.ProcessJobs(ctx)
	assert.NoError(t, err)
	ingestor.AssertExpectations(t)
}

func TestIngestWorker_ProcessJobs_ClaimError(t *testing.T) {
	repo := new(MockPendingSourceRepository)
	ingestor := new(MockIngestor)
	worker := NewIngestWorker(repo, ingestor)

	ctx := context.Background()
	repo.On("ClaimPending", ctx, DefaultClaimBatch).Return(nil, errors.New("connection refused"))

	err := worker.ProcessJobs(ctx)
	assert.Error(t, err)
}

func TestIngestWorker_ProcessJobs_IngestErrorContinues(t *testing.T) {
	repo := new(MockPendingSourceRepository)
	ingestor := new(MockIngestor)
	worker := NewIngestWorker(repo, ingestor)

	ctx := context.Background()
	repo.On("ClaimPending", ctx, DefaultClaimBatch).Return([]string{"src-1", "src-2"}, nil)
	ingestor.On("ProcessClaimed", ctx, "src-1").Return(service.IngestOutcome(""), errors.New("db down"))
	ingestor.On("ProcessClaimed", ctx, "src-2").Return(service.IngestOutcomeReady, nil)

	err := worker.ProcessJobs(ctx)
	assert.NoError(t, err)
	ingestor.AssertCalled(t, "ProcessClaimed", ctx, "src-2")
}

func TestIngestWorker_ProcessJobs_CancelledContextReleasesClaims(t *testing.T) {
	repo := new(MockPendingSourceRepository)
	ingestor := new(MockIngestor)
	worker := NewIngestWorker(repo, ingestor)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo.On("ClaimPending", ctx, DefaultClaimBatch).Return([]string{"src-1", "src-2"}, nil)
	repo.On("ResetClaim", mock.Anything, "src-1").Return(nil)
	repo.On("ResetClaim", mock.Anything, "src-2").Return(nil)

	err := worker.ProcessJobs(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	repo.AssertExpectations(t)
	ingestor.AssertNotCalled(t, "ProcessClaimed", mock.Anything, mock.Anything)
}
