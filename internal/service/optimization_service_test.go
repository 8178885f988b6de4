package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/clever-exotics/internal/exotic"
	"github.com/yourusername/clever-exotics/internal/models"
)

// MockProvider mocks the probability provider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) WinProbabilities(ctx context.Context, raceID string, horses []models.Horse) (map[string]float64, error) {
	args := m.Called(ctx, raceID, horses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]float64), args.Error(1)
}

// MockRunRepository mocks the run repository
type MockRunRepository struct {
	mock.Mock
}

func (m *MockRunRepository) SaveRun(ctx context.Context, run *models.OptimizationRun) error {
	return m.Called(ctx, run).Error(0)
}

func (m *MockRunRepository) GetRun(ctx context.Context, id uuid.UUID) (*models.OptimizationRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OptimizationRun), args.Error(1)
}

func (m *MockRunRepository) ListRecentByRace(ctx context.Context, raceID string, limit int) ([]*models.OptimizationRun, error) {
	args := m.Called(ctx, raceID, limit)
	return args.Get(0).([]*models.OptimizationRun), args.Error(1)
}

// MockPublisher mocks a signal publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, raceID string, signals []models.Signal) error {
	return m.Called(ctx, raceID, signals).Error(0)
}

func (m *MockPublisher) Name() string { return "mock" }

func (m *MockPublisher) Close() error { return nil }

type recordingBroadcaster struct {
	mu      sync.Mutex
	raceIDs []string
	counts  []int
}

func (b *recordingBroadcaster) Broadcast(raceID string, signals []models.Signal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.raceIDs = append(b.raceIDs, raceID)
	b.counts = append(b.counts, len(signals))
}

var testNow = time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC)

func sampleInputs() []models.HorseInput {
	odds := []float64{4.0, 5.0, 5.5, 6.5, 8.0, 10.0}
	wins := []float64{0.25, 0.20, 0.18, 0.15, 0.12, 0.10}
	names := []string{"Thunder Bolt", "Lightning Strike", "Storm Runner", "Wind Chaser", "Fire Bolt", "Swift Arrow"}

	inputs := make([]models.HorseInput, len(odds))
	for i := range odds {
		inputs[i] = models.HorseInput{
			ID:             models.HorseID(string(rune('1' + i))),
			Name:           names[i],
			Odds:           models.Float64(odds[i]),
			WinProbability: models.Float64(wins[i]),
		}
	}
	return inputs
}

func newTestOptimizer(t *testing.T) *exotic.Optimizer {
	t.Helper()
	opt, err := exotic.NewOptimizer(exotic.DefaultConfig(), exotic.WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)
	return opt
}

func TestOptimizePersistsPublishesAndBroadcasts(t *testing.T) {
	runs := new(MockRunRepository)
	pub := new(MockPublisher)
	bc := &recordingBroadcaster{}

	runs.On("SaveRun", mock.Anything, mock.MatchedBy(func(run *models.OptimizationRun) bool {
		if run.RaceID != "race-1" || len(run.Signals) != 28 || run.TotalCombinations != 45 {
			return false
		}
		for _, s := range run.Signals {
			if s.RunID != run.ID {
				return false
			}
		}
		return run.Version == models.OptimizationVersion
	})).Return(nil).Once()
	pub.On("Publish", mock.Anything, "race-1", mock.MatchedBy(func(s []models.Signal) bool {
		return len(s) == 28
	})).Return(nil).Once()

	svc := NewOptimizationService(newTestOptimizer(t), Dependencies{Runs: runs, Publisher: pub, Broadcaster: bc})

	report, err := svc.Optimize(context.Background(), OptimizeRequest{RaceID: "race-1", Horses: sampleInputs()})
	require.NoError(t, err)
	assert.Len(t, report.Signals, 28)
	assert.Equal(t, 45, report.CombinationCount())
	assert.Equal(t, uuid.Nil, report.Signals[0].RunID, "report signals are not mutated")

	runs.AssertExpectations(t)
	pub.AssertExpectations(t)
	assert.Equal(t, []string{"race-1"}, bc.raceIDs)
	assert.Equal(t, []int{28}, bc.counts)
	assert.True(t, svc.HasStore())
}

func TestOptimizeSurvivesDownstreamFailures(t *testing.T) {
	runs := new(MockRunRepository)
	pub := new(MockPublisher)
	runs.On("SaveRun", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()
	pub.On("Publish", mock.Anything, "race-2", mock.Anything).Return(errors.New("redis down")).Once()

	svc := NewOptimizationService(newTestOptimizer(t), Dependencies{Runs: runs, Publisher: pub})

	report, err := svc.Optimize(context.Background(), OptimizeRequest{RaceID: "race-2", Horses: sampleInputs()})
	require.NoError(t, err)
	assert.NotEmpty(t, report.Signals)
	runs.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestOptimizeValidationError(t *testing.T) {
	runs := new(MockRunRepository)
	pub := new(MockPublisher)
	svc := NewOptimizationService(newTestOptimizer(t), Dependencies{Runs: runs, Publisher: pub})

	inputs := sampleInputs()
	inputs[2].Odds = nil

	_, err := svc.Optimize(context.Background(), OptimizeRequest{RaceID: "race-3", Horses: inputs})
	require.Error(t, err)

	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "odds", verr.Field)
	assert.Equal(t, 2, verr.Index)

	runs.AssertNotCalled(t, "SaveRun", mock.Anything, mock.Anything)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestOptimizeWithOverrides(t *testing.T) {
	pub := new(MockPublisher)
	svc := NewOptimizationService(newTestOptimizer(t), Dependencies{Publisher: pub})

	high := 100.0
	report, err := svc.Optimize(context.Background(), OptimizeRequest{
		RaceID:  "race-4",
		Horses:  sampleInputs(),
		Options: &exotic.Overrides{MinExpectedValue: &high},
	})
	require.NoError(t, err)
	assert.Empty(t, report.Signals)
	assert.False(t, report.Summary.Empty)
	assert.Equal(t, 45, report.Summary.TotalCombinations)
	assert.Zero(t, report.Summary.ProfitableCount)
	assert.Zero(t, report.Summary.ProfitabilityRate)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)

	assert.Equal(t, exotic.DefaultMinExpectedValue, svc.Optimizer().Config().MinExpectedValue)

	bad := 0
	_, err = svc.Optimize(context.Background(), OptimizeRequest{
		RaceID:  "race-4",
		Horses:  sampleInputs(),
		Options: &exotic.Overrides{MaxExacta: &bad},
	})
	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "options", verr.Field)
}

func TestPrepareHorsesFillsFromProvider(t *testing.T) {
	prov := new(MockProvider)
	inputs := sampleInputs()
	inputs[0].WinProbability = nil
	inputs[1].WinProbability = nil

	prov.On("WinProbabilities", mock.Anything, "race-5", mock.MatchedBy(func(h []models.Horse) bool {
		return len(h) == 2 && h[0].ID == "1" && h[1].ID == "2"
	})).Return(map[string]float64{"1": 0.3}, nil).Once()

	svc := NewOptimizationService(newTestOptimizer(t), Dependencies{Provider: prov})
	horses, err := svc.PrepareHorses(context.Background(), "race-5", inputs)
	require.NoError(t, err)

	assert.InDelta(t, 0.3, horses[0].WinProbability, 1e-12)
	assert.InDelta(t, models.DefaultWinProbability, horses[1].WinProbability, 1e-12)
	assert.InDelta(t, 0.18, horses[2].WinProbability, 1e-12)
	prov.AssertExpectations(t)
}

func TestPrepareHorsesProviderFailure(t *testing.T) {
	prov := new(MockProvider)
	inputs := sampleInputs()
	inputs[3].WinProbability = nil
	prov.On("WinProbabilities", mock.Anything, "race-6", mock.Anything).Return(nil, errors.New("timeout")).Once()

	svc := NewOptimizationService(newTestOptimizer(t), Dependencies{Provider: prov})
	horses, err := svc.PrepareHorses(context.Background(), "race-6", inputs)
	require.NoError(t, err)
	assert.InDelta(t, models.DefaultWinProbability, horses[3].WinProbability, 1e-12)
}

func TestPrepareHorsesSkipsProviderWhenComplete(t *testing.T) {
	prov := new(MockProvider)
	svc := NewOptimizationService(newTestOptimizer(t), Dependencies{Provider: prov})
	_, err := svc.PrepareHorses(context.Background(), "race-7", sampleInputs())
	require.NoError(t, err)
	prov.AssertNotCalled(t, "WinProbabilities", mock.Anything, mock.Anything, mock.Anything)
}

func TestCalibrateAndCombinations(t *testing.T) {
	svc := NewOptimizationService(newTestOptimizer(t), Dependencies{})

	calibrated, err := svc.Calibrate(context.Background(), "race-8", sampleInputs())
	require.NoError(t, err)
	require.Len(t, calibrated, 6)
	assert.InDelta(t, 0.25, calibrated[0].OriginalWinProbability, 1e-12)
	assert.InDelta(t, 0.249209, calibrated[0].WinProbability, 1e-6)

	bets, err := svc.Combinations(context.Background(), models.BetTypeExacta, CombinationsRequest{
		RaceID: "race-8", Horses: sampleInputs(), MaxCombinations: 5,
	})
	require.NoError(t, err)
	assert.Len(t, bets, 5)
	for _, b := range bets {
		assert.Equal(t, models.BetTypeExacta, b.BetType)
	}
}

func TestSignalsRecordHistoryWithoutPersisting(t *testing.T) {
	runs := new(MockRunRepository)
	bc := &recordingBroadcaster{}
	svc := NewOptimizationService(newTestOptimizer(t), Dependencies{Runs: runs, Broadcaster: bc})

	signals, err := svc.Signals(context.Background(), OptimizeRequest{RaceID: "race-9", Horses: sampleInputs()})
	require.NoError(t, err)
	assert.Len(t, signals, 28)
	assert.Len(t, svc.TopSignals(0), 28)
	assert.Equal(t, 20, svc.Performance(20).SignalsAnalyzed)

	runs.AssertNotCalled(t, "SaveRun", mock.Anything, mock.Anything)
	assert.Equal(t, []int{28}, bc.counts)
}

func TestGetRun(t *testing.T) {
	svc := NewOptimizationService(newTestOptimizer(t), Dependencies{})
	_, err := svc.GetRun(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrStoreDisabled)
	assert.False(t, svc.HasStore())

	runs := new(MockRunRepository)
	id := uuid.New()
	runs.On("GetRun", mock.Anything, id).Return(&models.OptimizationRun{ID: id, RaceID: "r"}, nil).Once()
	runs.On("GetRun", mock.Anything, mock.Anything).Return(nil, models.ErrNotFound)

	svc = NewOptimizationService(newTestOptimizer(t), Dependencies{Runs: runs})
	run, err := svc.GetRun(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "r", run.RaceID)

	_, err = svc.GetRun(context.Background(), uuid.New())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestNewRunRecord(t *testing.T) {
	opt := newTestOptimizer(t)
	horses, err := models.ValidateHorseInputs(sampleInputs())
	require.NoError(t, err)
	report, err := opt.Optimize(context.Background(), horses)
	require.NoError(t, err)

	run := NewRunRecord("race-10", horses, report)
	assert.Equal(t, report.RunID, run.ID)
	assert.Equal(t, testNow, run.StartedAt)
	assert.Equal(t, 6, run.TotalHorses)
	assert.Equal(t, 45, run.TotalCombinations)
	assert.Equal(t, 28, run.ProfitableSignals)
	assert.InDelta(t, 8.369072, run.MaxExpectedValue, 1e-6)
	assert.Equal(t, 1000.0, run.ConfigSnapshot["bankroll"])
}

func TestOptimizeSingleRunnerHasEmptySummary(t *testing.T) {
	svc := NewOptimizationService(newTestOptimizer(t), Dependencies{})

	report, err := svc.Optimize(context.Background(), OptimizeRequest{
		RaceID: "race-solo",
		Horses: sampleInputs()[:1],
	})
	require.NoError(t, err)
	assert.Empty(t, report.Bets)
	assert.True(t, report.Summary.Empty)
}
