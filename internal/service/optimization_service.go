// Package service orchestrates exotic wager optimization for a race.
package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/clever-exotics/internal/exotic"
	"github.com/yourusername/clever-exotics/internal/logger"
	"github.com/yourusername/clever-exotics/internal/metrics"
	"github.com/yourusername/clever-exotics/internal/models"
	"github.com/yourusername/clever-exotics/internal/provider"
	"github.com/yourusername/clever-exotics/internal/publisher"
	"github.com/yourusername/clever-exotics/internal/repository"
)

// ErrStoreDisabled is returned by lookups when no run repository is configured
var ErrStoreDisabled = errors.New("run store not configured")

// Broadcaster pushes signals to live subscribers
type Broadcaster interface {
	Broadcast(raceID string, signals []models.Signal)
}

// OptimizeRequest is the input of a full optimization
type OptimizeRequest struct {
	RaceID  string              `json:"race_id"`
	Horses  []models.HorseInput `json:"horses"`
	Options *exotic.Overrides   `json:"options,omitempty"`
}

// CombinationsRequest asks for the combinations of a single bet type
type CombinationsRequest struct {
	RaceID          string              `json:"race_id"`
	Horses          []models.HorseInput `json:"horses"`
	MaxCombinations int                 `json:"max_combinations"`
}

// Dependencies are the optional collaborators of OptimizationService
type Dependencies struct {
	Provider    provider.Provider
	Runs        repository.RunRepository
	Publisher   publisher.Publisher
	Broadcaster Broadcaster
	Logger      *logrus.Logger
}

// OptimizationService validates input, fills model probabilities, runs the
// optimizer and distributes the resulting signals.
type OptimizationService struct {
	optimizer   *exotic.Optimizer
	provider    provider.Provider
	runs        repository.RunRepository
	publisher   publisher.Publisher
	broadcaster Broadcaster
	audit       *logger.AuditLogger
	logger      *logrus.Logger
}

// NewOptimizationService creates a new optimization service
func NewOptimizationService(optimizer *exotic.Optimizer, deps Dependencies) *OptimizationService {
	log := deps.Logger
	if log == nil {
		log = logger.NewDiscardLogger()
	}
	pub := deps.Publisher
	if pub == nil {
		pub = publisher.Nop{}
	}
	return &OptimizationService{
		optimizer:   optimizer,
		provider:    deps.Provider,
		runs:        deps.Runs,
		publisher:   pub,
		broadcaster: deps.Broadcaster,
		audit:       logger.NewAuditLogger(log),
		logger:      log,
	}
}

// Optimizer returns the shared optimizer
func (s *OptimizationService) Optimizer() *exotic.Optimizer {
	return s.optimizer
}

// PrepareHorses validates inputs and asks the provider for win probabilities
// of horses that arrived without one. Provider failures keep the defaults.
func (s *OptimizationService) PrepareHorses(ctx context.Context, raceID string, inputs []models.HorseInput) ([]models.Horse, error) {
	horses, err := models.ValidateHorseInputs(inputs)
	if err != nil {
		return nil, err
	}
	if s.provider == nil {
		return horses, nil
	}

	var missing []int
	for i, in := range inputs {
		if !in.HasWinProbability() {
			missing = append(missing, i)
		}
	}
	if len(missing) == 0 {
		return horses, nil
	}

	ask := make([]models.Horse, len(missing))
	for j, i := range missing {
		ask[j] = horses[i]
	}

	probs, err := s.provider.WinProbabilities(ctx, raceID, ask)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"race_id": raceID,
			"missing": len(missing),
		}).WithError(err).Warn("Probability provider failed, using default win probability")
		return horses, nil
	}

	filled := 0
	for _, i := range missing {
		if p, ok := probs[horses[i].ID]; ok {
			horses[i].WinProbability = p
			filled++
		}
	}
	s.logger.WithFields(logrus.Fields{
		"race_id": raceID,
		"missing": len(missing),
		"filled":  filled,
	}).Debug("Filled win probabilities from provider")

	return horses, nil
}

// Optimize runs the full pipeline, then persists, publishes and broadcasts
// the signals. Only validation and optimizer errors are returned.
func (s *OptimizationService) Optimize(ctx context.Context, req OptimizeRequest) (*exotic.Report, error) {
	opt, err := s.optimizerFor(req.RaceID, req.Options)
	if err != nil {
		return nil, err
	}

	horses, err := s.PrepareHorses(ctx, req.RaceID, req.Horses)
	if err != nil {
		metrics.RecordOptimizationError("validation")
		return nil, err
	}

	report, err := opt.Optimize(ctx, horses)
	if err != nil {
		metrics.RecordOptimizationError("optimizer")
		return nil, err
	}

	s.persist(ctx, req.RaceID, horses, report)
	s.distribute(ctx, req.RaceID, report.Signals)
	return report, nil
}

// Calibrate returns the calibrated view of the field
func (s *OptimizationService) Calibrate(ctx context.Context, raceID string, inputs []models.HorseInput) ([]exotic.CalibratedHorse, error) {
	horses, err := s.PrepareHorses(ctx, raceID, inputs)
	if err != nil {
		return nil, err
	}
	return exotic.NewCalibratedHorses(horses, s.optimizer.Calibrate(horses)), nil
}

// Combinations returns the top combinations for one bet type
func (s *OptimizationService) Combinations(ctx context.Context, betType models.BetType, req CombinationsRequest) ([]models.ExoticBet, error) {
	horses, err := s.PrepareHorses(ctx, req.RaceID, req.Horses)
	if err != nil {
		return nil, err
	}
	return s.optimizer.Combinations(ctx, horses, betType, req.MaxCombinations)
}

// Signals runs the pipeline and returns only the signals. They are recorded
// in the history and broadcast, but not persisted.
func (s *OptimizationService) Signals(ctx context.Context, req OptimizeRequest) ([]models.Signal, error) {
	opt, err := s.optimizerFor(req.RaceID, req.Options)
	if err != nil {
		return nil, err
	}
	horses, err := s.PrepareHorses(ctx, req.RaceID, req.Horses)
	if err != nil {
		return nil, err
	}
	signals, _, err := opt.Signals(ctx, horses)
	if err != nil {
		return nil, err
	}
	s.distribute(ctx, req.RaceID, signals)
	return signals, nil
}

// TopSignals returns the strongest signals seen so far
func (s *OptimizationService) TopSignals(n int) []models.Signal {
	return s.optimizer.TopSignals(n)
}

// Performance analyzes the strongest n signals in the history
func (s *OptimizationService) Performance(n int) exotic.Performance {
	return s.optimizer.Performance(n)
}

// GetRun loads a persisted run
func (s *OptimizationService) GetRun(ctx context.Context, id uuid.UUID) (*models.OptimizationRun, error) {
	if s.runs == nil {
		return nil, ErrStoreDisabled
	}
	return s.runs.GetRun(ctx, id)
}

// HasStore reports whether runs are persisted
func (s *OptimizationService) HasStore() bool {
	return s.runs != nil
}

func (s *OptimizationService) optimizerFor(raceID string, ov *exotic.Overrides) (*exotic.Optimizer, error) {
	if ov == nil || ov.IsZero() {
		return s.optimizer, nil
	}

	opt, err := s.optimizer.WithOverrides(*ov)
	if err != nil {
		return nil, models.NewValidationError(-1, "options", err.Error(), err)
	}

	base := s.optimizer.Config()
	next := opt.Config()
	if base.MinExpectedValue != next.MinExpectedValue {
		s.audit.LogConfigOverride(raceID, "min_ev_threshold", base.MinExpectedValue, next.MinExpectedValue)
	}
	for _, bt := range models.AllBetTypes() {
		if base.MaxCombinations(bt) != next.MaxCombinations(bt) {
			s.audit.LogConfigOverride(raceID, "max_"+string(bt), base.MaxCombinations(bt), next.MaxCombinations(bt))
		}
	}
	return opt, nil
}

func (s *OptimizationService) persist(ctx context.Context, raceID string, horses []models.Horse, report *exotic.Report) {
	if s.runs == nil {
		return
	}

	run := NewRunRecord(raceID, horses, report)
	if err := s.runs.SaveRun(ctx, run); err != nil {
		metrics.RecordRunPersisted(false)
		s.logger.WithFields(logrus.Fields{
			"race_id": raceID,
			"run_id":  run.ID.String(),
		}).WithError(err).Error("Failed to persist optimization run")
		return
	}

	metrics.RecordRunPersisted(true)
	s.audit.LogRunPersisted(run.ID.String(), raceID, len(run.Combinations), len(run.Signals), run.CompletedAt)
}

func (s *OptimizationService) distribute(ctx context.Context, raceID string, signals []models.Signal) {
	if len(signals) == 0 {
		return
	}

	err := s.publisher.Publish(ctx, raceID, signals)
	metrics.RecordSignalsPublished(s.publisher.Name(), len(signals), err)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"race_id": raceID,
			"sink":    s.publisher.Name(),
		}).WithError(err).Error("Failed to publish signals")
	} else if _, nop := s.publisher.(publisher.Nop); !nop {
		s.audit.LogSignalsPublished(s.publisher.Name(), raceID, len(signals))
	}

	if s.broadcaster != nil {
		s.broadcaster.Broadcast(raceID, signals)
	}
}

// NewRunRecord converts a report into its persisted form. Signals are copied
// and stamped with the run ID.
func NewRunRecord(raceID string, horses []models.Horse, report *exotic.Report) *models.OptimizationRun {
	signals := make([]models.Signal, len(report.Signals))
	for i, sig := range report.Signals {
		sig.RunID = report.RunID
		signals[i] = sig
	}

	return &models.OptimizationRun{
		ID:                    report.RunID,
		RaceID:                raceID,
		StartedAt:             report.Timestamp,
		CompletedAt:           report.Timestamp.Add(report.ProcessingTime),
		TotalHorses:           report.TotalHorses,
		TotalCombinations:     report.CombinationCount(),
		ProfitableSignals:     len(report.Signals),
		AverageExpectedValue:  report.Summary.AverageExpectedValue,
		MaxExpectedValue:      report.Summary.MaxExpectedValue,
		TotalKellyAllocation:  report.Summary.TotalKellyAllocation,
		ProcessingTimeSeconds: report.ProcessingTime.Seconds(),
		ConfigSnapshot:        report.Config.Snapshot(),
		Version:               models.OptimizationVersion,
		Horses:                horses,
		Combinations:          report.Bets,
		Signals:               signals,
	}
}
