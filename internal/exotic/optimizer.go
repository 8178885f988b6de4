package exotic

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/clever-exotics/internal/logger"
	"github.com/yourusername/clever-exotics/internal/models"
)

// Observer receives a completed report. Metrics collectors implement it.
type Observer interface {
	ObserveOptimization(report *Report)
}

type nopObserver struct{}

func (nopObserver) ObserveOptimization(*Report) {}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithLogger sets the base logger.
func WithLogger(l *logrus.Logger) Option {
	return func(o *Optimizer) {
		o.log = logger.NewOptimizerLogger(l)
	}
}

// WithObserver registers a metrics observer.
func WithObserver(obs Observer) Option {
	return func(o *Optimizer) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Optimizer) {
		if now != nil {
			o.now = now
		}
	}
}

// WithHistory shares an existing signal history.
func WithHistory(h *SignalHistory) Option {
	return func(o *Optimizer) {
		if h != nil {
			o.history = h
		}
	}
}

// Optimizer runs the full calibrate, enumerate, score and signal pipeline for a race.
type Optimizer struct {
	cfg        Config
	calibrator *Calibrator
	engine     *Engine
	generator  *Generator
	signals    *SignalGenerator
	history    *SignalHistory
	observer   Observer
	log        *logger.OptimizerLogger
	now        func() time.Time
}

// NewOptimizer creates an optimizer from a validated config.
func NewOptimizer(cfg Config, opts ...Option) (*Optimizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid optimizer config: %w", err)
	}

	o := &Optimizer{
		cfg:      cfg,
		observer: nopObserver{},
		log:      logger.NewOptimizerLogger(nil),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.history == nil {
		o.history = NewSignalHistory(cfg.HistorySize)
	}

	o.calibrator = NewCalibrator(cfg.ModelWeight, cfg.MarketWeight, o.log)
	o.engine = NewEngine()
	o.generator = NewGenerator(o.engine, cfg.MinProbability, cfg.KellyCap, o.log)
	o.signals = NewSignalGenerator(cfg.MinExpectedValue, cfg.Bankroll, o.history, o.now, o.log)
	return o, nil
}

// WithOverrides returns an optimizer that applies ov on top of this one's
// config. The returned optimizer shares the signal history, observer and logger.
func (o *Optimizer) WithOverrides(ov Overrides) (*Optimizer, error) {
	if ov.IsZero() {
		return o, nil
	}
	cfg := ov.Apply(o.cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clone := &Optimizer{
		cfg:      cfg,
		engine:   o.engine,
		history:  o.history,
		observer: o.observer,
		log:      o.log,
		now:      o.now,
	}
	clone.calibrator = NewCalibrator(cfg.ModelWeight, cfg.MarketWeight, o.log)
	clone.generator = NewGenerator(o.engine, cfg.MinProbability, cfg.KellyCap, o.log)
	clone.signals = NewSignalGenerator(cfg.MinExpectedValue, cfg.Bankroll, o.history, o.now, o.log)
	return clone, nil
}

// Config returns the optimizer configuration.
func (o *Optimizer) Config() Config {
	return o.cfg
}

// History returns the shared signal history.
func (o *Optimizer) History() *SignalHistory {
	return o.history
}

// Calibrate returns calibrated copies of horses.
func (o *Optimizer) Calibrate(horses []models.Horse) []models.Horse {
	return o.calibrator.Calibrate(horses)
}

// Combinations calibrates the field and returns the top combinations for one
// bet type. maxResults <= 0 uses the configured cap.
func (o *Optimizer) Combinations(ctx context.Context, horses []models.Horse, betType models.BetType, maxResults int) ([]models.ExoticBet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := models.ValidateHorses(horses); err != nil {
		return nil, err
	}
	if maxResults <= 0 {
		maxResults = o.cfg.MaxCombinations(betType)
	}
	return o.generator.Generate(o.calibrator.Calibrate(horses), betType, maxResults)
}

// Signals runs the pipeline and returns the signals and the combinations they
// were drawn from, without building a report.
func (o *Optimizer) Signals(ctx context.Context, horses []models.Horse) ([]models.Signal, []models.ExoticBet, error) {
	if err := models.ValidateHorses(horses); err != nil {
		return nil, nil, err
	}
	calibrated := o.calibrator.Calibrate(horses)
	bets, _, err := o.generateAll(ctx, calibrated)
	if err != nil {
		return nil, nil, err
	}
	return o.signals.GenerateSignals(bets), bets, nil
}

// TopSignals returns the n strongest signals across the history.
func (o *Optimizer) TopSignals(n int) []models.Signal {
	return o.signals.Top(n)
}

// Performance analyzes the n strongest signals across the history.
func (o *Optimizer) Performance(n int) Performance {
	return AnalyzePerformance(o.signals.Top(n))
}

// Optimize runs the full pipeline for one race.
func (o *Optimizer) Optimize(ctx context.Context, horses []models.Horse) (*Report, error) {
	start := o.now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := models.ValidateHorses(horses); err != nil {
		return nil, err
	}

	calibrated := o.calibrator.Calibrate(horses)

	bets, counts, err := o.generateAll(ctx, calibrated)
	if err != nil {
		return nil, err
	}

	signals := o.signals.GenerateSignals(bets)

	top := signals
	if len(top) > 10 {
		top = top[:10]
	}

	report := &Report{
		RunID:            uuid.New(),
		Timestamp:        start.UTC(),
		TotalHorses:      len(horses),
		CalibratedHorses: NewCalibratedHorses(horses, calibrated),
		Combinations:     counts,
		Bets:             bets,
		Signals:          signals,
		TopOpportunities: top,
		Summary:          Summarize(bets, signals),
		Config:           o.cfg,
	}
	report.ProcessingTime = o.now().Sub(start)

	o.log.LogOptimization(report.RunID.String(), report.TotalHorses, len(bets), len(signals), report.Summary.MaxExpectedValue, report.ProcessingTime)
	o.observer.ObserveOptimization(report)
	return report, nil
}

// generateAll runs the three bet types concurrently and concatenates the
// results in exacta, trifecta, superfecta order.
func (o *Optimizer) generateAll(ctx context.Context, calibrated []models.Horse) ([]models.ExoticBet, map[models.BetType]int, error) {
	types := models.AllBetTypes()
	results := make([][]models.ExoticBet, len(types))

	g, gctx := errgroup.WithContext(ctx)
	for i, bt := range types {
		i, bt := i, bt
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			bets, err := o.generator.Generate(calibrated, bt, o.cfg.MaxCombinations(bt))
			if err != nil {
				return err
			}
			results[i] = bets
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("generate combinations: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	counts := make(map[models.BetType]int, len(types))
	var all []models.ExoticBet
	for i, bt := range types {
		counts[bt] = len(results[i])
		all = append(all, results[i]...)
	}
	if all == nil {
		all = []models.ExoticBet{}
	}
	return all, counts, nil
}
