package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/clever-exotics/internal/config"
	"github.com/yourusername/clever-exotics/internal/metrics"
	"github.com/yourusername/clever-exotics/internal/models"
)

const predictWinPath = "/api/v1/predict/win"

type predictionHorse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Odds        float64 `json:"odds"`
	Jockey      string  `json:"jockey"`
	Trainer     string  `json:"trainer"`
	FormRating  float64 `json:"form_rating"`
	SpeedRating float64 `json:"speed_rating"`
	ClassRating float64 `json:"class_rating"`
}

type predictionRequest struct {
	RaceID       string            `json:"race_id"`
	ModelVersion string            `json:"model_version,omitempty"`
	Horses       []predictionHorse `json:"horses"`
}

type predictionResponse struct {
	ModelVersion string `json:"model_version"`
	Predictions  []struct {
		HorseID        models.HorseID `json:"horse_id"`
		WinProbability *float64       `json:"win_probability"`
	} `json:"predictions"`
}

// HTTPProvider requests win probabilities from a remote model service.
type HTTPProvider struct {
	baseURL      string
	modelVersion string
	client       *RateLimitedHTTPClient
	log          *logrus.Entry
}

// NewHTTPProvider creates a provider for the configured model service.
func NewHTTPProvider(cfg *config.ProviderConfig, log *logrus.Logger) (*HTTPProvider, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, fmt.Errorf("provider url is required: %w", ErrProviderUnavailable)
	}

	clientCfg := DefaultHTTPClientConfig()
	if cfg.TimeoutSeconds > 0 {
		clientCfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	clientCfg.MaxRetries = cfg.RetryAttempts
	if cfg.RateLimit > 0 {
		clientCfg.RateLimit = cfg.RateLimit
	}

	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}

	return &HTTPProvider{
		baseURL:      strings.TrimRight(cfg.URL, "/"),
		modelVersion: cfg.ModelVersion,
		client:       NewRateLimitedHTTPClient(clientCfg, log),
		log:          log.WithField("component", "provider"),
	}, nil
}

// ModelVersion returns the model version requested from the service.
func (p *HTTPProvider) ModelVersion() string {
	return p.modelVersion
}

// WinProbabilities implements Provider.
func (p *HTTPProvider) WinProbabilities(ctx context.Context, raceID string, horses []models.Horse) (map[string]float64, error) {
	if len(horses) == 0 {
		return map[string]float64{}, nil
	}

	req := predictionRequest{
		RaceID:       raceID,
		ModelVersion: p.modelVersion,
		Horses:       make([]predictionHorse, 0, len(horses)),
	}
	for _, h := range horses {
		req.Horses = append(req.Horses, predictionHorse{
			ID:          h.ID,
			Name:        h.Name,
			Odds:        h.Odds,
			Jockey:      h.Jockey,
			Trainer:     h.Trainer,
			FormRating:  h.FormRating,
			SpeedRating: h.SpeedRating,
			ClassRating: h.ClassRating,
		})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal prediction request: %w", err)
	}

	start := time.Now()
	resp, err := p.client.Post(ctx, p.baseURL+predictWinPath, "application/json", bytes.NewReader(body))
	if err != nil {
		metrics.RecordProviderRequest("error", time.Since(start).Seconds())
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RecordProviderRequest("error", time.Since(start).Seconds())
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrProviderUnavailable, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var decoded predictionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		metrics.RecordProviderRequest("invalid", time.Since(start).Seconds())
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	metrics.RecordProviderRequest("ok", time.Since(start).Seconds())

	known := make(map[string]struct{}, len(horses))
	for _, h := range horses {
		known[h.ID] = struct{}{}
	}

	out := make(map[string]float64, len(decoded.Predictions))
	for _, pred := range decoded.Predictions {
		id := string(pred.HorseID)
		if _, ok := known[id]; !ok || pred.WinProbability == nil {
			continue
		}
		out[id] = *pred.WinProbability
	}

	p.log.WithFields(logrus.Fields{
		"race_id":     raceID,
		"requested":   len(horses),
		"returned":    len(out),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Received win probabilities")

	return out, nil
}

// Close releases idle connections.
func (p *HTTPProvider) Close() error {
	return p.client.Close()
}
