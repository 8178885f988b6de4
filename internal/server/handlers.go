package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/clever-exotics/internal/exotic"
	"github.com/yourusername/clever-exotics/internal/models"
	"github.com/yourusername/clever-exotics/internal/service"
)

const defaultPerformanceLimit = 20

type calibrateRequest struct {
	RaceID string              `json:"race_id"`
	Horses []models.HorseInput `json:"horses"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP status codes
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	body := map[string]any{"status": "error", "error": err.Error()}

	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		body["field"] = verr.Field
		if verr.Index >= 0 {
			body["index"] = verr.Index
		}
		writeJSON(w, http.StatusBadRequest, body)
	case errors.Is(err, models.ErrInvalidBetType):
		body["field"] = "bet_type"
		writeJSON(w, http.StatusBadRequest, body)
	case errors.Is(err, models.ErrNotFound):
		writeJSON(w, http.StatusNotFound, body)
	case errors.Is(err, service.ErrStoreDisabled):
		writeJSON(w, http.StatusServiceUnavailable, body)
	default:
		s.logger.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).WithError(err).Error("Request failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"status":  "error",
			"error":   "Internal server error",
			"message": "An unexpected error occurred",
		})
	}
}

// decodeBody decodes a JSON request body into v
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return models.NewValidationError(-1, "body", "request body is empty", models.ErrEmptyField)
		}
		return models.NewValidationError(-1, "body", fmt.Sprintf("invalid JSON: %v", err), err)
	}
	return nil
}

func requireHorses(horses []models.HorseInput) error {
	if horses == nil {
		return models.NewValidationError(-1, "horses", "is required", models.ErrEmptyField)
	}
	return nil
}

func (s *Server) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req service.OptimizeRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := requireHorses(req.Horses); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.RaceID == "" {
		req.RaceID = "unknown"
	}

	report, err := s.svc.Optimize(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	data := report.ToMap()
	data["race_id"] = req.RaceID
	data["request_timestamp"] = s.timestamp()

	s.logger.WithFields(logrus.Fields{
		"race_id": req.RaceID,
		"horses":  len(req.Horses),
		"signals": len(report.Signals),
	}).Info("Optimization completed")

	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": data})
}

func (s *Server) handleCalibrate(w http.ResponseWriter, r *http.Request) {
	var req calibrateRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := requireHorses(req.Horses); err != nil {
		s.writeError(w, r, err)
		return
	}

	calibrated, err := s.svc.Calibrate(r.Context(), req.RaceID, req.Horses)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	horses := make([]map[string]any, 0, len(calibrated))
	for _, h := range calibrated {
		horses = append(horses, map[string]any{
			"id":                           h.ID,
			"name":                         h.Name,
			"original_win_probability":     h.OriginalWinProbability,
			"calibrated_win_probability":   h.WinProbability,
			"calibrated_place_probability": h.PlaceProbability,
			"calibrated_show_probability":  h.ShowProbability,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "success",
		"calibrated_horses": horses,
		"timestamp":         s.timestamp(),
	})
}

func (s *Server) handleCombinations(w http.ResponseWriter, r *http.Request) {
	betType, err := models.ParseBetType(chi.URLParam(r, "bet_type"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req service.CombinationsRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := requireHorses(req.Horses); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.MaxCombinations < 0 {
		s.writeError(w, r, models.NewValidationError(-1, "max_combinations", "must not be negative", nil))
		return
	}

	bets, err := s.svc.Combinations(r.Context(), betType, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":             "success",
		"bet_type":           string(betType),
		"total_combinations": len(bets),
		"combinations":       exotic.BetsToMaps(bets),
		"timestamp":          s.timestamp(),
	})
}

func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	var req service.OptimizeRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := requireHorses(req.Horses); err != nil {
		s.writeError(w, r, err)
		return
	}

	signals, err := s.svc.Signals(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var sumEV, maxEV, stake float64
	profitable := 0
	for i, sig := range signals {
		sumEV += sig.ExpectedValue
		stake += sig.RecommendedStake
		if i == 0 || sig.ExpectedValue > maxEV {
			maxEV = sig.ExpectedValue
		}
		if sig.ExpectedValue > 0 {
			profitable++
		}
	}
	avgEV := 0.0
	if len(signals) > 0 {
		avgEV = sumEV / float64(len(signals))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":                   "success",
		"total_signals":            len(signals),
		"profitable_opportunities": profitable,
		"signals":                  exotic.SignalsToMaps(signals),
		"summary": map[string]any{
			"avg_expected_value":      avgEV,
			"max_expected_value":      maxEV,
			"total_recommended_stake": stake,
		},
		"timestamp": s.timestamp(),
	})
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	limit := defaultPerformanceLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeError(w, r, models.NewValidationError(-1, "limit", "must be a positive integer", err))
			return
		}
		limit = n
	}

	top := s.svc.TopSignals(limit)
	if len(top) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "success",
			"message": "No historical data available",
			"data": map[string]any{
				"total_signals":       0,
				"performance_metrics": map[string]any{},
			},
		})
		return
	}

	shown := top
	if len(shown) > 10 {
		shown = shown[:10]
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"data": map[string]any{
			"performance_metrics": s.svc.Performance(limit).ToMap(),
			"top_signals":         exotic.SignalsToMaps(shown),
			"timestamp":           s.timestamp(),
		},
	})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, models.NewValidationError(-1, "id", "must be a UUID", models.ErrInvalidID))
		return
	}

	run, err := s.svc.GetRun(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": run})
}
