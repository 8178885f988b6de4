package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRaceJSON = `{
	"race_id": "R1",
	"horses": [
		{"id": 1, "name": "Thunder Bolt", "win_probability": 0.25, "odds": 4.0},
		{"id": 2, "name": "Lightning Strike", "win_probability": 0.20, "odds": 5.0},
		{"id": 3, "name": "Storm Runner", "win_probability": 0.18, "odds": 5.5},
		{"id": 4, "name": "Wind Chaser", "win_probability": 0.15, "odds": 6.5},
		{"id": 5, "name": "Fire Bolt", "win_probability": 0.12, "odds": 8.0},
		{"id": 6, "name": "Swift Arrow", "win_probability": 0.10, "odds": 10.0}
	]
}`

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	inputPath, outputPath = "-", "-"

	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "--env-file", ""}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestOptimizeCommand(t *testing.T) {
	out, err := runCLI(t, sampleRaceJSON, "optimize")
	require.NoError(t, err)

	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "R1", report["race_id"])
	assert.EqualValues(t, 6, report["total_horses"])
	assert.EqualValues(t, 28, report["profitable_signals"])
}

func TestOptimizeCommandWritesFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "race.json")
	outFile := filepath.Join(dir, "report.json")
	require.NoError(t, os.WriteFile(in, []byte(sampleRaceJSON), 0o600))

	_, err := runCLI(t, "", "optimize", "--input", in, "--output", outFile)
	require.NoError(t, err)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"exotic_combinations"`)
}

func TestCalibrateCommand(t *testing.T) {
	out, err := runCLI(t, sampleRaceJSON, "calibrate")
	require.NoError(t, err)

	var resp struct {
		CalibratedHorses []struct {
			ID             string  `json:"id"`
			WinProbability float64 `json:"calibrated_win_prob"`
		} `json:"calibrated_horses"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.CalibratedHorses, 6)
	assert.InDelta(t, 0.249209, resp.CalibratedHorses[0].WinProbability, 1e-6)
}

func TestOptimizeCommandRejectsInvalidInput(t *testing.T) {
	_, err := runCLI(t, `{"horses": [{"id": 1, "name": "A"}]}`, "optimize")
	assert.Error(t, err)
}
