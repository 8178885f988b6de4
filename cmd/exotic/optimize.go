package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/clever-exotics/internal/service"
)

var (
	inputPath  string
	outputPath string
)

func init() {
	for _, c := range []*cobra.Command{optimizeCmd, calibrateCmd} {
		c.Flags().StringVarP(&inputPath, "input", "i", "-", "Race JSON file, or - for stdin")
		c.Flags().StringVarP(&outputPath, "output", "o", "-", "Output JSON file, or - for stdout")
	}
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Optimize a single race from a JSON file",
	Long:  `Reads {"race_id", "horses", "options"} and writes the full optimization report as JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var req service.OptimizeRequest
		if err := readRequest(cmd.InOrStdin(), &req); err != nil {
			return err
		}

		svc, err := newLocalService()
		if err != nil {
			return err
		}

		report, err := svc.Optimize(cmd.Context(), req)
		if err != nil {
			return err
		}

		appLog.WithFields(logrus.Fields{
			"race_id":      req.RaceID,
			"horses":       report.TotalHorses,
			"combinations": report.CombinationCount(),
			"signals":      len(report.Signals),
		}).Info("Optimization complete")

		out := report.ToMap()
		out["race_id"] = req.RaceID
		return writeOutput(cmd.OutOrStdout(), out)
	},
}

func newLocalService() (*service.OptimizationService, error) {
	optimizer, err := newOptimizer()
	if err != nil {
		return nil, err
	}
	return service.NewOptimizationService(optimizer, service.Dependencies{Logger: appLog}), nil
}

func readRequest(stdin io.Reader, v any) error {
	r := stdin
	if inputPath != "" && inputPath != "-" {
		f, err := os.Open(inputPath)
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("failed to decode input: %w", err)
	}
	return nil
}

func writeOutput(stdout io.Writer, v any) error {
	w := stdout
	if outputPath != "" && outputPath != "-" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
