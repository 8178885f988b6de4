package main

import (
	"github.com/spf13/cobra"

	"github.com/yourusername/clever-exotics/internal/service"
)

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Print calibrated win, place and show probabilities for a race",
	RunE: func(cmd *cobra.Command, args []string) error {
		var req service.OptimizeRequest
		if err := readRequest(cmd.InOrStdin(), &req); err != nil {
			return err
		}

		svc, err := newLocalService()
		if err != nil {
			return err
		}

		calibrated, err := svc.Calibrate(cmd.Context(), req.RaceID, req.Horses)
		if err != nil {
			return err
		}

		return writeOutput(cmd.OutOrStdout(), map[string]any{
			"race_id":           req.RaceID,
			"calibrated_horses": calibrated,
		})
	},
}
