package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"siacom-console/internal/api"
	"siacom-console/internal/feed"
	"siacom-console/internal/report"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	exportPatientID string
	exportOut       string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Fetch a patient's surgery status once and write it to an Excel workbook",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Backend.Timeout+5*time.Second)
		defer cancel()

		store, closeFn, err := openSessions(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		patientID := exportPatientID
		if patientID == "" {
			sess, err := store.Get(ctx)
			if err != nil {
				return err
			}
			patientID = sess.PatientID
		}
		if patientID == "" {
			return fmt.Errorf("no patient: pass --patient or log in as family")
		}

		source := feed.NewRemoteSource(api.NewFamilyAPI(newClients(store), log), cfg.Feed.RemoteInterval)
		snap, err := source.Next(ctx, patientID, nil)
		if err != nil {
			return err
		}
		snap.FetchedAt = time.Now()

		data, err := report.BuildStatusWorkbook(*snap, time.Now())
		if err != nil {
			return err
		}
		out := exportOut
		if out == "" {
			out = fmt.Sprintf("surgery_status_%s.xlsx", patientID)
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", out, err)
		}

		log.Info("Exported surgery status",
			zap.String("patient_id", patientID),
			zap.String("file", out),
			zap.Int("notifications", len(snap.Status.Notifications)),
		)
		fmt.Printf("Wrote %s\n", out)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportPatientID, "patient", "", "patient id (default: the family session's patient)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file (default: surgery_status_<patient>.xlsx)")
}
