package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crossrank/adscope-cli/internal/model"
)

var (
	reportClientID     string
	reportClientName   string
	reportDomain       string
	reportBusinessType string
	reportDays         int
	reportTrigger      string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate an optimization report for a client",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		trigger := model.TriggerReason(reportTrigger)
		switch trigger {
		case model.TriggerCreation, model.TriggerManual, model.TriggerScheduled:
		default:
			return eris.Errorf("invalid trigger %q (creation, manual, scheduled)", reportTrigger)
		}

		end := time.Now().UTC().Truncate(24 * time.Hour)
		dateRange := model.DateRange{
			Start: end.AddDate(0, 0, -(reportDays - 1)),
			End:   end,
		}

		client := model.Client{
			ID:           reportClientID,
			Name:         reportClientName,
			Domain:       reportDomain,
			BusinessType: reportBusinessType,
		}

		report, err := env.Orch.GenerateReport(ctx, client, trigger, dateRange)
		if err != nil {
			return eris.Wrap(err, "generate report")
		}

		zap.L().Info("report generated",
			zap.String("report_id", report.ID),
			zap.String("status", string(report.Status)),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportClientID, "client-id", "", "client identifier (required)")
	reportCmd.Flags().StringVar(&reportClientName, "name", "", "client display name")
	reportCmd.Flags().StringVar(&reportDomain, "domain", "", "client website domain")
	reportCmd.Flags().StringVar(&reportBusinessType, "business-type", "", "business type: ecommerce, leadgen, saas, local (required)")
	reportCmd.Flags().IntVar(&reportDays, "days", 30, "analysis window in days")
	reportCmd.Flags().StringVar(&reportTrigger, "trigger", string(model.TriggerManual), "trigger reason: creation, manual, scheduled")
	_ = reportCmd.MarkFlagRequired("client-id")
	_ = reportCmd.MarkFlagRequired("business-type")
	rootCmd.AddCommand(reportCmd)
}
