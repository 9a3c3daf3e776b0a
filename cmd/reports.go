package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/crossrank/adscope-cli/internal/model"
	"github.com/crossrank/adscope-cli/internal/store"
)

var (
	listClientID string
	listStatus   string
	listLimit    int
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Inspect stored reports",
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reports, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		reports, err := st.ListReports(ctx, store.ReportFilter{
			ClientID: listClientID,
			Status:   model.ReportStatus(listStatus),
			Limit:    listLimit,
		})
		if err != nil {
			return eris.Wrap(err, "list reports")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	},
}

var reportsLatestCmd = &cobra.Command{
	Use:   "latest <client-id>",
	Short: "Show the most recent report for a client",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		report, err := st.LatestReport(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "latest report")
		}
		if report == nil {
			return eris.Errorf("no reports for client %s", args[0])
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

var reportsTraceCmd = &cobra.Command{
	Use:   "trace <report-id>",
	Short: "Show a report's full phase trace and recommendations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		report, err := st.GetReport(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "get report")
		}
		recs, err := st.ListRecommendations(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "list recommendations")
		}

		trace := struct {
			Report          *model.Report          `json:"report"`
			Recommendations []model.Recommendation `json:"recommendations"`
		}{report, recs}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(trace)
	},
}

func init() {
	reportsListCmd.Flags().StringVar(&listClientID, "client-id", "", "filter by client")
	reportsListCmd.Flags().StringVar(&listStatus, "status", "", "filter by status")
	reportsListCmd.Flags().IntVar(&listLimit, "limit", 20, "maximum reports to return")
	reportsCmd.AddCommand(reportsListCmd)
	reportsCmd.AddCommand(reportsLatestCmd)
	reportsCmd.AddCommand(reportsTraceCmd)
	rootCmd.AddCommand(reportsCmd)
}
