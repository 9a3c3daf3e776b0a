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
	ingestClientID string
	ingestDay      string
	ingestFile     string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load daily metric exports into the store",
}

var ingestKeywordsCmd = &cobra.Command{
	Use:   "keywords",
	Short: "Upsert a day of keyword metric rows from a JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		day, err := time.Parse("2006-01-02", ingestDay)
		if err != nil {
			return eris.Wrapf(err, "parse day %q", ingestDay)
		}

		var rows []model.KeywordMetrics
		if err := readJSONFile(ingestFile, &rows); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		n, err := st.UpsertKeywordMetrics(ctx, ingestClientID, day, rows)
		if err != nil {
			return eris.Wrap(err, "upsert keyword metrics")
		}

		zap.L().Info("keyword metrics ingested",
			zap.String("client_id", ingestClientID),
			zap.String("day", ingestDay),
			zap.Int64("rows", n),
		)
		return nil
	},
}

var ingestPagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "Upsert a day of page metric rows from a JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		day, err := time.Parse("2006-01-02", ingestDay)
		if err != nil {
			return eris.Wrapf(err, "parse day %q", ingestDay)
		}

		var rows []model.PageMetrics
		if err := readJSONFile(ingestFile, &rows); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		n, err := st.UpsertPageMetrics(ctx, ingestClientID, day, rows)
		if err != nil {
			return eris.Wrap(err, "upsert page metrics")
		}

		zap.L().Info("page metrics ingested",
			zap.String("client_id", ingestClientID),
			zap.String("day", ingestDay),
			zap.Int64("rows", n),
		)
		return nil
	},
}

func readJSONFile(path string, dst any) error {
	f, err := os.Open(path)
	if err != nil {
		return eris.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(dst); err != nil {
		return eris.Wrapf(err, "decode %s", path)
	}
	return nil
}

func init() {
	for _, c := range []*cobra.Command{ingestKeywordsCmd, ingestPagesCmd} {
		c.Flags().StringVar(&ingestClientID, "client-id", "", "client identifier (required)")
		c.Flags().StringVar(&ingestDay, "day", "", "metric day, YYYY-MM-DD (required)")
		c.Flags().StringVar(&ingestFile, "file", "", "JSON file of metric rows (required)")
		_ = c.MarkFlagRequired("client-id")
		_ = c.MarkFlagRequired("day")
		_ = c.MarkFlagRequired("file")
	}
	ingestCmd.AddCommand(ingestKeywordsCmd)
	ingestCmd.AddCommand(ingestPagesCmd)
	rootCmd.AddCommand(ingestCmd)
}
