package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crossrank/adscope-cli/internal/model"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the report API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			status := "ok"
			code := http.StatusOK
			if err := env.Store.Ping(req.Context()); err != nil {
				status = "degraded"
				code = http.StatusServiceUnavailable
			}
			writeJSON(w, code, map[string]string{"status": status})
		})

		r.Post("/reports", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				ClientID     string `json:"client_id"`
				Name         string `json:"name"`
				Domain       string `json:"domain"`
				BusinessType string `json:"business_type"`
				Days         int    `json:"days"`
				Trigger      string `json:"trigger"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
				return
			}
			if body.ClientID == "" || body.BusinessType == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "client_id and business_type are required"})
				return
			}
			if body.Days <= 0 {
				body.Days = 30
			}
			trigger := model.TriggerReason(body.Trigger)
			switch trigger {
			case model.TriggerCreation, model.TriggerManual, model.TriggerScheduled:
			case "":
				trigger = model.TriggerManual
			default:
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid trigger"})
				return
			}

			client := model.Client{
				ID:           body.ClientID,
				Name:         body.Name,
				Domain:       body.Domain,
				BusinessType: body.BusinessType,
			}
			end := time.Now().UTC().Truncate(24 * time.Hour)
			dateRange := model.DateRange{Start: end.AddDate(0, 0, -(body.Days - 1)), End: end}

			// The run outlives the request; it is tracked through the report
			// row's status.
			go func() {
				report, runErr := env.Orch.GenerateReport(ctx, client, trigger, dateRange)
				if runErr != nil {
					zap.L().Error("report run failed",
						zap.String("client_id", client.ID),
						zap.Error(runErr),
					)
					return
				}
				zap.L().Info("report run finished",
					zap.String("report_id", report.ID),
					zap.String("status", string(report.Status)),
				)
			}()

			writeJSON(w, http.StatusAccepted, map[string]string{
				"status":    "accepted",
				"client_id": body.ClientID,
			})
		})

		r.Get("/reports/{reportID}", func(w http.ResponseWriter, req *http.Request) {
			report, err := env.Store.GetReport(req.Context(), chi.URLParam(req, "reportID"))
			if err != nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "report not found"})
				return
			}
			writeJSON(w, http.StatusOK, report)
		})

		r.Get("/reports/{reportID}/trace", func(w http.ResponseWriter, req *http.Request) {
			reportID := chi.URLParam(req, "reportID")
			report, err := env.Store.GetReport(req.Context(), reportID)
			if err != nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "report not found"})
				return
			}
			recs, err := env.Store.ListRecommendations(req.Context(), reportID)
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list recommendations"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"report":          report,
				"recommendations": recs,
			})
		})

		r.Get("/clients/{clientID}/reports/latest", func(w http.ResponseWriter, req *http.Request) {
			report, err := env.Store.LatestReport(req.Context(), chi.URLParam(req, "clientID"))
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "latest report"})
				return
			}
			if report == nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "no reports for client"})
				return
			}
			writeJSON(w, http.StatusOK, report)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
