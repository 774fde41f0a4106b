package cmd

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jsphweid/voicelead/metrics"
	"github.com/jsphweid/voicelead/model"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const maxRequestBody = 64 * 1024

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves voice-leading searches over HTTP",
	Long: `Serves voice-leading searches over HTTP

POST /lead    {"tet": 12, "from": [0, 4, 7], "to": [2, 5, 9]}
GET  /metrics Prometheus metrics`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger("info", "json")
		if err != nil {
			return err
		}
		defer logger.Sync()

		srv := &http.Server{
			Addr:              serveAddr,
			Handler:           NewRouter(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		logger.Info("listening", zap.String("addr", serveAddr))
		return srv.ListenAndServe()
	},
}

func NewRouter() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/lead", HandleLead).Methods(http.MethodPost)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}).Handler(router)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func HandleLead(w http.ResponseWriter, r *http.Request) {
	metrics.Searches.Inc()

	reqBody, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		return
	}
	var input model.LeadRequestBody
	if err := json.Unmarshal(reqBody, &input); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "invalid JSON: " + err.Error()})
		return
	}

	res, err := lead(input)
	switch {
	case errors.Is(err, errNoLeading):
		writeJSON(w, http.StatusUnprocessableEntity, model.ErrorResponse{Error: err.Error()})
	case err != nil:
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusOK, res)
	}
}
