package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/victorlin/jiraq/internal/agent"
	"github.com/victorlin/jiraq/internal/config"
	"github.com/victorlin/jiraq/internal/logging"
	"github.com/victorlin/jiraq/pkg/models"
)

// serveCmd exposes the pipeline over a small JSON API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the query pipeline over HTTP",
	Long:  `Start an HTTP server exposing POST /api/search with a {query, year} body.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")

		a := agent.NewFromConfig(config.Load())

		mux := http.NewServeMux()
		mux.HandleFunc("/api/search", searchHandler(a))

		addr := fmt.Sprintf(":%d", port)
		logging.Info("serving search api", "addr", addr)
		return http.ListenAndServe(addr, mux)
	},
}

// searchRequest is the JSON body for /api/search. Year tolerates both
// string and numeric encodings.
type searchRequest struct {
	Query string      `json:"query"`
	Year  json.Number `json:"year"`
}

// searchHandler handles POST /api/search. The web surface defaults all
// user-condition flags on, matching the original interface's behavior of
// always scoping to "tasks I participated in".
func searchHandler(a *agent.Agent) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.Query) == "" {
			writeError(w, http.StatusBadRequest, "query is required")
			return
		}

		year := req.Year.String()
		if year == "" {
			year = strconv.Itoa(time.Now().Year())
		}

		resp := a.Process(r.Context(), models.Request{
			Text: strings.TrimSpace(req.Query),
			Year: year,
			UserConditions: models.UserConditions{
				Assignee:  true,
				Reporter:  true,
				Commenter: true,
			},
		})

		status := http.StatusOK
		if resp.Error != "" {
			status = http.StatusInternalServerError
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logging.Warn("failed to encode response", "error", err)
		}
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().Int("port", 8080, "port to listen on")
}
