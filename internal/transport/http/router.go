package http

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"quiz-battle/internal/app"
)

// NewRouter exposes the game to a local presenter.
func NewRouter(service *app.GameService, logger zerolog.Logger) http.Handler {
	wsHandler := NewWSHandler(service, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/scoreboard", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(service.Scoreboard()); err != nil {
			logger.Warn().Err(err).Msg("write scoreboard failed")
		}
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	return mux
}
