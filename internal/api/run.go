package api

import (
	"net/http"

	"github.com/star/telemetrygen/internal/status"
)

func runHandler(store *status.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run := store.Get()
		if run == nil {
			writeError(w, http.StatusNotFound, "no run has started")
			return
		}
		writeJSON(w, http.StatusOK, run)
	}
}
