// handlers/admin_handler.go
package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/mayhem092/SkiingAnalyzer/services"
)

// AdminHandler exposes the retrieval pipeline's refresh operation and its
// progress report.
type AdminHandler struct {
	retrieval *services.RetrievalService
}

func NewAdminHandler(retrieval *services.RetrievalService) *AdminHandler {
	return &AdminHandler{retrieval: retrieval}
}

// RefreshHandler handles POST /api/admin/refresh. The refresh runs in the
// background; progress is observable via /api/status. Callers are expected
// to hold off further requests until the status reports ready again.
func (h *AdminHandler) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondWithError(w, http.StatusMethodNotAllowed, "Only POST method is allowed")
		return
	}

	go func() {
		if err := h.retrieval.Refresh(context.Background()); err != nil {
			log.Printf("ERROR Handlers: data refresh failed: %v", err)
		}
	}()

	respondWithJSON(w, http.StatusAccepted, map[string]string{"message": "Data refresh started."})
}

// StatusHandler handles GET /api/status.
func (h *AdminHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, http.StatusMethodNotAllowed, "Only GET method is allowed")
		return
	}
	respondWithJSON(w, http.StatusOK, h.retrieval.Status())
}
