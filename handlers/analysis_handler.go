// handlers/analysis_handler.go
package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/mayhem092/SkiingAnalyzer/models"
	"github.com/mayhem092/SkiingAnalyzer/services"
)

// Helper to respond with JSON
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Error marshalling JSON response: %v", err)
		http.Error(w, `{"error":"Failed to marshal JSON response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// Helper to respond with an error
func respondWithError(w http.ResponseWriter, code int, message string) {
	log.Printf("API Error %d: %s", code, message)
	respondWithJSON(w, code, map[string]string{"error": message})
}

// AnalysisHandler exposes the query engine over HTTP. The handlers do no
// sentinel interpretation of their own; raw parameter strings like "All",
// "Both" and "All types" go straight to the analysis service.
type AnalysisHandler struct {
	analysis *services.AnalysisService
}

func NewAnalysisHandler(analysis *services.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analysis: analysis}
}

func searchRequestFromQuery(r *http.Request) (models.SearchRequest, error) {
	query := r.URL.Query()

	yearFrom, err := strconv.Atoi(query.Get("from"))
	if err != nil {
		return models.SearchRequest{}, fmt.Errorf("invalid 'from' year: %q", query.Get("from"))
	}
	yearTo, err := strconv.Atoi(query.Get("to"))
	if err != nil {
		return models.SearchRequest{}, fmt.Errorf("invalid 'to' year: %q", query.Get("to"))
	}

	return models.SearchRequest{
		YearFrom:    yearFrom,
		YearTo:      yearTo,
		Distance:    query.Get("distance"),
		Forename:    query.Get("forename"),
		Familyname:  query.Get("familyname"),
		Gender:      query.Get("gender"),
		Team:        query.Get("team"),
		Nationality: query.Get("nationality"),
		Locality:    query.Get("locality"),
		Top:         query.Get("top"),
		TimeFrom:    query.Get("timefrom"),
		TimeTo:      query.Get("timeto"),
	}, nil
}

// SearchHandler handles GET /api/search.
func (h *AnalysisHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, http.StatusMethodNotAllowed, "Only GET method is allowed")
		return
	}
	req, err := searchRequestFromQuery(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows := h.analysis.Search(req)
	respondWithJSON(w, http.StatusOK, rows)
}

// ExportSearchHandler handles GET /api/search/export and streams the same
// result set as a CSV download.
func (h *AnalysisHandler) ExportSearchHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, http.StatusMethodNotAllowed, "Only GET method is allowed")
		return
	}
	req, err := searchRequestFromQuery(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows := h.analysis.Search(req)

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="results.csv"`)
	if err := services.WriteResultsCSV(w, rows); err != nil {
		log.Printf("ERROR Handlers: CSV export failed: %v", err)
	}
}

// CompareHandler handles GET /api/compare.
func (h *AnalysisHandler) CompareHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, http.StatusMethodNotAllowed, "Only GET method is allowed")
		return
	}
	query := r.URL.Query()
	year1, err := strconv.Atoi(query.Get("year1"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("invalid 'year1': %q", query.Get("year1")))
		return
	}
	year2, err := strconv.Atoi(query.Get("year2"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("invalid 'year2': %q", query.Get("year2")))
		return
	}

	result := h.analysis.Compare(query.Get("distance1"), year1, query.Get("distance2"), year2)
	respondWithJSON(w, http.StatusOK, result)
}

// TimesHandler handles GET /api/times (time progression of one athlete).
func (h *AnalysisHandler) TimesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, http.StatusMethodNotAllowed, "Only GET method is allowed")
		return
	}
	query := r.URL.Query()
	yearFrom, err := strconv.Atoi(query.Get("from"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("invalid 'from' year: %q", query.Get("from")))
		return
	}
	yearTo, err := strconv.Atoi(query.Get("to"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("invalid 'to' year: %q", query.Get("to")))
		return
	}

	points := h.analysis.TimeProgression(yearFrom, yearTo, query.Get("forename"), query.Get("familyname"))
	respondWithJSON(w, http.StatusOK, points)
}

// BestAthleteHandler handles GET /api/best-athlete.
func (h *AnalysisHandler) BestAthleteHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, http.StatusMethodNotAllowed, "Only GET method is allowed")
		return
	}
	query := r.URL.Query()
	yearFrom, err := strconv.Atoi(query.Get("from"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("invalid 'from' year: %q", query.Get("from")))
		return
	}
	yearTo, err := strconv.Atoi(query.Get("to"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("invalid 'to' year: %q", query.Get("to")))
		return
	}

	rows := h.analysis.BestAthlete(yearFrom, yearTo, query.Get("gender"))
	respondWithJSON(w, http.StatusOK, rows)
}

// CountriesHandler handles GET /api/countries.
func (h *AnalysisHandler) CountriesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, http.StatusMethodNotAllowed, "Only GET method is allowed")
		return
	}
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("invalid 'year': %q", r.URL.Query().Get("year")))
		return
	}

	counts := h.analysis.CountryDistribution(year)
	respondWithJSON(w, http.StatusOK, counts)
}

// TeamsHandler handles GET /api/teams.
func (h *AnalysisHandler) TeamsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, http.StatusMethodNotAllowed, "Only GET method is allowed")
		return
	}
	query := r.URL.Query()
	year, err := strconv.Atoi(query.Get("year"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("invalid 'year': %q", query.Get("year")))
		return
	}

	rows := h.analysis.TeamRanking(year, query.Get("distance"))
	respondWithJSON(w, http.StatusOK, rows)
}

// PredictionHandler handles GET /api/prediction.
func (h *AnalysisHandler) PredictionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, http.StatusMethodNotAllowed, "Only GET method is allowed")
		return
	}

	prediction := h.analysis.PredictWinner(r.URL.Query().Get("distance"))
	respondWithJSON(w, http.StatusOK, prediction)
}
