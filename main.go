// main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/mayhem092/SkiingAnalyzer/config"
	"github.com/mayhem092/SkiingAnalyzer/database"
	"github.com/mayhem092/SkiingAnalyzer/handlers"
	"github.com/mayhem092/SkiingAnalyzer/scraper"
	"github.com/mayhem092/SkiingAnalyzer/services"
)

func main() {
	log.Println("Starting Finlandia-hiihto results backend...")

	configPath := "config/config.yaml"
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		configPath = "config.yaml"
		if _, errFallback := os.Stat(configPath); os.IsNotExist(errFallback) {
			log.Fatalf("Config file not found at default paths. Error: %v", errFallback)
		}
	}

	if err := config.LoadConfig(configPath); err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}
	log.Printf("Configuration loaded. Server port: %s, cache file: %s, anonymize: %v",
		config.AppConfig.Server.Port, config.AppConfig.Cache.File, config.AppConfig.Anonymize)

	store := database.NewRecordStore(config.AppConfig.Anonymize)
	client := scraper.NewClient(config.AppConfig.Results.ArchiveURL, config.AppConfig.Results.Origin)
	retrieval := services.NewRetrievalService(
		store,
		client,
		config.AppConfig.Cache.File,
		config.AppConfig.Results.StartYear,
		config.AppConfig.Results.RequestDelay,
	)
	retrieval.SetProgressFunc(func(received, total int) {
		if received == 0 && total == 0 {
			log.Println("Retrieval: data ready")
			return
		}
		log.Printf("Retrieval: progress %d/%d", received, total)
	})
	analysis := services.NewAnalysisService(store)

	// Populate the store in the background; queries against an unfinished
	// store simply see fewer years, and /api/status tells callers when the
	// data is complete.
	go func() {
		if err := retrieval.Start(context.Background()); err != nil {
			log.Printf("ERROR Retrieval: initial data retrieval failed: %v", err)
		}
	}()

	analysisHandler := handlers.NewAnalysisHandler(analysis)
	adminHandler := handlers.NewAdminHandler(retrieval)

	http.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `{"status": "ok", "message": "results backend is healthy"}`)
	})
	http.HandleFunc("/api/status", adminHandler.StatusHandler)
	http.HandleFunc("/api/admin/refresh", adminHandler.RefreshHandler)

	http.HandleFunc("/api/search", analysisHandler.SearchHandler)
	http.HandleFunc("/api/search/export", analysisHandler.ExportSearchHandler)
	http.HandleFunc("/api/compare", analysisHandler.CompareHandler)
	http.HandleFunc("/api/times", analysisHandler.TimesHandler)
	http.HandleFunc("/api/best-athlete", analysisHandler.BestAthleteHandler)
	http.HandleFunc("/api/countries", analysisHandler.CountriesHandler)
	http.HandleFunc("/api/teams", analysisHandler.TeamsHandler)
	http.HandleFunc("/api/prediction", analysisHandler.PredictionHandler)

	serverAddr := ":" + config.AppConfig.Server.Port
	log.Printf("Server starting on http://localhost%s\n", serverAddr)
	if err := http.ListenAndServe(serverAddr, nil); err != nil {
		log.Fatalf("Error starting server: %v", err)
	}
}
