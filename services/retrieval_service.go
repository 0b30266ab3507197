// services/retrieval_service.go
package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/mayhem092/SkiingAnalyzer/database"
	"github.com/mayhem092/SkiingAnalyzer/models"
	"github.com/mayhem092/SkiingAnalyzer/scraper"
)

// redactedMarker replaces directly identifying categorical fields when
// anonymization is on. Hashed fields keep a 10-hex-character MD5 prefix so
// equal inputs stay comparable without being reversible.
const (
	redactedMarker = "[Redacted]"
	hashPrefixLen  = 10
)

// ProgressFunc receives retrieval progress. The pair (0, 0) is reserved: it
// means "pipeline idle, store ready", never "zero requests".
type ProgressFunc func(received, total int)

// requestTracker is the completion barrier of the fetch phase. All requests
// are marked sent up front; each reply increments received after its records
// have been merged, and exactly one caller observes received == sent.
type requestTracker struct {
	mu       sync.Mutex
	sent     int
	received int
}

func (t *requestTracker) begin(total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = total
	t.received = 0
}

func (t *requestTracker) markReceived() (received, sent int, done bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.received++
	return t.received, t.sent, t.received == t.sent
}

func (t *requestTracker) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = 0
	t.received = 0
}

func (t *requestTracker) status() (received, sent int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.received, t.sent
}

// RetrievalService orchestrates the scrape sequence: archive GET for the form
// tokens, one POST per year from the configured start year to the current
// one, extraction, optional anonymization, merge into the record store and a
// single persistence once every reply is in. A year whose reply cannot be
// parsed degrades silently to zero records; there are no retries.
type RetrievalService struct {
	store     *database.RecordStore
	client    *scraper.Client
	cacheFile string
	startYear int
	limiter   *rate.Limiter
	tracker   requestTracker

	mu       sync.Mutex
	progress ProgressFunc
	ready    bool
}

// NewRetrievalService wires a retrieval pipeline. requestDelay paces the
// per-year POST burst so the archive is not hammered with ~50 simultaneous
// requests.
func NewRetrievalService(store *database.RecordStore, client *scraper.Client, cacheFile string, startYear int, requestDelay time.Duration) *RetrievalService {
	return &RetrievalService{
		store:     store,
		client:    client,
		cacheFile: cacheFile,
		startYear: startYear,
		limiter:   rate.NewLimiter(rate.Every(requestDelay), 4),
	}
}

// SetProgressFunc registers the progress callback. Must be called before
// Start.
func (s *RetrievalService) SetProgressFunc(fn ProgressFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = fn
}

// Status reports the current progress pair and whether the store is ready.
func (s *RetrievalService) Status() models.RetrievalStatus {
	received, sent := s.tracker.status()
	s.mu.Lock()
	ready := s.ready
	s.mu.Unlock()
	return models.RetrievalStatus{Received: received, Total: sent, Ready: ready}
}

// Start makes the store ready: from the cache file when it exists and matches
// the requested anonymization mode, otherwise by scraping the archive. A
// cache produced under the other mode counts as stale and triggers a full
// refresh.
func (s *RetrievalService) Start(ctx context.Context) error {
	loaded, stale, err := s.store.LoadFile(s.cacheFile)
	if err != nil {
		log.Printf("WARN Retrieval: unreadable cache file, refetching: %v", err)
	}

	if loaded && !stale {
		log.Printf("Retrieval: loaded %d years from cache file %s", s.store.YearCount(), s.cacheFile)
		s.finish()
		return nil
	}
	if loaded && stale {
		log.Printf("Retrieval: cache file %s was built with different anonymization mode, rebuilding", s.cacheFile)
		return s.Refresh(ctx)
	}
	return s.fetchAll(ctx)
}

// Refresh discards the cache file and every stored record, then re-runs the
// whole scrape sequence.
func (s *RetrievalService) Refresh(ctx context.Context) error {
	if err := os.Remove(s.cacheFile); err != nil && !os.IsNotExist(err) {
		log.Printf("WARN Retrieval: failed to remove cache file %s: %v", s.cacheFile, err)
	}
	s.store.Clear()
	s.mu.Lock()
	s.ready = false
	s.mu.Unlock()
	return s.fetchAll(ctx)
}

func (s *RetrievalService) fetchAll(ctx context.Context) error {
	page, err := s.client.FetchArchivePage(ctx)
	if err != nil {
		return err
	}
	viewState, eventValidation := scraper.ExtractFormTokens(page)
	if viewState == "" || eventValidation == "" {
		return fmt.Errorf("archive page yielded no form tokens")
	}

	endYear := time.Now().Year()
	total := endYear - s.startYear + 1
	log.Printf("Retrieval: fetching results for %d years (%d-%d)", total, s.startYear, endYear)
	s.tracker.begin(total)

	g, ctx := errgroup.WithContext(ctx)
	for year := s.startYear; year <= endYear; year++ {
		year := year
		g.Go(func() error {
			if err := s.limiter.Wait(ctx); err == nil {
				s.fetchYear(ctx, year, viewState, eventValidation)
			}
			s.completeRequest()
			return nil
		})
	}
	return g.Wait()
}

// fetchYear requests and merges one year. Any failure on the way degrades to
// "no records for this year"; the progress counter still advances in
// completeRequest.
func (s *RetrievalService) fetchYear(ctx context.Context, year int, viewState, eventValidation string) {
	page, err := s.client.FetchYearResults(ctx, year, viewState, eventValidation)
	if err != nil {
		log.Printf("WARN Retrieval: year %d request failed: %v", year, err)
		return
	}

	yearValue, results := scraper.ExtractYearResults(page)
	parsedYear, err := strconv.Atoi(strings.TrimSpace(yearValue))
	if err != nil {
		log.Printf("WARN Retrieval: reply for year %d carried no usable year marker", year)
		return
	}

	if s.store.Anonymous() {
		anonymizeResults(results)
	}

	// The merge is keyed by the year parsed out of the reply, not the year
	// requested. Completion order of the POSTs is unspecified.
	s.store.MergeYear(parsedYear, results)
}

// completeRequest advances the barrier. The caller that observes the final
// reply persists the store exactly once and emits the (0,0) ready sentinel.
func (s *RetrievalService) completeRequest() {
	received, sent, done := s.tracker.markReceived()
	s.emit(received, sent)
	if !done {
		return
	}

	if err := s.store.SaveFile(s.cacheFile); err != nil {
		log.Printf("ERROR Retrieval: failed to persist cache file: %v", err)
	} else {
		log.Printf("Retrieval: all %d replies handled, cache saved to %s", sent, s.cacheFile)
	}
	s.tracker.reset()
	s.finish()
}

func (s *RetrievalService) finish() {
	s.mu.Lock()
	s.ready = true
	fn := s.progress
	s.mu.Unlock()
	if fn != nil {
		fn(0, 0)
	}
}

func (s *RetrievalService) emit(received, total int) {
	s.mu.Lock()
	fn := s.progress
	s.mu.Unlock()
	if fn != nil {
		fn(received, total)
	}
}

// anonymizeResults redacts and hashes the identifying fields in place.
// Applied once at parse time; never reversible.
func anonymizeResults(results models.YearResults) {
	for _, bucket := range results {
		for i := range bucket {
			record := &bucket[i]
			record.Sex = redactedMarker
			record.PlacementMale = redactedMarker
			record.PlacementFemale = redactedMarker
			record.Name = hashPrefix(record.Name)
			record.Locality = hashPrefix(record.Locality)
			record.BirthYear = hashPrefix(record.BirthYear)
		}
	}
}

func hashPrefix(value string) string {
	sum := md5.Sum([]byte(value))
	return hex.EncodeToString(sum[:])[:hashPrefixLen]
}
