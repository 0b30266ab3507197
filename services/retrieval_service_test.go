// services/retrieval_service_test.go
package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mayhem092/SkiingAnalyzer/database"
	"github.com/mayhem092/SkiingAnalyzer/models"
	"github.com/mayhem092/SkiingAnalyzer/scraper"
)

const testStartYear = 2024

func fakeLandingPage() string {
	return `<html><body><form method="post">
<input type="hidden" name="__VIEWSTATE" id="__VIEWSTATE" value="VSTOKEN" />
<input type="hidden" name="__EVENTVALIDATION" id="__EVENTVALIDATION" value="EVTOKEN" />
</form></body></html>`
}

func fakeResultsPage(year string, names ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><select id="dnn_ctr1025_Etusivu_ddlVuosi2x">`)
	fmt.Fprintf(&b, `<option selected="selected" value="%s">%s</option>`, year, year)
	b.WriteString(`</select><table>`)
	for i, name := range names {
		fmt.Fprintf(&b, `<tr id="dnn_ctr1025_Etusivu_dgrTulokset_ctl00__%d">`, i)
		cells := []string{year, "P50", "2:45:30", "1", "1", "&nbsp;", "M", name, "Lahti", "FIN", "1970", "Ski Club"}
		for _, cell := range cells {
			fmt.Fprintf(&b, "<td>%s</td>", cell)
		}
		b.WriteString("</tr>")
	}
	b.WriteString(`</table></body></html>`)
	return b.String()
}

// fakeArchive mimics the results archive: the landing page on GET, one results
// page per requested year on POST. Years listed in garbageYears answer with an
// unparseable page.
type fakeArchive struct {
	server       *httptest.Server
	gets         atomic.Int64
	posts        atomic.Int64
	garbageYears map[string]bool
}

func newFakeArchive(t *testing.T) *fakeArchive {
	t.Helper()
	archive := &fakeArchive{garbageYears: map[string]bool{}}
	archive.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			archive.gets.Add(1)
			fmt.Fprint(w, fakeLandingPage())
			return
		}

		archive.posts.Add(1)
		year := r.FormValue("dnn$ctr1025$Etusivu$ddlVuosi2x")
		if archive.garbageYears[year] {
			fmt.Fprint(w, "<html><body>archive maintenance</body></html>")
			return
		}
		fmt.Fprint(w, fakeResultsPage(year, "Korhonen Matti", "Virtanen Juha"))
	}))
	t.Cleanup(archive.server.Close)
	return archive
}

func (f *fakeArchive) client() *scraper.Client {
	return scraper.NewClient(f.server.URL, f.server.URL)
}

// progressLog records every callback emission for later inspection.
type progressLog struct {
	mu    sync.Mutex
	pairs [][2]int
}

func (p *progressLog) record(received, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pairs = append(p.pairs, [2]int{received, total})
}

func (p *progressLog) last() [2]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.pairs) == 0 {
		return [2]int{-1, -1}
	}
	return p.pairs[len(p.pairs)-1]
}

func newTestService(store *database.RecordStore, archive *fakeArchive, cacheFile string) *RetrievalService {
	return NewRetrievalService(store, archive.client(), cacheFile, testStartYear, time.Millisecond)
}

func TestStartFetchesWhenCacheMissing(t *testing.T) {
	archive := newFakeArchive(t)
	cacheFile := filepath.Join(t.TempDir(), "data.json")
	store := database.NewRecordStore(false)
	service := newTestService(store, archive, cacheFile)

	progress := &progressLog{}
	service.SetProgressFunc(progress.record)

	require.NoError(t, service.Start(context.Background()))

	expectedYears := time.Now().Year() - testStartYear + 1
	assert.Equal(t, int64(1), archive.gets.Load())
	assert.Equal(t, int64(expectedYears), archive.posts.Load())
	assert.Equal(t, expectedYears, store.YearCount())

	bucket := store.GetYear(testStartYear, "P50")["P50"]
	require.Len(t, bucket, 2)
	assert.Equal(t, "Korhonen Matti", bucket[0].Name)

	// The idle sentinel closes the sequence after the per-reply emissions.
	assert.Equal(t, [2]int{0, 0}, progress.last())
	assert.True(t, service.Status().Ready)

	_, err := os.Stat(cacheFile)
	assert.NoError(t, err, "cache file must be written once all replies are in")
}

func TestStartUsesMatchingCache(t *testing.T) {
	archive := newFakeArchive(t)
	cacheFile := filepath.Join(t.TempDir(), "data.json")

	seeded := database.NewRecordStore(false)
	seeded.MergeYear(2024, models.YearResults{
		"P50": {{Year: "2024", Distance: "P50", Time: "2:45:30", Name: "Korhonen Matti"}},
	})
	require.NoError(t, seeded.SaveFile(cacheFile))

	store := database.NewRecordStore(false)
	service := newTestService(store, archive, cacheFile)
	require.NoError(t, service.Start(context.Background()))

	assert.Equal(t, int64(0), archive.gets.Load(), "a valid cache must not touch the network")
	assert.Equal(t, int64(0), archive.posts.Load())
	assert.Equal(t, 1, store.YearCount())
	assert.True(t, service.Status().Ready)
}

func TestStartRefetchesStaleCache(t *testing.T) {
	archive := newFakeArchive(t)
	cacheFile := filepath.Join(t.TempDir(), "data.json")

	// Cache built without anonymization, pipeline configured with it.
	seeded := database.NewRecordStore(false)
	seeded.MergeYear(2024, models.YearResults{
		"P50": {{Year: "2024", Distance: "P50", Time: "2:45:30", Name: "Korhonen Matti"}},
	})
	require.NoError(t, seeded.SaveFile(cacheFile))

	store := database.NewRecordStore(true)
	service := newTestService(store, archive, cacheFile)
	require.NoError(t, service.Start(context.Background()))

	assert.Equal(t, int64(1), archive.gets.Load(), "mode mismatch must trigger a full refetch")
	assert.NotZero(t, archive.posts.Load())
	record := store.GetYear(2024, "P50")["P50"][0]
	assert.NotEqual(t, "Korhonen Matti", record.Name)
}

func TestStartRefetchesCorruptCache(t *testing.T) {
	archive := newFakeArchive(t)
	cacheFile := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(cacheFile, []byte("{not json"), 0644))

	store := database.NewRecordStore(false)
	service := newTestService(store, archive, cacheFile)
	require.NoError(t, service.Start(context.Background()))

	assert.Equal(t, int64(1), archive.gets.Load())
	assert.NotZero(t, store.YearCount())
}

func TestStartAnonymizesRecords(t *testing.T) {
	archive := newFakeArchive(t)
	cacheFile := filepath.Join(t.TempDir(), "data.json")
	store := database.NewRecordStore(true)
	service := newTestService(store, archive, cacheFile)

	require.NoError(t, service.Start(context.Background()))

	record := store.GetYear(2024, "P50")["P50"][0]
	assert.Equal(t, "[Redacted]", record.Sex)
	assert.Equal(t, "[Redacted]", record.PlacementMale)
	assert.Equal(t, "[Redacted]", record.PlacementFemale)

	nameSum := md5.Sum([]byte("Korhonen Matti"))
	assert.Equal(t, hex.EncodeToString(nameSum[:])[:10], record.Name)

	localitySum := md5.Sum([]byte("Lahti"))
	assert.Equal(t, hex.EncodeToString(localitySum[:])[:10], record.Locality)

	// Non-identifying fields pass through untouched.
	assert.Equal(t, "2:45:30", record.Time)
	assert.Equal(t, "FIN", record.Nationality)
	assert.Equal(t, "Ski Club", record.Team)
}

func TestRefreshDiscardsCacheAndRefetches(t *testing.T) {
	archive := newFakeArchive(t)
	cacheFile := filepath.Join(t.TempDir(), "data.json")
	store := database.NewRecordStore(false)
	service := newTestService(store, archive, cacheFile)

	require.NoError(t, service.Start(context.Background()))
	postsAfterStart := archive.posts.Load()

	require.NoError(t, service.Refresh(context.Background()))

	assert.Equal(t, int64(2), archive.gets.Load())
	assert.Equal(t, postsAfterStart*2, archive.posts.Load())
	assert.True(t, service.Status().Ready)

	_, err := os.Stat(cacheFile)
	assert.NoError(t, err, "refresh must rewrite the cache file")
}

// A year that answers with an unparseable page contributes no records but must
// not stall the completion barrier.
func TestGarbageYearDegradesSilently(t *testing.T) {
	archive := newFakeArchive(t)
	archive.garbageYears["2025"] = true
	cacheFile := filepath.Join(t.TempDir(), "data.json")
	store := database.NewRecordStore(false)
	service := newTestService(store, archive, cacheFile)

	progress := &progressLog{}
	service.SetProgressFunc(progress.record)

	require.NoError(t, service.Start(context.Background()))

	assert.Empty(t, store.GetYear(2025, ""))
	assert.NotEmpty(t, store.GetYear(2024, ""))
	assert.Equal(t, [2]int{0, 0}, progress.last())
	assert.True(t, service.Status().Ready)
}

func TestStartFailsWithoutFormTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>no hidden inputs</body></html>")
	}))
	defer server.Close()

	store := database.NewRecordStore(false)
	client := scraper.NewClient(server.URL, server.URL)
	service := NewRetrievalService(store, client, filepath.Join(t.TempDir(), "data.json"), testStartYear, time.Millisecond)

	err := service.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "form tokens")
	assert.False(t, service.Status().Ready)
}

func TestStatusBeforeStart(t *testing.T) {
	archive := newFakeArchive(t)
	store := database.NewRecordStore(false)
	service := newTestService(store, archive, filepath.Join(t.TempDir(), "data.json"))

	status := service.Status()
	assert.Equal(t, 0, status.Received)
	assert.Equal(t, 0, status.Total)
	assert.False(t, status.Ready)
}
