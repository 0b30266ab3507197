// scraper/results_page.go
package scraper

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mayhem092/SkiingAnalyzer/models"
)

const (
	viewStateInput       = "__VIEWSTATE"
	eventValidationInput = "__EVENTVALIDATION"

	yearSelectID = "dnn_ctr1025_Etusivu_ddlVuosi2x"
	rowIDPrefix  = "dnn_ctr1025_Etusivu_dgrTulokset_ctl00__"

	selectedMarker = "selected="
	cellMarker     = "<td"
	openMarker     = ">"
	closeMarker    = "<"

	emptyCell = "&nbsp;"
)

// resultColumns is the fixed column order of one result row on the archive
// page. Extraction is purely positional; if the site reorders its table this
// list must follow.
var resultColumns = []string{
	"year", "distance", "time", "placement", "placementMale",
	"placementFemale", "sex", "name", "locality", "nationality",
	"birthYear", "team",
}

// ExtractFormTokens pulls the two hidden ASP.NET form tokens out of the
// archive landing page. Either token comes back empty when its input is
// missing; callers must treat empty tokens as "do not POST".
func ExtractFormTokens(page string) (viewState, eventValidation string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", ""
	}
	viewState = doc.Find("input[name=" + viewStateInput + "]").AttrOr("value", "")
	eventValidation = doc.Find("input[name=" + eventValidationInput + "]").AttrOr("value", "")
	return viewState, eventValidation
}

// pageCursor is a forward-only scanner over the raw page text. Every seek
// either advances past the marker or reports a miss; the cursor never backs
// up, which keeps the extraction order-dependent on purpose.
type pageCursor struct {
	page string
	pos  int
}

// seek advances the cursor past the next occurrence of marker.
func (c *pageCursor) seek(marker string) bool {
	i := strings.Index(c.page[c.pos:], marker)
	if i < 0 {
		return false
	}
	c.pos += i + len(marker)
	return true
}

// until returns the text between the cursor and the next occurrence of
// marker, leaving the cursor on the marker.
func (c *pageCursor) until(marker string) (string, bool) {
	i := strings.Index(c.page[c.pos:], marker)
	if i < 0 {
		return "", false
	}
	text := c.page[c.pos : c.pos+i]
	c.pos += i
	return text, true
}

// ExtractYearResults scans one results page and returns the selected year
// together with the records of every distance on the page, bucketed by the
// raw distance cell value and kept in listing order (index 0 is the winner).
//
// The scan is marker-based, not a structural HTML parse: rows are located by
// their "<rowIDPrefix><index>" identifiers counting up from 0, and the first
// missing identifier is the page's "no more rows" signal. A row whose cells
// cannot all be located aborts the scan; whatever was extracted before the
// miss is returned as-is.
func ExtractYearResults(page string) (year string, results models.YearResults) {
	results = models.YearResults{}
	cur := &pageCursor{page: page}

	// The currently selected option of the year dropdown names the year the
	// reply actually answers, regardless of what was requested.
	if !cur.seek(yearSelectID) || !cur.seek(selectedMarker) || !cur.seek(openMarker) {
		return "", results
	}
	year, ok := cur.until(closeMarker)
	if !ok {
		return "", results
	}

	for index := 0; ; index++ {
		if !cur.seek(rowIDPrefix + strconv.Itoa(index)) {
			break
		}

		record := models.SkierRecord{}
		complete := true
		for _, column := range resultColumns {
			if !cur.seek(cellMarker) || !cur.seek(openMarker) {
				complete = false
				break
			}
			value, ok := cur.until(closeMarker)
			if !ok {
				complete = false
				break
			}
			if value == emptyCell {
				value = ""
			}
			setColumn(&record, column, value)
		}
		if !complete {
			break
		}

		results[record.Distance] = append(results[record.Distance], record)
	}

	return year, results
}

func setColumn(r *models.SkierRecord, column, value string) {
	switch column {
	case "year":
		r.Year = value
	case "distance":
		r.Distance = value
	case "time":
		r.Time = value
	case "placement":
		r.Placement = value
	case "placementMale":
		r.PlacementMale = value
	case "placementFemale":
		r.PlacementFemale = value
	case "sex":
		r.Sex = value
	case "name":
		r.Name = value
	case "locality":
		r.Locality = value
	case "nationality":
		r.Nationality = value
	case "birthYear":
		r.BirthYear = value
	case "team":
		r.Team = value
	}
}
