// services/analysis_service.go
package services

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/mayhem092/SkiingAnalyzer/database"
	"github.com/mayhem092/SkiingAnalyzer/models"
	"github.com/mayhem092/SkiingAnalyzer/utils"
)

const notAvailable = "not available"

// predictWinner scans this fixed historical window.
const (
	predictionFromYear = 2014
	predictionToYear   = 2019
)

var nonDigits = regexp.MustCompile(`\D`)

// AnalysisService answers the analytical queries over a record store
// snapshot. Every operation is a pure read; the service holds no state of its
// own and is safe for reentrant use.
type AnalysisService struct {
	store *database.RecordStore
}

func NewAnalysisService(store *database.RecordStore) *AnalysisService {
	return &AnalysisService{store: store}
}

// Search collects the rows of every year in the requested range, narrows them
// through the filter chain and truncates each year to the requested top-N.
// The filters apply in a fixed order: forename, familyname, gender, team,
// nationality, locality, minimum time, maximum time. An unrecognized distance
// label matches nothing; the "All types" label includes every distance.
func (a *AnalysisService) Search(req models.SearchRequest) []models.ResultRow {
	code := utils.DistanceCode(req.Distance)
	if code == "" {
		return nil
	}

	var out []models.ResultRow
	for year := req.YearFrom; year <= req.YearTo; year++ {
		rows := a.yearRows(year, code)
		rows = filterRows(rows, req)

		if req.Top != "" && req.Top != "All" {
			// A non-numeric top value keeps zero rows, like an explicit 0.
			n, _ := strconv.Atoi(req.Top)
			if n < 0 {
				n = 0
			}
			if len(rows) > n {
				rows = rows[:n]
			}
		}
		out = append(out, rows...)
	}
	return out
}

// Compare builds the full, unfiltered row sets of two race editions. Both
// labels must resolve to a concrete distance code; the "All types" sentinel
// and unknown labels yield an empty comparison.
func (a *AnalysisService) Compare(distance1 string, year1 int, distance2 string, year2 int) models.CompareResult {
	code1 := utils.DistanceCode(distance1)
	code2 := utils.DistanceCode(distance2)

	result := models.CompareResult{}
	if code1 == "" || code2 == "" || code1 == utils.AllDistances || code2 == utils.AllDistances {
		return result
	}

	result.Rows1 = a.yearRows(year1, code1)
	result.Rows2 = a.yearRows(year2, code2)
	result.Count1 = len(result.Rows1)
	result.Count2 = len(result.Rows2)
	return result
}

// TimeProgression returns every result of one athlete across the year range
// and all distances, as (year, distance code, whole hours) points for
// plotting. At least one name component is required.
func (a *AnalysisService) TimeProgression(yearFrom, yearTo int, forename, familyname string) []models.TimesPoint {
	if forename == "" && familyname == "" {
		return nil
	}

	var points []models.TimesPoint
	for year := yearFrom; year <= yearTo; year++ {
		rows := a.yearRows(year, utils.AllDistances)
		rows = filterRows(rows, models.SearchRequest{Forename: forename, Familyname: familyname})
		for _, row := range rows {
			points = append(points, models.TimesPoint{
				Year:     row.Year,
				Distance: row.Distance,
				Hours:    int(utils.ParseHours(row.Time)),
			})
		}
	}
	return points
}

// BestAthlete emits one row per race won by the requested gender in the year
// range: for Male the record placed "1" overall with sex "M", for Female the
// record whose female placement is "1". Races without such a record emit
// nothing.
func (a *AnalysisService) BestAthlete(yearFrom, yearTo int, gender string) []models.ResultRow {
	var out []models.ResultRow
	for year := yearFrom; year <= yearTo; year++ {
		data := a.store.GetYear(year, "")
		for _, code := range sortedCodes(data) {
			for _, record := range data[code] {
				switch gender {
				case "Male":
					if record.Placement == "1" && record.Sex == "M" {
						out = append(out, buildRow(record, code))
					}
				case "Female":
					if record.PlacementFemale == "1" {
						out = append(out, buildRow(record, code))
					}
				}
			}
		}
	}
	return out
}

// CountryDistribution counts the year's participants across every distance,
// grouped by nationality.
func (a *AnalysisService) CountryDistribution(year int) map[string]int {
	counts := map[string]int{}
	data := a.store.GetYear(year, "")
	for _, bucket := range data {
		for _, record := range bucket {
			counts[record.Nationality]++
		}
	}
	return counts
}

// TeamRanking ranks the teams of one race by the summed time of their first
// four finishers. Teams with fewer than four members do not qualify. The
// combined times carry centiseconds through seconds, minutes and hours
// explicitly, and the ranking orders the zero-padded HH:MM:SS.cc strings
// ascending, which matches numeric order as long as the padding width stays
// fixed. Only the first ten teams are returned, numbered from 1.
func (a *AnalysisService) TeamRanking(year int, distanceLabel string) []models.TeamRow {
	code := utils.DistanceCode(distanceLabel)
	if code == "" || code == utils.AllDistances {
		return nil
	}

	bucket := a.store.GetYear(year, code)[code]

	// Times per team, in encounter order; team names in first-encounter
	// order so equal combined times rank stably.
	teamTimes := map[string][]string{}
	var teamOrder []string
	for _, record := range bucket {
		if record.Team == "" {
			continue
		}
		if _, seen := teamTimes[record.Team]; !seen {
			teamOrder = append(teamOrder, record.Team)
		}
		teamTimes[record.Team] = append(teamTimes[record.Team], record.Time)
	}

	type rankedTeam struct {
		name     string
		combined string
	}
	var ranked []rankedTeam
	for _, name := range teamOrder {
		times := teamTimes[name]
		if len(times) < 4 {
			continue
		}
		ranked = append(ranked, rankedTeam{name: name, combined: sumClockTimes(times[:4])})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].combined < ranked[j].combined })

	var rows []models.TeamRow
	for i, team := range ranked {
		if i == 10 {
			break
		}
		average := utils.FormatHours(utils.ParseHours(team.combined) / 4)
		rows = append(rows, models.TeamRow{
			Rank:         i + 1,
			Team:         team.name,
			Year:         strconv.Itoa(year),
			Distance:     distanceLabel,
			CombinedTime: team.combined,
			AverageTime:  average,
		})
	}
	return rows
}

// PredictWinner looks at the winners of the 2014-2019 editions of one
// distance. The athlete with the most wins is the prediction (first seen wins
// a tie) and the predicted time is the arithmetic mean of every collected
// winning time, not just the predicted athlete's.
func (a *AnalysisService) PredictWinner(distanceLabel string) models.Prediction {
	code := utils.DistanceCode(distanceLabel)

	winCounts := map[string]int{}
	var winnerOrder []string
	var winningTimes []string

	for year := predictionFromYear; year <= predictionToYear; year++ {
		bucket := a.store.GetYear(year, code)[code]
		if len(bucket) == 0 {
			continue
		}
		winner := bucket[0]
		if _, seen := winCounts[winner.Name]; !seen {
			winnerOrder = append(winnerOrder, winner.Name)
		}
		winCounts[winner.Name]++
		winningTimes = append(winningTimes, winner.Time)
	}

	if len(winningTimes) == 0 {
		return models.Prediction{Distance: distanceLabel}
	}

	predicted := ""
	for _, name := range winnerOrder {
		if predicted == "" || winCounts[name] > winCounts[predicted] {
			predicted = name
		}
	}

	var total float64
	for _, t := range winningTimes {
		total += utils.ParseHours(t)
	}
	mean := total / float64(len(winningTimes))

	return models.Prediction{
		Name:     predicted,
		Distance: distanceLabel,
		Time:     utils.FormatHours(mean),
	}
}

// yearRows builds the display rows of one year. The AllDistances sentinel
// walks every bucket in sorted code order so output is deterministic.
func (a *AnalysisService) yearRows(year int, code string) []models.ResultRow {
	var rows []models.ResultRow
	if code == utils.AllDistances {
		data := a.store.GetYear(year, "")
		for _, bucketCode := range sortedCodes(data) {
			for _, record := range data[bucketCode] {
				rows = append(rows, buildRow(record, bucketCode))
			}
		}
		return rows
	}

	data := a.store.GetYear(year, code)
	for _, record := range data[code] {
		rows = append(rows, buildRow(record, code))
	}
	return rows
}

func buildRow(record models.SkierRecord, code string) models.ResultRow {
	return models.ResultRow{
		Year:         record.Year,
		Distance:     code,
		Time:         record.Time,
		Placement:    record.Placement,
		Sex:          record.Sex,
		Name:         record.Name,
		Locality:     record.Locality,
		Nationality:  record.Nationality,
		BirthYear:    record.BirthYear,
		Team:         record.Team,
		AverageSpeed: averageSpeed(code, record.Time),
	}
}

// averageSpeed divides the kilometers encoded in the distance code by the
// parsed race time. The result keeps at most two decimals, truncated rather
// than rounded.
func averageSpeed(code, raceTime string) string {
	hours := utils.ParseHours(raceTime)
	if raceTime == "" || hours == 0 {
		return notAvailable
	}

	km, err := strconv.ParseFloat(nonDigits.ReplaceAllString(code, ""), 64)
	if err != nil {
		return notAvailable
	}

	speed := strconv.FormatFloat(km/hours, 'f', -1, 64)
	if i := strings.Index(speed, "."); i >= 0 && len(speed) > i+3 {
		speed = speed[:i+3]
	}
	return speed
}

func filterRows(rows []models.ResultRow, req models.SearchRequest) []models.ResultRow {
	if req.Forename != "" {
		rows = keepRows(rows, func(r models.ResultRow) bool {
			_, forename := splitName(r.Name)
			return strings.EqualFold(forename, req.Forename)
		})
	}
	if req.Familyname != "" {
		rows = keepRows(rows, func(r models.ResultRow) bool {
			familyname, _ := splitName(r.Name)
			return strings.EqualFold(familyname, req.Familyname)
		})
	}
	switch req.Gender {
	case "Male":
		rows = keepRows(rows, func(r models.ResultRow) bool { return r.Sex == "M" })
	case "Female":
		rows = keepRows(rows, func(r models.ResultRow) bool { return r.Sex == "F" })
	}
	if req.Team != "" {
		rows = keepRows(rows, func(r models.ResultRow) bool { return strings.EqualFold(r.Team, req.Team) })
	}
	if req.Nationality != "" {
		rows = keepRows(rows, func(r models.ResultRow) bool { return strings.EqualFold(r.Nationality, req.Nationality) })
	}
	if req.Locality != "" {
		rows = keepRows(rows, func(r models.ResultRow) bool { return strings.EqualFold(r.Locality, req.Locality) })
	}
	if req.TimeFrom != "" && req.TimeFrom != "0" {
		minHours, _ := strconv.ParseFloat(req.TimeFrom, 64)
		rows = keepRows(rows, func(r models.ResultRow) bool { return utils.ParseHours(r.Time) >= minHours })
	}
	if req.TimeTo != "" && req.TimeTo != "All" {
		maxHours, _ := strconv.ParseFloat(req.TimeTo, 64)
		rows = keepRows(rows, func(r models.ResultRow) bool { return utils.ParseHours(r.Time) <= maxHours })
	}
	return rows
}

func keepRows(rows []models.ResultRow, match func(models.ResultRow) bool) []models.ResultRow {
	var kept []models.ResultRow
	for _, row := range rows {
		if match(row) {
			kept = append(kept, row)
		}
	}
	return kept
}

// splitName splits a "Familyname Forename" cell. Names without exactly two
// tokens keep their first token as the family name and an empty forename, so
// a non-empty forename filter never matches them.
func splitName(name string) (familyname, forename string) {
	tokens := strings.Split(name, " ")
	if len(tokens) == 2 {
		return tokens[0], tokens[1]
	}
	return tokens[0], ""
}

// sumClockTimes adds "H:MM:SS" / "H:MM:SS.cc" times with explicit overflow
// propagation: centiseconds into seconds, seconds into minutes, minutes into
// hours. The 2-wide zero padding of the result is what makes the team
// ranking's string comparison equal numeric ordering.
func sumClockTimes(times []string) string {
	var hours, minutes, seconds, centis int
	for _, t := range times {
		parts := strings.Split(t, ":")
		if len(parts) != 3 {
			continue
		}
		h, _ := strconv.Atoi(parts[0])
		m, _ := strconv.Atoi(parts[1])
		sec := parts[2]
		if i := strings.Index(sec, "."); i >= 0 {
			s, _ := strconv.Atoi(sec[:i])
			c, _ := strconv.Atoi(sec[i+1:])
			seconds += s
			centis += c
		} else {
			s, _ := strconv.Atoi(sec)
			seconds += s
		}
		hours += h
		minutes += m
	}

	seconds += centis / 100
	centis %= 100
	minutes += seconds / 60
	seconds %= 60
	hours += minutes / 60
	minutes %= 60

	return fmt.Sprintf("%02d:%02d:%02d.%02d", hours, minutes, seconds, centis)
}

func sortedCodes(data models.YearResults) []string {
	codes := make([]string, 0, len(data))
	for code := range data {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
