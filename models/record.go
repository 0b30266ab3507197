// models/record.go
package models

// SkierRecord is one row of one race result as scraped from the results
// archive. All fields are kept as the raw cell strings from the page; the
// "&nbsp;" placeholder cells are normalized to "" during extraction.
// Records are immutable after parsing.
type SkierRecord struct {
	Year            string `json:"year"`
	Distance        string `json:"distance"`
	Time            string `json:"time"`
	Placement       string `json:"placement"`
	PlacementMale   string `json:"placementMale"`
	PlacementFemale string `json:"placementFemale"`
	Sex             string `json:"sex"`
	Name            string `json:"name"`
	Locality        string `json:"locality"`
	Nationality     string `json:"nationality"`
	BirthYear       string `json:"birthYear"`
	Team            string `json:"team"`
}

// YearResults maps a distance code (e.g. "P50") to the records of that race
// in website-listing order. Index 0 is the winner.
type YearResults map[string][]SkierRecord

// ResultRow is the display row the analysis service derives from a
// SkierRecord. The csv tags drive the export encoder.
type ResultRow struct {
	Year         string `json:"year" csv:"year"`
	Distance     string `json:"distance" csv:"distance"`
	Time         string `json:"time" csv:"time"`
	Placement    string `json:"placement" csv:"placement"`
	Sex          string `json:"sex" csv:"sex"`
	Name         string `json:"name" csv:"name"`
	Locality     string `json:"locality" csv:"locality"`
	Nationality  string `json:"nationality" csv:"nationality"`
	BirthYear    string `json:"birthYear" csv:"birth_year"`
	Team         string `json:"team" csv:"team"`
	AverageSpeed string `json:"averageSpeed" csv:"average_speed"`
}

// TeamRow is one ranked row of the team ranking query.
type TeamRow struct {
	Rank         int    `json:"rank"`
	Team         string `json:"team"`
	Year         string `json:"year"`
	Distance     string `json:"distance"`
	CombinedTime string `json:"combinedTime"`
	AverageTime  string `json:"averageTime"`
}

// TimesPoint is one point of an athlete's time progression.
type TimesPoint struct {
	Year     string `json:"year"`
	Distance string `json:"distance"`
	Hours    int    `json:"hours"`
}

// Prediction is the next-winner prediction for one distance.
type Prediction struct {
	Name     string `json:"name"`
	Distance string `json:"distance"`
	Time     string `json:"time"`
}

// CompareResult holds the two unfiltered row sets of a comparison plus the
// participant counts of each side.
type CompareResult struct {
	Rows1  []ResultRow `json:"rows1"`
	Rows2  []ResultRow `json:"rows2"`
	Count1 int         `json:"count1"`
	Count2 int         `json:"count2"`
}
