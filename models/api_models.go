// models/api_models.go
package models

// SearchRequest carries the raw UI-level search parameters. Sentinel strings
// ("All types", "Both", "All", "0") are interpreted by the analysis service,
// not by the handler layer.
type SearchRequest struct {
	YearFrom    int    `json:"yearFrom"`
	YearTo      int    `json:"yearTo"`
	Distance    string `json:"distance"`
	Forename    string `json:"forename"`
	Familyname  string `json:"familyname"`
	Gender      string `json:"gender"`
	Team        string `json:"team"`
	Nationality string `json:"nationality"`
	Locality    string `json:"locality"`
	Top         string `json:"top"`
	TimeFrom    string `json:"timeFrom"`
	TimeTo      string `json:"timeTo"`
}

// RetrievalStatus is the progress report of the retrieval pipeline.
// Received == Total == 0 together with Ready means the pipeline is idle and
// the store is fully populated, not that zero requests were made.
type RetrievalStatus struct {
	Received int  `json:"received"`
	Total    int  `json:"total"`
	Ready    bool `json:"ready"`
}
