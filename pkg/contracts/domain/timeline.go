package domain

// TimelineEntry is one emitted mark on the timeline.
type TimelineEntry struct {
	PeakID          string  `json:"peak_id,omitempty"`
	PeakName        string  `json:"peak_name,omitempty"`
	BucketIndex     int     `json:"bucket_index"`
	Bucket          string  `json:"bucket"`
	Year            int     `json:"year"`
	Season          string  `json:"season,omitempty"`
	Magnitude       float64 `json:"magnitude"`
	IsDashed        bool    `json:"is_dashed"`
	HighDeathRate   bool    `json:"high_death_rate"`
	HighSuccessRate bool    `json:"high_success_rate"`
	Deaths          int     `json:"deaths"`
	Expeditions     int     `json:"expeditions"`
}

// TimelineSummary describes a completed pipeline run.
type TimelineSummary struct {
	RunID            string   `json:"run_id"`
	Granularity      string   `json:"granularity"`
	Peaks            []string `json:"peaks"`
	RecordsRead      int      `json:"records_read"`
	FactsKept        int      `json:"facts_kept"`
	RecordsRejected  int      `json:"records_rejected"`
	RecordsDropped   int      `json:"records_dropped"`
	DenseRows        int      `json:"dense_rows"`
	EmittedRows      int      `json:"emitted_rows"`
	DashedRows       int      `json:"dashed_rows"`
	HighDeathRows    int      `json:"high_death_rows"`
	HighSuccessRows  int      `json:"high_success_rows"`
	TotalDeaths      int      `json:"total_deaths"`
	TotalExpeditions int      `json:"total_expeditions"`
	TotalSuccesses   int      `json:"total_successes"`
	MeanMagnitude    float64  `json:"mean_magnitude"`
}
