package models

// AnalysisResponse is the result of analyzing one grid bot screenshot
type AnalysisResponse struct {
	Status string `json:"status"`
	Symbol string `json:"symbol,omitempty"`

	// Fields holds every extracted field keyed by name, plus "raw"
	Fields map[string]interface{} `json:"fields"`

	Projection *Projection `json:"projection,omitempty"`

	// Report is the rendered analysis, one line per entry
	Report []string `json:"report"`

	// Guidance is set when recognition was too weak to trust the report
	Guidance []string `json:"guidance,omitempty"`

	// QualityWarnings explain why the screenshot may read poorly.
	// They never block analysis.
	QualityWarnings []string `json:"quality_warnings,omitempty"`

	// Message is Report followed by Guidance, newline-joined
	Message string `json:"message"`

	RecognizedText    string             `json:"recognized_text"`
	Preprocessing     *PreprocessingInfo `json:"preprocessing,omitempty"`
	OCRAccuracy       *OCRAccuracy       `json:"ocr_accuracy,omitempty"`
	ProcessingTimeSec float64            `json:"processing_time_sec"`
	Timestamp         string             `json:"timestamp"`
}

// Projection is the linear P&L extrapolation, present only when both the
// active time and the P&L were read
type Projection struct {
	ActiveDays     float64  `json:"active_days"`
	DailyUSDT      float64  `json:"daily_usdt"`
	WeeklyUSDT     float64  `json:"weekly_usdt"`
	MonthlyUSDT    float64  `json:"monthly_usdt"`
	DailyReturnPct *float64 `json:"daily_return_pct,omitempty"`
}

// PreprocessingInfo describes the bitmap handed to the OCR engine
type PreprocessingInfo struct {
	Width    int  `json:"width"`
	Height   int  `json:"height"`
	Inverted bool `json:"inverted"`
}

// OCRAccuracy compares the recognized text with caller-supplied ground truth
type OCRAccuracy struct {
	ExpectedText       string  `json:"expected_text"`
	WordErrorRate      float64 `json:"word_error_rate"`
	CharacterErrorRate float64 `json:"character_error_rate"`
	WordEdits          int     `json:"word_edits"`
	CharacterEdits     int     `json:"character_edits"`
}
