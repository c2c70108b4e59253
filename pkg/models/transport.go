package models

// RemoteAnalysisRequest references a screenshot by URL or Azure blob.
// Exactly one of URL and BlobURL must be set.
type RemoteAnalysisRequest struct {
	URL          string `json:"url,omitempty"`
	BlobURL      string `json:"blob_url,omitempty"`
	ExpectedText string `json:"expected_text,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// BatchItem is one uploaded screenshot of a batch
type BatchItem struct {
	Name string
	Data []byte
}

// BatchItemResult holds either the analysis or the error of one item
type BatchItemResult struct {
	Index  int               `json:"index"`
	Name   string            `json:"name,omitempty"`
	Result *AnalysisResponse `json:"result,omitempty"`
	Error  *ErrorResponse    `json:"error,omitempty"`
}

// BatchAnalysisResponse keeps items in upload order
type BatchAnalysisResponse struct {
	Total             int               `json:"total"`
	Succeeded         int               `json:"succeeded"`
	Failed            int               `json:"failed"`
	Items             []BatchItemResult `json:"items"`
	ProcessingTimeSec float64           `json:"processing_time_sec"`
	Timestamp         string            `json:"timestamp"`
}

type HealthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	Time       string `json:"time"`
	OCRVersion string `json:"ocr_version"`
}

type HelpResponse struct {
	Message string `json:"message"`
}
