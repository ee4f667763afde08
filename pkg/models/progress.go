package models

// ProgressEvent is published after every paragraph of a check. Results holds
// the complete list so far, not just the latest paragraph.
type ProgressEvent struct {
	CheckID   string           `json:"checkId"`
	Completed int              `json:"completed"`
	Total     int              `json:"total"`
	Results   []AnalysisResult `json:"results"`
}
