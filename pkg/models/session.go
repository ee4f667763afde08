package models

import "time"

// ConcordanceSession summarises one completed check. Sessions are append-only.
type ConcordanceSession struct {
	ID             string    `json:"_id"`
	Timestamp      time.Time `json:"timestamp"`
	DocA           string    `json:"docA"`
	DocB           string    `json:"docB"`
	ParagraphCount int       `json:"paragraphCount"`
	AnalysisCount  int       `json:"analysisCount"`
	AppVersion     string    `json:"appVersion"`
}

type FeedbackType string

const (
	FeedbackTypeThumbsUp   FeedbackType = "thumbsUp"
	FeedbackTypeThumbsDown FeedbackType = "thumbsDown"
)

type FeedbackState string

const (
	FeedbackNew             FeedbackState = "new"
	FeedbackThumbsUp        FeedbackState = "thumbsUp"
	FeedbackThumbsDownShown FeedbackState = "thumbsDownShown"
	FeedbackThumbsDownSent  FeedbackState = "thumbsDownSent"
)

// FeedbackRecord is a reviewer vote on one difference. FeedbackID is the key
// of the session the vote belongs to.
type FeedbackRecord struct {
	ID              string       `json:"_id,omitempty"`
	FeedbackID      string       `json:"feedbackId"                 validate:"required"`
	FeedbackType    FeedbackType `json:"feedbacktype"               validate:"required,oneof=thumbsUp thumbsDown"`
	ParagraphNumber int          `json:"paragraphNumber"            validate:"gte=0"`
	ParagraphA      string       `json:"paragraphA,omitempty"`
	ParagraphB      string       `json:"paragraphB,omitempty"`
	Difference      DifferenceV2 `json:"difference"`
	Feedback        string       `json:"feedback,omitempty"`
	Timestamp       time.Time    `json:"timestamp"`
}
