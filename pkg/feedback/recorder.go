package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lexalign/concordance/internal"
	"github.com/lexalign/concordance/pkg/models"
)

var log = internal.GetLogger()

// Outcome reports what happened to a submitted vote.
type Outcome struct {
	ID       string               `json:"id,omitempty"`
	Recorded bool                 `json:"recorded"`
	State    models.FeedbackState `json:"state"`
}

// Recorder stores feedback records, enforcing one vote per difference.
type Recorder struct {
	store    models.DocumentStore
	db       string
	validate *validator.Validate
	now      func() time.Time
}

func NewRecorder(store models.DocumentStore, db string) *Recorder {
	return &Recorder{
		store:    store,
		db:       db,
		validate: validator.New(),
		now:      time.Now,
	}
}

// RecordID is the document id of the vote on one difference of a session.
// Every difference has at most one stored vote, so concurrent votes collide
// in the store instead of both being written.
func RecordID(feedbackID string, d models.DifferenceV2) string {
	return feedbackID + ":" + DifferenceKey(d)
}

// Record stores rec unless the difference already has a vote.
func (r *Recorder) Record(ctx context.Context, rec models.FeedbackRecord) (*Outcome, error) {
	if err := r.validate.Struct(rec); err != nil {
		return nil, models.NewValidationError("feedback", err.Error())
	}

	existing, err := r.Records(ctx, rec.FeedbackID)
	if err != nil {
		return nil, err
	}
	key := DifferenceKey(rec.Difference)
	state := Replay(existing)[key]
	if state == "" {
		state = models.FeedbackNew
	}

	next := state
	for _, ev := range eventsFor(rec.FeedbackType) {
		var accepted bool
		if next, accepted = Apply(next, ev); !accepted {
			log.Debugf("feedback %s on %s rejected in state %s", rec.FeedbackType, key, state)
			return &Outcome{Recorded: false, State: state}, nil
		}
	}

	if rec.Timestamp.IsZero() {
		rec.Timestamp = r.now().UTC()
	}
	rec.Difference.FeedbackState = next
	rec.ID = RecordID(rec.FeedbackID, rec.Difference)
	doc, err := toDocument(rec)
	if err != nil {
		return nil, err
	}
	id, err := r.store.Create(ctx, r.db, doc)
	if errors.Is(err, models.ErrConflict) {
		// another vote on the same difference was stored first
		return r.current(ctx, rec.FeedbackID, key)
	}
	if err != nil {
		return nil, err
	}

	return &Outcome{ID: id, Recorded: true, State: next}, nil
}

func (r *Recorder) current(ctx context.Context, feedbackID, key string) (*Outcome, error) {
	existing, err := r.Records(ctx, feedbackID)
	if err != nil {
		return nil, err
	}
	state := Replay(existing)[key]
	if state == "" {
		state = models.FeedbackNew
	}
	log.Debugf("feedback on %s lost to a concurrent vote, state %s", key, state)
	return &Outcome{Recorded: false, State: state}, nil
}

// Records returns the feedback of one session in the order it was stored.
// Documents that are not feedback records are skipped.
func (r *Recorder) Records(ctx context.Context, feedbackID string) ([]models.FeedbackRecord, error) {
	docs, err := r.store.Find(ctx, r.db, map[string]any{"feedbackId": feedbackID})
	if err != nil {
		return nil, err
	}
	records := make([]models.FeedbackRecord, 0, len(docs))
	for _, d := range docs {
		rec, err := fromDocument(d)
		if err != nil {
			log.Warnf("skipping feedback document %s: %s", d.ID(), err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Details returns the stored feedback documents of a session, thumbs down
// first, then by paragraph number.
func (r *Recorder) Details(ctx context.Context, feedbackID string) ([]models.Document, error) {
	docs, err := r.store.Find(ctx, r.db, map[string]any{"feedbackId": feedbackID})
	if err != nil {
		return nil, err
	}
	SortDetails(docs)
	return docs, nil
}

// SortDetails orders feedback documents thumbs down first, then by paragraph
// number. The sort is stable.
func SortDetails(docs []models.Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		di, dj := isThumbsDown(docs[i]), isThumbsDown(docs[j])
		if di != dj {
			return di
		}
		return paragraphNumber(docs[i]) < paragraphNumber(docs[j])
	})
}

func isThumbsDown(d models.Document) bool {
	t, _ := d["feedbacktype"].(string)
	return t == string(models.FeedbackTypeThumbsDown)
}

func paragraphNumber(d models.Document) float64 {
	switch n := d["paragraphNumber"].(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func toDocument(rec models.FeedbackRecord) (models.Document, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encoding feedback: %w", err)
	}
	var doc models.Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("encoding feedback: %w", err)
	}
	return doc, nil
}

func fromDocument(doc models.Document) (models.FeedbackRecord, error) {
	var rec models.FeedbackRecord
	b, err := json.Marshal(doc)
	if err != nil {
		return rec, err
	}
	err = json.Unmarshal(b, &rec)
	return rec, err
}
