// Package feedback tracks reviewer votes on differences. Each difference takes
// one vote: a thumbs up is final, a thumbs down opens a comment form and is
// final once the comment is sent.
package feedback

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"

	"github.com/lexalign/concordance/pkg/models"
)

type Event string

const (
	EventThumbsUp   Event = "thumbsUp"
	EventThumbsDown Event = "thumbsDown"
	EventSubmit     Event = "submit"
)

// Apply returns the state after event and whether the event was accepted.
// Rejected events leave the state unchanged.
func Apply(state models.FeedbackState, event Event) (models.FeedbackState, bool) {
	if state == "" {
		state = models.FeedbackNew
	}
	switch {
	case state == models.FeedbackNew && event == EventThumbsUp:
		return models.FeedbackThumbsUp, true
	case state == models.FeedbackNew && event == EventThumbsDown:
		return models.FeedbackThumbsDownShown, true
	case state == models.FeedbackThumbsDownShown && event == EventSubmit:
		return models.FeedbackThumbsDownSent, true
	default:
		return state, false
	}
}

// Terminal reports whether no further event is accepted in state.
func Terminal(state models.FeedbackState) bool {
	return state == models.FeedbackThumbsUp || state == models.FeedbackThumbsDownSent
}

// DifferenceKey identifies a difference across sessions.
func DifferenceKey(d models.DifferenceV2) string {
	h := sha1.New()
	h.Write([]byte(strings.Join([]string{d.EntityType, d.OriginalTextLangA, d.OriginalTextLangB}, "|")))
	return hex.EncodeToString(h.Sum(nil))
}

// eventsFor lists the events a stored record stands for. A stored thumbs
// down was always submitted.
func eventsFor(t models.FeedbackType) []Event {
	switch t {
	case models.FeedbackTypeThumbsUp:
		return []Event{EventThumbsUp}
	case models.FeedbackTypeThumbsDown:
		return []Event{EventThumbsDown, EventSubmit}
	default:
		return nil
	}
}

// Replay derives the state of every difference from stored records, in
// order. Records that would be rejected do not change the state.
func Replay(records []models.FeedbackRecord) map[string]models.FeedbackState {
	states := map[string]models.FeedbackState{}
	for _, r := range records {
		key := DifferenceKey(r.Difference)
		state, ok := states[key]
		if !ok {
			state = models.FeedbackNew
		}
		next := state
		for _, ev := range eventsFor(r.FeedbackType) {
			var accepted bool
			next, accepted = Apply(next, ev)
			if !accepted {
				next = state
				break
			}
		}
		states[key] = next
	}
	return states
}
