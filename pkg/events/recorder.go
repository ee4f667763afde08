package events

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/lexalign/concordance/pkg/models"
)

// SessionRecorder writes completed sessions to the records database. Every
// message is acked once handled; the outcome of the write is kept until the
// publisher collects it with Settled.
type SessionRecorder struct {
	store      models.DocumentStore
	db         string
	maxRetries int
	delay      time.Duration

	mu       sync.Mutex
	outcomes map[string]error
}

var _ models.SessionOutcomes = &SessionRecorder{}

func NewSessionRecorder(store models.DocumentStore, db string) *SessionRecorder {
	return &SessionRecorder{
		store:      store,
		db:         db,
		maxRetries: MaxHandlerRetries,
		delay:      RetryInterval,
		outcomes:   map[string]error{},
	}
}

// WithRetries sets how often a failed write is repeated and the initial delay
// between attempts.
func (r *SessionRecorder) WithRetries(maxRetries int, delay time.Duration) *SessionRecorder {
	r.maxRetries = maxRetries
	r.delay = delay
	return r
}

// Register subscribes the recorder to the sessions topic.
func (r *SessionRecorder) Register(router *Router, subscriber message.Subscriber) {
	router.AddNoPublisherHandler(
		"session_recorder",
		TopicSessions,
		subscriber,
		r.Handle,
	)
}

// Handle stores one session. Sessions are append-only, so a session that was
// already written counts as recorded. Store failures are retried here and
// then settled as the session's outcome; the message itself is always acked.
func (r *SessionRecorder) Handle(msg *message.Message) error {
	var session models.ConcordanceSession
	if err := json.Unmarshal(msg.Payload, &session); err != nil {
		// a malformed payload will never succeed, drop it
		log.Errorf("session recorder: dropping malformed message %s: %s", msg.UUID, err)
		return nil
	}

	r.settle(session.ID, r.record(msg, session))
	return nil
}

func (r *SessionRecorder) record(msg *message.Message, session models.ConcordanceSession) error {
	doc, err := SessionDocument(session)
	if err != nil {
		return models.NewStoreError("record session", err)
	}

	var lastErr error
	_, err = failsafe.Get(func() (string, error) {
		id, err := r.store.Create(msg.Context(), r.db, doc)
		if errors.Is(err, models.ErrConflict) {
			log.Debugf("session %s already recorded", session.ID)
			return session.ID, nil
		}
		lastErr = err
		return id, err
	}, r.retryPolicy())
	if err != nil {
		if lastErr != nil {
			err = lastErr
		}
		log.Errorf("failed to record session %s: %s", session.ID, err)
		if !errors.Is(err, models.ErrStore) {
			err = models.NewStoreError("record session", err)
		}
		return err
	}

	log.Infof("recorded concordance session %s", session.ID)
	return nil
}

func (r *SessionRecorder) retryPolicy() retrypolicy.RetryPolicy[string] {
	builder := retrypolicy.Builder[string]().
		HandleIf(func(_ string, err error) bool {
			return err != nil && !errors.Is(err, models.ErrValidation)
		}).
		WithMaxRetries(r.maxRetries)
	if r.delay > 0 {
		builder = builder.WithBackoff(r.delay, 4*r.delay)
	}
	return builder.Build()
}

func (r *SessionRecorder) settle(sessionID string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[sessionID] = err
}

// Settled removes and returns the outcome of a handled session. ok is false
// when the recorder has not handled the session.
func (r *SessionRecorder) Settled(sessionID string) (ok bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	err, ok = r.outcomes[sessionID]
	delete(r.outcomes, sessionID)
	return ok, err
}

// SessionDocument converts a session into a store document.
func SessionDocument(session models.ConcordanceSession) (models.Document, error) {
	b, err := json.Marshal(session)
	if err != nil {
		return nil, err
	}
	var doc models.Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
