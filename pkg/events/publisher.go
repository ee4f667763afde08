package events

import (
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/lexalign/concordance/pkg/models"
)

type Publisher struct {
	publisher message.Publisher
}

func NewPublisher(publisher message.Publisher) *Publisher {
	return &Publisher{
		publisher: publisher,
	}
}

func (p *Publisher) Publish(topic string, metadata map[string]string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	log.Debugf("Publishing %d byte message to %s", len(b), topic)
	m := message.NewMessage(watermill.NewUUID(), b)
	m.Metadata = message.Metadata(metadata)

	err = p.publisher.Publish(topic, m)
	if err != nil {
		return fmt.Errorf("failed to publish message to %s: %w", topic, err)
	}

	return nil
}

// PublishProgress publishes the partial result list of a check.
func (p *Publisher) PublishProgress(event models.ProgressEvent) error {
	return p.Publish(
		ProgressTopic(event.CheckID),
		map[string]string{MetadataCheckID: event.CheckID},
		event,
	)
}

// PublishSession publishes the summary of a completed check.
func (p *Publisher) PublishSession(session models.ConcordanceSession) error {
	return p.Publish(
		TopicSessions,
		map[string]string{MetadataCheckID: session.ID},
		session,
	)
}

// CheckPublisher publishes the progress of one check and reports whether its
// session was recorded. Publishing to the sessions topic returns only after
// the recorder has acked, so the outcome is settled by then.
type CheckPublisher struct {
	*Publisher
	sessions models.SessionOutcomes
}

func NewCheckPublisher(publisher message.Publisher, sessions models.SessionOutcomes) *CheckPublisher {
	return &CheckPublisher{Publisher: NewPublisher(publisher), sessions: sessions}
}

// PublishSession publishes the session and returns the recorder's outcome. A
// session nobody recorded is a StoreError.
func (p *CheckPublisher) PublishSession(session models.ConcordanceSession) error {
	if err := p.Publisher.PublishSession(session); err != nil {
		return models.NewStoreError("record session", err)
	}
	if p.sessions == nil {
		return models.NewStoreError("record session", fmt.Errorf("no session recorder is running"))
	}
	ok, err := p.sessions.Settled(session.ID)
	if !ok {
		return models.NewStoreError("record session", fmt.Errorf("session %s was not recorded", session.ID))
	}
	return err
}

func (p *Publisher) Close() error {
	err := p.publisher.Close()
	if err != nil {
		return fmt.Errorf("failed to close publisher: %w", err)
	}

	return nil
}

// DecodeProgress unmarshals a progress message payload.
func DecodeProgress(msg *message.Message) (models.ProgressEvent, error) {
	var ev models.ProgressEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return ev, fmt.Errorf("failed to unmarshal progress event: %w", err)
	}
	return ev, nil
}
