package models

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/lexalign/concordance/config"
)

// PubSub carries check progress and session events.
type PubSub interface {
	message.Publisher
	message.Subscriber
}

// AppState holds the long-lived dependencies shared by handlers.
// Use cmd/concordance to create a new instance.
type AppState struct {
	Generator      Generator
	DocumentStore  DocumentStore
	DocumentParser DocumentParser
	PubSub         PubSub
	Sessions       SessionOutcomes
	Config         *config.Config
}

// SessionOutcomes reports whether a published session was stored.
type SessionOutcomes interface {
	Settled(sessionID string) (ok bool, err error)
}
