// Package events carries check progress and completed sessions over an
// in-process watermill pub/sub.
package events

import (
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/lexalign/concordance/internal"
	wla "github.com/ma-hartma/watermill-logrus-adapter"
)

const (
	TopicSessions       = "sessions"
	progressTopicPrefix = "progress."
	MetadataCheckID     = "check_id"
)

var log = internal.GetLogger()

// ProgressTopic returns the topic partial results of a check are published on.
func ProgressTopic(checkID string) string {
	return progressTopicPrefix + checkID
}

// NewPubSub returns an in-process pub/sub. Publish blocks until every
// subscriber has acked, so a subscriber sees messages in publish order.
func NewPubSub() *gochannel.GoChannel {
	return gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            16,
			BlockPublishUntilSubscriberAck: true,
		},
		wla.NewLogrusLogger(log),
	)
}
