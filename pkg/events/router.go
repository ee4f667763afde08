package events

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	wla "github.com/ma-hartma/watermill-logrus-adapter"
)

const (
	MaxHandlerRetries = 3
	RetryInterval     = 500 * time.Millisecond
)

// Router is a watermill Router with the middleware every handler here needs.
type Router struct {
	*message.Router
	logger watermill.LoggerAdapter
}

func NewRouter() (*Router, error) {
	wlog := wla.NewLogrusLogger(log)

	router, err := message.NewRouter(message.RouterConfig{}, wlog)
	if err != nil {
		return nil, err
	}

	router.AddMiddleware(
		// CorrelationID copies the correlation id from incoming to produced messages
		middleware.CorrelationID,

		// Recoverer turns handler panics into errors for the Retry middleware
		middleware.Recoverer,

		middleware.Retry{
			MaxRetries:      MaxHandlerRetries,
			InitialInterval: RetryInterval,
			Multiplier:      2,
			Logger:          wlog,
		}.Middleware,
	)

	return &Router{
		Router: router,
		logger: wlog,
	}, nil
}

// RunSessionRouter starts a router with the recorder subscribed to sessions
// and waits until it is running. The router stops when ctx is done.
func RunSessionRouter(
	ctx context.Context,
	subscriber message.Subscriber,
	recorder *SessionRecorder,
) (*Router, error) {
	router, err := NewRouter()
	if err != nil {
		return nil, err
	}

	recorder.Register(router, subscriber)

	go func() {
		if err := router.Run(ctx); err != nil {
			router.logger.Error("session router stopped", err, nil)
		}
	}()

	select {
	case <-router.Running():
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return router, nil
}
