package core

import (
	"context"

	"serial-controller/internal/messaging"
	"serial-controller/internal/session"
)

// MessagingClient defines the Redis operations needed by System
type MessagingClient interface {
	session.Observer

	SetCallbacks(callbacks messaging.Callbacks)
	Connect() error
	StartListening()
	Close() error
}

// StatusIndicator shows the overall state on local hardware
type StatusIndicator interface {
	session.Observer

	Start()
	Stop()
}

// Runner is one port's session as driven by System
type Runner interface {
	Port() string
	Run(ctx context.Context) error
	RequestRecalibration()
}
