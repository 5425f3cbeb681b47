package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

type notificationSource interface {
	NotificationChannel() <-chan *pq.Notification
	Close() error
}

// PropListener starts a projection batch when props change. Bursts of
// notifications within the debounce window collapse into one batch.
type PropListener struct {
	source      notificationSource
	projections BatchStarter
	debounce    time.Duration
	logger      *logrus.Logger
}

// NewPropListener subscribes to PropsChangedChannel on databaseURL.
func NewPropListener(databaseURL string, projections BatchStarter, logger *logrus.Logger) (*PropListener, error) {
	listener := pq.NewListener(databaseURL, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.WithError(err).WithField("event", ev).Warn("Prop listener connection event")
		}
	})
	if err := listener.Listen(PropsChangedChannel); err != nil {
		listener.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", PropsChangedChannel, err)
	}
	return newPropListener(listener, projections, 5*time.Second, logger), nil
}

func newPropListener(source notificationSource, projections BatchStarter, debounce time.Duration, logger *logrus.Logger) *PropListener {
	return &PropListener{
		source:      source,
		projections: projections,
		debounce:    debounce,
		logger:      logger,
	}
}

// Run blocks until ctx is done or the listener is closed.
func (l *PropListener) Run(ctx context.Context) {
	defer l.source.Close()

	var fire <-chan time.Time

	notifications := l.source.NotificationChannel()
	l.logger.WithField("channel", PropsChangedChannel).Info("Prop listener started")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Prop listener stopped")
			return
		case n, ok := <-notifications:
			if !ok {
				l.logger.Warn("Prop listener channel closed")
				return
			}
			// nil after a reconnect; changes may have been missed.
			if n != nil {
				l.logger.WithField("payload", n.Extra).Debug("Props changed")
			}
			fire = time.After(l.debounce)
		case <-fire:
			fire = nil
			err := l.projections.Start(ctx, "listener")
			switch {
			case errors.Is(err, ErrBatchRunning):
				l.logger.Debug("Projection batch already running, dropping prop change trigger")
			case err != nil:
				l.logger.WithError(err).Error("Failed to start projection batch")
			}
		}
	}
}
