// Package fanout notifies room members about committed changes.
package fanout

import (
	"context"
	"sync"
	"time"

	"github.com/hilthontt/todoroom/internal/domain"
	"github.com/hilthontt/todoroom/internal/infrastructure/metrics"
	"go.uber.org/zap"
)

type Options struct {
	// SendTimeout bounds a single delivery.
	SendTimeout time.Duration
	// Parallelism is the number of concurrent deliveries per broadcast.
	Parallelism int
	// Synchronous makes Broadcast return only after every delivery.
	Synchronous bool
}

func DefaultOptions() Options {
	return Options{
		SendTimeout: 5 * time.Second,
		Parallelism: 4,
	}
}

type Notifier struct {
	rooms   domain.RoomRepository
	sender  domain.Sender
	logger  *zap.Logger
	metrics *metrics.Metrics
	opts    Options

	inflight sync.WaitGroup
}

func NewNotifier(
	rooms domain.RoomRepository,
	sender domain.Sender,
	logger *zap.Logger,
	m *metrics.Metrics,
	opts Options,
) *Notifier {
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = DefaultOptions().SendTimeout
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = 1
	}
	return &Notifier{
		rooms:   rooms,
		sender:  sender,
		logger:  logger,
		metrics: m,
		opts:    opts,
	}
}

// Broadcast hands a committed event to a background delivery and returns
// immediately, unless the notifier is synchronous.
func (n *Notifier) Broadcast(ctx context.Context, event domain.Event, exclude int64) {
	// The originating request may finish before every member is notified.
	ctx = context.WithoutCancel(ctx)

	if n.opts.Synchronous {
		n.Deliver(ctx, event, exclude)
		return
	}

	n.inflight.Add(1)
	go func() {
		defer n.inflight.Done()
		n.Deliver(ctx, event, exclude)
	}()
}

// Wait blocks until every background broadcast has finished.
func (n *Notifier) Wait() {
	n.inflight.Wait()
}

// Deliver sends a rendered event to every member of the room except
// exclude and waits for the results. Delivery is at most once; failures
// are logged and reported, never retried.
func (n *Notifier) Deliver(ctx context.Context, event domain.Event, exclude int64) []domain.Delivery {
	logger := n.logger.With(
		zap.String("event", string(event.Kind)),
		zap.String("room", event.RoomCode),
	)

	members, err := n.rooms.Members(ctx, event.RoomCode)
	if err != nil {
		logger.Warn("failed to load room members for notification", zap.Error(err))
		return nil
	}

	recipients := make([]int64, 0, len(members))
	for _, m := range members {
		if exclude != 0 && m.UserID == exclude {
			continue
		}
		recipients = append(recipients, m.UserID)
	}
	if len(recipients) == 0 {
		return nil
	}

	msg := Render(event)
	results := make([]domain.Delivery, len(recipients))
	sem := make(chan struct{}, n.opts.Parallelism)
	var wg sync.WaitGroup

	for i, userID := range recipients {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, userID int64) {
			defer wg.Done()
			defer func() { <-sem }()

			results[i] = n.deliver(ctx, logger, event, userID, msg)
		}(i, userID)
	}
	wg.Wait()

	return results
}

func (n *Notifier) deliver(
	ctx context.Context,
	logger *zap.Logger,
	event domain.Event,
	userID int64,
	msg domain.Message,
) (result domain.Delivery) {
	result.UserID = userID

	defer func() {
		if r := recover(); r != nil {
			logger.Error("notification sender panicked", zap.Int64("recipient", userID), zap.Any("panic", r))
			result.Err = errSenderPanic
		}
		n.metrics.Delivery(string(event.Kind), result.Err == nil)
	}()

	sendCtx, cancel := context.WithTimeout(ctx, n.opts.SendTimeout)
	defer cancel()

	if err := n.sender.Send(sendCtx, userID, msg); err != nil {
		logger.Warn("notification delivery failed", zap.Int64("recipient", userID), zap.Error(err))
		result.Err = err
	}
	return result
}
