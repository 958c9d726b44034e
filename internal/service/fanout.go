package service

import (
	"context"
	"sync"

	"gochat/internal/model"
	"gochat/internal/realtime"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type typingPayload struct {
	UserID string `json:"userId"`
}

// Fanout publishes domain events to the hosts listed in the routing registry
// and dispatches inbound events from this host's own channel to local
// connections.
type Fanout struct {
	rdb      *redis.Client
	routing  *RoutingRegistry
	registry *realtime.Registry
	hostname string
	logger   *zap.SugaredLogger
}

func NewFanout(
	rdb *redis.Client,
	routing *RoutingRegistry,
	registry *realtime.Registry,
	hostname string,
	logger *zap.SugaredLogger,
) *Fanout {
	return &Fanout{
		rdb:      rdb,
		routing:  routing,
		registry: registry,
		hostname: hostname,
		logger:   logger,
	}
}

// Publish resolves the chat's host set and publishes the event to each
// host's channel concurrently. Per-host failures are logged and never block
// delivery to the remaining hosts; by the time this runs the message is
// already persisted, so nothing is surfaced to the caller.
func (f *Fanout) Publish(ctx context.Context, event model.Event) {
	payload, err := event.Marshal()
	if err != nil {
		f.logger.Errorw("failed to encode event", "type", event.Type, "error", err)
		return
	}

	hosts, err := f.routing.Hosts(ctx, event.ChatID())
	if err != nil {
		f.logger.Errorw("failed to resolve routing hosts",
			"chatId", event.ChatID(), "error", err)
		return
	}

	var wg sync.WaitGroup
	for _, host := range hosts {
		wg.Add(1)
		go func(host string) {
			defer wg.Done()
			if err := f.rdb.Publish(ctx, host, payload).Err(); err != nil {
				f.logger.Errorw("publish to host failed",
					"host", host, "chatId", event.ChatID(), "error", err)
			}
		}(host)
	}
	wg.Wait()
}

// StartSubscriber runs the per-process receive loop on this host's own
// channel until the context is canceled. A bad message is logged and
// dropped, never allowed to take the loop down.
func (f *Fanout) StartSubscriber(ctx context.Context) {
	pubsub := f.rdb.Subscribe(ctx, f.hostname)
	defer pubsub.Close()

	f.logger.Infow("subscribed to host channel", "channel", f.hostname)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			f.logger.Info("subscriber context canceled, stopping receive loop")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			f.dispatch(msg.Payload)
		}
	}
}

// dispatch routes one inbound event to every local connection that cares.
func (f *Fanout) dispatch(raw string) {
	event, err := model.UnmarshalEvent([]byte(raw))
	if err != nil {
		f.logger.Errorw("dropping malformed event", "error", err)
		return
	}

	switch event.Type {
	case model.EventMessageCreated:
		msg := event.Data.Message
		if msg == nil {
			f.logger.Errorw("dropping message_created event without message")
			return
		}
		// "Is this message mine" is relative to the receiving user, so the
		// payload is re-serialized per recipient.
		for _, userID := range f.registry.UsersByChat(msg.ChatID) {
			frame := realtime.Frame{
				ID:   msg.ID,
				Data: model.ToChatMessageView(userID, *msg),
			}
			f.emit(userID, frame)
		}
	case model.EventIsTyping:
		for _, userID := range f.registry.UsersByChat(event.Data.ChatID) {
			if userID == event.Data.UserID {
				continue // the typist already knows
			}
			frame := realtime.Frame{
				ID:    userID,
				Event: realtime.FrameIsTyping,
				Data:  typingPayload{UserID: event.Data.UserID},
			}
			f.emit(userID, frame)
		}
	default:
		f.logger.Errorw("dropping event of unknown kind", "type", event.Type)
	}
}

func (f *Fanout) emit(userID string, frame realtime.Frame) {
	payload, err := frame.Bytes()
	if err != nil {
		f.logger.Errorw("failed to encode frame", "userId", userID, "error", err)
		return
	}
	f.registry.Emit(userID, payload)
}
