package cart

import (
	"context"
	"encoding/json"
	"time"

	"github.com/avelezquez/shopcart-backend/pkg/db/models"
	"github.com/avelezquez/shopcart-backend/pkg/enums"
	"github.com/avelezquez/shopcart-backend/pkg/logger"
)

type eventPublisher interface {
	Publish(ctx context.Context, channel string, payload any) error
	CartEventsChannel() string
}

// CartEvent is the payload broadcast to downstream consumers after a
// mutation commits.
type CartEvent struct {
	Action     enums.CartEventAction `json:"action"`
	CartID     string                `json:"cart_id"`
	Hash       string                `json:"hash"`
	ItemCount  int                   `json:"item_count"`
	OccurredAt time.Time             `json:"occurred_at"`
}

// RedisNotifier broadcasts cart mutations over a Redis channel. Publish
// failures are logged, never surfaced: notifications are advisory.
type RedisNotifier struct {
	publisher eventPublisher
	logg      *logger.Logger
	now       func() time.Time
}

// NewRedisNotifier builds a notifier on top of the shared Redis client.
func NewRedisNotifier(publisher eventPublisher, logg *logger.Logger) *RedisNotifier {
	return &RedisNotifier{publisher: publisher, logg: logg, now: time.Now}
}

// CartChanged publishes the mutation event.
func (n *RedisNotifier) CartChanged(ctx context.Context, action enums.CartEventAction, record *models.Cart) {
	if n == nil || n.publisher == nil || record == nil {
		return
	}
	event := CartEvent{
		Action:     action,
		CartID:     record.ID.String(),
		Hash:       record.Hash,
		ItemCount:  len(record.Items),
		OccurredAt: n.now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		n.logg.Error(ctx, "marshal cart event", err)
		return
	}
	if err := n.publisher.Publish(ctx, n.publisher.CartEventsChannel(), string(payload)); err != nil {
		n.logg.Error(ctx, "publish cart event", err)
	}
}
