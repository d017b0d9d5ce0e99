package dashboard

import (
	"context"
	"time"

	"github.com/five82/botdash/internal/botapi"
	"github.com/five82/botdash/internal/query"
)

// DefaultStatusInterval is how often the bot status is polled.
const DefaultStatusInterval = 30 * time.Second

// StatusHook subscribes to the bot status with the default poll interval.
// It holds no state of its own; the returned subscription is the hook.
func StatusHook(cache *query.Cache, api botapi.API, listener query.Listener) *query.Subscription {
	return statusHook(cache, api, DefaultStatusInterval, listener)
}

func statusHook(cache *query.Cache, api botapi.API, interval time.Duration, listener query.Listener) *query.Subscription {
	return cache.Subscribe(BotStatusKey, func(ctx context.Context) (any, error) {
		return api.GetBotStatus(ctx)
	}, query.SubscribeOptions{RefetchInterval: interval, Listener: listener})
}
