package poll

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DefaultFanOutLimit bounds parallel lookups when no limit is given
const DefaultFanOutLimit = 8

// FanOut runs lookup once per distinct key, at most limit at a time, and
// merges the results by key. Failed lookups are logged and left out of the
// result, so completion order never changes the merged map.
func FanOut[K comparable, V any](ctx context.Context, keys []K, limit int, lookup func(context.Context, K) (V, error)) map[K]V {
	if limit <= 0 {
		limit = DefaultFanOutLimit
	}

	seen := make(map[K]struct{}, len(keys))
	unique := make([]K, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		unique = append(unique, k)
	}

	var (
		mu  sync.Mutex
		out = make(map[K]V, len(unique))
	)

	var g errgroup.Group
	g.SetLimit(limit)
	for _, k := range unique {
		k := k
		g.Go(func() error {
			v, err := lookup(ctx, k)
			if err != nil {
				log.Ctx(ctx).Warn().Err(err).Str("key", fmt.Sprint(k)).Msg("Fan-out lookup failed")
				return nil
			}
			mu.Lock()
			out[k] = v
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return out
}
