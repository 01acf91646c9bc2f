package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/calmloop/glowcore/internal/domain/rules"
	"github.com/calmloop/glowcore/internal/infra/storage"
	"github.com/calmloop/glowcore/internal/platform/logger"
	"github.com/calmloop/glowcore/internal/platform/metrics"
)

// OddsConfig is the remotely configured loot table: drop odds per rarity
// tier plus the set of currently vaulted item ids.
type OddsConfig struct {
	Odds    rules.OddsTable `json:"odds"`
	Vaulted []string        `json:"vaulted"`
}

// VaultedSet returns the vaulted ids as a lookup set.
func (c OddsConfig) VaultedSet() map[string]bool {
	set := make(map[string]bool, len(c.Vaulted))
	for _, id := range c.Vaulted {
		set[id] = true
	}
	return set
}

// cachedConfig is the locally persisted cache envelope.
type cachedConfig struct {
	Data                  OddsConfig `json:"data"`
	FetchedAtEpochSeconds int64      `json:"fetchedAtEpochSeconds"`
}

// ConfigFetcher retrieves the odds config with a time-boxed local cache.
type ConfigFetcher struct {
	url     string
	ttl     time.Duration
	blobs   storage.BlobStore
	client  *http.Client
	log     *logger.Logger
	stats   *metrics.Collector
	nowFunc func() time.Time
}

// NewConfigFetcher creates a fetcher against the given endpoint. stats
// may be nil.
func NewConfigFetcher(url string, ttl time.Duration, blobs storage.BlobStore, client *http.Client, log *logger.Logger, stats *metrics.Collector) *ConfigFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &ConfigFetcher{
		url:     url,
		ttl:     ttl,
		blobs:   blobs,
		client:  client,
		log:     log,
		stats:   stats,
		nowFunc: time.Now,
	}
}

// SetNowFunc overrides the clock. Tests use this to age the cache.
func (f *ConfigFetcher) SetNowFunc(now func() time.Time) {
	f.nowFunc = now
}

// OddsConfig returns the odds table, serving from cache while it is
// fresher than the TTL unless forceRefresh is set. A fetch failure falls
// back to a stale cache when one exists; with no usable cache it fails
// with ErrConfigUnavailable.
func (f *ConfigFetcher) OddsConfig(ctx context.Context, forceRefresh bool) (OddsConfig, error) {
	cached, cacheOK := f.loadCache(ctx)

	if !forceRefresh && cacheOK {
		age := f.nowFunc().Sub(time.Unix(cached.FetchedAtEpochSeconds, 0))
		if age < f.ttl {
			if f.stats != nil {
				f.stats.ConfigCacheHits.Inc()
			}
			return cached.Data, nil
		}
	}

	config, err := f.fetch(ctx)
	if err != nil {
		if cacheOK {
			f.log.Warn("odds config fetch failed, serving stale cache: " + err.Error())
			return cached.Data, nil
		}
		return OddsConfig{}, fmt.Errorf("%w: %v", ErrConfigUnavailable, err)
	}

	f.storeCache(ctx, config)
	return config, nil
}

func (f *ConfigFetcher) fetch(ctx context.Context) (OddsConfig, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return OddsConfig{}, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return OddsConfig{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return OddsConfig{}, fmt.Errorf("config endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return OddsConfig{}, err
	}

	// The endpoint is unauthenticated and its payload evolves; insist
	// only on the odds object before committing to the cache.
	if !gjson.GetBytes(body, "odds").IsObject() {
		return OddsConfig{}, fmt.Errorf("config payload missing odds object")
	}

	var config OddsConfig
	if err := json.Unmarshal(body, &config); err != nil {
		return OddsConfig{}, err
	}

	if f.stats != nil {
		f.stats.ConfigFetches.Inc()
	}
	return config, nil
}

func (f *ConfigFetcher) loadCache(ctx context.Context) (cachedConfig, bool) {
	blob, err := f.blobs.Load(ctx, storage.KeyOddsConfigCache)
	if err != nil || blob == nil {
		return cachedConfig{}, false
	}
	var cached cachedConfig
	if err := json.Unmarshal(blob, &cached); err != nil {
		return cachedConfig{}, false
	}
	return cached, true
}

func (f *ConfigFetcher) storeCache(ctx context.Context, config OddsConfig) {
	envelope := cachedConfig{
		Data:                  config,
		FetchedAtEpochSeconds: f.nowFunc().Unix(),
	}
	blob, err := json.Marshal(envelope)
	if err != nil {
		return
	}
	if err := f.blobs.Save(ctx, storage.KeyOddsConfigCache, blob); err != nil {
		// Cache write failure never blocks the caller; next read fetches again.
		f.log.Warn("failed to cache odds config: " + err.Error())
	}
}
