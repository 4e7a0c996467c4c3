package discovery

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Radio_Endpoint_Selector_Go/internal/config"
	"Radio_Endpoint_Selector_Go/pkg/model"
)

func testConfig() *config.Config {
	cfg := &config.Config{
		DNSName:          "all.api.example.test",
		UserAgent:        "test-agent",
		ProbeConcurrency: 10,
		ProbeTimeoutMS:   2000,
		HTTPTimeoutMS:    2000,
	}
	return cfg
}

// sleepFetcher 按端点返回固定的延迟和结果，nil 延迟表示直接失败
func sleepFetcher(delays map[string]time.Duration, calls *atomic.Int32) StatsFetcherFunc {
	return func(ctx context.Context, apiURL string) (model.Stats, error) {
		if calls != nil {
			calls.Add(1)
		}
		delay, ok := delays[apiURL]
		if !ok {
			return model.Stats{}, errors.New("connection refused")
		}
		select {
		case <-time.After(delay):
			return model.Stats{Status: "OK", Stations: 40000}, nil
		case <-ctx.Done():
			return model.Stats{}, ctx.Err()
		}
	}
}

func TestDiscoverPicksFastestEndpoint(t *testing.T) {
	d := New(testConfig(), nil)
	d.Resolver = ResolverFunc(func(ctx context.Context, name string) ([]string, error) {
		return []string{"https://a.example/", "https://b.example/"}, nil
	})
	d.Fetcher = sleepFetcher(map[string]time.Duration{
		"https://a.example/": 120 * time.Millisecond,
		"https://b.example/": 45 * time.Millisecond,
	}, nil)

	endpoint, err := d.Discover(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "https://b.example/", endpoint)
}

func TestDiscoverAllProbesFail(t *testing.T) {
	d := New(testConfig(), nil)
	d.Resolver = ResolverFunc(func(ctx context.Context, name string) ([]string, error) {
		return []string{"https://a.example/", "https://b.example/", "https://c.example/"}, nil
	})
	d.Fetcher = sleepFetcher(nil, nil) // 所有探测都以 connection refused 失败

	endpoint, err := d.Discover(context.Background())

	require.NoError(t, err, "zero reachable endpoints is not an error")
	assert.Equal(t, "", endpoint)
}

func TestDiscoverResolutionErrorSkipsProbes(t *testing.T) {
	resolveErr := errors.New("lookup all.api.example.test: no such host")

	var calls atomic.Int32
	d := New(testConfig(), nil)
	d.Resolver = ResolverFunc(func(ctx context.Context, name string) ([]string, error) {
		return nil, resolveErr
	})
	d.Fetcher = sleepFetcher(map[string]time.Duration{}, &calls)

	endpoint, err := d.Discover(context.Background())

	assert.ErrorIs(t, err, resolveErr)
	assert.Equal(t, "", endpoint)
	assert.EqualValues(t, 0, calls.Load(), "no probe may run after a resolution failure")
}

func TestDiscoverApiURLsReturnsSuccessfulSubset(t *testing.T) {
	candidates := []string{
		"https://a.example/",
		"https://b.example/",
		"https://c.example/",
		"https://d.example/",
		"https://e.example/",
	}
	succeeding := map[string]time.Duration{
		"https://a.example/": 30 * time.Millisecond,
		"https://c.example/": 10 * time.Millisecond,
		"https://e.example/": 50 * time.Millisecond,
	}

	d := New(testConfig(), nil)
	d.Fetcher = sleepFetcher(succeeding, nil)

	results := d.DiscoverApiURLs(context.Background(), candidates)

	require.Len(t, results, len(succeeding))
	for _, result := range results {
		assert.Contains(t, succeeding, result.Endpoint)
		assert.GreaterOrEqual(t, result.Duration, succeeding[result.Endpoint])
	}
}

func TestDiscoverApiURLsTimeoutExcludesSlowProbe(t *testing.T) {
	cfg := testConfig()
	cfg.ProbeTimeoutMS = 100

	// 慢端点故意无视 ctx，模拟不配合取消的探测实现
	d := New(cfg, nil)
	d.Fetcher = StatsFetcherFunc(func(ctx context.Context, apiURL string) (model.Stats, error) {
		if apiURL == "https://slow.example/" {
			time.Sleep(500 * time.Millisecond)
			return model.Stats{}, nil
		}
		time.Sleep(10 * time.Millisecond)
		return model.Stats{Status: "OK"}, nil
	})

	start := time.Now()
	results := d.DiscoverApiURLs(context.Background(),
		[]string{"https://slow.example/", "https://fast.example/"})

	require.Len(t, results, 1)
	assert.Equal(t, "https://fast.example/", results[0].Endpoint)
	assert.Less(t, time.Since(start), 450*time.Millisecond,
		"the prober must not wait for an abandoned probe's late result")
}

func TestDiscoverApiURLsQueuesBeyondPoolSize(t *testing.T) {
	cfg := testConfig()
	cfg.ProbeConcurrency = 2

	delays := make(map[string]time.Duration)
	var candidates []string
	for _, host := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		apiURL := "https://" + host + ".example/"
		candidates = append(candidates, apiURL)
		delays[apiURL] = 20 * time.Millisecond
	}

	var inFlight, maxInFlight atomic.Int32
	d := New(cfg, nil)
	d.Fetcher = StatsFetcherFunc(func(ctx context.Context, apiURL string) (model.Stats, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			current := maxInFlight.Load()
			if n <= current || maxInFlight.CompareAndSwap(current, n) {
				break
			}
		}
		return sleepFetcher(delays, nil)(ctx, apiURL)
	})

	results := d.DiscoverApiURLs(context.Background(), candidates)

	assert.Len(t, results, len(candidates), "queued probes must not be dropped")
	assert.LessOrEqual(t, maxInFlight.Load(), int32(cfg.ProbeConcurrency))
}

func TestDiscoverApiURLsZeroConcurrencyFallsBackToDefault(t *testing.T) {
	cfg := testConfig()
	cfg.ProbeConcurrency = 0

	d := New(cfg, nil)
	d.Fetcher = sleepFetcher(map[string]time.Duration{
		"https://a.example/": 5 * time.Millisecond,
	}, nil)

	results := d.DiscoverApiURLs(context.Background(), []string{"https://a.example/"})

	assert.Len(t, results, 1)
}

func TestDiscoverApiURLsRateLimitDelaysButKeepsResults(t *testing.T) {
	cfg := testConfig()
	cfg.ProbeRateLimit = 50 // 每秒 50 次，3 个探测至少间隔 20ms

	d := New(cfg, nil)
	d.Fetcher = sleepFetcher(map[string]time.Duration{
		"https://a.example/": time.Millisecond,
		"https://b.example/": time.Millisecond,
		"https://c.example/": time.Millisecond,
	}, nil)

	results := d.DiscoverApiURLs(context.Background(),
		[]string{"https://a.example/", "https://b.example/", "https://c.example/"})

	assert.Len(t, results, 3)
}
