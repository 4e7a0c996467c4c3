// Package discovery 实现 API 端点的发现与优选：
// 把 DNS 名称解析为候选端点列表，并发探测每个候选，按耗时排序后返回最优端点。
package discovery

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"Radio_Endpoint_Selector_Go/internal/config"
	"Radio_Endpoint_Selector_Go/internal/radiobrowser"
	"Radio_Endpoint_Selector_Go/pkg/model"
)

// ProgressCallback 是一个用于报告进度的回调函数类型
type ProgressCallback func(message string)

// Resolver 负责把 DNS 名称解析为候选端点 URL 列表，
// 可以替换该接口以便在测试中注入假的解析结果
type Resolver interface {
	Resolve(ctx context.Context, name string) ([]string, error)
}

// ResolverFunc 是 Resolver 接口的函数形式适配器
type ResolverFunc func(ctx context.Context, name string) ([]string, error)

// Resolve 调用函数本身
func (f ResolverFunc) Resolve(ctx context.Context, name string) ([]string, error) {
	return f(ctx, name)
}

// StatsFetcher 负责对单个候选端点执行一次统计信息请求，
// 默认实现为每次探测构造一个新的 radiobrowser 客户端
type StatsFetcher interface {
	FetchServerStats(ctx context.Context, apiURL string) (model.Stats, error)
}

// StatsFetcherFunc 是 StatsFetcher 接口的函数形式适配器
type StatsFetcherFunc func(ctx context.Context, apiURL string) (model.Stats, error)

// FetchServerStats 调用函数本身
func (f StatsFetcherFunc) FetchServerStats(ctx context.Context, apiURL string) (model.Stats, error) {
	return f(ctx, apiURL)
}

// Discoverer 端点发现器，组合解析、探测、优选三个阶段。
// Resolver 和 Fetcher 字段在构造后可以被替换以注入测试替身。
type Discoverer struct {
	Resolver Resolver
	Fetcher  StatsFetcher

	cfg      *config.Config
	progress ProgressCallback
}

// New 构造一个使用默认解析器和默认统计客户端的发现器
func New(cfg *config.Config, progressCb ProgressCallback) *Discoverer {
	if progressCb == nil {
		progressCb = func(string) {}
	}
	return &Discoverer{
		Resolver: &NetResolver{},
		Fetcher:  clientFetcher{cfg: cfg},
		cfg:      cfg,
		progress: progressCb,
	}
}

// clientFetcher 默认的统计信息获取实现，每次探测构造一个新的客户端
type clientFetcher struct {
	cfg *config.Config
}

func (f clientFetcher) FetchServerStats(ctx context.Context, apiURL string) (model.Stats, error) {
	client, err := radiobrowser.NewClient(radiobrowser.ConnectionParams{
		APIURL:        apiURL,
		UserAgent:     f.cfg.UserAgent,
		Timeout:       f.cfg.HTTPTimeout(),
		ProxyURI:      f.cfg.ProxyURI,
		ProxyUser:     f.cfg.ProxyUser,
		ProxyPassword: f.cfg.ProxyPassword,
	})
	if err != nil {
		return model.Stats{}, err
	}
	return client.ServerStats(ctx)
}

// ApiURLs 返回 DNS 解析出的全部候选端点 URL。
// 解析出的端点不一定都可用；解析失败时返回错误
func (d *Discoverer) ApiURLs(ctx context.Context) ([]string, error) {
	return d.Resolver.Resolve(ctx, d.cfg.DNSName)
}

// probeOutcome 单次探测在内部 goroutine 中产生的结果
type probeOutcome struct {
	stats model.Stats
	err   error
}

// DiscoverApiURLs 并发探测所有候选端点并收集成功的结果。
// 每个探测受独立的整体超时约束，失败或超时的探测只被记录并排除，
// 不影响其余探测；本函数等待所有探测结束或超时后才返回
func (d *Discoverer) DiscoverApiURLs(ctx context.Context, apiURLs []string) []model.DiscoveryResult {
	concurrency := d.cfg.ProbeConcurrency
	if concurrency <= 0 {
		log.Printf("警告: probe_concurrency 被设置为 %d，自动调整为默认值 %d。", concurrency, config.DefaultProbeConcurrency)
		concurrency = config.DefaultProbeConcurrency
	}

	var limiter *rate.Limiter
	if d.cfg.ProbeRateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(d.cfg.ProbeRateLimit), 1)
	}

	var (
		results []model.DiscoveryResult
		wg      sync.WaitGroup
		mu      sync.Mutex
	)
	probeSemaphore := make(chan struct{}, concurrency)

	for _, apiURL := range apiURLs {
		wg.Add(1)
		go func(apiURL string) {
			probeSemaphore <- struct{}{}
			defer func() {
				<-probeSemaphore
				wg.Done()
			}()

			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					return
				}
			}

			result, err := d.probe(ctx, apiURL)
			if err != nil {
				// 按端点标识记录失败，而不是按候选列表的下标
				log.Printf("端点 %s 探测失败: %v", apiURL, err)
				d.progress(fmt.Sprintf("端点 %s 探测失败: %v", apiURL, err))
				return
			}

			mu.Lock()
			results = append(results, result)
			mu.Unlock()
			d.progress(fmt.Sprintf("端点 %s 探测完成，耗时 %d ms", apiURL, result.Duration.Milliseconds()))
		}(apiURL)
	}
	wg.Wait()

	return results
}

// probe 对单个候选端点执行一次带整体超时的探测。
// 超时后探测被放弃，迟到的结果会被丢弃
func (d *Discoverer) probe(ctx context.Context, apiURL string) (model.DiscoveryResult, error) {
	probeCtx, cancel := context.WithTimeout(ctx, d.cfg.ProbeTimeout())
	defer cancel()

	outcomeChan := make(chan probeOutcome, 1)
	start := time.Now()
	go func() {
		stats, err := d.Fetcher.FetchServerStats(probeCtx, apiURL)
		outcomeChan <- probeOutcome{stats: stats, err: err}
	}()

	select {
	case outcome := <-outcomeChan:
		if outcome.err != nil {
			return model.DiscoveryResult{}, outcome.err
		}
		return model.DiscoveryResult{
			Endpoint: apiURL,
			Duration: time.Since(start),
			Stats:    outcome.stats,
		}, nil
	case <-probeCtx.Done():
		return model.DiscoveryResult{}, probeCtx.Err()
	}
}

// Discover 执行完整的发现流程：解析、并发探测、按耗时优选。
// 仅在 DNS 解析失败时返回错误；没有任何可用端点属于正常结果，
// 此时返回空字符串而不是错误
func (d *Discoverer) Discover(ctx context.Context) (string, error) {
	apiURLs, err := d.ApiURLs(ctx)
	if err != nil {
		return "", err
	}
	d.progress(fmt.Sprintf("DNS 解析完成，共 %d 个候选端点。", len(apiURLs)))

	results := d.DiscoverApiURLs(ctx, apiURLs)
	d.progress(fmt.Sprintf("探测完成，%d/%d 个端点可用。", len(results), len(apiURLs)))

	endpoint, ok := SelectBest(results)
	if !ok {
		return "", nil
	}
	return endpoint, nil
}
