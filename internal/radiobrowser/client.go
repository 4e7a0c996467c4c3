package radiobrowser

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"Radio_Endpoint_Selector_Go/pkg/model"
)

// ConnectionParams 包含构造一次探测所需的全部连接参数，构造后只读
type ConnectionParams struct {
	APIURL        string        // 端点基础 URL，形如 https://de1.api.radio-browser.info/
	UserAgent     string        // 发现过程使用的 User-Agent
	Timeout       time.Duration // HTTP 客户端内部超时（连接 + 读取）
	ProxyURI      string        // 可选的 HTTP 代理地址
	ProxyUser     string        // 可选的代理用户名
	ProxyPassword string        // 可选的代理密码
}

// Client 针对单个 API 端点的统计信息客户端
type Client struct {
	params ConnectionParams
	hc     *http.Client
}

// NewClient 根据连接参数构造客户端
func NewClient(params ConnectionParams) (*Client, error) {
	transport := &http.Transport{}
	if params.ProxyURI != "" {
		proxyURL, err := url.Parse(params.ProxyURI)
		if err != nil {
			return nil, fmt.Errorf("解析代理地址 '%s' 失败: %w", params.ProxyURI, err)
		}
		if params.ProxyUser != "" {
			proxyURL.User = url.UserPassword(params.ProxyUser, params.ProxyPassword)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return &Client{
		params: params,
		hc: &http.Client{
			Timeout:   params.Timeout,
			Transport: transport,
		},
	}, nil
}

// ServerStats 向端点发起一次 /json/stats 请求并解析统计信息，
// 任何连接、协议或解析错误都会使该端点在本次发现中被排除
func (c *Client) ServerStats(ctx context.Context) (model.Stats, error) {
	statsURL := strings.TrimSuffix(c.params.APIURL, "/") + "/json/stats"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statsURL, nil)
	if err != nil {
		return model.Stats{}, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("User-Agent", c.params.UserAgent)
	req.Header.Set("Accept", "application/json")

	response, err := c.hc.Do(req)
	if err != nil {
		return model.Stats{}, fmt.Errorf("请求失败: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		io.Copy(io.Discard, response.Body)
		return model.Stats{}, fmt.Errorf("无效的状态码: %d", response.StatusCode)
	}

	var stats model.Stats
	if err := json.NewDecoder(response.Body).Decode(&stats); err != nil {
		return model.Stats{}, fmt.Errorf("解析统计信息失败: %w", err)
	}

	return stats, nil
}
