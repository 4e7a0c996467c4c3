package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultDNSName 用于发现 API 端点的 DNS 名称
	DefaultDNSName = "all.api.radio-browser.info"
	// DefaultProbeConcurrency 默认的探测并发数
	DefaultProbeConcurrency = 10
	// DefaultTimeoutMillis 默认的探测与 HTTP 超时（毫秒）
	DefaultTimeoutMillis = 5000
)

// Config 结构用于映射 config.yaml 文件的内容
type Config struct {
	DNSName          string  `yaml:"dns_name" json:"dns_name"`
	UserAgent        string  `yaml:"user_agent" json:"user_agent"`
	ProxyURI         string  `yaml:"proxy_uri" json:"proxy_uri"`
	ProxyUser        string  `yaml:"proxy_user" json:"proxy_user"`
	ProxyPassword    string  `yaml:"proxy_password" json:"proxy_password"`
	ProbeConcurrency int     `yaml:"probe_concurrency" json:"probe_concurrency"`
	ProbeTimeoutMS   int     `yaml:"probe_timeout_ms" json:"probe_timeout_ms"`
	HTTPTimeoutMS    int     `yaml:"http_timeout_ms" json:"http_timeout_ms"`
	ProbeRateLimit   float64 `yaml:"probe_rate_limit" json:"probe_rate_limit"`
	VerifyPingTimes  int     `yaml:"verify_ping_times" json:"verify_ping_times"`
	FallbackEndpoint string  `yaml:"fallback_endpoint" json:"fallback_endpoint"`
}

// LoadConfig 从指定路径加载和解析 YAML 配置文件
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults 为未设置的字段填充默认值
func (c *Config) ApplyDefaults() {
	if c.DNSName == "" {
		c.DNSName = DefaultDNSName
	}
	if c.ProbeTimeoutMS <= 0 {
		c.ProbeTimeoutMS = DefaultTimeoutMillis
	}
	if c.HTTPTimeoutMS <= 0 {
		c.HTTPTimeoutMS = DefaultTimeoutMillis
	}
}

// ProbeTimeout 返回单次探测的整体等待上限
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutMS) * time.Millisecond
}

// HTTPTimeout 返回探测请求使用的 HTTP 客户端内部超时
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutMS) * time.Millisecond
}
