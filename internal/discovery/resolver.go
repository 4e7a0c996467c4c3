package discovery

import (
	"context"
	"fmt"
	"net"
	"strings"
)

// NetResolver 基于系统解析器的默认 Resolver 实现。
// 把名称解析出的每个地址映射为其规范主机名（反向解析），
// 再格式化为 https://<host>/ 形式的候选 URL，顺序与解析结果一致
type NetResolver struct {
	// Resolver 可选的自定义解析器，为 nil 时使用 net.DefaultResolver
	Resolver *net.Resolver
}

// Resolve 解析 DNS 名称并返回候选端点 URL 列表，
// 名称无法解析到任何地址时返回错误
func (r *NetResolver) Resolve(ctx context.Context, name string) ([]string, error) {
	resolver := r.Resolver
	if resolver == nil {
		resolver = net.DefaultResolver
	}

	addrs, err := resolver.LookupIPAddr(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("解析 DNS 名称 '%s' 失败: %w", name, err)
	}

	urls := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		names, err := resolver.LookupAddr(ctx, addr.IP.String())
		host := canonicalHost(names, err, addr.IP)
		urls = append(urls, formatCandidateURL(host))
	}
	return urls, nil
}

// canonicalHost 取反向解析出的第一个主机名；没有 PTR 记录时退回 IP 字面量
func canonicalHost(names []string, lookupErr error, ip net.IP) string {
	if lookupErr == nil && len(names) > 0 {
		return strings.TrimSuffix(names[0], ".")
	}
	if ip.To4() == nil {
		// IPv6 字面量在 URL 中需要加方括号
		return "[" + ip.String() + "]"
	}
	return ip.String()
}

// formatCandidateURL 把主机名格式化为候选端点的基础 URL
func formatCandidateURL(host string) string {
	return fmt.Sprintf("https://%s/", host)
}
