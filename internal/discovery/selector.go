package discovery

import (
	"sort"

	"Radio_Endpoint_Selector_Go/pkg/model"
)

// Rank 返回按耗时升序排序后的结果副本。
// 排序是稳定的：耗时相同的结果保持输入顺序；输入本身不会被修改
func Rank(results []model.DiscoveryResult) []model.DiscoveryResult {
	ranked := make([]model.DiscoveryResult, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Duration < ranked[j].Duration
	})
	return ranked
}

// SelectBest 从探测结果中选出耗时最短的端点。
// 结果为空时 ok 为 false，表示没有可用端点（这是正常结果而非错误）
func SelectBest(results []model.DiscoveryResult) (endpoint string, ok bool) {
	if len(results) == 0 {
		return "", false
	}
	ranked := Rank(results)
	return ranked[0].Endpoint, true
}
