package output

import (
	"Radio_Endpoint_Selector_Go/internal/discovery"
	"Radio_Endpoint_Selector_Go/internal/locations"
	"Radio_Endpoint_Selector_Go/pkg/model"
)

// HumanReadableResult 定义了一个对人类友好的、用于最终文件输出的数据结构
type HumanReadableResult struct {
	Endpoint        string `json:"Endpoint"`
	DurationMS      int64  `json:"DurationMS"` // 探测耗时 (毫秒)
	Region          string `json:"Region"`
	Stations        int    `json:"Stations"`
	StationsBroken  int    `json:"StationsBroken"`
	Status          string `json:"Status"`
	SoftwareVersion string `json:"SoftwareVersion"`
	ClicksLastDay   int    `json:"ClicksLastDay"`
}

// ToHumanReadable 将发现结果按耗时排序并转换为对人类友好的格式
func ToHumanReadable(results []model.DiscoveryResult, regionMap locations.RegionMap) []HumanReadableResult {
	ranked := discovery.Rank(results)

	humanResults := make([]HumanReadableResult, len(ranked))
	for i, r := range ranked {
		region, ok := regionMap.GetRegion(locations.CountryCode(r.Endpoint))
		if !ok {
			region = "Unknown"
		}
		humanResults[i] = HumanReadableResult{
			Endpoint:        r.Endpoint,
			DurationMS:      r.Duration.Milliseconds(),
			Region:          region,
			Stations:        r.Stats.Stations,
			StationsBroken:  r.Stats.StationsBroken,
			Status:          r.Stats.Status,
			SoftwareVersion: r.Stats.SoftwareVersion,
			ClicksLastDay:   r.Stats.ClicksLastDay,
		}
	}
	return humanResults
}
