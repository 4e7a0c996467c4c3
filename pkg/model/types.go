package model

import "time"

// Stats 包含端点返回的服务器统计信息（/json/stats 的响应体）
type Stats struct {
	SupportedVersion int    `json:"supported_version"`
	SoftwareVersion  string `json:"software_version"`
	Status           string `json:"status"`
	Stations         int    `json:"stations"`
	StationsBroken   int    `json:"stations_broken"`
	Tags             int    `json:"tags"`
	ClicksLastHour   int    `json:"clicks_last_hour"`
	ClicksLastDay    int    `json:"clicks_last_day"`
	Languages        int    `json:"languages"`
	Countries        int    `json:"countries"`
}

// DiscoveryResult 包含一次成功探测的结果，创建后不再修改
type DiscoveryResult struct {
	Endpoint string        // 被探测的端点基础 URL
	Duration time.Duration // 该次探测的实际耗时
	Stats    Stats         // 端点返回的统计信息
}
