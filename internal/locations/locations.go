package locations

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
)

// RegionMap 用于存储国家代码到地区名称的映射
type RegionMap map[string]string

// LoadLocationsFromFile 从指定的 JSON 文件加载位置数据
func LoadLocationsFromFile(filePath string) (RegionMap, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("无法读取位置文件 '%s': %w", filePath, err)
	}

	// 临时的结构，用于解析JSON数组中的每个对象
	type locationEntry struct {
		Code   string `json:"code"`
		Region string `json:"region"`
	}

	var entries []locationEntry
	err = json.Unmarshal(data, &entries)
	if err != nil {
		return nil, fmt.Errorf("解析位置文件 JSON 失败: %w", err)
	}

	regionMap := make(RegionMap)
	for _, entry := range entries {
		if entry.Code != "" && entry.Region != "" {
			regionMap[entry.Code] = entry.Region
		}
	}

	return regionMap, nil
}

// GetRegion 根据国家代码从映射中查找地区名称
func (rm RegionMap) GetRegion(code string) (string, bool) {
	region, ok := rm[code]
	return region, ok
}

// CountryCode 从端点主机名中提取国家代码前缀。
// 端点主机名形如 de1.api.radio-browser.info，取第一个标签的字母前缀；
// 主机名为 IP 字面量或无法识别时返回空字符串
func CountryCode(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	label, _, _ := strings.Cut(u.Hostname(), ".")

	code := strings.TrimRight(label, "0123456789")
	if code == "" || code != strings.Map(letterOnly, code) {
		return ""
	}
	return strings.ToLower(code)
}

func letterOnly(r rune) rune {
	if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
		return r
	}
	return -1
}
