package datasource

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadFallbacksFromFile 从指定路径的文件中读取后备端点列表。
// 它会忽略空行和以 '#' 开头的注释行，去重并保留文件中的顺序，
// 发现流程没有找到任何可用端点时按此顺序尝试后备端点
func LoadFallbacksFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("无法打开后备端点文件 '%s': %w", filePath, err)
	}
	defer file.Close()

	seen := make(map[string]struct{})
	var endpoints []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, exists := seen[line]; exists {
			continue
		}
		seen[line] = struct{}{}
		endpoints = append(endpoints, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取后备端点文件时出错: %w", err)
	}

	if len(endpoints) == 0 {
		return nil, fmt.Errorf("后备端点文件 '%s' 为空或未包含有效端点", filePath)
	}

	return endpoints, nil
}
