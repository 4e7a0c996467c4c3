package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// WriteCSVFile 将最终结果列表写入到指定的 CSV 文件中
func WriteCSVFile(filePath string, results []HumanReadableResult) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("无法创建 CSV 文件 '%s': %w", filePath, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// 写入表头
	header := []string{
		"Endpoint",
		"Duration (ms)",
		"Region",
		"Stations",
		"Broken Stations",
		"Status",
		"Software Version",
		"Clicks Last Day",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("写入 CSV 表头失败: %w", err)
	}

	// 写入数据行
	for _, r := range results {
		row := []string{
			r.Endpoint,
			strconv.FormatInt(r.DurationMS, 10),
			r.Region,
			strconv.Itoa(r.Stations),
			strconv.Itoa(r.StationsBroken),
			r.Status,
			r.SoftwareVersion,
			strconv.Itoa(r.ClicksLastDay),
		}
		if err := writer.Write(row); err != nil {
			// 记录错误但继续尝试写入其他行
			fmt.Fprintf(os.Stderr, "警告: 写入 CSV 行失败: %v\n", err)
		}
	}

	return writer.Error()
}
