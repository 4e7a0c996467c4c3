package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "embed"

	"Radio_Endpoint_Selector_Go/internal/config"
	"Radio_Endpoint_Selector_Go/internal/datasource"
	"Radio_Endpoint_Selector_Go/internal/discovery"
	"Radio_Endpoint_Selector_Go/internal/locations"
	"Radio_Endpoint_Selector_Go/internal/output"
	"Radio_Endpoint_Selector_Go/internal/server"
	"Radio_Endpoint_Selector_Go/internal/tester"
)

//go:embed default_config.yaml
var defaultConfigData []byte

//go:embed locations.json
var defaultLocationsData []byte

//go:embed fallback_servers.txt
var defaultFallbacksData []byte

// ensureFile 检查文件是否存在于可执行文件目录，如果不存在，则使用提供的默认数据创建它。
func ensureFile(fileName string, defaultData []byte) (string, error) {
	exePath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("无法获取可执行文件路径: %w", err)
	}
	exeDir := filepath.Dir(exePath)
	filePath := filepath.Join(exeDir, fileName)

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		if err := os.WriteFile(filePath, defaultData, 0644); err != nil {
			return "", fmt.Errorf("无法写入默认文件 %s: %w", fileName, err)
		}
		log.Printf("首次运行，已在 %s 生成默认 %s 文件", exeDir, fileName)
	} else if err != nil {
		return "", fmt.Errorf("检查文件 %s 时出错: %w", fileName, err)
	}
	return filePath, nil
}

func main() {
	// 定义命令行标志
	cliMode := flag.Bool("cli", false, "以命令行模式运行")
	verify := flag.Bool("verify", false, "对选出的端点执行多轮延迟验证 (仅命令行模式)")
	port := flag.Int("port", 8080, "Web 服务器监听端口")
	flag.Parse()

	// 确保所有必需的文件都存在
	cfgPath, err := ensureFile("config.yaml", defaultConfigData)
	if err != nil {
		log.Fatalf("初始化配置文件失败: %v", err)
	}
	locationsPath, err := ensureFile("locations.json", defaultLocationsData)
	if err != nil {
		log.Fatalf("初始化 locations.json 失败: %v", err)
	}
	fallbacksPath, err := ensureFile("fallback_servers.txt", defaultFallbacksData)
	if err != nil {
		log.Fatalf("初始化 fallback_servers.txt 失败: %v", err)
	}

	if *cliMode {
		// --- 命令行模式 ---
		runCli(cfgPath, locationsPath, fallbacksPath, *verify)
	} else {
		// --- Web 服务器模式 (默认) ---
		server.Start(*port, cfgPath, locationsPath, fallbacksPath)
	}
}

// runCli 执行一次完整的端点发现并把结果写入文件
func runCli(cfgPath, locationsPath, fallbacksPath string, verify bool) {
	log.Println("--- 以命令行模式运行 ---")

	// 1. 加载配置
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("加载配置文件失败: %v", err)
	}
	log.Printf("配置加载成功：DNS 名称=%s, 探测并发数=%d, 探测超时=%d ms",
		cfg.DNSName, cfg.ProbeConcurrency, cfg.ProbeTimeoutMS)

	regionMap, err := locations.LoadLocationsFromFile(locationsPath)
	if err != nil {
		log.Fatalf("加载 locations.json 失败: %v", err)
	}

	// 定义日志回调函数
	progressCallback := func(message string) {
		log.Println(message)
	}

	// 2. 运行发现流程
	ctx := context.Background()
	d := discovery.New(cfg, progressCallback)

	apiURLs, err := d.ApiURLs(ctx)
	if err != nil {
		log.Fatalf("DNS 解析失败: %v", err)
	}
	results := d.DiscoverApiURLs(ctx, apiURLs)

	best, ok := discovery.SelectBest(results)
	if !ok {
		log.Println("没有发现可用端点，尝试后备端点...")
		best = pickFallback(cfg, fallbacksPath)
		if best == "" {
			log.Fatalf("没有可用端点，也没有配置后备端点")
		}
		log.Printf("使用后备端点: %s", best)
	} else {
		log.Printf("最优端点: %s", best)
	}

	// 3. 可选的延迟验证
	if verify && cfg.VerifyPingTimes > 0 {
		pingResult, err := tester.Ping(best, cfg.UserAgent, cfg.VerifyPingTimes, cfg.HTTPTimeout())
		if err != nil {
			log.Printf("端点 %s 延迟验证失败: %v", best, err)
		} else {
			log.Printf("端点 %s 验证延迟 %d ms，丢包 %.0f%%",
				best, pingResult.Delay.Milliseconds(), pingResult.LossRate*100)
		}
	}

	// 4. 写入结果文件
	log.Println("写入结果文件...")
	rows := output.ToHumanReadable(results, regionMap)

	exeDir := filepath.Dir(cfgPath)
	resultJSONFile := filepath.Join(exeDir, "result_endpoints.json")
	resultCSVFile := filepath.Join(exeDir, "result_endpoints.csv")

	if err := output.WriteJSONFile(resultJSONFile, rows); err != nil {
		log.Fatalf("写入 result_endpoints.json 失败: %v", err)
	}
	if err := output.WriteCSVFile(resultCSVFile, rows); err != nil {
		log.Fatalf("写入 result_endpoints.csv 失败: %v", err)
	}
	log.Printf("结果已成功写入 %s 和 %s", resultJSONFile, resultCSVFile)

	log.Println("--- 所有任务已完成 ---")
}

// pickFallback 按配置和后备文件的顺序返回第一个后备端点
func pickFallback(cfg *config.Config, fallbacksPath string) string {
	if cfg.FallbackEndpoint != "" {
		return cfg.FallbackEndpoint
	}
	fallbacks, err := datasource.LoadFallbacksFromFile(fallbacksPath)
	if err != nil {
		log.Printf("加载后备端点失败: %v", err)
		return ""
	}
	return fallbacks[0]
}
