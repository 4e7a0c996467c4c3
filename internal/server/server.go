package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"time"

	"embed"

	"github.com/gorilla/websocket"
	"gopkg.in/yaml.v3"

	"Radio_Endpoint_Selector_Go/internal/config"
	"Radio_Endpoint_Selector_Go/internal/datasource"
	"Radio_Endpoint_Selector_Go/internal/discovery"
	"Radio_Endpoint_Selector_Go/internal/locations"
	"Radio_Endpoint_Selector_Go/internal/output"
	"Radio_Endpoint_Selector_Go/internal/tester"
)

//go:embed web
var embeddedFS embed.FS

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins
	},
}

// Start 启动 Web 服务器
func Start(port int, cfgPath, locationsPath, fallbacksPath string) {
	// Create a sub-filesystem to remove the "web" prefix
	staticFS, err := fs.Sub(embeddedFS, "web")
	if err != nil {
		log.Fatalf("Failed to create sub filesystem: %v", err)
	}

	http.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		f, err := staticFS.Open("index.html")
		if err != nil {
			http.Error(w, "index.html not found", http.StatusInternalServerError)
			return
		}
		defer f.Close()

		content, err := io.ReadAll(f)
		if err != nil {
			http.Error(w, "failed to read index.html", http.StatusInternalServerError)
			return
		}
		http.ServeContent(w, r, "index.html", time.Now(), bytes.NewReader(content))
	})

	http.HandleFunc("/api/config", HandleConfig(cfgPath))
	http.HandleFunc("/api/locations", HandleLocations(locationsPath))
	http.HandleFunc("/ws/run", handleWebSocket(cfgPath, locationsPath, fallbacksPath))

	addr := fmt.Sprintf("0.0.0.0:%d", port)
	log.Printf("服务器正在启动，请在浏览器中打开 http://%s", addr)

	// 尝试在默认浏览器中打开 URL
	go openBrowser(fmt.Sprintf("http://%s", addr))

	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatalf("服务器启动失败: %v", err)
	}
}

// HandleConfig 返回配置读写处理函数，GET 返回当前配置，POST 保存修改
func HandleConfig(cfgPath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case "GET":
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				http.Error(w, "Failed to load config", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(cfg)
		case "POST":
			var newConfig map[string]interface{}
			if err := json.NewDecoder(r.Body).Decode(&newConfig); err != nil {
				http.Error(w, "Invalid request body", http.StatusBadRequest)
				return
			}
			if err := saveConfigWithComments(cfgPath, newConfig); err != nil {
				http.Error(w, fmt.Sprintf("Failed to save config: %v", err), http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusOK)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandleLocations 返回国家代码到地区名称映射的处理函数
func HandleLocations(locationsPath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		regionMap, err := locations.LoadLocationsFromFile(locationsPath)
		if err != nil {
			http.Error(w, "Failed to load locations", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(regionMap)
	}
}

// runResult 是通过 WebSocket 发送给前端的最终结果
type runResult struct {
	Best         string                       `json:"best"`
	FallbackUsed bool                         `json:"fallback_used"`
	VerifyDelay  int64                        `json:"verify_delay_ms,omitempty"`
	Results      []output.HumanReadableResult `json:"results"`
}

func handleWebSocket(cfgPath, locationsPath, fallbacksPath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("WebSocket upgrade failed:", err)
			return
		}

		// 1. Wait for the initial config message from the client
		_, msg, err := conn.ReadMessage()
		if err != nil {
			log.Println("WebSocket read for config failed:", err)
			return
		}

		// 先加载文件中的配置作为基础，再用 WebSocket 发来的数据覆盖它，
		// 前端没有提供的字段将保留文件中的值
		runConfig, err := config.LoadConfig(cfgPath)
		if err != nil {
			log.Printf("Failed to load base config: %v", err)
			conn.WriteMessage(websocket.TextMessage, []byte(fmt.Sprintf("Error: Failed to load base config: %v", err)))
			return
		}
		if err := json.Unmarshal(msg, runConfig); err != nil {
			log.Println("Failed to unmarshal config from WebSocket:", err)
			conn.WriteMessage(websocket.TextMessage, []byte(fmt.Sprintf("Error: Invalid config format: %v", err)))
			return
		}
		runConfig.ApplyDefaults()

		// 2. Create a context that can be cancelled if the client disconnects
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// 3. Start a separate goroutine to listen for client-side close messages
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					log.Printf("Client disconnected: %v", err)
					break
				}
			}
		}()

		type webSocketMessage struct {
			Type    string      `json:"type"` // "log" or "result"
			Payload interface{} `json:"payload"`
		}

		// Create a channel to serialize all WebSocket writes
		writeChan := make(chan webSocketMessage, 64)
		go func() {
			for msg := range writeChan {
				if err := conn.WriteJSON(msg); err != nil {
					log.Printf("WebSocket write error: %v", err)
					break
				}
			}
		}()

		progressCallback := func(message string) {
			select {
			case <-ctx.Done():
				return // Don't send if client is gone
			default:
				writeChan <- webSocketMessage{Type: "log", Payload: message}
			}
		}

		// 4. Run the discovery in the main handler goroutine
		d := discovery.New(runConfig, progressCallback)
		apiURLs, err := d.ApiURLs(ctx)
		if err != nil {
			errMsg := fmt.Sprintf("DNS 解析失败: %v", err)
			progressCallback(errMsg)
			log.Println(errMsg)
		} else {
			progressCallback(fmt.Sprintf("DNS 解析完成，共 %d 个候选端点。", len(apiURLs)))
			results := d.DiscoverApiURLs(ctx, apiURLs)

			regionMap, err := locations.LoadLocationsFromFile(locationsPath)
			if err != nil {
				log.Printf("加载位置文件失败: %v", err)
				regionMap = locations.RegionMap{}
			}

			payload := runResult{
				Results: output.ToHumanReadable(results, regionMap),
			}
			payload.Best, _ = discovery.SelectBest(results)

			if payload.Best == "" {
				progressCallback("没有发现可用端点，尝试后备端点...")
				payload.Best = pickFallback(runConfig, fallbacksPath)
				payload.FallbackUsed = payload.Best != ""
			}

			// 对最终选中的端点做多轮延迟验证
			if payload.Best != "" && runConfig.VerifyPingTimes > 0 {
				pingResult, err := tester.Ping(payload.Best, runConfig.UserAgent,
					runConfig.VerifyPingTimes, runConfig.HTTPTimeout())
				if err != nil {
					progressCallback(fmt.Sprintf("端点 %s 延迟验证失败: %v", payload.Best, err))
				} else {
					payload.VerifyDelay = pingResult.Delay.Milliseconds()
					progressCallback(fmt.Sprintf("端点 %s 验证延迟 %d ms，丢包 %.0f%%",
						payload.Best, pingResult.Delay.Milliseconds(), pingResult.LossRate*100))
				}
			}

			select {
			case <-ctx.Done():
			default:
				writeChan <- webSocketMessage{Type: "result", Payload: payload}
			}
		}

		// 5. After the discovery is done, close the connection
		progressCallback("--- 任务完成 ---")
		close(writeChan)
		time.Sleep(200 * time.Millisecond) // Give writer goroutine a moment to send the last message
		conn.Close()
	}
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

func saveConfigWithComments(cfgPath string, newValues map[string]interface{}) error {
	data, err := os.ReadFile(cfgPath)
	if err != nil {
		return err
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return err
	}

	// yaml.v3 unmarshals to a document node, we need the content
	docNode := root.Content[0]

	// Iterate through the key-value pairs of the mapping node
	for i := 0; i < len(docNode.Content); i += 2 {
		keyNode := docNode.Content[i]
		valNode := docNode.Content[i+1]

		if newValue, ok := newValues[keyNode.Value]; ok {
			setScalarValue(valNode, newValue)
		}
	}

	out, err := yaml.Marshal(&root)
	if err != nil {
		return err
	}

	return os.WriteFile(cfgPath, out, 0644)
}

// setScalarValue 更新 yaml.Node 的标量值并推断其类型标签，
// 本配置文件中只有标量字段
func setScalarValue(node *yaml.Node, value interface{}) {
	s := fmt.Sprintf("%v", value)
	node.Value = s
	node.Kind = yaml.ScalarNode

	var i int
	var f float64
	switch {
	case s == "true" || s == "false":
		node.Tag = "!!bool"
	case json.Unmarshal([]byte(s), &i) == nil:
		node.Tag = "!!int"
	case json.Unmarshal([]byte(s), &f) == nil:
		node.Tag = "!!float"
	default:
		node.Tag = "!!str"
	}
}

// openBrowser tries to open the URL in a default browser.
func openBrowser(url string) {
	var err error
	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", url).Start()
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		err = exec.Command("open", url).Start()
	default:
		err = fmt.Errorf("unsupported platform")
	}
	if err != nil {
		log.Printf("无法自动打开浏览器: %v\n请手动打开 %s", err, url)
	}
}
