package tester

import (
	"fmt"
	"net/http"
	"time"

	"github.com/VividCortex/ewma"
)

// PingResult 包含对单个端点多轮 HTTPing 验证的结果
type PingResult struct {
	Delay    time.Duration // EWMA 平滑后的延迟
	LossRate float64       // 失败轮次占比
}

// Ping 对选出的端点执行多轮 HEAD 请求以验证其延迟与稳定性。
// 全部轮次都失败时返回错误
func Ping(endpoint string, userAgent string, pingTimes int, timeout time.Duration) (*PingResult, error) {
	if pingTimes <= 0 {
		pingTimes = 1
	}

	hc := http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse // 阻止重定向
		},
	}

	success := 0
	e := ewma.NewMovingAverage()
	for i := 0; i < pingTimes; i++ {
		request, err := http.NewRequest(http.MethodHead, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("创建请求失败: %w", err)
		}
		request.Header.Set("User-Agent", userAgent)
		if i == pingTimes-1 {
			request.Header.Set("Connection", "close")
		}

		startTime := time.Now()
		response, err := hc.Do(request)
		if err != nil {
			continue
		}
		response.Body.Close()
		success++
		e.Add(float64(time.Since(startTime)))
	}

	if success == 0 {
		return nil, fmt.Errorf("all pings failed")
	}

	return &PingResult{
		Delay:    time.Duration(e.Value()),
		LossRate: float64(pingTimes-success) / float64(pingTimes),
	}, nil
}
