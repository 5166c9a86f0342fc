package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Routes 观战与管理接口
//
//	/ws              观战端（状态帧 + 输入）
//	/state           当前状态帧
//	/metrics         运行指标
//	/admin/loglevel  GET 读取 / PUT {"level":"debug"} 调整日志级别
//	/healthz         存活检查
func (s *Session) Routes(level zap.AtomicLevel) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleWS)
	mux.HandleFunc("/state", s.HandleState)
	mux.HandleFunc("/metrics", s.HandleMetrics)
	mux.Handle("/admin/loglevel", level)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// HandleState 输出最近一次发布的状态帧
// GET /state
func (s *Session) HandleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.Frame())
}

// HandleMetrics 输出会话运行指标
// GET /metrics
func (s *Session) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"session": s.ID,
		"metrics": s.metrics.Snapshot(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
