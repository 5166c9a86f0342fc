package server

import (
	"sync/atomic"

	"herosync/game"
	"herosync/netctl"
)

// SessionMetrics 记录会话运行期的关键指标（Tick 协程写，HTTP 协程读）
type SessionMetrics struct {
	TickCount      int64 // 统计的 Tick 次数
	TotalTickNs    int64 // Tick 累计耗时（纳秒）
	InputsAccepted int64 // 进入 Tick 的本地输入
	InputsDropped  int64 // 因通道满被丢弃的输入
	Spectators     int64 // 当前观战连接数

	// 以下为每个 Tick 末尾从网络层与编排器同步的计数
	PacketsSent         int64
	PacketsReceived     int64
	BytesSent           int64
	BytesReceived       int64
	InstructionsSent    int64
	InstructionsApplied int64
	SyncsSent           int64
	SyncsApplied        int64
	UnknownHeroDropped  int64
	LatencyMs           int64
}

func (m *SessionMetrics) IncAccepted() { atomic.AddInt64(&m.InputsAccepted, 1) }
func (m *SessionMetrics) IncDropped() { atomic.AddInt64(&m.InputsDropped, 1) }
func (m *SessionMetrics) SetSpectators(n int) { atomic.StoreInt64(&m.Spectators, int64(n)) }
func (m *SessionMetrics) AddTick(ns int64) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, ns)
}

// Observe 同步网络层与编排器的累计计数
func (m *SessionMetrics) Observe(ns netctl.Stats, gs game.Stats, latency uint32) {
	atomic.StoreInt64(&m.PacketsSent, ns.Sent)
	atomic.StoreInt64(&m.PacketsReceived, ns.Received)
	atomic.StoreInt64(&m.BytesSent, ns.BytesSent)
	atomic.StoreInt64(&m.BytesReceived, ns.BytesReceived)
	atomic.StoreInt64(&m.InstructionsSent, gs.InstructionsSent)
	atomic.StoreInt64(&m.InstructionsApplied, gs.InstructionsApplied)
	atomic.StoreInt64(&m.SyncsSent, gs.SyncsSent)
	atomic.StoreInt64(&m.SyncsApplied, gs.SyncsApplied)
	atomic.StoreInt64(&m.UnknownHeroDropped, gs.UnknownHeroDropped)
	atomic.StoreInt64(&m.LatencyMs, int64(latency))
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *SessionMetrics) Snapshot() map[string]any {
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"tick_count":           tick,
		"avg_tick_ms":          avgMs,
		"inputs_accepted":      atomic.LoadInt64(&m.InputsAccepted),
		"inputs_dropped":       atomic.LoadInt64(&m.InputsDropped),
		"spectators":           atomic.LoadInt64(&m.Spectators),
		"packets_sent":         atomic.LoadInt64(&m.PacketsSent),
		"packets_received":     atomic.LoadInt64(&m.PacketsReceived),
		"bytes_sent":           atomic.LoadInt64(&m.BytesSent),
		"bytes_received":       atomic.LoadInt64(&m.BytesReceived),
		"instructions_sent":    atomic.LoadInt64(&m.InstructionsSent),
		"instructions_applied": atomic.LoadInt64(&m.InstructionsApplied),
		"syncs_sent":           atomic.LoadInt64(&m.SyncsSent),
		"syncs_applied":        atomic.LoadInt64(&m.SyncsApplied),
		"unknown_hero_dropped": atomic.LoadInt64(&m.UnknownHeroDropped),
		"latency_ms":           atomic.LoadInt64(&m.LatencyMs),
	}
}
