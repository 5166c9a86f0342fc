package netctl

import (
	"fmt"
	"time"
)

// PingStatus 一次性往返延迟探测的状态：Ready 或 Awaiting(since)
type PingStatus struct {
	awaiting bool
	since    time.Time
}

// Ready 空闲状态
func Ready() PingStatus { return PingStatus{} }

// Awaiting 已发出 Ping，等待对端回应
func Awaiting(since time.Time) PingStatus {
	return PingStatus{awaiting: true, since: since}
}

// IsAwaiting 返回发出时间与是否处于等待
func (s PingStatus) IsAwaiting() (time.Time, bool) { return s.since, s.awaiting }

func (s PingStatus) String() string {
	if s.awaiting {
		return fmt.Sprintf("awaiting(%s)", s.since.Format(time.RFC3339Nano))
	}
	return "ready"
}
