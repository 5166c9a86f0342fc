package server

import (
	"context"
	"time"
)

// Run 固定频率推进会话，直到 ctx 取消（返回 nil）或会话出错
func (s *Session) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()
	dt := s.tickInterval.Seconds()

	s.log.Infof("session %s running at %v per tick, local hero %d", s.ID, s.tickInterval, s.game.LocalID())
	for {
		select {
		case <-ctx.Done():
			s.log.Info("session stopped")
			return nil
		case <-ticker.C:
			// 核心循环：处理输入 → 同步 → 推进 → 广播
			if err := s.Step(dt); err != nil {
				return err
			}
		}
	}
}
