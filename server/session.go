package server

import (
	"encoding/json"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"herosync/game"
	"herosync/netctl"
)

// Peer 会话依赖的网络端（*netctl.Controller 实现）
type Peer interface {
	game.Net
	Stats() netctl.Stats
	Latency() uint32
}

// Options 会话参数
type Options struct {
	ID             string
	TickInterval   time.Duration
	SpectatorEvery int
	Game           game.Options
	Logger         *zap.SugaredLogger
}

// Session 一次双人同步会话：编排器只在 Tick 协程中推进
type Session struct {
	ID string

	game      *game.Game
	peer      Peer
	inputChan chan Input

	tickInterval   time.Duration
	spectatorEvery int
	tickSeq        int64

	frame      atomic.Pointer[StateFrame]
	spectators *SpectatorManager
	metrics    *SessionMetrics
	log        *zap.SugaredLogger
}

// NewSession 创建会话，初始化编排器与观战管理
func NewSession(peer Peer, opts Options) (*Session, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second / 120
	}
	if opts.SpectatorEvery <= 0 {
		opts.SpectatorEvery = 1
	}
	if opts.Game.Logger == nil {
		opts.Game.Logger = opts.Logger.Named("game")
	}
	g, err := game.New(peer, opts.Game)
	if err != nil {
		return nil, err
	}
	s := &Session{
		ID:             opts.ID,
		game:           g,
		peer:           peer,
		inputChan:      make(chan Input, 256), // 足够缓冲，避免网络读阻塞影响 Tick
		tickInterval:   opts.TickInterval,
		spectatorEvery: opts.SpectatorEvery,
		spectators:     NewSpectatorManager(),
		metrics:        &SessionMetrics{},
		log:            opts.Logger,
	}
	s.publish()
	return s, nil
}

func (s *Session) Metrics() *SessionMetrics { return s.metrics }

// Frame 最近一次发布的状态帧，可在任意协程读取
func (s *Session) Frame() *StateFrame { return s.frame.Load() }

// OnInput 入站输入（不立即生效），等下一次 Tick 处理
func (s *Session) OnInput(in Input) {
	select {
	case s.inputChan <- in:
	default:
		// 丢弃：为了实时性，避免背压影响世界推进
		s.metrics.IncDropped()
	}
}

// ProcessInputs 处理当前帧的所有输入（非阻塞 drain）
func (s *Session) ProcessInputs() {
	for {
		select {
		case in := <-s.inputChan:
			s.metrics.IncAccepted()
			switch in.Kind {
			case InputCursor:
				s.game.UpdateCursor(in.X, in.Y)
			case InputPress:
				s.game.Press(in.Button)
			}
		default:
			return
		}
	}
}

// Step 推进一个 Tick：输入 → 编排器 → 发布状态 → 按频率广播
func (s *Session) Step(dt float64) error {
	start := time.Now()
	s.ProcessInputs()
	if err := s.game.Tick(dt); err != nil {
		return err
	}
	s.tickSeq++
	frame := s.publish()
	if s.tickSeq%int64(s.spectatorEvery) == 0 {
		s.Broadcast(frame)
	}
	s.metrics.Observe(s.peer.Stats(), s.game.Stats(), s.peer.Latency())
	s.metrics.AddTick(time.Since(start).Nanoseconds())
	return nil
}

func (s *Session) publish() *StateFrame {
	f := &StateFrame{
		Type:      "state",
		Session:   s.ID,
		Tick:      s.tickSeq,
		LocalID:   s.game.LocalID(),
		LatencyMs: s.peer.Latency(),
		Heroes:    toHeroStates(s.game.RenderState()),
	}
	s.frame.Store(f)
	return f
}

// Broadcast 将状态帧广播给所有观战端（文本 JSON）
func (s *Session) Broadcast(f *StateFrame) {
	if s.spectators.Count() == 0 {
		return
	}
	b, err := json.Marshal(f)
	if err != nil {
		s.log.Errorf("marshal state: %v", err)
		return
	}
	s.spectators.Broadcast(b)
}

// Close 断开全部观战端
func (s *Session) Close() {
	s.spectators.CloseAll()
	s.metrics.SetSpectators(0)
}
