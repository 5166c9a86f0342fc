package game

import (
	"errors"
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"herosync/entity"
	"herosync/packet"
)

// Net 编排器依赖的网络能力（*netctl.Controller 实现）
type Net interface {
	HeroID() uint8
	Poll() (bool, error)
	Next() (packet.Packet, bool)
	ShouldHeartbeat() bool
	MaybeProbe() error
	SendSync(packet.Sync) error
	SendInstruction(packet.Instruction) error
	HandlePingProbe() error
	RecordLatency(ms uint32)
	SetVerbose(bool)
}

// Button 输入源上报的按键
type Button int

const (
	ButtonMouse Button = iota
	ButtonOther
	KeyD // 打开调试：逐包网络日志
)

// Stats 编排器计数，仅由 Tick 协程读写
type Stats struct {
	Ticks               int64 `json:"ticks"`
	InstructionsSent    int64 `json:"instructions_sent"`
	InstructionsApplied int64 `json:"instructions_applied"`
	SyncsSent           int64 `json:"syncs_sent"`
	SyncsApplied        int64 `json:"syncs_applied"`
	UnknownHeroDropped  int64 `json:"unknown_hero_dropped"`
}

// Options 零值即默认：双人、默认出生点
type Options struct {
	Spawns []entity.Vec2
	Rand   *rand.Rand
	Logger *zap.SugaredLogger
}

// Game 持有名册与本地输入暂存，每个 Tick 做预测、应用远端消息、心跳与推进
type Game struct {
	net    Net
	roster *Roster
	ctrl   Controller
	cursor entity.Vec2
	debug  bool
	stats  Stats
	log    *zap.SugaredLogger
}

// New 创建编排器；本机英雄 ID 取自握手结果
func New(net Net, opts Options) (*Game, error) {
	if opts.Spawns == nil {
		opts.Spawns = DefaultSpawns
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	roster, err := NewRoster(opts.Spawns, Participants, opts.Rand)
	if err != nil {
		return nil, err
	}
	id := net.HeroID()
	if _, err := roster.Get(id); err != nil {
		return nil, fmt.Errorf("assigned hero: %w", err)
	}
	return &Game{
		net:    net,
		roster: roster,
		ctrl:   NewController(id),
		log:    opts.Logger,
	}, nil
}

func (g *Game) LocalID() uint8 { return g.ctrl.HeroID }
func (g *Game) Debug() bool { return g.debug }
func (g *Game) Stats() Stats { return g.stats }
func (g *Game) Cursor() entity.Vec2 { return g.cursor }

// UpdateCursor 记录光标位置
func (g *Game) UpdateCursor(x, y float64) {
	g.cursor = entity.Vec2{X: float32(x), Y: float32(y)}
}

// Press 任意按键都把本机英雄的目标设为当前光标；D 键额外打开调试
func (g *Game) Press(b Button) {
	if b == KeyD && !g.debug {
		g.debug = true
		g.net.SetVerbose(true)
		g.log.Info("debug enabled")
	}
	g.ctrl.Stage(g.cursor)
}

// RenderState 当前名册快照
func (g *Game) RenderState() []entity.Hero {
	return g.roster.Snapshot()
}

// Tick 推进一个固定步长；返回的错误均表示会话无法继续
func (g *Game) Tick(dt float64) error {
	g.stats.Ticks++

	if g.ctrl.Dirty {
		ip := g.ctrl.Pending
		// 本地预测后把同一条指令发给对端
		if err := g.instruct(ip); err != nil {
			return err
		}
		if err := g.net.SendInstruction(ip); err != nil {
			return err
		}
		g.stats.InstructionsSent++
		g.ctrl.Refresh()
	}

	has, err := g.net.Poll()
	if has {
		if derr := g.drain(); derr != nil {
			return derr
		}
	}
	if err != nil {
		return err
	}

	if err := g.net.MaybeProbe(); err != nil {
		return err
	}

	if g.net.ShouldHeartbeat() {
		if err := g.sendControlledSync(); err != nil {
			return err
		}
	}

	g.roster.Step(dt)
	return nil
}

// drain 按到达顺序应用全部待处理消息；未知 hero_id 只记录并丢弃
func (g *Game) drain() error {
	for {
		p, ok := g.net.Next()
		if !ok {
			return nil
		}
		err := g.apply(p)
		if errors.Is(err, ErrUnknownHero) {
			g.log.Warnf("dropping %s: %v", p.Kind(), err)
			continue
		}
		if err != nil {
			return err
		}
	}
}

func (g *Game) apply(p packet.Packet) error {
	switch v := p.(type) {
	case packet.Instruction:
		if err := g.instruct(v); err != nil {
			g.stats.UnknownHeroDropped++
			return err
		}
		g.stats.InstructionsApplied++
	case packet.Sync:
		if err := g.roster.Replace(v.HeroID, v.Frame); err != nil {
			g.stats.UnknownHeroDropped++
			return err
		}
		g.stats.SyncsApplied++
	case packet.Ping:
		return g.net.HandlePingProbe()
	case packet.YourPing:
		g.net.RecordLatency(v.Ms)
	}
	return nil
}

func (g *Game) instruct(ip packet.Instruction) error {
	h, err := g.roster.Get(ip.HeroID)
	if err != nil {
		return err
	}
	h.Instruct(ip.MoveTo)
	return nil
}

func (g *Game) sendControlledSync() error {
	h, err := g.roster.Get(g.ctrl.HeroID)
	if err != nil {
		return err
	}
	if err := g.net.SendSync(packet.Sync{HeroID: g.ctrl.HeroID, Frame: h.Clone()}); err != nil {
		return err
	}
	g.stats.SyncsSent++
	return nil
}
