package netctl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"herosync/packet"
	"herosync/transport"
)

const (
	// DefaultHeartbeatTicks 120 UPS 下约每秒一次心跳
	DefaultHeartbeatTicks = 120
	DefaultMaxDrain       = 64
	DefaultInboxSize      = 256
)

var (
	// ErrProtocol 握手消息顺序不符
	ErrProtocol = errors.New("protocol error")
	// ErrChannelDisconnected 接收协程已退出，会话无法继续
	ErrChannelDisconnected = errors.New("disconnected from receiver")
)

// Role 握手确定的角色
type Role int

const (
	RoleHost Role = iota
	RoleClient
)

func (r Role) String() string {
	if r == RoleHost {
		return "host"
	}
	return "client"
}

// Options 控制器参数，零值使用默认
type Options struct {
	HeartbeatTicks   int
	ProbeEvery       int // 主动探测间隔（Tick），0 表示关闭
	HandshakeTimeout time.Duration
	MaxDrain         int
	InboxSize        int
	Logger           *zap.SugaredLogger
	Now              func() time.Time
}

func (o Options) withDefaults() Options {
	if o.HeartbeatTicks <= 0 {
		o.HeartbeatTicks = DefaultHeartbeatTicks
	}
	if o.MaxDrain <= 0 {
		o.MaxDrain = DefaultMaxDrain
	}
	if o.InboxSize <= 0 {
		o.InboxSize = DefaultInboxSize
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop().Sugar()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Stats 网络计数快照
type Stats struct {
	Sent          int64 `json:"sent"`
	Received      int64 `json:"received"`
	BytesSent     int64 `json:"bytes_sent"`
	BytesReceived int64 `json:"bytes_received"`
}

// Controller 持有传输层与接收队列：握手、收件箱、心跳节奏、延迟探测
type Controller struct {
	tr     *transport.Transport
	role   Role
	heroID uint8

	recv    *Receiver
	cancel  context.CancelFunc
	pending []packet.Packet
	closed  bool

	sinceSync      int
	heartbeatTicks int
	ticks          int
	probeEvery     int
	maxDrain       int

	ping    PingStatus
	latency uint32
	verbose bool

	stats *counters
	log   *zap.SugaredLogger
	now   func() time.Time
}

func newController(tr *transport.Transport, role Role, heroID uint8, opts Options) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	stats := &counters{}
	c := &Controller{
		tr:             tr,
		role:           role,
		heroID:         heroID,
		cancel:         cancel,
		sinceSync:      opts.HeartbeatTicks, // 握手后第一个 Tick 立即发送心跳
		heartbeatTicks: opts.HeartbeatTicks,
		probeEvery:     opts.ProbeEvery,
		maxDrain:       opts.MaxDrain,
		ping:           Ready(),
		stats:          stats,
		log:            opts.Logger,
		now:            opts.Now,
	}
	c.recv = StartReceiver(ctx, tr.Clone(), opts.InboxSize, stats, opts.Logger)
	return c
}

func (c *Controller) Role() Role { return c.role }
func (c *Controller) HeroID() uint8 { return c.heroID }
func (c *Controller) Latency() uint32 { return c.latency }
func (c *Controller) PingStatus() PingStatus { return c.ping }
func (c *Controller) Pending() int { return len(c.pending) }

// SetVerbose 打开后逐包记录收发的消息类型
func (c *Controller) SetVerbose(v bool) { c.verbose = v }

// Stats 可在任意协程读取
func (c *Controller) Stats() Stats {
	return Stats{
		Sent:          c.stats.sent.Load(),
		Received:      c.stats.received.Load(),
		BytesSent:     c.stats.bytesSent.Load(),
		BytesReceived: c.stats.bytesReceived.Load(),
	}
}

// Poll 非阻塞地取出队列中当前可用的消息（最多 maxDrain 条），返回是否有待处理消息
func (c *Controller) Poll() (bool, error) {
	if c.closed {
		return len(c.pending) > 0, c.disconnected()
	}
	for i := 0; i < c.maxDrain; i++ {
		select {
		case p, ok := <-c.recv.C():
			if !ok {
				c.closed = true
				return len(c.pending) > 0, c.disconnected()
			}
			if c.verbose {
				c.log.Debugf("recv %s", p.Kind())
			}
			c.pending = append(c.pending, p)
		default:
			return len(c.pending) > 0, nil
		}
	}
	return len(c.pending) > 0, nil
}

func (c *Controller) disconnected() error {
	if cause := c.recv.Err(); cause != nil {
		return fmt.Errorf("%w: %w", ErrChannelDisconnected, cause)
	}
	return ErrChannelDisconnected
}

// Next 按到达顺序弹出最早的待处理消息
func (c *Controller) Next() (packet.Packet, bool) {
	if len(c.pending) == 0 {
		return nil, false
	}
	p := c.pending[0]
	c.pending[0] = nil
	c.pending = c.pending[1:]
	if len(c.pending) == 0 {
		c.pending = nil
	}
	return p, true
}

// ShouldHeartbeat 每个 Tick 调用一次；距离上次心跳达到阈值时返回 true 并清零计数
func (c *Controller) ShouldHeartbeat() bool {
	c.sinceSync++
	if c.sinceSync >= c.heartbeatTicks {
		c.sinceSync = 0
		return true
	}
	return false
}

// MaybeProbe 按 ProbeEvery 间隔主动发起 Ping（默认关闭）
func (c *Controller) MaybeProbe() error {
	c.ticks++
	if c.probeEvery <= 0 || c.ticks%c.probeEvery != 0 {
		return nil
	}
	if _, awaiting := c.ping.IsAwaiting(); awaiting {
		return nil
	}
	if err := c.send(packet.Ping{}); err != nil {
		return err
	}
	c.ping = Awaiting(c.now())
	return nil
}

// SendSync 发送权威快照并重置心跳计数
func (c *Controller) SendSync(sp packet.Sync) error {
	c.sinceSync = 0
	return c.send(sp)
}

// SendInstruction 立即发送指令
func (c *Controller) SendInstruction(ip packet.Instruction) error {
	return c.send(ip)
}

// HandlePingProbe Ready：发出 Ping 并进入 Awaiting；Awaiting：回复 YourPing(耗时毫秒) 并回到 Ready
func (c *Controller) HandlePingProbe() error {
	since, awaiting := c.ping.IsAwaiting()
	if !awaiting {
		if err := c.send(packet.Ping{}); err != nil {
			return err
		}
		c.ping = Awaiting(c.now())
		return nil
	}
	ms := uint32(c.now().Sub(since).Milliseconds())
	if err := c.send(packet.YourPing{Ms: ms}); err != nil {
		return err
	}
	c.ping = Ready()
	return nil
}

// RecordLatency 记录对端测得的往返时间，并结束本轮探测
func (c *Controller) RecordLatency(ms uint32) {
	c.latency = ms
	c.ping = Ready()
	c.log.Infof("ping: %dms", ms)
}

func (c *Controller) send(p packet.Packet) error {
	b, err := packet.Encode(p)
	if err != nil {
		return err
	}
	if err := c.tr.Send(b); err != nil {
		return fmt.Errorf("send %s: %w", p.Kind(), err)
	}
	c.stats.sent.Add(1)
	c.stats.bytesSent.Add(int64(len(b)))
	if c.verbose {
		c.log.Debugf("send %s (%d bytes)", p.Kind(), len(b))
	}
	return nil
}

// Close 停止接收协程并关闭套接字
func (c *Controller) Close() error {
	c.cancel()
	<-c.recv.Done()
	var err error
	if cause := c.recv.Err(); cause != nil && !errors.Is(cause, ErrReceiverStopped) {
		err = multierr.Append(err, cause)
	}
	return multierr.Append(err, c.tr.Close())
}
