package netctl

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"herosync/packet"
	"herosync/transport"
)

// pollInterval 接收循环检查取消信号的间隔
const pollInterval = 100 * time.Millisecond

// ErrReceiverStopped 接收协程被主动取消
var ErrReceiverStopped = errors.New("receiver stopped")

type counters struct {
	sent          atomic.Int64
	received      atomic.Int64
	bytesSent     atomic.Int64
	bytesReceived atomic.Int64
}

// Receiver 后台接收协程：读数据报 → 解码 → 推入单向队列
type Receiver struct {
	tr   *transport.Transport
	out  chan packet.Packet
	done chan struct{}
	err  error

	stats *counters
	log   *zap.SugaredLogger
}

// StartReceiver 启动接收协程；tr 应为克隆出来的独立句柄
func StartReceiver(ctx context.Context, tr *transport.Transport, size int, stats *counters, log *zap.SugaredLogger) *Receiver {
	if stats == nil {
		stats = &counters{}
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	r := &Receiver{
		tr:    tr,
		out:   make(chan packet.Packet, size),
		done:  make(chan struct{}),
		stats: stats,
		log:   log,
	}
	go r.run(ctx)
	return r
}

// C 只读队列；协程退出时关闭
func (r *Receiver) C() <-chan packet.Packet { return r.out }

// Done 协程退出后关闭
func (r *Receiver) Done() <-chan struct{} { return r.done }

// Err 返回协程的终止原因，协程仍在运行时为 nil
func (r *Receiver) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}

func (r *Receiver) run(ctx context.Context) {
	// done 先于 out 关闭，Poll 看到 out 关闭时 Err 已可读
	defer close(r.out)
	defer close(r.done)

	buf := make([]byte, transport.MaxPayload+1)
	for {
		select {
		case <-ctx.Done():
			r.err = ErrReceiverStopped
			return
		default:
		}

		if err := r.tr.SetReadDeadline(time.Now().Add(pollInterval)); err != nil {
			r.err = fmt.Errorf("%w: set deadline: %v", transport.ErrTransport, err)
			return
		}
		n, err := r.tr.Receive(buf)
		if err != nil {
			if transport.IsTimeout(err) {
				continue
			}
			if ctx.Err() != nil {
				r.err = ErrReceiverStopped
				return
			}
			r.err = err
			r.log.Errorf("receiver exiting: %v", err)
			return
		}
		r.stats.received.Add(1)
		r.stats.bytesReceived.Add(int64(n))

		p, err := packet.Decode(buf[:n])
		if err != nil {
			r.err = fmt.Errorf("decode datagram from %s: %w", r.tr.LastSender(), err)
			r.log.Errorf("receiver exiting: %v", r.err)
			return
		}

		select {
		case r.out <- p:
		case <-ctx.Done():
			r.err = ErrReceiverStopped
			return
		}
	}
}
