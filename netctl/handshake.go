package netctl

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"herosync/packet"
	"herosync/transport"
)

const (
	// HostHeroID 主机自己控制的英雄
	HostHeroID uint8 = 0
	// PeerHeroID 分配给唯一对端的英雄
	PeerHeroID uint8 = 1
)

// ErrHandshakeTimeout 设置了 HandshakeTimeout 且对端未在时限内响应
var ErrHandshakeTimeout = errors.New("handshake timed out")

// Host 阻塞等待 Connect，记下对端地址，回复 InitialSync{your_id=1}
func Host(ctx context.Context, tr *transport.Transport, opts Options) (*Controller, error) {
	opts = opts.withDefaults()
	log := opts.Logger
	log.Infof("waiting for peer on %s", tr.LocalAddr())

	b, err := awaitDatagram(ctx, tr, opts.HandshakeTimeout)
	if err != nil {
		return nil, err
	}
	if err := packet.DecodeConnect(b); err != nil {
		return nil, fmt.Errorf("%w: expected connect: %w", ErrProtocol, err)
	}

	tr.SetTarget(tr.LastSender())
	if err := tr.Send(packet.EncodeInitialSync(PeerHeroID)); err != nil {
		return nil, err
	}
	log.Infof("peer %s connected, assigned hero %d", tr.Target(), PeerHeroID)

	return newController(tr, RoleHost, HostHeroID, opts), nil
}

// Join 以客户端身份连接主机：发送 Connect，阻塞等待 InitialSync 并采用其中的 ID
func Join(ctx context.Context, tr *transport.Transport, host *net.UDPAddr, opts Options) (*Controller, error) {
	opts = opts.withDefaults()
	log := opts.Logger

	tr.SetTarget(host)
	if err := tr.Send(packet.EncodeConnect()); err != nil {
		return nil, err
	}
	log.Infof("connect sent to %s", host)

	b, err := awaitDatagram(ctx, tr, opts.HandshakeTimeout)
	if err != nil {
		return nil, err
	}
	id, err := packet.DecodeInitialSync(b)
	if err != nil {
		return nil, fmt.Errorf("%w: expected initial sync: %w", ErrProtocol, err)
	}
	log.Infof("joined %s as hero %d", host, id)

	return newController(tr, RoleClient, id, opts), nil
}

// awaitDatagram 阻塞读取一个数据报；timeout 为 0 时无限等待，但始终响应 ctx 取消
func awaitDatagram(ctx context.Context, tr *transport.Transport, timeout time.Duration) ([]byte, error) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	buf := make([]byte, transport.MaxPayload+1)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return nil, ErrHandshakeTimeout
		}
		if err := tr.SetReadDeadline(time.Now().Add(pollInterval)); err != nil {
			return nil, fmt.Errorf("%w: set deadline: %v", transport.ErrTransport, err)
		}
		n, err := tr.Receive(buf)
		if err != nil {
			if transport.IsTimeout(err) {
				continue
			}
			return nil, err
		}
		out := make([]byte, n)
		copy(out, buf[:n])
		return out, nil
	}
}
