package transport

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// MaxPayload 单个数据报允许的最大负载，超出视为错误（不做分片）
const MaxPayload = 1200

var (
	// ErrTransport 套接字绑定、发送或接收失败
	ErrTransport = errors.New("transport error")
	// ErrNoTarget 尚未设置发送目标
	ErrNoTarget = errors.New("no target selected")
	// ErrOversized 编码后的消息超过单个数据报上限
	ErrOversized = errors.New("datagram exceeds max payload")
)

// Transport UDP 套接字包装：固定的发送目标 + 最近一次的来源地址
type Transport struct {
	conn       *net.UDPConn
	target     *net.UDPAddr
	lastSender *net.UDPAddr
}

// Listen 绑定一个 UDP 端点，addr 形如 ":4114"
func Listen(addr string) (*Transport, error) {
	ua, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %s: %v", ErrTransport, addr, err)
	}
	conn, err := net.ListenUDP("udp", ua)
	if err != nil {
		return nil, fmt.Errorf("%w: bind %s: %v", ErrTransport, addr, err)
	}
	return &Transport{conn: conn}, nil
}

// SetTarget 设置所有出站写入的目标地址
func (t *Transport) SetTarget(addr *net.UDPAddr) { t.target = addr }

func (t *Transport) Target() *net.UDPAddr { return t.target }
func (t *Transport) LastSender() *net.UDPAddr { return t.lastSender }
func (t *Transport) LocalAddr() *net.UDPAddr {
	return t.conn.LocalAddr().(*net.UDPAddr)
}

// Send 向目标发送恰好一个数据报
func (t *Transport) Send(b []byte) error {
	if t.target == nil {
		return fmt.Errorf("%w: %w", ErrTransport, ErrNoTarget)
	}
	if len(b) > MaxPayload {
		return fmt.Errorf("%w: %w: %d > %d", ErrTransport, ErrOversized, len(b), MaxPayload)
	}
	if _, err := t.conn.WriteToUDP(b, t.target); err != nil {
		return fmt.Errorf("%w: send to %s: %v", ErrTransport, t.target, err)
	}
	return nil
}

// Receive 阻塞读取一个数据报，并记录其来源为 LastSender
func (t *Transport) Receive(buf []byte) (int, error) {
	n, addr, err := t.conn.ReadFromUDP(buf)
	if err != nil {
		return 0, fmt.Errorf("%w: receive: %w", ErrTransport, err)
	}
	t.lastSender = addr
	return n, nil
}

// SetReadDeadline 供接收循环做可取消的阻塞读
func (t *Transport) SetReadDeadline(d time.Time) error {
	return t.conn.SetReadDeadline(d)
}

// Clone 共享底层套接字，但地址状态独立，便于接收协程与发送端各自持有
func (t *Transport) Clone() *Transport {
	return &Transport{conn: t.conn, target: t.target, lastSender: t.lastSender}
}

// Close 关闭底层套接字（所有克隆同时失效）
func (t *Transport) Close() error {
	return t.conn.Close()
}

// IsTimeout 判断是否为读超时（配合 SetReadDeadline 使用）
func IsTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
