package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ClientConn 负责发送（写）数据到观战端的轻量包装
type ClientConn struct {
	ws   *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func NewClientConn(ws *websocket.Conn) *ClientConn {
	return &ClientConn{
		ws:   ws,
		send: make(chan []byte, 64),
		done: make(chan struct{}),
	}
}

// Enqueue 将要发送的消息压入队列（非阻塞，满则丢弃）
func (c *ClientConn) Enqueue(b []byte) {
	select {
	case <-c.done:
	case c.send <- b:
	default:
		// 为了实时性，丢弃旧帧（防止阻塞 Tick）
	}
}

// Close 通知写协程退出并关闭底层连接（可重复调用）
func (c *ClientConn) Close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

// writePump 独立协程，负责从 send 队列写出到 WS
func (c *ClientConn) writePump() {
	ping := time.NewTicker(25 * time.Second)
	defer ping.Stop()
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.Close()
				return
			}
		case <-ping.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}

// readPump 读取观战端的输入，转换为 Input 注入会话
func (c *ClientConn) readPump(s *Session) {
	// 读泵退出时移除该连接
	defer func() {
		s.metrics.SetSpectators(s.spectators.Remove(c))
	}()
	c.ws.SetReadLimit(1 << 16)
	_ = c.ws.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(60 * time.Second))
	})

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(60 * time.Second))
		var im InputMessage
		if err := json.Unmarshal(payload, &im); err != nil {
			continue
		}
		in, ok := im.ToInput()
		if !ok {
			continue
		}
		s.OnInput(in)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 本地观战/输入端：允许所有来源
		return true
	},
}

// HandleWS WebSocket 接入：推送状态帧，并接收光标与按键输入
func (s *Session) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("upgrade error: %v", err)
		return
	}

	client := NewClientConn(ws)
	n := s.spectators.Add(client)
	s.metrics.SetSpectators(n)
	s.log.Infof("spectator %s connected (%d total)", r.RemoteAddr, n)

	go client.writePump()
	go client.readPump(s)

	if f := s.Frame(); f != nil {
		if b, err := json.Marshal(f); err == nil {
			client.Enqueue(b)
		}
	}
}
