package server

import (
	"strings"

	"herosync/game"
)

// InputKind 输入事件类型
type InputKind int

const (
	InputCursor InputKind = iota
	InputPress
)

// Input 输入源事件，由 Tick 协程转交给编排器
type Input struct {
	Kind   InputKind
	X, Y   float64
	Button game.Button
}

// 入站输入的简单 JSON 结构（WebSocket 文本消息）
// 示例：{"type":"cursor","x":150,"y":150} / {"type":"press","button":"mouse"}
type InputMessage struct {
	Type   string  `json:"type"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Button string  `json:"button,omitempty"`
}

// ToInput 转换为输入事件；未知类型返回 false
func (m InputMessage) ToInput() (Input, bool) {
	switch strings.ToLower(m.Type) {
	case "cursor":
		return Input{Kind: InputCursor, X: m.X, Y: m.Y}, true
	case "press":
		var b game.Button
		switch strings.ToLower(m.Button) {
		case "", "mouse", "left":
			b = game.ButtonMouse
		case "d":
			b = game.KeyD
		default:
			b = game.ButtonOther
		}
		return Input{Kind: InputPress, Button: b}, true
	default:
		return Input{}, false
	}
}
