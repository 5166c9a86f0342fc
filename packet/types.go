package packet

import "herosync/entity"

// RootKind 数据报首字节，标识根消息类型
type RootKind uint8

const (
	KindConnect     RootKind = 0x01
	KindInitialSync RootKind = 0x02
	KindPacket      RootKind = 0x03
)

func (k RootKind) String() string {
	switch k {
	case KindConnect:
		return "connect"
	case KindInitialSync:
		return "initial_sync"
	case KindPacket:
		return "packet"
	default:
		return "unknown"
	}
}

// Packet 握手之后的外层信封（标签联合）：Instruction | Sync | Ping | YourPing
type Packet interface {
	Kind() string
	tag() uint8
}

const (
	tagInstruction uint8 = iota
	tagSync
	tagPing
	tagYourPing
)

// Instruction 一次性指令：设置（MoveTo 非 nil）或清除英雄的移动目标
type Instruction struct {
	HeroID uint8
	MoveTo *entity.Vec2
}

// NewInstruction 空指令（Nowhere）
func NewInstruction(heroID uint8) Instruction {
	return Instruction{HeroID: heroID}
}

func (Instruction) Kind() string { return "inst" }
func (Instruction) tag() uint8 { return tagInstruction }

// Sync 某个英雄的完整权威快照，用作心跳/纠偏
type Sync struct {
	HeroID uint8
	Frame  entity.Hero
}

func (Sync) Kind() string { return "sync" }
func (Sync) tag() uint8 { return tagSync }

// Ping 延迟探测
type Ping struct{}

func (Ping) Kind() string { return "ping" }
func (Ping) tag() uint8 { return tagPing }

// YourPing 携带测得的往返毫秒数
type YourPing struct {
	Ms uint32
}

func (YourPing) Kind() string { return "your_ping" }
func (YourPing) tag() uint8 { return tagYourPing }
