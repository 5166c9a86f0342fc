package game

import (
	"herosync/entity"
	"herosync/packet"
)

// Controller 本地输入暂存：记录本机英雄最新的移动意图，直到下一个 Tick 刷出
type Controller struct {
	HeroID  uint8
	Dirty   bool
	Pending packet.Instruction
}

func NewController(id uint8) Controller {
	return Controller{HeroID: id, Pending: packet.NewInstruction(id)}
}

// Stage 暂存一次“移动到”意图
func (c *Controller) Stage(to entity.Vec2) {
	c.Pending.MoveTo = &to
	c.Dirty = true
}

// Refresh 刷出后重置为空指令
func (c *Controller) Refresh() {
	if !c.Dirty {
		return
	}
	c.Pending = packet.NewInstruction(c.HeroID)
	c.Dirty = false
}
