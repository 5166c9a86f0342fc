package entity

import "math/rand"

const (
	// Speed 英雄移动速度（单位/秒）
	Speed float32 = 100
	// ArriveTolerance 与目标距离小于该值视为到达
	ArriveTolerance float32 = 1.0
)

// Hero 英雄：实体 + 颜色 + 可选移动目标（nil 表示无目标）
type Hero struct {
	Entity Entity
	Color  [4]float32
	Target *Vec2
}

// NewHero 在出生点创建英雄，颜色只在此处随机生成一次
func NewHero(spawn Vec2, rng *rand.Rand) Hero {
	var c [4]float32
	if rng != nil {
		c = [4]float32{rng.Float32(), rng.Float32(), rng.Float32(), 1}
	} else {
		c = [4]float32{rand.Float32(), rand.Float32(), rand.Float32(), 1}
	}
	return Hero{
		Entity: Entity{Pos: spawn},
		Color:  c,
	}
}

// Instruct 设置（非 nil）或清除（nil）移动目标
func (h *Hero) Instruct(moveTo *Vec2) {
	if moveTo == nil {
		h.Target = nil
		return
	}
	t := *moveTo
	h.Target = &t
}

// Steer 根据目标重新推导本 Tick 的速度；距离不足容差时直接吸附到目标并清除目标
func (h *Hero) Steer() {
	if h.Target == nil {
		return
	}
	d := h.Target.Sub(h.Entity.Pos)
	if l := d.Len(); l < ArriveTolerance {
		h.Entity.Pos = *h.Target
		h.Target = nil
	} else {
		h.Entity.Vel = d.Scale(Speed / l)
	}
}

// Step 转向后推进实体
func (h *Hero) Step(dt float64) {
	h.Steer()
	h.Entity.Step(dt)
}

// Clone 深拷贝（Target 指针不共享）
func (h Hero) Clone() Hero {
	if h.Target != nil {
		t := *h.Target
		h.Target = &t
	}
	return h
}
