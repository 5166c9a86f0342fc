package entity

import "math"

// Vec2 二维向量，同时用作速度与位置
type Vec2 struct {
	X float32
	Y float32
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{X: v.X + o.X, Y: v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{X: v.X - o.X, Y: v.Y - o.Y} }
func (v Vec2) Scale(s float32) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

// Len 向量长度
func (v Vec2) Len() float32 {
	return float32(math.Hypot(float64(v.X), float64(v.Y)))
}

// HitboxKind 碰撞体类型
type HitboxKind uint8

const (
	HitboxNone HitboxKind = iota
	HitboxCircle
)

// Hitbox 碰撞体：None 或 Circle(Radius)
type Hitbox struct {
	Kind   HitboxKind
	Radius float32 // 仅 Circle 有效
}

func Circle(r float32) Hitbox { return Hitbox{Kind: HitboxCircle, Radius: r} }

// Entity 可移动实体。Vel 只表示本 Tick 的位移冲量，Step 后清零
type Entity struct {
	Pos    Vec2
	Vel    Vec2
	Hitbox Hitbox
}

// Step 按 dt 积分位置，然后清零速度
func (e *Entity) Step(dt float64) {
	e.Pos = e.Pos.Add(e.Vel.Scale(float32(dt)))
	e.Vel = Vec2{}
}
