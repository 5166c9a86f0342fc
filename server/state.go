package server

import "herosync/entity"

// Point JSON 坐标
type Point struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// HeroState 为广播给观战端的英雄状态
type HeroState struct {
	ID     int        `json:"id"`
	Pos    Point      `json:"pos"`
	Vel    Point      `json:"vel"`
	Radius float32    `json:"radius,omitempty"`
	Color  [4]float32 `json:"color"`
	Target *Point     `json:"target"`
}

// StateFrame 一帧完整的可渲染状态
type StateFrame struct {
	Type      string      `json:"type"`
	Session   string      `json:"session"`
	Tick      int64       `json:"tick"`
	LocalID   uint8       `json:"localId"`
	LatencyMs uint32      `json:"latencyMs"`
	Heroes    []HeroState `json:"heroes"`
}

func toHeroStates(heroes []entity.Hero) []HeroState {
	out := make([]HeroState, 0, len(heroes))
	for i, h := range heroes {
		hs := HeroState{
			ID:    i,
			Pos:   Point{h.Entity.Pos.X, h.Entity.Pos.Y},
			Vel:   Point{h.Entity.Vel.X, h.Entity.Vel.Y},
			Color: h.Color,
		}
		if h.Entity.Hitbox.Kind == entity.HitboxCircle {
			hs.Radius = h.Entity.Hitbox.Radius
		}
		if h.Target != nil {
			hs.Target = &Point{h.Target.X, h.Target.Y}
		}
		out = append(out, hs)
	}
	return out
}
