package game

import (
	"errors"
	"fmt"
	"math/rand"

	"herosync/entity"
)

// ErrUnknownHero 数据包中的 hero_id 不是名册中的有效下标
var ErrUnknownHero = errors.New("unknown hero id")

// Participants 本协议固定为双人
const Participants = 2

// DefaultSpawns 主机英雄 0 与对端英雄 1 的出生点
var DefaultSpawns = []entity.Vec2{
	{X: 100, Y: 100},
	{X: 200, Y: 300},
}

// Roster 按 hero_id 索引的英雄名册，长度在创建时按参与者数量校验
type Roster struct {
	heroes []entity.Hero
}

// NewRoster 为每个出生点创建一个英雄
func NewRoster(spawns []entity.Vec2, participants int, rng *rand.Rand) (*Roster, error) {
	if len(spawns) != participants {
		return nil, fmt.Errorf("roster needs %d spawn points, got %d", participants, len(spawns))
	}
	r := &Roster{heroes: make([]entity.Hero, 0, participants)}
	for _, sp := range spawns {
		r.heroes = append(r.heroes, entity.NewHero(sp, rng))
	}
	return r, nil
}

func (r *Roster) Len() int { return len(r.heroes) }

// Get 返回可修改的英雄指针
func (r *Roster) Get(id uint8) (*entity.Hero, error) {
	if int(id) >= len(r.heroes) {
		return nil, fmt.Errorf("%w: %d (roster size %d)", ErrUnknownHero, id, len(r.heroes))
	}
	return &r.heroes[id], nil
}

// Replace 以快照整体覆盖（后写者胜）
func (r *Roster) Replace(id uint8, h entity.Hero) error {
	cur, err := r.Get(id)
	if err != nil {
		return err
	}
	*cur = h.Clone()
	return nil
}

// Step 推进所有英雄
func (r *Roster) Step(dt float64) {
	for i := range r.heroes {
		r.heroes[i].Step(dt)
	}
}

// Snapshot 深拷贝，供渲染与广播使用
func (r *Roster) Snapshot() []entity.Hero {
	out := make([]entity.Hero, len(r.heroes))
	for i, h := range r.heroes {
		out[i] = h.Clone()
	}
	return out
}
