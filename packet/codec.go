package packet

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"herosync/entity"
)

var (
	// ErrCodec 数据报格式错误：截断、未知标签或多余字节
	ErrCodec = errors.New("codec error")
	// ErrUnexpectedKind 收到的根消息类型与期望不符
	ErrUnexpectedKind = errors.New("unexpected message kind")
)

// 联合体标签
const (
	optNowhere uint8 = 0
	optTarget  uint8 = 1
)

type writer struct {
	buf []byte
}

func (w *writer) u8(v uint8) { w.buf = append(w.buf, v) }
func (w *writer) u32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}
func (w *writer) f32(v float32) { w.u32(math.Float32bits(v)) }

func (w *writer) vec2(v entity.Vec2) {
	w.f32(v.X)
	w.f32(v.Y)
}

func (w *writer) optVec2(v *entity.Vec2) {
	if v == nil {
		w.u8(optNowhere)
		return
	}
	w.u8(optTarget)
	w.vec2(*v)
}

func (w *writer) hitbox(h entity.Hitbox) {
	switch h.Kind {
	case entity.HitboxCircle:
		w.u8(uint8(entity.HitboxCircle))
		w.f32(h.Radius)
	default:
		w.u8(uint8(entity.HitboxNone))
	}
}

func (w *writer) hero(h entity.Hero) {
	w.vec2(h.Entity.Pos)
	w.vec2(h.Entity.Vel)
	w.hitbox(h.Entity.Hitbox)
	for _, c := range h.Color {
		w.f32(c)
	}
	w.optVec2(h.Target)
}

type reader struct {
	buf []byte
	off int
}

func (r *reader) need(n int) error {
	if len(r.buf)-r.off < n {
		return fmt.Errorf("%w: truncated at offset %d, need %d bytes", ErrCodec, r.off, n)
	}
	return nil
}

func (r *reader) u8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.off]
	r.off++
	return v, nil
}

func (r *reader) u32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

func (r *reader) f32() (float32, error) {
	v, err := r.u32()
	return math.Float32frombits(v), err
}

func (r *reader) vec2() (entity.Vec2, error) {
	x, err := r.f32()
	if err != nil {
		return entity.Vec2{}, err
	}
	y, err := r.f32()
	if err != nil {
		return entity.Vec2{}, err
	}
	return entity.Vec2{X: x, Y: y}, nil
}

func (r *reader) optVec2() (*entity.Vec2, error) {
	t, err := r.u8()
	if err != nil {
		return nil, err
	}
	switch t {
	case optNowhere:
		return nil, nil
	case optTarget:
		v, err := r.vec2()
		if err != nil {
			return nil, err
		}
		return &v, nil
	default:
		return nil, fmt.Errorf("%w: unknown target tag %d", ErrCodec, t)
	}
}

func (r *reader) hitbox() (entity.Hitbox, error) {
	t, err := r.u8()
	if err != nil {
		return entity.Hitbox{}, err
	}
	switch entity.HitboxKind(t) {
	case entity.HitboxNone:
		return entity.Hitbox{}, nil
	case entity.HitboxCircle:
		rad, err := r.f32()
		if err != nil {
			return entity.Hitbox{}, err
		}
		return entity.Circle(rad), nil
	default:
		return entity.Hitbox{}, fmt.Errorf("%w: unknown hitbox tag %d", ErrCodec, t)
	}
}

func (r *reader) hero() (entity.Hero, error) {
	var h entity.Hero
	var err error
	if h.Entity.Pos, err = r.vec2(); err != nil {
		return h, err
	}
	if h.Entity.Vel, err = r.vec2(); err != nil {
		return h, err
	}
	if h.Entity.Hitbox, err = r.hitbox(); err != nil {
		return h, err
	}
	for i := range h.Color {
		if h.Color[i], err = r.f32(); err != nil {
			return h, err
		}
	}
	if h.Target, err = r.optVec2(); err != nil {
		return h, err
	}
	return h, nil
}

func (r *reader) done() error {
	if r.off != len(r.buf) {
		return fmt.Errorf("%w: %d trailing bytes", ErrCodec, len(r.buf)-r.off)
	}
	return nil
}

// root 校验首字节并返回正文读取器
func root(b []byte, want RootKind) (*reader, error) {
	r := &reader{buf: b}
	k, err := r.u8()
	if err != nil {
		return nil, err
	}
	if RootKind(k) != want {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrUnexpectedKind, RootKind(k), want)
	}
	return r, nil
}

// PeekKind 读取数据报的根类型
func PeekKind(b []byte) (RootKind, error) {
	if len(b) == 0 {
		return 0, fmt.Errorf("%w: empty datagram", ErrCodec)
	}
	k := RootKind(b[0])
	switch k {
	case KindConnect, KindInitialSync, KindPacket:
		return k, nil
	default:
		return 0, fmt.Errorf("%w: unknown root kind 0x%02x", ErrCodec, b[0])
	}
}

// EncodeConnect 握手探测
func EncodeConnect() []byte {
	return []byte{byte(KindConnect)}
}

// DecodeConnect 校验握手探测
func DecodeConnect(b []byte) error {
	r, err := root(b, KindConnect)
	if err != nil {
		return err
	}
	return r.done()
}

// EncodeInitialSync 主机分配给对端的英雄 ID
func EncodeInitialSync(yourID uint8) []byte {
	return []byte{byte(KindInitialSync), yourID}
}

// DecodeInitialSync 返回分配到的英雄 ID
func DecodeInitialSync(b []byte) (uint8, error) {
	r, err := root(b, KindInitialSync)
	if err != nil {
		return 0, err
	}
	id, err := r.u8()
	if err != nil {
		return 0, err
	}
	return id, r.done()
}

// Encode 编码外层信封
func Encode(p Packet) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: cannot encode nil packet", ErrCodec)
	}
	w := &writer{buf: make([]byte, 0, 64)}
	w.u8(byte(KindPacket))
	w.u8(p.tag())
	switch v := p.(type) {
	case Instruction:
		w.u8(v.HeroID)
		w.optVec2(v.MoveTo)
	case Sync:
		w.u8(v.HeroID)
		w.hero(v.Frame)
	case YourPing:
		w.u32(v.Ms)
	case Ping:
	default:
		return nil, fmt.Errorf("%w: unsupported packet type %T", ErrCodec, p)
	}
	return w.buf, nil
}

// Decode 解码外层信封
func Decode(b []byte) (Packet, error) {
	r, err := root(b, KindPacket)
	if err != nil {
		return nil, err
	}
	t, err := r.u8()
	if err != nil {
		return nil, err
	}
	var p Packet
	switch t {
	case tagInstruction:
		var ip Instruction
		if ip.HeroID, err = r.u8(); err != nil {
			return nil, err
		}
		if ip.MoveTo, err = r.optVec2(); err != nil {
			return nil, err
		}
		p = ip
	case tagSync:
		var sp Sync
		if sp.HeroID, err = r.u8(); err != nil {
			return nil, err
		}
		if sp.Frame, err = r.hero(); err != nil {
			return nil, err
		}
		p = sp
	case tagPing:
		p = Ping{}
	case tagYourPing:
		ms, err := r.u32()
		if err != nil {
			return nil, err
		}
		p = YourPing{Ms: ms}
	default:
		return nil, fmt.Errorf("%w: unknown packet tag %d", ErrCodec, t)
	}
	if err := r.done(); err != nil {
		return nil, err
	}
	return p, nil
}
