package packet

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"herosync/entity"
)

func randVec(rng *rand.Rand) entity.Vec2 {
	return entity.Vec2{X: rng.Float32()*2000 - 1000, Y: rng.Float32()*2000 - 1000}
}

func randHero(rng *rand.Rand) entity.Hero {
	h := entity.Hero{
		Entity: entity.Entity{Pos: randVec(rng), Vel: randVec(rng)},
		Color:  [4]float32{rng.Float32(), rng.Float32(), rng.Float32(), rng.Float32()},
	}
	if rng.Intn(2) == 0 {
		h.Entity.Hitbox = entity.Circle(rng.Float32() * 20)
	}
	if rng.Intn(2) == 0 {
		t := randVec(rng)
		h.Target = &t
	}
	return h
}

func TestRoundTripPackets(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	target := entity.Vec2{X: -3.5, Y: 0}

	packets := []Packet{
		Ping{},
		YourPing{Ms: 0},
		YourPing{Ms: 4294967295},
		Instruction{HeroID: 0},
		Instruction{HeroID: 255, MoveTo: &target},
		Sync{HeroID: 1, Frame: entity.Hero{}},
	}
	for i := 0; i < 50; i++ {
		v := randVec(rng)
		packets = append(packets,
			Instruction{HeroID: uint8(rng.Intn(256)), MoveTo: &v},
			Sync{HeroID: uint8(rng.Intn(256)), Frame: randHero(rng)},
			YourPing{Ms: rng.Uint32()},
		)
	}

	for _, p := range packets {
		b, err := Encode(p)
		require.NoError(t, err)
		kind, err := PeekKind(b)
		require.NoError(t, err)
		assert.Equal(t, KindPacket, kind)

		got, err := Decode(b)
		require.NoError(t, err, "packet %#v", p)
		assert.Equal(t, p, got)
	}
}

func TestRoundTripHandshake(t *testing.T) {
	require.NoError(t, DecodeConnect(EncodeConnect()))

	for _, id := range []uint8{0, 1, 255} {
		got, err := DecodeInitialSync(EncodeInitialSync(id))
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
}

func TestDecodeTruncated(t *testing.T) {
	v := entity.Vec2{X: 1, Y: 2}
	b, err := Encode(Sync{HeroID: 1, Frame: entity.Hero{Target: &v, Entity: entity.Entity{Hitbox: entity.Circle(3)}}})
	require.NoError(t, err)

	for n := 0; n < len(b); n++ {
		_, err := Decode(b[:n])
		require.Error(t, err, "prefix length %d", n)
		assert.ErrorIs(t, err, ErrCodec)
	}
}

func TestDecodeUnknownTags(t *testing.T) {
	_, err := Decode([]byte{byte(KindPacket), 9})
	assert.ErrorIs(t, err, ErrCodec)

	// Instruction 的 move_to 标签非法
	_, err = Decode([]byte{byte(KindPacket), tagInstruction, 0, 7})
	assert.ErrorIs(t, err, ErrCodec)

	_, err = PeekKind([]byte{0x7f})
	assert.ErrorIs(t, err, ErrCodec)

	_, err = PeekKind(nil)
	assert.ErrorIs(t, err, ErrCodec)
}

func TestDecodeTrailingBytes(t *testing.T) {
	b, err := Encode(Ping{})
	require.NoError(t, err)
	_, err = Decode(append(b, 0))
	assert.ErrorIs(t, err, ErrCodec)

	err = DecodeConnect([]byte{byte(KindConnect), 1})
	assert.ErrorIs(t, err, ErrCodec)
}

func TestDecodeWrongRootKind(t *testing.T) {
	_, err := Decode(EncodeConnect())
	assert.ErrorIs(t, err, ErrUnexpectedKind)

	_, err = DecodeInitialSync(EncodeConnect())
	assert.ErrorIs(t, err, ErrUnexpectedKind)

	b, err := Encode(Ping{})
	require.NoError(t, err)
	assert.ErrorIs(t, DecodeConnect(b), ErrUnexpectedKind)
}

func TestEncodedSizes(t *testing.T) {
	b, err := Encode(Ping{})
	require.NoError(t, err)
	assert.Len(t, b, 2)

	b, err = Encode(Instruction{HeroID: 1})
	require.NoError(t, err)
	assert.Len(t, b, 4)

	v := entity.Vec2{}
	b, err = Encode(Instruction{HeroID: 1, MoveTo: &v})
	require.NoError(t, err)
	assert.Len(t, b, 12)
}

func TestEncodeRejectsNil(t *testing.T) {
	_, err := Encode(nil)
	assert.ErrorIs(t, err, ErrCodec)
}

func TestEncodeRejectsPointerPackets(t *testing.T) {
	v := entity.Vec2{X: 1, Y: 2}
	for _, p := range []Packet{
		&Instruction{HeroID: 1, MoveTo: &v},
		&Sync{HeroID: 0},
		&YourPing{Ms: 7},
		&Ping{},
	} {
		_, err := Encode(p)
		assert.ErrorIs(t, err, ErrCodec, "%T", p)
	}
}
