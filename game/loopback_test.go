package game_test

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"herosync/entity"
	"herosync/game"
	"herosync/netctl"
	"herosync/transport"
)

const dt = 1.0 / 120

func listen(t *testing.T) *transport.Transport {
	t.Helper()
	tr, err := transport.Listen("127.0.0.1:0")
	require.NoError(t, err)
	return tr
}

// connect 在回环上完成握手，返回 host 与 client 两端的会话
func connect(t *testing.T) (*game.Game, *game.Game) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hostTr := listen(t)
	clientTr := listen(t)

	hostCh := make(chan *netctl.Controller, 1)
	errCh := make(chan error, 1)
	go func() {
		c, err := netctl.Host(ctx, hostTr, netctl.Options{})
		if err != nil {
			errCh <- err
			return
		}
		hostCh <- c
	}()

	clientNet, err := netctl.Join(ctx, clientTr, hostTr.LocalAddr(), netctl.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = clientNet.Close() })

	var hostNet *netctl.Controller
	select {
	case hostNet = <-hostCh:
	case err := <-errCh:
		t.Fatalf("host handshake: %v", err)
	}
	t.Cleanup(func() { _ = hostNet.Close() })

	host, err := game.New(hostNet, game.Options{Rand: rand.New(rand.NewSource(1))})
	require.NoError(t, err)
	client, err := game.New(clientNet, game.Options{Rand: rand.New(rand.NewSource(2))})
	require.NoError(t, err)
	return host, client
}

func tickUntil(t *testing.T, g *game.Game, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		require.NoError(t, g.Tick(dt))
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}

func TestLoopbackInstructionAndSync(t *testing.T) {
	host, client := connect(t)
	require.Equal(t, uint8(0), host.LocalID())
	require.Equal(t, uint8(1), client.LocalID())
	require.NotEqual(t, host.RenderState()[1].Color, client.RenderState()[1].Color)

	// host 点击：本地预测，同一条指令经网络到达 client
	host.UpdateCursor(150, 100)
	host.Press(game.ButtonMouse)
	require.NoError(t, host.Tick(dt))
	require.NotNil(t, host.RenderState()[0].Target)

	tickUntil(t, client, func() bool { return client.Stats().InstructionsApplied >= 1 })
	got := client.RenderState()[0].Target
	require.NotNil(t, got)
	assert.Equal(t, entity.Vec2{X: 150, Y: 100}, *got)

	// client 的 Sync 覆盖 host 上的 hero 1
	client.UpdateCursor(50, 60)
	client.Press(game.ButtonMouse)
	require.NoError(t, client.Tick(dt))

	want := client.RenderState()[1]
	tickUntil(t, host, func() bool {
		h := host.RenderState()[1]
		return h.Color == want.Color && h.Target != nil && *h.Target == entity.Vec2{X: 50, Y: 60}
	})
	assert.GreaterOrEqual(t, host.Stats().SyncsApplied, int64(1))
}
