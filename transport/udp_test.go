package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listenLoopback(t *testing.T) *Transport {
	t.Helper()
	tr, err := Listen("127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Close() })
	return tr
}

func TestSendWithoutTarget(t *testing.T) {
	tr := listenLoopback(t)
	err := tr.Send([]byte{1})
	assert.ErrorIs(t, err, ErrNoTarget)
	assert.ErrorIs(t, err, ErrTransport)
}

func TestSendOversized(t *testing.T) {
	a := listenLoopback(t)
	b := listenLoopback(t)
	a.SetTarget(b.LocalAddr())

	err := a.Send(make([]byte, MaxPayload+1))
	assert.ErrorIs(t, err, ErrOversized)
	assert.ErrorIs(t, err, ErrTransport)
}

func TestReceiveRecordsLastSender(t *testing.T) {
	a := listenLoopback(t)
	b := listenLoopback(t)
	a.SetTarget(b.LocalAddr())

	require.NoError(t, a.Send([]byte("hello")))

	require.NoError(t, b.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, MaxPayload)
	n, err := b.Receive(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))
	require.NotNil(t, b.LastSender())
	assert.Equal(t, a.LocalAddr().Port, b.LastSender().Port)

	// 用来源地址回包
	b.SetTarget(b.LastSender())
	require.NoError(t, b.Send([]byte("back")))
	require.NoError(t, a.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, err = a.Receive(buf)
	require.NoError(t, err)
	assert.Equal(t, "back", string(buf[:n]))
}

func TestCloneHasIndependentAddressState(t *testing.T) {
	a := listenLoopback(t)
	b := listenLoopback(t)
	a.SetTarget(b.LocalAddr())

	c := a.Clone()
	assert.Equal(t, a.Target(), c.Target())
	c.SetTarget(nil)
	assert.NotNil(t, a.Target())
	assert.ErrorIs(t, c.Send([]byte{1}), ErrNoTarget)
}

func TestReceiveTimeout(t *testing.T) {
	a := listenLoopback(t)
	require.NoError(t, a.SetReadDeadline(time.Now().Add(20*time.Millisecond)))
	_, err := a.Receive(make([]byte, 16))
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.ErrorIs(t, err, ErrTransport)
}
