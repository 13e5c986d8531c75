package connstate

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talkincode/warelay/internal/domain"
)

type statusUpdate struct {
	status string
	qr     *string
}

type recordingSink struct {
	updates []statusUpdate
	err     error
}

func (r *recordingSink) UpsertStatus(_ context.Context, status string, qrCode *string) error {
	r.updates = append(r.updates, statusUpdate{status: status, qr: qrCode})
	return r.err
}

type countingSnapshotter struct {
	calls int
	err   error
}

func (c *countingSnapshotter) SnapshotNow(context.Context) error {
	c.calls++
	return c.err
}

func TestLifecycleSequence(t *testing.T) {
	sink := &recordingSink{}
	snap := &countingSnapshotter{}
	m := NewMachine(sink, snap)
	ctx := context.Background()

	assert.False(t, m.IsReady())

	m.QRIssued(ctx, "2@first")
	m.Authenticated(ctx)
	m.Ready(ctx)
	assert.True(t, m.IsReady())
	m.Disconnected(ctx, "logged out")
	assert.False(t, m.IsReady())

	require.Len(t, sink.updates, 4)
	assert.Equal(t, domain.StatusWaitingScan, sink.updates[0].status)
	assert.Equal(t, domain.StatusConnected, sink.updates[1].status)
	assert.Equal(t, domain.StatusReady, sink.updates[2].status)
	assert.Equal(t, domain.StatusDisconnected, sink.updates[3].status)

	// qr code present only while waiting for a scan
	require.NotNil(t, sink.updates[0].qr)
	assert.Equal(t, "2@first", *sink.updates[0].qr)
	assert.Nil(t, sink.updates[1].qr)
	assert.Nil(t, sink.updates[2].qr)
	assert.Nil(t, sink.updates[3].qr)

	// authenticated, ready and disconnected each trigger a snapshot
	assert.Equal(t, 3, snap.calls)
}

func TestRepeatQRIssuanceOverwrites(t *testing.T) {
	sink := &recordingSink{}
	m := NewMachine(sink, &countingSnapshotter{})
	ctx := context.Background()

	m.QRIssued(ctx, "2@first")
	m.QRIssued(ctx, "2@second")

	state, qr := m.Current()
	assert.Equal(t, WaitingScan, state)
	assert.Equal(t, "2@second", qr)

	require.Len(t, sink.updates, 2)
	assert.Equal(t, "2@second", *sink.updates[1].qr)
}

func TestReadyWithoutPairingStillTransitions(t *testing.T) {
	// A restored session emits only the ready-style event; the machine must
	// follow rather than drop the transition.
	m := NewMachine(&recordingSink{}, &countingSnapshotter{})
	ctx := context.Background()

	m.Authenticated(ctx)
	m.Ready(ctx)
	assert.True(t, m.IsReady())
}

func TestSinkFailuresDoNotPanicOrBlock(t *testing.T) {
	sink := &recordingSink{err: errors.New("store unreachable")}
	snap := &countingSnapshotter{err: errors.New("store unreachable")}
	m := NewMachine(sink, snap)
	ctx := context.Background()

	m.QRIssued(ctx, "2@code")
	m.Authenticated(ctx)
	m.Ready(ctx)

	// transitions applied despite persistence failures
	assert.True(t, m.IsReady())
	assert.Equal(t, 2, snap.calls)
}

func TestQRClearedAfterDisconnect(t *testing.T) {
	m := NewMachine(&recordingSink{}, &countingSnapshotter{})
	ctx := context.Background()

	m.QRIssued(ctx, "2@code")
	m.Disconnected(ctx, "stream replaced")

	state, qr := m.Current()
	assert.Equal(t, Disconnected, state)
	assert.Empty(t, qr)
}
