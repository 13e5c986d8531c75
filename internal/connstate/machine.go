package connstate

import (
	"context"
	"sync"

	"github.com/talkincode/warelay/internal/domain"
	"go.uber.org/zap"
)

// State is the WhatsApp connection lifecycle state.
type State int

const (
	Unauthenticated State = iota
	WaitingScan
	Connected
	Ready
	Disconnected // terminal until restart, no auto-reconnect
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case WaitingScan:
		return "waiting_scan"
	case Connected:
		return "connected"
	case Ready:
		return "ready"
	case Disconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// StatusSink mirrors each transition into the remote status record.
type StatusSink interface {
	UpsertStatus(ctx context.Context, status string, qrCode *string) error
}

// Snapshotter persists the local session directory remotely.
type Snapshotter interface {
	SnapshotNow(ctx context.Context) error
}

// Machine tracks the protocol client's lifecycle and mirrors transitions into
// the remote status record. Status and snapshot writes are best-effort: their
// failures are logged, never propagated, since the live protocol session is
// the source of truth.
type Machine struct {
	mu    sync.Mutex
	state State
	qr    string

	status  StatusSink
	snapper Snapshotter
}

func NewMachine(status StatusSink, snapper Snapshotter) *Machine {
	return &Machine{state: Unauthenticated, status: status, snapper: snapper}
}

// QRIssued records a pairing QR code. Repeat issuance overwrites the cached
// code; the status row carries the latest one.
func (m *Machine) QRIssued(ctx context.Context, code string) {
	m.mu.Lock()
	m.checkTransition("qr", Unauthenticated, WaitingScan, Disconnected)
	m.state = WaitingScan
	m.qr = code
	m.mu.Unlock()

	m.upsert(ctx, domain.StatusWaitingScan, &code)
}

// Authenticated records credential validation after a scan and triggers an
// immediate snapshot: the client has just written fresh session files.
func (m *Machine) Authenticated(ctx context.Context) {
	m.mu.Lock()
	m.checkTransition("authenticated", WaitingScan)
	m.state = Connected
	m.qr = ""
	m.mu.Unlock()

	m.upsert(ctx, domain.StatusConnected, nil)
	m.snapshot(ctx)
}

// Ready records full operability; outbound sending is enabled from here. The
// snapshot fires again deliberately: depending on the client version either
// this or the authenticated trigger may be the only one that runs.
func (m *Machine) Ready(ctx context.Context) {
	m.mu.Lock()
	m.checkTransition("ready", Connected)
	m.state = Ready
	m.qr = ""
	m.mu.Unlock()

	m.upsert(ctx, domain.StatusReady, nil)
	m.snapshot(ctx)
}

// Disconnected records loss of the session and clears the send gate. A final
// best-effort snapshot preserves whatever the client last wrote.
func (m *Machine) Disconnected(ctx context.Context, reason string) {
	m.mu.Lock()
	m.state = Disconnected
	m.qr = ""
	m.mu.Unlock()

	zap.L().Warn("connstate: disconnected", zap.String("reason", reason))
	m.upsert(ctx, domain.StatusDisconnected, nil)
	m.snapshot(ctx)
}

// IsReady reports whether outbound sending is permitted.
func (m *Machine) IsReady() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == Ready
}

// Current returns the state and the pending QR code, empty unless a scan is
// awaited.
func (m *Machine) Current() (State, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, m.qr
}

// checkTransition logs arrivals from unexpected source states. The transition
// is applied regardless: protocol client versions differ in which lifecycle
// events they emit, and dropping one would desync the mirror. Caller holds
// m.mu.
func (m *Machine) checkTransition(event string, allowed ...State) {
	for _, s := range allowed {
		if m.state == s {
			return
		}
	}
	zap.L().Warn("connstate: unexpected transition source",
		zap.String("event", event),
		zap.String("from", m.state.String()))
}

func (m *Machine) upsert(ctx context.Context, status string, qrCode *string) {
	if m.status == nil {
		return
	}
	if err := m.status.UpsertStatus(ctx, status, qrCode); err != nil {
		zap.L().Warn("connstate: status upsert failed", zap.String("status", status), zap.Error(err))
	}
}

func (m *Machine) snapshot(ctx context.Context) {
	if m.snapper == nil {
		return
	}
	if err := m.snapper.SnapshotNow(ctx); err != nil {
		zap.L().Warn("connstate: snapshot failed", zap.Error(err))
	}
}
