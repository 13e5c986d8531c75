package whatsapp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mdp/qrterminal/v3"
	"github.com/pkg/errors"
	"github.com/talkincode/warelay/internal/app"
	"github.com/talkincode/warelay/internal/connstate"
	"go.mau.fi/whatsmeow"
	waE2E "go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	waTypes "go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
)

// TopicInboundMessage is the event bus topic carrying received text messages.
const TopicInboundMessage = "whatsapp:message:inbound"

// ErrNotConnected is returned by SendText while the connection is not Ready.
var ErrNotConnected = errors.New("whatsapp client is not connected")

// InboundMessage is the payload published on TopicInboundMessage.
type InboundMessage struct {
	ChatID string
	Sender string
	Body   string
}

// Service wraps a whatsmeow client whose session store lives inside the
// application session directory, so the whole directory can be snapshotted
// and restored as one opaque blob.
type Service struct {
	app     app.AppContext
	machine *connstate.Machine
	client  *whatsmeow.Client
	store   *sqlstore.Container
}

// New builds the client on top of a SQLite store under the session directory.
// The directory must already be restored (or created) before this runs: the
// store reads its files synchronously here.
func New(a app.AppContext, machine *connstate.Machine) (*Service, error) {
	dbPath := filepath.Join(a.Config().SessionDir(), "whatsapp.db")
	container, err := sqlstore.New("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on", dbPath), nil)
	if err != nil {
		return nil, errors.Wrap(err, "open whatsapp session store")
	}

	device, err := container.GetFirstDevice()
	if err != nil {
		return nil, errors.Wrap(err, "get device from session store")
	}

	svc := &Service{app: a, machine: machine, store: container}

	client := whatsmeow.NewClient(device, nil)
	// Disconnected is terminal until restart; reconnection policy lives with
	// the operator, not the process.
	client.EnableAutoReconnect = false
	client.AddEventHandler(svc.handleEvent)
	svc.client = client

	zap.L().Info("whatsapp: client initialized",
		zap.String("store", dbPath),
		zap.Bool("paired", device.ID != nil))
	return svc, nil
}

// Start connects the client and blocks until ctx is cancelled. When the store
// holds no paired device yet, the QR channel is drained into the state
// machine so each fresh code overwrites the previous one in the status row.
func (s *Service) Start(ctx context.Context) error {
	if s.client.Store.ID == nil {
		qrChan, err := s.client.GetQRChannel(ctx)
		if err != nil {
			return errors.Wrap(err, "get qr channel")
		}
		go s.watchQR(ctx, qrChan)
	}

	if err := s.client.Connect(); err != nil {
		return errors.Wrap(err, "whatsapp connect")
	}

	<-ctx.Done()
	zap.L().Info("whatsapp: shutting down client")
	s.client.Disconnect()
	return nil
}

func (s *Service) watchQR(ctx context.Context, ch <-chan whatsmeow.QRChannelItem) {
	for item := range ch {
		switch item.Event {
		case whatsmeow.QRChannelEventCode:
			zap.L().Info("whatsapp: qr code issued", zap.Int("code_len", len(item.Code)))
			s.machine.QRIssued(ctx, item.Code)
			if s.app.Config().System.Debug {
				qrterminal.GenerateHalfBlock(item.Code, qrterminal.L, os.Stdout)
			}
		case whatsmeow.QRChannelEventError:
			zap.L().Warn("whatsapp: qr channel error", zap.Error(item.Error))
		default:
			// success/timeout; pairing outcome arrives as a lifecycle event
			zap.L().Debug("whatsapp: qr channel closed", zap.String("event", item.Event))
		}
	}
}

func (s *Service) handleEvent(evt interface{}) {
	ctx := context.Background()
	switch e := evt.(type) {
	case *events.PairSuccess:
		zap.L().Info("whatsapp: paired", zap.String("jid", e.ID.String()))
		s.machine.Authenticated(ctx)
	case *events.Connected:
		// A restored session pairs nothing and emits only Connected; pass
		// through the authenticated stage so the mirror sees every status.
		if state, _ := s.machine.Current(); state != connstate.Connected {
			s.machine.Authenticated(ctx)
		}
		zap.L().Info("whatsapp: connected and ready")
		s.machine.Ready(ctx)
	case *events.Disconnected:
		s.machine.Disconnected(ctx, "connection closed")
	case *events.LoggedOut:
		s.machine.Disconnected(ctx, fmt.Sprintf("logged out (reason %d)", int(e.Reason)))
	case *events.StreamReplaced:
		s.machine.Disconnected(ctx, "stream replaced by another client")
	case *events.Message:
		s.handleMessage(e)
	default:
		zap.L().Debug("whatsapp event", zap.String("type", fmt.Sprintf("%T", evt)))
	}
}

func (s *Service) handleMessage(e *events.Message) {
	if e.Info.IsFromMe || e.Info.IsGroup {
		return
	}
	body := extractText(e.Message)
	if body == "" {
		return
	}
	zap.L().Info("whatsapp: message received",
		zap.String("chat", e.Info.Chat.String()),
		zap.Int("body_len", len(body)))
	s.app.Bus().Publish(TopicInboundMessage, InboundMessage{
		ChatID: e.Info.Chat.String(),
		Sender: e.Info.Sender.String(),
		Body:   body,
	})
}

func extractText(msg *waE2E.Message) string {
	if msg == nil {
		return ""
	}
	if conv := msg.GetConversation(); conv != "" {
		return conv
	}
	return msg.GetExtendedTextMessage().GetText()
}

// SendText sends a text message to the given jid (e.g. "62812xxx@s.whatsapp.net").
// It fails fast with ErrNotConnected unless the connection is Ready; no
// delivery is attempted in any other state.
func (s *Service) SendText(ctx context.Context, to string, text string) error {
	if !s.machine.IsReady() {
		return ErrNotConnected
	}
	jid, err := waTypes.ParseJID(to)
	if err != nil {
		zap.L().Warn("whatsapp: invalid jid", zap.Error(err), zap.String("jid", to))
		return errors.Wrap(err, "parse jid")
	}
	msg := &waE2E.Message{Conversation: proto.String(text)}
	if _, err := s.client.SendMessage(ctx, jid, msg); err != nil {
		zap.L().Warn("whatsapp: send message failed", zap.Error(err))
		return err
	}
	zap.L().Info("whatsapp: message sent", zap.String("jid", to))
	return nil
}

// IsReady reports whether outbound sending is currently permitted.
func (s *Service) IsReady() bool {
	return s.machine.IsReady()
}

// CurrentQR returns the pending QR code, empty unless a scan is awaited.
func (s *Service) CurrentQR() string {
	_, qr := s.machine.Current()
	return qr
}
