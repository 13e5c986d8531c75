package relay

import (
	"context"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"github.com/talkincode/warelay/internal/app"
	"github.com/talkincode/warelay/internal/assistant"
	"github.com/talkincode/warelay/internal/domain"
	"github.com/talkincode/warelay/internal/whatsapp"
	"github.com/talkincode/warelay/pkg/common"
	"go.uber.org/zap"
)

const workerPoolSize = 8

// Sender is the outbound side of the protocol client boundary.
type Sender interface {
	SendText(ctx context.Context, to string, text string) error
}

// Relay consumes inbound messages from the event bus, asks the assistant for
// a reply and sends it back. All of this is thin glue around the session
// core: assistant failures are logged and dropped, never queued or retried.
type Relay struct {
	app       app.AppContext
	sender    Sender
	assistant *assistant.Client
	pool      *ants.Pool
}

func New(a app.AppContext, sender Sender, ac *assistant.Client) (*Relay, error) {
	pool, err := ants.NewPool(workerPoolSize)
	if err != nil {
		return nil, errors.Wrap(err, "create relay worker pool")
	}
	r := &Relay{app: a, sender: sender, assistant: ac, pool: pool}
	if err := a.Bus().Subscribe(whatsapp.TopicInboundMessage, r.onInbound); err != nil {
		pool.Release()
		return nil, errors.Wrap(err, "subscribe inbound topic")
	}
	return r, nil
}

func (r *Relay) onInbound(msg whatsapp.InboundMessage) {
	if err := r.pool.Submit(func() { r.process(msg) }); err != nil {
		zap.L().Warn("relay: worker pool rejected message", zap.Error(err))
	}
}

func (r *Relay) process(msg whatsapp.InboundMessage) {
	r.logMessage(msg.ChatID, domain.MessageIn, msg.Body)

	if !r.assistant.Enabled() {
		zap.L().Debug("relay: assistant not configured, message logged only",
			zap.String("chat", msg.ChatID))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	reply, err := r.assistant.Reply(ctx, msg.ChatID, msg.Body)
	if err != nil {
		zap.L().Warn("relay: assistant call failed", zap.String("chat", msg.ChatID), zap.Error(err))
		return
	}
	if reply == "" {
		return
	}

	if err := r.sender.SendText(ctx, msg.ChatID, reply); err != nil {
		zap.L().Warn("relay: reply delivery failed", zap.String("chat", msg.ChatID), zap.Error(err))
		return
	}
	r.logMessage(msg.ChatID, domain.MessageOut, reply)
}

func (r *Relay) logMessage(chatID, direction, body string) {
	row := domain.MessageLog{
		ID:        common.UUIDint64(),
		ChatID:    chatID,
		Direction: direction,
		Body:      body,
		CreatedAt: time.Now(),
	}
	if err := r.app.DB().Create(&row).Error; err != nil {
		zap.L().Warn("relay: message log write failed", zap.Error(err))
	}
}

// Release unsubscribes and drains the worker pool.
func (r *Relay) Release() {
	_ = r.app.Bus().Unsubscribe(whatsapp.TopicInboundMessage, r.onInbound)
	r.pool.Release()
}
