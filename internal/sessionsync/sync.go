package sessionsync

import (
	"context"

	"github.com/pkg/errors"
	"github.com/talkincode/warelay/internal/sessionblob"
	"github.com/talkincode/warelay/internal/sessionstore"
	"github.com/talkincode/warelay/pkg/common"
	"go.uber.org/zap"
)

// Synchronizer decides when the local session directory and the remote
// snapshot are reconciled: restore once on boot, snapshot after lifecycle
// transitions and on a periodic schedule.
type Synchronizer struct {
	store   *sessionstore.Store
	rootDir string
}

func New(store *sessionstore.Store, rootDir string) *Synchronizer {
	return &Synchronizer{store: store, rootDir: rootDir}
}

// RestoreOnBoot materializes the remote snapshot into the session directory.
// It must run before the WhatsApp client is constructed, since the client
// reads its session files synchronously at startup. Persistence-layer
// failures degrade to a fresh start: the remote blob is a recovery aid, not
// the source of truth.
func (s *Synchronizer) RestoreOnBoot(ctx context.Context) error {
	if err := common.MakeDir(s.rootDir); err != nil {
		return errors.Wrapf(err, "create session dir %s", s.rootDir)
	}

	blob, err := s.store.Load(ctx)
	switch {
	case errors.Is(err, sessionstore.ErrSnapshotNotFound):
		zap.L().Info("session sync: no remote snapshot, starting fresh")
		return nil
	case err != nil:
		zap.L().Warn("session sync: snapshot load failed, starting fresh", zap.Error(err))
		return nil
	}

	if err := sessionblob.Decode(blob, s.rootDir); err != nil {
		zap.L().Warn("session sync: snapshot restore incomplete", zap.Error(err))
		return nil
	}
	zap.L().Info("session sync: restored remote snapshot", zap.Int("files", len(blob)))
	return nil
}

// SnapshotNow serializes the session directory and replaces the remote
// snapshot. Safe to call repeatedly; with no filesystem change the stored
// blob is identical after every call, and concurrent callers simply
// last-write-win a full replacement.
func (s *Synchronizer) SnapshotNow(ctx context.Context) error {
	blob, err := sessionblob.Encode(s.rootDir)
	if err != nil {
		return errors.Wrap(err, "snapshot encode")
	}
	if err := s.store.Save(ctx, blob); err != nil {
		return errors.Wrap(err, "snapshot save")
	}
	zap.L().Debug("session sync: snapshot stored", zap.Int("files", len(blob)))
	return nil
}
