package sessionblob

import (
	"encoding/base64"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Blob is a flat snapshot of a directory tree: relative slash-separated file
// path to base64 file content. Only regular files are recorded, never
// directory entries.
type Blob map[string]string

// Encode walks rootDir and serializes every regular file into a Blob. A
// missing rootDir yields an empty blob rather than an error: the session
// directory does not exist before the first pairing.
func Encode(rootDir string) (Blob, error) {
	blob := make(Blob)
	if _, err := os.Stat(rootDir); os.IsNotExist(err) {
		return blob, nil
	}
	err := filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(rootDir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		blob[filepath.ToSlash(rel)] = base64.StdEncoding.EncodeToString(data)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "encode session dir %s", rootDir)
	}
	return blob, nil
}

// Decode materializes blob under rootDir, creating parent directories as
// needed and overwriting existing files. Files already present locally but
// absent from the blob are left untouched; a stale or partial remote snapshot
// must never wipe local state. A failure on one entry is logged and the rest
// of the restore continues.
func Decode(blob Blob, rootDir string) error {
	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return errors.Wrapf(err, "create session dir %s", rootDir)
	}
	for name, content := range blob {
		target, ok := safeJoin(rootDir, name)
		if !ok {
			zap.L().Warn("session restore: rejecting path outside session dir", zap.String("path", name))
			continue
		}
		data, err := base64.StdEncoding.DecodeString(content)
		if err != nil {
			zap.L().Warn("session restore: undecodable entry skipped", zap.String("path", name), zap.Error(err))
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			zap.L().Warn("session restore: mkdir failed, entry skipped", zap.String("path", name), zap.Error(err))
			continue
		}
		if err := os.WriteFile(target, data, 0o600); err != nil {
			zap.L().Warn("session restore: write failed, entry skipped", zap.String("path", name), zap.Error(err))
			continue
		}
	}
	return nil
}

// safeJoin joins name under rootDir and reports whether the result stays
// inside rootDir. Absolute paths and parent-directory segments are rejected.
func safeJoin(rootDir, name string) (string, bool) {
	name = filepath.FromSlash(name)
	if filepath.IsAbs(name) {
		return "", false
	}
	for _, seg := range strings.Split(filepath.ToSlash(name), "/") {
		if seg == ".." {
			return "", false
		}
	}
	target := filepath.Join(rootDir, name)
	root := filepath.Clean(rootDir)
	if target != root && !strings.HasPrefix(target, root+string(filepath.Separator)) {
		return "", false
	}
	return target, true
}
