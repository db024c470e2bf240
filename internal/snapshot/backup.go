package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
)

// Snapshotter writes a consistent copy of the local store to path.
type Snapshotter interface {
	Snapshot(ctx context.Context, path string) error
}

// Result describes one completed backup.
type Result struct {
	Path     string    `json:"path"`
	Key      string    `json:"key"`
	Bytes    int64     `json:"bytes"`
	Uploaded bool      `json:"uploaded"`
	URL      string    `json:"url,omitempty"`
	Expires  time.Time `json:"expires,omitempty"`
}

// Backup snapshots the store into dir and uploads the file.
type Backup struct {
	store    Snapshotter
	uploader Uploader
	dir      string
	deviceID string
	now      func() time.Time
}

// NewBackup creates a Backup writing files under dir.
func NewBackup(store Snapshotter, uploader Uploader, dir, deviceID string) *Backup {
	if uploader == nil {
		uploader = &NoopUploader{}
	}
	return &Backup{store: store, uploader: uploader, dir: dir, deviceID: deviceID, now: time.Now}
}

// Run takes one backup. Files are named by ULID so they sort by time.
func (b *Backup) Run(ctx context.Context) (*Result, error) {
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}

	name := ulid.MustNew(ulid.Timestamp(b.now()), ulid.DefaultEntropy()).String() + ".db"
	path := filepath.Join(b.dir, name)
	if err := b.store.Snapshot(ctx, path); err != nil {
		return nil, fmt.Errorf("snapshot store: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat backup: %w", err)
	}

	res := &Result{Path: path, Key: objectKey(b.deviceID, name), Bytes: info.Size()}
	if _, noop := b.uploader.(*NoopUploader); noop {
		slog.Info("backup written locally",
			"component", "snapshot",
			"action", "backup_local",
			"path", path,
		)
		return res, nil
	}

	if err := b.uploader.Upload(ctx, res.Key, path); err != nil {
		return res, err
	}
	res.Uploaded = true

	res.URL, res.Expires, err = b.uploader.PresignedURL(ctx, res.Key)
	if err != nil && !errors.Is(err, ErrNotConfigured) {
		slog.Warn("presign backup failed",
			"component", "snapshot",
			"key", res.Key,
			"error", err,
		)
	}

	slog.Info("backup uploaded",
		"component", "snapshot",
		"action", "backup_uploaded",
		"key", res.Key,
		"bytes", res.Bytes,
	)
	return res, nil
}

// objectKey returns the S3 object key for a backup.
// Convention: {device_id}/backups/{name}
func objectKey(deviceID, name string) string {
	return deviceID + "/backups/" + name
}
