// Package preset stores named plugin states in a SQLite database.
package preset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"github.com/justyntemme/vfxgo/pkg/framework/fx"
	"github.com/justyntemme/vfxgo/pkg/framework/state"
)

var (
	// ErrNotFound is returned when no preset has the given name.
	ErrNotFound = errors.New("preset: not found")
	// ErrIncompatible is returned when a preset was saved by a newer plugin
	// version or carries an unreadable version.
	ErrIncompatible = errors.New("preset: saved by an incompatible plugin version")
)

// Codec names how a payload is stored.
type Codec string

const (
	CodecRaw  Codec = "raw"
	CodecZstd Codec = "zstd"
)

// Entry describes a stored preset.
type Entry struct {
	Canonical     string
	Name          string
	PluginVersion string
	StateVersion  int
	// Size is the uncompressed payload size.
	Size      int
	Codec     Codec
	CreatedAt time.Time
}

// Config configures a Store.
type Config struct {
	Path     string
	Compress bool
}

const schema = `
CREATE TABLE IF NOT EXISTS presets (
    canonical      TEXT NOT NULL,
    name           TEXT NOT NULL,
    plugin_version TEXT NOT NULL,
    state_version  INTEGER NOT NULL,
    size           INTEGER NOT NULL,
    codec          TEXT NOT NULL,
    data           BLOB NOT NULL,
    created_at     INTEGER NOT NULL,
    PRIMARY KEY (canonical, name)
);
`

// Store is a preset database. Safe for concurrent use.
type Store struct {
	db       *sql.DB
	compress bool

	mu  sync.Mutex
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// Open opens or creates the database at cfg.Path.
func Open(cfg Config) (*Store, error) {
	if dir := filepath.Dir(cfg.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("preset: create directory: %w", err)
		}
	}
	dsn := cfg.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("preset: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("preset: connect: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("preset: create schema: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, err
	}
	return &Store{db: db, compress: cfg.Compress, enc: enc, dec: dec}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	s.enc.Close()
	s.dec.Close()
	s.mu.Unlock()
	return s.db.Close()
}

// Save stores a copy of blob under name, replacing an existing preset of
// the same name. The blob stays with the caller.
func (s *Store) Save(ctx context.Context, info fx.Info, name string, blob *state.Blob) error {
	if blob == nil || blob.Taken() {
		return fmt.Errorf("preset %q: no state to save", name)
	}
	raw := blob.Borrow().CopyBytes()
	if raw == nil {
		raw = []byte{}
	}
	data, codec := raw, CodecRaw
	if s.compress {
		s.mu.Lock()
		data = s.enc.EncodeAll(raw, make([]byte, 0, len(raw)/2+16))
		s.mu.Unlock()
		codec = CodecZstd
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO presets (canonical, name, plugin_version, state_version, size, codec, data, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (canonical, name) DO UPDATE SET
    plugin_version = excluded.plugin_version,
    state_version  = excluded.state_version,
    size           = excluded.size,
    codec          = excluded.codec,
    data           = excluded.data,
    created_at     = excluded.created_at`,
		info.CanonicalName, name, info.Version, blob.Version(), len(raw), string(codec), data, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("preset %q: save: %w", name, err)
	}
	return nil
}

// Load returns a fresh blob for a preset of the plugin info describes. A
// preset written by a newer plugin, or by another major version, is refused.
func (s *Store) Load(ctx context.Context, info fx.Info, name string) (*state.Blob, Entry, error) {
	var (
		e    Entry
		data []byte
	)
	row := s.db.QueryRowContext(ctx, `
SELECT canonical, name, plugin_version, state_version, size, codec, created_at, data
FROM presets WHERE canonical = ? AND name = ?`, info.CanonicalName, name)
	if err := scanEntry(row, &e, &data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, e, fmt.Errorf("%w: %s/%s", ErrNotFound, info.CanonicalName, name)
		}
		return nil, e, fmt.Errorf("preset %q: load: %w", name, err)
	}
	if err := compatible(e.PluginVersion, info.Version); err != nil {
		return nil, e, fmt.Errorf("preset %q: %w", name, err)
	}

	if e.Codec == CodecZstd {
		s.mu.Lock()
		raw, err := s.dec.DecodeAll(data, make([]byte, 0, e.Size))
		s.mu.Unlock()
		if err != nil {
			return nil, e, fmt.Errorf("preset %q: decompress: %w", name, err)
		}
		data = raw
	}
	return state.NewBlob(e.StateVersion, data), e, nil
}

// List returns the presets of one plugin, or of every plugin when canonical
// is empty, ordered by plugin and name.
func (s *Store) List(ctx context.Context, canonical string) ([]Entry, error) {
	query := `SELECT canonical, name, plugin_version, state_version, size, codec, created_at FROM presets`
	var args []any
	if canonical != "" {
		query += ` WHERE canonical = ?`
		args = append(args, canonical)
	}
	query += ` ORDER BY canonical, name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("preset: list: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := scanEntry(rows, &e, nil); err != nil {
			return nil, fmt.Errorf("preset: list: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Delete removes a preset.
func (s *Store) Delete(ctx context.Context, canonical, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM presets WHERE canonical = ? AND name = ?`, canonical, name)
	if err != nil {
		return fmt.Errorf("preset %q: delete: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, canonical, name)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner, e *Entry, data *[]byte) error {
	var (
		codec   string
		created int64
	)
	dest := []any{&e.Canonical, &e.Name, &e.PluginVersion, &e.StateVersion, &e.Size, &codec, &created}
	if data != nil {
		dest = append(dest, data)
	}
	if err := row.Scan(dest...); err != nil {
		return err
	}
	e.Codec = Codec(codec)
	e.CreatedAt = time.Unix(0, created)
	return nil
}

// compatible refuses a preset saved by a newer plugin. Older presets, of any
// major version, go to the plugin, whose state schema migrates or rejects them.
func compatible(saved, running string) error {
	sv, err := semver.NewVersion(saved)
	if err != nil {
		return fmt.Errorf("%w: stored version %q: %v", ErrIncompatible, saved, err)
	}
	rv, err := semver.NewVersion(running)
	if err != nil {
		return fmt.Errorf("%w: plugin version %q: %v", ErrIncompatible, running, err)
	}
	if sv.GreaterThan(rv) {
		return fmt.Errorf("%w: saved by %s, running %s", ErrIncompatible, sv, rv)
	}
	return nil
}
