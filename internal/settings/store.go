package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"volcap/internal/config"
	"volcap/internal/logging"
)

// DefaultCeiling is the value used for devices and the global limit until
// they are explicitly configured.
const DefaultCeiling = 1.0

// Store persists ceiling configuration backed by SQLite.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// DeviceCeiling is one persisted per-device entry. DisplayName is the label
// last seen for the device, kept so disconnected devices stay presentable.
type DeviceCeiling struct {
	StableID    string
	MaxVolume   float64
	DisplayName string
}

// Snapshot is the full persisted state.
type Snapshot struct {
	GlobalMaxVolume float64
	Devices         map[string]DeviceCeiling
}

// Open initializes or connects to the settings database. A corrupt database
// is moved aside and recreated with defaults: a limiter that refuses to
// start is worse than one that forgets limits.
func Open(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("settings store requires config")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	log := logging.NewComponentLogger(logger, "settings")

	dbPath := cfg.DatabasePath()
	store, err := open(dbPath, log)
	if err == nil {
		return store, nil
	}

	if _, statErr := os.Stat(dbPath); statErr != nil {
		return nil, err
	}

	quarantine := fmt.Sprintf("%s.corrupt-%s", dbPath, time.Now().UTC().Format("20060102T150405"))
	log.Warn("settings database unreadable; resetting to defaults",
		logging.Error(err),
		logging.String(logging.FieldEventType, "settings_db_corrupt"),
		logging.String("quarantine_path", quarantine),
		logging.String(logging.FieldImpact, "previously saved ceilings are lost"),
		logging.String(logging.FieldErrorHint, "inspect the quarantined file if the old limits matter"),
	)
	if renameErr := os.Rename(dbPath, quarantine); renameErr != nil {
		return nil, fmt.Errorf("quarantine corrupt settings db: %w", renameErr)
	}
	removeSidecars(dbPath)
	return open(dbPath, log)
}

func open(dbPath string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, logger: logger}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// removeSidecars drops WAL/SHM files left next to a quarantined database so
// the fresh database does not inherit stale pages.
func removeSidecars(dbPath string) {
	for _, suffix := range []string{"-wal", "-shm"} {
		_ = os.Remove(dbPath + suffix)
	}
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Load reads the full persisted state. Missing rows yield defaults.
func (s *Store) Load(ctx context.Context) (Snapshot, error) {
	snapshot := Snapshot{
		GlobalMaxVolume: DefaultCeiling,
		Devices:         make(map[string]DeviceCeiling),
	}

	row := s.db.QueryRowContext(ctx, `SELECT max_volume FROM global_config WHERE id = 1`)
	if err := row.Scan(&snapshot.GlobalMaxVolume); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return snapshot, fmt.Errorf("load global ceiling: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT stable_id, max_volume, display_name FROM device_ceilings`)
	if err != nil {
		return snapshot, fmt.Errorf("load device ceilings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entry DeviceCeiling
		if err := rows.Scan(&entry.StableID, &entry.MaxVolume, &entry.DisplayName); err != nil {
			return snapshot, fmt.Errorf("scan device ceiling: %w", err)
		}
		snapshot.Devices[entry.StableID] = entry
	}
	if err := rows.Err(); err != nil {
		return snapshot, fmt.Errorf("iterate device ceilings: %w", err)
	}
	return snapshot, nil
}

// SaveGlobal persists the global ceiling.
func (s *Store) SaveGlobal(ctx context.Context, value float64) error {
	return s.execWithRetry(ctx,
		`INSERT INTO global_config (id, max_volume) VALUES (1, ?)
         ON CONFLICT(id) DO UPDATE SET max_volume = excluded.max_volume`,
		value,
	)
}

// SaveDeviceCeiling persists one device's ceiling, updating the stored
// display name when a non-empty one is provided.
func (s *Store) SaveDeviceCeiling(ctx context.Context, stableID string, value float64, displayName string) error {
	if strings.TrimSpace(stableID) == "" {
		return errors.New("stable id is required")
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return s.execWithRetry(ctx,
		`INSERT INTO device_ceilings (stable_id, max_volume, display_name, updated_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(stable_id) DO UPDATE SET
             max_volume = excluded.max_volume,
             display_name = CASE WHEN excluded.display_name != '' THEN excluded.display_name ELSE device_ceilings.display_name END,
             updated_at = excluded.updated_at`,
		stableID, value, displayName, now,
	)
}

// TouchDisplayName records the latest label seen for a device that already
// has a persisted ceiling. Devices without a persisted row are skipped.
func (s *Store) TouchDisplayName(ctx context.Context, stableID, displayName string) error {
	if strings.TrimSpace(displayName) == "" {
		return nil
	}
	return s.execWithRetry(ctx,
		`UPDATE device_ceilings SET display_name = ? WHERE stable_id = ?`,
		displayName, stableID,
	)
}

// Health reports basic database diagnostics.
type Health struct {
	Path           string
	IntegrityCheck bool
	DeviceCount    int
	Error          string
}

// CheckHealth runs an integrity check and counts persisted entries.
func (s *Store) CheckHealth(ctx context.Context) Health {
	health := Health{Path: s.path}

	var result string
	if err := s.db.QueryRowContext(ctx, `PRAGMA integrity_check`).Scan(&result); err != nil {
		health.Error = err.Error()
		return health
	}
	health.IntegrityCheck = strings.EqualFold(result, "ok")

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM device_ceilings`).Scan(&health.DeviceCount); err != nil {
		health.Error = err.Error()
	}
	return health
}
