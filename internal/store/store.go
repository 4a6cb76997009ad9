package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/kestrelsec/pagewarden/internal/models"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

const (
	settingExtensionEnabled     = "extensionEnabled"
	settingBlockingEnabled      = "blockingEnabled"
	settingNotificationsEnabled = "notificationsEnabled"
)

// Store persists extension settings, blocked sites, and scan history in
// a local SQLite file. It is loaded once at startup and written through
// as state changes.
type Store struct {
	db              *sql.DB
	logger          zerolog.Logger
	historyCapacity int
}

// NewStore opens (or creates) the database and ensures the schema.
func NewStore(dataSourceName string, historyCapacity int, logger zerolog.Logger) (*Store, error) {
	log := logger.With().Str("component", "Store").Logger()
	log.Info().Str("db_path", dataSourceName).Msg("Opening state store")

	dbDir := filepath.Dir(dataSourceName)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory %s: %w", dbDir, err)
	}

	dbInstance, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("sql.Open failed for %s: %w", dataSourceName, err)
	}

	s := &Store{
		db:              dbInstance,
		logger:          log,
		historyCapacity: historyCapacity,
	}
	if err := s.initSchema(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS blocked_sites (
		url TEXT PRIMARY KEY,
		added_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS whitelist (
		url TEXT PRIMARY KEY
	);
	CREATE TABLE IF NOT EXISTS scan_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL,
		verdict_json TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		s.logger.Error().Err(err).Msg("Failed to initialize store schema")
		return err
	}
	return nil
}

// LoadSettings reads the persisted settings, falling back to defaults
// for anything never written.
func (s *Store) LoadSettings() (models.ExtensionSettings, error) {
	settings := models.DefaultSettings()

	rows, err := s.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return settings, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return settings, fmt.Errorf("failed to scan settings row: %w", err)
		}
		enabled, parseErr := strconv.ParseBool(value)
		if parseErr != nil {
			s.logger.Warn().Str("key", key).Str("value", value).Msg("Skipping unparsable setting")
			continue
		}
		switch key {
		case settingExtensionEnabled:
			settings.Enabled = enabled
		case settingBlockingEnabled:
			settings.BlockingEnabled = enabled
		case settingNotificationsEnabled:
			settings.NotificationsEnabled = enabled
		}
	}
	if err := rows.Err(); err != nil {
		return settings, err
	}

	if settings.BlockedSites, err = s.loadURLList(`SELECT url FROM blocked_sites ORDER BY added_at`); err != nil {
		return settings, err
	}
	if settings.Whitelist, err = s.loadURLList(`SELECT url FROM whitelist ORDER BY url`); err != nil {
		return settings, err
	}
	return settings, nil
}

func (s *Store) loadURLList(query string) ([]string, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query url list: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

// SaveSettings writes the full settings state in one transaction.
func (s *Store) SaveSettings(settings models.ExtensionSettings) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin settings transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	upsert := `INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	for key, value := range map[string]bool{
		settingExtensionEnabled:     settings.Enabled,
		settingBlockingEnabled:      settings.BlockingEnabled,
		settingNotificationsEnabled: settings.NotificationsEnabled,
	} {
		if _, err := tx.Exec(upsert, key, strconv.FormatBool(value)); err != nil {
			return fmt.Errorf("failed to upsert setting %s: %w", key, err)
		}
	}

	if _, err := tx.Exec(`DELETE FROM blocked_sites`); err != nil {
		return fmt.Errorf("failed to clear blocked sites: %w", err)
	}
	now := time.Now()
	for _, u := range settings.BlockedSites {
		if _, err := tx.Exec(`INSERT INTO blocked_sites (url, added_at) VALUES (?, ?)`, u, now); err != nil {
			return fmt.Errorf("failed to insert blocked site: %w", err)
		}
	}

	if _, err := tx.Exec(`DELETE FROM whitelist`); err != nil {
		return fmt.Errorf("failed to clear whitelist: %w", err)
	}
	for _, u := range settings.Whitelist {
		if _, err := tx.Exec(`INSERT INTO whitelist (url) VALUES (?)`, u); err != nil {
			return fmt.Errorf("failed to insert whitelist entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit settings: %w", err)
	}
	s.logger.Debug().Int("blocked_sites", len(settings.BlockedSites)).Msg("Settings persisted")
	return nil
}

// AppendScanHistory inserts one history row and prunes beyond capacity.
func (s *Store) AppendScanHistory(entry models.ScanHistoryEntry) error {
	verdictJSON, err := json.Marshal(entry.Verdict)
	if err != nil {
		return fmt.Errorf("failed to encode verdict: %w", err)
	}

	if _, err := s.db.Exec(
		`INSERT INTO scan_history (url, verdict_json, created_at) VALUES (?, ?, ?)`,
		entry.URL, string(verdictJSON), entry.Timestamp,
	); err != nil {
		return fmt.Errorf("failed to insert scan history: %w", err)
	}

	_, err = s.db.Exec(
		`DELETE FROM scan_history WHERE id NOT IN (SELECT id FROM scan_history ORDER BY id DESC LIMIT ?)`,
		s.historyCapacity,
	)
	if err != nil {
		return fmt.Errorf("failed to prune scan history: %w", err)
	}
	return nil
}

// LoadScanHistory returns up to capacity entries, most recent first.
func (s *Store) LoadScanHistory() ([]models.ScanHistoryEntry, error) {
	rows, err := s.db.Query(
		`SELECT url, verdict_json, created_at FROM scan_history ORDER BY id DESC LIMIT ?`,
		s.historyCapacity,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan history: %w", err)
	}
	defer rows.Close()

	var entries []models.ScanHistoryEntry
	for rows.Next() {
		var entry models.ScanHistoryEntry
		var verdictJSON string
		if err := rows.Scan(&entry.URL, &verdictJSON, &entry.Timestamp); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(verdictJSON), &entry.Verdict); err != nil {
			s.logger.Warn().Err(err).Str("url", entry.URL).Msg("Skipping unreadable history verdict")
			continue
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
