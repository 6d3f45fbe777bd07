// Package config persists the application settings as a single JSON
// document, read wholesale at startup and written wholesale on every
// mutation.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Sebstrdigital/dua-talk/internal/keys"
)

// Mode selects which hotkey binding the matcher evaluates.
type Mode string

const (
	ModeToggle     Mode = "toggle"
	ModePushToTalk Mode = "push_to_talk"
)

// HistoryLimit caps the persisted dictation history.
const HistoryLimit = 5

// Hotkeys holds the two configurable bindings.
type Hotkeys struct {
	Toggle     keys.Binding `json:"toggle"`
	PushToTalk keys.Binding `json:"push_to_talk"`
}

// HistoryEntry is one past dictation, newest-first in Config.History.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Config holds all configurable parameters. Fields with env tags can be
// overridden from the environment for the lifetime of the process.
type Config struct {
	Version        int            `json:"version"`
	Hotkeys        Hotkeys        `json:"hotkeys"`
	ActiveMode     Mode           `json:"active_mode"`
	History        []HistoryEntry `json:"history"`
	CleanupEnabled bool           `json:"cleanup_enabled" env:"DUATALK_CLEANUP"`
	STTModel       string         `json:"stt_model" env:"DUATALK_STT_MODEL"`
	LLMModel       string         `json:"llm_model" env:"DUATALK_LLM_MODEL"`

	// STT engine boundary
	APIEndpoint    string  `json:"api_endpoint" env:"DUATALK_API_ENDPOINT"`
	Token          string  `json:"token" env:"DUATALK_TOKEN"`
	Language       string  `json:"language"`
	Prompt         string  `json:"prompt"`
	TextPath       string  `json:"text_path"`
	RequestTimeout int     `json:"request_timeout"`
	MaxRetry       int     `json:"max_retry"`
	RetryBaseDelay float64 `json:"retry_base_delay"`
	EnableHTTP2    bool    `json:"enable_http2"`
	VerifySSL      bool    `json:"verify_ssl"`

	// LLM cleanup boundary
	LLMEndpoint string `json:"llm_endpoint" env:"DUATALK_LLM_ENDPOINT"`

	// Local behavior
	Notification bool   `json:"notification"`
	SoundCues    bool   `json:"sound_cues"`
	CacheDir     string `json:"cache_dir"`
	KeepCache    bool   `json:"keep_cache"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Version: 1,
		Hotkeys: Hotkeys{
			Toggle:     keys.Binding{Modifiers: []keys.Modifier{keys.ModShift, keys.ModCtrl}},
			PushToTalk: keys.Binding{Modifiers: []keys.Modifier{keys.ModCmd, keys.ModShift}},
		},
		ActiveMode:     ModeToggle,
		History:        nil,
		CleanupEnabled: false,
		STTModel:       "base.en",
		LLMModel:       "gemma3",

		APIEndpoint:    "",
		Token:          "",
		Language:       "",
		Prompt:         "",
		TextPath:       "text",
		RequestTimeout: 30,
		MaxRetry:       3,
		RetryBaseDelay: 0.5,
		EnableHTTP2:    true,
		VerifySSL:      true,

		LLMEndpoint: "http://localhost:11434/v1",

		Notification: true,
		SoundCues:    true,
		CacheDir:     "",
		KeepCache:    false,
	}
}

// DefaultPath returns the default location of the persisted config.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		cwd, _ := os.Getwd()
		return filepath.Join(cwd, "config.json")
	}
	return filepath.Join(dir, "Dua Talk", "config.json")
}

// Load reads the config file at path. Missing keys keep their defaults; a
// missing or malformed file falls back to defaults entirely.
func Load(path string, log *zap.SugaredLogger) Config {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) && log != nil {
			log.Warnw("config read failed, using defaults", "path", path, "error", err)
		}
		return cfg
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		if log != nil {
			log.Warnw("config parse failed, using defaults", "path", path, "error", err)
		}
		return DefaultConfig()
	}
	sanitize(&cfg)
	return cfg
}

// sanitize repairs values a hand-edited file may hold.
func sanitize(cfg *Config) {
	if cfg.ActiveMode != ModeToggle && cfg.ActiveMode != ModePushToTalk {
		cfg.ActiveMode = ModeToggle
	}
	if !cfg.Hotkeys.Toggle.Valid() {
		cfg.Hotkeys.Toggle = DefaultConfig().Hotkeys.Toggle
	}
	if !cfg.Hotkeys.PushToTalk.Valid() {
		cfg.Hotkeys.PushToTalk = DefaultConfig().Hotkeys.PushToTalk
	}
	if len(cfg.History) > HistoryLimit {
		cfg.History = cfg.History[:HistoryLimit]
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultConfig().RequestTimeout
	}
	if cfg.MaxRetry <= 0 {
		cfg.MaxRetry = DefaultConfig().MaxRetry
	}
}

// Manager guards the live config and persists every mutation.
type Manager struct {
	mu   sync.Mutex
	path string
	cfg  Config
	log  *zap.SugaredLogger
}

// NewManager loads (or defaults) the config at path.
func NewManager(path string, log *zap.SugaredLogger) *Manager {
	if path == "" {
		path = DefaultPath()
	}
	return &Manager{path: path, cfg: Load(path, log), log: log}
}

// Config returns a copy of the current config.
func (m *Manager) Config() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

// Apply mutates the config under the lock without saving. Used by startup
// overrides that must not be written back to disk.
func (m *Manager) Apply(fn func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.cfg)
}

// SetHotkey replaces the binding for a mode and persists.
func (m *Manager) SetHotkey(mode Mode, b keys.Binding) {
	m.mu.Lock()
	if mode == ModePushToTalk {
		m.cfg.Hotkeys.PushToTalk = b
	} else {
		m.cfg.Hotkeys.Toggle = b
	}
	m.mu.Unlock()
	m.Save()
}

// Hotkey returns the binding for a mode.
func (m *Manager) Hotkey(mode Mode) keys.Binding {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mode == ModePushToTalk {
		return m.cfg.Hotkeys.PushToTalk
	}
	return m.cfg.Hotkeys.Toggle
}

// SetActiveMode switches the active mode and persists.
func (m *Manager) SetActiveMode(mode Mode) {
	m.mu.Lock()
	m.cfg.ActiveMode = mode
	m.mu.Unlock()
	m.Save()
}

// ActiveMode returns the active mode.
func (m *Manager) ActiveMode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg.ActiveMode
}

// SetCleanupEnabled toggles LLM cleanup and persists.
func (m *Manager) SetCleanupEnabled(enabled bool) {
	m.mu.Lock()
	m.cfg.CleanupEnabled = enabled
	m.mu.Unlock()
	m.Save()
}

// CleanupEnabled reports whether LLM cleanup is on.
func (m *Manager) CleanupEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg.CleanupEnabled
}

// AddHistory inserts a dictation at the front of the history, truncates to
// HistoryLimit and persists.
func (m *Manager) AddHistory(text string) {
	m.mu.Lock()
	entry := HistoryEntry{ID: uuid.New().String(), Text: text, Timestamp: time.Now()}
	m.cfg.History = append([]HistoryEntry{entry}, m.cfg.History...)
	if len(m.cfg.History) > HistoryLimit {
		m.cfg.History = m.cfg.History[:HistoryLimit]
	}
	m.mu.Unlock()
	m.Save()
}

// History returns a copy of the persisted history, newest first.
func (m *Manager) History() []HistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]HistoryEntry, len(m.cfg.History))
	copy(out, m.cfg.History)
	return out
}

// Save writes the whole config document. Failures are logged, not fatal.
func (m *Manager) Save() {
	m.mu.Lock()
	cfg := m.cfg
	path := m.path
	m.mu.Unlock()

	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		if m.log != nil {
			m.log.Warnw("config marshal failed", "error", err)
		}
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		if m.log != nil {
			m.log.Warnw("config dir create failed", "path", path, "error", err)
		}
		return
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		if m.log != nil {
			m.log.Warnw("config write failed", "path", path, "error", err)
		}
	}
}
