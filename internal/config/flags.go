package config

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// FlagValues holds parsed flags with explicit set tracking so that only
// flags the user actually passed override the persisted config.
type FlagValues struct {
	ConfigPath    string
	ConfigPathSet bool

	Cleanup    bool
	CleanupSet bool

	STTModel    string
	STTModelSet bool

	LLMModel    string
	LLMModelSet bool

	APIEndpoint    string
	APIEndpointSet bool

	Token    string
	TokenSet bool

	LLMEndpoint    string
	LLMEndpointSet bool

	Notification    bool
	NotificationSet bool

	SoundCues    bool
	SoundCuesSet bool

	CacheDir    string
	CacheDirSet bool

	KeepCache    bool
	KeepCacheSet bool

	Debug    bool
	DebugSet bool
}

type stringFlag struct {
	target *string
	set    *bool
}

func (s *stringFlag) String() string {
	if s == nil || s.target == nil {
		return ""
	}
	return *s.target
}

func (s *stringFlag) Set(v string) error {
	*s.target = v
	*s.set = true
	return nil
}

type boolFlag struct {
	target *bool
	set    *bool
}

func (b *boolFlag) String() string {
	if b == nil || b.target == nil {
		return "false"
	}
	return strconv.FormatBool(*b.target)
}

func (b *boolFlag) Set(v string) error {
	l := strings.ToLower(v)
	switch l {
	case "1", "true", "yes":
		*b.target = true
	case "0", "false", "no":
		*b.target = false
	default:
		return fmt.Errorf("invalid bool value: %s", v)
	}
	*b.set = true
	return nil
}

func (b *boolFlag) IsBoolFlag() bool { return true }

// RegisterFlags wires the command-line surface onto fs.
func RegisterFlags(fs *flag.FlagSet, fv *FlagValues) {
	fs.Var(&stringFlag{&fv.ConfigPath, &fv.ConfigPathSet}, "config", "path to config JSON (default: user config dir)")
	fs.Var(&boolFlag{&fv.Cleanup, &fv.CleanupSet}, "cleanup", "enable LLM cleanup of transcripts")
	fs.Var(&stringFlag{&fv.STTModel, &fv.STTModelSet}, "stt-model", "speech-to-text model name")
	fs.Var(&stringFlag{&fv.LLMModel, &fv.LLMModelSet}, "llm-model", "LLM model name for cleanup")
	fs.Var(&stringFlag{&fv.APIEndpoint, &fv.APIEndpointSet}, "api-endpoint", "STT API URL (e.g. https://api.example/v1/audio/transcriptions)")
	fs.Var(&stringFlag{&fv.Token, &fv.TokenSet}, "token", "authorization token (Bearer)")
	fs.Var(&stringFlag{&fv.LLMEndpoint, &fv.LLMEndpointSet}, "llm-endpoint", "OpenAI-compatible endpoint for cleanup (e.g. http://localhost:11434/v1)")
	fs.Var(&boolFlag{&fv.Notification, &fv.NotificationSet}, "notification", "enable desktop notifications")
	fs.Var(&boolFlag{&fv.SoundCues, &fv.SoundCuesSet}, "sound-cues", "enable start/stop tones")
	fs.Var(&stringFlag{&fv.CacheDir, &fv.CacheDirSet}, "cache-dir", "directory for saved captures")
	fs.Var(&boolFlag{&fv.KeepCache, &fv.KeepCacheSet}, "keep-cache", "save each capture as WAV into -cache-dir")
	fs.Var(&boolFlag{&fv.Debug, &fv.DebugSet}, "debug", "enable debug logging")
}

// ApplyOverrides layers environment variables and then set flags on top of
// the persisted config. These overrides live for this process only; they
// are not saved unless the user changes settings through the app.
func ApplyOverrides(cfg *Config, fv *FlagValues) error {
	_ = godotenv.Load()
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("env overrides: %w", err)
	}

	if fv == nil {
		return nil
	}
	if fv.CleanupSet {
		cfg.CleanupEnabled = fv.Cleanup
	}
	if fv.STTModelSet {
		cfg.STTModel = fv.STTModel
	}
	if fv.LLMModelSet {
		cfg.LLMModel = fv.LLMModel
	}
	if fv.APIEndpointSet {
		cfg.APIEndpoint = fv.APIEndpoint
	}
	if fv.TokenSet {
		cfg.Token = fv.Token
	}
	if fv.LLMEndpointSet {
		cfg.LLMEndpoint = fv.LLMEndpoint
	}
	if fv.NotificationSet {
		cfg.Notification = fv.Notification
	}
	if fv.SoundCuesSet {
		cfg.SoundCues = fv.SoundCues
	}
	if fv.CacheDirSet {
		cfg.CacheDir = fv.CacheDir
	}
	if fv.KeepCacheSet {
		cfg.KeepCache = fv.KeepCache
	}
	return nil
}
