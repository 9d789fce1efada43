// Package config reads ~/.roland/config.toml, ROLAND_* environment variables
// and an optional .env file into one immutable Config.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/roland/internal/domain"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

const (
	configDir  = ".roland"
	configName = "config"
	envPrefix  = "ROLAND"

	BackendTOML   = "toml"
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"

	KeysXdotool = "xdotool"
	KeysKeybd   = "keybd"
	KeysConsole = "console"

	SpeechEspeak  = "espeak"
	SpeechConsole = "console"
)

const (
	KeyWakeWord       = "wake_word"
	KeyMacrosBackend  = "macros.backend"
	KeyMacrosPath     = "macros.path"
	KeyMacrosLimit    = "macros.limit"
	KeyKeybindsPath   = "keybinds.path"
	KeyThreshold      = "resolver.threshold"
	KeyEpsilon        = "resolver.epsilon"
	KeyContextTTL     = "context.ttl"
	KeyDialogTimeout  = "dialog.timeout"
	KeyLLMEnabled     = "llm.enabled"
	KeyLLMBaseURL     = "llm.base_url"
	KeyLLMModel       = "llm.model"
	KeyLLMAPIKey      = "llm.api_key"
	KeyLLMTimeout     = "llm.timeout"
	KeyKeysBackend    = "keys.backend"
	KeyPressDuration  = "keys.press_duration"
	KeyHoldDuration   = "keys.hold_duration"
	KeyMaxHold        = "keys.max_hold"
	KeyFocusWindow    = "keys.focus_window"
	KeySpeechBackend  = "speech.backend"
	KeySpeechVoice    = "speech.voice"
	KeySocketPath     = "socket.path"
	KeyLogLevel       = "log.level"
	defaultMacroLimit = 100
)

var macroFileExt = map[string]string{
	BackendTOML:   "toml",
	BackendSQLite: "db",
	BackendBolt:   "bolt",
}

type Macros struct {
	Backend string
	Path    string
	Limit   int
}

type Resolver struct {
	Threshold float64
	Epsilon   float64
}

type LLM struct {
	Enabled bool
	BaseURL string
	Model   string
	APIKey  string
	Timeout time.Duration
}

type Keys struct {
	Backend       string
	PressDuration time.Duration
	HoldDuration  time.Duration
	// MaxHold caps spoken, imported and catalog hold durations.
	MaxHold time.Duration
	// FocusWindow blocks injection unless the active window title contains
	// it. Empty disables the check.
	FocusWindow string
}

type Speech struct {
	Backend string
	Voice   string
}

type Config struct {
	WakeWord      string
	Macros        Macros
	KeybindsPath  string
	Resolver      Resolver
	ContextTTL    time.Duration
	DialogTimeout time.Duration
	LLM           LLM
	Keys          Keys
	Speech        Speech
	SocketPath    string
	LogLevel      string

	v *viper.Viper
}

type Options struct {
	// Home defaults to the user's home directory.
	Home string
	// EnvFile defaults to ".env" in the working directory. A missing file is
	// ignored.
	EnvFile string
	// File overrides the config file location.
	File string
}

func Load(opts Options) (*Config, error) {
	home := opts.Home
	if home == "" {
		resolved, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		home = resolved
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	v := viper.New()
	setDefaults(v, home)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("toml")
		v.AddConfigPath(filepath.Join(home, configDir))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return FromViper(v, home)
}

// FromViper decodes and validates an already populated viper instance. The
// resolved macro path is written back so repositories constructed from the
// same instance agree on it.
func FromViper(v *viper.Viper, home string) (*Config, error) {
	setDefaults(v, home)

	cfg := &Config{
		WakeWord: v.GetString(KeyWakeWord),
		Macros: Macros{
			Backend: strings.ToLower(v.GetString(KeyMacrosBackend)),
			Path:    v.GetString(KeyMacrosPath),
			Limit:   v.GetInt(KeyMacrosLimit),
		},
		KeybindsPath: v.GetString(KeyKeybindsPath),
		Resolver: Resolver{
			Threshold: v.GetFloat64(KeyThreshold),
			Epsilon:   v.GetFloat64(KeyEpsilon),
		},
		ContextTTL:    v.GetDuration(KeyContextTTL),
		DialogTimeout: v.GetDuration(KeyDialogTimeout),
		LLM: LLM{
			Enabled: v.GetBool(KeyLLMEnabled),
			BaseURL: v.GetString(KeyLLMBaseURL),
			Model:   v.GetString(KeyLLMModel),
			APIKey:  v.GetString(KeyLLMAPIKey),
			Timeout: v.GetDuration(KeyLLMTimeout),
		},
		Keys: Keys{
			Backend:       strings.ToLower(v.GetString(KeyKeysBackend)),
			PressDuration: v.GetDuration(KeyPressDuration),
			HoldDuration:  v.GetDuration(KeyHoldDuration),
			MaxHold:       v.GetDuration(KeyMaxHold),
			FocusWindow:   v.GetString(KeyFocusWindow),
		},
		Speech: Speech{
			Backend: strings.ToLower(v.GetString(KeySpeechBackend)),
			Voice:   v.GetString(KeySpeechVoice),
		},
		SocketPath: expandHome(v.GetString(KeySocketPath), home),
		LogLevel:   v.GetString(KeyLogLevel),
		v:          v,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.Macros.Path == "" {
		cfg.Macros.Path = filepath.Join(home, configDir, "macros."+macroFileExt[cfg.Macros.Backend])
	}
	cfg.Macros.Path = expandHome(cfg.Macros.Path, home)
	v.Set(KeyMacrosPath, cfg.Macros.Path)

	return cfg, nil
}

// Viper exposes the backing instance for adapters configured by key.
func (c *Config) Viper() *viper.Viper {
	return c.v
}

func (c *Config) validate() error {
	if _, ok := macroFileExt[c.Macros.Backend]; !ok {
		return fmt.Errorf("invalid %s %q (want toml, sqlite or bolt)", KeyMacrosBackend, c.Macros.Backend)
	}
	if c.Macros.Limit < 0 {
		return fmt.Errorf("invalid %s %d", KeyMacrosLimit, c.Macros.Limit)
	}
	if c.Resolver.Threshold <= 0 || c.Resolver.Threshold > 1 {
		return fmt.Errorf("invalid %s %v (want 0 < t <= 1)", KeyThreshold, c.Resolver.Threshold)
	}
	if c.Resolver.Epsilon <= 0 || c.Resolver.Epsilon >= 1 {
		return fmt.Errorf("invalid %s %v (want 0 < e < 1)", KeyEpsilon, c.Resolver.Epsilon)
	}
	if c.ContextTTL <= 0 {
		return fmt.Errorf("invalid %s %s", KeyContextTTL, c.ContextTTL)
	}
	if c.DialogTimeout <= 0 {
		return fmt.Errorf("invalid %s %s", KeyDialogTimeout, c.DialogTimeout)
	}
	if c.Keys.MaxHold <= 0 {
		return fmt.Errorf("invalid %s %s", KeyMaxHold, c.Keys.MaxHold)
	}
	if c.Keys.HoldDuration <= 0 || c.Keys.HoldDuration > c.Keys.MaxHold {
		return fmt.Errorf("invalid %s %s (want 0 < d <= %s)", KeyHoldDuration, c.Keys.HoldDuration, c.Keys.MaxHold)
	}
	switch c.Keys.Backend {
	case KeysXdotool, KeysKeybd, KeysConsole:
	default:
		return fmt.Errorf("invalid %s %q (want xdotool, keybd or console)", KeyKeysBackend, c.Keys.Backend)
	}
	switch c.Speech.Backend {
	case SpeechEspeak, SpeechConsole:
	default:
		return fmt.Errorf("invalid %s %q (want espeak or console)", KeySpeechBackend, c.Speech.Backend)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid %s: %w", KeyLogLevel, err)
	}

	return nil
}

func setDefaults(v *viper.Viper, home string) {
	v.SetDefault(KeyWakeWord, "roland")
	v.SetDefault(KeyMacrosBackend, BackendTOML)
	v.SetDefault(KeyMacrosLimit, defaultMacroLimit)
	v.SetDefault(KeyThreshold, 0.85)
	v.SetDefault(KeyEpsilon, 0.06)
	v.SetDefault(KeyContextTTL, 10*time.Second)
	v.SetDefault(KeyDialogTimeout, 30*time.Second)
	v.SetDefault(KeyLLMEnabled, true)
	v.SetDefault(KeyLLMBaseURL, "http://localhost:11434/v1")
	v.SetDefault(KeyLLMModel, "llama3.2")
	v.SetDefault(KeyLLMAPIKey, "ollama")
	v.SetDefault(KeyLLMTimeout, 3*time.Second)
	v.SetDefault(KeyKeysBackend, KeysXdotool)
	v.SetDefault(KeyPressDuration, 50*time.Millisecond)
	v.SetDefault(KeyHoldDuration, time.Second)
	v.SetDefault(KeyMaxHold, domain.DefaultMaxHold)
	v.SetDefault(KeyFocusWindow, "")
	v.SetDefault(KeySpeechBackend, SpeechEspeak)
	v.SetDefault(KeySpeechVoice, "en")
	v.SetDefault(KeySocketPath, filepath.Join(home, configDir, "roland.sock"))
	v.SetDefault(KeyLogLevel, "info")
}

func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		return filepath.Join(home, rest)
	}
	return path
}
