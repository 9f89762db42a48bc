package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the daemon configuration, one TOML file per node.
type Config struct {
	Node  string      `toml:"node"`
	Link  LinkConfig  `toml:"link"`
	Voice VoiceConfig `toml:"voice"`
	Diag  DiagConfig  `toml:"diag"`
}

type LinkConfig struct {
	// Bridge is the address of the serial bridge exposing the radio as a
	// TCP byte stream.
	Bridge          string `toml:"bridge"`
	ChunkSize       int    `toml:"chunk_size"`
	FrameDelayMS    int    `toml:"frame_delay_ms"`
	InboundQueue    int    `toml:"inbound_queue"`
	ReassemblyTTLMS int    `toml:"reassembly_ttl_ms"`
	SweepIntervalMS int    `toml:"sweep_interval_ms"`
}

type VoiceConfig struct {
	MinBytes         int     `toml:"min_bytes"`
	MinRMS           float64 `toml:"min_rms"`
	AnalysisWindowMS int     `toml:"analysis_window_ms"`
	SampleRate       int     `toml:"sample_rate"`
	MaxAttempts      int     `toml:"max_attempts"`
	RetryBaseDelayMS int     `toml:"retry_base_delay_ms"`
}

type DiagConfig struct {
	Addr        string   `toml:"addr"`
	CorsOrigins []string `toml:"cors_origins"`
}

func (l LinkConfig) FrameDelay() time.Duration {
	return time.Duration(l.FrameDelayMS) * time.Millisecond
}

func (l LinkConfig) ReassemblyTTL() time.Duration {
	return time.Duration(l.ReassemblyTTLMS) * time.Millisecond
}

func (l LinkConfig) SweepInterval() time.Duration {
	return time.Duration(l.SweepIntervalMS) * time.Millisecond
}

// Load reads path, fills defaults, and validates.
func Load(path string) (Config, error) {
	var cfg Config
	if err := loadToml(path, &cfg); err != nil {
		return Config{}, err
	}
	applyDefaults(&cfg)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadToml(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Node == "" {
		cfg.Node = "airlink"
	}
	if cfg.Link.Bridge == "" {
		cfg.Link.Bridge = "127.0.0.1:7710"
	}
	if cfg.Link.ChunkSize == 0 {
		cfg.Link.ChunkSize = 512
	}
	if cfg.Link.FrameDelayMS == 0 {
		cfg.Link.FrameDelayMS = 20
	}
	if cfg.Link.InboundQueue == 0 {
		cfg.Link.InboundQueue = 32
	}
	if cfg.Link.ReassemblyTTLMS == 0 {
		cfg.Link.ReassemblyTTLMS = 30_000
	}
	if cfg.Link.SweepIntervalMS == 0 {
		cfg.Link.SweepIntervalMS = 5_000
	}
	if cfg.Voice.MinBytes == 0 {
		cfg.Voice.MinBytes = 2048
	}
	if cfg.Voice.MinRMS == 0 {
		cfg.Voice.MinRMS = 0.01
	}
	if cfg.Voice.AnalysisWindowMS == 0 {
		cfg.Voice.AnalysisWindowMS = 250
	}
	if cfg.Voice.SampleRate == 0 {
		cfg.Voice.SampleRate = 16000
	}
	if cfg.Voice.MaxAttempts == 0 {
		cfg.Voice.MaxAttempts = 2
	}
	if cfg.Voice.RetryBaseDelayMS == 0 {
		cfg.Voice.RetryBaseDelayMS = 2_000
	}
	if cfg.Diag.Addr == "" {
		cfg.Diag.Addr = ":9710"
	}
}

// Validate rejects configurations the link cannot run with.
func Validate(cfg Config) error {
	var problems []string
	if cfg.Link.ChunkSize < 1 || cfg.Link.ChunkSize > 0xFFFF {
		problems = append(problems, fmt.Sprintf("link.chunk_size %d outside 1..65535", cfg.Link.ChunkSize))
	}
	if cfg.Link.FrameDelayMS < 0 {
		problems = append(problems, "link.frame_delay_ms negative")
	}
	if cfg.Link.InboundQueue < 1 {
		problems = append(problems, "link.inbound_queue must be positive")
	}
	if cfg.Link.ReassemblyTTLMS < 1 {
		problems = append(problems, "link.reassembly_ttl_ms must be positive")
	}
	if cfg.Voice.MinRMS < 0 || cfg.Voice.MinRMS > 1 {
		problems = append(problems, "voice.min_rms outside 0..1")
	}
	if cfg.Voice.SampleRate < 1 {
		problems = append(problems, "voice.sample_rate must be positive")
	}
	if cfg.Voice.MaxAttempts < 1 {
		problems = append(problems, "voice.max_attempts must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("config: invalid: %s", strings.Join(problems, "; "))
	}
	return nil
}
