package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const mb = 1024 * 1024

type Config struct {
	Gemini    GeminiConfig    `yaml:"gemini"`
	Codec     CodecConfig     `yaml:"codec"`
	Limits    LimitsConfig    `yaml:"limits"`
	Network   NetworkConfig   `yaml:"network"`
	Extractor ExtractorConfig `yaml:"extractor"`
	Paths     PathsConfig     `yaml:"paths"`
	Export    ExportConfig    `yaml:"export"`
	Logging   LoggingConfig   `yaml:"logging"`
	Server    ServerConfig    `yaml:"server"`
}

type GeminiConfig struct {
	APIKey            string        `yaml:"api_key"`
	Model             string        `yaml:"model"`
	SummaryModel      string        `yaml:"summary_model"`
	BaseURL           string        `yaml:"base_url"`
	TranscribeTimeout time.Duration `yaml:"transcribe_timeout"`
	SummaryTimeout    time.Duration `yaml:"summary_timeout"`
}

type CodecConfig struct {
	System        bool          `yaml:"system"`
	FFmpegPath    string        `yaml:"ffmpeg_path"`
	FFprobePath   string        `yaml:"ffprobe_path"`
	Mirrors       []string      `yaml:"mirrors"`
	ProbeResource string        `yaml:"probe_resource"`
	Executable    string        `yaml:"executable"`
	Payload       string        `yaml:"payload"`
	ProbeTimeout  time.Duration `yaml:"probe_timeout"`
	InitTimeout   time.Duration `yaml:"init_timeout"`
	LoadTimeout   time.Duration `yaml:"load_timeout"`
}

type LimitsConfig struct {
	MaxVideoMB   int `yaml:"max_video_mb"`
	MaxAudioMB   int `yaml:"max_audio_mb"`
	MaxPayloadMB int `yaml:"max_payload_mb"`
}

type NetworkConfig struct {
	ProbeURL string        `yaml:"probe_url"`
	Timeout  time.Duration `yaml:"timeout"`
}

type ExtractorConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type PathsConfig struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
	Temp   string `yaml:"temp"`
}

type ExportConfig struct {
	Docx bool `yaml:"docx"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	TempDir         string        `yaml:"temp_dir"`
	YtDlpPath       string        `yaml:"ytdlp_path"`
	AllowedHosts    []string      `yaml:"allowed_hosts"`
	Retention       time.Duration `yaml:"retention"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
	MinAudioBytes   int64         `yaml:"min_audio_bytes"`
	MaxConcurrent   int           `yaml:"max_concurrent"`
	ExtractTimeout  time.Duration `yaml:"extract_timeout"`
}

// Load reads a YAML config file, applies environment overrides and validates it
func Load(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// LoadServer is Load for the extraction backend, which needs no codec or AI settings
func LoadServer(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateServer(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func read(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv(os.Getenv)
	return &cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv("GEMINI_API_KEY")); v != "" {
		c.Gemini.APIKey = v
	}
	if v := strings.TrimSpace(getenv("EXTRACTOR_BASE_URL")); v != "" {
		c.Extractor.BaseURL = v
	}
}

// Validate checks the client pipeline settings and fills defaults.
// The API key is not required here; a missing key fails the run
// instead.
func (c *Config) Validate() error {
	if c.Paths.Output == "" {
		return fmt.Errorf("paths.output is required")
	}
	if c.Codec.System {
		if c.Codec.FFmpegPath == "" {
			c.Codec.FFmpegPath = "ffmpeg"
		}
		if c.Codec.FFprobePath == "" {
			c.Codec.FFprobePath = "ffprobe"
		}
	} else if len(c.Codec.Mirrors) < 2 {
		return fmt.Errorf("codec.mirrors needs at least two entries unless codec.system is set")
	}

	if c.Paths.Input == "" {
		c.Paths.Input = "data/input"
	}
	if c.Paths.Temp == "" {
		c.Paths.Temp = os.TempDir()
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.5-flash"
	}
	if c.Gemini.SummaryModel == "" {
		c.Gemini.SummaryModel = c.Gemini.Model
	}
	if c.Gemini.TranscribeTimeout == 0 {
		c.Gemini.TranscribeTimeout = 60 * time.Second
	}
	if c.Gemini.SummaryTimeout == 0 {
		c.Gemini.SummaryTimeout = 60 * time.Second
	}
	if c.Codec.ProbeResource == "" {
		c.Codec.ProbeResource = "manifest.json"
	}
	if c.Codec.Executable == "" {
		c.Codec.Executable = "ffmpeg"
	}
	if c.Codec.Payload == "" {
		c.Codec.Payload = "ffprobe"
	}
	if c.Codec.ProbeTimeout == 0 {
		c.Codec.ProbeTimeout = 15 * time.Second
	}
	if c.Codec.InitTimeout == 0 {
		c.Codec.InitTimeout = 30 * time.Second
	}
	if c.Codec.LoadTimeout == 0 {
		c.Codec.LoadTimeout = 45 * time.Second
	}
	if c.Limits.MaxVideoMB == 0 {
		c.Limits.MaxVideoMB = 50
	}
	if c.Limits.MaxAudioMB == 0 {
		c.Limits.MaxAudioMB = 25
	}
	if c.Limits.MaxPayloadMB == 0 {
		c.Limits.MaxPayloadMB = 20
	}
	if c.Network.ProbeURL == "" {
		c.Network.ProbeURL = "https://generativelanguage.googleapis.com/"
	}
	if c.Network.Timeout == 0 {
		c.Network.Timeout = 10 * time.Second
	}
	if c.Extractor.BaseURL == "" {
		c.Extractor.BaseURL = "http://localhost:5002"
	}
	if c.Extractor.Timeout == 0 {
		c.Extractor.Timeout = 5 * time.Minute
	}
	c.fillLogging()

	return nil
}

// ValidateServer checks the extraction backend settings and fills defaults
func (c *Config) ValidateServer() error {
	if c.Server.Addr == "" {
		c.Server.Addr = ":5002"
	}
	if c.Server.TempDir == "" {
		return fmt.Errorf("server.temp_dir is required")
	}
	if c.Server.YtDlpPath == "" {
		c.Server.YtDlpPath = "yt-dlp"
	}
	if len(c.Server.AllowedHosts) == 0 {
		c.Server.AllowedHosts = []string{"youtube.com", "www.youtube.com", "m.youtube.com", "youtu.be"}
	}
	if c.Server.Retention == 0 {
		c.Server.Retention = time.Hour
	}
	if c.Server.CleanupInterval == 0 {
		c.Server.CleanupInterval = 10 * time.Minute
	}
	if c.Server.MinAudioBytes == 0 {
		c.Server.MinAudioBytes = 1024
	}
	if c.Server.MaxConcurrent <= 0 {
		c.Server.MaxConcurrent = 2
	}
	if c.Server.ExtractTimeout == 0 {
		c.Server.ExtractTimeout = 10 * time.Minute
	}
	c.fillLogging()

	return nil
}

func (c *Config) fillLogging() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// MaxVideoBytes is the intake ceiling for video inputs
func (l LimitsConfig) MaxVideoBytes() int64 { return int64(l.MaxVideoMB) * mb }

// MaxAudioBytes is the intake ceiling for audio inputs
func (l LimitsConfig) MaxAudioBytes() int64 { return int64(l.MaxAudioMB) * mb }

// MaxPayloadBytes is the ceiling for audio sent to the AI provider
func (l LimitsConfig) MaxPayloadBytes() int64 { return int64(l.MaxPayloadMB) * mb }
