// Package config loads application configuration from environment variables and,
// for the public server process, a JSON envelope passed in the CONFIG variable.
package config

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DatabaseConfig holds the catalog's Postgres connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSL      string
}

// AppConfig is the root configuration shared by every process in the system.
type AppConfig struct {
	Server ServerConfig
	DB     DatabaseConfig
	Data   DataConfig
	Remote RemoteConfig
	Broker BrokerConfig
	Scan   ScanConfig
	Custom CustomTaskConfig
}

type ServerConfig struct {
	Port     string
	LogLevel string
	DevMode  bool
}

// DataConfig locates the data directory that holds derivatives and model caches.
type DataConfig struct {
	DataDir     string
	ScanRoots   []string
	ExcludeDirs []string
	ThumbSize   int
	Whisper     WhisperConfig
	VLLM        VLLMConfig
}

// VLLMConfig parameterizes the bundled captioning task's default prompt (§4.5):
// input tuple (prompt, image_path, max_tokens, runs).
type VLLMConfig struct {
	Prompt    string
	MaxTokens int
	Runs      int
}

// WhisperConfig parameterizes the external transcription process invoked by the
// whisper bundled task (§4.5): argv is [model, device, compute_type,
// model_download_root, input.mp3].
type WhisperConfig struct {
	Binary            string
	Model             string
	Device            string
	ComputeType       string
	ModelDownloadRoot string
}

// RemoteConfig describes, per task name, where a remote runner lives. A task is
// remote-capable only if both the task implements the remote capability and a
// subtable with its name is present here (see task.ShouldRemote).
type RemoteConfig struct {
	Tasks map[string]RemoteTaskConfig
}

type RemoteTaskConfig struct {
	BaseURL string
	Timeout int // seconds
}

// BrokerConfig configures the privileged file broker daemon.
type BrokerConfig struct {
	SocketPath    string
	AllowedRoots  []string
	ClientPidFile string
	SharedSecret  string
}

// ScanConfig controls the C4 scan pipeline's periodic re-scan scheduler.
type ScanConfig struct {
	CronSpec string // robfig/cron spec for unattended re-scans; empty disables
}

// CustomTaskConfig parameterizes the Custom Task RPC (§4.10): an interpreter
// binary plus, per custom task name, the script it runs and the metadata
// version it writes. As with RemoteConfig, per-task subtables are only
// meaningfully populated via the CONFIG envelope; env-var loading exposes a
// single script under the task name given by CUSTOM_TASK_NAME.
type CustomTaskConfig struct {
	Interpreter string
	Scripts     map[string]CustomScriptConfig
}

type CustomScriptConfig struct {
	Path    string
	Version int
}

// IsDevelopmentMode mirrors the teacher's SERVER_ENV convention.
func IsDevelopmentMode() bool {
	return strings.ToLower(os.Getenv("SERVER_ENV")) == "development"
}

// LoadEnvironment loads .env.development or .env, continuing silently if absent.
func LoadEnvironment() {
	isDev := IsDevelopmentMode()
	envFile := ".env"
	if isDev {
		if _, err := os.Stat(".env.development"); err == nil {
			envFile = ".env.development"
		}
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Printf("running without %s, using environment variables", envFile)
	}
}

// LoadFromEnvelope parses the CONFIG env var as a JSON AppConfig, used by the public
// server and worker processes that are spawned with a prepared config rather than
// reading the environment directly (see §4.9).
func LoadFromEnvelope() (*AppConfig, bool) {
	raw := os.Getenv("CONFIG")
	if raw == "" {
		return nil, false
	}
	var cfg AppConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		log.Printf("CONFIG envelope present but invalid JSON: %v", err)
		return nil, false
	}
	return &cfg, true
}

// Load builds the full AppConfig, preferring a CONFIG envelope when present and
// falling back to individual environment variables otherwise.
func Load() AppConfig {
	if cfg, ok := LoadFromEnvelope(); ok {
		return *cfg
	}
	return AppConfig{
		Server: loadServerConfig(),
		DB:     loadDBConfig(),
		Data:   loadDataConfig(),
		Remote: loadRemoteConfig(),
		Broker: loadBrokerConfig(),
		Scan:   loadScanConfig(),
		Custom: loadCustomTaskConfig(),
	}
}

func loadDBConfig() DatabaseConfig {
	isDev := IsDevelopmentMode()
	cfg := DatabaseConfig{Host: "db", Port: "5432", User: "postgres", Password: "postgres", DBName: "lumina", SSL: "disable"}
	if isDev {
		cfg.Host = "localhost"
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("DB_USER"); v != "" {
		cfg.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.DBName = v
	}
	if v := os.Getenv("DB_SSL"); v != "" {
		cfg.SSL = v
	}
	return cfg
}

func loadServerConfig() ServerConfig {
	isDev := IsDevelopmentMode()
	cfg := ServerConfig{Port: "8080", LogLevel: "info", DevMode: isDev}
	if isDev {
		cfg.LogLevel = "debug"
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("SERVER_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return cfg
}

func loadDataConfig() DataConfig {
	cfg := DataConfig{
		DataDir:   "./data",
		ThumbSize: 512,
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("SCAN_ROOTS"); v != "" {
		cfg.ScanRoots = splitList(v)
	}
	if v := os.Getenv("SCAN_EXCLUDE"); v != "" {
		cfg.ExcludeDirs = splitList(v)
	}
	if v := os.Getenv("THUMB_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ThumbSize = n
		}
	}
	cfg.Whisper = loadWhisperConfig()
	cfg.VLLM = loadVLLMConfig()
	return cfg
}

func loadVLLMConfig() VLLMConfig {
	cfg := VLLMConfig{
		Prompt:    "Describe this image in detail.",
		MaxTokens: 512,
		Runs:      1,
	}
	if v := os.Getenv("VLLM_PROMPT"); v != "" {
		cfg.Prompt = v
	}
	if v := os.Getenv("VLLM_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxTokens = n
		}
	}
	if v := os.Getenv("VLLM_RUNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Runs = n
		}
	}
	return cfg
}

func loadWhisperConfig() WhisperConfig {
	cfg := WhisperConfig{
		Binary:            "whisper-transcribe",
		Model:             "base",
		Device:            "cpu",
		ComputeType:       "int8",
		ModelDownloadRoot: "./data/models/whisper",
	}
	if v := os.Getenv("WHISPER_BINARY"); v != "" {
		cfg.Binary = v
	}
	if v := os.Getenv("WHISPER_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("WHISPER_DEVICE"); v != "" {
		cfg.Device = v
	}
	if v := os.Getenv("WHISPER_COMPUTE_TYPE"); v != "" {
		cfg.ComputeType = v
	}
	if v := os.Getenv("WHISPER_MODEL_ROOT"); v != "" {
		cfg.ModelDownloadRoot = v
	}
	return cfg
}

func loadRemoteConfig() RemoteConfig {
	// Remote task subtables are only meaningfully populated via the CONFIG envelope;
	// env-var based loading points each task named in REMOTE_TASKS at the single
	// REMOTE_RUNNER_URL; other tasks stay local.
	cfg := RemoteConfig{Tasks: map[string]RemoteTaskConfig{}}
	if base := os.Getenv("REMOTE_RUNNER_URL"); base != "" {
		names := splitList(os.Getenv("REMOTE_TASKS"))
		for _, n := range names {
			cfg.Tasks[n] = RemoteTaskConfig{BaseURL: base, Timeout: 30}
		}
	}
	return cfg
}

func loadBrokerConfig() BrokerConfig {
	cfg := BrokerConfig{
		SocketPath: "/run/lumina/broker.sock",
	}
	if v := os.Getenv("BROKER_SOCKET"); v != "" {
		cfg.SocketPath = v
	}
	if v := os.Getenv("BROKER_SHARED_SECRET"); v != "" {
		cfg.SharedSecret = v
	}
	return cfg
}

func loadScanConfig() ScanConfig {
	return ScanConfig{CronSpec: os.Getenv("SCAN_CRON")}
}

func loadCustomTaskConfig() CustomTaskConfig {
	cfg := CustomTaskConfig{Interpreter: "python3", Scripts: map[string]CustomScriptConfig{}}
	if v := os.Getenv("CUSTOM_TASK_INTERPRETER"); v != "" {
		cfg.Interpreter = v
	}
	if name, path := os.Getenv("CUSTOM_TASK_NAME"), os.Getenv("CUSTOM_TASK_SCRIPT"); name != "" && path != "" {
		version := 1
		if v := os.Getenv("CUSTOM_TASK_VERSION"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				version = n
			}
		}
		cfg.Scripts[name] = CustomScriptConfig{Path: path, Version: version}
	}
	return cfg
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
