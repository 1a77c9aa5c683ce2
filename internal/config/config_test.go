package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"lacquer/internal/config"
)

func TestLoadDefaultConfigUsesEnvKeysAndExpandsPaths(t *testing.T) {
	t.Setenv("OMDB_API_KEY", "omdb-env-key")
	t.Setenv("TMDB_API_KEY", "tmdb-env-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantOutput := filepath.Join(tempHome, ".local", "share", "lacquer", "output")
	if cfg.Paths.OutputDir != wantOutput {
		t.Fatalf("unexpected output dir: got %q want %q", cfg.Paths.OutputDir, wantOutput)
	}
	if cfg.Jellyfin.UploadPosters {
		t.Fatal("expected poster upload disabled by default")
	}
	if cfg.OMDb.APIKey != "omdb-env-key" {
		t.Fatalf("expected OMDb key from env, got %q", cfg.OMDb.APIKey)
	}
	if cfg.TMDB.APIKey != "tmdb-env-key" {
		t.Fatalf("expected TMDB key from env, got %q", cfg.TMDB.APIKey)
	}
	if cfg.OMDb.BaseURL != config.Default().OMDb.BaseURL {
		t.Fatalf("unexpected OMDb base url: %q", cfg.OMDb.BaseURL)
	}
	if len(cfg.Badges.Types) != 4 {
		t.Fatalf("expected all badge types by default, got %v", cfg.Badges.Types)
	}
	if cfg.Workflow.WorkerCount != config.Default().Workflow.WorkerCount {
		t.Fatalf("unexpected worker count: %d", cfg.Workflow.WorkerCount)
	}
	if cfg.Badges.CacheTTLSeconds != config.Default().Badges.CacheTTLSeconds {
		t.Fatalf("unexpected cache ttl: %d", cfg.Badges.CacheTTLSeconds)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	for _, dir := range []string{cfg.Paths.OutputDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "lacquer.toml")

	type payload struct {
		Jellyfin struct {
			URL    string `toml:"url"`
			APIKey string `toml:"api_key"`
		} `toml:"jellyfin"`
		OMDb struct {
			Enabled bool `toml:"enabled"`
		} `toml:"omdb"`
		TMDB struct {
			Enabled bool   `toml:"enabled"`
			APIKey  string `toml:"api_key"`
			BaseURL string `toml:"base_url"`
		} `toml:"tmdb"`
		Badges struct {
			Types []string `toml:"types"`
			Size  int      `toml:"size"`
		} `toml:"badges"`
		Workflow struct {
			WorkerCount   int `toml:"worker_count"`
			AutoThreshold int `toml:"auto_threshold"`
		} `toml:"workflow"`
	}
	custom := payload{}
	custom.Jellyfin.URL = "https://media.example.com/"
	custom.Jellyfin.APIKey = "jf-key"
	custom.OMDb.Enabled = false
	custom.TMDB.Enabled = true
	custom.TMDB.APIKey = "abc123"
	custom.TMDB.BaseURL = "https://example.com/tmdb"
	custom.Badges.Types = []string{"Review", " audio "}
	custom.Badges.Size = 128
	custom.Workflow.WorkerCount = 8
	custom.Workflow.AutoThreshold = 25
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Jellyfin.URL != "https://media.example.com" {
		t.Fatalf("expected trailing slash stripped, got %q", cfg.Jellyfin.URL)
	}
	if cfg.TMDB.APIKey != "abc123" {
		t.Fatalf("expected TMDB key from file, got %q", cfg.TMDB.APIKey)
	}
	if cfg.TMDB.BaseURL != "https://example.com/tmdb" {
		t.Fatalf("expected TMDB base url override, got %q", cfg.TMDB.BaseURL)
	}
	if len(cfg.Badges.Types) != 2 || cfg.Badges.Types[0] != "review" || cfg.Badges.Types[1] != "audio" {
		t.Fatalf("expected badge types lowered and trimmed, got %v", cfg.Badges.Types)
	}
	if cfg.Badges.Size != 128 {
		t.Fatalf("expected badge size 128, got %d", cfg.Badges.Size)
	}
	if cfg.Workflow.WorkerCount != 8 {
		t.Fatalf("expected worker count 8, got %d", cfg.Workflow.WorkerCount)
	}
	if cfg.Workflow.AutoThreshold != 25 {
		t.Fatalf("expected auto threshold 25, got %d", cfg.Workflow.AutoThreshold)
	}
}

func TestEnvKeysBackfillMissingFileValues(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "lacquer.toml")

	type payload struct {
		OMDb struct {
			Enabled bool   `toml:"enabled"`
			APIKey  string `toml:"api_key"`
		} `toml:"omdb"`
		TMDB struct {
			Enabled bool `toml:"enabled"`
		} `toml:"tmdb"`
	}
	custom := payload{}
	custom.OMDb.Enabled = true
	custom.OMDb.APIKey = "file-omdb"
	custom.TMDB.Enabled = true

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	t.Setenv("OMDB_API_KEY", "env-omdb")
	t.Setenv("TMDB_API_KEY", "env-tmdb")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	// Keys set in the file win; the environment only fills gaps.
	if cfg.OMDb.APIKey != "file-omdb" {
		t.Errorf("expected OMDb key from file, got %q", cfg.OMDb.APIKey)
	}
	if cfg.TMDB.APIKey != "env-tmdb" {
		t.Errorf("expected TMDB key from env, got %q", cfg.TMDB.APIKey)
	}
}

func TestWriteSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "your_tmdb_api_key_here") {
		t.Fatalf("sample config missing placeholder TMDB key: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Badges.Size != config.Default().Badges.Size {
		t.Fatalf("sample badge size drifted from default: %d", cfg.Badges.Size)
	}

	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected error when sample already exists")
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	base := func() config.Config {
		cfg := config.Default()
		cfg.OMDb.APIKey = "key"
		cfg.TMDB.APIKey = "key"
		return cfg
	}

	cfg := base()
	cfg.OMDb.APIKey = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for enabled OMDb without key")
	}

	cfg = base()
	cfg.Jellyfin.URL = "http://localhost:8096"
	cfg.Jellyfin.APIKey = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for Jellyfin url without api key")
	}

	cfg = base()
	cfg.Jellyfin.UploadPosters = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for poster upload without jellyfin url")
	}

	cfg = base()
	cfg.Badges.Types = []string{"sparkles"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown badge type")
	}

	cfg = base()
	cfg.Badges.Size = 1024
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for oversized badge")
	}

	cfg = base()
	cfg.Workflow.WorkerCount = 100
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for excessive worker count")
	}

	cfg = base()
	cfg.Logging.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown log format")
	}
}
