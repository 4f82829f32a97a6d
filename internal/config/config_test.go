package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Default()

	if cfg.Tool.Binary != "demucs" {
		t.Errorf("Tool.Binary = %q, want demucs", cfg.Tool.Binary)
	}
	if cfg.Tool.ModelDir != "htdemucs" {
		t.Errorf("Tool.ModelDir = %q, want htdemucs", cfg.Tool.ModelDir)
	}
	if cfg.Defaults.Stem != "Drums" {
		t.Errorf("Defaults.Stem = %q, want Drums", cfg.Defaults.Stem)
	}
	if !cfg.Notifications.Desktop {
		t.Error("desktop notifications should be enabled by default")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Tool.Binary != "demucs" {
		t.Errorf("Tool.Binary = %q, want demucs", cfg.Tool.Binary)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")

	content := `
[tool]
binary = "python"
args = ["-m", "demucs"]
model_dir = "mdx_extra"

[defaults]
stem = "vocals"
output_dir = "/music/stems"

[log]
level = "debug"
format = "json"

[watch]
debounce = "500ms"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Tool.Binary != "python" {
		t.Errorf("Tool.Binary = %q, want python", cfg.Tool.Binary)
	}
	if len(cfg.Tool.Args) != 2 || cfg.Tool.Args[1] != "demucs" {
		t.Errorf("Tool.Args = %v, want [-m demucs]", cfg.Tool.Args)
	}
	if cfg.Tool.ModelDir != "mdx_extra" {
		t.Errorf("Tool.ModelDir = %q, want mdx_extra", cfg.Tool.ModelDir)
	}
	if cfg.DefaultStemLabel() != "Vocals" {
		t.Errorf("DefaultStemLabel() = %q, want Vocals", cfg.DefaultStemLabel())
	}
	if cfg.Defaults.OutputDir != "/music/stems" {
		t.Errorf("Defaults.OutputDir = %q", cfg.Defaults.OutputDir)
	}
	d, err := cfg.DebounceDuration()
	if err != nil || d != 500*time.Millisecond {
		t.Errorf("DebounceDuration() = %v, %v; want 500ms", d, err)
	}
	// Unset keys keep their defaults
	if !cfg.Notifications.Desktop {
		t.Error("Notifications.Desktop should keep its default")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad toml", "[tool\nbinary = "},
		{"unknown stem", "[defaults]\nstem = \"piano\""},
		{"bad debounce", "[watch]\ndebounce = \"soon\""},
		{"bad log format", "[log]\nformat = \"xml\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Defaults.Stem = "Bass"
	cfg.Defaults.OutputDir = "/tmp/out"
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Defaults.Stem != "Bass" || loaded.Defaults.OutputDir != "/tmp/out" {
		t.Errorf("loaded defaults = %+v", loaded.Defaults)
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		input string
		want  string
	}{
		{"~/test", filepath.Join(home, "test")},
		{"/absolute/path", "/absolute/path"},
		{"relative", "relative"},
		{"", ""},
	}

	for _, tt := range tests {
		got := ExpandPath(tt.input)
		if got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestDefaultConfigPath_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STEM_SPLITTER_CONFIG_DIR", dir)

	if got := DefaultConfigPath(); got != filepath.Join(dir, "config.toml") {
		t.Errorf("DefaultConfigPath() = %q", got)
	}
}
