package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func flagSet() *pflag.FlagSet {
	f := pflag.NewFlagSet("qconvert", pflag.ContinueOnError)
	f.Int("depth", -1, "")
	f.String("policy", "", "")
	f.Int("port", 8080, "")
	f.Bool("watch", false, "")
	f.CountP("verbose", "v", "")
	return f
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "none.toml"), nil)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Depth != -1 || cfg.Port != 8080 || cfg.Watch || cfg.Policy != "" {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
}

func TestLoadPriority(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	content := "depth = 2\nport = 9000\npolicy = \"file.toml\"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("QCONVERT_PORT", "9100")

	f := flagSet()
	if err := f.Parse([]string{"--depth", "3", "-vv"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path, f)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Depth != 3 {
		t.Errorf("Expected flag depth 3, got %d", cfg.Depth)
	}
	if cfg.Port != 9100 {
		t.Errorf("Expected env port 9100, got %d", cfg.Port)
	}
	if cfg.Policy != "file.toml" {
		t.Errorf("Expected policy from file, got %q", cfg.Policy)
	}
	if cfg.VerboseCnt != 2 {
		t.Errorf("Expected verbose count 2, got %d", cfg.VerboseCnt)
	}
}

func TestLoadInvalidPort(t *testing.T) {
	t.Setenv("QCONVERT_PORT", "70000")
	if _, err := LoadFile(filepath.Join(t.TempDir(), "none.toml"), nil); err == nil {
		t.Error("Expected error for out of range port")
	}
}
