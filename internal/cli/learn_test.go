package cli

import (
	"path/filepath"
	"testing"

	"github.com/AWolf81/memory-lane/internal/config"
)

func TestExcludedInput(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), config.DirName))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	cases := []struct {
		path string
		want bool
	}{
		{"session.txt", false},
		{"notes/transcript.log", false},
		{".env", true},
		{"deploy.key", true},
		{"server.pem", true},
		{"ops/secrets/session.txt", true},
		{"vendor/node_modules/pkg/readme.txt", true},
	}
	for _, c := range cases {
		if got := excludedInput(cfg, c.path); got != c.want {
			t.Errorf("excludedInput(%q): expected %v, got %v", c.path, c.want, got)
		}
	}
}

func TestExcludedInputAbsolutePathUnderCwd(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), config.DirName))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	// Absolute paths are also matched relative to the working directory,
	// so `learn --file $PWD/secrets/dump.txt` is still refused.
	wd, err := filepath.Abs(".")
	if err != nil {
		t.Fatalf("abs: %v", err)
	}
	if !excludedInput(cfg, filepath.Join(wd, "secrets", "dump.txt")) {
		t.Error("expected absolute path under an excluded directory to match")
	}
}
