package configsembed

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"ticktrace/internal/demo"
)

func TestExampleMatchesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ticktrace.toml")
	if err := os.WriteFile(path, Example(), 0o600); err != nil {
		t.Fatalf("write example: %v", err)
	}
	cfg, err := demo.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(cfg, demo.Default()) {
		t.Fatalf("example config drifted from the defaults:\n got %+v\nwant %+v", cfg, demo.Default())
	}
}

func TestExampleReturnsACopy(t *testing.T) {
	a := Example()
	a[0] = '!'
	if b := Example(); b[0] == '!' {
		t.Fatalf("Example must not expose the embedded backing array")
	}
}
