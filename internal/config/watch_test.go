package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchReloadsOnWrite(t *testing.T) {
	path := writeTempHCL(t, `trainer { preset = "greyscale-2" }`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := make(chan *Config, 16)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(cfg *Config) { changes <- cfg })
	}()

	// A broken write is skipped; keep rewriting until the watcher is
	// registered and reports the good file.
	if err := os.WriteFile(path, []byte(`trainer {`), 0644); err != nil {
		t.Fatal(err)
	}
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	var got *Config
	for got == nil {
		select {
		case cfg := <-changes:
			got = cfg
		case <-tick.C:
			if err := os.WriteFile(path, []byte(`trainer { preset = "red-8" }`), 0644); err != nil {
				t.Fatal(err)
			}
		case <-deadline:
			t.Fatal("no reload within 5s")
		}
	}
	if len(got.Trainer.Presets) != 1 || got.Trainer.Presets[0] != "red-8" {
		t.Errorf("reloaded presets = %v, want [red-8]", got.Trainer.Presets)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatchIgnoresOtherFiles(t *testing.T) {
	path := writeTempHCL(t, `trainer { preset = "greyscale-2" }`)
	other := filepath.Join(filepath.Dir(path), "other.hcl")

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	changes := 0
	go func() {
		for range 5 {
			_ = os.WriteFile(other, []byte(`trainer { preset = "red-8" }`), 0644)
			time.Sleep(20 * time.Millisecond)
		}
	}()
	if err := Watch(ctx, path, func(*Config) { changes++ }); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	if changes != 0 {
		t.Errorf("onChange called %d times for another file", changes)
	}
}

func TestWatchMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "trainer.hcl")
	if err := Watch(context.Background(), path, func(*Config) {}); err == nil {
		t.Error("Watch() on a missing directory succeeded")
	}
}
