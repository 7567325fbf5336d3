package bootstrap

import (
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/jobradar/jobradar/config"
	"github.com/jobradar/jobradar/internal/data"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewServicesRequiresDependencies(t *testing.T) {
	if _, err := NewServices(nil); err == nil {
		t.Error("nil deps should be rejected")
	}
	if _, err := NewServices(&ServiceDeps{Config: &config.AppConfig{}}); err == nil {
		t.Error("missing database should be rejected")
	}
}

func TestBuildCacheFallsBackToFile(t *testing.T) {
	cfg := &config.AppConfig{}
	cfg.Cache.Backend = "redis"
	cfg.Cache.Dir = t.TempDir()

	// redis backend without a redis connection degrades to the file cache
	cache := buildCache(&ServiceDeps{Config: cfg}, testLogger())
	if _, ok := cache.(*data.FileCacheRepo); !ok {
		t.Errorf("expected file cache fallback, got %T", cache)
	}
}

func TestBuildSenderWithoutCredentials(t *testing.T) {
	sender, err := buildSender(config.MailConfig{}, testLogger())
	if err != nil {
		t.Fatalf("missing credentials should disable delivery, not error: %v", err)
	}
	if sender != nil {
		t.Error("expected nil sender without SMTP credentials")
	}
}

func TestGetEnabledServices(t *testing.T) {
	cfg := &config.AppConfig{Services: "alert-runner,refresh-runner"}
	got := GetEnabledServices(cfg)
	sort.Strings(got)
	want := []string{"alert-runner", "refresh-runner"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("GetEnabledServices = %v, want %v", got, want)
	}

	if names := GetEnabledServices(&config.AppConfig{Services: "bogus"}); len(names) != 0 {
		t.Errorf("invalid services should yield empty list, got %v", names)
	}
}
