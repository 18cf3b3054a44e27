package main

import (
	"strings"
	"testing"

	"jabi/internal/config"
)

func TestResolveCodec(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Codec = "cfgcodec"

	tests := []struct {
		name string
		flag string
		env  string
		cfg  *config.Config
		want string
	}{
		{"flag wins over env and config", "flagcodec", "envcodec", cfg, "flagcodec"},
		{"env wins over config", "", "envcodec", cfg, "envcodec"},
		{"config wins over default", "", "", cfg, "cfgcodec"},
		{"default without config", "", "", nil, "stub"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JABI_CODEC", tt.env)
			got := resolveCodec(tt.flag, tt.cfg)
			if got != tt.want {
				t.Errorf("resolveCodec(%q) = %q, want %q", tt.flag, got, tt.want)
			}
		})
	}
}

func TestResolveWorkers(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Workers = 3

	tests := []struct {
		name string
		flag int
		env  string
		cfg  *config.Config
		want int
	}{
		{"flag wins over env and config", 8, "5", cfg, 8},
		{"env wins over config", 0, "5", cfg, 5},
		{"env zero means auto", 0, "0", cfg, 0},
		{"config wins over default", 0, "", cfg, 3},
		{"default without config", 0, "", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JABI_WORKERS", tt.env)
			got, err := resolveWorkers(tt.flag, tt.cfg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("resolveWorkers(%d) = %d, want %d", tt.flag, got, tt.want)
			}
		})
	}
}

func TestResolveWorkersInvalidEnv(t *testing.T) {
	for _, env := range []string{"abc", "-2", "1.5"} {
		t.Run(env, func(t *testing.T) {
			t.Setenv("JABI_WORKERS", env)
			_, err := resolveWorkers(0, nil)
			if err == nil {
				t.Fatalf("expected error for JABI_WORKERS=%q", env)
			}
			if !strings.Contains(err.Error(), "JABI_WORKERS") {
				t.Errorf("error should name the variable, got: %v", err)
			}
		})
	}
}

func TestShortKey(t *testing.T) {
	long := "0123456789abcdef0123456789abcdef"
	if got := shortKey(long); got != "0123456789ab" {
		t.Errorf("shortKey(long) = %q, want %q", got, "0123456789ab")
	}
	if got := shortKey("abc"); got != "abc" {
		t.Errorf("shortKey(short) = %q, want %q", got, "abc")
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Errorf("shortID(long) = %q, want %q", got, "01234567")
	}
	if got := shortID("ab"); got != "ab" {
		t.Errorf("shortID(short) = %q, want %q", got, "ab")
	}
}
