package config

import "testing"

func TestListenAddr(t *testing.T) {
	cfg := Config{Port: 9090}
	if got, want := cfg.ListenAddr(), "0.0.0.0:9090"; got != want {
		t.Errorf("ListenAddr() = %q, want %q", got, want)
	}
	cfg.ListenLocalhost = true
	if got, want := cfg.ListenAddr(), "127.0.0.1:9090"; got != want {
		t.Errorf("ListenAddr() = %q, want %q", got, want)
	}
}
