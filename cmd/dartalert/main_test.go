package main

import (
	"errors"
	"testing"

	"github.com/shanehull/dartalert/internal/config"
)

func TestFatalClosesBeforeExit(t *testing.T) {
	var calls []string
	defer func(orig func(int)) { exit = orig }(exit)
	exit = func(code int) { calls = append(calls, "exit") }

	fatal(func() { calls = append(calls, "close") }, "Fatal error during scan: %v", errors.New("dart down"))

	if len(calls) != 2 || calls[0] != "close" || calls[1] != "exit" {
		t.Errorf("calls = %v, want close then exit", calls)
	}
}

func TestBuildDispatcher_ConsoleOnly(t *testing.T) {
	d, closeRoutes, err := buildDispatcher(config.Default())
	if err != nil {
		t.Fatalf("buildDispatcher: %v", err)
	}
	defer closeRoutes()

	routes := d.Routes()
	if len(routes) != 1 || routes[0] != "console" {
		t.Errorf("routes = %v, want [console]", routes)
	}
}

func TestBuildDispatcher_TelegramAndEmail(t *testing.T) {
	cfg := config.Default()
	cfg.Telegram.Token = "123:abc"
	cfg.Email.SMTPUser = "me@example.com"
	cfg.Email.SMTPPass = "secret"
	cfg.Email.ToEmail = "you@example.com"

	d, closeRoutes, err := buildDispatcher(cfg)
	if err != nil {
		t.Fatalf("buildDispatcher: %v", err)
	}
	defer closeRoutes()

	want := []string{"console", "telegram", "email"}
	got := d.Routes()
	if len(got) != len(want) {
		t.Fatalf("routes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("routes = %v, want %v", got, want)
		}
	}
}
