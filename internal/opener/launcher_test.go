package opener

import (
	"errors"
	"os/exec"
	"slices"
	"testing"

	"github.com/pders01/kiroku/internal/config"
)

func TestDetector_Detect(t *testing.T) {
	d, err := NewDetector()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		url  string
		want Target
	}{
		{"https://myanimelist.net/anime/5114", TargetPage},
		{"https://myanimelist.net/manga/2", TargetPage},
		{"https://cdn.myanimelist.net/images/anime/1223/96541.jpg", TargetImage},
		{"https://example.com/cover.WEBP?size=large", TargetImage},
		{"https://example.com/index.html#top", TargetPage},
		{"https://example.com/", TargetUnknown},
	}
	for _, tt := range tests {
		if got := d.Detect(tt.url); got != tt.want {
			t.Errorf("Detect(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestDetector_DefaultOpener(t *testing.T) {
	d, err := NewDetector()
	if err != nil {
		t.Fatal(err)
	}
	tests := map[string]string{
		"darwin":  "open",
		"linux":   "xdg-open",
		"windows": "rundll32",
		"plan9":   "xdg-open",
	}
	for goos, want := range tests {
		if got := d.DefaultOpener(goos); got != want {
			t.Errorf("DefaultOpener(%s) = %s, want %s", goos, got, want)
		}
	}
}

func TestPageURLs(t *testing.T) {
	if got := AnimePageURL(5114); got != "https://myanimelist.net/anime/5114" {
		t.Errorf("unexpected anime URL %s", got)
	}
	if got := MangaPageURL(2); got != "https://myanimelist.net/manga/2" {
		t.Errorf("unexpected manga URL %s", got)
	}
}

func TestLauncher_Open(t *testing.T) {
	cfg := config.TestConfig()
	l := newLauncher(cfg, "linux")

	var started *exec.Cmd
	l.start = func(cmd *exec.Cmd) error {
		started = cmd
		return nil
	}

	if err := l.Open("https://myanimelist.net/anime/1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if started == nil {
		t.Fatal("expected a process to be started")
	}
	if !slices.Equal(started.Args, []string{"xdg-open", "https://myanimelist.net/anime/1"}) {
		t.Errorf("unexpected command %v", started.Args)
	}
}

func TestLauncher_ConfiguredCommand(t *testing.T) {
	cfg := config.TestConfig()
	cfg.Opener.Command = "firefox"
	l := newLauncher(cfg, "linux")

	cmd, err := l.Command("https://myanimelist.net/manga/2")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(cmd.Args, []string{"firefox", "--new-tab", "https://myanimelist.net/manga/2"}) {
		t.Errorf("unexpected command %v", cmd.Args)
	}
}

func TestLauncher_RejectsNonWebURLs(t *testing.T) {
	l := newLauncher(config.TestConfig(), "linux")
	l.start = func(*exec.Cmd) error {
		t.Error("nothing should start")
		return nil
	}

	for _, raw := range []string{"", "file:///etc/passwd", "javascript:alert(1)", "https://", "not a url"} {
		if err := l.Open(raw); err == nil {
			t.Errorf("expected %q to be rejected", raw)
		}
	}
}

func TestLauncher_StartFailure(t *testing.T) {
	l := newLauncher(config.TestConfig(), "linux")
	l.start = func(*exec.Cmd) error { return errors.New("boom") }

	if err := l.Open("https://myanimelist.net/anime/1"); err == nil {
		t.Error("expected start error")
	}
}
