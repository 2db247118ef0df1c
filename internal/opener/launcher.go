package opener

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"

	"github.com/pders01/kiroku/internal/config"
	"github.com/pders01/kiroku/internal/debuglog"
)

const siteURL = "https://myanimelist.net"

// AnimePageURL is the public web page of an anime.
func AnimePageURL(id int) string { return fmt.Sprintf("%s/anime/%d", siteURL, id) }

// MangaPageURL is the public web page of a manga.
func MangaPageURL(id int) string { return fmt.Sprintf("%s/manga/%d", siteURL, id) }

// Launcher opens URLs in the user's browser or image viewer.
type Launcher struct {
	command  string
	registry *Registry
	detector *Detector
	start    func(*exec.Cmd) error
}

func NewLauncher(cfg *config.Config) *Launcher {
	return newLauncher(cfg, runtime.GOOS)
}

func newLauncher(cfg *config.Config, goos string) *Launcher {
	registry, err := NewRegistry(goos)
	if err != nil {
		debuglog.Warnf("opener definitions: %v", err)
		registry = &Registry{openers: make(map[string]Definition), goos: goos}
	}
	if cfg.Opener.Overrides != "" {
		if err := registry.LoadOverrides(cfg.Opener.Overrides); err != nil {
			debuglog.Warnf("opener overrides: %v", err)
		}
	}

	detector, err := NewDetector()
	if err != nil {
		debuglog.Warnf("opener targets: %v", err)
		detector = &Detector{config: &TargetsConfig{}}
	}

	command := cfg.Opener.Command
	if command == "" {
		command = detector.DefaultOpener(goos)
	}

	return &Launcher{
		command:  command,
		registry: registry,
		detector: detector,
		start:    startDetached,
	}
}

// Command returns the process Open would start for raw.
func (l *Launcher) Command(raw string) (*exec.Cmd, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("refusing to open %q: not a web URL", raw)
	}
	target := l.detector.Detect(u.String())
	return l.registry.Command(l.command, target, u.String())
}

// Open starts the opener for raw without waiting for it to exit.
func (l *Launcher) Open(raw string) error {
	cmd, err := l.Command(raw)
	if err != nil {
		return err
	}
	if err := l.start(cmd); err != nil {
		return fmt.Errorf("failed to start %s: %w", l.command, err)
	}
	debuglog.Debugf("opened %s with %s", raw, l.command)
	return nil
}

func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}
