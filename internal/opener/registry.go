package opener

import (
	_ "embed"
	"fmt"
	"os"
	"os/exec"
	"slices"

	"github.com/pelletier/go-toml/v2"
)

//go:embed openers.toml
var openersTOML []byte

// Definition describes how an opener command is invoked.
type Definition struct {
	Description string      `toml:"description"`
	Platforms   []string    `toml:"platforms"`
	Page        *TargetArgs `toml:"page,omitempty"`
	Image       *TargetArgs `toml:"image,omitempty"`
}

type TargetArgs struct {
	Args        []string `toml:"args,omitempty"`
	ArgsDarwin  []string `toml:"args_darwin,omitempty"`
	ArgsLinux   []string `toml:"args_linux,omitempty"`
	ArgsWindows []string `toml:"args_windows,omitempty"`
}

type OpenersConfig struct {
	Openers map[string]Definition `toml:"openers"`
}

// Registry holds the built-in opener definitions merged with user overrides.
type Registry struct {
	openers map[string]Definition
	goos    string
}

// NewRegistry loads the embedded definitions for goos.
func NewRegistry(goos string) (*Registry, error) {
	var config OpenersConfig
	if err := toml.Unmarshal(openersTOML, &config); err != nil {
		return nil, fmt.Errorf("parsing openers.toml: %w", err)
	}
	return &Registry{openers: config.Openers, goos: goos}, nil
}

// LoadOverrides merges the definitions in path over the built-in ones.
func (r *Registry) LoadOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var user OpenersConfig
	if err := toml.Unmarshal(data, &user); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	for name, def := range user.Openers {
		r.openers[name] = def
	}
	return nil
}

// Definition returns the named opener, if known.
func (r *Registry) Definition(name string) (Definition, bool) {
	def, ok := r.openers[name]
	return def, ok
}

// Command builds the invocation of opener for a target URL. Unknown openers
// are run with the URL as their only argument.
func (r *Registry) Command(name string, target Target, url string) (*exec.Cmd, error) {
	def, ok := r.openers[name]
	if !ok {
		return exec.Command(name, url), nil
	}
	if !slices.Contains(def.Platforms, r.goos) {
		return nil, fmt.Errorf("%s not supported on %s", name, r.goos)
	}

	var ta *TargetArgs
	switch target {
	case TargetImage:
		ta = def.Image
	default:
		ta = def.Page
	}
	if ta == nil {
		return nil, fmt.Errorf("%s cannot open %s URLs", name, target)
	}

	args := append(slices.Clone(r.args(ta)), url)
	return exec.Command(name, args...), nil
}

func (r *Registry) args(ta *TargetArgs) []string {
	switch r.goos {
	case "darwin":
		if len(ta.ArgsDarwin) > 0 {
			return ta.ArgsDarwin
		}
	case "linux":
		if len(ta.ArgsLinux) > 0 {
			return ta.ArgsLinux
		}
	case "windows":
		if len(ta.ArgsWindows) > 0 {
			return ta.ArgsWindows
		}
	}
	return ta.Args
}
