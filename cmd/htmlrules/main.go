// Command htmlrules sanitizes HTML documents with the rule sets of an
// editor configuration file.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/cristalhq/acmd"

	"github.com/njchilds90/htmlrules"
)

var commands []acmd.Command

// envConfig holds the settings read from the environment. Command line
// flags take precedence.
type envConfig struct {
	Config   string `env:"HTMLRULES_CONFIG"`
	Editor   string `env:"HTMLRULES_EDITOR"`
	LogLevel string `env:"HTMLRULES_LOG_LEVEL" envDefault:"info"`
	Dev      bool   `env:"HTMLRULES_DEV"`
}

type appFlags struct {
	config   string
	editor   string
	logLevel string
	dev      bool
}

func (f *appFlags) Flags() *flag.FlagSet {
	fs := flag.NewFlagSet("", flag.ContinueOnError)
	fs.StringVar(&f.config, "config", "", "configuration file (default: built-in configurations)")
	fs.StringVar(&f.config, "c", "", "configuration file (shorthand)")
	fs.StringVar(&f.editor, "editor", "", "editor configuration identifier")
	fs.StringVar(&f.editor, "e", "", "editor configuration identifier (shorthand)")
	fs.StringVar(&f.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.BoolVar(&f.dev, "dev", false, "colored development logs")
	return fs
}

// parseFlags parses args with fs. It returns false when the help was
// requested.
func parseFlags(fs *flag.FlagSet, args []string) (bool, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// appPreRun merges the environment into flags, installs the logger and
// loads the registry.
func appPreRun(flags *appFlags) (*htmlrules.Registry, error) {
	cfg, err := env.ParseAs[envConfig]()
	if err != nil {
		return nil, err
	}
	if flags.config == "" {
		flags.config = cfg.Config
	}
	if flags.editor == "" {
		flags.editor = cfg.Editor
	}
	if flags.logLevel == "" {
		flags.logLevel = cfg.LogLevel
	}
	flags.dev = flags.dev || cfg.Dev

	var level slog.Level
	if err := level.UnmarshalText([]byte(flags.logLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", flags.logLevel)
	}
	slog.SetDefault(newLogger(os.Stderr, level, flags.dev))

	reg := htmlrules.DefaultRegistry()
	if flags.config != "" {
		if reg, err = htmlrules.LoadRegistryFile(flags.config); err != nil {
			return nil, err
		}
	}
	reg.SetLogger(slog.Default())
	if flags.editor != "" {
		reg.SetActiveIdentifier(flags.editor)
	}
	return reg, nil
}

func main() {
	r := acmd.RunnerOf(commands, acmd.Config{
		AppName:        "htmlrules",
		AppDescription: "Allow-list HTML sanitizer",
	})
	if err := r.Run(); err != nil {
		r.Exit(err)
	}
}
