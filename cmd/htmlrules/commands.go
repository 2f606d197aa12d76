package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/cristalhq/acmd"

	"github.com/njchilds90/htmlrules"
)

func init() {
	commands = append(commands,
		acmd.Command{
			Name:        "sanitize",
			Description: "Sanitize an HTML document",
			ExecFunc:    runSanitize,
		},
		acmd.Command{
			Name:        "rules",
			Description: "Print the rules of a configuration in the compact grammar",
			ExecFunc:    runRules,
		},
		acmd.Command{
			Name:        "check",
			Description: "Build every configuration and report errors",
			ExecFunc:    runCheck,
		},
		acmd.Command{
			Name:        "configs",
			Description: "List the available configurations",
			ExecFunc:    runConfigs,
		},
	)
}

func runSanitize(_ context.Context, args []string) error {
	var flags appFlags
	fs := flags.Flags()
	// nolint: errcheck
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: sanitize [arguments...] [FILE]")
		fmt.Fprintln(fs.Output(), "  FILE")
		fmt.Fprintln(fs.Output(), "    \tsource file (default: standard input)")
		fs.PrintDefaults()
	}
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}

	reg, err := appPreRun(&flags)
	if err != nil {
		return err
	}

	var r io.Reader = os.Stdin
	if src := strings.TrimSpace(fs.Arg(0)); src != "" {
		fd, err := os.Open(src)
		if err != nil {
			return err
		}
		defer fd.Close() //nolint:errcheck
		r = fd
	}

	s, err := reg.Sanitizer("", htmlrules.WithLogger(slog.Default()))
	if err != nil {
		return err
	}
	res, err := htmlrules.SanitizeReader(r, s)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, res)
	return err
}

func runRules(_ context.Context, args []string) error {
	var flags appFlags
	fs := flags.Flags()
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}

	reg, err := appPreRun(&flags)
	if err != nil {
		return err
	}
	cfg, err := reg.Active()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, strings.ReplaceAll(cfg.RuleSet.String(), ",", ",\n"))
	return err
}

func runCheck(_ context.Context, args []string) error {
	var flags appFlags
	fs := flags.Flags()
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}

	reg, err := appPreRun(&flags)
	if err != nil {
		return err
	}

	failed := 0
	for _, id := range reg.Identifiers() {
		cfg, err := reg.Get(id)
		if err != nil {
			slog.Error("invalid configuration", slog.String("config", id), slog.Any("err", err))
			failed++
			continue
		}
		slog.Info("configuration ok",
			slog.String("config", id),
			slog.Int("elements", len(cfg.RuleSet.ElementRules())),
		)
	}
	if failed > 0 {
		return fmt.Errorf("%d invalid configuration(s)", failed)
	}
	return nil
}

func runConfigs(_ context.Context, args []string) error {
	var flags appFlags
	fs := flags.Flags()
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}

	reg, err := appPreRun(&flags)
	if err != nil {
		return err
	}

	names := reg.AvailableConfigs()
	active := reg.ActiveIdentifier()
	for _, id := range reg.Identifiers() {
		mark := " "
		if id == active {
			mark = "*"
		}
		if _, err := fmt.Fprintf(os.Stdout, "%s %-12s %s\n", mark, id, names[id]); err != nil {
			return err
		}
	}
	return nil
}
