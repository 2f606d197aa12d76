package main

import (
	"io"
	"log/slog"

	console "github.com/phsym/console-slog"
)

// palette is a console theme where every level has one color and the
// rest of a line is either dimmed or emphasized. The zero value prints
// without colors.
type palette struct {
	none   console.ANSIMod
	dim    console.ANSIMod
	strong console.ANSIMod
	key    console.ANSIMod
	levels map[slog.Level]console.ANSIMod
}

func newPalette() palette {
	return palette{
		none:   console.ToANSICode(),
		dim:    console.ToANSICode(console.Faint),
		strong: console.ToANSICode(console.Bold),
		key:    console.ToANSICode(console.Blue),
		levels: map[slog.Level]console.ANSIMod{
			slog.LevelDebug: console.ToANSICode(console.Magenta),
			slog.LevelInfo:  console.ToANSICode(console.Bold, console.Cyan),
			slog.LevelWarn:  console.ToANSICode(console.Bold, console.Yellow),
			slog.LevelError: console.ToANSICode(console.Bold, console.Red),
		},
	}
}

func (p palette) Name() string                    { return "htmlrules" }
func (p palette) Timestamp() console.ANSIMod      { return p.dim }
func (p palette) Source() console.ANSIMod         { return p.dim }
func (p palette) Message() console.ANSIMod        { return p.strong }
func (p palette) MessageDebug() console.ANSIMod   { return p.none }
func (p palette) AttrKey() console.ANSIMod        { return p.key }
func (p palette) AttrValue() console.ANSIMod      { return p.none }
func (p palette) AttrValueError() console.ANSIMod { return p.levels[slog.LevelError] }
func (p palette) LevelError() console.ANSIMod     { return p.levels[slog.LevelError] }
func (p palette) LevelWarn() console.ANSIMod      { return p.levels[slog.LevelWarn] }
func (p palette) LevelInfo() console.ANSIMod      { return p.levels[slog.LevelInfo] }
func (p palette) LevelDebug() console.ANSIMod     { return p.levels[slog.LevelDebug] }

// Level rounds level down to the closest known one.
func (p palette) Level(level slog.Level) console.ANSIMod {
	for _, l := range []slog.Level{slog.LevelError, slog.LevelWarn, slog.LevelInfo} {
		if level >= l {
			return p.levels[l]
		}
	}
	return p.levels[slog.LevelDebug]
}

// newLogger returns a console logger writing to w. In dev mode, records
// are colored and carry their source.
func newLogger(w io.Writer, level slog.Level, dev bool) *slog.Logger {
	opts := &console.HandlerOptions{
		Level:   level,
		NoColor: true,
		Theme:   palette{},
	}
	if dev {
		opts.AddSource = true
		opts.NoColor = false
		opts.Theme = newPalette()
	}
	return slog.New(console.NewHandler(w, opts))
}
