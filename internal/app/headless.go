package app

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"

	"github.com/kobzarvs/htext/internal/buffer"
	"github.com/kobzarvs/htext/internal/config"
	"github.com/kobzarvs/htext/internal/editor"
	"github.com/kobzarvs/htext/internal/logger"
	"github.com/kobzarvs/htext/internal/playback"
)

// Headless runs pretend to be a terminal of this size.
const (
	headlessRows = 24
	headlessCols = 80
)

// Replay feeds events to ed in order. It stops early when the editor asks
// to quit and reports whether it did.
func Replay(ed *editor.Editor, events []playback.Event) (bool, error) {
	for i, ev := range events {
		switch ev.Kind {
		case playback.KindText:
			ed.HandleText(ev.Text)
		case playback.KindKey:
			k, ok := editor.ParseKey(ev.Key)
			if !ok {
				return false, fmt.Errorf("event %d: %w: key %q", i+1, playback.ErrBadEvent, ev.Key)
			}
			if ed.HandleControl(k) {
				return true, nil
			}
		default:
			return false, fmt.Errorf("event %d: %w: kind %q", i+1, playback.ErrBadEvent, ev.Kind)
		}
	}
	return false, nil
}

func (a *App) runHeadless(cfg config.Config) (err error) {
	var events []playback.Event
	if a.opts.Replay != "" {
		events, err = playback.ReadFile(a.opts.Replay)
	} else {
		events, err = playback.Read(a.stdin)
	}
	if err != nil {
		return err
	}

	ed := editor.New(cfg)
	ed.SetGeometry(headlessRows, headlessCols)
	if a.opts.Path != "" {
		if err := ed.Load(a.opts.Path); err != nil {
			return err
		}
	}
	quit, err := Replay(ed, events)
	if err != nil {
		return err
	}
	logger.Info("replay finished", "events", len(events), "quit", quit, "lines", ed.Frame().LineCount())

	var w io.Writer = a.stdout
	if a.opts.Dump != "" {
		var f *os.File
		if f, err = os.Create(a.opts.Dump); err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, f.Close()) }()
		w = f
	}
	return buffer.Dump(ed.Frame(), w)
}
