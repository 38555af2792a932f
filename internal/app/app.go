package app

import (
	"io"
	"os"
	"runtime"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/multierr"
	"golang.org/x/term"

	"github.com/kobzarvs/htext/internal/buffer"
	"github.com/kobzarvs/htext/internal/config"
	"github.com/kobzarvs/htext/internal/editor"
	"github.com/kobzarvs/htext/internal/logger"
	"github.com/kobzarvs/htext/internal/playback"
	"github.com/kobzarvs/htext/internal/session"
	"github.com/kobzarvs/htext/internal/treesitter"
)

// Options are the command line settings of one run.
type Options struct {
	// Path is loaded before the first key.
	Path string
	// Replay feeds a recording instead of a terminal.
	Replay string
	// Dump receives the buffer after a headless run. Empty means stdout.
	Dump string
	// Record overrides the record path from config.toml.
	Record string
}

// App is the top-level runtime for htext.
type App struct {
	opts   Options
	stdin  io.Reader
	stdout io.Writer
}

func New(opts Options) *App {
	return &App{opts: opts, stdin: os.Stdin, stdout: os.Stdout}
}

// Headless reports whether the run replays events instead of driving a
// terminal. That is the case with --replay or when stdout is not a tty.
func (a *App) Headless() bool {
	if a.opts.Replay != "" {
		return true
	}
	f, ok := a.stdout.(*os.File)
	return !ok || !term.IsTerminal(int(f.Fd()))
}

func (a *App) Run() (err error) {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Editor.Debug); err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, logger.Close()) }()
	buffer.Checks = cfg.Editor.IntegrityChecks

	if a.Headless() {
		return a.runHeadless(cfg)
	}
	return a.runInteractive(cfg)
}

func (a *App) runInteractive(cfg config.Config) (err error) {
	runtime.LockOSThread()
	langs, err := config.LoadLanguages()
	if err != nil {
		return err
	}

	s, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := s.Init(); err != nil {
		return err
	}
	defer s.Fini()

	ts := treesitter.New(langs)
	if err := ts.Start(); err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, ts.Stop()) }()

	ed := editor.New(cfg)
	sm, serr := session.NewManager()
	if serr != nil {
		logger.Warn("session unavailable", "error", serr)
	} else {
		ed.SetSession(sm)
		defer func() { err = multierr.Append(err, sm.Stop()) }()
	}
	// Runs before sm.Stop so the final position is saved.
	defer ed.Shutdown()

	if path := a.recordPath(cfg); path != "" {
		rec, rerr := playback.Create(path)
		if rerr != nil {
			return rerr
		}
		ed.SetRecorder(rec)
		defer func() { err = multierr.Append(err, rec.Close()) }()
		logger.Info("recording keys", "path", path)
	}

	w, h := s.Size()
	ed.SetGeometry(h, w)
	if a.opts.Path != "" {
		if err := ed.Load(a.opts.Path); err != nil {
			return err
		}
	}

	hl := newHighlighter(ts)
	hl.update(ed)
	ed.Render(s)
	for {
		switch ev := s.PollEvent().(type) {
		case nil:
			return nil
		case *tcell.EventKey:
			if ed.HandleKey(ev) {
				return nil
			}
		case *tcell.EventResize:
			s.Sync()
		}
		hl.update(ed)
		ed.Render(s)
	}
}

func (a *App) recordPath(cfg config.Config) string {
	if a.opts.Record != "" {
		return a.opts.Record
	}
	return cfg.Editor.Record
}
