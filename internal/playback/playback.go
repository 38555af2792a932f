// Package playback records host key events as JSON lines and reads them back
// for headless replay.
package playback

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"
)

const (
	KindText = "text"
	KindKey  = "key"
)

// Event is one recorded key event: printable text, or a named control key.
type Event struct {
	Kind string `json:"kind"`
	Text string `json:"text,omitempty"`
	Key  string `json:"key,omitempty"`
}

// ErrBadEvent is returned for a recording line that is not a known event.
var ErrBadEvent = errors.New("bad playback event")

// Recorder appends events to a writer, flushing after each one so a crash
// keeps everything typed so far.
type Recorder struct {
	w      *bufio.Writer
	enc    *json.Encoder
	closer io.Closer
}

func NewRecorder(w io.Writer) *Recorder {
	bw := bufio.NewWriter(w)
	return &Recorder{w: bw, enc: json.NewEncoder(bw)}
}

// Create truncates path and records into it.
func Create(path string) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	r := NewRecorder(f)
	r.closer = f
	return r, nil
}

func (r *Recorder) Text(s string) error {
	return r.write(Event{Kind: KindText, Text: s})
}

func (r *Recorder) Key(name string) error {
	return r.write(Event{Kind: KindKey, Key: name})
}

func (r *Recorder) write(ev Event) error {
	if err := r.enc.Encode(ev); err != nil {
		return err
	}
	return r.w.Flush()
}

func (r *Recorder) Close() error {
	err := r.w.Flush()
	if r.closer != nil {
		err = multierr.Append(err, r.closer.Close())
		r.closer = nil
	}
	return err
}

// Read decodes every event of a recording. Blank lines are skipped.
func Read(rd io.Reader) ([]Event, error) {
	var events []Event
	sc := bufio.NewScanner(rd)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			return events, fmt.Errorf("line %d: %w", line, err)
		}
		if err := ev.validate(); err != nil {
			return events, fmt.Errorf("line %d: %w", line, err)
		}
		events = append(events, ev)
	}
	return events, sc.Err()
}

// ReadFile reads the recording stored at path.
func ReadFile(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

func (ev Event) validate() error {
	switch {
	case ev.Kind == KindText && ev.Text != "":
		return nil
	case ev.Kind == KindKey && ev.Key != "":
		return nil
	}
	return fmt.Errorf("%w: kind %q", ErrBadEvent, ev.Kind)
}

// Transcript prints events the way they were typed: text verbatim, control
// keys as [name], with a line break after every enter.
func Transcript(w io.Writer, events []Event) error {
	bw := bufio.NewWriter(w)
	for _, ev := range events {
		switch ev.Kind {
		case KindText:
			bw.WriteString(ev.Text)
		case KindKey:
			bw.WriteString("[" + ev.Key + "] ")
			if ev.Key == "enter" {
				bw.WriteByte('\n')
			}
		}
	}
	return bw.Flush()
}
