package buffer

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

// ErrInvalidByte is returned by Load for input the buffer cannot hold.
var ErrInvalidByte = errors.New("unsupported byte")

// InvalidByteError locates the first rejected byte of a Load.
type InvalidByteError struct {
	Offset int
	Byte   byte
}

func (e *InvalidByteError) Error() string {
	return fmt.Sprintf("%v %#x at offset %d", ErrInvalidByte, e.Byte, e.Offset)
}

func (e *InvalidByteError) Unwrap() error { return ErrInvalidByte }

// LoadOptions controls how file bytes are framed into lines.
type LoadOptions struct {
	// TabWidth > 0 expands tabs to spaces up to the next tab stop.
	// With 0 a tab is rejected like any other control byte.
	TabWidth int
}

// Load replaces the frame contents with data. A '\r' directly before '\n'
// is dropped. The input is validated before the frame is touched, so a
// rejected load leaves the frame as it was.
func Load(f *Frame, data []byte, opt LoadOptions) error {
	if err := validate(data, opt); err != nil {
		return err
	}

	f.Clear()
	var spaces []byte
	if opt.TabWidth > 0 {
		spaces = bytes.Repeat([]byte{' '}, opt.TabWidth)
	}
	for len(data) > 0 {
		i := bytes.IndexAny(data, "\n\r\t")
		if i < 0 {
			f.InsertText(data)
			break
		}
		f.InsertText(data[:i])
		switch data[i] {
		case '\n':
			f.InsertNewLine()
		case '\t':
			f.InsertText(spaces[:opt.TabWidth-f.cur.Column%opt.TabWidth])
		}
		data = data[i+1:]
	}
	f.ResetCursor()
	f.verify("load")
	return nil
}

func validate(data []byte, opt LoadOptions) error {
	for i, b := range data {
		switch {
		case printable(b), b == '\n':
		case b == '\t' && opt.TabWidth > 0:
		case b == '\r' && i+1 < len(data) && data[i+1] == '\n':
		default:
			return &InvalidByteError{Offset: i, Byte: b}
		}
	}
	return nil
}

// Dump writes every line followed by a single '\n'.
func Dump(f *Frame, w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, id := range f.Lines() {
		if _, err := bw.Write(f.Text(id)); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Content returns the dumped form of f.
func Content(f *Frame) string {
	var sb bytes.Buffer
	_ = Dump(f, &sb)
	return sb.String()
}
