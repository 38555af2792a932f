package editor

import (
	"strconv"
	"testing"
)

func feed(m *KeyMachine, keys string) (Command, bool) {
	var cmd Command
	var ok bool
	for i := 0; i < len(keys); i++ {
		cmd, ok = m.Feed(keys[i])
		if ok && i != len(keys)-1 {
			return cmd, false
		}
	}
	return cmd, ok
}

func TestKeyMachineGrammar(t *testing.T) {
	tests := []struct {
		keys string
		want Command
	}{
		{"l", Command{Count: 1, Op: "l"}},
		{"3l", Command{Count: 3, Op: "l"}},
		{"12j", Command{Count: 12, Op: "j"}},
		{"dd", Command{Count: 1, Op: "dd"}},
		{"2dd", Command{Count: 2, Op: "dd"}},
		{"gg", Command{Count: 1, Op: "gg"}},
		{"G", Command{Count: 1, Op: "G"}},
		{"0l", Command{Count: 1, Op: "l"}},
		{"dx", Command{Count: 1, Op: "dx"}},
		{":", Command{Count: 1, Op: ":"}},
	}
	for _, tt := range tests {
		var m KeyMachine
		got, ok := feed(&m, tt.keys)
		if !ok {
			t.Fatalf("%q: no command", tt.keys)
		}
		if got != tt.want {
			t.Fatalf("%q = %+v, want %+v", tt.keys, got, tt.want)
		}
		if m.Pending() != "" {
			t.Fatalf("%q: pending = %q after command", tt.keys, m.Pending())
		}
	}
}

func TestKeyMachinePending(t *testing.T) {
	var m KeyMachine
	for _, b := range []byte("12d") {
		if _, ok := m.Feed(b); ok {
			t.Fatalf("command after %q", b)
		}
	}
	if got := m.Pending(); got != "12d" {
		t.Fatalf("pending = %q, want %q", got, "12d")
	}
	stamp := m.Stamp()
	m.Reset()
	if m.Pending() != "" {
		t.Fatalf("pending after reset = %q", m.Pending())
	}
	if m.Stamp() == stamp {
		t.Fatalf("stamp unchanged after reset")
	}
}

func TestKeyMachineDigitsAfterOperatorAreOp2(t *testing.T) {
	var m KeyMachine
	got, ok := feed(&m, "d3")
	if !ok || got.Op != "d3" {
		t.Fatalf("d3 = %+v, %v, want op d3", got, ok)
	}
}

func TestKeyMachineCountSaturates(t *testing.T) {
	var m KeyMachine
	got, ok := feed(&m, "99999999999999999999l")
	if !ok {
		t.Fatalf("no command")
	}
	if got.Count != MaxCount {
		t.Fatalf("count = %d, want %d", got.Count, MaxCount)
	}

	m.Reset()
	got, _ = feed(&m, strconv.Itoa(MaxCount-1)+"l")
	if got.Count != MaxCount-1 {
		t.Fatalf("count = %d, want %d", got.Count, MaxCount-1)
	}
}
