package editor

// keyState is the position of a KeyMachine in the [digits]op1[op2] grammar.
type keyState int

const (
	stateRepetitions keyState = iota
	stateOperator
	stateDone
)

// MaxCount caps the numeric prefix of a normal-mode command.
const MaxCount = 1 << 20

// Command is a complete normal-mode command: Op is op1 or op1+op2.
type Command struct {
	Count int
	Op    string
}

// KeyMachine accumulates normal-mode keys until they form a Command.
type KeyMachine struct {
	state keyState
	count int
	op    []byte
	keys  []byte
	stamp uint32
}

// pendingOperator reports whether op1 waits for a second key.
func pendingOperator(b byte) bool {
	return b == 'd' || b == 'g'
}

// Feed consumes one key. It returns the finished command and true once the
// grammar is satisfied; the machine is then ready for the next command.
func (m *KeyMachine) Feed(b byte) (Command, bool) {
	m.keys = append(m.keys, b)
	m.stamp++

	if m.state == stateRepetitions && b >= '0' && b <= '9' {
		if m.count < MaxCount {
			m.count = min(m.count*10+int(b-'0'), MaxCount)
		}
		return Command{}, false
	}

	m.op = append(m.op, b)
	switch m.state {
	case stateRepetitions:
		if pendingOperator(b) {
			m.state = stateOperator
			return Command{}, false
		}
		m.state = stateDone
	case stateOperator:
		m.state = stateDone
	}

	cmd := Command{Count: max(m.count, 1), Op: string(m.op)}
	m.Reset()
	return cmd, true
}

// Reset drops any partial command.
func (m *KeyMachine) Reset() {
	m.state = stateRepetitions
	m.count = 0
	m.op = m.op[:0]
	m.keys = m.keys[:0]
	m.stamp++
}

// Pending returns the keys typed towards the current command.
func (m *KeyMachine) Pending() string { return string(m.keys) }

// Stamp changes whenever Pending may have changed.
func (m *KeyMachine) Stamp() uint32 { return m.stamp }
