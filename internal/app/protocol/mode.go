package protocol

// Telnet command bytes.
const (
	IAC  byte = 255
	DONT byte = 254
	DO   byte = 253
	WONT byte = 252
	WILL byte = 251

	OptEcho byte = 1
	OptSGA  byte = 3
)

// Mode is the terminal mode preset a session is in.
type Mode int

const (
	// Navigation: server echoes (client stops echoing), character-at-a-time.
	Navigation Mode = iota
	// LineInput: client echoes and buffers whole lines.
	LineInput
	// SecretLineInput: nothing echoes, client buffers whole lines.
	SecretLineInput
)

var modeSequences = map[Mode][]byte{
	Navigation:      {IAC, WILL, OptEcho, IAC, WILL, OptSGA},
	LineInput:       {IAC, WONT, OptEcho, IAC, WONT, OptSGA},
	SecretLineInput: {IAC, WILL, OptEcho, IAC, WONT, OptSGA},
}

// Sequence returns the two IAC sequences that put the client into m.
// The returned slice is a fresh copy.
func (m Mode) Sequence() []byte {
	seq, ok := modeSequences[m]
	if !ok {
		seq = modeSequences[Navigation]
	}
	return append([]byte(nil), seq...)
}

// TextEntry reports whether keystrokes accumulate into pending text.
func (m Mode) TextEntry() bool {
	return m == LineInput || m == SecretLineInput
}

func (m Mode) String() string {
	switch m {
	case LineInput:
		return "line_input"
	case SecretLineInput:
		return "secret_line_input"
	default:
		return "navigation"
	}
}
