package protocol

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

const (
	keyEsc         = 27
	keyBracket     = 91
	keyEnter       = 13
	keyTab         = '\t'
	keyDelete      = 127
	keyCtrlH       = 8
	keySpace       = 32
	keyCtrlC       = 3
	firstPrintable = 33
	lastPrintable  = 126
)

// byteEvents is shared by the first byte of a plain chunk and the final byte
// of an ESC [ X sequence.
var byteEvents = map[byte]Event{
	3:   Exit,
	13:  Enter,
	14:  CtrlN,
	17:  CtrlQ,
	65:  UpArrow,
	66:  DownArrow,
	99:  KeyC,
	104: KeyH,
	110: KeyN,
	114: KeyR,
	115: KeyS,
}

var escapeEvents = map[byte]Event{
	67: RightArrow,
	68: LeftArrow,
}

// Decode maps one raw input chunk to an Event. Only the leading bytes matter;
// anything unrecognised is Unknown and never an error.
func Decode(buf []byte) Event {
	if len(buf) == 0 {
		return Unknown
	}

	if IsEscapeSequence(buf) {
		if ev, ok := escapeEvents[buf[2]]; ok {
			return ev
		}
		if ev, ok := byteEvents[buf[2]]; ok {
			return ev
		}
		return Unknown
	}

	switch buf[0] {
	case keyEnter:
		return Enter
	case keyTab:
		return Tab
	case keyEsc:
		return NavigateView
	case keyDelete, keyCtrlH:
		return Backspace
	case keySpace:
		return SpaceBar
	case keyCtrlC:
		return Exit
	}

	if ev, ok := byteEvents[buf[0]]; ok {
		return ev
	}
	if buf[0] >= firstPrintable && buf[0] <= lastPrintable {
		return Char
	}
	return Unknown
}

// DecodeFor is Decode adjusted for the current mode: while text is being
// entered a bare 'A' or 'B' is a letter, not an arrow.
func DecodeFor(mode Mode, buf []byte) Event {
	ev := Decode(buf)
	if mode.TextEntry() && ev.IsArrow() && !IsEscapeSequence(buf) {
		return Char
	}
	return ev
}

// IsEscapeSequence reports whether buf starts with ESC [.
func IsEscapeSequence(buf []byte) bool {
	return len(buf) >= 3 && buf[0] == keyEsc && buf[1] == keyBracket
}

// IsLineSubmission reports whether buf carries text followed by a line
// terminator, as sent by clients doing their own line editing.
func IsLineSubmission(buf []byte) bool {
	buf = bytes.TrimRight(buf, "\x00")
	if len(buf) < 2 || buf[0] < keySpace || buf[0] == keyDelete {
		return false
	}
	return bytes.IndexAny(buf[1:], "\r\n") >= 0
}

// CleanText strips NUL padding, rejects invalid UTF-8 and trims surrounding whitespace.
func CleanText(buf []byte) string {
	cleaned := bytes.ReplaceAll(buf, []byte{0}, nil)
	if !utf8.Valid(cleaned) {
		return ""
	}
	return strings.TrimSpace(string(cleaned))
}

// PrintableASCII keeps only the characters 0x20 through 0x7e of s.
func PrintableASCII(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] >= keySpace && s[i] <= lastPrintable {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// StripIAC removes telnet option negotiation (IAC WILL/WONT/DO/DONT opt and
// two-byte IAC commands) that clients send in reply to mode changes.
func StripIAC(buf []byte) []byte {
	if bytes.IndexByte(buf, IAC) < 0 {
		return buf
	}

	out := make([]byte, 0, len(buf))
	for i := 0; i < len(buf); i++ {
		if buf[i] != IAC {
			out = append(out, buf[i])
			continue
		}
		if i+1 >= len(buf) {
			break
		}
		switch buf[i+1] {
		case IAC:
			out = append(out, IAC)
			i++
		case WILL, WONT, DO, DONT:
			i += 2
		default:
			i++
		}
	}
	return out
}

// EncodeScreen converts rendered text to wire bytes, normalising bare LF to CRLF.
func EncodeScreen(screen string) []byte {
	var b bytes.Buffer
	b.Grow(len(screen) + 16)
	for i := 0; i < len(screen); i++ {
		if screen[i] == '\n' && (i == 0 || screen[i-1] != '\r') {
			b.WriteByte('\r')
		}
		b.WriteByte(screen[i])
	}
	return b.Bytes()
}
