package protocol

import (
	"bytes"
	"testing"
)

func frame(b ...byte) []byte {
	buf := make([]byte, 30)
	copy(buf, b)
	return buf
}

func TestDecodeTable(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		want Event
	}{
		{"up arrow", frame(27, 91, 65), UpArrow},
		{"down arrow", frame(27, 91, 66), DownArrow},
		{"right arrow", frame(27, 91, 67), RightArrow},
		{"escaped letter", frame(27, 91, 115), KeyS},
		{"enter", frame(13, 0), Enter},
		{"enter crlf", frame(13, 10), Enter},
		{"tab", frame(9), Tab},
		{"lone escape", frame(27), NavigateView},
		{"backspace", frame(127), Backspace},
		{"space", frame(32), SpaceBar},
		{"ctrl c", frame(3), Exit},
		{"ctrl n", frame(14), CtrlN},
		{"ctrl q", frame(17), CtrlQ},
		{"h", frame('h'), KeyH},
		{"n", frame('n'), KeyN},
		{"s", frame('s'), KeyS},
		{"c", frame('c'), KeyC},
		{"r", frame('r'), KeyR},
		{"bare A", frame('A'), UpArrow},
		{"bare B", frame('B'), DownArrow},
		{"printable", frame('x'), Char},
		{"control", frame(1), Unknown},
		{"empty", nil, Unknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Decode(tc.in); got != tc.want {
				t.Fatalf("Decode(%v) = %v, want %v", tc.in[:min(len(tc.in), 3)], got, tc.want)
			}
		})
	}
}

func TestDecodeForTreatsBareLettersAsText(t *testing.T) {
	if got := DecodeFor(LineInput, frame('A', 'l', 'i')); got != Char {
		t.Fatalf("expected Char in line input, got %v", got)
	}
	if got := DecodeFor(LineInput, frame(27, 91, 65)); got != UpArrow {
		t.Fatalf("expected real arrow to survive, got %v", got)
	}
	if got := DecodeFor(Navigation, frame('A')); got != UpArrow {
		t.Fatalf("expected navigation mode to keep the table, got %v", got)
	}
}

func TestCleanText(t *testing.T) {
	if got := CleanText(frame(' ', 'a', 'l', 'i', 'c', 'e', '\r', '\n')); got != "alice" {
		t.Fatalf("unexpected cleaned text %q", got)
	}
	if got := CleanText([]byte("already clean")); got != "already clean" {
		t.Fatalf("clean text must be identity on clean input, got %q", got)
	}
	if got := CleanText([]byte{0xff, 0xfe, 'a'}); got != "" {
		t.Fatalf("invalid UTF-8 must clean to empty, got %q", got)
	}
	if got := CleanText(frame()); got != "" {
		t.Fatalf("all-NUL frame must clean to empty, got %q", got)
	}
}

func TestIsLineSubmission(t *testing.T) {
	if !IsLineSubmission(frame('h', 'i', '\r', '\n')) {
		t.Fatalf("expected text+CRLF to be a line submission")
	}
	if IsLineSubmission(frame('h')) {
		t.Fatalf("single key is not a line submission")
	}
	if IsLineSubmission(frame(13, 10)) {
		t.Fatalf("bare enter is not a line submission")
	}
	if IsLineSubmission(frame(27, 91, 65)) {
		t.Fatalf("escape sequence is not a line submission")
	}
}

func TestPrintableASCII(t *testing.T) {
	if got := PrintableASCII("he\x11llo é"); got != "hello " {
		t.Fatalf("unexpected filtered text %q", got)
	}
}

func TestStripIAC(t *testing.T) {
	in := []byte{IAC, DO, OptEcho, 'h', IAC, DONT, OptSGA, 'i', IAC, IAC}
	if got := StripIAC(in); !bytes.Equal(got, []byte{'h', 'i', IAC}) {
		t.Fatalf("unexpected stripped bytes %v", got)
	}
	if got := StripIAC([]byte{IAC, DO, OptEcho}); len(got) != 0 {
		t.Fatalf("pure negotiation must strip to empty, got %v", got)
	}
}

func TestModeSequences(t *testing.T) {
	cases := map[Mode][]byte{
		Navigation:      {255, 251, 1, 255, 251, 3},
		LineInput:       {255, 252, 1, 255, 252, 3},
		SecretLineInput: {255, 251, 1, 255, 252, 3},
	}
	for mode, want := range cases {
		if got := mode.Sequence(); !bytes.Equal(got, want) {
			t.Fatalf("%v: got %v, want %v", mode, got, want)
		}
		// Applying a preset twice yields the same bytes; there is no hidden state.
		if got := mode.Sequence(); !bytes.Equal(got, want) {
			t.Fatalf("%v: second application differs: %v", mode, got)
		}
	}
	if Navigation.TextEntry() || !LineInput.TextEntry() || !SecretLineInput.TextEntry() {
		t.Fatalf("unexpected TextEntry classification")
	}
}

func TestEncodeScreenNormalisesNewlines(t *testing.T) {
	got := string(EncodeScreen("a\nb\r\nc"))
	if got != "a\r\nb\r\nc" {
		t.Fatalf("unexpected encoding %q", got)
	}
}
