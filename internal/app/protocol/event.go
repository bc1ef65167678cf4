/*
Package protocol implements the byte-level side of the telnet conversation.

It decodes raw input chunks into semantic Events, cleans submitted text, and encodes
the terminal-mode presets (IAC WILL/WONT sequences for ECHO and SUPPRESS-GO-AHEAD)
and screen output sent back to the client.
*/
package protocol

// Event is the closed set of semantic events. Values up to Char are produced by
// Decode; the rest are result events returned by views to drive session effects.
type Event int

const (
	Unknown Event = iota
	UpArrow
	DownArrow
	LeftArrow
	RightArrow
	Enter
	Exit
	Tab
	KeyH
	KeyS
	KeyC
	KeyR
	KeyN
	CtrlN
	CtrlQ
	Backspace
	SpaceBar
	// Char is any other printable character.
	Char

	NavigateView
	InputModeEnable
	InputModeDisable
	SecretInputModeEnable
	Authenticate
	RoomJoin
	RoomLeave
	RoomMessageSent
	DirectMessageSent
)

var eventNames = map[Event]string{
	Unknown:               "unknown",
	UpArrow:               "up",
	DownArrow:             "down",
	LeftArrow:             "left",
	RightArrow:            "right",
	Enter:                 "enter",
	Exit:                  "exit",
	Tab:                   "tab",
	KeyH:                  "key_h",
	KeyS:                  "key_s",
	KeyC:                  "key_c",
	KeyR:                  "key_r",
	KeyN:                  "key_n",
	CtrlN:                 "ctrl_n",
	CtrlQ:                 "ctrl_q",
	Backspace:             "backspace",
	SpaceBar:              "space",
	Char:                  "char",
	NavigateView:          "navigate_view",
	InputModeEnable:       "input_mode_enable",
	InputModeDisable:      "input_mode_disable",
	SecretInputModeEnable: "secret_input_mode_enable",
	Authenticate:          "authenticate",
	RoomJoin:              "room_join",
	RoomLeave:             "room_leave",
	RoomMessageSent:       "room_message_sent",
	DirectMessageSent:     "direct_message_sent",
}

func (e Event) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return "unknown"
}

// IsArrow reports whether e is a vertical arrow key.
func (e Event) IsArrow() bool {
	return e == UpArrow || e == DownArrow
}
