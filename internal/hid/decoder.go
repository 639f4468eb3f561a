// internal/hid/decoder.go
package hid

import "fmt"

// ReportSize is the size of a boot-protocol keyboard input report:
// one modifier byte, one reserved byte, six keycode slots.
const ReportSize = 8

// Terminator is the rune Decode returns for the Enter key. The device
// reader treats it as end-of-scan.
const Terminator = '\n'

// Modifier byte bits for the shift keys.
const (
	modLeftShift  = 0x02
	modRightShift = 0x20
)

// State carries the decoder state that must survive between reports for a
// single device: the previously pressed key (for key-repeat suppression)
// and the caps lock toggle. Each device owns exactly one State; Decode
// itself is pure.
type State struct {
	LastKey  byte
	CapsLock bool
}

// Decode turns one input report into at most one character.
//
// It returns ok=false for release reports, unmapped usages and repeated
// keycodes; that is not an error. A report of the wrong length is an error
// the caller should log and discard without touching the state.
func Decode(report []byte, st State) (r rune, ok bool, next State, err error) {
	if len(report) != ReportSize {
		return 0, false, st, fmt.Errorf("malformed report: got %d bytes, want %d", len(report), ReportSize)
	}

	next = st

	// First pressed usage wins. Scanners press one key per report; the
	// remaining slots stay zero.
	var usage byte
	for _, k := range report[2:] {
		if k != 0 {
			usage = k
			break
		}
	}

	if usage == 0 {
		// Release report. Forget the held key so the next press of the
		// same key is decoded again.
		next.LastKey = 0
		return 0, false, next, nil
	}

	if usage == st.LastKey {
		// Key still held, report is a repeat.
		return 0, false, next, nil
	}
	next.LastKey = usage

	switch usage {
	case usageEnter, usageKPEnter:
		return Terminator, true, next, nil
	case usageCapsLock:
		next.CapsLock = !st.CapsLock
		return 0, false, next, nil
	}

	pair, mapped := keymap[usage]
	if !mapped {
		return 0, false, next, nil
	}

	shift := report[0]&(modLeftShift|modRightShift) != 0
	if isLetter(usage) && st.CapsLock {
		shift = !shift
	}
	if shift {
		return pair[1], true, next, nil
	}
	return pair[0], true, next, nil
}
