// internal/hid/keymap.go
package hid

// HID usage IDs from the keyboard/keypad usage page that the decoder
// understands. Anything outside this map is ignored.
const (
	usageEnter    = 0x28
	usageCapsLock = 0x39
	usageKPEnter  = 0x58
)

// keymap maps a boot-keyboard usage ID to its unshifted and shifted
// character. Covers the printable keys barcode scanners emit in
// keyboard-emulation mode.
var keymap = map[byte][2]rune{
	0x04: {'a', 'A'}, 0x05: {'b', 'B'}, 0x06: {'c', 'C'}, 0x07: {'d', 'D'},
	0x08: {'e', 'E'}, 0x09: {'f', 'F'}, 0x0A: {'g', 'G'}, 0x0B: {'h', 'H'},
	0x0C: {'i', 'I'}, 0x0D: {'j', 'J'}, 0x0E: {'k', 'K'}, 0x0F: {'l', 'L'},
	0x10: {'m', 'M'}, 0x11: {'n', 'N'}, 0x12: {'o', 'O'}, 0x13: {'p', 'P'},
	0x14: {'q', 'Q'}, 0x15: {'r', 'R'}, 0x16: {'s', 'S'}, 0x17: {'t', 'T'},
	0x18: {'u', 'U'}, 0x19: {'v', 'V'}, 0x1A: {'w', 'W'}, 0x1B: {'x', 'X'},
	0x1C: {'y', 'Y'}, 0x1D: {'z', 'Z'},

	0x1E: {'1', '!'}, 0x1F: {'2', '@'}, 0x20: {'3', '#'}, 0x21: {'4', '$'},
	0x22: {'5', '%'}, 0x23: {'6', '^'}, 0x24: {'7', '&'}, 0x25: {'8', '*'},
	0x26: {'9', '('}, 0x27: {'0', ')'},

	0x2C: {' ', ' '},
	0x2D: {'-', '_'},
	0x2E: {'=', '+'},
	0x2F: {'[', '{'},
	0x30: {']', '}'},
	0x31: {'\\', '|'},
	0x33: {';', ':'},
	0x34: {'\'', '"'},
	0x36: {',', '<'},
	0x37: {'.', '>'},
	0x38: {'/', '?'},

	// Keypad digits, sent by some scanners in numeric mode.
	0x54: {'/', '/'}, 0x55: {'*', '*'}, 0x56: {'-', '-'}, 0x57: {'+', '+'},
	0x59: {'1', '1'}, 0x5A: {'2', '2'}, 0x5B: {'3', '3'}, 0x5C: {'4', '4'},
	0x5D: {'5', '5'}, 0x5E: {'6', '6'}, 0x5F: {'7', '7'}, 0x60: {'8', '8'},
	0x61: {'9', '9'}, 0x62: {'0', '0'}, 0x63: {'.', '.'},
}

// isLetter reports whether a usage ID is an alphabetic key, the only keys
// caps lock applies to.
func isLetter(usage byte) bool {
	return usage >= 0x04 && usage <= 0x1D
}
