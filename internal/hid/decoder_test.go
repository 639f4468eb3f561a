package hid

import "testing"

func report(mod byte, keys ...byte) []byte {
	r := make([]byte, ReportSize)
	r[0] = mod
	copy(r[2:], keys)
	return r
}

func TestDecode_Digit(t *testing.T) {
	r, ok, _, err := Decode(report(0, 0x1E), State{})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !ok || r != '1' {
		t.Errorf("Expected '1', got %q (ok=%v)", r, ok)
	}
}

func TestDecode_ShiftedLetter(t *testing.T) {
	r, ok, _, _ := Decode(report(modLeftShift, 0x04), State{})
	if !ok || r != 'A' {
		t.Errorf("Expected 'A', got %q (ok=%v)", r, ok)
	}

	r, ok, _, _ = Decode(report(modRightShift, 0x04), State{})
	if !ok || r != 'A' {
		t.Errorf("Expected 'A' with right shift, got %q (ok=%v)", r, ok)
	}

	r, ok, _, _ = Decode(report(0, 0x04), State{})
	if !ok || r != 'a' {
		t.Errorf("Expected 'a', got %q (ok=%v)", r, ok)
	}
}

func TestDecode_Enter(t *testing.T) {
	r, ok, _, _ := Decode(report(0, usageEnter), State{})
	if !ok || r != Terminator {
		t.Errorf("Expected terminator, got %q (ok=%v)", r, ok)
	}

	r, ok, _, _ = Decode(report(0, usageKPEnter), State{})
	if !ok || r != Terminator {
		t.Errorf("Expected terminator for keypad enter, got %q (ok=%v)", r, ok)
	}
}

func TestDecode_EmptyReport(t *testing.T) {
	st := State{CapsLock: true}
	r, ok, next, err := Decode(report(0), st)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if ok {
		t.Errorf("Expected no character from empty report, got %q", r)
	}
	if next.CapsLock != st.CapsLock {
		t.Error("Empty report must not change caps lock state")
	}
	if next.LastKey != 0 {
		t.Error("Release report must clear held key")
	}
}

func TestDecode_MalformedLength(t *testing.T) {
	st := State{LastKey: 0x04, CapsLock: true}
	_, ok, next, err := Decode([]byte{0x00, 0x00, 0x1E}, st)
	if err == nil {
		t.Fatal("Expected error for short report")
	}
	if ok {
		t.Error("Malformed report must not produce a character")
	}
	if next != st {
		t.Error("Malformed report must leave state unchanged")
	}
}

func TestDecode_RepeatSuppression(t *testing.T) {
	st := State{}

	r, ok, st, _ := Decode(report(0, 0x22), st)
	if !ok || r != '5' {
		t.Fatalf("Expected '5', got %q (ok=%v)", r, ok)
	}

	// Same key still held: no new character.
	_, ok, st, _ = Decode(report(0, 0x22), st)
	if ok {
		t.Error("Held key must not be decoded twice")
	}

	// Release, then press again: decoded again.
	_, _, st, _ = Decode(report(0), st)
	r, ok, _, _ = Decode(report(0, 0x22), st)
	if !ok || r != '5' {
		t.Errorf("Expected '5' after release, got %q (ok=%v)", r, ok)
	}
}

func TestDecode_CapsLock(t *testing.T) {
	st := State{}

	_, ok, st, _ := Decode(report(0, usageCapsLock), st)
	if ok {
		t.Error("Caps lock press must not produce a character")
	}
	if !st.CapsLock {
		t.Fatal("Caps lock should be toggled on")
	}

	_, _, st, _ = Decode(report(0), st)
	r, ok, st, _ := Decode(report(0, 0x05), st)
	if !ok || r != 'B' {
		t.Errorf("Expected 'B' with caps lock, got %q (ok=%v)", r, ok)
	}

	// Shift inverts caps lock for letters.
	_, _, st, _ = Decode(report(0), st)
	r, ok, st, _ = Decode(report(modLeftShift, 0x05), st)
	if !ok || r != 'b' {
		t.Errorf("Expected 'b' with caps lock plus shift, got %q (ok=%v)", r, ok)
	}

	// Caps lock does not apply to digits.
	_, _, st, _ = Decode(report(0), st)
	r, ok, _, _ = Decode(report(0, 0x27), st)
	if !ok || r != '0' {
		t.Errorf("Expected '0' with caps lock, got %q (ok=%v)", r, ok)
	}
}

func TestDecode_UnmappedUsage(t *testing.T) {
	// 0x29 is Escape, which the keymap does not cover.
	r, ok, _, err := Decode(report(0, 0x29), State{})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if ok {
		t.Errorf("Expected unmapped usage to be ignored, got %q", r)
	}
}

func TestDecode_Barcode(t *testing.T) {
	// Decode the report sequence a scanner produces for "0123" + Enter.
	usages := []byte{0x27, 0x1E, 0x1F, 0x20, usageEnter}

	var got []rune
	st := State{}
	for _, u := range usages {
		r, ok, next, err := Decode(report(0, u), st)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if ok {
			got = append(got, r)
		}
		// Release between keystrokes, as real devices send.
		_, _, next, _ = Decode(report(0), next)
		st = next
	}

	if string(got) != "0123\n" {
		t.Errorf("Expected %q, got %q", "0123\n", string(got))
	}
}
