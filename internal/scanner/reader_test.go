package scanner

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"barcodebuddy/internal/hid"
	"barcodebuddy/internal/model"
)

// fakeReportSource replays a scripted sequence of reads.
type fakeReportSource struct {
	reports [][]byte
	final   error
	pos     int
	closed  bool
}

func (f *fakeReportSource) ReadReport(buf []byte) (int, error) {
	if f.pos >= len(f.reports) {
		if f.final != nil {
			return 0, f.final
		}
		return 0, ErrReadTimeout
	}
	r := f.reports[f.pos]
	f.pos++
	if r == nil {
		return 0, ErrReadTimeout
	}
	return copy(buf, r), nil
}

func (f *fakeReportSource) Close() error {
	f.closed = true
	return nil
}

// keyReports builds press+release report pairs for a string of digits and
// letters followed by Enter.
func keyReports(text string) [][]byte {
	usageFor := func(c rune) byte {
		switch {
		case c >= 'a' && c <= 'z':
			return byte(c-'a') + 0x04
		case c == '0':
			return 0x27
		case c >= '1' && c <= '9':
			return byte(c-'1') + 0x1E
		case c == '-':
			return 0x2D
		}
		return 0
	}

	var reports [][]byte
	press := func(usage byte) {
		r := make([]byte, hid.ReportSize)
		r[2] = usage
		reports = append(reports, r)
		reports = append(reports, make([]byte, hid.ReportSize))
	}
	for _, c := range text {
		press(usageFor(c))
	}
	press(0x28)
	return reports
}

func collectEvents(t *testing.T, reports [][]byte, final error) ([]model.ScanEvent, *fakeReportSource) {
	t.Helper()

	source := &fakeReportSource{reports: reports, final: final}
	events := make(chan model.ScanEvent, 16)
	lost := make(chan string, 1)

	reader := NewReader("/dev/hidraw0", source, 256, func(ev model.ScanEvent) { events <- ev }, lost, zap.NewNop())
	done := make(chan struct{})
	go func() {
		reader.Run()
		close(done)
	}()

	if final == nil {
		// Script exhausted means timeouts forever; stop explicitly.
		time.Sleep(20 * time.Millisecond)
		reader.Stop()
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Reader did not terminate")
	}

	close(events)
	var got []model.ScanEvent
	for ev := range events {
		got = append(got, ev)
	}
	return got, source
}

func TestReader_EmitsCompletedScan(t *testing.T) {
	got, source := collectEvents(t, keyReports("0123456789012"), nil)

	if len(got) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(got))
	}
	if got[0].Barcode != "0123456789012" {
		t.Errorf("Expected barcode 0123456789012, got %q", got[0].Barcode)
	}
	if got[0].Device != "/dev/hidraw0" {
		t.Errorf("Expected device path on event, got %q", got[0].Device)
	}
	if !source.closed {
		t.Error("Reader must close its source on exit")
	}
}

func TestReader_TimeoutIsNoop(t *testing.T) {
	reports := keyReports("42")
	// Interleave timeouts between keystrokes.
	withTimeouts := [][]byte{nil, nil}
	for _, r := range reports {
		withTimeouts = append(withTimeouts, r, nil)
	}

	got, _ := collectEvents(t, withTimeouts, nil)
	if len(got) != 1 || got[0].Barcode != "42" {
		t.Fatalf("Expected single scan of 42 across timeouts, got %+v", got)
	}
}

func TestReader_MalformedReportDiscarded(t *testing.T) {
	reports := [][]byte{{0x00, 0x00}} // short report
	reports = append(reports, keyReports("7")...)

	got, _ := collectEvents(t, reports, nil)
	if len(got) != 1 || got[0].Barcode != "7" {
		t.Fatalf("Expected malformed report to be skipped, got %+v", got)
	}
}

func TestReader_DeviceLostSignals(t *testing.T) {
	source := &fakeReportSource{final: errors.New("device unplugged")}
	events := make(chan model.ScanEvent, 1)
	lost := make(chan string, 1)

	reader := NewReader("/dev/hidraw3", source, 256, func(ev model.ScanEvent) { events <- ev }, lost, zap.NewNop())
	done := make(chan struct{})
	go func() {
		reader.Run()
		close(done)
	}()

	select {
	case path := <-lost:
		if path != "/dev/hidraw3" {
			t.Errorf("Expected lost signal for /dev/hidraw3, got %s", path)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Expected device-lost signal")
	}
	<-done

	if len(events) != 0 {
		t.Error("Partial buffer must be discarded on device loss")
	}
}

func TestReader_BufferOverflowDropsOldest(t *testing.T) {
	long := strings.Repeat("9", 300) + "1"
	reports := keyReports(long)

	source := &fakeReportSource{reports: reports}
	events := make(chan model.ScanEvent, 1)
	lost := make(chan string, 1)

	reader := NewReader("/dev/hidraw0", source, 256, func(ev model.ScanEvent) { events <- ev }, lost, zap.NewNop())
	go reader.Run()
	defer reader.Stop()

	select {
	case ev := <-events:
		if len(ev.Barcode) != 256 {
			t.Errorf("Expected barcode capped at 256 chars, got %d", len(ev.Barcode))
		}
		if !strings.HasSuffix(ev.Barcode, "1") {
			t.Error("Ring policy must keep the newest characters")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Expected scan event despite overflow")
	}
}

func TestReader_ConcurrentStopIsSafe(t *testing.T) {
	source := &fakeReportSource{}
	reader := NewReader("/dev/hidraw0", source, 256, func(model.ScanEvent) {}, make(chan string, 1), zap.NewNop())

	done := make(chan struct{})
	go func() {
		reader.Run()
		close(done)
	}()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reader.Stop()
		}()
	}
	wg.Wait()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Reader did not terminate")
	}
}

func TestSerialReader_ConcurrentStopIsSafe(t *testing.T) {
	source := &fakeLineSource{}
	reader := NewSerialReader("/dev/ttyACM0", source, 256, func(model.ScanEvent) {}, make(chan string, 1), zap.NewNop())

	done := make(chan struct{})
	go func() {
		reader.Run()
		close(done)
	}()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reader.Stop()
		}()
	}
	wg.Wait()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Reader did not terminate")
	}
}

func TestSerialReader_EmitsLines(t *testing.T) {
	source := &fakeLineSource{data: []byte("4006381333931\r\n12345\n")}
	events := make(chan model.ScanEvent, 4)
	lost := make(chan string, 1)

	reader := NewSerialReader("/dev/ttyACM0", source, 256, func(ev model.ScanEvent) { events <- ev }, lost, zap.NewNop())
	go reader.Run()

	var got []string
	for len(got) < 2 {
		select {
		case ev := <-events:
			got = append(got, ev.Barcode)
		case <-time.After(2 * time.Second):
			t.Fatalf("Timed out, got %v", got)
		}
	}
	reader.Stop()

	if got[0] != "4006381333931" || got[1] != "12345" {
		t.Errorf("Unexpected barcodes: %v", got)
	}
}

// fakeLineSource feeds bytes one chunk at a time, then times out.
type fakeLineSource struct {
	data []byte
	pos  int
}

func (f *fakeLineSource) Read(buf []byte) (int, error) {
	if f.pos >= len(f.data) {
		time.Sleep(5 * time.Millisecond)
		return 0, nil
	}
	n := copy(buf, f.data[f.pos:])
	f.pos += n
	return n, nil
}

func (f *fakeLineSource) Close() error { return nil }
