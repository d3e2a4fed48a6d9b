package gpio

import (
	"errors"
	"testing"
)

func TestFakePortReadWrite(t *testing.T) {
	f := NewFakePort(0xFF)

	v, err := f.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 0xFF {
		t.Errorf("initial value: got %08b, want 11111111", v)
	}

	if err := f.Write(0xA5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, _ = f.Read()
	if v != 0xA5 {
		t.Errorf("after write: got %08b, want 10100101", v)
	}

	last, n := f.Last()
	if last != 0xA5 || n != 1 {
		t.Errorf("Last: got (%08b, %d), want (10100101, 1)", last, n)
	}
}

func TestFakePortErrors(t *testing.T) {
	f := NewFakePort(0)
	f.SetErrors(errors.New("read fault"), errors.New("write fault"))

	if _, err := f.Read(); err == nil || err.Error() != "read fault" {
		t.Errorf("Read: got %v, want read fault", err)
	}
	if err := f.Write(1); err == nil || err.Error() != "write fault" {
		t.Errorf("Write: got %v, want write fault", err)
	}
	if len(f.Writes) != 0 {
		t.Errorf("failed write was recorded: %v", f.Writes)
	}
	if f.Value != 0 {
		t.Errorf("failed write changed value to %08b", f.Value)
	}
}

func TestFakePortClose(t *testing.T) {
	f := NewFakePort(0)
	if f.Closed {
		t.Error("should not be closed initially")
	}
	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !f.Closed {
		t.Error("should be closed after Close()")
	}
}

func TestPinsWired(t *testing.T) {
	p := UnwiredPins()
	if got := p.wired(); len(got) != 0 {
		t.Errorf("unwired pins: got %v, want none", got)
	}

	p[1] = DefaultPinLED1
	p[3] = DefaultPinLED2
	p[4] = DefaultPinLED3
	got := p.wired()
	want := []int{1, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("wired: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("wired[%d]: got %d, want %d", i, got[i], want[i])
		}
	}
}
