package decoder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/ladder-buttons/internal/gpio"
	"github.com/sweeney/ladder-buttons/internal/logic"
)

// recordingReporter records every reported sample.
type recordingReporter struct {
	mu      sync.Mutex
	samples []logic.RawSample
}

func (r *recordingReporter) Report(s logic.RawSample) {
	r.mu.Lock()
	r.samples = append(r.samples, s)
	r.mu.Unlock()
}

func (r *recordingReporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.samples)
}

func newTestDecoder(throttle uint32) (*Decoder, *gpio.FakePort, *recordingReporter) {
	port := gpio.NewFakePort(0xFF)
	rep := &recordingReporter{}
	d := New(Config{Throttle: throttle}, port, rep)
	return d, port, rep
}

func TestNewDecoderStartsAtNone(t *testing.T) {
	d, _, _ := newTestDecoder(1)
	if d.State() != logic.StateNone {
		t.Errorf("initial state: got %s, want NONE", d.State())
	}
	if d.table != &logic.DefaultTable {
		t.Error("expected DefaultTable when Config.Table is nil")
	}
	if d.encoder != logic.DefaultEncoder {
		t.Error("expected DefaultEncoder when Config.Encoder is nil")
	}
}

func TestHandleSampleSequence(t *testing.T) {
	d, _, _ := newTestDecoder(1)

	samples := []logic.RawSample{250, 250, 142}
	want := []logic.ButtonState{logic.StateNone, logic.StateNone, logic.StateB1B2B3}

	for i, s := range samples {
		d.HandleSample(s)
		if got := d.State(); got != want[i] {
			t.Errorf("after sample %d (%d): got %s, want %s", i, s, got, want[i])
		}
	}
}

func TestHandleSampleBoundary(t *testing.T) {
	tests := []struct {
		sample logic.RawSample
		want   logic.ButtonState
	}{
		{182, logic.StateB1},
		{183, logic.StateB1},
		{185, logic.StateB2B3},
	}

	d, _, _ := newTestDecoder(0)
	for _, tt := range tests {
		d.HandleSample(tt.sample)
		if got := d.State(); got != tt.want {
			t.Errorf("sample %d: got %s, want %s", tt.sample, got, tt.want)
		}
	}
}

func TestThrottleReportCount(t *testing.T) {
	tests := []struct {
		throttle uint32
		m        int
	}{
		{1, 10},
		{4, 16},
		{4, 17},
		{4, 3},
		{64, 1000},
		{7, 0},
	}

	for _, tt := range tests {
		d, _, rep := newTestDecoder(tt.throttle)
		for i := 0; i < tt.m; i++ {
			d.HandleSample(logic.RawSample(i))
		}

		k := int(tt.throttle)
		want := (tt.m + k - 1) / k
		if got := rep.count(); got != want {
			t.Errorf("K=%d M=%d: got %d reports, want %d", tt.throttle, tt.m, got, want)
		}
		if got := d.Stats().Reported; got != uint64(want) {
			t.Errorf("K=%d M=%d: Stats.Reported got %d, want %d", tt.throttle, tt.m, got, want)
		}
	}
}

func TestThrottleReportsEveryKth(t *testing.T) {
	d, _, rep := newTestDecoder(4)
	for i := 0; i < 12; i++ {
		d.HandleSample(logic.RawSample(100 + i))
	}

	want := []logic.RawSample{100, 104, 108}
	if len(rep.samples) != len(want) {
		t.Fatalf("got %v, want %v", rep.samples, want)
	}
	for i := range want {
		if rep.samples[i] != want[i] {
			t.Errorf("report %d: got %d, want %d", i, rep.samples[i], want[i])
		}
	}
}

func TestThrottleOneReportsEverySample(t *testing.T) {
	d, _, rep := newTestDecoder(1)
	samples := []logic.RawSample{250, 250, 142, 185}
	for _, s := range samples {
		d.HandleSample(s)
	}
	if len(rep.samples) != len(samples) {
		t.Fatalf("got %d reports, want %d", len(rep.samples), len(samples))
	}
	for i := range samples {
		if rep.samples[i] != samples[i] {
			t.Errorf("report %d: got %d, want %d (same sample as classified)", i, rep.samples[i], samples[i])
		}
	}
}

func TestThrottleZeroDisablesReporting(t *testing.T) {
	d, _, rep := newTestDecoder(0)
	for i := 0; i < 50; i++ {
		d.HandleSample(142)
	}
	if rep.count() != 0 {
		t.Errorf("expected no reports, got %d", rep.count())
	}
	if d.State() != logic.StateB1B2B3 {
		t.Errorf("classification must still run: got %s", d.State())
	}
}

func TestNilReporter(t *testing.T) {
	d := New(Config{Throttle: 1}, gpio.NewFakePort(0), nil)
	d.HandleSample(142)
	if d.State() != logic.StateB1B2B3 {
		t.Errorf("got %s, want B1+B2+B3", d.State())
	}
}

func TestStatsCounters(t *testing.T) {
	d, _, _ := newTestDecoder(0)
	for _, s := range []logic.RawSample{250, 250, 142, 142, 182, 250} {
		d.HandleSample(s)
	}

	st := d.Stats()
	if st.Samples != 6 {
		t.Errorf("Samples: got %d, want 6", st.Samples)
	}
	// NONE (initial) -> NONE -> B1+B2+B3 -> B1 -> NONE
	if st.Changes != 3 {
		t.Errorf("Changes: got %d, want 3", st.Changes)
	}
	if st.LastSample != 250 {
		t.Errorf("LastSample: got %d, want 250", st.LastSample)
	}
	if st.PerState[logic.StateNone] != 3 {
		t.Errorf("PerState[NONE]: got %d, want 3", st.PerState[logic.StateNone])
	}
	if st.PerState[logic.StateB1B2B3] != 2 {
		t.Errorf("PerState[B1+B2+B3]: got %d, want 2", st.PerState[logic.StateB1B2B3])
	}
	if st.PerState[logic.StateB1] != 1 {
		t.Errorf("PerState[B1]: got %d, want 1", st.PerState[logic.StateB1])
	}
}

func TestRefreshWritesPatternAndPreservesOtherBits(t *testing.T) {
	d, port, _ := newTestDecoder(0)
	port.Value = 0b10100101 // reserved bits 0, 2, 5, 7 set; LED bits clear

	if err := d.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	// NONE, active low: all LED bits high (off).
	if port.Value != 0b10111111 {
		t.Errorf("after NONE refresh: got %08b, want 10111111", port.Value)
	}

	d.HandleSample(182) // B1 -> LED1 on bit 1 lit (low)
	if err := d.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if port.Value != 0b10111101 {
		t.Errorf("after B1 refresh: got %08b, want 10111101", port.Value)
	}

	d.HandleSample(0) // all three
	if err := d.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if port.Value != 0b10100101 {
		t.Errorf("after B1+B2+B3 refresh: got %08b, want 10100101", port.Value)
	}
	if got := logic.DefaultEncoder.Decode(port.Value); got != logic.StateB1B2B3 {
		t.Errorf("decoded port: got %s", got)
	}
}

func TestRefreshIsIdempotent(t *testing.T) {
	d, port, _ := newTestDecoder(0)
	d.HandleSample(200)

	d.Refresh()
	first := port.Value
	d.Refresh()
	d.Refresh()
	if port.Value != first {
		t.Errorf("repeated refresh changed port: %08b -> %08b", first, port.Value)
	}
	if st := d.Stats(); st.Refreshes != 3 {
		t.Errorf("Refreshes: got %d, want 3", st.Refreshes)
	}
}

func TestRefreshPortErrors(t *testing.T) {
	d, port, _ := newTestDecoder(0)

	port.SetErrors(errors.New("read fault"), nil)
	if err := d.Refresh(); err == nil {
		t.Error("expected read error")
	}

	port.SetErrors(nil, errors.New("write fault"))
	if err := d.Refresh(); err == nil {
		t.Error("expected write error")
	}

	if st := d.Stats(); st.RefreshFails != 2 || st.Refreshes != 0 {
		t.Errorf("Stats: got fails=%d refreshes=%d, want 2/0", st.RefreshFails, st.Refreshes)
	}
}

func TestRunRefreshOnePerTick(t *testing.T) {
	d, port, _ := newTestDecoder(0)
	ctx, cancel := context.WithCancel(context.Background())
	tick := make(chan time.Time)

	errCh := make(chan error, 1)
	go func() { errCh <- d.RunRefresh(ctx, tick) }()

	tick <- time.Time{}
	d.HandleSample(142)
	tick <- time.Time{}
	tick <- time.Time{}
	cancel()

	if err := <-errCh; err != nil {
		t.Fatalf("RunRefresh returned error: %v", err)
	}
	value, writes := port.Last()
	if writes != 3 {
		t.Errorf("writes: got %d, want 3", writes)
	}
	if got := logic.DefaultEncoder.Decode(value); got != logic.StateB1B2B3 {
		t.Errorf("final LEDs: got %s, want B1+B2+B3", got)
	}
}

func TestRunRefreshContinuesAfterPortError(t *testing.T) {
	d, port, _ := newTestDecoder(0)
	port.SetErrors(nil, errors.New("write fault"))

	ctx, cancel := context.WithCancel(context.Background())
	tick := make(chan time.Time)
	errCh := make(chan error, 1)
	go func() { errCh <- d.RunRefresh(ctx, tick) }()

	tick <- time.Time{}
	tick <- time.Time{}
	deadline := time.Now().Add(time.Second)
	for d.Stats().RefreshFails < 2 {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for failed refreshes")
		}
		time.Sleep(time.Millisecond)
	}
	port.SetErrors(nil, nil)
	tick <- time.Time{}
	cancel()

	if err := <-errCh; err != nil {
		t.Fatalf("RunRefresh returned error: %v", err)
	}
	if _, writes := port.Last(); writes != 1 {
		t.Errorf("writes: got %d, want 1", writes)
	}
}

// TestRunRefreshFreeRunningTicks drives RunRefresh from a real clock, the way
// the bare-metal build does, and checks the LEDs follow a state change and
// that a failing port neither stops the loop nor blocks cancellation.
func TestRunRefreshFreeRunningTicks(t *testing.T) {
	d, port, _ := newTestDecoder(0)
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- d.RunRefresh(ctx, ticker.C) }()

	waitUntil := func(what string, cond func() bool) {
		t.Helper()
		deadline := time.Now().Add(2 * time.Second)
		for !cond() {
			if time.Now().After(deadline) {
				t.Fatalf("timed out waiting for %s", what)
			}
			time.Sleep(time.Millisecond)
		}
	}

	d.HandleSample(160)
	waitUntil("B1+B3 on the LEDs", func() bool {
		v, _ := port.Last()
		return logic.DefaultEncoder.Decode(v) == logic.StateB1B3
	})

	port.SetErrors(errors.New("read fault"), nil)
	fails := d.Stats().RefreshFails
	waitUntil("failed refreshes", func() bool { return d.Stats().RefreshFails >= fails+2 })

	port.SetErrors(nil, nil)
	d.HandleSample(250)
	waitUntil("LEDs dark after recovery", func() bool {
		v, _ := port.Last()
		return logic.DefaultEncoder.Decode(v) == logic.StateNone
	})

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("RunRefresh returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("RunRefresh did not stop after cancel")
	}
}

// TestConcurrentHandoff runs the sampler and refresh sides on separate
// goroutines. Under -race this checks the handoff; functionally every port
// value written must display a state that was actually sampled.
func TestConcurrentHandoff(t *testing.T) {
	d, port, _ := newTestDecoder(3)
	samples := []logic.RawSample{250, 142, 182, 185, 210, 230, 160, 150}
	allowed := map[logic.ButtonState]bool{logic.StateNone: true}
	for _, s := range samples {
		allowed[logic.Classify(s)] = true
	}

	ctx, cancel := context.WithCancel(context.Background())
	tick := make(chan time.Time)
	refreshDone := make(chan error, 1)
	go func() { refreshDone <- d.RunRefresh(ctx, tick) }()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 5000; i++ {
			d.HandleSample(samples[i%len(samples)])
		}
	}()

	for i := 0; i < 200; i++ {
		tick <- time.Time{}
		value, _ := port.Last()
		if got := logic.DefaultEncoder.Decode(value); !allowed[got] {
			t.Fatalf("port shows %s, which was never sampled", got)
		}
		if value&^logic.DefaultEncoder.Mask() != 0xFF&^logic.DefaultEncoder.Mask() {
			t.Fatalf("reserved bits changed: %08b", value)
		}
	}

	wg.Wait()
	cancel()
	if err := <-refreshDone; err != nil {
		t.Fatalf("RunRefresh returned error: %v", err)
	}
	if st := d.Stats(); st.Samples != 5000 {
		t.Errorf("Samples: got %d, want 5000", st.Samples)
	}
}
