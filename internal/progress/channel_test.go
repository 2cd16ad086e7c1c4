package progress

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
)

func drain(t *testing.T, c *Channel) []Event {
	t.Helper()
	var events []Event
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-c.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatal("timed out draining channel")
		}
	}
}

func TestProgressClampsAndNeverDecreases(t *testing.T) {
	c := NewChannel(16)
	inputs := []float64{0.1, -0.5, 0.4, 0.3, 1.7, math.NaN(), 0.2}
	for _, f := range inputs {
		c.Progress(f)
	}
	c.Succeed("/tmp/out.mp4")

	events := drain(t, c)
	want := []float64{0.1, 0.1, 0.4, 0.4, 1, 1, 1}
	if len(events) != len(want)+1 {
		t.Fatalf("expected %d events, got %d", len(want)+1, len(events))
	}
	for i, w := range want {
		if events[i].Kind != KindProgress {
			t.Fatalf("event %d kind = %v", i, events[i].Kind)
		}
		if events[i].Fraction != w {
			t.Fatalf("event %d fraction = %v, want %v", i, events[i].Fraction, w)
		}
	}
	last := events[len(events)-1]
	if last.Kind != KindSuccess || last.OutputPath != "/tmp/out.mp4" || last.Fraction != 1 {
		t.Fatalf("unexpected terminal event %+v", last)
	}
}

func TestTransferKnownAndUnknownTotals(t *testing.T) {
	c := NewChannel(16)
	for done := int64(200000); done <= 1000000; done += 200000 {
		c.Transfer(done, 1000000)
	}
	c.Transfer(1200000, 0)
	c.Succeed("/opt/bin")

	events := drain(t, c)
	if len(events) != 7 {
		t.Fatalf("expected 7 events, got %d", len(events))
	}
	for i, want := range []float64{0.2, 0.4, 0.6, 0.8, 1.0} {
		if math.Abs(events[i].Fraction-want) > 1e-9 {
			t.Fatalf("event %d fraction = %v, want %v", i, events[i].Fraction, want)
		}
	}
	unknown := events[5]
	if unknown.Total != 0 || unknown.Bytes != 1200000 || unknown.Fraction != 1.0 {
		t.Fatalf("unknown-total event should carry bytes and keep fraction, got %+v", unknown)
	}
}

func TestFirstTerminalWins(t *testing.T) {
	c := NewChannel(4)
	if !c.Cancelled() {
		t.Fatal("first terminal should be delivered")
	}
	if c.Succeed("/x") {
		t.Fatal("second terminal should be ignored")
	}
	if c.Fail(errors.New("boom")) {
		t.Fatal("third terminal should be ignored")
	}
	if c.Progress(0.5) {
		t.Fatal("progress after terminal should be ignored")
	}
	events := drain(t, c)
	if len(events) != 1 || events[0].Kind != KindCancelled {
		t.Fatalf("expected a single cancelled event, got %+v", events)
	}
	if !c.Closed() {
		t.Fatal("channel should report closed")
	}
}

func TestFullBufferKeepsNewestProgress(t *testing.T) {
	c := NewChannel(2)
	for i := 1; i <= 10; i++ {
		if !c.Progress(float64(i) / 10) {
			t.Fatalf("progress %d rejected on an open channel", i)
		}
	}
	if !c.FailMessage("encoder exited", errors.New("exit status 1")) {
		t.Fatal("terminal event must be delivered even with a full buffer")
	}
	events := drain(t, c)
	if len(events) != 2 {
		t.Fatalf("expected newest progress plus terminal, got %+v", events)
	}
	if events[0].Kind != KindProgress || events[0].Fraction != 1 {
		t.Fatalf("expected latest fraction to survive, got %+v", events[0])
	}
	if events[1].Kind != KindFailure || events[1].Message != "encoder exited" {
		t.Fatalf("unexpected terminal %+v", events[1])
	}
}

func TestLaggingConsumerSeesLatestTransfer(t *testing.T) {
	const total = 1600
	c := NewChannel(256)
	for done := int64(1); done <= total; done++ {
		c.Transfer(done, total)
	}
	c.Succeed("/opt/ffmpeg")

	events := drain(t, c)
	if len(events) != 256 {
		t.Fatalf("expected a full buffer of events, got %d", len(events))
	}
	last := events[len(events)-2]
	if last.Kind != KindProgress || last.Bytes != total || last.Fraction != 1 {
		t.Fatalf("expected final transfer before success, got %+v", last)
	}
	for i := 1; i < len(events); i++ {
		if events[i].Fraction < events[i-1].Fraction {
			t.Fatalf("fractions decreased: %v then %v", events[i-1].Fraction, events[i].Fraction)
		}
	}
	if events[len(events)-1].Kind != KindSuccess {
		t.Fatalf("expected success terminal, got %+v", events[len(events)-1])
	}
}

func TestFailUsesErrorText(t *testing.T) {
	c := NewChannel(1)
	c.Fail(errors.New("could not read media duration."))
	ev := <-c.Events()
	if ev.Message != "could not read media duration." || ev.Err == nil {
		t.Fatalf("unexpected failure event %+v", ev)
	}
}

func TestForwardDeliversUntilTerminal(t *testing.T) {
	c := NewChannel(8)
	c.Progress(0.25)
	c.Progress(0.5)
	c.Succeed("/out")

	var seen []Kind
	terminal, err := Forward(context.Background(), c.Events(), func(ev Event) {
		seen = append(seen, ev.Kind)
	})
	if err != nil {
		t.Fatalf("Forward returned error: %v", err)
	}
	if terminal.Kind != KindSuccess {
		t.Fatalf("expected success terminal, got %v", terminal.Kind)
	}
	if len(seen) != 3 {
		t.Fatalf("expected 3 delivered events, got %v", seen)
	}
}

func TestForwardStopsOnContext(t *testing.T) {
	c := NewChannel(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Forward(ctx, c.Events(), nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestKindString(t *testing.T) {
	if KindCancelled.String() != "cancelled" || Kind(9).String() != "kind(9)" {
		t.Fatalf("unexpected kind strings")
	}
}
