package history_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"discompressor/internal/history"
	"discompressor/internal/testsupport"
)

func TestOpenAppliesMigrations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)

	ctx := context.Background()
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	recorded, err := store.Record(ctx, history.Entry{
		InputPath:       "/videos/clip.mkv",
		OutputPath:      "/videos/clip_50mb.mp4",
		TargetMB:        50,
		DurationSeconds: 120,
		BitrateBPS:      3495253,
		OutputBytes:     52_000_000,
		Outcome:         "succeeded",
		StartedAt:       started,
		FinishedAt:      started.Add(90 * time.Second),
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if recorded.ID == "" {
		t.Fatal("expected an ID to be assigned")
	}

	fetched, err := store.Get(ctx, recorded.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fetched == nil {
		t.Fatal("expected entry to be found")
	}
	if fetched.OutputPath != "/videos/clip_50mb.mp4" || fetched.BitrateBPS != 3495253 || fetched.OutputBytes != 52_000_000 {
		t.Fatalf("unexpected entry %+v", fetched)
	}
	if !fetched.StartedAt.Equal(started) || fetched.FinishedAt.Sub(fetched.StartedAt) != 90*time.Second {
		t.Fatalf("timestamps did not round-trip: %+v", fetched)
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	first, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := first.Record(ctx, history.Entry{InputPath: "a.mkv", TargetMB: 10, Outcome: "failed", Message: "encoder failed"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	second := testsupport.MustOpenHistory(t, cfg)
	entries, err := second.List(ctx, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Message != "encoder failed" || entries[0].OutputPath != "" {
		t.Fatalf("unexpected entries after reopen: %+v", entries)
	}
}

func TestListNewestFirstWithLimit(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range 5 {
		// Sub-second offsets exercise timestamp ordering.
		finished := base.Add(time.Duration(i)*time.Second + time.Duration(i)*100*time.Millisecond)
		if _, err := store.Record(ctx, history.Entry{
			InputPath:  fmt.Sprintf("clip-%d.mkv", i),
			TargetMB:   10,
			Outcome:    "succeeded",
			FinishedAt: finished,
		}); err != nil {
			t.Fatalf("Record %d failed: %v", i, err)
		}
	}

	entries, err := store.List(ctx, 3)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i, want := range []string{"clip-4.mkv", "clip-3.mkv", "clip-2.mkv"} {
		if entries[i].InputPath != want {
			t.Fatalf("entry %d = %s, want %s", i, entries[i].InputPath, want)
		}
	}
}

func TestRecordValidation(t *testing.T) {
	store := testsupport.MustOpenHistory(t, testsupport.NewConfig(t))
	ctx := context.Background()
	if _, err := store.Record(ctx, history.Entry{Outcome: "succeeded"}); err == nil {
		t.Fatal("expected error for missing input path")
	}
	if _, err := store.Record(ctx, history.Entry{InputPath: "a.mkv"}); err == nil {
		t.Fatal("expected error for missing outcome")
	}
}

func TestGetMissingAndClear(t *testing.T) {
	store := testsupport.MustOpenHistory(t, testsupport.NewConfig(t))
	ctx := context.Background()

	missing, err := store.Get(ctx, "does-not-exist")
	if err != nil || missing != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", missing, err)
	}

	for range 2 {
		if _, err := store.Record(ctx, history.Entry{InputPath: "a.mkv", TargetMB: 5, Outcome: "cancelled"}); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	removed, err := store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
	entries, err := store.List(ctx, 10)
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected empty history, got %d entries (%v)", len(entries), err)
	}
}
