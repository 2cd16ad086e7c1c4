package logging

import "testing"

func TestNewProgressSamplerDefaults(t *testing.T) {
	if s := NewProgressSampler(0); s.bucketSize != 10 {
		t.Fatalf("bucketSize = %v, want 10", s.bucketSize)
	}
	if s := NewProgressSampler(-3); s.bucketSize != 10 {
		t.Fatalf("bucketSize = %v, want 10", s.bucketSize)
	}
	if s := NewProgressSampler(25); s.bucketSize != 25 {
		t.Fatalf("bucketSize = %v, want 25", s.bucketSize)
	}
}

func TestProgressSamplerNil(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog(0.5, "encode") {
		t.Fatal("nil sampler should always log")
	}
	s.Reset()
}

func TestProgressSamplerBuckets(t *testing.T) {
	s := NewProgressSampler(10)
	steps := []struct {
		fraction float64
		want     bool
	}{
		{0, true},
		{0.05, false},
		{0.10, true},
		{0.19, false},
		{0.5, true},
		{1.0, true},
		{1.2, false},
	}
	for _, step := range steps {
		if got := s.ShouldLog(step.fraction, "encode"); got != step.want {
			t.Fatalf("ShouldLog(%v) = %v, want %v", step.fraction, got, step.want)
		}
	}
}

func TestProgressSamplerStageChangeResetsBucket(t *testing.T) {
	s := NewProgressSampler(10)
	s.ShouldLog(0.8, "download")
	if !s.ShouldLog(0.1, "  extract  ") {
		t.Fatal("stage change should log")
	}
	if s.lastStage != "extract" {
		t.Fatalf("lastStage = %q, want trimmed value", s.lastStage)
	}
	if !s.ShouldLog(0.2, "extract") {
		t.Fatal("new bucket after stage change should log")
	}
}

func TestProgressSamplerUnknownFraction(t *testing.T) {
	s := NewProgressSampler(10)
	if !s.ShouldLog(-1, "download") {
		t.Fatal("first stage should log")
	}
	if s.ShouldLog(-1, "download") {
		t.Fatal("unknown fraction should not log without stage change")
	}
}

func TestProgressSamplerReset(t *testing.T) {
	s := NewProgressSampler(10)
	s.ShouldLog(0.6, "encode")
	s.Reset()
	if !s.ShouldLog(0.6, "encode") {
		t.Fatal("should log after reset")
	}
}
