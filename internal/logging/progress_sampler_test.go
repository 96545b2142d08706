package logging

import "testing"

func TestNewProgressSampler(t *testing.T) {
	tests := []struct {
		name       string
		bucketSize float64
		wantSize   float64
	}{
		{"default bucket size for zero", 0, 10},
		{"default bucket size for negative", -1, 10},
		{"custom bucket size", 25, 25},
		{"small bucket size", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewProgressSampler(tt.bucketSize)
			if s.bucketSize != tt.wantSize {
				t.Errorf("bucketSize = %v, want %v", s.bucketSize, tt.wantSize)
			}
			if s.lastBucket != -1 {
				t.Errorf("lastBucket = %d, want -1", s.lastBucket)
			}
		})
	}
}

func TestProgressSamplerNilReceiver(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog(50, "process") {
		t.Error("ShouldLog on nil sampler should always return true")
	}
	s.Reset() // should not panic
}

func TestProgressSamplerStageChange(t *testing.T) {
	s := NewProgressSampler(10)

	if !s.ShouldLog(0, "extract") {
		t.Error("first stage should log")
	}
	if s.ShouldLog(0, "extract") {
		t.Error("same stage and percent should not log again")
	}
	if !s.ShouldLog(0, "process") {
		t.Error("different stage should log")
	}
	if s.lastStage != "process" {
		t.Errorf("lastStage = %q, want process", s.lastStage)
	}
}

func TestProgressSamplerTrimsStage(t *testing.T) {
	s := NewProgressSampler(10)

	s.ShouldLog(0, "  extract  ")
	if s.lastStage != "extract" {
		t.Errorf("lastStage = %q, want extract (trimmed)", s.lastStage)
	}
}

func TestProgressSamplerPercentBuckets(t *testing.T) {
	s := NewProgressSampler(10)

	if !s.ShouldLog(0, "process") {
		t.Error("0%% should log")
	}
	if s.ShouldLog(7, "process") {
		t.Error("7%% should not log (same bucket)")
	}
	if !s.ShouldLog(10, "process") {
		t.Error("10%% should log (new bucket)")
	}
	if s.ShouldLog(14, "process") {
		t.Error("14%% should not log (same bucket)")
	}
	if !s.ShouldLog(30, "process") {
		t.Error("30%% should log (skipped buckets)")
	}
}

func TestProgressSamplerNegativePercent(t *testing.T) {
	s := NewProgressSampler(10)

	if !s.ShouldLog(-1, "convert") {
		t.Error("first call should log even with negative percent")
	}
	if s.ShouldLog(-1, "convert") {
		t.Error("negative percent should not trigger bucket logging")
	}
}

func TestProgressSamplerCapsAtHundred(t *testing.T) {
	s := NewProgressSampler(10)

	s.ShouldLog(95, "process")
	if !s.ShouldLog(100, "process") {
		t.Error("100%% should log")
	}
	if s.ShouldLog(105, "process") {
		t.Error("105%% should not log again (same as 100%% bucket)")
	}
}

func TestProgressSamplerBucketResetOnStageChange(t *testing.T) {
	s := NewProgressSampler(10)

	s.ShouldLog(50, "process")
	s.ShouldLog(0, "package")

	if !s.ShouldLog(10, "package") {
		t.Error("10%% should log after stage change reset bucket")
	}
}

func TestProgressSamplerReset(t *testing.T) {
	s := NewProgressSampler(10)
	s.ShouldLog(50, "process")

	s.Reset()

	if s.lastStage != "" {
		t.Errorf("lastStage = %q, want empty after reset", s.lastStage)
	}
	if s.lastBucket != -1 {
		t.Errorf("lastBucket = %d, want -1 after reset", s.lastBucket)
	}
	if !s.ShouldLog(50, "process") {
		t.Error("should log after reset")
	}
}
