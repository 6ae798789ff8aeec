package config

import "testing"

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default() must validate, got %v", err)
	}
}

func TestWorkerCountRoundsToPowerOfTwo(t *testing.T) {
	r := Default()
	r.Workers = 5
	if got := r.WorkerCount(); got != 8 {
		t.Fatalf("WorkerCount() with Workers=5 = %d, want 8", got)
	}
}

func TestValidateRejectsBadSettings(t *testing.T) {
	cases := []struct {
		name string
		fix  func(*Run)
	}{
		{"zero heap", func(r *Run) { r.HeapNodes = 0 }},
		{"zero workers", func(r *Run) { r.Workers = 0 }},
		{"zero quantum", func(r *Run) { r.Quantum = 0 }},
		{"empty entry", func(r *Run) { r.Entry = "" }},
	}
	for _, c := range cases {
		r := Default()
		c.fix(r)
		if err := r.Validate(); err == nil {
			t.Errorf("%s: Validate() = nil, want an error", c.name)
		}
	}
}
