package parser

import (
	"testing"
	"time"
)

func TestStampFromMillis(t *testing.T) {
	tests := []struct {
		name string
		ms   float64
		want string
	}{
		{
			name: "whole second",
			ms:   1700000000000,
			want: "11-14-2023 22:13:20.000000",
		},
		{
			name: "sub-millisecond fraction",
			ms:   1700000000000.5,
			want: "11-14-2023 22:13:20.000500",
		},
		{
			name: "millisecond remainder",
			ms:   1700000000250.5,
			want: "11-14-2023 22:13:20.250500",
		},
		{
			name: "epoch",
			ms:   0,
			want: "01-01-1970 00:00:00.000000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stampFromMillis(tt.ms); got != tt.want {
				t.Errorf("stampFromMillis(%v) = %q, want %q", tt.ms, got, tt.want)
			}
		})
	}
}

func TestStampLayoutRoundTrip(t *testing.T) {
	stamp := "01-15-2024 10:30:00.123456"
	parsed, err := time.Parse(StampLayout, stamp)
	if err != nil {
		t.Fatalf("time.Parse(StampLayout, %q) error = %v", stamp, err)
	}
	if got := parsed.Format(StampLayout); got != stamp {
		t.Errorf("round trip = %q, want %q", got, stamp)
	}
	if parsed.Nanosecond() != 123456000 {
		t.Errorf("Nanosecond() = %d, want 123456000", parsed.Nanosecond())
	}
}
