package models

import "testing"

func TestFormatDuration(t *testing.T) {
	tc := []struct {
		name string
		ms   int
		want string
	}{
		{name: "zero is omitted", ms: 0, want: ""},
		{name: "sub-minute pads seconds", ms: 7000, want: "0:07"},
		{name: "typical track length", ms: 354_000, want: "5:54"},
		{name: "over an hour keeps minutes", ms: 3_725_000, want: "62:05"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDuration(tt.ms); got != tt.want {
				t.Errorf("FormatDuration(%d) = %q, want %q", tt.ms, got, tt.want)
			}
		})
	}
}
