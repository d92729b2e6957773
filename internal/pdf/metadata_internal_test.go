package pdf

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	fallback := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		in   string
		want time.Time
	}{
		{"D:20230115103000+05'30'", time.Date(2023, 1, 15, 5, 0, 0, 0, time.UTC)},
		{"D:20230115103000-02'00", time.Date(2023, 1, 15, 12, 30, 0, 0, time.UTC)},
		{"D:20230115103000Z00'00'", time.Date(2023, 1, 15, 10, 30, 0, 0, time.UTC)},
		{"D:20230115103000", time.Date(2023, 1, 15, 10, 30, 0, 0, time.UTC)},
		{"20230115", time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"D:2023", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"", fallback},
		{"yesterday", fallback},
		{"D:2023-13-45", fallback},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := parseDate(tt.in, fallback)
			if !got.Equal(tt.want) {
				t.Errorf("parseDate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
