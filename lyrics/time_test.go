package lyrics

import "testing"

func TestFormatMs(t *testing.T) {
	tests := []struct {
		name     string
		ms       int64
		expected string
	}{
		{"Zero", 0, "00:00.000"},
		{"Milliseconds only", 450, "00:00.450"},
		{"Seconds and millis", 12345, "00:12.345"},
		{"Minutes", 83456, "01:23.456"},
		{"Exact minute", 60000, "01:00.000"},
		{"Long track", 3600000, "60:00.000"},
		{"Over 99 minutes", 6000000, "100:00.000"},
		{"Negative clamps to zero", -500, "00:00.000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatMs(tt.ms); got != tt.expected {
				t.Errorf("FormatMs(%d) = %q, expected %q", tt.ms, got, tt.expected)
			}
		})
	}
}

func TestFormatMsRounded(t *testing.T) {
	tests := []struct {
		name     string
		ms       int64
		expected string
	}{
		{"Zero", 0, "00:00.00"},
		{"Floors the millisecond remainder", 12349, "00:12.34"},
		{"Minutes", 83450, "01:23.45"},
		{"Negative clamps to zero", -1, "00:00.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatMsRounded(tt.ms); got != tt.expected {
				t.Errorf("FormatMsRounded(%d) = %q, expected %q", tt.ms, got, tt.expected)
			}
		})
	}
}

func TestTimeToMs(t *testing.T) {
	tests := []struct {
		name     string
		m, s, f  string
		expected int64
	}{
		{"Two digit fraction is centiseconds", "01", "23", "45", 83450},
		{"Three digit fraction is milliseconds", "01", "23", "456", 83456},
		{"Zero", "00", "00", "00", 0},
		{"No fraction", "02", "05", "", 125000},
		{"Large minutes", "100", "00", "000", 6000000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TimeToMs(tt.m, tt.s, tt.f); got != tt.expected {
				t.Errorf("TimeToMs(%q, %q, %q) = %d, expected %d", tt.m, tt.s, tt.f, got, tt.expected)
			}
		})
	}
}
