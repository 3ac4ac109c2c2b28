package lyrics

import "fmt"

// FormatMs renders milliseconds as MM:SS.mmm. Negative values clamp to zero.
// Minutes are zero-padded to two digits but may exceed 99 for long tracks.
func FormatMs(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	return fmt.Sprintf("%02d:%02d.%03d", ms/60000, (ms%60000)/1000, ms%1000)
}

// FormatMsRounded renders milliseconds as MM:SS.cc with a centisecond field
// (floor of the millisecond remainder).
func FormatMsRounded(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	return fmt.Sprintf("%02d:%02d.%02d", ms/60000, (ms%60000)/1000, (ms%1000)/10)
}

// TimeToMs converts parsed timestamp fields to milliseconds. A two-digit
// fraction is centiseconds; three digits are literal milliseconds.
func TimeToMs(m, s, frac string) int64 {
	mm := atoi(m)
	ss := atoi(s)
	ms := atoi(frac)
	if len(frac) == 2 {
		ms *= 10
	}
	return (mm*60+ss)*1000 + ms
}

func atoi(s string) int64 {
	var n int64
	for _, c := range s {
		if c < '0' || c > '9' {
			return n
		}
		n = n*10 + int64(c-'0')
	}
	return n
}
