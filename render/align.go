package render

import "lrc-fetch-go/lyrics"

// AlignTranslation maps original line indices to translation lines using a
// three-tier fallback whose ordering is load-bearing: exact start-time match
// first, then positional pairing when both tracks have the same length, then
// nearest start. Lines left unmapped get no translation.
func AlignTranslation(orig, ts lyrics.Data) map[int]lyrics.Line {
	out := make(map[int]lyrics.Line)

	tsByStart := make(map[int64]lyrics.Line, len(ts))
	for _, tline := range ts {
		if tline.Start != nil {
			tsByStart[*tline.Start] = tline
		}
	}
	for i, oline := range orig {
		if oline.Start == nil {
			continue
		}
		if tline, ok := tsByStart[*oline.Start]; ok {
			out[i] = tline
		}
	}
	if len(out) == len(orig) {
		return out
	}

	if len(orig) == len(ts) {
		for i, tline := range ts {
			if _, ok := out[i]; !ok {
				out[i] = tline
			}
		}
		return out
	}

	timed := make(lyrics.Data, 0, len(ts))
	for _, tline := range ts {
		if tline.Start != nil {
			timed = append(timed, tline)
		}
	}
	if len(timed) == 0 {
		return out
	}
	for i, oline := range orig {
		if _, ok := out[i]; ok {
			continue
		}
		if oline.Start == nil {
			continue
		}
		best := timed[0]
		bestDiff := absDiff(*best.Start, *oline.Start)
		for _, tline := range timed[1:] {
			if d := absDiff(*tline.Start, *oline.Start); d < bestDiff {
				best, bestDiff = tline, d
			}
		}
		out[i] = best
	}
	return out
}

func absDiff(a, b int64) int64 {
	if a > b {
		return a - b
	}
	return b - a
}
