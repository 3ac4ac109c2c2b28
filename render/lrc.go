// Package render emits LRC text from a lyrics bundle.
package render

import (
	"strconv"
	"strings"

	"lrc-fetch-go/lyrics"
)

// ToolTag is appended to every rendered header.
const ToolTag = "lddc-fetch-core"

// Options controls LRC rendering.
type Options struct {
	Mode                Mode
	IncludeTranslation  bool
	OffsetMs            int64
	MsDigits            int // 2 for centiseconds, 3 (default) for milliseconds
	AddEndTimestampLine bool
}

// Mode aliases lyrics.Mode for caller convenience.
type Mode = lyrics.Mode

// LRC renders a full LRC document: tag header, blank line, then the body
// with optional interleaved translation lines. Output always ends with a
// single trailing newline.
func LRC(tags map[string]string, orig, ts lyrics.Data, opts Options) string {
	conv := lyrics.FormatMs
	if opts.MsDigits == 2 {
		conv = lyrics.FormatMsRounded
	}
	adj := func(t *int64) *int64 {
		if t == nil {
			return nil
		}
		v := *t + opts.OffsetMs
		if v < 0 {
			v = 0
		}
		return &v
	}

	var out []string
	var head []string
	for _, k := range []string{"ti", "ar", "al", "by"} {
		if tags[k] != "" {
			head = append(head, "["+k+":"+tags[k]+"]")
		}
	}
	if opts.OffsetMs != 0 {
		head = append(head, "[offset:"+strconv.FormatInt(opts.OffsetMs, 10)+"]")
	}
	head = append(head, "[tool:"+ToolTag+"]")
	out = append(out, strings.Join(head, "\n"), "")

	var tsMap map[int]lyrics.Line
	if opts.IncludeTranslation && len(ts) > 0 {
		tsMap = AlignTranslation(orig, ts)
	}

	for idx, oline := range orig {
		lineStart := oline.Start
		if len(oline.Words) > 0 && oline.Words[0].Start != nil {
			lineStart = oline.Words[0].Start
		}
		lineEnd := oline.End
		if len(oline.Words) > 0 && oline.Words[len(oline.Words)-1].End != nil {
			lineEnd = oline.Words[len(oline.Words)-1].End
		}

		out = append(out, renderLine(adjustLine(oline, adj), opts.Mode, adj(lineStart), adj(lineEnd), conv))

		if tline, ok := tsMap[idx]; ok {
			tStart := tline.Start
			if tStart == nil {
				tStart = oline.Start
			}
			out = append(out, renderLine(adjustLine(tline, adj), lyrics.ModeLine, adj(tStart), adj(tline.End), conv))
		}

		if opts.Mode == lyrics.ModeLine && opts.AddEndTimestampLine && lineEnd != nil {
			out = append(out, "["+conv(*adj(lineEnd))+"]")
		}
	}

	return strings.TrimSpace(strings.Join(out, "\n")) + "\n"
}

func adjustLine(line lyrics.Line, adj func(*int64) *int64) lyrics.Line {
	words := make([]lyrics.Word, len(line.Words))
	for i, w := range line.Words {
		words[i] = lyrics.Word{Start: adj(w.Start), End: adj(w.End), Text: w.Text}
	}
	return lyrics.Line{Start: adj(line.Start), End: adj(line.End), Words: words}
}

// renderLine renders one lyric line. Line mode emits the start stamp and the
// joined text; verbatim and enhanced modes delimit per-word stamps with
// square or angle brackets, eliding a word's start stamp when it equals the
// previous word's end.
func renderLine(line lyrics.Line, mode Mode, lineStart, lineEnd *int64, conv func(int64) string) string {
	var b strings.Builder
	if lineStart != nil {
		b.WriteString("[" + conv(*lineStart) + "]")
	}

	if mode == lyrics.ModeLine {
		b.WriteString(line.Text())
		return b.String()
	}

	open, closing := "[", "]"
	if mode == lyrics.ModeEnhanced {
		open, closing = "<", ">"
	}

	var lastEnd *int64
	if mode == lyrics.ModeVerbatim {
		lastEnd = line.Start
	}
	for _, w := range line.Words {
		if w.Start != nil && !msEqual(w.Start, lastEnd) {
			v := *w.Start
			if lineStart != nil && v < *lineStart {
				v = *lineStart
			}
			b.WriteString(open + conv(v) + closing)
		}
		b.WriteString(w.Text)
		if w.End != nil {
			b.WriteString(open + conv(*w.End) + closing)
		}
		lastEnd = w.End
	}

	text := b.String()
	if lineEnd != nil && !strings.HasSuffix(text, closing) {
		text += open + conv(*lineEnd) + closing
	}
	return text
}

func msEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
