// Package parsers decodes the timed-lyric container formats (LRC with its
// enhanced and NE dialects, QRC, KRC, YRC) and plaintext into the canonical
// lyrics model.
package parsers

import (
	"regexp"
	"sort"
	"strings"

	"lrc-fetch-go/lyrics"
)

var (
	tagRe          = regexp.MustCompile(`^\[(\w+):([^\]]*)\]$`)
	lineRe         = regexp.MustCompile(`^\[(\d+):(\d+)\.(\d+)\](.*)$`)
	enhancedTsRe   = regexp.MustCompile(`<(\d+):(\d+)\.(\d+)>`)
	bracketTsRe    = regexp.MustCompile(`\[(\d+):(\d+)\.(\d+)\]`)
	multiLinePrefix = regexp.MustCompile(`^((?:\[\d+:\d+\.\d+\]){2,})(.*)$`)
)

// ParseLRC parses LRC text into tags and timed lines. The source steers
// dialect handling: NE emits one line per stamp when a line carries two or
// more consecutive timestamps.
func ParseLRC(text string, source lyrics.Source) (map[string]string, lyrics.Data) {
	tags := make(map[string]string)
	var data lyrics.Data

	for _, rawLine := range splitLines(text) {
		line := strings.TrimSpace(rawLine)
		if line == "" || !strings.HasPrefix(line, "[") {
			continue
		}

		if m := lineRe.FindStringSubmatch(line); m != nil {
			start := lyrics.TimeToMs(m[1], m[2], m[3])
			content := m[4]

			if source == lyrics.SourceNE {
				if mm := multiLinePrefix.FindStringSubmatch(line); mm != nil {
					for _, ts := range bracketTsRe.FindAllStringSubmatch(mm[1], -1) {
						tsStart := lyrics.TimeToMs(ts[1], ts[2], ts[3])
						data = append(data, lyrics.Line{
							Start: lyrics.Ms(tsStart),
							Words: []lyrics.Word{{Start: lyrics.Ms(tsStart), Text: mm[2]}},
						})
					}
					continue
				}
			}

			var parsed lyrics.Line
			if strings.Contains(content, "<") && strings.Contains(content, ">") {
				parsed = parseEnhancedLine(start, content)
			} else {
				parsed = parseBracketedLine(start, content)
			}
			if len(parsed.Words) > 0 {
				data = append(data, parsed)
			}
			continue
		}

		if m := tagRe.FindStringSubmatch(line); m != nil {
			tags[m[1]] = m[2]
		}
	}

	return tags, postProcess(data)
}

// parseEnhancedLine handles <MM:SS.mmm>word<MM:SS.mmm> word timing: each
// interior stamp starts a word and closes the previous one; a stamp at the
// very end of the line closes the final word and the line.
func parseEnhancedLine(start int64, content string) lyrics.Line {
	var words []lyrics.Word
	var end *int64

	tokens := enhancedTsRe.FindAllStringSubmatchIndex(content, -1)
	for i, tok := range tokens {
		wordStart := lyrics.TimeToMs(content[tok[2]:tok[3]], content[tok[4]:tok[5]], content[tok[6]:tok[7]])
		segEnd := len(content)
		if i+1 < len(tokens) {
			segEnd = tokens[i+1][0]
		}
		text := content[tok[1]:segEnd]

		if len(words) > 0 {
			words[len(words)-1].End = lyrics.Ms(wordStart)
		}
		if i == len(tokens)-1 && tok[1] == len(content) {
			// Trailing stamp: line end, no new word.
			end = lyrics.Ms(wordStart)
			break
		}
		if text != "" {
			words = append(words, lyrics.Word{Start: lyrics.Ms(wordStart), Text: text})
		}
	}

	return lyrics.Line{Start: lyrics.Ms(start), End: end, Words: words}
}

// parseBracketedLine handles word[MM:SS.mmm]word[MM:SS.mmm] timing: an
// interior stamp ends the preceding word and starts the next; the first word
// inherits the line start.
func parseBracketedLine(start int64, content string) lyrics.Line {
	var words []lyrics.Word
	wordStart := func() *int64 {
		if len(words) == 0 {
			return lyrics.Ms(start)
		}
		return words[len(words)-1].End
	}

	tokens := bracketTsRe.FindAllStringSubmatchIndex(content, -1)
	prevEnd := 0
	for _, tok := range tokens {
		text := content[prevEnd:tok[0]]
		wordEnd := lyrics.TimeToMs(content[tok[2]:tok[3]], content[tok[4]:tok[5]], content[tok[6]:tok[7]])
		if text != "" {
			words = append(words, lyrics.Word{Start: wordStart(), End: lyrics.Ms(wordEnd), Text: text})
		}
		prevEnd = tok[1]
	}
	if tail := content[prevEnd:]; tail != "" {
		words = append(words, lyrics.Word{Start: wordStart(), Text: tail})
	}

	return lyrics.Line{Start: lyrics.Ms(start), Words: words}
}

// postProcess drops untimed lines, sorts by start and backfills each line end
// with the next line's start.
func postProcess(data lyrics.Data) lyrics.Data {
	out := make(lyrics.Data, 0, len(data))
	for _, ln := range data {
		if ln.Start != nil {
			out = append(out, ln)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return *out[i].Start < *out[j].Start })
	for i := 1; i < len(out); i++ {
		if out[i-1].End == nil {
			out[i-1].End = out[i].Start
		}
	}
	filtered := out[:0]
	for _, ln := range out {
		if len(ln.Words) > 0 {
			filtered = append(filtered, ln)
		}
	}
	return filtered
}

// splitLines splits on any line ending and strips a UTF-8 BOM.
func splitLines(text string) []string {
	text = strings.TrimPrefix(text, "\uFEFF")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}
