package parsers

import (
	"regexp"
	"strings"

	"lrc-fetch-go/lyrics"
)

var (
	qrcEnvelopeRe  = regexp.MustCompile(`(?s)<Lyric_1 LyricType="1" LyricContent="(.*?)"/>`)
	timedLineRe    = regexp.MustCompile(`^\[(\d+),(\d+)\](.*)$`)
	qrcWordTsRe    = regexp.MustCompile(`\((\d+),(\d+)\)`)
	qrcBareStampRe = regexp.MustCompile(`^\(\d+,\d+\)$`)
	strayStampRe   = regexp.MustCompile(`^\[\d+,\d+\]`)
)

// ParseQRC parses a decrypted QRC document: an XML envelope whose body lines
// are "[start,duration]" followed by "content(start,duration)" words with
// absolute word offsets.
func ParseQRC(text string) (map[string]string, lyrics.Data, error) {
	m := qrcEnvelopeRe.FindStringSubmatch(text)
	if m == nil || m[1] == "" {
		return nil, nil, lyrics.NewError(lyrics.KindProcessing, "unsupported lyric format: QRC envelope missing")
	}

	tags := make(map[string]string)
	var data lyrics.Data

	for _, rawLine := range splitLines(m[1]) {
		line := strings.TrimSpace(rawLine)
		lm := timedLineRe.FindStringSubmatch(line)
		if lm == nil {
			if tm := tagRe.FindStringSubmatch(line); tm != nil {
				tags[tm[1]] = tm[2]
			}
			continue
		}

		lineStart := parseInt(lm[1])
		lineEnd := lineStart + parseInt(lm[2])
		content := lm[3]

		// A bare "(start,duration)" body is an intentionally empty line.
		if qrcBareStampRe.MatchString(content) {
			data = append(data, lyrics.Line{Start: lyrics.Ms(lineStart), End: lyrics.Ms(lineEnd)})
			continue
		}

		words := qrcWords(content)
		if len(words) == 0 {
			words = []lyrics.Word{{Start: lyrics.Ms(lineStart), End: lyrics.Ms(lineEnd), Text: content}}
		}
		data = append(data, lyrics.Line{Start: lyrics.Ms(lineStart), End: lyrics.Ms(lineEnd), Words: words})
	}

	return tags, data, nil
}

func qrcWords(content string) []lyrics.Word {
	var words []lyrics.Word
	tokens := qrcWordTsRe.FindAllStringSubmatchIndex(content, -1)
	prevEnd := 0
	for _, tok := range tokens {
		text := content[prevEnd:tok[0]]
		text = strayStampRe.ReplaceAllString(text, "")
		prevEnd = tok[1]
		if text == "\r" {
			continue
		}
		start := parseInt(content[tok[2]:tok[3]])
		duration := parseInt(content[tok[4]:tok[5]])
		words = append(words, lyrics.Word{Start: lyrics.Ms(start), End: lyrics.Ms(start + duration), Text: text})
	}
	return words
}

// ParseQRCString dispatches decrypted QM lyric text: QRC envelope first, then
// LRC, then plaintext.
func ParseQRCString(text string) (map[string]string, lyrics.Data) {
	if qrcEnvelopeRe.MatchString(text) {
		tags, data, err := ParseQRC(text)
		if err == nil {
			return tags, data
		}
	}
	if strings.Contains(text, "[") && strings.Contains(text, "]") {
		return ParseLRC(text, "")
	}
	return map[string]string{}, ParsePlaintext(text)
}

func parseInt(s string) int64 {
	var n int64
	for _, c := range s {
		n = n*10 + int64(c-'0')
	}
	return n
}
