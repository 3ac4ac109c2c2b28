package parsers

import (
	"encoding/base64"
	"encoding/json"
	"regexp"
	"strings"

	"lrc-fetch-go/lyrics"
)

var (
	krcWordTsRe  = regexp.MustCompile(`<(\d+),(\d+),\d+>`)
	yrcWordTsRe  = regexp.MustCompile(`\((\d+),(\d+),\d+\)`)
	trailStampRe = regexp.MustCompile(`\[\d+,\d+\]$`)
)

// krcLanguage mirrors the JSON carried in a KRC "language" tag.
type krcLanguage struct {
	Content []struct {
		Type         int        `json:"type"`
		LyricContent [][]string `json:"lyricContent"`
	} `json:"content"`
}

// ParseKRC parses a decrypted KRC document into tags plus up to three
// tracks. Word offsets are relative to the line start. A base64 "language"
// tag contributes romanization (type 0, word-aligned) and translation
// (type 1, one string per line).
func ParseKRC(text string) (map[string]string, lyrics.Data, lyrics.Data, lyrics.Data) {
	tags := make(map[string]string)
	var orig lyrics.Data

	for _, rawLine := range splitLines(text) {
		line := strings.TrimSpace(rawLine)
		if !strings.HasPrefix(line, "[") {
			continue
		}
		if tm := tagRe.FindStringSubmatch(line); tm != nil {
			tags[tm[1]] = tm[2]
			continue
		}
		lm := timedLineRe.FindStringSubmatch(line)
		if lm == nil {
			continue
		}
		lineStart := parseInt(lm[1])
		lineEnd := lineStart + parseInt(lm[2])

		words := offsetWords(lm[3], krcWordTsRe, lineStart)
		if len(words) == 0 {
			words = []lyrics.Word{{Start: lyrics.Ms(lineStart), End: lyrics.Ms(lineEnd), Text: lm[3]}}
		}
		orig = append(orig, lyrics.Line{Start: lyrics.Ms(lineStart), End: lyrics.Ms(lineEnd), Words: words})
	}

	ts, roma := krcLanguageTracks(tags, orig)
	return tags, orig, ts, roma
}

// ParseYRC parses an NE YRC document: the KRC timing grammar with
// "(start,duration,0)" word stamps carrying absolute offsets, and no
// language block.
func ParseYRC(text string) lyrics.Data {
	var data lyrics.Data
	for _, rawLine := range splitLines(text) {
		line := strings.TrimSpace(rawLine)
		if !strings.HasPrefix(line, "[") {
			continue
		}
		lm := timedLineRe.FindStringSubmatch(line)
		if lm == nil {
			continue
		}
		lineStart := parseInt(lm[1])
		lineEnd := lineStart + parseInt(lm[2])

		words := offsetWords(lm[3], yrcWordTsRe, 0)
		if len(words) == 0 {
			words = []lyrics.Word{{Start: lyrics.Ms(lineStart), End: lyrics.Ms(lineEnd), Text: lm[3]}}
		}
		data = append(data, lyrics.Line{Start: lyrics.Ms(lineStart), End: lyrics.Ms(lineEnd), Words: words})
	}
	return data
}

// offsetWords scans "<start,duration,0>text" (or parenthesized) word tokens.
// base is added to each offset: the line start for KRC, zero for YRC.
func offsetWords(content string, tokenRe *regexp.Regexp, base int64) []lyrics.Word {
	var words []lyrics.Word
	tokens := tokenRe.FindAllStringSubmatchIndex(content, -1)
	for i, tok := range tokens {
		segEnd := len(content)
		if i+1 < len(tokens) {
			segEnd = tokens[i+1][0]
		}
		text := trailStampRe.ReplaceAllString(content[tok[1]:segEnd], "")
		start := base + parseInt(content[tok[2]:tok[3]])
		duration := parseInt(content[tok[4]:tok[5]])
		words = append(words, lyrics.Word{Start: lyrics.Ms(start), End: lyrics.Ms(start + duration), Text: text})
	}
	return words
}

// krcLanguageTracks decodes the language tag. Romanization entries are
// word-aligned against orig; lines whose words are all empty advance an
// offset instead of consuming an entry. Translation entries are one string
// per line.
func krcLanguageTracks(tags map[string]string, orig lyrics.Data) (ts, roma lyrics.Data) {
	raw := strings.TrimSpace(tags["language"])
	if raw == "" {
		return nil, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, nil
	}
	var lang krcLanguage
	if err := json.Unmarshal(decoded, &lang); err != nil {
		return nil, nil
	}

	for _, content := range lang.Content {
		switch content.Type {
		case 0:
			offset := 0
			for i, line := range orig {
				if allEmptyWords(line.Words) {
					offset++
					continue
				}
				idx := i - offset
				if idx < 0 || idx >= len(content.LyricContent) {
					continue
				}
				entry := content.LyricContent[idx]
				words := make([]lyrics.Word, 0, len(line.Words))
				for j, w := range line.Words {
					if j >= len(entry) {
						break
					}
					words = append(words, lyrics.Word{Start: w.Start, End: w.End, Text: entry[j]})
				}
				roma = append(roma, lyrics.Line{Start: line.Start, End: line.End, Words: words})
			}
		case 1:
			for i, line := range orig {
				if i >= len(content.LyricContent) || len(content.LyricContent[i]) == 0 {
					continue
				}
				ts = append(ts, lyrics.Line{
					Start: line.Start,
					End:   line.End,
					Words: []lyrics.Word{{Start: line.Start, End: line.End, Text: content.LyricContent[i][0]}},
				})
			}
		}
	}
	return ts, roma
}

func allEmptyWords(words []lyrics.Word) bool {
	for _, w := range words {
		if w.Text != "" {
			return false
		}
	}
	return true
}
