package parsers

import "lrc-fetch-go/lyrics"

// ParsePlaintext turns untimed text into one single-word line per input line.
func ParsePlaintext(text string) lyrics.Data {
	if text == "" {
		return nil
	}
	lines := splitLines(text)
	data := make(lyrics.Data, 0, len(lines))
	for _, line := range lines {
		data = append(data, lyrics.Line{Words: []lyrics.Word{{Text: line}}})
	}
	return data
}
