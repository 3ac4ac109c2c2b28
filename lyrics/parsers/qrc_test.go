package parsers

import (
	"testing"

	"lrc-fetch-go/lyrics"
)

const qrcDoc = `<?xml version="1.0" encoding="utf-8"?>
<QrcInfos>
<QrcHeadInfo SaveTime="0" Version="100"/>
<LyricInfo LyricCount="1">
<Lyric_1 LyricType="1" LyricContent="[ti:Song]
[ar:Artist]
[1000,2000]He(1000,500)llo(1500,500)
[3000,1000](3000,1000)
[4000,1000]plain text line
"/>
</LyricInfo>
</QrcInfos>`

func TestParseQRC(t *testing.T) {
	tags, data, err := ParseQRC(qrcDoc)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if tags["ti"] != "Song" || tags["ar"] != "Artist" {
		t.Errorf("Unexpected tags: %v", tags)
	}
	if len(data) != 3 {
		t.Fatalf("Expected 3 lines, got %d", len(data))
	}

	line := data[0]
	if msVal(t, line.Start) != 1000 || msVal(t, line.End) != 3000 {
		t.Errorf("Unexpected line timing: %d-%d", *line.Start, *line.End)
	}
	if len(line.Words) != 2 {
		t.Fatalf("Expected 2 words, got %d", len(line.Words))
	}
	if line.Words[0].Text != "He" || msVal(t, line.Words[0].Start) != 1000 || msVal(t, line.Words[0].End) != 1500 {
		t.Errorf("Unexpected first word: %+v", line.Words[0])
	}
	if line.Words[1].Text != "llo" || msVal(t, line.Words[1].Start) != 1500 || msVal(t, line.Words[1].End) != 2000 {
		t.Errorf("Unexpected second word: %+v", line.Words[1])
	}

	// A bare stamp body is an intentionally empty line
	if len(data[1].Words) != 0 {
		t.Errorf("Expected empty line, got words %+v", data[1].Words)
	}
	if msVal(t, data[1].Start) != 3000 || msVal(t, data[1].End) != 4000 {
		t.Errorf("Unexpected empty line timing: %d-%d", *data[1].Start, *data[1].End)
	}

	// Unstamped content becomes one word spanning the line
	if data[2].Text() != "plain text line" {
		t.Errorf("Unexpected fallback line: %q", data[2].Text())
	}
	if msVal(t, data[2].Words[0].Start) != 4000 || msVal(t, data[2].Words[0].End) != 5000 {
		t.Errorf("Unexpected fallback word timing: %+v", data[2].Words[0])
	}
}

func TestParseQRCMissingEnvelope(t *testing.T) {
	_, _, err := ParseQRC("[1000,2000]He(1000,500)llo(1500,500)")
	if err == nil {
		t.Fatal("Expected error for missing envelope")
	}
	if lyrics.KindOf(err) != lyrics.KindProcessing {
		t.Errorf("Expected processing kind, got %v", lyrics.KindOf(err))
	}
}

func TestParseQRCString(t *testing.T) {
	t.Run("QRC envelope", func(t *testing.T) {
		_, data := ParseQRCString(qrcDoc)
		if len(data) != 3 {
			t.Fatalf("Expected 3 lines, got %d", len(data))
		}
		if data[0].Text() != "Hello" {
			t.Errorf("Expected 'Hello', got %q", data[0].Text())
		}
	})

	t.Run("LRC fallback", func(t *testing.T) {
		tags, data := ParseQRCString("[ti:T]\n[00:01.00]hello")
		if tags["ti"] != "T" {
			t.Errorf("Expected ti tag, got %v", tags)
		}
		if len(data) != 1 || data[0].Text() != "hello" {
			t.Errorf("Unexpected data: %+v", data)
		}
	})

	t.Run("Plaintext fallback", func(t *testing.T) {
		_, data := ParseQRCString("just words\nmore words")
		if len(data) != 2 {
			t.Fatalf("Expected 2 lines, got %d", len(data))
		}
		if data[0].Start != nil {
			t.Error("Plaintext lines carry no timing")
		}
	})
}
