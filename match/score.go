// Package match scores provider candidates against the requested title and
// artist.
package match

import (
	"regexp"
	"strings"
)

var symbolReplacer = strings.NewReplacer(
	"（", "(",
	"）", ")",
	"：", ":",
	"！", "!",
	"？", "?",
	"／", "/",
	"＆", "&",
	"＊", "*",
	"＠", "@",
	"＃", "#",
	"＄", "$",
	"％", "%",
	"＼", `\`,
	"｜", "|",
	"＝", "=",
	"＋", "+",
	"－", "-",
	"＜", "<",
	"＞", ">",
	"［", "[",
	"］", "]",
	"｛", "{",
	"｝", "}",
)

var (
	spaceRunRe = regexp.MustCompile(`\s+`)

	// titleTagRe strips version/mix/size annotations and bracketed notes
	// that providers append to titles.
	titleTagRe = regexp.MustCompile(strings.Join([]string{
		`[-<(\[～]([～\]^)>-]*)[～\]^)>-]`,
		`([\p{L}\p{N}_]+ ?(?:(?:solo |size )?ver(?:sion)?\.?|size|style|mix(?:ed)?|edit(?:ed)?|版|solo))`,
		`(纯音乐|inst\.?(?:rumental)|off ?vocal(?: ?[Vv]er.)?)`,
	}, "|"))
)

// UnifySymbols converts full-width punctuation to half-width and collapses
// whitespace runs.
func UnifySymbols(text string) string {
	text = symbolReplacer.Replace(strings.TrimSpace(text))
	return spaceRunRe.ReplaceAllString(text, " ")
}

// NormalizeTitle lowers the title and strips known tag groups.
func NormalizeTitle(title string) string {
	title = strings.ToLower(UnifySymbols(title))
	title = titleTagRe.ReplaceAllString(title, "")
	return strings.TrimSpace(spaceRunRe.ReplaceAllString(title, " "))
}

// NormalizeArtist lowers the artist and unifies middle-dot variants.
func NormalizeArtist(artist string) string {
	return strings.ReplaceAll(strings.ToLower(UnifySymbols(artist)), "·", "・")
}

// ScoreCandidate rates a search result against the requested title/artist on
// a 0..100 scale. The title dominates at 55/45 when both artists are known;
// a title similarity below 30 costs a flat 35-point penalty.
func ScoreCandidate(title, artist, candTitle, candArtist string) float64 {
	titleScore := Ratio(NormalizeTitle(title), NormalizeTitle(candTitle)) * 100

	var score float64
	if artist != "" && candArtist != "" {
		artistScore := Ratio(NormalizeArtist(artist), NormalizeArtist(candArtist)) * 100
		score = titleScore*0.55 + artistScore*0.45
	} else {
		score = titleScore
	}

	if titleScore < 30 {
		score -= 35
	}
	if score < 0 {
		score = 0
	}
	return score
}
