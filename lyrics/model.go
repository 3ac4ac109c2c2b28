package lyrics

import "strings"

// Source identifies a lyrics platform.
type Source string

const (
	SourceLRCLIB Source = "LRCLIB"
	SourceQM     Source = "QM"
	SourceKG     Source = "KG"
	SourceNE     Source = "NE"
)

// DefaultSources is the caller-preference order used when a request does not
// specify one.
var DefaultSources = []Source{SourceLRCLIB, SourceQM, SourceKG, SourceNE}

// ParseSource maps a source name to a Source, reporting whether it is known.
func ParseSource(name string) (Source, bool) {
	switch Source(name) {
	case SourceLRCLIB, SourceQM, SourceKG, SourceNE:
		return Source(name), true
	}
	return "", false
}

// Mode selects the LRC rendering style.
type Mode string

const (
	ModeLine     Mode = "line"
	ModeVerbatim Mode = "verbatim"
	ModeEnhanced Mode = "enhanced"
)

// Translation selects how a translation track is obtained.
type Translation string

const (
	TranslationNone     Translation = "none"
	TranslationProvider Translation = "provider"
	TranslationOpenAI   Translation = "openai"
	TranslationAuto     Translation = "auto"
)

// Artist is an ordered list of artist names, deduplicated preserving first
// occurrence. Empty names are dropped.
type Artist []string

// NewArtist builds an Artist from raw names.
func NewArtist(names ...string) Artist {
	seen := make(map[string]bool, len(names))
	out := make(Artist, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// Join concatenates the names with the given separator.
func (a Artist) Join(sep string) string {
	return strings.Join(a, sep)
}

func (a Artist) String() string {
	return a.Join("/")
}

// Song is an immutable candidate record produced by provider searches.
// Extra carries provider-private hints needed later by GetLyrics (for
// example KG's file hash).
type Song struct {
	Source     Source
	ID         string
	Title      string
	Artist     Artist
	Album      string
	DurationMs int64
	Extra      map[string]any
}

// Word is a single timed word. Start/End are nil when the source format
// carries no per-word timing.
type Word struct {
	Start *int64
	End   *int64
	Text  string
}

// Line is an ordered sequence of words; concatenating word texts yields the
// line text.
type Line struct {
	Start *int64
	End   *int64
	Words []Word
}

// Text joins the word texts of the line.
func (l Line) Text() string {
	var b strings.Builder
	for _, w := range l.Words {
		b.WriteString(w.Text)
	}
	return b.String()
}

// Data is a lyric track, sorted ascending by line start after parsing.
type Data []Line

// Bundle is the full result of a lyric fetch: the matched song, LRC tags and
// up to three tracks (original, translation, romanization).
type Bundle struct {
	Song Song
	Tags map[string]string
	Orig Data
	Ts   Data
	Roma Data
}

// Ms returns a pointer to v, for building timed words concisely.
func Ms(v int64) *int64 {
	return &v
}
