// Package fetch coordinates multi-provider lyric search, candidate scoring
// and best-bundle selection.
package fetch

import (
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"

	"lrc-fetch-go/config"
	"lrc-fetch-go/lyrics"
	"lrc-fetch-go/match"
	"lrc-fetch-go/render"
	"lrc-fetch-go/services/providers"
	"lrc-fetch-go/services/translate"
)

// Options selects what to fetch and how to pick among candidates.
type Options struct {
	Title         string
	Artist        string
	Sources       []lyrics.Source
	MinScore      float64
	MaxCandidates int

	// Mode and Translation steer candidate ranking; Translation also
	// controls machine translation.
	Mode        lyrics.Mode
	Translation lyrics.Translation

	TranslateBaseURL    string
	TranslateAPIKey     string
	TranslateModel      string
	TranslateTargetLang string
}

// RenderOptions controls the final LRC text.
type RenderOptions struct {
	OffsetMs            int64
	MsDigits            int
	AddEndTimestampLine bool
}

// Fetcher resolves providers through a registry. The zero value is not
// usable; construct with New.
type Fetcher struct {
	Registry *providers.Registry
}

func New() *Fetcher {
	return &Fetcher{Registry: providers.GetRegistry()}
}

type scoredSong struct {
	score float64
	song  lyrics.Song
}

type songKey struct {
	source   lyrics.Source
	id       string
	title    string
	artist   string
	album    string
	duration int64
}

// KeywordVariants builds the search keywords tried in order, most specific
// first.
func KeywordVariants(title, artist string) []string {
	title = strings.TrimSpace(title)
	artist = strings.TrimSpace(artist)
	if title == "" {
		return nil
	}
	if artist != "" {
		return []string{artist + " - " + title, artist + " " + title, title}
	}
	return []string{title}
}

// isVerbatim reports whether the bundle carries word-level timing.
func isVerbatim(bundle *lyrics.Bundle) bool {
	for _, line := range bundle.Orig {
		if len(line.Words) > 1 {
			for _, w := range line.Words {
				if w.Start != nil {
					return true
				}
			}
		}
	}
	return false
}

func (o *Options) withDefaults() Options {
	out := *o
	cfg := config.Get()
	if len(out.Sources) == 0 {
		out.Sources = append([]lyrics.Source(nil), lyrics.DefaultSources...)
	}
	if out.MinScore == 0 {
		out.MinScore = cfg.Fetch.MinScore
	}
	if out.MaxCandidates == 0 {
		out.MaxCandidates = cfg.Fetch.MaxCandidates
	}
	if out.Mode == "" {
		out.Mode = lyrics.ModeVerbatim
	}
	if out.Translation == "" {
		out.Translation = lyrics.TranslationNone
	}
	if out.TranslateTargetLang == "" {
		out.TranslateTargetLang = cfg.Translate.TargetLang
	}
	return out
}

// Bundle finds the best lyrics bundle for a title/artist pair across the
// requested sources.
func (f *Fetcher) Bundle(opts Options) (*lyrics.Bundle, error) {
	opts = opts.withDefaults()
	title := strings.TrimSpace(opts.Title)
	artist := strings.TrimSpace(opts.Artist)
	if title == "" {
		return nil, lyrics.NewError(lyrics.KindParams, "title must not be empty")
	}
	if opts.MaxCandidates <= 0 {
		return nil, lyrics.NewError(lyrics.KindParams, "max_candidates must be positive")
	}

	scored := make(map[songKey]scoredSong)
	for _, keyword := range KeywordVariants(title, artist) {
		for _, src := range opts.Sources {
			provider, err := f.Registry.Get(src)
			if err != nil {
				continue
			}
			results, err := provider.Search(keyword, 1)
			if err != nil {
				log.WithError(err).WithField("source", src).Debug("search failed")
				continue
			}
			for _, song := range results {
				candArtist := song.Artist.String()
				s := match.ScoreCandidate(title, artist, song.Title, candArtist)
				if s < opts.MinScore {
					continue
				}
				key := songKey{song.Source, song.ID, song.Title, candArtist, song.Album, song.DurationMs}
				if prev, ok := scored[key]; !ok || s > prev.score {
					scored[key] = scoredSong{s, song}
				}
			}
		}
		if len(scored) > 0 {
			break
		}
	}
	if len(scored) == 0 {
		return nil, lyrics.NewError(lyrics.KindNotFound, "no matching songs found")
	}

	candidates := make([]scoredSong, 0, len(scored))
	for _, v := range scored {
		candidates = append(candidates, v)
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if len(candidates) > opts.MaxCandidates {
		candidates = candidates[:opts.MaxCandidates]
	}

	type fetched struct {
		cand   scoredSong
		bundle *lyrics.Bundle
	}
	var bundles []fetched
	for _, cand := range candidates {
		provider, err := f.Registry.Get(cand.song.Source)
		if err != nil {
			continue
		}
		bundle, err := provider.GetLyrics(cand.song)
		if err != nil {
			log.WithError(err).WithField("source", cand.song.Source).Debug("lyric fetch failed")
			continue
		}
		if len(bundle.Orig) > 0 {
			bundles = append(bundles, fetched{cand, bundle})
		}
	}
	if len(bundles) == 0 {
		return nil, lyrics.NewError(lyrics.KindNotFound, "candidates found but fetching lyrics failed")
	}

	srcPriority := func(src lyrics.Source) int {
		for i, s := range opts.Sources {
			if s == src {
				return -i
			}
		}
		return 0
	}
	rank := func(item fetched) (float64, int, int, int) {
		verbatim := 0
		if opts.Mode != lyrics.ModeLine && isVerbatim(item.bundle) {
			verbatim = 1
		}
		translated := 0
		if opts.Translation != lyrics.TranslationNone && len(item.bundle.Ts) > 0 {
			translated = 1
		}
		return item.cand.score, verbatim, translated, srcPriority(item.bundle.Song.Source)
	}

	best := bundles[0]
	bs, bv, bt, bp := rank(best)
	for _, item := range bundles[1:] {
		s, v, t, p := rank(item)
		if s > bs || (s == bs && (v > bv || (v == bv && (t > bt || (t == bt && p > bp))))) {
			best, bs, bv, bt, bp = item, s, v, t, p
		}
	}
	bundle := best.bundle

	if (opts.Translation == lyrics.TranslationOpenAI || opts.Translation == lyrics.TranslationAuto) &&
		len(bundle.Ts) == 0 && len(bundle.Orig) > 0 {
		client := translate.NewClient(opts.TranslateBaseURL, opts.TranslateAPIKey, opts.TranslateModel)
		ts, err := client.TranslateData(bundle.Orig, opts.TranslateTargetLang)
		if err != nil {
			if opts.Translation == lyrics.TranslationOpenAI {
				return nil, err
			}
			log.WithError(err).Debug("machine translation failed, continuing without it")
		} else {
			bundle.Ts = ts
		}
	}

	cleanBundle(bundle)
	return bundle, nil
}

// LRC fetches the best bundle and renders it as LRC text.
func (f *Fetcher) LRC(opts Options, ropts RenderOptions) (string, error) {
	bundle, err := f.Bundle(opts)
	if err != nil {
		return "", err
	}

	opts = opts.withDefaults()
	includeTranslation := opts.Translation != lyrics.TranslationNone
	if opts.Translation == lyrics.TranslationProvider {
		includeTranslation = len(bundle.Ts) > 0
	}

	return render.LRC(bundle.Tags, bundle.Orig, bundle.Ts, render.Options{
		Mode:                opts.Mode,
		IncludeTranslation:  includeTranslation,
		OffsetMs:            ropts.OffsetMs,
		MsDigits:            ropts.MsDigits,
		AddEndTimestampLine: ropts.AddEndTimestampLine,
	}), nil
}

// cleanData drops placeholder lines some providers emit.
func cleanData(data lyrics.Data) lyrics.Data {
	out := make(lyrics.Data, 0, len(data))
	for _, line := range data {
		if strings.TrimSpace(line.Text()) == "//" {
			continue
		}
		out = append(out, line)
	}
	return out
}

func cleanBundle(bundle *lyrics.Bundle) {
	if len(bundle.Orig) > 0 {
		bundle.Orig = cleanData(bundle.Orig)
	}
	if len(bundle.Ts) > 0 {
		bundle.Ts = cleanData(bundle.Ts)
	}
	if len(bundle.Roma) > 0 {
		bundle.Roma = cleanData(bundle.Roma)
	}
}
