package main

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"lrc-fetch-go/logcolors"
	"lrc-fetch-go/lyrics"
	"lrc-fetch-go/match"
	"lrc-fetch-go/render"
	"lrc-fetch-go/services/fetch"
	"lrc-fetch-go/services/providers"
)

const defaultLimitPerSource = 20

// decodeRequest parses the JSON body and rejects the unsupported enhanced
// rendering mode up front.
func decodeRequest(w http.ResponseWriter, r *http.Request) (*apiRequest, bool) {
	var req apiRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Respond(w, r).Error(http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return nil, false
	}
	if req.Mode == string(lyrics.ModeEnhanced) {
		Respond(w, r).Error(http.StatusBadRequest, "enhanced mode is not supported; use 'line' or 'verbatim'")
		return nil, false
	}
	return &req, true
}

// parseSources maps source names to known sources for /search, silently
// dropping unknown names. An empty request list means all sources.
func parseSources(names []string) []lyrics.Source {
	if len(names) == 0 {
		return append([]lyrics.Source(nil), lyrics.DefaultSources...)
	}
	out := make([]lyrics.Source, 0, len(names))
	for _, name := range names {
		if src, ok := lyrics.ParseSource(name); ok {
			out = append(out, src)
		}
	}
	return out
}

// strictSources maps source names for the fetch endpoints, rejecting the
// request on the first unknown name. An empty request list means all sources.
func strictSources(w http.ResponseWriter, r *http.Request, names []string) ([]lyrics.Source, bool) {
	if len(names) == 0 {
		return append([]lyrics.Source(nil), lyrics.DefaultSources...), true
	}
	out := make([]lyrics.Source, 0, len(names))
	for _, name := range names {
		src, ok := lyrics.ParseSource(name)
		if !ok {
			Respond(w, r).Error(http.StatusBadRequest, "invalid source: "+name)
			return nil, false
		}
		out = append(out, src)
	}
	return out, true
}

func fetchOptions(req *apiRequest, sources []lyrics.Source) fetch.Options {
	return fetch.Options{
		Title:               req.Title,
		Artist:              req.Artist,
		Sources:             sources,
		MinScore:            req.MinScore,
		MaxCandidates:       req.MaxCandidates,
		Mode:                lyrics.Mode(req.Mode),
		Translation:         lyrics.Translation(req.Translation),
		TranslateBaseURL:    req.OpenAIBaseURL,
		TranslateAPIKey:     req.OpenAIAPIKey,
		TranslateModel:      req.OpenAIModel,
		TranslateTargetLang: req.OpenAITargetLang,
	}
}

func renderOptions(req *apiRequest) fetch.RenderOptions {
	return fetch.RenderOptions{
		OffsetMs:            req.OffsetMs,
		MsDigits:            req.MsDigits,
		AddEndTimestampLine: req.AddEndStamp,
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	Respond(w, r).JSON(map[string]bool{"ok": true})
}

// searchSource queries one source and scores its results against the
// requested title/artist.
func searchSource(src lyrics.Source, title, artist string, limit int) ([]songResult, error) {
	provider, err := providers.Get(src)
	if err != nil {
		return nil, err
	}
	keyword := title
	if artist != "" {
		keyword = artist + " " + title
	}
	songs, err := provider.Search(keyword, 1)
	if err != nil {
		return nil, err
	}
	if len(songs) > limit {
		songs = songs[:limit]
	}

	results := make([]songResult, 0, len(songs))
	for _, song := range songs {
		// Clients expect non-optional id and title.
		if song.ID == "" || song.Title == "" {
			continue
		}
		var candArtist *string
		if len(song.Artist) > 0 {
			s := song.Artist.String()
			candArtist = &s
		}
		score := match.ScoreCandidate(title, artist, song.Title, song.Artist.String())
		results = append(results, songResult{
			Source:     string(song.Source),
			ID:         song.ID,
			Score:      float64(int(score*100+0.5)) / 100,
			Title:      song.Title,
			Artist:     candArtist,
			Album:      song.Album,
			DurationMs: song.DurationMs,
			Extra:      song.Extra,
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	return results, nil
}

// handleSearch fans the search out to every requested source in parallel and
// merges the scored results.
func handleSearch(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		Respond(w, r).Error(http.StatusBadRequest, "title is required")
		return
	}
	artist := strings.TrimSpace(req.Artist)

	sources := parseSources(req.Sources)
	if len(sources) == 0 {
		Respond(w, r).Error(http.StatusBadRequest, "no valid sources specified")
		return
	}
	limit := req.LimitPerSource
	if limit <= 0 {
		limit = defaultLimitPerSource
	}

	type sourceOutcome struct {
		results []songResult
		err     error
		src     lyrics.Source
	}
	outcomes := make([]sourceOutcome, len(sources))
	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src lyrics.Source) {
			defer wg.Done()
			results, err := searchSource(src, title, artist, limit)
			outcomes[i] = sourceOutcome{results, err, src}
		}(i, src)
	}
	wg.Wait()

	resp := searchResponse{Results: []songResult{}}
	for _, out := range outcomes {
		if out.err != nil {
			log.WithError(out.err).Warnf("%s search failed for %s", logcolors.LogSearch, logcolors.Provider(string(out.src)))
			resp.Errors = append(resp.Errors, string(out.src)+": "+errorMessage(out.err))
			continue
		}
		resp.Results = append(resp.Results, out.results...)
	}
	sort.SliceStable(resp.Results, func(i, j int) bool { return resp.Results[i].Score > resp.Results[j].Score })

	Respond(w, r).JSON(resp)
}

// handleFetch picks the best match across sources and returns the rendered
// LRC document.
func handleFetch(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	sources, ok := strictSources(w, r, req.Sources)
	if !ok {
		return
	}
	lrc, err := fetch.New().LRC(fetchOptions(req, sources), renderOptions(req))
	if err != nil {
		Respond(w, r).Error(http.StatusBadRequest, errorMessage(err))
		return
	}
	Respond(w, r).JSON(map[string]string{"lrc": lrc})
}

// handleFetchSeparate returns the original, translation and romanization
// tracks as separate LRC documents.
func handleFetchSeparate(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	sources, ok := strictSources(w, r, req.Sources)
	if !ok {
		return
	}
	bundle, err := fetch.New().Bundle(fetchOptions(req, sources))
	if err != nil {
		Respond(w, r).Error(http.StatusBadRequest, errorMessage(err))
		return
	}

	resp := renderSeparate(bundle, req)
	Respond(w, r).JSON(resp)
}

// renderSeparate renders each bundle track as its own LRC document.
// Translations carry no word timing, so they always render line mode.
func renderSeparate(bundle *lyrics.Bundle, req *apiRequest) map[string]string {
	mode := lyrics.Mode(req.Mode)
	if mode == "" {
		mode = lyrics.ModeVerbatim
	}

	resp := make(map[string]string)
	if len(bundle.Orig) > 0 {
		resp["lrc_orig"] = render.LRC(bundle.Tags, bundle.Orig, nil, render.Options{
			Mode:     mode,
			OffsetMs: req.OffsetMs,
			MsDigits: req.MsDigits,
		})
	}
	if len(bundle.Ts) > 0 {
		resp["lrc_trans"] = render.LRC(bundle.Tags, bundle.Ts, nil, render.Options{
			Mode:     lyrics.ModeLine,
			OffsetMs: req.OffsetMs,
			MsDigits: req.MsDigits,
		})
	}
	if len(bundle.Roma) > 0 {
		resp["lrc_roma"] = render.LRC(bundle.Tags, bundle.Roma, nil, render.Options{
			Mode:     mode,
			OffsetMs: req.OffsetMs,
			MsDigits: req.MsDigits,
		})
	}
	return resp
}

// handleFetchByID fetches lyrics for a song the client already identified,
// typically from a previous /search response.
func handleFetchByID(separate bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeRequest(w, r)
		if !ok {
			return
		}
		if req.Source == "" || req.ID == "" {
			Respond(w, r).Error(http.StatusBadRequest, "source and id are required")
			return
		}
		src, known := lyrics.ParseSource(req.Source)
		if !known {
			Respond(w, r).Error(http.StatusBadRequest, "invalid source: "+req.Source)
			return
		}
		provider, err := providers.Get(src)
		if err != nil {
			Respond(w, r).Error(http.StatusBadRequest, "invalid source: "+req.Source)
			return
		}

		song := lyrics.Song{
			Source:     src,
			ID:         req.ID,
			Title:      req.Title,
			Album:      req.Album,
			DurationMs: req.DurationMs,
			Extra:      req.Extra,
		}
		if req.Artist != "" {
			song.Artist = lyrics.NewArtist(req.Artist)
		}
		if song.Extra == nil {
			song.Extra = map[string]any{}
		}

		bundle, err := provider.GetLyrics(song)
		if err != nil {
			Respond(w, r).Error(http.StatusBadRequest, "Failed to fetch lyrics: "+err.Error())
			return
		}
		if len(bundle.Orig) == 0 {
			Respond(w, r).Error(http.StatusNotFound, "No lyrics content found")
			return
		}

		if separate {
			resp := renderSeparate(bundle, req)
			if lyrics.Translation(req.Translation) == lyrics.TranslationNone || req.Translation == "" {
				delete(resp, "lrc_trans")
			}
			Respond(w, r).JSON(resp)
			return
		}

		translation := lyrics.Translation(req.Translation)
		includeTranslation := translation != "" && translation != lyrics.TranslationNone && len(bundle.Ts) > 0
		mode := lyrics.Mode(req.Mode)
		if mode == "" {
			mode = lyrics.ModeVerbatim
		}
		lrc := render.LRC(bundle.Tags, bundle.Orig, bundle.Ts, render.Options{
			Mode:                mode,
			IncludeTranslation:  includeTranslation,
			OffsetMs:            req.OffsetMs,
			MsDigits:            req.MsDigits,
			AddEndTimestampLine: req.AddEndStamp,
		})
		Respond(w, r).JSON(map[string]string{"lrc": lrc})
	}
}
