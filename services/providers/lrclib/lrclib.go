// Package lrclib implements the lrclib.net lyrics provider.
package lrclib

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"lrc-fetch-go/config"
	"lrc-fetch-go/lyrics"
	"lrc-fetch-go/lyrics/parsers"
	"lrc-fetch-go/services/providers"
)

const userAgent = "lddc-fetch-core/1.0.0"

const pageSize = 20

type Provider struct {
	// BaseURL is overridable for tests.
	BaseURL string
	Client  *http.Client
}

func New() *Provider {
	cfg := config.Get().Providers
	return &Provider{
		BaseURL: cfg.LrclibBaseURL,
		Client:  &http.Client{Timeout: time.Duration(cfg.LrclibTimeoutSec) * time.Second},
	}
}

func init() {
	providers.Register(New())
}

func (p *Provider) Source() lyrics.Source {
	return lyrics.SourceLRCLIB
}

func (p *Provider) request(endpoint string, params url.Values, out any) error {
	u := p.BaseURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return lyrics.WrapError(lyrics.KindRequest, "lrclib request build failed", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return lyrics.WrapError(lyrics.KindRequest, "lrclib request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return lyrics.NewError(lyrics.KindRequest, fmt.Sprintf("lrclib API returned status %d", resp.StatusCode))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return lyrics.WrapError(lyrics.KindRequest, "lrclib response read failed", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return lyrics.WrapError(lyrics.KindRequest, "lrclib response decode failed", err)
	}
	return nil
}

type searchItem struct {
	ID           *int64   `json:"id"`
	TrackName    string   `json:"trackName"`
	ArtistName   string   `json:"artistName"`
	AlbumName    string   `json:"albumName"`
	Duration     *float64 `json:"duration"`
	Instrumental bool     `json:"instrumental"`
}

func (p *Provider) Search(keyword string, page int) ([]lyrics.Song, error) {
	var items []searchItem
	if err := p.request("/search", url.Values{"q": {keyword}}, &items); err != nil {
		return nil, err
	}

	lo, hi := (page-1)*pageSize, page*pageSize
	if lo > len(items) {
		lo = len(items)
	}
	if hi > len(items) {
		hi = len(items)
	}

	songs := make([]lyrics.Song, 0, hi-lo)
	for _, item := range items[lo:hi] {
		song := lyrics.Song{
			Source: lyrics.SourceLRCLIB,
			Title:  item.TrackName,
			Album:  item.AlbumName,
			Extra:  map[string]any{"instrumental": item.Instrumental},
		}
		if item.ID != nil {
			song.ID = strconv.FormatInt(*item.ID, 10)
		}
		if item.ArtistName != "" {
			song.Artist = lyrics.NewArtist(item.ArtistName)
		}
		if item.Duration != nil {
			song.DurationMs = int64(*item.Duration * 1000)
		}
		songs = append(songs, song)
	}
	log.WithField("keyword", keyword).Debugf("lrclib search returned %d songs", len(songs))
	return songs, nil
}

type getResponse struct {
	Error        string   `json:"error"`
	TrackName    string   `json:"trackName"`
	ArtistName   string   `json:"artistName"`
	AlbumName    string   `json:"albumName"`
	SyncedLyrics string   `json:"syncedLyrics"`
	PlainLyrics  string   `json:"plainLyrics"`
}

func (p *Provider) GetLyrics(song lyrics.Song) (*lyrics.Bundle, error) {
	if song.Title == "" || len(song.Artist) == 0 || song.Album == "" || song.DurationMs == 0 {
		return nil, lyrics.NewError(lyrics.KindParams, "lrclib requires title, artist, album and duration")
	}

	params := url.Values{
		"track_name":  {song.Title},
		"artist_name": {song.Artist.String()},
		"album_name":  {song.Album},
		"duration":    {strconv.FormatFloat(float64(song.DurationMs)/1000, 'f', -1, 64)},
	}
	var data getResponse
	if err := p.request("/get", params, &data); err != nil {
		return nil, err
	}
	if data.Error != "" {
		return nil, lyrics.NewError(lyrics.KindRequest, "lrclib API error: "+data.Error)
	}

	bundle := &lyrics.Bundle{Song: song, Tags: map[string]string{
		"ti": firstNonEmpty(data.TrackName, song.Title),
		"ar": firstNonEmpty(data.ArtistName, song.Artist.String()),
		"al": firstNonEmpty(data.AlbumName, song.Album),
	}}

	switch {
	case data.SyncedLyrics != "":
		tags, orig := parsers.ParseLRC(data.SyncedLyrics, lyrics.SourceLRCLIB)
		for k, v := range tags {
			bundle.Tags[k] = v
		}
		bundle.Orig = orig
	case data.PlainLyrics != "":
		bundle.Orig = parsers.ParsePlaintext(data.PlainLyrics)
	}
	return bundle, nil
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
