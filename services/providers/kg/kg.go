// Package kg implements the Kugou lyrics provider. Search goes through the
// signed complexsearch endpoint with a legacy mobile-gateway fallback, and
// lyrics arrive as encrypted KRC payloads.
package kg

import (
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"lrc-fetch-go/cache"
	"lrc-fetch-go/config"
	"lrc-fetch-go/decryptor"
	"lrc-fetch-go/lyrics"
	"lrc-fetch-go/lyrics/parsers"
	"lrc-fetch-go/services/providers"
)

const (
	version       = "1.0.0"
	signatureKey  = "LnT6xpN3khm36zse0QzvmgTZ3waWdRSA"
	dfidCacheTTL  = 1800 * time.Second
	plainTextType = 2
)

var legacyHosts = []string{
	"mobiles.kugou.com",
	"msearchcdn.kugou.com",
	"mobilecdnbj.kugou.com",
	"msearch.kugou.com",
}

type Provider struct {
	// Endpoint URLs are overridable for tests.
	RegisterURL       string
	SearchURL         string
	LyricsSearchURL   string
	LyricsDownloadURL string
	LegacyHosts       []string

	Client       *http.Client
	LegacyClient *http.Client

	mu   sync.Mutex
	dfid string
}

func New() *Provider {
	cfg := config.Get().Providers
	return &Provider{
		RegisterURL:       cfg.KGRegisterURL,
		SearchURL:         cfg.KGSearchURL,
		LyricsSearchURL:   cfg.KGLyricsSearchURL,
		LyricsDownloadURL: cfg.KGLyricsDownloadURL,
		LegacyHosts:       legacyHosts,
		Client:            &http.Client{Timeout: time.Duration(cfg.KGTimeoutSec) * time.Second},
		LegacyClient:      &http.Client{Timeout: time.Duration(cfg.KGLegacyTimeoutSec) * time.Second},
	}
}

func init() {
	providers.Register(New())
}

func (p *Provider) Source() lyrics.Source {
	return lyrics.SourceKG
}

func md5hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// ensureDfid registers a device fingerprint once per cache window. Failures
// degrade to the placeholder "-" rather than blocking lyric fetches.
func (p *Provider) ensureDfid() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dfid != "" {
		return
	}
	key := cache.Key("KG_dfid", version)
	if v, ok := cache.Global().Get(key); ok {
		if s, ok := v.(string); ok && s != "" {
			p.dfid = s
			return
		}
	}

	dfid := p.registerDevice()
	if dfid != "" {
		cache.Global().Set(key, dfid, dfidCacheTTL)
	} else {
		dfid = "-"
	}
	p.dfid = dfid
}

func (p *Provider) registerDevice() string {
	mid := md5hex(strconv.FormatInt(time.Now().UnixMilli(), 10))
	params := url.Values{"appid": {"1014"}, "platid": {"4"}, "mid": {mid}}
	values := []string{"1014", "4", mid}
	sort.Strings(values)
	params.Set("signature", md5hex("1014"+strings.Join(values, "")+"1014"))

	body := base64.StdEncoding.EncodeToString([]byte(`{"uuid":""}`))
	resp, err := p.Client.Post(p.RegisterURL+"?"+params.Encode(), "", strings.NewReader(body))
	if err != nil {
		log.WithError(err).Debug("kg device registration failed")
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}
	var payload struct {
		Data struct {
			Dfid string `json:"dfid"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return ""
	}
	return payload.Data.Dfid
}

// sign computes the request signature: md5 over the salt, the sorted k=v
// pairs, the body and the salt again.
func sign(params map[string]string, body string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(signatureKey)
	for _, k := range keys {
		b.WriteString(k + "=" + params[k])
	}
	b.WriteString(body)
	b.WriteString(signatureKey)
	return md5hex(b.String())
}

// request performs a signed API call. The Lyric module carries its own app
// identity; everything else gets the mobile client's standard parameter set.
func (p *Provider) request(rawURL string, params map[string]string, module string, extraHeaders map[string]string) (json.RawMessage, error) {
	now := time.Now()
	mid := md5hex(strconv.FormatInt(now.UnixMilli(), 10))

	full := make(map[string]string)
	if module == "Lyric" {
		full["appid"] = "3116"
		full["clientver"] = "11070"
	} else {
		full["userid"] = "0"
		full["appid"] = "3116"
		full["token"] = ""
		full["clienttime"] = strconv.FormatInt(now.Unix(), 10)
		full["iscorrection"] = "1"
		full["uuid"] = "-"
		full["mid"] = mid
		// A real dfid can trip risk control on newer endpoints.
		full["dfid"] = "-"
		full["clientver"] = "11070"
		full["platform"] = "AndroidFilter"
	}
	for k, v := range params {
		full[k] = v
	}
	full["signature"] = sign(full, "")

	query := url.Values{}
	for k, v := range full {
		query.Set(k, v)
	}
	req, err := http.NewRequest(http.MethodGet, rawURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, lyrics.WrapError(lyrics.KindRequest, "kg request build failed", err)
	}
	req.Header.Set("User-Agent", fmt.Sprintf("Android14-1070-11070-201-0-%s-wifi", module))
	req.Header.Set("KG-Rec", "1")
	req.Header.Set("KG-RC", "1")
	req.Header.Set("KG-CLIENTTIMEMS", strconv.FormatInt(now.UnixMilli(), 10))
	req.Header.Set("mid", mid)
	for k, v := range extraHeaders {
		req.Header.Set(k, v)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, lyrics.WrapError(lyrics.KindRequest, "kg request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, lyrics.NewError(lyrics.KindRequest, fmt.Sprintf("kg API returned status %d", resp.StatusCode))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, lyrics.WrapError(lyrics.KindRequest, "kg response read failed", err)
	}

	var envelope struct {
		ErrorCode *int   `json:"error_code"`
		ErrorMsg  string `json:"error_msg"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, lyrics.WrapError(lyrics.KindRequest, "kg response decode failed", err)
	}
	if envelope.ErrorCode != nil && *envelope.ErrorCode != 0 && *envelope.ErrorCode != 200 {
		return nil, lyrics.NewError(lyrics.KindRequest,
			fmt.Sprintf("kg API error, code %d: %s", *envelope.ErrorCode, envelope.ErrorMsg))
	}
	return body, nil
}

type searchResult struct {
	Data struct {
		Lists []struct {
			ID       *int64 `json:"ID"`
			SongName string `json:"SongName"`
			Singers  []struct {
				Name string `json:"name"`
			} `json:"Singers"`
			AlbumName string `json:"AlbumName"`
			Duration  *int64 `json:"Duration"`
			FileHash  string `json:"FileHash"`
		} `json:"lists"`
	} `json:"data"`
}

func (p *Provider) Search(keyword string, page int) ([]lyrics.Song, error) {
	p.ensureDfid()

	params := map[string]string{
		"sorttype": "0",
		"keyword":  keyword,
		"pagesize": "20",
		"page":     strconv.Itoa(page),
	}
	raw, err := p.request(p.SearchURL, params, "SearchSong", map[string]string{"x-router": "complexsearch.kugou.com"})
	if err != nil {
		// Complexsearch is flaky and rate-limited; fall back to the
		// legacy mobile gateway.
		log.WithError(err).Debug("kg complexsearch failed, using legacy search")
		return p.legacySearch(keyword, page)
	}

	var result searchResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, lyrics.WrapError(lyrics.KindRequest, "kg search decode failed", err)
	}

	songs := make([]lyrics.Song, 0, len(result.Data.Lists))
	for _, info := range result.Data.Lists {
		names := make([]string, 0, len(info.Singers))
		for _, s := range info.Singers {
			if s.Name != "" {
				names = append(names, s.Name)
			}
		}
		song := lyrics.Song{
			Source: lyrics.SourceKG,
			Title:  info.SongName,
			Artist: lyrics.NewArtist(names...),
			Album:  info.AlbumName,
			Extra:  map[string]any{"hash": info.FileHash},
		}
		if info.ID != nil {
			song.ID = strconv.FormatInt(*info.ID, 10)
		}
		if info.Duration != nil {
			song.DurationMs = *info.Duration * 1000
		}
		songs = append(songs, song)
	}
	return songs, nil
}

type legacyResult struct {
	Data struct {
		Info []struct {
			AlbumAudioID *int64 `json:"album_audio_id"`
			SongName     string `json:"songname"`
			SingerName   string `json:"singername"`
			AlbumName    string `json:"album_name"`
			Duration     *int64 `json:"duration"`
			Hash         string `json:"hash"`
		} `json:"info"`
	} `json:"data"`
}

func (p *Provider) legacySearch(keyword string, page int) ([]lyrics.Song, error) {
	host := p.LegacyHosts[rand.Intn(len(p.LegacyHosts))]
	params := url.Values{
		"showtype":  {"14"},
		"highlight": {""},
		"pagesize":  {"30"},
		"tag_aggr":  {"1"},
		"plat":      {"0"},
		"sver":      {"5"},
		"keyword":   {keyword},
		"correct":   {"1"},
		"api_ver":   {"1"},
		"version":   {"9108"},
		"page":      {strconv.Itoa(page)},
	}
	resp, err := p.LegacyClient.Get("http://" + host + "/api/v3/search/song?" + params.Encode())
	if err != nil {
		return nil, lyrics.WrapError(lyrics.KindRequest, "kg legacy search failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, lyrics.NewError(lyrics.KindRequest, fmt.Sprintf("kg legacy search returned status %d", resp.StatusCode))
	}

	var result legacyResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, lyrics.WrapError(lyrics.KindRequest, "kg legacy search decode failed", err)
	}

	songs := make([]lyrics.Song, 0, len(result.Data.Info))
	for _, info := range result.Data.Info {
		song := lyrics.Song{
			Source: lyrics.SourceKG,
			Title:  info.SongName,
			Album:  info.AlbumName,
			Extra:  map[string]any{"hash": info.Hash},
		}
		if info.SingerName != "" {
			song.Artist = lyrics.NewArtist(strings.Split(info.SingerName, "、")...)
		}
		if info.AlbumAudioID != nil {
			song.ID = strconv.FormatInt(*info.AlbumAudioID, 10)
		}
		if info.Duration != nil {
			song.DurationMs = *info.Duration * 1000
		}
		songs = append(songs, song)
	}
	return songs, nil
}

type lyricCandidate struct {
	ID        json.Number `json:"id"`
	AccessKey string      `json:"accesskey"`
}

func (p *Provider) lyricsCandidate(song lyrics.Song) (lyricCandidate, error) {
	hash, _ := song.Extra["hash"].(string)
	if song.ID == "" || song.DurationMs == 0 || hash == "" || song.Title == "" {
		return lyricCandidate{}, lyrics.NewError(lyrics.KindNotFound, "kg requires hash, id, duration and title for the lyric search")
	}
	keyword := song.Artist.Join("、") + " - " + song.Title
	params := map[string]string{
		"album_audio_id": song.ID,
		"duration":       strconv.FormatInt(song.DurationMs, 10),
		"hash":           hash,
		"keyword":        keyword,
		"lrctxt":         "1",
		"man":            "no",
	}
	raw, err := p.request(p.LyricsSearchURL, params, "Lyric", nil)
	if err != nil {
		return lyricCandidate{}, err
	}
	var payload struct {
		Candidates []lyricCandidate `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return lyricCandidate{}, lyrics.WrapError(lyrics.KindRequest, "kg lyric search decode failed", err)
	}
	if len(payload.Candidates) == 0 {
		return lyricCandidate{}, lyrics.NewError(lyrics.KindNotFound, "kg found no lyric candidates")
	}
	return payload.Candidates[0], nil
}

func (p *Provider) GetLyrics(song lyrics.Song) (*lyrics.Bundle, error) {
	p.ensureDfid()

	cand, err := p.lyricsCandidate(song)
	if err != nil {
		return nil, err
	}
	params := map[string]string{
		"accesskey": cand.AccessKey,
		"charset":   "utf8",
		"client":    "mobi",
		"fmt":       "krc",
		"id":        cand.ID.String(),
		"ver":       "1",
	}
	raw, err := p.request(p.LyricsDownloadURL, params, "Lyric", nil)
	if err != nil {
		return nil, err
	}
	var payload struct {
		ContentType int    `json:"contenttype"`
		Content     string `json:"content"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, lyrics.WrapError(lyrics.KindRequest, "kg lyric download decode failed", err)
	}

	content, err := base64.StdEncoding.DecodeString(payload.Content)
	if err != nil {
		return nil, lyrics.WrapError(lyrics.KindDecrypt, "kg lyric content is not valid base64", err)
	}

	bundle := &lyrics.Bundle{Song: song, Tags: map[string]string{}}
	if payload.ContentType == plainTextType {
		bundle.Orig = parsers.ParsePlaintext(string(content))
	} else {
		decrypted, err := decryptor.KRCDecrypt(content)
		if err != nil {
			return nil, err
		}
		tags, orig, ts, roma := parsers.ParseKRC(string(decrypted))
		for k, v := range tags {
			bundle.Tags[k] = v
		}
		bundle.Orig = orig
		bundle.Ts = ts
		bundle.Roma = roma
	}

	setDefault(bundle.Tags, "ti", song.Title)
	setDefault(bundle.Tags, "ar", song.Artist.String())
	setDefault(bundle.Tags, "al", song.Album)
	return bundle, nil
}

func setDefault(m map[string]string, k, v string) {
	if _, ok := m[k]; !ok {
		m[k] = v
	}
}
