// Package qm implements the QQ Music lyrics provider. Lyrics come back as
// encrypted QRC payloads decoded through the decryptor package.
package qm

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"lrc-fetch-go/config"
	"lrc-fetch-go/decryptor"
	"lrc-fetch-go/lyrics"
	"lrc-fetch-go/lyrics/parsers"
	"lrc-fetch-go/services/providers"
)

const pageSize = 20

type Provider struct {
	// BaseURL is overridable for tests.
	BaseURL string
	Client  *http.Client

	mu     sync.Mutex
	comm   map[string]any
	inited bool
}

func New() *Provider {
	cfg := config.Get().Providers
	return &Provider{
		BaseURL: cfg.QMBaseURL,
		Client:  &http.Client{Timeout: time.Duration(cfg.QMTimeoutSec) * time.Second},
		comm: map[string]any{
			"ct":        11,
			"cv":        "1003006",
			"v":         "1003006",
			"os_ver":    "15",
			"phonetype": "24122RKC7C",
			"rom":       "Redmi/miro/miro:15/AE3A.240806.005/OS2.0.105.0.VOMCNXM:user/release-keys",
			"tmeAppID":  "qqmusiclight",
			"nettype":   "NETWORK_WIFI",
			"udid":      "0",
		},
	}
}

func init() {
	providers.Register(New())
}

func (p *Provider) Source() lyrics.Source {
	return lyrics.SourceQM
}

// ensureSession fetches a guest session once and merges its identity fields
// into the common request block.
func (p *Provider) ensureSession() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inited {
		return nil
	}

	data, err := p.call("GetSession", "music.getSession.session", map[string]any{
		"caller": 0, "uid": "0", "vkey": 0,
	})
	if err != nil {
		return err
	}
	var payload struct {
		Session struct {
			UID    any `json:"uid"`
			SID    any `json:"sid"`
			UserIP any `json:"userip"`
		} `json:"session"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return lyrics.WrapError(lyrics.KindRequest, "qm session decode failed", err)
	}
	p.comm["uid"] = payload.Session.UID
	p.comm["sid"] = payload.Session.SID
	p.comm["userip"] = payload.Session.UserIP
	p.inited = true
	log.Debug("qm session initialized")
	return nil
}

func (p *Provider) request(method, module string, param map[string]any) (json.RawMessage, error) {
	if err := p.ensureSession(); err != nil {
		return nil, err
	}
	return p.call(method, module, param)
}

func (p *Provider) call(method, module string, param map[string]any) (json.RawMessage, error) {
	payload, err := json.Marshal(map[string]any{
		"comm": p.comm,
		"request": map[string]any{
			"method": method,
			"module": module,
			"param":  param,
		},
	})
	if err != nil {
		return nil, lyrics.WrapError(lyrics.KindRequest, "qm request encode failed", err)
	}

	req, err := http.NewRequest(http.MethodPost, p.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, lyrics.WrapError(lyrics.KindRequest, "qm request build failed", err)
	}
	req.Header.Set("Cookie", "tmeLoginType=-1;")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "okhttp/3.14.9")

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, lyrics.WrapError(lyrics.KindRequest, "qm request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, lyrics.NewError(lyrics.KindRequest, fmt.Sprintf("qm API returned status %d", resp.StatusCode))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, lyrics.WrapError(lyrics.KindRequest, "qm response read failed", err)
	}

	var envelope struct {
		Code    int `json:"code"`
		Request struct {
			Code int             `json:"code"`
			Data json.RawMessage `json:"data"`
		} `json:"request"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, lyrics.WrapError(lyrics.KindRequest, "qm response decode failed", err)
	}
	if envelope.Code != 0 || envelope.Request.Code != 0 {
		return nil, lyrics.NewError(lyrics.KindRequest, fmt.Sprintf("qm API error, code %d", envelope.Code))
	}
	return envelope.Request.Data, nil
}

// searchID mimics the client's pseudo-random search identifier.
func searchID() string {
	n := int64(rand.Intn(20)+1)*18014398509481984 +
		int64(rand.Intn(4194305))*4294967296 +
		time.Now().UnixMilli()%86400000
	return strconv.FormatInt(n, 10)
}

type searchSong struct {
	ID     *int64 `json:"id"`
	Title  string `json:"title"`
	Singer []struct {
		Name string `json:"name"`
	} `json:"singer"`
	Album struct {
		Name string `json:"name"`
	} `json:"album"`
	Interval *int64 `json:"interval"`
}

func (p *Provider) Search(keyword string, page int) ([]lyrics.Song, error) {
	param := map[string]any{
		"search_id":    searchID(),
		"remoteplace":  "search.android.keyboard",
		"query":        keyword,
		"search_type":  0,
		"num_per_page": pageSize,
		"page_num":     page,
		"highlight":    0,
		"nqc_flag":     0,
		"page_id":      1,
		"grp":          1,
	}
	data, err := p.request("DoSearchForQQMusicLite", "music.search.SearchCgiService", param)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Body struct {
			ItemSong []searchSong `json:"item_song"`
		} `json:"body"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, lyrics.WrapError(lyrics.KindRequest, "qm search decode failed", err)
	}

	songs := make([]lyrics.Song, 0, len(payload.Body.ItemSong))
	for _, info := range payload.Body.ItemSong {
		names := make([]string, 0, len(info.Singer))
		for _, s := range info.Singer {
			if s.Name != "" {
				names = append(names, s.Name)
			}
		}
		song := lyrics.Song{
			Source: lyrics.SourceQM,
			Title:  info.Title,
			Artist: lyrics.NewArtist(names...),
			Album:  info.Album.Name,
		}
		if info.ID != nil {
			song.ID = strconv.FormatInt(*info.ID, 10)
		}
		if info.Interval != nil {
			song.DurationMs = *info.Interval * 1000
		}
		songs = append(songs, song)
	}
	return songs, nil
}

type playLyricInfo struct {
	Lyric  string          `json:"lyric"`
	Trans  string          `json:"trans"`
	Roma   string          `json:"roma"`
	QrcT   json.RawMessage `json:"qrc_t"`
	LrcT   json.RawMessage `json:"lrc_t"`
	TransT json.RawMessage `json:"trans_t"`
	RomaT  json.RawMessage `json:"roma_t"`
}

func (p *Provider) GetLyrics(song lyrics.Song) (*lyrics.Bundle, error) {
	if song.Title == "" || song.ID == "" || song.DurationMs == 0 {
		return nil, lyrics.NewError(lyrics.KindParams, "qm requires id, title and duration")
	}
	songID, err := strconv.ParseInt(song.ID, 10, 64)
	if err != nil {
		return nil, lyrics.WrapError(lyrics.KindParams, "qm song id is not numeric", err)
	}

	param := map[string]any{
		"albumName":  base64.StdEncoding.EncodeToString([]byte(song.Album)),
		"crypt":      1,
		"ct":         19,
		"cv":         2111,
		"interval":   song.DurationMs / 1000,
		"lrc_t":      0,
		"qrc":        1,
		"qrc_t":      0,
		"roma":       1,
		"roma_t":     0,
		"singerName": base64.StdEncoding.EncodeToString([]byte(song.Artist.String())),
		"songID":     songID,
		"songName":   base64.StdEncoding.EncodeToString([]byte(song.Title)),
		"trans":      1,
		"trans_t":    0,
		"type":       0,
	}
	data, err := p.request("GetPlayLyricInfo", "music.musichallSong.PlayLyricInfo", param)
	if err != nil {
		return nil, err
	}
	var info playLyricInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, lyrics.WrapError(lyrics.KindRequest, "qm lyric decode failed", err)
	}

	bundle := &lyrics.Bundle{Song: song, Tags: map[string]string{}}

	tracks := []struct {
		encrypted string
		flag      json.RawMessage
		dest      *lyrics.Data
		isOrig    bool
	}{
		{info.Lyric, pickLyricFlag(info.QrcT, info.LrcT), &bundle.Orig, true},
		{info.Trans, info.TransT, &bundle.Ts, false},
		{info.Roma, info.RomaT, &bundle.Roma, false},
	}
	for _, tr := range tracks {
		if tr.encrypted == "" || isZeroString(tr.flag) {
			continue
		}
		decrypted, err := decryptor.QRCDecryptHex(tr.encrypted)
		if err != nil {
			return nil, err
		}
		tags, trackData := parsers.ParseQRCString(string(decrypted))
		if tr.isOrig {
			for k, v := range tags {
				bundle.Tags[k] = v
			}
			setDefault(bundle.Tags, "ti", song.Title)
			setDefault(bundle.Tags, "ar", song.Artist.String())
			setDefault(bundle.Tags, "al", song.Album)
		}
		*tr.dest = trackData
	}

	if len(bundle.Tags) == 0 {
		bundle.Tags = map[string]string{
			"ti": song.Title,
			"ar": song.Artist.String(),
			"al": song.Album,
		}
	}
	return bundle, nil
}

// pickLyricFlag prefers qrc_t unless the server reported the numeric zero,
// in which case the lrc_t flag applies.
func pickLyricFlag(qrcT, lrcT json.RawMessage) json.RawMessage {
	if len(qrcT) == 0 || string(qrcT) == "0" {
		return lrcT
	}
	return qrcT
}

// isZeroString reports whether the flag is the literal JSON string "0",
// which marks a track as absent.
func isZeroString(flag json.RawMessage) bool {
	return string(flag) == `"0"`
}

func setDefault(m map[string]string, k, v string) {
	if _, ok := m[k]; !ok {
		m[k] = v
	}
}
