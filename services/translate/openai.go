// Package translate generates translated lyric tracks through an
// OpenAI-compatible chat completions endpoint.
package translate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"lrc-fetch-go/cache"
	"lrc-fetch-go/config"
	"lrc-fetch-go/lyrics"
)

const (
	version  = "1.0.0"
	cacheTTL = 14400 * time.Second
)

// Client calls an OpenAI-compatible /chat/completions endpoint.
type Client struct {
	BaseURL string
	APIKey  string
	Model   string
	HTTP    *http.Client
	Cache   *cache.TTLCache
}

// NewClient builds a client from explicit settings, falling back to the
// configured defaults for anything left empty.
func NewClient(baseURL, apiKey, model string) *Client {
	cfg := config.Get().Translate
	if baseURL == "" {
		baseURL = cfg.BaseURL
	}
	if apiKey == "" {
		apiKey = cfg.APIKey
	}
	if model == "" {
		model = cfg.Model
	}
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		HTTP:    &http.Client{Timeout: time.Duration(cfg.TimeoutSec) * time.Second},
		Cache:   cache.Global(),
	}
}

// TranslateLines translates the lines one-to-one into the target language.
// The output always has exactly as many lines as the input.
func (c *Client) TranslateLines(lines []string, targetLang string) ([]string, error) {
	if strings.TrimSpace(c.BaseURL) == "" || strings.TrimSpace(c.APIKey) == "" || strings.TrimSpace(c.Model) == "" {
		return nil, lyrics.NewError(lyrics.KindTranslate, "incomplete translation settings (base_url/api_key/model)")
	}

	key := cache.Key(version, "openai", targetLang, strings.Join(lines, "\x00"), c.BaseURL, c.Model)
	if v, ok := c.Cache.Get(key); ok {
		if cached, ok := v.([]string); ok && len(cached) == len(lines) {
			return cached, nil
		}
	}

	var numbered strings.Builder
	for i, text := range lines {
		if i > 0 {
			numbered.WriteByte('\n')
		}
		fmt.Fprintf(&numbered, "%02d|%s", i+1, text)
	}
	prompt := "You are a professional lyric translator.\n" +
		fmt.Sprintf("Translate the following lyrics into %s line-by-line.\n", targetLang) +
		"Do not combine or split lines.\n" +
		"Output only in the following format:\n" +
		"01|Translated line 1\n" +
		"02|Translated line 2\n\n" +
		"Input:\n" +
		numbered.String() + "\n"

	payload, err := json.Marshal(map[string]any{
		"model":    c.Model,
		"messages": []map[string]string{{"role": "user", "content": prompt}},
		"stream":   false,
	})
	if err != nil {
		return nil, lyrics.WrapError(lyrics.KindTranslate, "translation request encode failed", err)
	}

	req, err := http.NewRequest(http.MethodPost, strings.TrimRight(c.BaseURL, "/")+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, lyrics.WrapError(lyrics.KindTranslate, "translation request build failed", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "lddc-fetch-core/"+version)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, lyrics.WrapError(lyrics.KindTranslate, "translation request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, lyrics.NewError(lyrics.KindTranslate, fmt.Sprintf("translation API returned status %d", resp.StatusCode))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, lyrics.WrapError(lyrics.KindTranslate, "translation response read failed", err)
	}

	var chat struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &chat); err != nil {
		return nil, lyrics.WrapError(lyrics.KindTranslate, "translation response decode failed", err)
	}
	if len(chat.Choices) == 0 {
		return nil, lyrics.NewError(lyrics.KindTranslate, "translation response has no choices")
	}

	content := strings.TrimSpace(chat.Choices[0].Message.Content)
	content = strings.TrimSpace(strings.TrimPrefix(content, "```"))
	content = strings.TrimSpace(strings.TrimSuffix(content, "```"))

	var parsed []string
	for _, line := range strings.Split(content, "\n") {
		if !strings.Contains(line, "|") {
			continue
		}
		parsed = append(parsed, line[strings.Index(line, "|")+1:])
	}
	if len(parsed) != len(lines) {
		return nil, lyrics.NewError(lyrics.KindTranslate,
			fmt.Sprintf("model output line count mismatch: %d in, %d out", len(lines), len(parsed)))
	}

	c.Cache.Set(key, parsed, cacheTTL)
	log.Debugf("translated %d lines into %s", len(parsed), targetLang)
	return parsed, nil
}

// TranslateData translates an original track into a parallel translation
// track, one single-word line per original line with the same timing.
func (c *Client) TranslateData(orig lyrics.Data, targetLang string) (lyrics.Data, error) {
	texts := make([]string, len(orig))
	for i, line := range orig {
		texts[i] = line.Text()
	}
	trans, err := c.TranslateLines(texts, targetLang)
	if err != nil {
		return nil, err
	}
	out := make(lyrics.Data, len(orig))
	for i, line := range orig {
		out[i] = lyrics.Line{
			Start: line.Start,
			End:   line.End,
			Words: []lyrics.Word{{Start: line.Start, End: line.End, Text: trans[i]}},
		}
	}
	return out, nil
}
