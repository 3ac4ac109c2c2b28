package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

var conf = mustLoad()

type Config struct {
	Server struct {
		Host                string `envconfig:"HOST" default:"127.0.0.1"`
		Port                int    `envconfig:"PORT" default:"8765"`
		RateLimitPerSecond  int    `envconfig:"RATE_LIMIT_PER_SECOND" default:"10"`
		RateLimitBurstLimit int    `envconfig:"RATE_LIMIT_BURST_LIMIT" default:"20"`
	}

	Fetch struct {
		MinScore      float64 `envconfig:"MIN_SCORE" default:"55"`
		MaxCandidates int     `envconfig:"MAX_CANDIDATES" default:"8"`
	}

	Providers struct {
		LrclibBaseURL    string `envconfig:"LRCLIB_BASE_URL" default:"https://lrclib.net/api"`
		LrclibTimeoutSec int    `envconfig:"LRCLIB_TIMEOUT_SEC" default:"30"`

		QMBaseURL    string `envconfig:"QM_BASE_URL" default:"https://u.y.qq.com/cgi-bin/musicu.fcg"`
		QMTimeoutSec int    `envconfig:"QM_TIMEOUT_SEC" default:"15"`

		KGRegisterURL       string `envconfig:"KG_REGISTER_URL" default:"https://userservice.kugou.com/risk/v1/r_register_dev"`
		KGSearchURL         string `envconfig:"KG_SEARCH_URL" default:"https://complexsearch.kugou.com/v2/search/song"`
		KGLyricsSearchURL   string `envconfig:"KG_LYRICS_SEARCH_URL" default:"https://lyrics.kugou.com/v1/search"`
		KGLyricsDownloadURL string `envconfig:"KG_LYRICS_DOWNLOAD_URL" default:"https://lyrics.kugou.com/download"`
		KGTimeoutSec        int    `envconfig:"KG_TIMEOUT_SEC" default:"15"`
		KGLegacyTimeoutSec  int    `envconfig:"KG_LEGACY_TIMEOUT_SEC" default:"3"`

		NEBaseURL    string `envconfig:"NE_BASE_URL" default:"https://interface.music.163.com"`
		NETimeoutSec int    `envconfig:"NE_TIMEOUT_SEC" default:"15"`
	}

	Translate struct {
		BaseURL         string `envconfig:"TRANSLATE_BASE_URL" default:""`
		APIKey          string `envconfig:"TRANSLATE_API_KEY" default:""`
		Model           string `envconfig:"TRANSLATE_MODEL" default:""`
		TargetLang      string `envconfig:"TRANSLATE_TARGET_LANG" default:"简体中文"`
		TimeoutSec      int    `envconfig:"TRANSLATE_TIMEOUT_SEC" default:"120"`
		CacheTTLSeconds int    `envconfig:"TRANSLATE_CACHE_TTL_SEC" default:"14400"`
	}
}

// load loads the configuration from the environment.
func load() (Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Debugf("No env file loaded: %v", err)
	}

	cfg := Config{}
	err = envconfig.Process("", &cfg)
	return cfg, err
}

func mustLoad() Config {
	c, err := load()
	if err != nil {
		log.WithError(err).Warnf("Unable to load configuration")
	}

	return c
}

func Get() Config {
	return conf
}
