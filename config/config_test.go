package config

import (
	"os"
	"testing"
)

func TestConfigDefaultValues(t *testing.T) {
	// Clear any existing env vars that might interfere
	envVars := []string{
		"HOST",
		"PORT",
		"RATE_LIMIT_PER_SECOND",
		"RATE_LIMIT_BURST_LIMIT",
		"MIN_SCORE",
		"MAX_CANDIDATES",
		"LRCLIB_TIMEOUT_SEC",
		"QM_TIMEOUT_SEC",
		"KG_TIMEOUT_SEC",
		"KG_LEGACY_TIMEOUT_SEC",
		"NE_TIMEOUT_SEC",
		"TRANSLATE_TARGET_LANG",
		"TRANSLATE_TIMEOUT_SEC",
		"TRANSLATE_CACHE_TTL_SEC",
	}

	// Store original values
	originalValues := make(map[string]string)
	for _, key := range envVars {
		originalValues[key] = os.Getenv(key)
		os.Unsetenv(key)
	}
	defer func() {
		// Restore original values
		for key, value := range originalValues {
			if value != "" {
				os.Setenv(key, value)
			}
		}
	}()

	cfg, err := load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{
			name:     "Host default",
			got:      cfg.Server.Host,
			expected: "127.0.0.1",
		},
		{
			name:     "Port default",
			got:      cfg.Server.Port,
			expected: 8765,
		},
		{
			name:     "RateLimitPerSecond default",
			got:      cfg.Server.RateLimitPerSecond,
			expected: 10,
		},
		{
			name:     "RateLimitBurstLimit default",
			got:      cfg.Server.RateLimitBurstLimit,
			expected: 20,
		},
		{
			name:     "MinScore default",
			got:      cfg.Fetch.MinScore,
			expected: 55.0,
		},
		{
			name:     "MaxCandidates default",
			got:      cfg.Fetch.MaxCandidates,
			expected: 8,
		},
		{
			name:     "LrclibTimeoutSec default",
			got:      cfg.Providers.LrclibTimeoutSec,
			expected: 30,
		},
		{
			name:     "QMTimeoutSec default",
			got:      cfg.Providers.QMTimeoutSec,
			expected: 15,
		},
		{
			name:     "KGLegacyTimeoutSec default",
			got:      cfg.Providers.KGLegacyTimeoutSec,
			expected: 3,
		},
		{
			name:     "TranslateTargetLang default",
			got:      cfg.Translate.TargetLang,
			expected: "简体中文",
		},
		{
			name:     "TranslateTimeoutSec default",
			got:      cfg.Translate.TimeoutSec,
			expected: 120,
		},
		{
			name:     "TranslateCacheTTLSeconds default",
			got:      cfg.Translate.CacheTTLSeconds,
			expected: 14400,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, tt.got)
			}
		})
	}
}

func TestConfigEnvironmentOverrides(t *testing.T) {
	os.Setenv("HOST", "0.0.0.0")
	os.Setenv("PORT", "9000")
	os.Setenv("RATE_LIMIT_PER_SECOND", "5")
	os.Setenv("RATE_LIMIT_BURST_LIMIT", "15")
	os.Setenv("MIN_SCORE", "70")
	os.Setenv("MAX_CANDIDATES", "4")
	os.Setenv("LRCLIB_BASE_URL", "http://localhost:1234/api")
	os.Setenv("TRANSLATE_BASE_URL", "http://localhost:5678/v1")
	os.Setenv("TRANSLATE_API_KEY", "test_key_123")
	os.Setenv("TRANSLATE_MODEL", "test-model")
	os.Setenv("TRANSLATE_TARGET_LANG", "English")

	defer func() {
		os.Unsetenv("HOST")
		os.Unsetenv("PORT")
		os.Unsetenv("RATE_LIMIT_PER_SECOND")
		os.Unsetenv("RATE_LIMIT_BURST_LIMIT")
		os.Unsetenv("MIN_SCORE")
		os.Unsetenv("MAX_CANDIDATES")
		os.Unsetenv("LRCLIB_BASE_URL")
		os.Unsetenv("TRANSLATE_BASE_URL")
		os.Unsetenv("TRANSLATE_API_KEY")
		os.Unsetenv("TRANSLATE_MODEL")
		os.Unsetenv("TRANSLATE_TARGET_LANG")
	}()

	cfg, err := load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{
			name:     "Host override",
			got:      cfg.Server.Host,
			expected: "0.0.0.0",
		},
		{
			name:     "Port override",
			got:      cfg.Server.Port,
			expected: 9000,
		},
		{
			name:     "RateLimitPerSecond override",
			got:      cfg.Server.RateLimitPerSecond,
			expected: 5,
		},
		{
			name:     "RateLimitBurstLimit override",
			got:      cfg.Server.RateLimitBurstLimit,
			expected: 15,
		},
		{
			name:     "MinScore override",
			got:      cfg.Fetch.MinScore,
			expected: 70.0,
		},
		{
			name:     "MaxCandidates override",
			got:      cfg.Fetch.MaxCandidates,
			expected: 4,
		},
		{
			name:     "LrclibBaseURL override",
			got:      cfg.Providers.LrclibBaseURL,
			expected: "http://localhost:1234/api",
		},
		{
			name:     "TranslateBaseURL override",
			got:      cfg.Translate.BaseURL,
			expected: "http://localhost:5678/v1",
		},
		{
			name:     "TranslateAPIKey override",
			got:      cfg.Translate.APIKey,
			expected: "test_key_123",
		},
		{
			name:     "TranslateModel override",
			got:      cfg.Translate.Model,
			expected: "test-model",
		},
		{
			name:     "TranslateTargetLang override",
			got:      cfg.Translate.TargetLang,
			expected: "English",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, tt.got)
			}
		})
	}
}

func TestConfigProviderEndpoints(t *testing.T) {
	// Endpoint defaults point at the public gateways
	for _, key := range []string{
		"QM_BASE_URL", "KG_REGISTER_URL", "KG_SEARCH_URL",
		"KG_LYRICS_SEARCH_URL", "KG_LYRICS_DOWNLOAD_URL", "NE_BASE_URL",
	} {
		os.Unsetenv(key)
	}

	cfg, err := load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Providers.QMBaseURL != "https://u.y.qq.com/cgi-bin/musicu.fcg" {
		t.Errorf("Unexpected QMBaseURL: %q", cfg.Providers.QMBaseURL)
	}
	if cfg.Providers.KGSearchURL != "https://complexsearch.kugou.com/v2/search/song" {
		t.Errorf("Unexpected KGSearchURL: %q", cfg.Providers.KGSearchURL)
	}
	if cfg.Providers.NEBaseURL != "https://interface.music.163.com" {
		t.Errorf("Unexpected NEBaseURL: %q", cfg.Providers.NEBaseURL)
	}
}

func TestGet(t *testing.T) {
	// Get() returns the process-wide config
	cfg := Get()

	if cfg.Server.Port == 0 {
		t.Error("Expected Get() to return initialized config, got zero values")
	}
}

func TestMustLoad(t *testing.T) {
	// mustLoad should not panic with valid config
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("mustLoad() panicked: %v", r)
		}
	}()

	cfg := mustLoad()

	if cfg.Fetch.MaxCandidates <= 0 {
		t.Error("Expected mustLoad to return valid config with positive MaxCandidates")
	}
}

func TestConfigStringFields(t *testing.T) {
	// Unset translate credentials stay empty
	os.Setenv("TRANSLATE_API_KEY", "")
	os.Setenv("TRANSLATE_MODEL", "")
	defer func() {
		os.Unsetenv("TRANSLATE_API_KEY")
		os.Unsetenv("TRANSLATE_MODEL")
	}()

	cfg, err := load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Translate.APIKey != "" {
		t.Errorf("Expected empty APIKey, got %q", cfg.Translate.APIKey)
	}
	if cfg.Translate.Model != "" {
		t.Errorf("Expected empty Model, got %q", cfg.Translate.Model)
	}
}
