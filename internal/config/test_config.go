package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	cfg := defaultConfig()
	cfg.Database = DatabaseConfig{
		Timeout: 1 * time.Second,
	}
	cfg.API.BaseURL = "http://127.0.0.1"
	cfg.API.ClientID = "test-client"
	cfg.API.HTTPTimeout = 5 * time.Second
	cfg.API.UserAgent = "kiroku-test/1.0"
	cfg.Navigation = NavigationConfig{StackLimit: 15, Workers: 1, QueueSize: 8}
	cfg.Search = SearchConfig{Enabled: true}
	cfg.News.Enabled = false
	cfg.Log = LogConfig{Level: "off"}
	return cfg
}
