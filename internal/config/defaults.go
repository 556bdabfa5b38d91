package config

// DefaultMaxUploadBytes is the upload cap applied by the HTTP server.
const DefaultMaxUploadBytes = 32 << 20

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
		if cfg.Debug {
			cfg.Log.Level = "debug"
		}
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".xlsx", ".xls"}
	}
	if cfg.Watch.OutputDir == "" {
		cfg.Watch.OutputDir = "./extracted"
	}
	if cfg.Watch.Workers <= 0 {
		cfg.Watch.Workers = 4
	}
}
