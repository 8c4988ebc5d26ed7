package config

// loadDevelopmentConfig fills in whatever a local checkout needs to boot
// without any config file or environment.
func loadDevelopmentConfig(cfg *Config) {
	cfg.DatabaseDebug = true
	if cfg.DatabaseFilePath == "" {
		cfg.DatabaseFilePath = "./tmp/libracat.sqlite"
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "development-secret"
	}
	cfg.ServerHost = "127.0.0.1"
	cfg.UploadDir = "./tmp/uploads"
}
