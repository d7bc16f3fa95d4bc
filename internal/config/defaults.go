package config

// Assistant providers.
const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = MemoryDatabase
	}
	if cfg.Platform.TimeoutSeconds == 0 {
		cfg.Platform.TimeoutSeconds = 300
	}

	v := &cfg.Velocity
	if v.Collection == "" {
		v.Collection = "COPERNICUS/S2_SR_HARMONIZED"
	}
	if v.CloudProperty == "" {
		v.CloudProperty = "CLOUDY_PIXEL_PERCENTAGE"
	}
	if v.Band == "" {
		v.Band = "B8"
	}
	if v.MaskCollection == "" {
		v.MaskCollection = "GLIMS/20230607"
	}
	if v.ToleranceDays == 0 {
		v.ToleranceDays = 30
	}
	if v.CloudTolerance == 0 {
		v.CloudTolerance = 20
	}
	if v.WidenedCloudTolerance == 0 {
		v.WidenedCloudTolerance = 40
	}
	if v.MaxOffsetMeters == 0 {
		v.MaxOffsetMeters = 100
	}
	if v.ScaleMeters == 0 {
		v.ScaleMeters = 100
	}
	if v.ArchiveStart == "" {
		v.ArchiveStart = "2017-03-28"
	}
	if v.DefaultWindowSize == 0 {
		v.DefaultWindowSize = 256
	}
	if v.MinWindowSize == 0 {
		v.MinWindowSize = 32
	}
	if v.MaxWindowSize == 0 {
		v.MaxWindowSize = 1024
	}

	c := &cfg.Climate
	if c.Dataset == "" {
		c.Dataset = "NASA/FLDAS/NOAH01/C/GL/M/V001"
	}
	if c.MaskCollection == "" {
		c.MaskCollection = "GLIMS/20230607"
	}
	if c.ArchiveStart == "" {
		c.ArchiveStart = "1982-01-01"
	}
	if c.ArchiveEnd == "" {
		c.ArchiveEnd = "2023-12-31"
	}
	if c.ScaleMeters == 0 {
		c.ScaleMeters = 1000
	}
	if c.CacheSize == 0 {
		c.CacheSize = 64
	}
	if c.CacheTTLMinutes == 0 {
		c.CacheTTLMinutes = 60
	}

	a := &cfg.Assistant
	if a.Provider == "" {
		a.Provider = ProviderGemini
	}
	if a.Model == "" {
		if a.Provider == ProviderOllama {
			a.Model = "llama3.2"
		} else {
			a.Model = "gemini-1.5-flash"
		}
	}
	if a.TimeoutSeconds == 0 {
		a.TimeoutSeconds = 120
	}
}
