// Package config handles terrain-viewer configuration loading and management.
package config

// Config holds all viewer settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Terrain  TerrainConfig  `yaml:"terrain"`
	Data     DataConfig     `yaml:"data"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DataConfig holds data-file locations.
type DataConfig struct {
	MapDir string `yaml:"map_dir"` // directory containing map.json, hf.cell, and texture-quadtree files
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
	ShowFPS    bool `yaml:"show_fps"`

	// VAOCapacity and TextureCapacity bound the working set of GPU
	// resources rescache hands out; exceeding either is a fatal
	// programmer/content error (the scene needs more concurrently
	// visible chunks than the cache was sized for).
	VAOCapacity     int `yaml:"vao_capacity"`
	TextureCapacity int `yaml:"texture_capacity"`
}

// TerrainConfig holds LOD-selection and morph tuning parameters that the
// spec calls out as deliberately left configurable rather than fixed.
type TerrainConfig struct {
	ErrorLimit  float32 `yaml:"error_limit"`  // initial screen-space error tolerance, in pixels
	MorphTime   float32 `yaml:"morph_time"`   // seconds a LOD transition takes to blend
	FrustumBias float64 `yaml:"frustum_bias"` // side-plane construction bias (see Frustum design note)
	RainStep    int     `yaml:"rain_step"`    // particle index step used by the rain pass
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:           1280,
			Height:          720,
			Fullscreen:      false,
			VSync:           true,
			ShowFPS:         false,
			VAOCapacity:     512,
			TextureCapacity: 256,
		},
		Terrain: TerrainConfig{
			ErrorLimit:  2.0,
			MorphTime:   2.5,
			FrustumBias: 0.18,
			RainStep:    1,
		},
		Data: DataConfig{
			MapDir: "maps/default",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
