// Package config handles viewer configuration loading and management.
package config

// Config holds all viewer settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Render   RenderConfig   `yaml:"render"`
	Viewer   ViewerConfig   `yaml:"viewer"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GraphicsConfig holds display settings.
type GraphicsConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
	FPSLimit   int  `yaml:"fps_limit"`
}

// RenderConfig holds rendering settings for both splat clouds and meshes.
type RenderConfig struct {
	// BasePointSize scales splat footprints. 1.0 is calibrated so that
	// typical clouds render with solid coverage at framing distance.
	BasePointSize float32 `yaml:"base_point_size"`
	// MaxPoints caps how many splat records are decoded per file.
	// Zero means unlimited.
	MaxPoints  int        `yaml:"max_points"`
	Background [3]float32 `yaml:"background"`
	LightDir   [3]float32 `yaml:"light_dir"`
	Ambient    float32    `yaml:"ambient"`
}

// ViewerConfig holds UI behavior settings.
type ViewerConfig struct {
	ShowFPS   bool `yaml:"show_fps"`
	ShowStats bool `yaml:"show_stats"`
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
			Width:      1280,
			Height:     800,
			Fullscreen: false,
			VSync:      true,
			FPSLimit:   0,
		},
		Render: RenderConfig{
			BasePointSize: 1.0,
			MaxPoints:     0,
			Background:    [3]float32{0.08, 0.08, 0.10},
			LightDir:      [3]float32{0.4, 0.8, 0.45},
			Ambient:       0.25,
		},
		Viewer: ViewerConfig{
			ShowFPS:   false,
			ShowStats: true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
