// Package config handles renderer configuration loading and management.
package config

// Config holds all renderer settings.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Render  RenderConfig  `yaml:"render"`
	Camera  CameraConfig  `yaml:"camera"`
	Light   LightConfig   `yaml:"light"`
	Loading LoadingConfig `yaml:"loading"`
	Logging LoggingConfig `yaml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
}

// RenderConfig holds per-frame rendering limits.
type RenderConfig struct {
	TasksPerFrame   int        `yaml:"tasks_per_frame"`   // async picking budget
	MaxTextureUnits int        `yaml:"max_texture_units"` // clamped to the GL limit at startup
	ClearColor      [4]float32 `yaml:"clear_color"`
	ScreenshotDir   string     `yaml:"screenshot_dir"`
}

// CameraConfig holds the orbit camera settings.
type CameraConfig struct {
	FOV         float32 `yaml:"fov"` // degrees
	Near        float32 `yaml:"near"`
	Far         float32 `yaml:"far"`
	Distance    float32 `yaml:"distance"`
	RotateSpeed float32 `yaml:"rotate_speed"`
	ZoomSpeed   float32 `yaml:"zoom_speed"`
}

// LightConfig holds the directional sun light.
type LightConfig struct {
	Longitude float32    `yaml:"longitude"` // degrees around Y
	Latitude  float32    `yaml:"latitude"`  // degrees above the horizon
	Color     [3]float32 `yaml:"color"`
	Ambient   float32    `yaml:"ambient"`
}

// LoadingConfig holds template loading settings.
type LoadingConfig struct {
	Workers       int               `yaml:"workers"`
	DetectWorkers bool              `yaml:"detect_workers"` // use one worker per CPU
	Parallel      bool              `yaml:"parallel"`
	Models        map[string]string `yaml:"models"` // template id -> file path
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	LogFile    string `yaml:"log_file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
	Quiet      bool   `yaml:"quiet"` // disable console output
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "Bluebear",
			Width:  1024,
			Height: 768,
			VSync:  true,
		},
		Render: RenderConfig{
			TasksPerFrame:   3000,
			MaxTextureUnits: 16,
			ClearColor:      [4]float32{0.1, 0.1, 0.12, 1},
			ScreenshotDir:   "screenshots",
		},
		Camera: CameraConfig{
			FOV:         45,
			Near:        0.1,
			Far:         1000,
			Distance:    10,
			RotateSpeed: 0.3,
			ZoomSpeed:   1,
		},
		Light: LightConfig{
			Longitude: 45,
			Latitude:  45,
			Color:     [3]float32{1, 1, 1},
			Ambient:   0.25,
		},
		Loading: LoadingConfig{
			Workers:  2,
			Parallel: true,
			Models:   map[string]string{},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
