package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the wrapper looks for its configuration when neither
// the --config flag nor DISPLAY_ENV_WRAPPER_CONFIG is set.
const DefaultPath = "/etc/display-env-wrapper.yaml"

// EnvConfigPath overrides the config file location.
const EnvConfigPath = "DISPLAY_ENV_WRAPPER_CONFIG"

// Config controls the wrapper. Every field is optional; zero values fall
// back to built-in defaults.
type Config struct {
	Debug            bool     `yaml:"debug"`             // enable the file log
	LogDir           string   `yaml:"log_dir"`           // where the rotating log lives
	HomeRoot         string   `yaml:"home_root"`         // candidate users are preferred when they own a directory here
	DefaultDisplay   string   `yaml:"default_display"`   // last-resort DISPLAY value
	DesktopProcesses []string `yaml:"desktop_processes"` // session processes checked for a DISPLAY, in order
}

// defaultDesktopProcesses covers the desktop environments the driver bundle
// is shipped for. Order matters: earlier entries win.
var defaultDesktopProcesses = []string{
	"gnome-session",
	"gnome-shell",
	"cinnamon-session",
	"mate-session",
	"xfce4-session",
	"plasmashell",
	"ksmserver",
	"lxsession",
	"lxqt-session",
	"budgie-wm",
	"deepin-session",
}

// Load reads the configuration from path. An empty path checks
// DISPLAY_ENV_WRAPPER_CONFIG and then the default location. A missing file
// is not an error; a file that fails to parse is.
func Load(path string) (Config, error) {
	cfg := Config{}

	explicit := path != ""
	if path == "" {
		path = os.Getenv(EnvConfigPath)
		explicit = path != ""
	}
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return withDefaults(cfg), nil
		}
		if os.IsNotExist(err) {
			return cfg, fmt.Errorf("config file not found: %s", path)
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return withDefaults(cfg), nil
}

// withDefaults fills unset fields with built-in values.
func withDefaults(cfg Config) Config {
	if cfg.LogDir == "" {
		cfg.LogDir = os.TempDir()
	}
	if cfg.HomeRoot == "" {
		cfg.HomeRoot = "/home"
	}
	if cfg.DefaultDisplay == "" {
		cfg.DefaultDisplay = ":0"
	}
	if len(cfg.DesktopProcesses) == 0 {
		cfg.DesktopProcesses = defaultDesktopProcesses
	}
	return cfg
}
