package config

import "sort"

// Presets tweak DefaultConfig for common sessions.
var Presets = map[string]func(*Config){
	"default": func(*Config) {},
	"gentle": func(c *Config) {
		c.Heading.Kp = 2.0
		c.Heading.MaxPointingRate = 1.0
		c.Drive.MaxSpeed = 2.0
	},
	"aggressive": func(c *Config) {
		c.Heading.Kp = 8.0
		c.Heading.Kd = 0.2
	},
	"red": func(c *Config) {
		c.Match.Alliance = "red"
	},
	"velocity": func(c *Config) {
		c.Drive.DriveRequest = "velocity"
		c.Drive.SteerRequest = "motion_magic_expo"
	},
	"hardware": func(c *Config) {
		c.CAN.Enabled = true
		c.Telemetry.Influx.Enabled = true
		c.Telemetry.Log = true
		c.Sim.Duration = 0
	},
}

// GetPreset returns DefaultConfig with the named preset applied, or nil.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
