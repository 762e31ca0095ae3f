package config

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Module types accepted in controllers[].module.type.
const (
	ModulePreview = "preview"
	ModuleArtNet  = "artnet"
	ModuleRenard  = "renard"
	ModuleMQTT    = "mqtt"
	ModulePixel   = "pixel"
	ModuleMIDI    = "midi"
)

var moduleTypes = map[string]bool{
	ModulePreview: true,
	ModuleArtNet:  true,
	ModuleRenard:  true,
	ModuleMQTT:    true,
	ModulePixel:   true,
	ModuleMIDI:    true,
}

// OutputConfig contains settings shared by every device update thread.
type OutputConfig struct {
	// JitterThresholdMS is the tick drift, in milliseconds, above which a
	// tick is logged as jitter. Default: 10
	JitterThresholdMS int `yaml:"jitter_threshold_ms"`

	// StopTimeoutMS bounds how long shutdown waits for each device loop.
	// Default: 4000
	StopTimeoutMS int `yaml:"stop_timeout_ms"`

	// FilterEvaluation switches post filters on or off process-wide.
	// Default: true
	FilterEvaluation bool `yaml:"filter_evaluation"`

	// PublishInterval is how often instrumentation is written to InfluxDB,
	// in seconds. Default: 10
	PublishInterval int `yaml:"publish_interval"`

	// LiveIntents enables the MQTT live intent subscription. Default: true
	LiveIntents bool `yaml:"live_intents"`
}

// JitterThreshold returns the jitter threshold as a Duration.
func (o OutputConfig) JitterThreshold() time.Duration {
	return time.Duration(o.JitterThresholdMS) * time.Millisecond
}

// StopTimeout returns the stop timeout as a Duration.
func (o OutputConfig) StopTimeout() time.Duration {
	return time.Duration(o.StopTimeoutMS) * time.Millisecond
}

// PublishEvery returns the instrumentation publish interval as a Duration.
func (o OutputConfig) PublishEvery() time.Duration {
	return time.Duration(o.PublishInterval) * time.Second
}

func (o OutputConfig) validate() []string {
	var errs []string
	if o.JitterThresholdMS < 0 {
		errs = append(errs, "output.jitter_threshold_ms must not be negative")
	}
	if o.StopTimeoutMS < 0 {
		errs = append(errs, "output.stop_timeout_ms must not be negative")
	}
	if o.PublishInterval < 0 {
		errs = append(errs, "output.publish_interval must not be negative")
	}
	return errs
}

// ControllerConfig describes one output controller.
type ControllerConfig struct {
	// ID is optional; when empty the id is derived from the name.
	ID   string `yaml:"id"`
	Name string `yaml:"name"`

	// Outputs is the fixed number of outputs.
	Outputs int `yaml:"outputs"`

	// ChainAfter names (by name or id) the prior controller. Chained
	// controllers share the root's module and must not declare one.
	ChainAfter string `yaml:"chain_after,omitempty"`

	// DataPolicy is the default policy: intensity8, intensity16 or color.
	DataPolicy string `yaml:"data_policy"`

	Module  ModuleConfig  `yaml:"module"`
	Patches []PatchConfig `yaml:"patches"`
}

// ModuleConfig configures the output module of a root controller. Only the
// fields of the selected type are read.
type ModuleConfig struct {
	Type       string `yaml:"type"`
	IntervalMS int    `yaml:"interval_ms"`

	// artnet
	Target   string `yaml:"target,omitempty"`
	Universe int    `yaml:"universe,omitempty"`

	// renard (baud defaults to 57600, 8N1)
	Device string `yaml:"device,omitempty"`
	Baud   int    `yaml:"baud,omitempty"`

	// pixel (spi port name) and midi (output port substring)
	Port         string `yaml:"port,omitempty"`
	NumPixels    int    `yaml:"num_pixels,omitempty"`
	FrequencyKHz int    `yaml:"frequency_khz,omitempty"`

	// mqtt
	QoS      int  `yaml:"qos,omitempty"`
	Retained bool `yaml:"retained,omitempty"`
}

// Interval returns the module tick period; zero means the module default.
func (m ModuleConfig) Interval() time.Duration {
	return time.Duration(m.IntervalMS) * time.Millisecond
}

// PatchConfig binds channels, an optional policy override and post filters
// to one output.
type PatchConfig struct {
	Output     int            `yaml:"output"`
	Channels   []string       `yaml:"channels"`
	DataPolicy string         `yaml:"data_policy,omitempty"`
	Filters    []FilterConfig `yaml:"filters,omitempty"`
}

// FilterConfig configures one post filter.
type FilterConfig struct {
	Type   string             `yaml:"type"`
	Params map[string]float64 `yaml:"params,omitempty"`
}

// validateControllers checks structure only; policy and filter names are
// resolved, and reported, when the controllers are built.
func validateControllers(controllers []ControllerConfig) []string {
	var errs []string
	known := make(map[string]int, len(controllers)*2)
	for i, c := range controllers {
		if c.Name == "" {
			errs = append(errs, fmt.Sprintf("controllers[%d].name is required", i))
			continue
		}
		if _, dup := known[c.Name]; dup {
			errs = append(errs, fmt.Sprintf("controllers[%d].name %q is duplicated", i, c.Name))
		}
		known[c.Name] = i
		if c.ID != "" {
			if _, err := uuid.Parse(c.ID); err != nil {
				errs = append(errs, fmt.Sprintf("controllers[%d].id is not a uuid", i))
			}
			known[c.ID] = i
		}
	}

	for i, c := range controllers {
		prefix := fmt.Sprintf("controllers[%d]", i)
		if c.Outputs < 1 {
			errs = append(errs, prefix+".outputs must be at least 1")
		}

		if c.ChainAfter != "" {
			if c.Module.Type != "" {
				errs = append(errs, prefix+".module must be empty for a chained controller")
			}
			if j, ok := known[c.ChainAfter]; !ok {
				errs = append(errs, fmt.Sprintf("%s.chain_after %q is not a controller", prefix, c.ChainAfter))
			} else if j == i {
				errs = append(errs, prefix+".chain_after refers to itself")
			}
		} else if !moduleTypes[c.Module.Type] {
			errs = append(errs, fmt.Sprintf("%s.module.type %q is not supported", prefix, c.Module.Type))
		} else {
			errs = append(errs, validateModule(prefix, c.Module)...)
		}

		for j, p := range c.Patches {
			if p.Output < 0 || p.Output >= c.Outputs {
				errs = append(errs, fmt.Sprintf("%s.patches[%d].output %d is out of range", prefix, j, p.Output))
			}
			for _, ch := range p.Channels {
				if _, err := uuid.Parse(ch); err != nil {
					errs = append(errs, fmt.Sprintf("%s.patches[%d] channel %q is not a uuid", prefix, j, ch))
				}
			}
		}
	}
	return errs
}

func validateModule(prefix string, m ModuleConfig) []string {
	var errs []string
	if m.IntervalMS < 0 {
		errs = append(errs, prefix+".module.interval_ms must not be negative")
	}
	switch m.Type {
	case ModuleArtNet:
		if m.Target == "" {
			errs = append(errs, prefix+".module.target is required for artnet")
		}
		if m.Universe < 0 || m.Universe > 0x7FFF {
			errs = append(errs, prefix+".module.universe must be between 0 and 32767")
		}
	case ModuleRenard:
		if m.Device == "" {
			errs = append(errs, prefix+".module.device is required for renard")
		}
		if m.Baud < 0 {
			errs = append(errs, prefix+".module.baud must not be negative")
		}
	case ModulePixel:
		if m.NumPixels < 1 {
			errs = append(errs, prefix+".module.num_pixels must be at least 1")
		}
	case ModuleMIDI:
		if m.Port == "" {
			errs = append(errs, prefix+".module.port is required for midi")
		}
	case ModuleMQTT:
		if m.QoS < 0 || m.QoS > 2 {
			errs = append(errs, prefix+".module.qos must be 0, 1, or 2")
		}
	}
	return errs
}
