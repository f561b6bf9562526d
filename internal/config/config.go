// Package config loads the demo CLI's on-disk TOML configuration into a
// manager.Config, the way the teacher's command-line tools load their own
// settings before constructing a client/session.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/bcolloran/temporal-input-buffer/manager"
)

// File is the on-disk shape of the demo CLI's config file.
type File struct {
	OutboundWindowTicks       uint16
	RetainTicksBehindFrontier uint32
	EWMAAlpha                 float64
}

// Load parses path as TOML and returns the equivalent manager.Config.
// Fields left at their zero value fall back to manager.DefaultConfig's
// values, same as constructing a manager.Config by hand.
func Load(path string) (manager.Config, error) {
	var f File
	meta, err := toml.DecodeFile(path, &f)
	if err != nil {
		return manager.Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if u := meta.Undecoded(); len(u) > 0 {
		return manager.Config{}, fmt.Errorf("config: %s: unrecognized keys: %v", path, u)
	}
	return manager.Config{
		OutboundWindowTicks:       f.OutboundWindowTicks,
		RetainTicksBehindFrontier: f.RetainTicksBehindFrontier,
		EWMAAlpha:                 f.EWMAAlpha,
	}, nil
}
