package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/golang/glog"
	"gopkg.in/yaml.v3"

	"github.com/robotalks/lgap.go/pkg/lgap"
	"github.com/robotalks/lgap.go/pkg/zone"
)

// ZoneConfig defines a zone in the zones file.
type ZoneConfig struct {
	ID   int    `yaml:"id" toml:"id"`
	Name string `yaml:"name,omitempty" toml:"name"`
	// Payload is the hex encoded initial payload, spaces allowed.
	Payload string `yaml:"payload,omitempty" toml:"payload"`
}

type zonesFile struct {
	Zones []ZoneConfig `yaml:"zones" toml:"zones"`
}

// LoadZones reads a zones file, the format is chosen by extension.
func LoadZones(path string) ([]ZoneConfig, error) {
	var f zonesFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		md, err := toml.DecodeFile(path, &f)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if !md.IsDefined("zones") {
			glog.Warningf("%s: no zones defined", path)
		}
		for _, key := range md.Undecoded() {
			glog.Warningf("%s: unknown key %s", path, key)
		}
	default:
		return nil, fmt.Errorf("%s: unsupported zones file format %q", path, ext)
	}
	return f.Zones, nil
}

// DecodePayload decodes a hex payload, spaces and colons are ignored.
func DecodePayload(s string) ([]byte, error) {
	s = strings.NewReplacer(" ", "", ":", "").Replace(s)
	p, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(p) > lgap.PayloadSize {
		return nil, fmt.Errorf("payload of %d bytes exceeds %d", len(p), lgap.PayloadSize)
	}
	return p, nil
}

func validateZones(zones []ZoneConfig) []error {
	var errs []error
	seen := make(map[int]bool)
	for n, z := range zones {
		switch {
		case z.ID < lgap.InvalidZone || z.ID > 255:
			errs = append(errs, fmt.Errorf("zone[%d]: id %d out of range", n, z.ID))
		case z.ID != lgap.InvalidZone && seen[z.ID]:
			errs = append(errs, fmt.Errorf("zone[%d]: duplicated id %d", n, z.ID))
		}
		seen[z.ID] = true
		if _, err := DecodePayload(z.Payload); err != nil {
			errs = append(errs, fmt.Errorf("zone[%d]: payload: %w", n, err))
		}
	}
	return errs
}

// BuildZones creates the zones in configured order.
func (c *Config) BuildZones() (zone.List, error) {
	zones := make(zone.List, 0, len(c.Zones))
	for _, zc := range c.Zones {
		payload, err := DecodePayload(zc.Payload)
		if err != nil {
			return nil, fmt.Errorf("zone %d: %w", zc.ID, err)
		}
		zones = append(zones, zone.New(zc.ID, zc.Name).WithPayload(payload))
	}
	return zones, nil
}
