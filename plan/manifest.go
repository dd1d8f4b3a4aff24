package plan

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/wippyai/ffi-bridge/errors"
	"github.com/wippyai/ffi-bridge/foreign"
)

// ManifestFile is the file name LoadManifest looks for in a directory.
const ManifestFile = "bridge.toml"

// Manifest is a bridge.toml description of a bridge.
type Manifest struct {
	Bridge    Settings       `toml:"bridge"`
	Runtime   foreign.Config `toml:"runtime"`
	Opaques   []Opaque       `toml:"opaque"`
	Functions []Function     `toml:"function"`

	// Path is the file the manifest was loaded from.
	Path string `toml:"-"`
}

// Settings names the bridge.
type Settings struct {
	Name    string `toml:"name"`
	Package string `toml:"package"`
}

// Opaque declares a type that crosses the boundary only by address.
type Opaque struct {
	Name         string   `toml:"name"`
	Key          []string `toml:"key"`
	Equatable    bool     `toml:"equatable"`
	Hashable     bool     `toml:"hashable"`
	Sendable     bool     `toml:"sendable"`
	Vectorizable bool     `toml:"vectorizable"`
}

// Function declares a bridged function as "name: func(a: T, ...) -> R".
type Function struct {
	Signature string `toml:"signature"`
	Async     bool   `toml:"async"`
}

// LoadManifest reads a manifest from path, or from bridge.toml inside path
// when it is a directory.
func LoadManifest(path string) (*Manifest, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, ManifestFile)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err, "read "+path)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.Path = path
	return m, nil
}

// ParseManifest decodes and validates manifest text. Unknown keys are
// rejected.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, errors.ParseFailed("manifest", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Detail("unknown manifest key %q", undecoded[0].String()).
			Build()
	}
	m.Runtime = m.Runtime.WithDefaults()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks declarations for consistency.
func (m *Manifest) Validate() error {
	if err := m.Runtime.Validate(); err != nil {
		return err
	}
	seen := make(map[string]bool)
	for _, o := range m.Opaques {
		switch {
		case o.Name == "":
			return errors.InvalidInput(errors.PhaseConfig, "opaque type without a name")
		case seen[o.Name]:
			return errors.InvalidInput(errors.PhaseConfig, "opaque type "+o.Name+" declared twice")
		case builtinName(o.Name):
			return errors.InvalidInput(errors.PhaseConfig, "opaque type "+o.Name+" shadows a built-in type")
		case o.Hashable && !o.Equatable:
			return errors.InvalidInput(errors.PhaseConfig, "opaque type "+o.Name+" is hashable but not equatable")
		}
		seen[o.Name] = true
	}
	for i, f := range m.Functions {
		if f.Signature == "" {
			return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
				Detail("function %d has no signature", i).
				Build()
		}
	}
	return nil
}

// Opaque returns the declaration of name.
func (m *Manifest) Opaque(name string) (Opaque, bool) {
	for _, o := range m.Opaques {
		if o.Name == name {
			return o, true
		}
	}
	return Opaque{}, false
}
