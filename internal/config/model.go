package config

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Bundle is one bundling profile: a single entry module producing a single
// output artifact.
type Bundle struct {
	// Name identifies the profile in logs and errors.
	Name string
	// Entry is the path of the entry module. Required.
	Entry string
	// Outfile is where the bundle text is written. Empty means standard
	// output.
	Outfile string
	// Dedupe enables the absolute-path memo in the graph builder, so a
	// module imported from several places keeps a single id.
	Dedupe bool
	// Defines maps identifier names to constant values substituted into
	// every module's source during transformation.
	Defines map[string]cty.Value
}

// Model is the complete loaded configuration.
type Model struct {
	Bundles []*Bundle
}

// Validate checks model invariants shared by every loader.
func (m *Model) Validate() error {
	if len(m.Bundles) == 0 {
		return fmt.Errorf("configuration defines no bundle profiles")
	}
	names := make(map[string]bool, len(m.Bundles))
	for _, b := range m.Bundles {
		if b.Entry == "" {
			return fmt.Errorf("bundle %q has no entry module", b.Name)
		}
		if names[b.Name] {
			return fmt.Errorf("duplicate bundle name %q", b.Name)
		}
		names[b.Name] = true
	}
	return nil
}
