// Package definition loads diagrams described in YAML or HCL files and turns
// them into builder calls.
package definition

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ritzau/infra-diagrams/pkg/assets"
	"github.com/ritzau/infra-diagrams/pkg/model"
)

// File is the top level of a definition file.
type File struct {
	Diagrams []*Definition `yaml:"diagrams" hcl:"diagram,block"`
}

// Definition describes one diagram.
type Definition struct {
	Title      string            `yaml:"title" hcl:"title,label"`
	Name       string            `yaml:"name,omitempty" hcl:"name,optional"`
	Direction  string            `yaml:"direction,omitempty" hcl:"direction,optional"`
	GraphAttrs map[string]string `yaml:"graph_attrs,omitempty" hcl:"graph_attrs,optional"`
	NodeAttrs  map[string]string `yaml:"node_attrs,omitempty" hcl:"node_attrs,optional"`
	EdgeAttrs  map[string]string `yaml:"edge_attrs,omitempty" hcl:"edge_attrs,optional"`
	Icons      []*assets.Asset   `yaml:"icons,omitempty" hcl:"icon,block"`
	Nodes      []*NodeDef        `yaml:"nodes,omitempty" hcl:"node,block"`
	Clusters   []*ClusterDef     `yaml:"clusters,omitempty" hcl:"cluster,block"`
	Edges      []*EdgeDef        `yaml:"edges,omitempty" hcl:"edge,block"`

	// Source is the file the definition was loaded from.
	Source string `yaml:"-"`
}

// NodeDef declares a node. ID is how edges refer to it; Label defaults to ID.
// Icon names an entry of Icons or a local image path.
type NodeDef struct {
	ID    string            `yaml:"id" hcl:"id,label"`
	Label string            `yaml:"label,omitempty" hcl:"label,optional"`
	Kind  string            `yaml:"kind,omitempty" hcl:"kind,optional"`
	Icon  string            `yaml:"icon,omitempty" hcl:"icon,optional"`
	Attrs map[string]string `yaml:"attrs,omitempty" hcl:"attrs,optional"`
}

// ClusterDef declares a cluster with its members.
type ClusterDef struct {
	Name     string            `yaml:"name" hcl:"name,label"`
	Attrs    map[string]string `yaml:"attrs,omitempty" hcl:"attrs,optional"`
	Nodes    []*NodeDef        `yaml:"nodes,omitempty" hcl:"node,block"`
	Clusters []*ClusterDef     `yaml:"clusters,omitempty" hcl:"cluster,block"`
}

// EdgeDef connects every node in From to every node in To.
type EdgeDef struct {
	From      IDList            `yaml:"from" hcl:"from"`
	To        IDList            `yaml:"to" hcl:"to"`
	Preset    string            `yaml:"preset,omitempty" hcl:"preset,optional"`
	Label     string            `yaml:"label,omitempty" hcl:"label,optional"`
	Direction string            `yaml:"direction,omitempty" hcl:"direction,optional"` // forward, back or both
	Attrs     map[string]string `yaml:"attrs,omitempty" hcl:"attrs,optional"`
}

// IDList is a list of node IDs. In YAML a single ID may be written as a
// plain scalar.
type IDList []string

func (l *IDList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*l = IDList{value.Value}
		return nil
	}
	var ids []string
	if err := value.Decode(&ids); err != nil {
		return err
	}
	*l = ids
	return nil
}

// FileName is the artifact base name of the diagram.
func (d *Definition) FileName() string {
	if d.Name != "" {
		return d.Name
	}
	return model.FileName(d.Title)
}

// Validate checks what can be checked without building: a title, known edge
// directions and presets, and at least one endpoint per edge side.
func (d *Definition) Validate() error {
	if d.Title == "" {
		return fmt.Errorf("diagram in %s has no title", d.sourceName())
	}
	switch d.Direction {
	case "", "LR", "RL", "TB", "BT":
	default:
		return fmt.Errorf("diagram %q: unknown direction %q", d.Title, d.Direction)
	}
	for i, icon := range d.Icons {
		if icon == nil {
			return fmt.Errorf("diagram %q: icon %d is empty", d.Title, i+1)
		}
		if err := assets.ValidateName(icon.Name); err != nil {
			return fmt.Errorf("diagram %q: icon %d: %w", d.Title, i+1, err)
		}
	}
	for i, n := range d.Nodes {
		if n == nil {
			return fmt.Errorf("diagram %q: node %d is empty", d.Title, i+1)
		}
	}
	for i, c := range d.Clusters {
		if err := validateCluster(c, fmt.Sprintf("cluster %d", i+1)); err != nil {
			return fmt.Errorf("diagram %q: %w", d.Title, err)
		}
	}
	for i, e := range d.Edges {
		if e == nil {
			return fmt.Errorf("diagram %q: edge %d is empty", d.Title, i+1)
		}
		if len(e.From) == 0 || len(e.To) == 0 {
			return fmt.Errorf("diagram %q: edge %d needs both from and to", d.Title, i+1)
		}
		switch e.Direction {
		case "", "forward", "back", "both":
		default:
			return fmt.Errorf("diagram %q: edge %d: unknown direction %q", d.Title, i+1, e.Direction)
		}
	}
	return nil
}

// validateCluster rejects empty entries anywhere below c. at names c by its
// position for error messages.
func validateCluster(c *ClusterDef, at string) error {
	if c == nil {
		return fmt.Errorf("%s is empty", at)
	}
	for i, n := range c.Nodes {
		if n == nil {
			return fmt.Errorf("cluster %q: node %d is empty", c.Name, i+1)
		}
	}
	for i, sub := range c.Clusters {
		if err := validateCluster(sub, fmt.Sprintf("cluster %d", i+1)); err != nil {
			return fmt.Errorf("cluster %q: %w", c.Name, err)
		}
	}
	return nil
}

func (d *Definition) sourceName() string {
	if d.Source == "" {
		return "<input>"
	}
	return d.Source
}
