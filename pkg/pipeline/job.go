package pipeline

import (
	"github.com/ritzau/infra-diagrams/pkg/assets"
	"github.com/ritzau/infra-diagrams/pkg/definition"
	"github.com/ritzau/infra-diagrams/pkg/diagram"
	"github.com/ritzau/infra-diagrams/pkg/topology"
)

// Job is one diagram to produce, whatever declared it.
type Job struct {
	Name   string // registry or file name, used in logs and the preview
	Title  string
	Source string // definition file, empty for built-in examples
	Icons  []assets.Asset
	Build  func(icons map[string]string, opts ...diagram.Option) (*diagram.Diagram, error)
}

// FromExample wraps a built-in diagram.
func FromExample(e topology.Example) Job {
	return Job{
		Name:  e.Name,
		Title: e.Title,
		Icons: e.Icons,
		Build: e.Build,
	}
}

// FromDefinition wraps a diagram loaded from a file.
func FromDefinition(d *definition.Definition) Job {
	return Job{
		Name:   d.FileName(),
		Title:  d.Title,
		Source: d.Source,
		Icons:  d.Assets(),
		Build: func(icons map[string]string, opts ...diagram.Option) (*diagram.Diagram, error) {
			return definition.Build(d, icons, opts...)
		},
	}
}
