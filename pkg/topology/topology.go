// Package topology holds the built-in Sponsored Agent Service diagrams.
package topology

import (
	"fmt"
	"sort"

	"github.com/ritzau/infra-diagrams/pkg/assets"
	"github.com/ritzau/infra-diagrams/pkg/diagram"
	"github.com/ritzau/infra-diagrams/pkg/model"
)

// EnvoyIcon is the custom logo used for the envoy proxies.
var EnvoyIcon = assets.Asset{
	Name: "envoy.png",
	URL:  "https://icon.icepanel.io/Technology/png-512/Envoy.png",
}

// Layout settings shared by both variants.
var (
	graphAttrs = model.Attrs{"concentrate": "false", "splines": "spline"}
	edgeAttrs  = model.Attrs{"minlen": "2"}
)

// Example is a diagram that ships with the tool.
type Example struct {
	Name  string
	Title string
	Icons []assets.Asset

	variant variant
}

// Build declares the example on a fresh diagram. icons maps asset names to
// local paths as returned by assets.Fetcher.FetchAll.
func (e Example) Build(icons map[string]string, opts ...diagram.Option) (*diagram.Diagram, error) {
	envoy, ok := icons[EnvoyIcon.Name]
	if !ok {
		return nil, fmt.Errorf("example %s: icon %s has not been fetched", e.Name, EnvoyIcon.Name)
	}
	base := []diagram.Option{
		diagram.WithDirection(diagram.LeftToRight),
		diagram.WithGraphAttrs(graphAttrs),
		diagram.WithEdgeAttrs(edgeAttrs),
	}
	d := diagram.New(e.Title, append(base, opts...)...)
	if err := sponsoredAgent(d, envoy, e.variant); err != nil {
		return nil, fmt.Errorf("example %s: %w", e.Name, err)
	}
	return d, nil
}

var examples = map[string]Example{
	"sponsored-agent": {
		Name:  "sponsored-agent",
		Title: "Sponsored Agent Service",
		Icons: []assets.Asset{EnvoyIcon},
	},
	"sponsored-agent-mtls": {
		Name:    "sponsored-agent-mtls",
		Title:   "Sponsored Agent Service mTLS",
		Icons:   []assets.Asset{EnvoyIcon},
		variant: variant{securityPresets: true},
	},
}

// Examples returns the built-in diagrams sorted by name.
func Examples() []Example {
	out := make([]Example, 0, len(examples))
	for _, e := range examples {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup finds a built-in diagram by name.
func Lookup(name string) (Example, bool) {
	e, ok := examples[name]
	return e, ok
}
