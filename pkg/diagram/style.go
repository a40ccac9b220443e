package diagram

import (
	"strconv"

	"github.com/ritzau/infra-diagrams/pkg/model"
)

// LineStyle is the Graphviz edge "style" attribute.
type LineStyle string

const (
	Solid  LineStyle = "solid"
	Dashed LineStyle = "dashed"
	Dotted LineStyle = "dotted"
	Bold   LineStyle = "bold"
)

// Preset colors.
const (
	DataColor       = "red"
	MetricsColor    = "orange"
	ManagementColor = "blue"
	SecurityColor   = "blue"
)

// Style is a bundle of edge attributes applied to every edge produced by a
// single Connect call. The zero Style adds no attributes.
type Style struct {
	attrs model.Attrs
}

// StyleOption overrides one attribute of a Style.
type StyleOption func(model.Attrs)

// Color sets the edge color.
func Color(c string) StyleOption {
	return func(a model.Attrs) { a["color"] = c }
}

// Line sets the line style.
func Line(s LineStyle) StyleOption {
	return func(a model.Attrs) { a["style"] = string(s) }
}

// Weight sets the layout weight; heavier edges are kept shorter and straighter.
func Weight(w int) StyleOption {
	return func(a model.Attrs) { a["weight"] = strconv.Itoa(w) }
}

// MinLen sets the minimum rank distance between the endpoints.
func MinLen(n int) StyleOption {
	return func(a model.Attrs) { a["minlen"] = strconv.Itoa(n) }
}

// LabelFloat lets the layout place the label away from the edge.
func LabelFloat() StyleOption {
	return func(a model.Attrs) { a["labelfloat"] = "true" }
}

// Attr sets an arbitrary Graphviz edge attribute.
func Attr(key, value string) StyleOption {
	return func(a model.Attrs) { a[key] = value }
}

func preset(label string, defaults model.Attrs, opts []StyleOption) Style {
	attrs := defaults.Clone()
	if label != "" {
		attrs["label"] = label
	}
	for _, opt := range opts {
		opt(attrs)
	}
	return Style{attrs: attrs}
}

// Plain is an edge with only a label and the caller's options.
func Plain(label string, opts ...StyleOption) Style {
	return preset(label, nil, opts)
}

// Data styles a request/data path: red, solid.
func Data(label string, opts ...StyleOption) Style {
	return preset(label, model.Attrs{"color": DataColor}, opts)
}

// Metrics styles telemetry shipping: orange, dashed.
func Metrics(label string, opts ...StyleOption) Style {
	return preset(label, model.Attrs{"color": MetricsColor, "style": string(Dashed)}, opts)
}

// Management styles control-plane traffic: blue, dotted.
func Management(label string, opts ...StyleOption) Style {
	return preset(label, model.Attrs{"color": ManagementColor, "style": string(Dotted)}, opts)
}

// Security styles policy and mTLS links: blue, dashed.
func Security(label string, opts ...StyleOption) Style {
	return preset(label, model.Attrs{"color": SecurityColor, "style": string(Dashed)}, opts)
}

// Preset looks up a style preset by name ("data", "metrics", "management",
// "security", or "" / "plain").
func Preset(name string) (func(string, ...StyleOption) Style, bool) {
	switch name {
	case "", "plain":
		return Plain, true
	case "data":
		return Data, true
	case "metrics":
		return Metrics, true
	case "management":
		return Management, true
	case "security":
		return Security, true
	}
	return nil, false
}

// With returns a copy of the style with more options applied on top.
func (s Style) With(opts ...StyleOption) Style {
	attrs := s.attrs.Clone()
	for _, opt := range opts {
		opt(attrs)
	}
	return Style{attrs: attrs}
}

// Attrs returns a copy of the style's attributes.
func (s Style) Attrs() model.Attrs {
	return s.attrs.Clone()
}
