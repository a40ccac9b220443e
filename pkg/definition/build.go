package definition

import (
	"fmt"
	"sort"

	"github.com/ritzau/infra-diagrams/pkg/assets"
	"github.com/ritzau/infra-diagrams/pkg/diagram"
	"github.com/ritzau/infra-diagrams/pkg/model"
)

// Assets lists the remote icons the definition needs fetched.
func (d *Definition) Assets() []assets.Asset {
	out := make([]assets.Asset, 0, len(d.Icons))
	for _, a := range d.Icons {
		out = append(out, *a)
	}
	return out
}

type builder struct {
	def   *Definition
	d     *diagram.Diagram
	icons map[string]string
	nodes map[string]*diagram.Node
}

// Build replays the definition against a new diagram. icons maps icon names
// to fetched local paths; a node icon not found there is used as a path.
// Extra options are applied after the definition's own settings.
func Build(def *Definition, icons map[string]string, opts ...diagram.Option) (*diagram.Diagram, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	base := []diagram.Option{
		diagram.WithName(def.FileName()),
		diagram.WithGraphAttrs(model.Attrs(def.GraphAttrs)),
		diagram.WithNodeAttrs(model.Attrs(def.NodeAttrs)),
		diagram.WithEdgeAttrs(model.Attrs(def.EdgeAttrs)),
	}
	if def.Direction != "" {
		base = append(base, diagram.WithDirection(diagram.Direction(def.Direction)))
	}

	b := &builder{
		def:   def,
		d:     diagram.New(def.Title, append(base, opts...)...),
		icons: icons,
		nodes: make(map[string]*diagram.Node),
	}

	for _, n := range def.Nodes {
		if err := b.addNode(b.d.Node, b.d.Custom, n); err != nil {
			return nil, err
		}
	}
	for _, c := range def.Clusters {
		if err := b.d.WithCluster(c.Name, b.fillCluster(c), clusterOptions(c)...); err != nil {
			return nil, fmt.Errorf("diagram %q: cluster %q: %w", def.Title, c.Name, err)
		}
	}
	for i, e := range def.Edges {
		if err := b.addEdge(e); err != nil {
			return nil, fmt.Errorf("diagram %q: edge %d: %w", def.Title, i+1, err)
		}
	}
	return b.d, nil
}

func clusterOptions(c *ClusterDef) []diagram.ClusterOption {
	if len(c.Attrs) == 0 {
		return nil
	}
	return []diagram.ClusterOption{diagram.ClusterAttrs(model.Attrs(c.Attrs))}
}

func (b *builder) fillCluster(def *ClusterDef) func(*diagram.Cluster) error {
	return func(c *diagram.Cluster) error {
		for _, n := range def.Nodes {
			if err := b.addNode(c.Node, c.Custom, n); err != nil {
				return err
			}
		}
		for _, child := range def.Clusters {
			if err := c.WithCluster(child.Name, b.fillCluster(child), clusterOptions(child)...); err != nil {
				return fmt.Errorf("cluster %q: %w", child.Name, err)
			}
		}
		return nil
	}
}

type (
	nodeFunc   func(string, diagram.Kind, ...diagram.NodeOption) (*diagram.Node, error)
	customFunc func(string, string, ...diagram.NodeOption) (*diagram.Node, error)
)

func (b *builder) addNode(node nodeFunc, custom customFunc, def *NodeDef) error {
	if def.ID == "" {
		return fmt.Errorf("node without id")
	}
	if _, dup := b.nodes[def.ID]; dup {
		return fmt.Errorf("duplicate node id %q", def.ID)
	}

	label := def.Label
	if label == "" {
		label = def.ID
	}
	var opts []diagram.NodeOption
	for _, k := range sortedKeys(def.Attrs) {
		opts = append(opts, diagram.NodeAttr(k, def.Attrs[k]))
	}

	var (
		n   *diagram.Node
		err error
	)
	if def.Icon != "" {
		path := def.Icon
		if p, ok := b.icons[def.Icon]; ok {
			path = p
		}
		if def.Kind != "" && diagram.Kind(def.Kind) != diagram.KindCustom {
			n, err = node(label, diagram.Kind(def.Kind), append(opts, diagram.Icon(path))...)
		} else {
			n, err = custom(label, path, opts...)
		}
	} else {
		kind := diagram.Kind(def.Kind)
		if kind == "" {
			kind = diagram.KindServer
		}
		n, err = node(label, kind, opts...)
	}
	if err != nil {
		return fmt.Errorf("node %q: %w", def.ID, err)
	}
	b.nodes[def.ID] = n
	return nil
}

func (b *builder) resolve(ids IDList) (diagram.Group, error) {
	group := make(diagram.Group, 0, len(ids))
	for _, id := range ids {
		n, ok := b.nodes[id]
		if !ok {
			return nil, fmt.Errorf("%w: %q", diagram.ErrUnknownNode, id)
		}
		group = append(group, n)
	}
	return group, nil
}

func (b *builder) addEdge(e *EdgeDef) error {
	from, err := b.resolve(e.From)
	if err != nil {
		return err
	}
	to, err := b.resolve(e.To)
	if err != nil {
		return err
	}

	preset, ok := diagram.Preset(e.Preset)
	if !ok {
		return fmt.Errorf("unknown style preset %q", e.Preset)
	}
	var opts []diagram.StyleOption
	for _, k := range sortedKeys(e.Attrs) {
		opts = append(opts, diagram.Attr(k, e.Attrs[k]))
	}
	style := preset(e.Label, opts...)

	switch e.Direction {
	case "back":
		_, err = b.d.ConnectBack(from, to, style)
	case "both":
		_, err = b.d.ConnectBoth(from, to, style)
	default:
		_, err = b.d.Connect(from, to, style)
	}
	return err
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
