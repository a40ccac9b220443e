package diagram

import (
	"fmt"

	"github.com/ritzau/infra-diagrams/pkg/model"
)

// clusterBackgrounds cycles with nesting depth.
var clusterBackgrounds = []string{"#E5F5FD", "#EBF3E7", "#ECE8F6", "#FDF7E3"}

var defaultClusterAttrs = model.Attrs{
	"shape":     "box",
	"style":     "rounded",
	"labeljust": "l",
	"pencolor":  "#AEB6BE",
	"fontname":  "Sans-Serif",
	"fontsize":  "12",
}

// ClusterOption customizes a cluster at creation.
type ClusterOption func(model.Attrs)

// ClusterAttr sets a Graphviz attribute on the cluster subgraph.
func ClusterAttr(key, value string) ClusterOption {
	return func(a model.Attrs) { a[key] = value }
}

// ClusterAttrs sets several cluster attributes at once.
func ClusterAttrs(attrs model.Attrs) ClusterOption {
	return func(a model.Attrs) {
		for k, v := range attrs {
			a[k] = v
		}
	}
}

// Cluster is a handle to a named group. It accepts new members only while open.
type Cluster struct {
	d      *Diagram
	c      *model.Cluster
	parent *Cluster
	open   bool
}

// Name returns the cluster name.
func (c *Cluster) Name() string { return c.c.Name }

// ID returns the cluster's DOT subgraph identifier.
func (c *Cluster) ID() string { return c.c.ID }

// Parent returns the enclosing cluster, or nil at the diagram root.
func (c *Cluster) Parent() *Cluster { return c.parent }

// Depth is 0 for a top-level cluster.
func (c *Cluster) Depth() int { return c.c.Depth }

// IsOpen reports whether members can still be added.
func (c *Cluster) IsOpen() bool { return c.open }

// Contains reports whether n is nested in c, directly or through sub-clusters.
func (c *Cluster) Contains(n *Node) bool {
	for p := n.parent; p != nil; p = p.parent {
		if p == c {
			return true
		}
	}
	return false
}

func (c *Cluster) checkOpen(op string) error {
	if err := c.d.checkOpen(op); err != nil {
		return err
	}
	if !c.open {
		return fmt.Errorf("%w: %s in closed cluster %q", ErrContext, op, c.c.Name)
	}
	return nil
}

// Node creates a node directly inside this cluster.
func (c *Cluster) Node(label string, kind Kind, opts ...NodeOption) (*Node, error) {
	if err := c.checkOpen("create node"); err != nil {
		return nil, err
	}
	return c.d.newNode(c, label, kind, opts)
}

// Custom creates a node inside this cluster drawn with the icon at iconPath.
func (c *Cluster) Custom(label, iconPath string, opts ...NodeOption) (*Node, error) {
	return c.Node(label, KindCustom, append([]NodeOption{Icon(iconPath)}, opts...)...)
}

// OpenCluster opens a sub-cluster directly inside this cluster.
func (c *Cluster) OpenCluster(name string, opts ...ClusterOption) (*Cluster, error) {
	if err := c.checkOpen("open cluster"); err != nil {
		return nil, err
	}
	return c.d.openCluster(c, name, opts)
}

// WithCluster is the scoped form of OpenCluster; see Diagram.WithCluster.
func (c *Cluster) WithCluster(name string, fn func(*Cluster) error, opts ...ClusterOption) error {
	sub, err := c.OpenCluster(name, opts...)
	if err != nil {
		return err
	}
	return sub.run(fn)
}

// Close closes the cluster and any of its sub-clusters that are still open.
// Closing twice is a no-op.
func (c *Cluster) Close() {
	if !c.open {
		return
	}
	kept := c.d.stack[:0]
	for _, open := range c.d.stack {
		if open == c || open.within(c) {
			open.open = false
			continue
		}
		kept = append(kept, open)
	}
	c.d.stack = kept
}

func (c *Cluster) within(ancestor *Cluster) bool {
	for p := c.parent; p != nil; p = p.parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

func (c *Cluster) run(fn func(*Cluster) error) (err error) {
	defer func() {
		c.Close()
		if r := recover(); r != nil {
			c.d.fail(fmt.Errorf("cluster %q: panic: %v", c.c.Name, r))
			panic(r)
		}
		if err != nil {
			c.d.fail(err)
		}
	}()
	return fn(c)
}

func (d *Diagram) openCluster(parent *Cluster, name string, opts []ClusterOption) (*Cluster, error) {
	d.nextCluster++
	depth := 0
	mc := &model.Cluster{
		ID:   clusterID(d.nextCluster),
		Name: name,
	}
	if parent != nil {
		depth = parent.c.Depth + 1
		mc.Parent = parent.c.ID
	}
	mc.Depth = depth

	attrs := defaultClusterAttrs.Merge(model.Attrs{
		"bgcolor": clusterBackgrounds[depth%len(clusterBackgrounds)],
	})
	for _, opt := range opts {
		opt(attrs)
	}
	mc.Attrs = attrs

	if err := d.graph.AddCluster(mc); err != nil {
		return nil, err
	}

	c := &Cluster{d: d, c: mc, parent: parent, open: true}
	d.stack = append(d.stack, c)
	return c, nil
}
