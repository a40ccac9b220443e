package diagram

import (
	"github.com/ritzau/infra-diagrams/pkg/model"
)

// Kind identifies what a node depicts and, through an IconResolver, which
// icon it is drawn with.
type Kind string

const (
	KindUsers        Kind = "users"
	KindServer       Kind = "server"
	KindDatabase     Kind = "database"
	KindCDN          Kind = "cdn"
	KindArmor        Kind = "armor"
	KindLoadBalancer Kind = "load-balancer"
	KindServiceMesh  Kind = "service-mesh"
	KindK8sService   Kind = "k8s-service"
	KindPod          Kind = "pod"
	KindReplicaSet   Kind = "replicaset"
	KindDeployment   Kind = "deployment"
	KindHPA          Kind = "hpa"
	KindAgent        Kind = "elastic-agent"
	KindStack        Kind = "elastic-stack"
	KindWorkflows    Kind = "workflows"
	KindMessaging    Kind = "messaging"
	KindCustom       Kind = "custom"
)

// fallbackShapes draws known kinds without an icon.
var fallbackShapes = map[Kind]model.Attrs{
	KindUsers:        {"shape": "egg"},
	KindDatabase:     {"shape": "cylinder"},
	KindCDN:          {"shape": "hexagon"},
	KindArmor:        {"shape": "octagon"},
	KindLoadBalancer: {"shape": "diamond"},
	KindServiceMesh:  {"shape": "doublecircle", "fixedsize": "false"},
	KindPod:          {"shape": "component"},
	KindReplicaSet:   {"shape": "box3d"},
	KindDeployment:   {"shape": "folder"},
	KindHPA:          {"shape": "invtrapezium"},
	KindStack:        {"shape": "cylinder"},
	KindMessaging:    {"shape": "note"},
}

// IconResolver maps a kind to a local icon file. An empty result means the
// kind is drawn with a fallback shape.
type IconResolver func(Kind) string

// NodeOption customizes a node at creation.
type NodeOption func(*model.Node)

// Icon draws the node with the image at path instead of a shape.
func Icon(path string) NodeOption {
	return func(n *model.Node) { n.Icon = path }
}

// NodeAttr sets an arbitrary Graphviz node attribute.
func NodeAttr(key, value string) NodeOption {
	return func(n *model.Node) { n.Attrs[key] = value }
}

// Node is a handle to a node registered in a diagram.
type Node struct {
	d      *Diagram
	n      *model.Node
	parent *Cluster
}

// ID returns the node's DOT identifier.
func (n *Node) ID() string { return n.n.ID }

// Label returns the display label.
func (n *Node) Label() string { return n.n.Label }

// Kind returns what the node depicts.
func (n *Node) Kind() Kind { return Kind(n.n.Kind) }

// Parent returns the immediately-enclosing cluster, or nil at the diagram root.
func (n *Node) Parent() *Cluster { return n.parent }

func (n *Node) nodes() []*Node { return []*Node{n} }

// Group is an ordered list of nodes used as one side of a fan-out or fan-in.
type Group []*Node

func (g Group) nodes() []*Node { return g }

// Endpoint is either a *Node or a Group.
type Endpoint interface {
	nodes() []*Node
}

func (d *Diagram) newNode(parent *Cluster, label string, kind Kind, opts []NodeOption) (*Node, error) {
	d.nextNode++
	mn := &model.Node{
		ID:    nodeID(d.nextNode),
		Label: label,
		Kind:  string(kind),
		Attrs: make(model.Attrs),
	}
	if parent != nil {
		mn.Parent = parent.c.ID
	}
	if d.icons != nil {
		mn.Icon = d.icons(kind)
	}
	for _, opt := range opts {
		opt(mn)
	}
	mn.Attrs = nodeAttrs(mn)

	if err := d.graph.AddNode(mn); err != nil {
		return nil, err
	}
	return &Node{d: d, n: mn, parent: parent}, nil
}

// nodeAttrs layers the icon or fallback shape under the caller's attributes.
func nodeAttrs(n *model.Node) model.Attrs {
	var base model.Attrs
	if n.Icon != "" {
		base = model.Attrs{"shape": "none", "height": "1.9", "image": n.Icon}
	} else {
		base = fallbackShapes[Kind(n.Kind)]
	}
	return base.Merge(n.Attrs)
}
