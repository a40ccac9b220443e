package topology

import (
	"github.com/ritzau/infra-diagrams/pkg/diagram"
)

// variant captures the styling differences between the two examples.
type variant struct {
	// securityPresets draws the mesh-to-proxy links with the security
	// preset instead of management, and the mTLS link with the preset
	// rather than inline attributes.
	securityPresets bool
}

// decl stops at the first failed builder call so the declaration below
// reads like the diagram it describes.
type decl struct {
	d   *diagram.Diagram
	err error
}

func (b *decl) node(parent *diagram.Cluster, label string, kind diagram.Kind) *diagram.Node {
	if b.err != nil {
		return nil
	}
	var n *diagram.Node
	if parent != nil {
		n, b.err = parent.Node(label, kind)
	} else {
		n, b.err = b.d.Node(label, kind)
	}
	return n
}

func (b *decl) custom(parent *diagram.Cluster, label, icon string) *diagram.Node {
	if b.err != nil {
		return nil
	}
	var n *diagram.Node
	n, b.err = parent.Custom(label, icon)
	return n
}

func (b *decl) connect(src, dst diagram.Endpoint, style diagram.Style) {
	if b.err == nil {
		_, b.err = b.d.Connect(src, dst, style)
	}
}

func (b *decl) connectBack(src, dst diagram.Endpoint, style diagram.Style) {
	if b.err == nil {
		_, b.err = b.d.ConnectBack(src, dst, style)
	}
}

func (b *decl) connectBoth(src, dst diagram.Endpoint, style diagram.Style) {
	if b.err == nil {
		_, b.err = b.d.ConnectBoth(src, dst, style)
	}
}

func sponsoredAgent(d *diagram.Diagram, envoyIcon string, v variant) error {
	b := &decl{d: d}
	var (
		users, agents, sendgrid                   *diagram.Node
		cdn, armor, lb                            *diagram.Node
		esAgent, clusterEnvoy                     *diagram.Node
		agentCRM, gw, svc, hpa, rs, deploy        *diagram.Node
		pods                                      diagram.Group
		otherEnvoy, stack, workflows, serviceMesh *diagram.Node
	)

	err := d.WithCluster("Clients", func(c *diagram.Cluster) error {
		users = b.node(c, "Users", diagram.KindUsers)
		agents = b.node(c, "Agents", diagram.KindUsers)
		return b.err
	})
	if err != nil {
		return err
	}

	err = d.WithCluster("External Services", func(c *diagram.Cluster) error {
		sendgrid = b.node(c, "sendgrid", diagram.KindMessaging)
		return b.err
	})
	if err != nil {
		return err
	}

	err = d.WithCluster("GCP", func(gcp *diagram.Cluster) error {
		cdn = b.node(gcp, "Cloud CDN", diagram.KindCDN)
		armor = b.node(gcp, "Cloud Armor", diagram.KindArmor)
		lb = b.node(gcp, "Load Balancer", diagram.KindLoadBalancer)

		err := gcp.WithCluster("GKE Cluster", func(gke *diagram.Cluster) error {
			esAgent = b.node(gke, "elastic agent", diagram.KindAgent)
			clusterEnvoy = b.custom(gke, "envoy proxy", envoyIcon)

			return gke.WithCluster("Deployment", func(dep *diagram.Cluster) error {
				agentCRM = b.node(dep, "Agent CRM", diagram.KindServer)
				gw = b.node(dep, "gateway", diagram.KindServiceMesh)
				svc = b.node(dep, "sponsored agent svc", diagram.KindK8sService)
				b.connect(gw, svc, diagram.Plain(""))
				hpa = b.node(dep, "hpa", diagram.KindHPA)

				pods = diagram.Group{
					b.node(dep, "sponsored agent\npod 1", diagram.KindPod),
					b.node(dep, "sponsored agent\npod 3", diagram.KindPod),
					b.node(dep, "sponsored agent\npod 2", diagram.KindPod),
				}

				// Deployment flow: the service feeds the pods, which are
				// owned by the replicaset, deployment and autoscaler.
				b.connect(svc, pods, diagram.Plain("", diagram.Weight(1)))
				rs = b.node(dep, "replicaset", diagram.KindReplicaSet)
				b.connectBack(pods, rs, diagram.Plain(""))
				deploy = b.node(dep, "deployment", diagram.KindDeployment)
				b.connectBack(rs, deploy, diagram.Plain(""))
				b.connectBack(deploy, hpa, diagram.Plain(""))
				return b.err
			})
		})
		if err != nil {
			return err
		}

		err = gcp.WithCluster("Other Cluster Services", func(other *diagram.Cluster) error {
			otherEnvoy = b.custom(other, "envoy proxy", envoyIcon)
			stack = b.node(other, "elastic stack", diagram.KindStack)
			workflows = b.node(other, "argo workflows", diagram.KindWorkflows)
			serviceMesh = b.node(other, "service mesh", diagram.KindServiceMesh)
			return b.err
		})
		if err != nil {
			return err
		}

		proxyLink := diagram.Management
		if v.securityPresets {
			proxyLink = diagram.Security
		}
		b.connect(serviceMesh, diagram.Group{clusterEnvoy, otherEnvoy}, proxyLink("management"))
		b.connect(serviceMesh, gw, diagram.Management("management"))
		return b.err
	})
	if err != nil {
		return err
	}

	// Pod CRM flow.
	b.connectBoth(agentCRM, pods, diagram.Data("Agent Data",
		diagram.LabelFloat(), diagram.MinLen(4), diagram.Weight(1)))

	// Elastic agent data flow.
	telemetry := diagram.Metrics("metrics\nlogs\ntraces")
	b.connect(esAgent, clusterEnvoy, telemetry)
	mtls := diagram.Plain("mTLS", diagram.Color(diagram.SecurityColor), diagram.Line(diagram.Dashed), diagram.Weight(1))
	if v.securityPresets {
		mtls = diagram.Security("mTLS", diagram.Weight(1))
	}
	b.connectBoth(clusterEnvoy, otherEnvoy, mtls)
	b.connect(otherEnvoy, stack, telemetry)

	// Ingress flow.
	b.connectBoth(users, cdn, diagram.Plain("cache hit"))
	b.connectBoth(cdn, armor, diagram.Plain("policies",
		diagram.Color(diagram.ManagementColor), diagram.Line(diagram.Dotted), diagram.Weight(1)))
	b.connect(cdn, lb, diagram.Plain("cache miss"))
	b.connect(lb, gw, diagram.Plain(""))

	// Featured agent metrics flow.
	b.connect(workflows, stack, diagram.Plain("request metrics\non schedule", diagram.LabelFloat()))
	b.connect(stack, workflows, diagram.Metrics("agent metrics"))
	b.connect(workflows, sendgrid, diagram.Metrics("agent metrics"))
	b.connect(sendgrid, agents, diagram.Metrics("agent metrics", diagram.Weight(0)))

	return b.err
}
