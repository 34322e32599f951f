package model

type NodeKind string

const (
	NodeApplication  NodeKind = "application"
	NodeCloud        NodeKind = "cloud"
	NodeDatabase     NodeKind = "database"
	NodeMicroservice NodeKind = "microservice"
	NodeAPI          NodeKind = "api"
)

type GraphNode struct {
	ID     string   `json:"id"`
	Kind   NodeKind `json:"kind"`
	Label  string   `json:"label"`
	Detail string   `json:"detail,omitempty"`
	X      float64  `json:"x"`
	Y      float64  `json:"y"`
	Size   int      `json:"size"`
	Color  string   `json:"color"`
}

type GraphEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph is a star-topology architecture diagram. It is derived on demand
// and never stored.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}
