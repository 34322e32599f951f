package graph

import (
	"fmt"
	"math"

	"basegraph.app/advisor/internal/model"
)

const (
	CenterID     = "Main Application"
	BaseRadius   = 3.0
	maxLabelRune = 50
	centerSize   = 20
)

// ring describes how one bucket is drawn around the centre node.
type ring struct {
	bucket model.Bucket
	kind   model.NodeKind
	prefix string
	scale  float64
	size   int
	color  string
}

// Only these four buckets are graphed. storage, security, monitoring and
// ui show up in the distribution data but never as nodes.
var rings = []ring{
	{bucket: model.BucketCloud, kind: model.NodeCloud, prefix: "Cloud", scale: 1.5, size: 15, color: ColorCloud},
	{bucket: model.BucketDatabase, kind: model.NodeDatabase, prefix: "DB", scale: 2, size: 12, color: ColorDatabase},
	{bucket: model.BucketMicroservice, kind: model.NodeMicroservice, prefix: "Service", scale: 1, size: 10, color: ColorService},
	{bucket: model.BucketAPI, kind: model.NodeAPI, prefix: "API", scale: 0.5, size: 8, color: ColorAPI},
}

// GraphedBuckets lists the buckets BuildGraph turns into nodes.
func GraphedBuckets() []model.Bucket {
	out := make([]model.Bucket, len(rings))
	for i, r := range rings {
		out[i] = r.bucket
	}
	return out
}

// BuildGraph lays the components out as a star around a central
// application node. Each entry of a graphed bucket becomes a node on that
// bucket's ring, evenly spaced, with a single edge to the centre.
func BuildGraph(components model.Components) model.Graph {
	g := model.Graph{
		Nodes: []model.GraphNode{{
			ID:    CenterID,
			Kind:  model.NodeApplication,
			Label: CenterID,
			Size:  centerSize,
			Color: ColorService,
		}},
		Edges: make([]model.GraphEdge, 0),
	}

	for _, r := range rings {
		entries := components[r.bucket]
		radius := BaseRadius * r.scale
		for i, entry := range entries {
			angle := 2 * math.Pi * float64(i) / float64(len(entries))
			id := fmt.Sprintf("%s_%d", r.prefix, i)
			g.Nodes = append(g.Nodes, model.GraphNode{
				ID:     id,
				Kind:   r.kind,
				Label:  Truncate(entry, maxLabelRune),
				Detail: entry,
				X:      radius * math.Cos(angle),
				Y:      radius * math.Sin(angle),
				Size:   r.size,
				Color:  r.color,
			})
			g.Edges = append(g.Edges, model.GraphEdge{From: CenterID, To: id})
		}
	}

	return g
}

// Truncate cuts s to n runes and appends "..." when anything was cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
