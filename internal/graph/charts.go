package graph

import (
	"fmt"
	"strings"

	"basegraph.app/advisor/internal/model"
)

const (
	ColorCloud      = "#FF6B6B"
	ColorDatabase   = "#4ECDC4"
	ColorAPI        = "#45B7D1"
	ColorService    = "#96CEB4"
	ColorStorage    = "#FFEAA7"
	ColorSecurity   = "#DDA0DD"
	ColorMonitoring = "#98D8C8"
	ColorUser       = "#F7DC6F"
	ColorFallback   = "#95A5A6"

	phaseWeeks       = 2
	maxRiskDescRunes = 100
	scoreHigh        = 3
	scoreDefault     = 2
)

var bucketColors = map[model.Bucket]string{
	model.BucketCloud:        ColorCloud,
	model.BucketDatabase:     ColorDatabase,
	model.BucketAPI:          ColorAPI,
	model.BucketMicroservice: ColorService,
	model.BucketStorage:      ColorStorage,
	model.BucketSecurity:     ColorSecurity,
	model.BucketMonitoring:   ColorMonitoring,
	model.BucketUI:           ColorUser,
}

func BucketColor(b model.Bucket) string {
	if c, ok := bucketColors[b]; ok {
		return c
	}
	return ColorFallback
}

type Slice struct {
	Bucket model.Bucket `json:"bucket"`
	Label  string       `json:"label"`
	Count  int          `json:"count"`
	Color  string       `json:"color"`
}

// Distribution counts entries per non-empty bucket, in bucket order.
func Distribution(components model.Components) []Slice {
	out := make([]Slice, 0, len(components))
	for _, b := range model.Buckets() {
		n := len(components[b])
		if n == 0 {
			continue
		}
		out = append(out, Slice{Bucket: b, Label: b.Label(), Count: n, Color: BucketColor(b)})
	}
	return out
}

type Bar struct {
	Phase string `json:"phase"`
	Start int    `json:"start_week"`
	Width int    `json:"width_weeks"`
	Text  string `json:"text"`
}

// Timeline lays the roadmap phases end to end, two weeks each. The bar
// text carries the phase's own duration estimate.
func Timeline(r model.ReportModel) []Bar {
	out := make([]Bar, 0, len(r.Roadmap))
	for i, p := range r.Roadmap {
		out = append(out, Bar{
			Phase: p.Title(),
			Start: i * phaseWeeks,
			Width: phaseWeeks,
			Text:  p.Duration,
		})
	}
	return out
}

type RiskPoint struct {
	Label       string `json:"label"`
	Impact      int    `json:"impact"`
	Probability int    `json:"probability"`
	Description string `json:"description"`
}

var (
	impactWords      = []string{"critical", "severe", "major"}
	probabilityWords = []string{"likely", "probable", "common"}
)

// RiskMatrix scores each risk sentence by keyword.
func RiskMatrix(r model.ReportModel) []RiskPoint {
	out := make([]RiskPoint, 0, len(r.Risks))
	for i, risk := range r.Risks {
		lowered := strings.ToLower(risk)
		out = append(out, RiskPoint{
			Label:       fmt.Sprintf("Risk %d", i+1),
			Impact:      score(lowered, impactWords),
			Probability: score(lowered, probabilityWords),
			Description: Truncate(risk, maxRiskDescRunes),
		})
	}
	return out
}

func score(lowered string, words []string) int {
	if containsAny(lowered, words) {
		return scoreHigh
	}
	return scoreDefault
}

// Charts bundles the chart data derived from one report.
type Charts struct {
	Distribution []Slice     `json:"distribution"`
	Timeline     []Bar       `json:"timeline"`
	RiskMatrix   []RiskPoint `json:"risk_matrix"`
}

func BuildCharts(components model.Components, r model.ReportModel) Charts {
	return Charts{
		Distribution: Distribution(components),
		Timeline:     Timeline(r),
		RiskMatrix:   RiskMatrix(r),
	}
}
