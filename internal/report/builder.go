package report

import (
	"strings"
	"time"

	"basegraph.app/advisor/internal/model"
	"basegraph.app/advisor/internal/signal"
)

const (
	TimestampLayout     = "2006-01-02 15:04:05"
	summaryPreviewCount = 5
)

// Builder turns a finished (or partial) transcript into the report model.
// It holds no per-request state; Now is swappable for tests.
type Builder struct {
	Now func() time.Time
}

func New() *Builder {
	return &Builder{Now: time.Now}
}

// Summaries returns one summary per specialist that produced a non-empty
// turn, in order of first appearance. When an agent speaks more than once
// its latest non-blank turn supplies the key points.
func (b *Builder) Summaries(turns []model.Turn) []model.AgentSummary {
	index := make(map[model.AgentID]int)
	summaries := make([]model.AgentSummary, 0, model.SpecialistsNeeded)

	for _, t := range turns {
		if t.Speaker.IsRequester() || t.IsBlank() {
			continue
		}
		i, ok := index[t.Speaker]
		if !ok {
			i = len(summaries)
			index[t.Speaker] = i
			summaries = append(summaries, model.AgentSummary{
				Agent:     t.Speaker,
				Role:      t.Speaker.Role(),
				FocusArea: t.Speaker.FocusArea(),
				KeyPoints: make([]model.KeyPoint, 0),
			})
		}
		summaries[i].KeyPoints = signal.KeyPointsFor(t)
		summaries[i].Count = len(summaries[i].KeyPoints)
	}

	return summaries
}

// SummaryTable flattens the summaries into table rows.
func (b *Builder) SummaryTable(turns []model.Turn) []model.SummaryRow {
	return SummaryRows(b.Summaries(turns))
}

func SummaryRows(summaries []model.AgentSummary) []model.SummaryRow {
	rows := make([]model.SummaryRow, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, model.SummaryRow{
			Agent:               s.Agent,
			Role:                s.Role,
			KeyRecommendations:  previewKeyPoints(s.KeyPoints),
			RecommendationCount: s.Count,
			FocusArea:           s.FocusArea,
		})
	}
	return rows
}

func previewKeyPoints(points []model.KeyPoint) string {
	if len(points) == 0 {
		return model.NoRecommendations
	}
	n := min(len(points), summaryPreviewCount)
	lines := make([]string, n)
	for i := 0; i < n; i++ {
		lines[i] = points[i].Text
	}
	return strings.Join(lines, "\n")
}

// Build assembles the report model. The request fields are copied in as
// metadata only; nothing here validates them.
func (b *Builder) Build(turns []model.Turn, request string, categories []string, priority model.Priority) model.ReportModel {
	summaries := b.Summaries(turns)

	bySpeaker := make(map[model.AgentID]model.AgentSummary, len(summaries))
	total := 0
	for _, s := range summaries {
		bySpeaker[s.Agent] = s
		total += s.Count
	}

	cats := make([]string, len(categories))
	copy(cats, categories)

	return model.ReportModel{
		Metadata: model.Metadata{
			Timestamp:           b.now().Format(TimestampLayout),
			Request:             request,
			Categories:          cats,
			Priority:            priority,
			AgentCount:          len(summaries),
			RecommendationCount: total,
		},
		AgentSummaries: bySpeaker,
		Insights:       signal.CollectTagged(turns, signal.Insights),
		Risks:          signal.CollectTagged(turns, signal.Risks),
		Costs:          signal.CollectTagged(turns, signal.Costs),
		Roadmap:        model.Roadmap(),
	}
}

func (b *Builder) now() time.Time {
	if b.Now == nil {
		return time.Now()
	}
	return b.Now()
}

// OrderedSummaries returns the report's agent summaries following rows,
// which carry first-appearance order; map iteration order is not stable.
func OrderedSummaries(r model.ReportModel, rows []model.SummaryRow) []model.AgentSummary {
	out := make([]model.AgentSummary, 0, len(r.AgentSummaries))
	seen := make(map[model.AgentID]bool, len(rows))
	for _, row := range rows {
		if s, ok := r.AgentSummaries[row.Agent]; ok && !seen[row.Agent] {
			out = append(out, s)
			seen[row.Agent] = true
		}
	}
	for _, id := range model.Specialists() {
		if s, ok := r.AgentSummaries[id]; ok && !seen[id] {
			out = append(out, s)
			seen[id] = true
		}
	}
	return out
}
