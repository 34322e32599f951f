package brain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"basegraph.app/advisor/common/logger"
	"basegraph.app/advisor/internal/graph"
	"basegraph.app/advisor/internal/model"
	"basegraph.app/advisor/internal/report"
	"basegraph.app/advisor/internal/status"
)

// FormatRequest renders the opening message the requester posts.
func FormatRequest(req model.Request) string {
	categories := "General"
	if cats := req.CategoryList(); len(cats) > 0 {
		categories = strings.Join(cats, ", ")
	}
	priority := req.Priority
	if p, err := model.ParsePriority(string(req.Priority)); err == nil {
		priority = p
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Architecture Request:** %s\n\n", strings.TrimSpace(req.Text))
	fmt.Fprintf(&b, "**Categories:** %s\n", categories)
	fmt.Fprintf(&b, "**Priority:** %s\n\n", priority)
	b.WriteString("Please analyze this request and provide comprehensive architectural recommendations.\n")
	b.WriteString("Consider multiple perspectives and ensure all relevant aspects are covered.")
	return b.String()
}

// Advisory is everything one request produces. It may be partial; see
// StopReason.
type Advisory struct {
	ID         string
	Request    model.Request
	Turns      []model.Turn
	StopReason StopReason
	Report     model.ReportModel
	Summary    []model.SummaryRow
	Components model.Components
	Graph      model.Graph
	Charts     graph.Charts
}

func (a *Advisory) Complete() bool {
	return a.StopReason == StopComplete
}

// Analyze runs the text-mining pipeline over a transcript. It never calls
// a model and accepts any number of turns, including none.
func Analyze(b *report.Builder, turns []model.Turn, req model.Request) *Advisory {
	if b == nil {
		b = report.New()
	}
	categories := req.CategoryList()
	r := b.Build(turns, req.Text, categories, req.Priority)
	components := graph.ExtractComponents(turns)

	return &Advisory{
		Request:    req,
		Turns:      turns,
		Report:     r,
		Summary:    b.SummaryTable(turns),
		Components: components,
		Graph:      graph.BuildGraph(components),
		Charts:     graph.BuildCharts(components, r),
	}
}

type AdvisorConfig struct {
	TurnBudget int
	MaxTokens  int
}

// Advisor holds only immutable wiring and is safe for concurrent use;
// every call to Advise gets its own protocol and transcript.
type Advisor struct {
	gen       Generator
	roster    Roster
	publisher status.Publisher
	cfg       AdvisorConfig
	Now       func() time.Time
}

func NewAdvisor(gen Generator, roster Roster, publisher status.Publisher, cfg AdvisorConfig) *Advisor {
	if publisher == nil {
		publisher = status.Nop{}
	}
	return &Advisor{gen: gen, roster: roster, publisher: publisher, cfg: cfg, Now: time.Now}
}

func (a *Advisor) Roster() Roster {
	return a.roster
}

// Advise validates req, runs the conversation and builds the report.
// A blank request fails before any turn is produced. When the
// conversation stops early the partial Advisory is returned together with
// the error.
func (a *Advisor) Advise(ctx context.Context, advisoryID string, req model.Request) (*Advisory, error) {
	if err := req.Validate(); err != nil {
		if advisoryID != "" {
			e := status.Event{AdvisoryID: advisoryID, Stage: status.StageFailed, Message: err.Error()}
			if perr := a.publisher.Publish(context.WithoutCancel(ctx), e); perr != nil {
				slog.WarnContext(ctx, "status publish failed", "stage", e.Stage, "error", perr)
			}
		}
		return nil, err
	}
	priority, _ := model.ParsePriority(string(req.Priority))
	req.Priority = priority
	req.Categories = req.CategoryList()

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		AdvisoryID: logger.Ptr(advisoryID),
		Component:  "advisor.brain.advisor",
	})
	sc := logger.StartSpan(ctx, "advisor.advise")
	defer sc.End()
	ctx = sc.Context()

	start := time.Now()
	slog.InfoContext(ctx, "advisory started",
		"priority", req.Priority,
		"categories", req.Categories,
		"request", logger.Truncate(req.Text, 120))

	protocol := NewProtocol(a.roster, a.gen, a.publisher, ProtocolConfig{
		AdvisoryID: advisoryID,
		TurnBudget: a.cfg.TurnBudget,
		MaxTokens:  a.cfg.MaxTokens,
	})
	conv, runErr := protocol.Run(ctx, FormatRequest(req))

	adv := Analyze(&report.Builder{Now: a.Now}, conv.Turns(), req)
	adv.ID = advisoryID
	adv.StopReason = conv.StopReason

	sc.SetAttributes(
		attribute.String("stop_reason", string(conv.StopReason)),
		attribute.Int("turns", len(adv.Turns)),
	)
	if runErr != nil {
		sc.RecordError(runErr)
		slog.WarnContext(ctx, "advisory stopped early",
			"stop_reason", conv.StopReason,
			"turns", len(adv.Turns),
			"error", runErr)
		return adv, runErr
	}

	slog.InfoContext(ctx, "advisory completed",
		"turns", len(adv.Turns),
		"recommendations", adv.Report.Metadata.RecommendationCount,
		"duration_ms", time.Since(start).Milliseconds())
	return adv, nil
}
