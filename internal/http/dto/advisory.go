package dto

import (
	"basegraph.app/advisor/internal/brain"
	"basegraph.app/advisor/internal/graph"
	"basegraph.app/advisor/internal/model"
)

const (
	StatusComplete = "complete"
	StatusPartial  = "partial"
)

type AdvisoryRequest struct {
	Request    string   `json:"request" binding:"required"`
	Categories []string `json:"categories,omitempty"`
	Priority   string   `json:"priority,omitempty"`
}

func (r AdvisoryRequest) ToModel() model.Request {
	return model.Request{
		Text:       r.Request,
		Categories: r.Categories,
		Priority:   model.Priority(r.Priority),
	}
}

type TurnRequest struct {
	Speaker  string `json:"speaker"`
	Text     string `json:"text"`
	Sequence int    `json:"sequence"`
}

// TurnsRequest carries a transcript produced elsewhere so it can be
// mined without calling a model.
type TurnsRequest struct {
	Request    string        `json:"request"`
	Categories []string      `json:"categories,omitempty"`
	Priority   string        `json:"priority,omitempty"`
	Turns      []TurnRequest `json:"turns"`
}

func (r TurnsRequest) ToModel() model.Request {
	return model.Request{
		Text:       r.Request,
		Categories: r.Categories,
		Priority:   model.Priority(r.Priority),
	}
}

// ToTurns validates every turn at the boundary.
func (r TurnsRequest) ToTurns() ([]model.Turn, error) {
	turns := make([]model.Turn, 0, len(r.Turns))
	for _, t := range r.Turns {
		turn, err := model.NewTurn(model.AgentID(t.Speaker), t.Text, t.Sequence)
		if err != nil {
			return nil, err
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

type ReportResponse struct {
	Report     model.ReportModel  `json:"report"`
	Summary    []model.SummaryRow `json:"summary"`
	Components model.Components   `json:"components"`
	Graph      model.Graph        `json:"graph"`
	Charts     graph.Charts       `json:"charts"`
}

type AdvisoryResponse struct {
	ID         string       `json:"id"`
	Status     string       `json:"status"`
	StopReason string       `json:"stop_reason"`
	Error      string       `json:"error,omitempty"`
	Turns      []model.Turn `json:"turns"`
	ReportResponse
}

func ToReportResponse(a *brain.Advisory) ReportResponse {
	return ReportResponse{
		Report:     a.Report,
		Summary:    nonNilRows(a.Summary),
		Components: a.Components,
		Graph:      a.Graph,
		Charts:     a.Charts,
	}
}

func ToAdvisoryResponse(a *brain.Advisory, runErr error) *AdvisoryResponse {
	resp := &AdvisoryResponse{
		ID:             a.ID,
		Status:         StatusComplete,
		StopReason:     string(a.StopReason),
		Turns:          a.Turns,
		ReportResponse: ToReportResponse(a),
	}
	if resp.Turns == nil {
		resp.Turns = []model.Turn{}
	}
	if !a.Complete() {
		resp.Status = StatusPartial
	}
	if runErr != nil {
		resp.Error = runErr.Error()
	}
	return resp
}

type AgentResponse struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	FocusArea string `json:"focus_area"`
	Requester bool   `json:"requester"`
}

func ToAgentResponses(r brain.Roster) []AgentResponse {
	seats := r.Seats()
	out := make([]AgentResponse, 0, len(seats))
	for _, s := range seats {
		out = append(out, AgentResponse{
			ID:        s.Agent.String(),
			Role:      s.Agent.Role(),
			FocusArea: s.Agent.FocusArea(),
			Requester: s.Agent.IsRequester(),
		})
	}
	return out
}

func nonNilRows(rows []model.SummaryRow) []model.SummaryRow {
	if rows == nil {
		return []model.SummaryRow{}
	}
	return rows
}
