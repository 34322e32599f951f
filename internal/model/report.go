package model

import "fmt"

const NoRecommendations = "No specific recommendations provided"

// KeyPoint is a line judged to carry an actionable recommendation,
// tagged with the sequence of the turn it came from.
type KeyPoint struct {
	Text     string `json:"text"`
	Sequence int    `json:"sequence"`
}

type AgentSummary struct {
	Agent     AgentID    `json:"agent"`
	Role      string     `json:"role"`
	FocusArea string     `json:"focus_area"`
	KeyPoints []KeyPoint `json:"recommendations"`
	Count     int        `json:"count"`
}

// SummaryRow is one line of the agent recommendations table.
type SummaryRow struct {
	Agent               AgentID `json:"agent"`
	Role                string  `json:"role"`
	KeyRecommendations  string  `json:"key_recommendations"`
	RecommendationCount int     `json:"recommendation_count"`
	FocusArea           string  `json:"focus_area"`
}

type Metadata struct {
	Timestamp           string   `json:"timestamp"`
	Request             string   `json:"user_request"`
	Categories          []string `json:"categories"`
	Priority            Priority `json:"priority"`
	AgentCount          int      `json:"total_agents"`
	RecommendationCount int      `json:"total_recommendations"`
}

// ReportModel is the complete structured result of mining a conversation.
type ReportModel struct {
	Metadata       Metadata                 `json:"metadata"`
	AgentSummaries map[AgentID]AgentSummary `json:"agent_summaries"`
	Insights       []string                 `json:"key_insights"`
	Risks          []string                 `json:"risk_assessment"`
	Costs          []string                 `json:"cost_considerations"`
	Roadmap        []Phase                  `json:"implementation_roadmap"`
}

type Phase struct {
	Number      int    `json:"number"`
	Name        string `json:"name"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
}

func (p Phase) Title() string {
	return fmt.Sprintf("Phase %d: %s", p.Number, p.Name)
}

// Roadmap is the implementation plan attached to every report. It is a
// fixed policy and does not look at the conversation.
func Roadmap() []Phase {
	return []Phase{
		{Number: 1, Name: "Foundation", Duration: "2-4 weeks", Description: "Core infrastructure setup"},
		{Number: 2, Name: "Development", Duration: "4-8 weeks", Description: "Application development and integration"},
		{Number: 3, Name: "Testing", Duration: "2-3 weeks", Description: "Testing and quality assurance"},
		{Number: 4, Name: "Deployment", Duration: "1-2 weeks", Description: "Production deployment and monitoring"},
	}
}
