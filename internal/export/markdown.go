package export

import (
	"fmt"
	"strings"

	"basegraph.app/advisor/internal/model"
	"basegraph.app/advisor/internal/report"
)

const (
	NoInsights        = "No specific insights extracted from the conversation."
	NoRisks           = "No specific risks identified in the conversation."
	NoCosts           = "No specific cost considerations mentioned."
	NoAgents          = "No specific agent recommendations provided."
	NoAgentKeyPoints  = "No specific recommendations provided."
	sectionSeparator  = "\n---\n\n"
	markdownReportTag = "*Report generated by Multi-Agent Architecture Advisory System*"
)

var nextSteps = []string{
	"Review all agent recommendations carefully",
	"Prioritize recommendations based on business needs",
	"Develop detailed implementation plans",
	"Consider risk mitigation strategies",
	"Plan cost optimization approaches",
}

// Markdown renders the fixed report template. Section order and the
// fallback sentences are stable; callers diff and grep on them.
func Markdown(r model.ReportModel, rows []model.SummaryRow) string {
	var b strings.Builder
	m := r.Metadata

	b.WriteString("# Multi-Agent Architecture Advisory Report\n\n")
	fmt.Fprintf(&b, "**Generated:** %s  \n", m.Timestamp)
	fmt.Fprintf(&b, "**Request:** %s  \n", m.Request)
	fmt.Fprintf(&b, "**Categories:** %s  \n", strings.Join(m.Categories, ", "))
	fmt.Fprintf(&b, "**Priority:** %s  \n", m.Priority)
	fmt.Fprintf(&b, "**Total Agents:** %d  \n", m.AgentCount)
	fmt.Fprintf(&b, "**Total Recommendations:** %d\n", m.RecommendationCount)
	b.WriteString(sectionSeparator)

	b.WriteString("## 📋 Agent Recommendations Summary\n\n")
	b.WriteString("| Agent | Role | Focus Area | Recommendation Count |\n")
	b.WriteString("|-------|------|------------|---------------------|\n")
	for _, row := range rows {
		fmt.Fprintf(&b, "| %s | %s | %s | %d |\n",
			cell(row.Agent.String()), cell(row.Role), cell(row.FocusArea), row.RecommendationCount)
	}
	b.WriteString(sectionSeparator)

	writeList(&b, "## 🔍 Key Insights", r.Insights, NoInsights)
	b.WriteString(sectionSeparator)
	writeList(&b, "## ⚠️ Risk Assessment", r.Risks, NoRisks)
	b.WriteString(sectionSeparator)
	writeList(&b, "## 💰 Cost Considerations", r.Costs, NoCosts)
	b.WriteString(sectionSeparator)

	b.WriteString("## 📈 Implementation Roadmap\n\n")
	for _, p := range r.Roadmap {
		fmt.Fprintf(&b, "### %s\n", p.Title())
		fmt.Fprintf(&b, "**Duration:** %s\n", p.Duration)
		fmt.Fprintf(&b, "**Description:** %s\n\n", p.Description)
	}
	b.WriteString(sectionSeparator)

	b.WriteString("## 📊 Detailed Agent Recommendations\n\n")
	summaries := report.OrderedSummaries(r, rows)
	if len(summaries) == 0 {
		b.WriteString(NoAgents + "\n")
		b.WriteString(sectionSeparator)
	}
	for _, s := range summaries {
		fmt.Fprintf(&b, "### %s - %s\n", s.Agent, s.Role)
		fmt.Fprintf(&b, "**Focus Area:** %s\n", s.FocusArea)
		fmt.Fprintf(&b, "**Recommendation Count:** %d\n\n", s.Count)
		if len(s.KeyPoints) == 0 {
			b.WriteString(NoAgentKeyPoints + "\n")
		} else {
			b.WriteString("**Key Recommendations:**\n")
			for i, kp := range s.KeyPoints {
				fmt.Fprintf(&b, "%d. %s\n", i+1, kp.Text)
			}
		}
		b.WriteString(sectionSeparator)
	}

	b.WriteString("## 📊 Report Summary\n\n")
	fmt.Fprintf(&b, "This comprehensive architecture report was generated by analyzing the multi-agent conversation between %d specialized architecture agents. ", m.AgentCount)
	fmt.Fprintf(&b, "The report includes %d total recommendations across various architectural domains.\n\n", m.RecommendationCount)
	b.WriteString("### Report Sections:\n")
	b.WriteString("- **Agent Recommendations Summary**: Overview of each agent's contributions\n")
	b.WriteString("- **Key Insights**: Critical findings from the conversation\n")
	b.WriteString("- **Risk Assessment**: Identified risks and challenges\n")
	b.WriteString("- **Cost Considerations**: Financial implications and optimizations\n")
	b.WriteString("- **Implementation Roadmap**: Phased approach to implementation\n")
	b.WriteString("- **Detailed Agent Recommendations**: Comprehensive recommendations from each specialist\n\n")
	b.WriteString("### Next Steps:\n")
	for i, step := range nextSteps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}
	b.WriteString(sectionSeparator)
	b.WriteString(markdownReportTag + "\n")

	return b.String()
}

func writeList(b *strings.Builder, heading string, items []string, fallback string) {
	b.WriteString(heading + "\n\n")
	if len(items) == 0 {
		b.WriteString(fallback + "\n")
		return
	}
	for i, item := range items {
		fmt.Fprintf(b, "%d. %s\n", i+1, item)
	}
}

// cell keeps a value from breaking the table row.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
