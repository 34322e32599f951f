package brain

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"basegraph.app/advisor/internal/model"
)

var (
	ErrInvalidRoster  = errors.New("invalid roster")
	ErrRosterNotFound = errors.New("roster file not found")
)

// Seat is one agent at the table together with the prompt it speaks under.
type Seat struct {
	Agent        model.AgentID
	SystemPrompt string
}

// Roster is the ordered set of seats. The requester always sits first and
// only opens the conversation; the specialists follow in speaking order.
type Roster struct {
	seats []Seat
}

const (
	headOfArchitecturePrompt = `You are the Head of Architecture. Your role is to:
1. Analyze business requirements and architectural needs
2. Coordinate with specialized architects
3. Ensure architectural decisions align with business goals
4. Provide high-level guidance and oversight
5. Make final architectural recommendations

Always think strategically about scalability, maintainability, and business impact.`

	cloudArchitectPrompt = `You are a Cloud Architect specialist. Your expertise includes:
1. Cloud platforms (AWS, Azure, GCP)
2. Serverless architectures
3. Container orchestration (Kubernetes, Docker)
4. Cloud security and compliance
5. Cost optimization strategies
6. Microservices and distributed systems

Provide detailed cloud-specific solutions and recommendations.`

	ossArchitectPrompt = `You are an Open Source Software Architect. Your expertise includes:
1. Open source technology stacks
2. License compatibility and compliance
3. Community-driven development practices
4. Cost-effective open source solutions
5. Integration of OSS with proprietary systems
6. Security considerations for open source components

Focus on leveraging open source solutions effectively.`

	leadArchitectPrompt = `You are a Lead Architect with broad technical expertise:
1. System design and architecture patterns
2. Technology selection and evaluation
3. Performance and scalability considerations
4. Integration strategies
5. Risk assessment and mitigation
6. Technical leadership and mentoring

Provide comprehensive architectural guidance across all domains.`

	businessUserPrompt = "You represent the business requirements and user needs."
)

func DefaultRoster() Roster {
	return Roster{seats: []Seat{
		{Agent: model.AgentBusinessUser, SystemPrompt: businessUserPrompt},
		{Agent: model.AgentHeadOfArchitecture, SystemPrompt: headOfArchitecturePrompt},
		{Agent: model.AgentCloudArchitect, SystemPrompt: cloudArchitectPrompt},
		{Agent: model.AgentOSSArchitect, SystemPrompt: ossArchitectPrompt},
		{Agent: model.AgentLeadArchitect, SystemPrompt: leadArchitectPrompt},
	}}
}

func (r Roster) Seats() []Seat {
	out := make([]Seat, len(r.seats))
	copy(out, r.seats)
	return out
}

// Specialists returns the seats that take turns after the opening message.
func (r Roster) Specialists() []Seat {
	out := make([]Seat, 0, len(r.seats))
	for _, s := range r.seats {
		if !s.Agent.IsRequester() {
			out = append(out, s)
		}
	}
	return out
}

func (r Roster) Prompt(agent model.AgentID) string {
	for _, s := range r.seats {
		if s.Agent == agent {
			return s.SystemPrompt
		}
	}
	return ""
}

// WithPrompts returns a copy of r with the given prompts replaced.
func (r Roster) WithPrompts(prompts map[model.AgentID]string) (Roster, error) {
	out := Roster{seats: r.Seats()}
	for agent, prompt := range prompts {
		if _, err := model.ParseAgentID(string(agent)); err != nil {
			return Roster{}, fmt.Errorf("%w: %w", ErrInvalidRoster, err)
		}
		if strings.TrimSpace(prompt) == "" {
			return Roster{}, fmt.Errorf("%w: empty system_prompt for %s", ErrInvalidRoster, agent)
		}
		for i := range out.seats {
			if out.seats[i].Agent == agent {
				out.seats[i].SystemPrompt = strings.TrimSpace(prompt)
			}
		}
	}
	return out, nil
}

type rosterFile struct {
	Agents []rosterEntry `yaml:"agents"`
}

type rosterEntry struct {
	ID           string `yaml:"id"`
	SystemPrompt string `yaml:"system_prompt"`
}

// ParseRoster reads prompt overrides on top of the default roster:
//
//	agents:
//	  - id: CloudArchitect
//	    system_prompt: |
//	      You are a Cloud Architect ...
//
// Agents not listed keep their default prompt.
func ParseRoster(data []byte) (Roster, error) {
	var f rosterFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Roster{}, fmt.Errorf("%w: %v", ErrInvalidRoster, err)
	}

	prompts := make(map[model.AgentID]string, len(f.Agents))
	for _, e := range f.Agents {
		id, err := model.ParseAgentID(strings.TrimSpace(e.ID))
		if err != nil {
			return Roster{}, fmt.Errorf("%w: %w", ErrInvalidRoster, err)
		}
		if _, dup := prompts[id]; dup {
			return Roster{}, fmt.Errorf("%w: %s listed twice", ErrInvalidRoster, id)
		}
		prompts[id] = e.SystemPrompt
	}

	return DefaultRoster().WithPrompts(prompts)
}

func LoadRoster(path string) (Roster, error) {
	path = filepath.Clean(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Roster{}, fmt.Errorf("%w: %s", ErrRosterNotFound, path)
		}
		return Roster{}, fmt.Errorf("read roster: %w", err)
	}

	return ParseRoster(data)
}
