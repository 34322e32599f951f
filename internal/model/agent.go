package model

import (
	"errors"
	"fmt"
)

var ErrUnknownAgent = errors.New("unknown agent")

// AgentID names one seat of the advisory council.
type AgentID string

const (
	AgentHeadOfArchitecture AgentID = "HeadOfArchitecture"
	AgentCloudArchitect     AgentID = "CloudArchitect"
	AgentOSSArchitect       AgentID = "OSSArchitect"
	AgentLeadArchitect      AgentID = "LeadArchitect"
	AgentBusinessUser       AgentID = "BusinessUser"
)

const (
	UnknownRole       = "Unknown Role"
	GeneralFocusArea  = "General Architecture"
	RequesterAgentID  = AgentBusinessUser
	SpecialistsNeeded = 4
)

var agentRoles = map[AgentID]string{
	AgentHeadOfArchitecture: "Strategic Oversight",
	AgentCloudArchitect:     "Cloud Infrastructure",
	AgentOSSArchitect:       "Open Source Solutions",
	AgentLeadArchitect:      "Technical Integration",
	AgentBusinessUser:       "Business Requirements",
}

var agentFocusAreas = map[AgentID]string{
	AgentHeadOfArchitecture: "Strategic Planning & Business Alignment",
	AgentCloudArchitect:     "Cloud Infrastructure & Scalability",
	AgentOSSArchitect:       "Open Source Tools & Cost Optimization",
	AgentLeadArchitect:      "Technical Integration & Architecture Patterns",
}

// Specialists returns the non-requester agents in speaking order.
func Specialists() []AgentID {
	return []AgentID{
		AgentHeadOfArchitecture,
		AgentCloudArchitect,
		AgentOSSArchitect,
		AgentLeadArchitect,
	}
}

// ParseAgentID validates a speaker name coming from outside the process.
func ParseAgentID(s string) (AgentID, error) {
	id := AgentID(s)
	if _, ok := agentRoles[id]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAgent, s)
	}
	return id, nil
}

func (a AgentID) String() string {
	return string(a)
}

// IsRequester reports whether a is the business proxy that opens the conversation.
func (a AgentID) IsRequester() bool {
	return a == RequesterAgentID
}

func (a AgentID) Role() string {
	if role, ok := agentRoles[a]; ok {
		return role
	}
	return UnknownRole
}

func (a AgentID) FocusArea() string {
	if area, ok := agentFocusAreas[a]; ok {
		return area
	}
	return GeneralFocusArea
}
