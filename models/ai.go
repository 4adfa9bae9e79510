package models

// Severity is the assessed level that selects the tone of therapy copy.
type Severity string

const (
	SeverityMinimal  Severity = "minimal"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	switch s {
	case SeverityMinimal, SeverityModerate, SeveritySevere:
		return true
	}
	return false
}

// RecommendationRequest asks for therapy copy at a given severity.
type RecommendationRequest struct {
	Severity Severity `json:"severity" binding:"required"`
	Context  string   `json:"context,omitempty"`
}

// TherapyRecommendation is the generated (or canned) guidance payload. Only
// the lists relevant to the severity are populated.
type TherapyRecommendation struct {
	Severity                Severity `json:"severity"`
	Acknowledgment          string   `json:"acknowledgment"`
	ImmediateCoping         []string `json:"immediate_coping,omitempty"`
	CopingStrategies        []string `json:"coping_strategies,omitempty"`
	DailyRoutine            []string `json:"daily_routine,omitempty"`
	SelfCareTips            []string `json:"self_care_tips,omitempty"`
	MoodBoosters            []string `json:"mood_boosters,omitempty"`
	TherapistRecommendation string   `json:"therapist_recommendation,omitempty"`
	WhySeeTherapist         string   `json:"why_see_therapist,omitempty"`
	ConsiderTherapist       string   `json:"consider_therapist,omitempty"`
	EmergencyResources      string   `json:"emergency_resources,omitempty"`
	Encouragement           string   `json:"encouragement"`
	RecommendTherapist      bool     `json:"recommend_therapist"`
	Generated               bool     `json:"generated"`
}

// SessionSuggestions are follow-up tasks proposed after a session.
type SessionSuggestions struct {
	SessionID string   `json:"sessionId"`
	Tasks     []string `json:"tasks"`
	Generated bool     `json:"generated"`
}
