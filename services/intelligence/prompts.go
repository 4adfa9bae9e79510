package intelligence

import (
	"fmt"
	"strings"

	"therapy/models"
)

func recommendationPrompt(severity models.Severity, context string) string {
	extra := ""
	if c := strings.TrimSpace(context); c != "" {
		extra = "\nAdditional context: " + c
	}

	switch severity {
	case models.SeveritySevere:
		return fmt.Sprintf(`You are a compassionate mental health professional. A user has been assessed with a significant level of sadness.
Severity level: SEVERE.%s

Their sadness level is concerning and they should be encouraged to seek professional help.
Provide a compassionate acknowledgment, 3 immediate coping techniques for crisis moments, gentle but clear encouragement to see a therapist, when to seek emergency help, and reassurance that asking for help is a strength.

Respond with JSON only:
{"severity":"severe","acknowledgment":"","immediate_coping":["","",""],"therapist_recommendation":"","why_see_therapist":"","emergency_resources":"","encouragement":"","recommend_therapist":true}`, extra)
	case models.SeverityModerate:
		return fmt.Sprintf(`You are a compassionate wellness coach. A user is experiencing moderate sadness.
Severity level: MODERATE.%s

Provide an empathetic acknowledgment, 5 specific coping strategies, a morning/afternoon/evening routine, when to consider seeing a therapist, and encouraging words.

Respond with JSON only:
{"severity":"moderate","acknowledgment":"","coping_strategies":["","","","",""],"daily_routine":["","",""],"consider_therapist":"","encouragement":"","recommend_therapist":false}`, extra)
	}
	return fmt.Sprintf(`You are a friendly wellness coach. A user has mild or minimal sadness.
Severity level: MINIMAL.%s

Provide a positive acknowledgment, 3 simple self-care tips, 3 mood-boosting activities and encouragement to keep it up.

Respond with JSON only:
{"severity":"minimal","acknowledgment":"","self_care_tips":["","",""],"mood_boosters":["","",""],"encouragement":"","recommend_therapist":false}`, extra)
}

func followUpPrompt(s *models.Session) string {
	var notes []string
	for _, n := range s.Notes {
		notes = append(notes, "- "+n.Text)
	}
	noteText := "none"
	if len(notes) > 0 {
		noteText = "\n" + strings.Join(notes, "\n")
	}
	return fmt.Sprintf(`A therapy session on %s has just been completed. Session notes: %s

Suggest 3 to 5 small, concrete tasks the patient can do before the next session.
Respond with a JSON array of strings only.`, s.ScheduledDate, noteText)
}

func confirmationPrompt(s *models.Session) string {
	return fmt.Sprintf(`Write one short, warm sentence (under 30 words) telling a patient that their therapy session on %s at %s is confirmed. No greeting, no emojis.`,
		s.ScheduledDate, s.ScheduledTime)
}
