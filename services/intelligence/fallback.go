package intelligence

import (
	"fmt"

	"therapy/models"
)

func cannedRecommendation(severity models.Severity) models.TherapyRecommendation {
	switch severity {
	case models.SeveritySevere:
		return models.TherapyRecommendation{
			Severity:       models.SeveritySevere,
			Acknowledgment: "What you are feeling sounds really heavy, and it makes sense that things feel hard right now.",
			ImmediateCoping: []string{
				"Slow your breathing: in for 4 seconds, hold for 4, out for 6.",
				"Name five things you can see and four you can touch to ground yourself.",
				"Reach out to someone you trust and tell them how you are feeling today.",
			},
			TherapistRecommendation: "We strongly encourage you to book a session with a licensed therapist.",
			WhySeeTherapist:         "A therapist can help you understand what you are going through and build a plan that fits you.",
			EmergencyResources:      "If you are thinking about harming yourself, call your local emergency number or a crisis line right away.",
			Encouragement:           "Asking for help is a sign of strength. Recovery is possible and you do not have to do this alone.",
			RecommendTherapist:      true,
		}
	case models.SeverityModerate:
		return models.TherapyRecommendation{
			Severity:       models.SeverityModerate,
			Acknowledgment: "It sounds like you have been carrying a lot lately, and your feelings are valid.",
			CopingStrategies: []string{
				"Write down three thoughts that worry you and one thing you can do about each.",
				"Take a 20 minute walk outside.",
				"Limit news and social media to set times of day.",
				"Keep a regular sleep and wake time.",
				"Plan one small enjoyable activity each day.",
			},
			DailyRoutine: []string{
				"Morning: drink water and stretch for five minutes before checking your phone.",
				"Afternoon: step away from work for a short check-in with how you feel.",
				"Evening: wind down with a screen-free half hour before bed.",
			},
			ConsiderTherapist: "If these feelings last more than two weeks or get in the way of daily life, talking to a therapist can help.",
			Encouragement:     "Small steps add up. Be patient and kind with yourself.",
		}
	}
	return models.TherapyRecommendation{
		Severity:       models.SeverityMinimal,
		Acknowledgment: "It is great that you are checking in on your wellbeing.",
		SelfCareTips: []string{
			"Get some daylight early in the day.",
			"Stay in touch with a friend this week.",
			"Keep a steady sleep schedule.",
		},
		MoodBoosters: []string{
			"Put on a favourite song and move to it.",
			"Cook something new.",
			"Spend a few minutes on a hobby you enjoy.",
		},
		Encouragement: "Keep doing what works for you.",
	}
}

func cannedFollowUps() []string {
	return []string{
		"Write down one thing from today's session you want to remember.",
		"Try the coping technique you discussed once a day.",
		"Note any moments this week when you felt noticeably better or worse.",
	}
}

func cannedConfirmation(s *models.Session) string {
	return fmt.Sprintf("Your session on %s at %s is confirmed. We look forward to seeing you.", s.ScheduledDate, s.ScheduledTime)
}
