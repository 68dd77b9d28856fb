package coach

import (
	"fmt"
	"strings"
	"time"

	"github.com/2beens/fitmate/internal/profile"
)

// MessageCategory tags a chat exchange with the topic of the user's message.
type MessageCategory string

const (
	CategoryWorkout    MessageCategory = "workout"
	CategoryNutrition  MessageCategory = "nutrition"
	CategoryMotivation MessageCategory = "motivation"
	CategoryProgress   MessageCategory = "progress"
	CategoryGeneral    MessageCategory = "general"
)

var categoryKeywords = []struct {
	category MessageCategory
	keywords []string
}{
	{CategoryWorkout, []string{"workout", "exercise", "training"}},
	{CategoryNutrition, []string{"diet", "nutrition", "meal", "food"}},
	{CategoryMotivation, []string{"motivat", "tired", "give up", "difficult"}},
	{CategoryProgress, []string{"progress", "result", "improvement"}},
}

// CategorizeMessage returns the first category with a keyword contained in
// the lowercased message, CategoryGeneral when none matches.
func CategorizeMessage(message string) MessageCategory {
	lowerMessage := strings.ToLower(message)
	for _, c := range categoryKeywords {
		if containsAny(lowerMessage, c.keywords) {
			return c.category
		}
	}
	return CategoryGeneral
}

// Welcome is the opening chat message, greeting by the hour of now.
func Welcome(p profile.UserProfile, now time.Time) string {
	greeting := "Good evening"
	switch hour := now.Hour(); {
	case hour < 12:
		greeting = "Good morning"
	case hour < 17:
		greeting = "Good afternoon"
	}

	goal := "fitness"
	if p.PrimaryGoal != "" {
		goal = profile.Humanize(p.PrimaryGoal)
	}
	level := "your current level"
	if p.FitnessLevel != "" {
		level = p.FitnessLevel
	}

	return fmt.Sprintf(
		"%s! I'm your AI fitness coach, here to support your %s journey. As a %s fitness enthusiast, I'll provide personalized advice based on your progress and preferences. How can I help you today? 💪",
		greeting, goal, level,
	)
}
