package profile

import (
	"errors"
	"fmt"
	"strings"
)

// Gender as captured during onboarding.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Goal is the body composition objective.
type Goal string

const (
	GoalDeficit     Goal = "deficit"
	GoalMaintenance Goal = "maintenance"
	GoalBulking     Goal = "bulking"
)

// ActivityLevel describes daily activity outside of training.
type ActivityLevel string

const (
	ActivitySedentary  ActivityLevel = "sedentary"
	ActivityLight      ActivityLevel = "light"
	ActivityModerate   ActivityLevel = "moderate"
	ActivityActive     ActivityLevel = "active"
	ActivityVeryActive ActivityLevel = "very_active"
)

// ExperienceLevel is the user's training background.
type ExperienceLevel string

const (
	ExperienceBeginner     ExperienceLevel = "beginner"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperienceAdvanced     ExperienceLevel = "advanced"
)

// FocusArea is the preferred training emphasis.
type FocusArea string

const (
	FocusStrength    FocusArea = "strength"
	FocusHypertrophy FocusArea = "hypertrophy"
	FocusEndurance   FocusArea = "endurance"
	FocusGeneral     FocusArea = "general"
)

// Profile is the user description sent by the client with every request.
// It is read-only for the duration of a generation.
type Profile struct {
	Name                string          `json:"name,omitempty"`
	Language            string          `json:"language,omitempty"`
	Height              float64         `json:"height"`
	Weight              float64         `json:"weight"`
	Age                 int             `json:"age"`
	Gender              Gender          `json:"gender"`
	Goal                Goal            `json:"goal"`
	TargetWeightChange  *float64        `json:"targetWeightChange,omitempty"`
	ActivityLevel       ActivityLevel   `json:"activityLevel"`
	ExperienceLevel     ExperienceLevel `json:"experienceLevel"`
	FocusArea           FocusArea       `json:"focusArea,omitempty"`
	DietaryRestrictions []string        `json:"dietaryRestrictions,omitempty"`
	HealthIssues        []string        `json:"healthIssues,omitempty"`
	TargetMuscles       []string        `json:"targetMuscles,omitempty"`
}

// ValidateBody checks the fields used by the nutrition math.
func (p Profile) ValidateBody() error {
	var problems []string
	if p.Height <= 0 {
		problems = append(problems, "height must be positive")
	}
	if p.Weight <= 0 {
		problems = append(problems, "weight must be positive")
	}
	if p.Age <= 0 {
		problems = append(problems, "age must be positive")
	}
	if !p.ActivityLevel.Valid() {
		problems = append(problems, fmt.Sprintf("unknown activity level %q", p.ActivityLevel))
	}
	if !p.Goal.Valid() {
		problems = append(problems, fmt.Sprintf("unknown goal %q", p.Goal))
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// IsAdvancedStrength reports whether the user gets strength program guidance.
func (p Profile) IsAdvancedStrength() bool {
	return p.ExperienceLevel == ExperienceAdvanced && p.FocusArea == FocusStrength
}

// HasHealthIssues reports whether any health issue was declared.
func (p Profile) HasHealthIssues() bool {
	return len(p.HealthIssues) > 0
}

// Valid reports whether the goal is known.
func (g Goal) Valid() bool {
	switch g {
	case GoalDeficit, GoalMaintenance, GoalBulking:
		return true
	default:
		return false
	}
}

// Valid reports whether the activity level is known.
func (a ActivityLevel) Valid() bool {
	switch a {
	case ActivitySedentary, ActivityLight, ActivityModerate, ActivityActive, ActivityVeryActive:
		return true
	default:
		return false
	}
}
