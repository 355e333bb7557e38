package nutrition

import (
	"math"

	"github.com/yanqian/ai-fitcoach/internal/domain/profile"
	apperrors "github.com/yanqian/ai-fitcoach/pkg/errors"
)

// Macros are daily macronutrient targets in grams.
type Macros struct {
	Protein int `json:"protein"`
	Carbs   int `json:"carbs"`
	Fat     int `json:"fat"`
}

// Targets are the daily nutrition targets derived from a profile.
type Targets struct {
	Calories int    `json:"calories"`
	Macros   Macros `json:"macros"`
}

const (
	deficitCalories        = -500
	defaultSurplusCalories = 300
	maxSurplusCalories     = 500
	proteinPerKg           = 2.0
	deficitFatShare        = 0.25
	defaultFatShare        = 0.30
)

var activityMultipliers = map[profile.ActivityLevel]float64{
	profile.ActivitySedentary:  1.2,
	profile.ActivityLight:      1.375,
	profile.ActivityModerate:   1.55,
	profile.ActivityActive:     1.725,
	profile.ActivityVeryActive: 1.9,
}

// BMR returns the Mifflin-St Jeor basal metabolic rate.
func BMR(p profile.Profile) float64 {
	base := 10*p.Weight + 6.25*p.Height - 5*float64(p.Age)
	if p.Gender == profile.GenderMale {
		return base + 5
	}
	return base - 161
}

// DailyCalories returns rounded daily calories after activity and goal adjustment.
func DailyCalories(p profile.Profile) (int, error) {
	if err := p.ValidateBody(); err != nil {
		return 0, apperrors.Wrap(apperrors.CodeInvalidInput, "invalid profile", err)
	}
	tdee := BMR(p) * activityMultipliers[p.ActivityLevel]
	switch p.Goal {
	case profile.GoalDeficit:
		tdee += deficitCalories
	case profile.GoalBulking:
		tdee += surplus(p.TargetWeightChange)
	}
	return int(math.Round(tdee)), nil
}

func surplus(targetWeightChange *float64) float64 {
	if targetWeightChange == nil || *targetWeightChange <= 0 {
		return defaultSurplusCalories
	}
	return math.Min(*targetWeightChange*1000, maxSurplusCalories)
}

// CalculateMacros splits calories into protein, fat and carbs.
// Carbs never go negative.
func CalculateMacros(calories int, p profile.Profile) Macros {
	protein := int(math.Round(p.Weight * proteinPerKg))
	share := defaultFatShare
	if p.Goal == profile.GoalDeficit {
		share = deficitFatShare
	}
	fat := int(math.Round(float64(calories) * share / 9))
	remaining := math.Max(float64(calories-protein*4-fat*9), 0)
	return Macros{
		Protein: protein,
		Carbs:   int(math.Round(remaining / 4)),
		Fat:     fat,
	}
}

// CalculateTargets computes calories and macros for a profile.
func CalculateTargets(p profile.Profile) (Targets, error) {
	calories, err := DailyCalories(p)
	if err != nil {
		return Targets{}, err
	}
	return Targets{Calories: calories, Macros: CalculateMacros(calories, p)}, nil
}
