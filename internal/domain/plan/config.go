package plan

import "time"

// Config tunes plan generation.
type Config struct {
	Temperature       float32
	MaxTokens         int
	Pacing            Pacing
	GenerationTimeout time.Duration
	MaxPromptFoods    int
	FoodTokenBudget   int
}
