package persona

import (
	"sort"

	"github.com/yanqian/ai-fitcoach/internal/domain/profile"
)

// MaxRecommendations is the number of trainers returned by Recommend.
const MaxRecommendations = 6

// Recommendation ranks a built-in trainer for a profile.
type Recommendation struct {
	Persona string   `json:"persona"`
	Score   int      `json:"score"`
	Reasons []string `json:"reasons"`
}

type scorer struct {
	persona string
	score   func(p profile.Profile) int
	reasons func(p profile.Profile) []string
}

// Order matters: equal scores keep this order.
var scorers = []scorer{
	{persona: "goggins", score: gogginsScore, reasons: gogginsReasons},
	{persona: "arnold", score: arnoldScore, reasons: arnoldReasons},
	{persona: "jeff", score: jeffScore, reasons: jeffReasons},
	{persona: "kayla", score: kaylaScore, reasons: kaylaReasons},
	{persona: "chris", score: chrisScore, reasons: chrisReasons},
	{persona: "jen", score: jenScore, reasons: jenReasons},
	{persona: "cassey", score: casseyScore, reasons: casseyReasons},
	{persona: "mike", score: mikeScore, reasons: mikeReasons},
}

func (s *service) Recommend(p profile.Profile) []Recommendation {
	return Recommend(p)
}

// Recommend scores every built-in trainer and returns the best matches.
func Recommend(p profile.Profile) []Recommendation {
	recs := make([]Recommendation, 0, len(scorers))
	for _, sc := range scorers {
		score := sc.score(p)
		if score <= 0 {
			continue
		}
		recs = append(recs, Recommendation{Persona: sc.persona, Score: score, Reasons: sc.reasons(p)})
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Score > recs[j].Score })
	if len(recs) > MaxRecommendations {
		recs = recs[:MaxRecommendations]
	}
	return recs
}

func bonus(cond bool, points int) int {
	if cond {
		return points
	}
	return 0
}

func veryActive(p profile.Profile) bool {
	return p.ActivityLevel == profile.ActivityActive || p.ActivityLevel == profile.ActivityVeryActive
}

func lightlyActive(p profile.Profile) bool {
	return p.ActivityLevel == profile.ActivityLight || p.ActivityLevel == profile.ActivityModerate
}

func experienced(p profile.Profile) bool {
	return p.ExperienceLevel == profile.ExperienceIntermediate || p.ExperienceLevel == profile.ExperienceAdvanced
}

func male(p profile.Profile) bool   { return p.Gender == profile.GenderMale }
func female(p profile.Profile) bool { return p.Gender == profile.GenderFemale }

func gogginsScore(p profile.Profile) int {
	return 50 +
		bonus(p.Goal == profile.GoalDeficit, 30) +
		bonus(veryActive(p), 20) +
		bonus(experienced(p), 15) +
		bonus(p.FocusArea == profile.FocusEndurance, 25) +
		bonus(male(p), 10)
}

func gogginsReasons(p profile.Profile) []string {
	var r []string
	if p.Goal == profile.GoalDeficit {
		r = append(r, "Perfect for weight loss goals")
	}
	if p.FocusArea == profile.FocusEndurance {
		r = append(r, "Specializes in endurance training")
	}
	if p.ExperienceLevel != profile.ExperienceBeginner {
		r = append(r, "Intense, no-nonsense approach")
	}
	return append(r, "Mental toughness and discipline")
}

func arnoldScore(p profile.Profile) int {
	return 50 +
		bonus(p.Goal == profile.GoalBulking, 35) +
		bonus(p.FocusArea == profile.FocusHypertrophy, 30) +
		bonus(experienced(p), 15) +
		bonus(male(p), 10) +
		bonus(veryActive(p), 10)
}

func arnoldReasons(p profile.Profile) []string {
	var r []string
	if p.Goal == profile.GoalBulking {
		r = append(r, "Legendary for muscle building")
	}
	if p.FocusArea == profile.FocusHypertrophy {
		r = append(r, "Master of bodybuilding techniques")
	}
	return append(r, "Classic training methods", "Motivational and inspiring")
}

func jeffScore(p profile.Profile) int {
	return 60 +
		bonus(p.ExperienceLevel == profile.ExperienceAdvanced, 25) +
		bonus(p.FocusArea == profile.FocusStrength, 20) +
		bonus(p.HasHealthIssues(), 30) +
		bonus(p.Age > 35, 15) +
		bonus(male(p), 5)
}

func jeffReasons(p profile.Profile) []string {
	r := []string{"Science-based training approach"}
	if p.HasHealthIssues() {
		r = append(r, "Expert in injury prevention")
	}
	if p.ExperienceLevel == profile.ExperienceAdvanced {
		r = append(r, "Perfect for experienced lifters")
	}
	return append(r, "Detailed form and technique coaching")
}

func kaylaScore(p profile.Profile) int {
	return 40 +
		bonus(female(p), 40) +
		bonus(p.Goal == profile.GoalDeficit, 20) +
		bonus(p.ExperienceLevel == profile.ExperienceBeginner || p.ExperienceLevel == profile.ExperienceIntermediate, 20) +
		bonus(p.FocusArea == profile.FocusGeneral, 15) +
		bonus(lightlyActive(p), 10)
}

func kaylaReasons(p profile.Profile) []string {
	var r []string
	if female(p) {
		r = append(r, "Specializes in women's fitness")
	}
	if p.ExperienceLevel == profile.ExperienceBeginner {
		r = append(r, "Great for beginners")
	}
	return append(r, "Fun, community-focused workouts", "Home and gym programs available")
}

func chrisScore(p profile.Profile) int {
	return 55 +
		bonus(p.Goal == profile.GoalMaintenance || p.Goal == profile.GoalBulking, 20) +
		bonus(p.FocusArea == profile.FocusGeneral || p.FocusArea == profile.FocusStrength, 20) +
		bonus(p.ExperienceLevel == profile.ExperienceIntermediate, 15) +
		bonus(p.ActivityLevel == profile.ActivityModerate || p.ActivityLevel == profile.ActivityActive, 15) +
		bonus(male(p), 10)
}

func chrisReasons(p profile.Profile) []string {
	r := []string{"Balanced, holistic approach"}
	if p.FocusArea == profile.FocusGeneral {
		r = append(r, "Perfect for overall fitness")
	}
	return append(r, "Functional training focus", "Sustainable lifestyle habits")
}

func jenScore(p profile.Profile) int {
	return 45 +
		bonus(female(p), 35) +
		bonus(p.FocusArea == profile.FocusStrength || p.FocusArea == profile.FocusHypertrophy, 25) +
		bonus(experienced(p), 20) +
		bonus(p.Goal == profile.GoalBulking || p.Goal == profile.GoalMaintenance, 15)
}

func jenReasons(p profile.Profile) []string {
	var r []string
	if female(p) {
		r = append(r, "Empowers women through strength training")
	}
	if p.FocusArea == profile.FocusStrength {
		r = append(r, "Expert in building strength")
	}
	return append(r, "No-nonsense, tough love approach", "Transforms lives through fitness")
}

func casseyScore(p profile.Profile) int {
	return 40 +
		bonus(female(p), 35) +
		bonus(p.ExperienceLevel == profile.ExperienceBeginner, 25) +
		bonus(p.FocusArea == profile.FocusGeneral || p.FocusArea == profile.FocusEndurance, 20) +
		bonus(p.Goal == profile.GoalDeficit || p.Goal == profile.GoalMaintenance, 15) +
		bonus(lightlyActive(p), 10)
}

func casseyReasons(p profile.Profile) []string {
	var r []string
	if female(p) {
		r = append(r, "Fun, upbeat approach for women")
	}
	if p.ExperienceLevel == profile.ExperienceBeginner {
		r = append(r, "Perfect for starting out")
	}
	return append(r, "Pilates and bodyweight focus", "Positive, encouraging style")
}

func mikeScore(p profile.Profile) int {
	return 45 +
		bonus(p.ExperienceLevel == profile.ExperienceAdvanced, 30) +
		bonus(p.FocusArea == profile.FocusHypertrophy || p.FocusArea == profile.FocusStrength, 25) +
		bonus(p.Goal == profile.GoalBulking, 20) +
		bonus(veryActive(p), 10) +
		bonus(male(p), 10)
}

func mikeReasons(p profile.Profile) []string {
	var r []string
	if p.ExperienceLevel == profile.ExperienceAdvanced {
		r = append(r, "High-Intensity Training expert")
	}
	if p.FocusArea == profile.FocusHypertrophy {
		r = append(r, "Master of muscle building")
	}
	return append(r, "Science-based approach", "Efficient, intense workouts")
}
