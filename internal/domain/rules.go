package domain

import "fmt"

// RuleKind is the closed set of achievement unlock rules.
type RuleKind int

const (
	RuleQuizzesTaken RuleKind = iota + 1
	RuleAttemptScore
	RuleAverageScore
	RuleStreakDays
	RuleTopRank
	RuleAllCategories
)

func (k RuleKind) String() string {
	switch k {
	case RuleQuizzesTaken:
		return "quizzes_taken"
	case RuleAttemptScore:
		return "attempt_score"
	case RuleAverageScore:
		return "average_score"
	case RuleStreakDays:
		return "streak_days"
	case RuleTopRank:
		return "top_rank"
	case RuleAllCategories:
		return "all_categories"
	default:
		return fmt.Sprintf("rule(%d)", int(k))
	}
}

// UnlockRule is a typed achievement condition. Min is the inclusive threshold for
// the threshold-based kinds and is ignored by TopRank and AllCategories.
type UnlockRule struct {
	Kind RuleKind
	Min  float64
}

// Catalog condition names as stored in the achievements table.
const (
	ConditionFirstQuiz     = "Complete 1 quiz"
	ConditionPerfectScore  = "Get perfect score"
	ConditionTenQuizzes    = "Complete 10 quizzes"
	ConditionHighAverage   = "Maintain high average"
	ConditionWeeklyStreak  = "Weekly streak"
	ConditionTopRank       = "Top rank"
	ConditionAllCategories = "All categories"
)

var conditionRules = map[string]UnlockRule{
	ConditionFirstQuiz:     {Kind: RuleQuizzesTaken, Min: 1},
	ConditionPerfectScore:  {Kind: RuleAttemptScore, Min: 100},
	ConditionTenQuizzes:    {Kind: RuleQuizzesTaken, Min: 10},
	ConditionHighAverage:   {Kind: RuleAverageScore, Min: 90},
	ConditionWeeklyStreak:  {Kind: RuleStreakDays, Min: 7},
	ConditionTopRank:       {Kind: RuleTopRank},
	ConditionAllCategories: {Kind: RuleAllCategories},
}

// ParseUnlockCondition maps a catalog condition name to its typed rule.
func ParseUnlockCondition(condition string) (UnlockRule, error) {
	rule, ok := conditionRules[condition]
	if !ok {
		return UnlockRule{}, fmt.Errorf("%w: %q", ErrUnknownRule, condition)
	}
	return rule, nil
}

// DefaultAchievements is the catalog seeded by migrations and used by the in-memory store.
func DefaultAchievements() []Achievement {
	return []Achievement{
		{ID: 1, Title: "First Steps", Description: "Complete your first quiz", Icon: "flag", UnlockCondition: ConditionFirstQuiz},
		{ID: 2, Title: "Perfectionist", Description: "Score 100% on a quiz", Icon: "star", UnlockCondition: ConditionPerfectScore},
		{ID: 3, Title: "Quiz Enthusiast", Description: "Complete 10 quizzes", Icon: "books", UnlockCondition: ConditionTenQuizzes},
		{ID: 4, Title: "High Achiever", Description: "Keep an average score of 90% or more", Icon: "trophy", UnlockCondition: ConditionHighAverage},
		{ID: 5, Title: "On Fire", Description: "Complete a quiz 7 days in a row", Icon: "fire", UnlockCondition: ConditionWeeklyStreak},
		{ID: 6, Title: "Top of the Class", Description: "Reach rank 1", Icon: "crown", UnlockCondition: ConditionTopRank},
		{ID: 7, Title: "Explorer", Description: "Complete a quiz in every category", Icon: "compass", UnlockCondition: ConditionAllCategories},
	}
}
