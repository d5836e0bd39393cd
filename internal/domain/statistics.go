package domain

import "math"

// Statistics summarizes a batch of generated MCQs.
type Statistics struct {
	TotalMCQs                int                  `json:"total_mcqs"`
	DifficultyDistribution   map[Difficulty]int   `json:"difficulty_distribution"`
	QuestionTypeDistribution map[QuestionType]int `json:"question_type_distribution"`
	AverageConfidence        float64              `json:"average_confidence"`
	MinConfidence            float64              `json:"min_confidence"`
	MaxConfidence            float64              `json:"max_confidence"`
}

// ComputeStatistics builds summary statistics for items. An empty batch
// yields zero values with all three difficulty buckets present.
func ComputeStatistics(items []MCQ) Statistics {
	stats := Statistics{
		TotalMCQs: len(items),
		DifficultyDistribution: map[Difficulty]int{
			DifficultyEasy:   0,
			DifficultyMedium: 0,
			DifficultyHard:   0,
		},
		QuestionTypeDistribution: make(map[QuestionType]int),
	}
	if len(items) == 0 {
		return stats
	}

	var sum float64
	stats.MinConfidence = math.Inf(1)
	stats.MaxConfidence = math.Inf(-1)
	for _, item := range items {
		stats.DifficultyDistribution[item.Difficulty]++
		stats.QuestionTypeDistribution[item.QuestionType]++
		sum += item.Confidence
		stats.MinConfidence = math.Min(stats.MinConfidence, item.Confidence)
		stats.MaxConfidence = math.Max(stats.MaxConfidence, item.Confidence)
	}
	stats.AverageConfidence = math.Round(sum/float64(len(items))*1000) / 1000

	return stats
}
