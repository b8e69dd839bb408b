package model

// Level is the derived proficiency band of a student.
type Level string

const (
	LevelBeginner     Level = "Beginner"
	LevelIntermediate Level = "Intermediate"
	LevelAdvanced     Level = "Advanced"
)

// Thresholds of achieved skills for each level above Beginner.
const (
	IntermediateThreshold = 4
	AdvancedThreshold     = 8
)

// AchievedCount returns the number of skills with StatusAchieved.
func AchievedCount(skills map[string]SkillState) int {
	n := 0
	for _, st := range skills {
		if st.Status == StatusAchieved {
			n++
		}
	}
	return n
}

// ComputeLevel maps the achieved-skill count to a level.
func ComputeLevel(skills map[string]SkillState) Level {
	switch n := AchievedCount(skills); {
	case n >= AdvancedThreshold:
		return LevelAdvanced
	case n >= IntermediateThreshold:
		return LevelIntermediate
	default:
		return LevelBeginner
	}
}
