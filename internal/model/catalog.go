package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Category groups catalog skills by difficulty.
type Category string

const (
	CategoryBeginner     Category = "Beginner"
	CategoryIntermediate Category = "Intermediate"
	CategoryAdvanced     Category = "Advanced"
)

// Skill is one swim competency from the catalog.
type Skill struct {
	Key      string   `json:"key"`
	Name     string   `json:"name"`
	VideoURL string   `json:"videoUrl"`
	Category Category `json:"category"`
}

// Drill is an exercise that builds toward a skill.
type Drill struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Description string `json:"description"`
	VideoURL    string `json:"videoUrl,omitempty"`
}

// Catalog is the fixed set of skills and their drills.
type Catalog struct {
	Skills []Skill            `json:"skills"`
	Drills map[string][]Drill `json:"drills"`
}

// DefaultCatalog returns the built-in swim skill catalog.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Skills: []Skill{
			{Key: "waterComfort", Name: "Water Comfort", VideoURL: "https://www.youtube.com/watch?v=zdY0mN2rS5k", Category: CategoryBeginner},
			{Key: "backFloat", Name: "Back Float", VideoURL: "https://www.youtube.com/watch?v=1FErpTR7j98", Category: CategoryBeginner},
			{Key: "breathControl", Name: "Breath Control", VideoURL: "https://www.youtube.com/watch?v=l91pohjGZf4", Category: CategoryBeginner},
			{Key: "frontGlide", Name: "Front Glide", VideoURL: "https://www.youtube.com/watch?v=bn5xJErH_7Q", Category: CategoryBeginner},
			{Key: "flutterKick", Name: "Flutter Kick", VideoURL: "https://www.youtube.com/watch?v=8N9jg3zqbDU", Category: CategoryIntermediate},
			{Key: "freestyleArms", Name: "Freestyle Arms + Breathing", VideoURL: "https://www.youtube.com/watch?v=dpzv2v8f_-k", Category: CategoryIntermediate},
			{Key: "treading", Name: "Treading Water", VideoURL: "https://www.youtube.com/watch?v=OQ0_owTIr2M", Category: CategoryIntermediate},
			{Key: "breaststroke", Name: "Breaststroke", VideoURL: "https://www.youtube.com/watch?v=CqkRjvZrC1Y", Category: CategoryAdvanced},
			{Key: "endurance25", Name: "Endurance: 25y continuous", VideoURL: "https://www.youtube.com/watch?v=Qq1k1u4k0H4", Category: CategoryAdvanced},
		},
		Drills: map[string][]Drill{
			"waterComfort": {
				{Key: "bubble-party", Title: "Bubble Party", Description: "Face in, blow bubbles 5s cycles", VideoURL: "https://www.youtube.com/watch?v=l91pohjGZf4"},
				{Key: "starfish-float", Title: "Starfish Float (assisted)", Description: "Back float with support"},
			},
			"backFloat": {
				{Key: "ear-water", Title: "Ears-in Water", Description: "Relax head back; ears under water 10s"},
			},
		},
	}
}

// ParseCatalog decodes and validates a catalog JSON document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that skill keys are unique and categories are known.
func (c *Catalog) Validate() error {
	if len(c.Skills) == 0 {
		return errors.New("catalog has no skills")
	}
	seen := make(map[string]bool, len(c.Skills))
	for i, s := range c.Skills {
		if s.Key == "" {
			return fmt.Errorf("catalog skill %d: empty key", i)
		}
		if seen[s.Key] {
			return fmt.Errorf("catalog skill %q: duplicate key", s.Key)
		}
		seen[s.Key] = true
		switch s.Category {
		case CategoryBeginner, CategoryIntermediate, CategoryAdvanced:
		default:
			return fmt.Errorf("catalog skill %q: unknown category %q", s.Key, s.Category)
		}
	}
	for key := range c.Drills {
		if !seen[key] {
			return fmt.Errorf("catalog drills reference unknown skill %q", key)
		}
	}
	return nil
}

// Skill returns the catalog skill with the given key.
func (c *Catalog) Skill(key string) (Skill, bool) {
	for _, s := range c.Skills {
		if s.Key == key {
			return s, true
		}
	}
	return Skill{}, false
}

// Drill returns a drill of the given skill.
func (c *Catalog) Drill(skillKey, drillKey string) (Drill, bool) {
	for _, d := range c.Drills[skillKey] {
		if d.Key == drillKey {
			return d, true
		}
	}
	return Drill{}, false
}

// SkillsByCategory returns catalog skills of one category in catalog order.
func (c *Catalog) SkillsByCategory(cat Category) []Skill {
	var out []Skill
	for _, s := range c.Skills {
		if s.Category == cat {
			out = append(out, s)
		}
	}
	return out
}

// DefaultSkillMap returns a Not Started entry for every catalog skill.
func (c *Catalog) DefaultSkillMap() map[string]SkillState {
	m := make(map[string]SkillState, len(c.Skills))
	for _, s := range c.Skills {
		m[s.Key] = SkillState{Status: StatusNotStarted, Logs: []LogItem{}}
	}
	return m
}

// PracticeTitle builds the display title for a practice assignment. It falls
// back to the skill name, then to "Practice", when lookups miss.
func (c *Catalog) PracticeTitle(skillKey, drillKey string) string {
	skill, ok := c.Skill(skillKey)
	if !ok {
		return "Practice"
	}
	if d, ok := c.Drill(skillKey, drillKey); ok {
		return skill.Name + ": " + d.Title
	}
	return skill.Name
}
