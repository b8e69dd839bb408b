package i18n

import (
	"context"
	"strings"

	"github.com/pavelanni/swimsteps/internal/model"
)

// StatusLabel returns the display name of a skill status.
func StatusLabel(ctx context.Context, s model.SkillStatus) string {
	return T(ctx, "Status"+strings.ReplaceAll(string(s), " ", ""))
}

// LevelLabel returns the display name of a level.
func LevelLabel(ctx context.Context, l model.Level) string {
	return T(ctx, "Level"+string(l))
}

// CategoryLabel returns the heading for a catalog category.
func CategoryLabel(ctx context.Context, c model.Category) string {
	return T(ctx, "Category"+string(c))
}

// PracticeLabel returns the display name of a practice status.
func PracticeLabel(ctx context.Context, p model.PracticeStatus) string {
	return T(ctx, "Practice"+string(p))
}
