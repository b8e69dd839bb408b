package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pavelanni/swimsteps/internal/model"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "Students")
	if got != "Students" {
		t.Errorf("T(Students) = %q, want 'Students'", got)
	}

	got = T(ctx, "ErrEmptyName")
	if got != "Name cannot be empty." {
		t.Errorf("T(ErrEmptyName) = %q, want 'Name cannot be empty.'", got)
	}
}

func TestTranslateRussian(t *testing.T) {
	ctx := initLang(t, "ru")

	got := T(ctx, "Students")
	if got != "Ученики" {
		t.Errorf("T(Students) = %q, want 'Ученики'", got)
	}

	got = StatusLabel(ctx, model.StatusInProgress)
	if got != "В процессе" {
		t.Errorf("StatusLabel(In Progress) = %q, want 'В процессе'", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got1 := Tp(ctx, "SkillsAchieved", 1)
	if got1 != "1 skill achieved" {
		t.Errorf("Tp(SkillsAchieved, 1) = %q, want '1 skill achieved'", got1)
	}

	got5 := Tp(ctx, "SkillsAchieved", 5)
	if got5 != "5 skills achieved" {
		t.Errorf("Tp(SkillsAchieved, 5) = %q, want '5 skills achieved'", got5)
	}
}

func TestPluralTranslationRussian(t *testing.T) {
	ctx := initLang(t, "ru")

	tests := []struct {
		count int
		want  string
	}{
		{1, "1 навык освоен"},
		{3, "3 навыка освоено"},
		{5, "5 навыков освоено"},
		{21, "21 навык освоен"},
	}
	for _, tt := range tests {
		if got := Tp(ctx, "SkillsAchieved", tt.count); got != tt.want {
			t.Errorf("Tp(SkillsAchieved, %d) = %q, want %q", tt.count, got, tt.want)
		}
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "CohortDates", map[string]any{"Start": "2024-06-01", "End": "2024-07-13"})
	if got != "2024-06-01 to 2024-07-13" {
		t.Errorf("Td(CohortDates) = %q, want '2024-06-01 to 2024-07-13'", got)
	}
}

func TestLabels(t *testing.T) {
	ctx := initLang(t, "en")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"not started", StatusLabel(ctx, model.StatusNotStarted), "Not Started"},
		{"achieved", StatusLabel(ctx, model.StatusAchieved), "Achieved"},
		{"level", LevelLabel(ctx, model.LevelIntermediate), "Intermediate"},
		{"category", CategoryLabel(ctx, model.CategoryAdvanced), "Advanced skills"},
		{"practice", PracticeLabel(ctx, model.PracticeDone), "Done"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}

func TestMiddlewareLangOverride(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	var got string
	h := Middleware("en")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = T(r.Context(), "Students")
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if got != "Students" {
		t.Errorf("default language: got %q, want 'Students'", got)
	}

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/?lang=ru", nil))
	if got != "Ученики" {
		t.Errorf("lang=ru: got %q, want 'Ученики'", got)
	}
}

func TestInitUnsupportedLanguage(t *testing.T) {
	if err := Init("de"); err == nil {
		t.Error("Init(de) succeeded, want error for a language without a locale file")
	}
	if err := Init("not a tag!"); err == nil {
		t.Error("Init with an invalid tag succeeded")
	}
}

func TestSupported(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	tests := map[string]bool{
		"en":    true,
		"ru":    true,
		"ru-RU": true,
		"de":    false,
		"":      false,
	}
	for lang, want := range tests {
		if got := Supported(lang); got != want {
			t.Errorf("Supported(%q) = %v, want %v", lang, got, want)
		}
	}
}

func TestMiddlewareIgnoresUnsupportedLang(t *testing.T) {
	if err := Init("ru"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	var got string
	h := Middleware("ru")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = T(r.Context(), "Students")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/?lang=xx", nil))
	if got != "Ученики" {
		t.Errorf("lang=xx: got %q, want the configured language", got)
	}
}
