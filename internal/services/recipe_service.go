// Package services – RecipeService
//
// This file implements RecipeService, the application-level component that
// owns the recipe submission/persistence pipeline. It validates inputs,
// calls the external generation webhook through a generation.Generator,
// persists recipe records, and serves the owner-scoped history.
//
// The submission pipeline deliberately reports generation and persistence
// as two independent outcomes: a recipe that was generated but could not be
// durably saved is still returned to the caller, together with the save
// failure, instead of folding both into one status.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// the owner id and result flags.
package services

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/platewise/go-recipe-backend/internal/domain"
	"github.com/platewise/go-recipe-backend/internal/generation"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// RecipeRepo defines the repository contract required by RecipeService.
type RecipeRepo interface {
	// CreateRecipe inserts a new recipe row for the given owner.
	CreateRecipe(ctx context.Context, db *gorm.DB, userID, text string) (*domain.Recipe, error)

	// ListRecipes returns all recipes belonging to the owner, newest first.
	ListRecipes(ctx context.Context, db *gorm.DB, userID string) ([]domain.Recipe, error)

	// CountRecipes returns the total number of recipes for the owner.
	CountRecipes(ctx context.Context, db *gorm.DB, userID string) (int64, error)
}

// RecipeService coordinates generation, persistence, and history retrieval.
type RecipeService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the recipe repository used by this service.
	Repo RecipeRepo
	// Generator calls the external generation webhook.
	Generator generation.Generator

	// TitleMaxLen caps derived display titles by rune length.
	TitleMaxLen int
	// TitleLocale selects the casing locale for derived titles.
	TitleLocale language.Tag
}

// NewRecipeService constructs a RecipeService with sane defaults for
// display-title handling.
func NewRecipeService(db *gorm.DB, r RecipeRepo, gen generation.Generator) *RecipeService {
	return &RecipeService{
		DB:          db,
		Repo:        r,
		Generator:   gen,
		TitleMaxLen: 60,
		TitleLocale: language.English,
	}
}

// Submission is the result of one orchestrated generate-and-save call.
// Generation success and persistence success are reported independently:
// Saved is false (and SaveError holds the cause) when the recipe was
// generated but could not be written to the store.
type Submission struct {
	// Recipe is the generated recipe text (or the webhook fallback literal).
	Recipe string
	// Record is the persisted row, nil when persistence failed.
	Record *domain.Recipe
	// Saved reports whether the recipe was durably written.
	Saved bool
	// SaveError is the persistence failure, nil when Saved is true.
	SaveError error
}

// HistoryItem is one rendered history entry: the raw record plus a display
// title derived from the recipe text at read time (titles are never stored).
type HistoryItem struct {
	domain.Recipe
	// Title is a short, cased label derived from the first words of the text.
	Title string `json:"title"`
}

// Generate validates the request and performs a single call to the external
// generation webhook. Only presence is checked: any non-empty prompt is
// forwarded as-is, with no length or content restrictions. The owner id is
// required by the pipeline contract but is intentionally NOT forwarded
// upstream; it exists purely for the caller's downstream persistence step.
func (s *RecipeService) Generate(ctx context.Context, userID, prompt string) (string, error) {
	tr := otel.Tracer("services/RecipeService")
	ctx, span := tr.Start(ctx, "Generate",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ErrEmptyPrompt
	}
	if strings.TrimSpace(userID) == "" {
		return "", ErrMissingUser
	}

	return s.Generator.Generate(ctx, prompt)
}

// Save performs exactly one insert of a new recipe record. There is no
// deduplication and no upsert: repeated calls with identical content create
// distinct records.
func (s *RecipeService) Save(ctx context.Context, userID, text string) (*domain.Recipe, error) {
	tr := otel.Tracer("services/RecipeService")
	ctx, span := tr.Start(ctx, "Save",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUser
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyRecipe
	}

	return s.Repo.CreateRecipe(ctx, s.DB, userID, text)
}

// GenerateAndSave runs the full submission pipeline for an authenticated
// owner: generate first, then persist. A validation or generation failure
// returns an error and no Submission. A persistence failure does NOT: the
// generated recipe is returned with Saved=false and the cause in SaveError,
// so callers can tell the user their recipe exists but was not saved.
func (s *RecipeService) GenerateAndSave(ctx context.Context, userID, prompt string) (*Submission, error) {
	tr := otel.Tracer("services/RecipeService")
	ctx, span := tr.Start(ctx, "GenerateAndSave",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	text, err := s.Generate(ctx, userID, prompt)
	if err != nil {
		return nil, err
	}

	sub := &Submission{Recipe: text}
	rec, err := s.Save(ctx, userID, text)
	if err != nil {
		sub.SaveError = err
	} else {
		sub.Record = rec
		sub.Saved = true
	}
	span.SetAttributes(attribute.Bool("recipe.saved", sub.Saved))
	return sub, nil
}

// History returns every recipe owned by userID, newest first, each carrying
// a derived display title. The full result set is always fetched; there is
// no pagination.
func (s *RecipeService) History(ctx context.Context, userID string) ([]HistoryItem, error) {
	tr := otel.Tracer("services/RecipeService")
	ctx, span := tr.Start(ctx, "History",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUser
	}

	rows, err := s.Repo.ListRecipes(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}

	items := make([]HistoryItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, HistoryItem{
			Recipe: r,
			Title:  s.deriveTitle(r.Recipe),
		})
	}
	return items, nil
}

// deriveTitle builds a short cased label from the first words of the recipe
// text, skipping stop-words. Empty input yields "Untitled recipe".
func (s *RecipeService) deriveTitle(text string) string {
	firstLine := text
	if i := strings.IndexByte(firstLine, '\n'); i >= 0 {
		firstLine = firstLine[:i]
	}
	toks := titleWordRE.FindAllString(strings.ToLower(firstLine), -1)

	titleCaser := cases.Title(s.titleLocaleOrDefault())
	out := make([]string, 0, 8)
	for _, w := range toks {
		if _, skip := titleStopWords[w]; skip {
			continue
		}
		out = append(out, titleCaser.String(w))
		if len(out) >= 8 {
			break
		}
	}
	if len(out) == 0 {
		return "Untitled recipe"
	}
	return s.clipTitle(strings.Join(out, " "))
}

// clipTitle truncates a derived title to the configured maximum rune length.
func (s *RecipeService) clipTitle(title string) string {
	max := s.TitleMaxLen
	if max <= 0 {
		max = 60
	}
	if utf8.RuneCountInString(title) > max {
		return string([]rune(title)[:max])
	}
	return title
}

// titleLocaleOrDefault returns the configured casing locale or English.
func (s *RecipeService) titleLocaleOrDefault() language.Tag {
	if s.TitleLocale == language.Und {
		return language.English
	}
	return s.TitleLocale
}

// Extract Unicode letters with optional trailing numbers.
var titleWordRE = regexp.MustCompile(`[\p{L}]+[\p{N}]*`)

// Minimal English stop-words set for compact titles.
var titleStopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "to": {}, "in": {},
	"is": {}, "are": {}, "for": {}, "on": {}, "with": {}, "by": {}, "from": {},
	"at": {}, "as": {}, "that": {}, "this": {}, "it": {}, "be": {}, "was": {}, "were": {},
}
