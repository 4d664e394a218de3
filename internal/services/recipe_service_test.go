package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/platewise/go-recipe-backend/internal/domain"
	"github.com/platewise/go-recipe-backend/internal/generation"
)

// ----- Fake repo -----

type fakeRecipeRepo struct {
	// capture args
	createUserID string
	createText   string
	createCalls  int
	createErr    error

	listUserID string
	listRows   []domain.Recipe
	listErr    error

	countUserID string
	countTotal  int64
	countErr    error
}

func (r *fakeRecipeRepo) CreateRecipe(ctx context.Context, db *gorm.DB, userID, text string) (*domain.Recipe, error) {
	r.createUserID, r.createText = userID, text
	r.createCalls++
	if r.createErr != nil {
		return nil, r.createErr
	}
	return &domain.Recipe{ID: uint(r.createCalls), UserID: userID, Recipe: text, CreatedAt: time.Now().UTC()}, nil
}

func (r *fakeRecipeRepo) ListRecipes(ctx context.Context, db *gorm.DB, userID string) ([]domain.Recipe, error) {
	r.listUserID = userID
	return r.listRows, r.listErr
}

func (r *fakeRecipeRepo) CountRecipes(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	r.countUserID = userID
	return r.countTotal, r.countErr
}

// ----- Fake generator -----

type fakeGenerator struct {
	gotPrompt string
	calls     int
	text      string
	err       error
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.gotPrompt = prompt
	g.calls++
	return g.text, g.err
}

var _ generation.Generator = (*fakeGenerator)(nil)

func newTestService(repo *fakeRecipeRepo, gen *fakeGenerator) *RecipeService {
	return NewRecipeService(nil, repo, gen)
}

// ----- Generate -----

func TestGenerate_TrimsPromptAndCallsWebhook(t *testing.T) {
	gen := &fakeGenerator{text: "Roast it."}
	svc := newTestService(&fakeRecipeRepo{}, gen)

	got, err := svc.Generate(context.Background(), "u1", "  roast chicken  ")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "Roast it." {
		t.Fatalf("got %q", got)
	}
	if gen.gotPrompt != "roast chicken" {
		t.Fatalf("prompt not trimmed before dispatch: %q", gen.gotPrompt)
	}
}

func TestGenerate_ValidationErrors(t *testing.T) {
	gen := &fakeGenerator{text: "x"}
	svc := newTestService(&fakeRecipeRepo{}, gen)

	cases := []struct {
		name    string
		userID  string
		prompt  string
		wantErr error
	}{
		{"empty prompt", "u1", "   ", ErrEmptyPrompt},
		{"missing user", "  ", "soup", ErrMissingUser},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Generate(context.Background(), tc.userID, tc.prompt); !errors.Is(err, tc.wantErr) {
				t.Fatalf("want %v, got %v", tc.wantErr, err)
			}
		})
	}
	if gen.calls != 0 {
		t.Fatalf("webhook must not be called on validation failure, got %d calls", gen.calls)
	}
}

func TestGenerate_ForwardsArbitrarilyLongPrompts(t *testing.T) {
	gen := &fakeGenerator{text: "ok"}
	svc := newTestService(&fakeRecipeRepo{}, gen)

	long := strings.Repeat("x", 5000)
	if _, err := svc.Generate(context.Background(), "u1", long); err != nil {
		t.Fatalf("Generate with long prompt: %v", err)
	}
	if gen.calls != 1 || gen.gotPrompt != long {
		t.Fatalf("long prompt not forwarded intact (calls=%d, len=%d)", gen.calls, len(gen.gotPrompt))
	}
}

func TestGenerate_PropagatesUpstreamError(t *testing.T) {
	gen := &fakeGenerator{err: generation.ErrUpstream}
	svc := newTestService(&fakeRecipeRepo{}, gen)

	if _, err := svc.Generate(context.Background(), "u1", "soup"); !errors.Is(err, generation.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

// ----- Save -----

func TestSave_Success(t *testing.T) {
	repo := &fakeRecipeRepo{}
	svc := newTestService(repo, &fakeGenerator{})

	rec, err := svc.Save(context.Background(), "u1", "Boil the lentils.")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if rec == nil || rec.UserID != "u1" || rec.Recipe != "Boil the lentils." {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if repo.createUserID != "u1" || repo.createText != "Boil the lentils." {
		t.Fatalf("repo called with (%q, %q)", repo.createUserID, repo.createText)
	}
}

func TestSave_ValidationErrors(t *testing.T) {
	repo := &fakeRecipeRepo{}
	svc := newTestService(repo, &fakeGenerator{})

	if _, err := svc.Save(context.Background(), " ", "text"); !errors.Is(err, ErrMissingUser) {
		t.Fatalf("want ErrMissingUser, got %v", err)
	}
	if _, err := svc.Save(context.Background(), "u1", "  "); !errors.Is(err, ErrEmptyRecipe) {
		t.Fatalf("want ErrEmptyRecipe, got %v", err)
	}
	if repo.createCalls != 0 {
		t.Fatalf("repo must not be called on validation failure")
	}
}

func TestSave_DuplicateContentInsertsTwice(t *testing.T) {
	repo := &fakeRecipeRepo{}
	svc := newTestService(repo, &fakeGenerator{})

	a, err := svc.Save(context.Background(), "u1", "same text")
	if err != nil {
		t.Fatalf("first Save: %v", err)
	}
	b, err := svc.Save(context.Background(), "u1", "same text")
	if err != nil {
		t.Fatalf("second Save: %v", err)
	}
	if repo.createCalls != 2 {
		t.Fatalf("expected 2 inserts, got %d", repo.createCalls)
	}
	if a.ID == b.ID {
		t.Fatalf("expected distinct records, got id %d twice", a.ID)
	}
}

// ----- GenerateAndSave -----

func TestGenerateAndSave_Success(t *testing.T) {
	repo := &fakeRecipeRepo{}
	gen := &fakeGenerator{text: "Stir fry the veg."}
	svc := newTestService(repo, gen)

	sub, err := svc.GenerateAndSave(context.Background(), "u1", "veg stir fry")
	if err != nil {
		t.Fatalf("GenerateAndSave: %v", err)
	}
	if !sub.Saved || sub.SaveError != nil {
		t.Fatalf("expected saved submission, got %+v", sub)
	}
	if sub.Recipe != "Stir fry the veg." || sub.Record == nil || sub.Record.Recipe != sub.Recipe {
		t.Fatalf("unexpected submission: %+v", sub)
	}
}

func TestGenerateAndSave_GenerationFailureReturnsError(t *testing.T) {
	repo := &fakeRecipeRepo{}
	gen := &fakeGenerator{err: generation.ErrUpstream}
	svc := newTestService(repo, gen)

	sub, err := svc.GenerateAndSave(context.Background(), "u1", "soup")
	if !errors.Is(err, generation.ErrUpstream) || sub != nil {
		t.Fatalf("expected (nil, ErrUpstream), got (%+v, %v)", sub, err)
	}
	if repo.createCalls != 0 {
		t.Fatal("must not attempt persistence after generation failure")
	}
}

func TestGenerateAndSave_SaveFailureStillReturnsRecipe(t *testing.T) {
	storeErr := errors.New("disk full")
	repo := &fakeRecipeRepo{createErr: storeErr}
	gen := &fakeGenerator{text: "Bake at 180C."}
	svc := newTestService(repo, gen)

	sub, err := svc.GenerateAndSave(context.Background(), "u1", "bread")
	if err != nil {
		t.Fatalf("persistence failure must not surface as pipeline error, got %v", err)
	}
	if sub.Saved || sub.Record != nil {
		t.Fatalf("expected unsaved submission, got %+v", sub)
	}
	if sub.Recipe != "Bake at 180C." {
		t.Fatalf("generated text lost: %q", sub.Recipe)
	}
	if !errors.Is(sub.SaveError, storeErr) {
		t.Fatalf("SaveError = %v; want %v", sub.SaveError, storeErr)
	}
}

func TestGenerateAndSave_PersistsFallbackText(t *testing.T) {
	repo := &fakeRecipeRepo{}
	gen := &fakeGenerator{text: generation.FallbackText}
	svc := newTestService(repo, gen)

	sub, err := svc.GenerateAndSave(context.Background(), "u1", "anything")
	if err != nil {
		t.Fatalf("GenerateAndSave: %v", err)
	}
	if !sub.Saved || repo.createText != generation.FallbackText {
		t.Fatalf("fallback text should persist like any recipe, got %+v", sub)
	}
}

// ----- History -----

func TestHistory_MapsRowsAndDerivesTitles(t *testing.T) {
	now := time.Now().UTC()
	repo := &fakeRecipeRepo{listRows: []domain.Recipe{
		{ID: 2, UserID: "u1", Recipe: "a quick garlic pasta\n1. Boil pasta.", CreatedAt: now},
		{ID: 1, UserID: "u1", Recipe: "", CreatedAt: now.Add(-time.Hour)},
	}}
	svc := newTestService(repo, &fakeGenerator{})

	items, err := svc.History(context.Background(), "u1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if repo.listUserID != "u1" {
		t.Fatalf("repo called with %q", repo.listUserID)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	// Stop-words ("a") dropped, remaining words title-cased.
	if items[0].Title != "Quick Garlic Pasta" {
		t.Fatalf("title = %q", items[0].Title)
	}
	if items[1].Title != "Untitled recipe" {
		t.Fatalf("empty text title = %q", items[1].Title)
	}
	if items[0].ID != 2 || items[0].Recipe.Recipe != "a quick garlic pasta\n1. Boil pasta." {
		t.Fatalf("record fields lost: %+v", items[0])
	}
}

func TestHistory_MissingUser(t *testing.T) {
	svc := newTestService(&fakeRecipeRepo{}, &fakeGenerator{})
	if _, err := svc.History(context.Background(), "  "); !errors.Is(err, ErrMissingUser) {
		t.Fatalf("want ErrMissingUser, got %v", err)
	}
}

func TestHistory_RepoErrorPropagates(t *testing.T) {
	repo := &fakeRecipeRepo{listErr: errors.New("table missing")}
	svc := newTestService(repo, &fakeGenerator{})

	if _, err := svc.History(context.Background(), "u1"); err == nil {
		t.Fatal("expected repo error to propagate")
	}
}

func TestHistory_EmptyIsNotAnError(t *testing.T) {
	svc := newTestService(&fakeRecipeRepo{}, &fakeGenerator{})
	items, err := svc.History(context.Background(), "u1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty history, got %d", len(items))
	}
}

// ----- deriveTitle -----

func TestDeriveTitle(t *testing.T) {
	svc := newTestService(&fakeRecipeRepo{}, &fakeGenerator{})

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"basic", "spicy chickpea curry", "Spicy Chickpea Curry"},
		{"first line only", "tomato soup\nwith croutons and cream", "Tomato Soup"},
		{"stop words dropped", "a recipe for the best bread", "Recipe Best Bread"},
		{"only stop words", "the and of", "Untitled recipe"},
		{"empty", "", "Untitled recipe"},
		{"numbered tokens kept", "pasta2 night", "Pasta2 Night"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := svc.deriveTitle(tc.in); got != tc.want {
				t.Fatalf("deriveTitle(%q) = %q; want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestDeriveTitle_CapsWordsAndLength(t *testing.T) {
	svc := newTestService(&fakeRecipeRepo{}, &fakeGenerator{})
	svc.TitleMaxLen = 12

	got := svc.deriveTitle("one two three four five six seven eight nine ten")
	if len([]rune(got)) > 12 {
		t.Fatalf("title exceeds cap: %q", got)
	}
}
