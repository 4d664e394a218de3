// Recipe HTTP handlers.
//
// This file exposes the recipe pipeline endpoints:
//   - POST /generate-recipe   (generation gateway: prompt → external webhook)
//   - POST /save-recipe       (persistence gateway: one durable insert)
//   - POST /recipes           (authenticated submission: generate then save)
//   - GET  /recipes           (authenticated history, newest first, ETag)
//
// Handlers are transport-thin: they validate input, call the application
// service, and translate results into HTTP responses. The two gateway
// endpoints mirror the original pipeline contract exactly (owner id in the
// request body, no session requirement); the /recipes pair is the
// session-scoped surface used by the views.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/platewise/go-recipe-backend/internal/domain"
	"github.com/platewise/go-recipe-backend/internal/generation"
	"github.com/platewise/go-recipe-backend/internal/http/middleware"
	"github.com/platewise/go-recipe-backend/internal/repo"
	"github.com/platewise/go-recipe-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// RecipeService defines the pipeline operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type RecipeService interface {
	// Generate performs one external generation call for the prompt.
	Generate(ctx context.Context, userID, prompt string) (string, error)
	// Save performs exactly one insert of a new recipe record.
	Save(ctx context.Context, userID, text string) (*domain.Recipe, error)
	// GenerateAndSave runs the full submission pipeline, reporting
	// generation and persistence outcomes independently.
	GenerateAndSave(ctx context.Context, userID, prompt string) (*services.Submission, error)
	// History returns all recipes for the owner, newest first.
	History(ctx context.Context, userID string) ([]services.HistoryItem, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for the recipe pipeline and auth.
type Handlers struct {
	recipeSvc RecipeService
	idp       idProvider
}

// New constructs a Handlers instance bound to the given service and
// identity provider.
func New(recipeSvc RecipeService, idp idProvider) *Handlers {
	return &Handlers{recipeSvc: recipeSvc, idp: idp}
}

// userID extracts the authenticated user id set by middleware.RequireUser.
func userID(c *gin.Context) string {
	if v, ok := c.Get(middleware.UserIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

//
// DTOs
//

// GenerateRecipeRequest is the JSON payload for the generation gateway.
// The userId is accepted for the caller's downstream persistence step and
// is intentionally not forwarded to the external generator.
type GenerateRecipeRequest struct {
	Prompt string `json:"prompt" example:"chicken and rice"`
	UserID string `json:"userId" example:"4b1a7d0e-33ab-4f59-9a3e-2f55c91f6a10"`
}

// GenerateRecipeResponse carries the generated recipe text.
type GenerateRecipeResponse struct {
	Recipe string `json:"recipe" example:"Chicken Rice Bowl..."`
}

// SaveRecipeRequest is the JSON payload for the persistence gateway.
type SaveRecipeRequest struct {
	UserID string `json:"userId" example:"4b1a7d0e-33ab-4f59-9a3e-2f55c91f6a10"`
	Recipe string `json:"recipe" example:"Chicken Rice Bowl..."`
}

// SaveRecipeResponse acknowledges a successful insert.
type SaveRecipeResponse struct {
	Message string `json:"message" example:"Recipe saved successfully"`
}

// SubmitRecipeRequest is the JSON payload for the authenticated submission
// endpoint. The owner comes from the session, never from the body.
type SubmitRecipeRequest struct {
	Prompt string `json:"prompt" binding:"required,min=1" example:"something vegetarian with lentils"`
}

// SubmitRecipeResponse reports the two pipeline outcomes independently:
// a recipe that was generated but not durably saved still comes back, with
// Saved=false and the reason in SaveError.
type SubmitRecipeResponse struct {
	Recipe    string         `json:"recipe"`
	Saved     bool           `json:"saved"`
	SaveError string         `json:"save_error,omitempty"`
	Record    *domain.Recipe `json:"record,omitempty"`
}

// ListRecipesResponse wraps the owner's full history.
type ListRecipesResponse struct {
	Recipes []services.HistoryItem `json:"recipes"`
	Count   int                    `json:"count"`
}

//
// Handlers
//

// GenerateRecipe godoc
// @ID          generateRecipe
// @Summary     Generate a recipe from a prompt
// @Description Forwards the prompt to the external generation webhook and relays the recipe text.
// @Description The userId is required but never forwarded upstream.
// @Tags        Recipes
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.GenerateRecipeRequest  true  "Generation payload"
//
// @Success     200  {object}  handlers.GenerateRecipeResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Missing prompt or userId"
// @Failure     500  {object}  handlers.ErrorResponse  "Upstream or internal failure"
// @Router      /generate-recipe [post]
func (h *Handlers) GenerateRecipe(c *gin.Context) {
	var req GenerateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Missing prompt or userId")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" || strings.TrimSpace(req.UserID) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Missing prompt or userId")
		return
	}

	text, err := h.recipeSvc.Generate(c.Request.Context(), req.UserID, req.Prompt)
	if err != nil {
		h.failGeneration(c, err)
		return
	}

	middleware.ObserveGeneration("ok")
	ok(c, http.StatusOK, GenerateRecipeResponse{Recipe: text})
}

// failGeneration maps a generation error to the gateway response. The real
// cause is logged; the body carries a static message.
func (h *Handlers) failGeneration(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEmptyPrompt),
		errors.Is(err, services.ErrMissingUser):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, generation.ErrUpstream):
		middleware.ObserveGeneration("upstream_error")
		middleware.LoggerFrom(c).Error().Err(err).Msg("generation webhook failed")
		fail(c, http.StatusInternalServerError, ErrCodeGenerationFailed, "Internal server error")
	default:
		middleware.ObserveGeneration("error")
		middleware.LoggerFrom(c).Error().Err(err).Msg("generation failed")
		fail(c, http.StatusInternalServerError, ErrCodeGenerationFailed, "Internal server error")
	}
}

// SaveRecipe godoc
// @ID          saveRecipe
// @Summary     Persist a generated recipe
// @Description Inserts one recipe record owned by userId. Repeated calls with identical
// @Description content create distinct records; there is no deduplication.
// @Tags        Recipes
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.SaveRecipeRequest  true  "Save payload"
//
// @Success     200  {object}  handlers.SaveRecipeResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Missing userId or recipe"
// @Failure     500  {object}  handlers.ErrorResponse  "Store failure"
// @Router      /save-recipe [post]
func (h *Handlers) SaveRecipe(c *gin.Context) {
	var req SaveRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Missing userId or recipe")
		return
	}
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.Recipe) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Missing userId or recipe")
		return
	}

	if _, err := h.recipeSvc.Save(c.Request.Context(), req.UserID, req.Recipe); err != nil {
		// The persistence gateway relays the store's error message.
		fail(c, http.StatusInternalServerError, ErrCodeSaveFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, SaveRecipeResponse{Message: "Recipe saved successfully"})
}

// SubmitRecipe godoc
// @ID          submitRecipe
// @Summary     Generate and save a recipe for the current user
// @Description Runs the full pipeline for the session owner. Generation and persistence
// @Description are reported independently: "saved" is false when the recipe was generated
// @Description but the durable write failed.
// @Tags        Recipes
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       body  body  handlers.SubmitRecipeRequest  true  "Submission payload"
//
// @Success     200  {object}  handlers.SubmitRecipeResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Missing or oversized prompt"
// @Failure     401  {object}  handlers.ErrorResponse  "No active session"
// @Failure     500  {object}  handlers.ErrorResponse  "Generation failure"
// @Router      /recipes [post]
func (h *Handlers) SubmitRecipe(c *gin.Context) {
	var req SubmitRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "prompt required")
		return
	}

	sub, err := h.recipeSvc.GenerateAndSave(c.Request.Context(), userID(c), req.Prompt)
	if err != nil {
		h.failGeneration(c, err)
		return
	}
	middleware.ObserveGeneration("ok")

	resp := SubmitRecipeResponse{
		Recipe: sub.Recipe,
		Saved:  sub.Saved,
		Record: sub.Record,
	}
	if sub.SaveError != nil {
		middleware.LoggerFrom(c).Error().Err(sub.SaveError).Msg("recipe save failed after generation")
		resp.SaveError = "recipe was generated but could not be saved"
	}
	ok(c, http.StatusOK, resp)
}

// ListRecipes godoc
// @ID          listRecipes
// @Summary     List the current user's recipe history
// @Description Returns every recipe owned by the session user, newest first.
// @Description Supports weak ETag via If-None-Match and may return 304.
// @Tags        Recipes
// @Produce     json
// @Security    BearerAuth
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
//
// @Success     200  {object} handlers.ListRecipesResponse
// @Header      200  {string} ETag  "Weak ETag for the current result"
// @Success     304  {string} string "Not Modified"
// @Failure     401  {object} handlers.ErrorResponse "No active session"
// @Failure     500  {object} handlers.ErrorResponse "History read failure"
// @Router      /recipes [get]
func (h *Handlers) ListRecipes(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	// ETag pre-check (best effort). Recipes are immutable, so count plus the
	// newest created_at fully identifies the result set.
	var db *gorm.DB
	if svc, ok := h.recipeSvc.(*services.RecipeService); ok {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.RecipeStats(ctx, db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"recipes:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, err := h.recipeSvc.History(ctx, uid)
	if err != nil {
		// A failed history read is an error state, never an empty list.
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "failed to load recipe history")
		return
	}

	ok(c, http.StatusOK, ListRecipesResponse{Recipes: items, Count: len(items)})
}
