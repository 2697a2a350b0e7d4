// Package api exposes the planner as a JSON HTTP API.
package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"menu-spinner/internal/food"
	"menu-spinner/internal/planner"
	"menu-spinner/internal/recipe"
	"menu-spinner/internal/shopping"

	"github.com/go-chi/chi/v5"
)

const suggestionLimit = 3

// HistoryReader returns the last saved shopping list of a session.
// *shopping.Repository satisfies it.
type HistoryReader interface {
	Latest(ctx context.Context, sessionID string) (*shopping.List, error)
}

type Handler struct {
	planner *planner.Planner
	history HistoryReader
}

// NewHandler creates the API handler. history may be nil, in which case
// the shopping list is read from the live session.
func NewHandler(p *planner.Planner, history HistoryReader) *Handler {
	return &Handler{planner: p, history: history}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Route("/foods", func(r chi.Router) {
			r.Get("/", h.ListFoods)
			r.Post("/", h.CreateFood)
			r.Get("/{id}", h.GetFood)
			r.Put("/{id}", h.SaveFood)
			r.Delete("/{id}", h.DeleteFood)
			r.Post("/{id}/enhance", h.EnhanceFood)
		})
		r.Route("/sessions/{sid}", func(r chi.Router) {
			r.Get("/menu", h.GetMenu)
			r.Post("/menu/spin", h.Spin)
			r.Post("/menu/lock/{id}", h.ToggleLock)
			r.Post("/menu/replace/{id}", h.Replace)
			r.Get("/shopping-list", h.LatestShoppingList)
			r.Post("/shopping-list", h.ShoppingList)
		})
		r.Post("/recipes/search", h.SearchRecipes)
	})
}

// --- Foods ---

func (h *Handler) ListFoods(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	foods := h.planner.Foods(q)

	resp := map[string]any{"foods": foods}
	if len(foods) == 0 && q != "" {
		resp["suggestions"] = h.planner.Suggest(q, suggestionLimit)
	}
	respond(w, http.StatusOK, resp)
}

func (h *Handler) GetFood(w http.ResponseWriter, r *http.Request) {
	item, ok := h.planner.Food(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, http.StatusNotFound, "Food not found")
		return
	}
	respond(w, http.StatusOK, item)
}

func (h *Handler) CreateFood(w http.ResponseWriter, r *http.Request) {
	var item food.FoodItem
	if err := decode(w, r, &item); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateFood(item); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := h.planner.AddFood(item)
	if errors.Is(err, food.ErrDuplicateID) {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		log.Printf("cannot add food: %v", err)
		respondError(w, http.StatusInternalServerError, "Could not add food")
		return
	}
	respond(w, http.StatusCreated, saved)
}

func (h *Handler) SaveFood(w http.ResponseWriter, r *http.Request) {
	var item food.FoodItem
	if err := decode(w, r, &item); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	item.ID = chi.URLParam(r, "id")
	if err := validateFood(item); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respond(w, http.StatusOK, h.planner.SaveFood(item))
}

// DeleteFood always answers 204; deleting an unknown id is a no-op.
func (h *Handler) DeleteFood(w http.ResponseWriter, r *http.Request) {
	h.planner.DeleteFood(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

type enhanceRequest struct {
	Candidate recipe.Candidate `json:"candidate"`
	Language  string           `json:"language"`
}

func (h *Handler) EnhanceFood(w http.ResponseWriter, r *http.Request) {
	var req enhanceRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Candidate.Title) == "" {
		respondError(w, http.StatusBadRequest, "candidate title is required")
		return
	}

	item, err := h.planner.Enhance(r.Context(), chi.URLParam(r, "id"), req.Candidate, req.Language)
	if errors.Is(err, planner.ErrUnknownFood) {
		respondError(w, http.StatusNotFound, "Food not found")
		return
	}
	if err != nil {
		log.Printf("cannot enhance food: %v", err)
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	respond(w, http.StatusOK, item)
}

func validateFood(item food.FoodItem) error {
	if strings.TrimSpace(item.Name) == "" {
		return errors.New("name is required")
	}
	if item.Category != "" {
		if _, err := food.ParseCategory(string(item.Category)); err != nil {
			return err
		}
	}
	return nil
}

// --- Menu ---

func (h *Handler) GetMenu(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, h.planner.Menu(chi.URLParam(r, "sid")))
}

type spinRequest struct {
	Staples int `json:"staples"`
	Dishes  int `json:"dishes"`
}

func (h *Handler) Spin(w http.ResponseWriter, r *http.Request) {
	var req spinRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respond(w, http.StatusOK, h.planner.Spin(chi.URLParam(r, "sid"), req.Staples, req.Dishes))
}

func (h *Handler) ToggleLock(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	locked := h.planner.ToggleLock(chi.URLParam(r, "sid"), id)
	respond(w, http.StatusOK, map[string]any{"id": id, "locked": locked})
}

func (h *Handler) Replace(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")
	next, err := h.planner.Replace(sid, chi.URLParam(r, "id"))
	if errors.Is(err, planner.ErrLocked) {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"replacedWith": next,
		"menu":         h.planner.Menu(sid),
	})
}

// --- Shopping list ---

type shoppingRequest struct {
	Language string `json:"language"`
}

func (h *Handler) ShoppingList(w http.ResponseWriter, r *http.Request) {
	var req shoppingRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := h.planner.ShoppingList(r.Context(), chi.URLParam(r, "sid"), req.Language)
	if errors.Is(err, planner.ErrSuperseded) {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	respond(w, http.StatusOK, list)
}

func (h *Handler) LatestShoppingList(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")
	if h.history == nil {
		if list := h.planner.Menu(sid).ShoppingList; list != nil {
			respond(w, http.StatusOK, list)
			return
		}
		respondError(w, http.StatusNotFound, "No shopping list yet")
		return
	}

	list, err := h.history.Latest(r.Context(), sid)
	if err != nil {
		log.Printf("cannot load shopping list: %v", err)
		respondError(w, http.StatusInternalServerError, "Could not load shopping list")
		return
	}
	if list == nil {
		respondError(w, http.StatusNotFound, "No shopping list yet")
		return
	}
	respond(w, http.StatusOK, list)
}

// --- Recipes ---

type searchRequest struct {
	Query    string `json:"query"`
	Language string `json:"language"`
}

func (h *Handler) SearchRecipes(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		respondError(w, http.StatusBadRequest, "query is required")
		return
	}

	results, err := h.planner.SearchRecipes(r.Context(), req.Query, req.Language)
	if err != nil {
		log.Printf("cannot search recipes: %v", err)
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	respond(w, http.StatusOK, map[string]any{"results": results})
}
