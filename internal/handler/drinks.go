// Package handler defines the HTTP handlers of the drinks API.  Handlers
// parse the request, make one store call and serialize the result; guards
// registered in the router have already authenticated protected requests.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/iliyamo/coffee-shop-api/internal/middleware"
	"github.com/iliyamo/coffee-shop-api/internal/model"
	"github.com/iliyamo/coffee-shop-api/internal/queue"
	"github.com/iliyamo/coffee-shop-api/internal/repository"
)

// DrinkStore is the persistence the handlers need.
type DrinkStore interface {
	ListAll(ctx context.Context) ([]*model.Drink, error)
	Get(ctx context.Context, id uint64) (*model.Drink, error)
	Insert(ctx context.Context, d *model.Drink) error
	Update(ctx context.Context, d *model.Drink) error
	Delete(ctx context.Context, id uint64) error
}

// EventPublisher receives drink lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.DrinkEvent) error
}

// DrinkHandler bundles dependencies for the drink endpoints.
type DrinkHandler struct {
	Store  DrinkStore
	Events EventPublisher // optional
	Log    *zap.Logger
}

// NewDrinkHandler constructs a DrinkHandler and panics if the store is nil.
func NewDrinkHandler(store DrinkStore, events EventPublisher, log *zap.Logger) *DrinkHandler {
	if store == nil {
		panic("nil store passed to NewDrinkHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &DrinkHandler{Store: store, Events: events, Log: log}
}

// ----- DTOs -----

type drinksResponse struct {
	Success bool              `json:"success"`
	Drinks  []model.DrinkView `json:"drinks"`
}

type deleteResponse struct {
	Success bool   `json:"success"`
	Delete  uint64 `json:"delete"`
}

// drinkRequest is the body of POST and PATCH.  Nil fields were not sent.
type drinkRequest struct {
	Title  *string       `json:"title"`
	Recipe *model.Recipe `json:"recipe"`
}

// ListDrinks handles GET /drinks: every drink in short form.
func (h *DrinkHandler) ListDrinks(c echo.Context) error {
	return h.list(c, (*model.Drink).Short)
}

// ListDrinksDetail handles GET /drinks-detail: every drink in long form.
func (h *DrinkHandler) ListDrinksDetail(c echo.Context) error {
	return h.list(c, (*model.Drink).Long)
}

func (h *DrinkHandler) list(c echo.Context, view func(*model.Drink) model.DrinkView) error {
	drinks, err := h.Store.ListAll(c.Request().Context())
	if err != nil {
		return h.storeFailed("list drinks", err)
	}
	out := make([]model.DrinkView, 0, len(drinks))
	for _, d := range drinks {
		out = append(out, view(d))
	}
	return c.JSON(http.StatusOK, drinksResponse{Success: true, Drinks: out})
}

// CreateDrink handles POST /drinks.  Title and recipe are both required.
func (h *DrinkHandler) CreateDrink(c echo.Context) error {
	req, err := readDrinkRequest(c)
	if err != nil {
		return err
	}
	if req.Title == nil || req.Recipe == nil {
		return fmt.Errorf("title and recipe are required: %w", ErrUnprocessable)
	}
	d := &model.Drink{Title: *req.Title, Recipe: *req.Recipe}
	if err := h.Store.Insert(c.Request().Context(), d); err != nil {
		return h.storeFailed("insert drink", err)
	}
	h.publish(c, queue.DrinkCreated, d)
	return c.JSON(http.StatusOK, drinksResponse{Success: true, Drinks: []model.DrinkView{d.Long()}})
}

// UpdateDrink handles PATCH /drinks/:id.  Only the fields present in the
// body are overwritten.
func (h *DrinkHandler) UpdateDrink(c echo.Context) error {
	d, err := h.load(c)
	if err != nil {
		return err
	}
	req, err := readDrinkRequest(c)
	if err != nil {
		return err
	}
	if req.Title != nil {
		d.Title = *req.Title
	}
	if req.Recipe != nil {
		d.Recipe = *req.Recipe
	}
	if err := h.Store.Update(c.Request().Context(), d); err != nil {
		return h.storeFailed("update drink", err)
	}
	h.publish(c, queue.DrinkUpdated, d)
	return c.JSON(http.StatusOK, drinksResponse{Success: true, Drinks: []model.DrinkView{d.Long()}})
}

// DeleteDrink handles DELETE /drinks/:id.
func (h *DrinkHandler) DeleteDrink(c echo.Context) error {
	d, err := h.load(c)
	if err != nil {
		return err
	}
	if err := h.Store.Delete(c.Request().Context(), d.ID); err != nil {
		if errors.Is(err, repository.ErrDrinkNotFound) {
			// removed by a concurrent request after the lookup
			return ErrNotFound
		}
		return h.storeFailed("delete drink", err)
	}
	h.publish(c, queue.DrinkDeleted, d)
	return c.JSON(http.StatusOK, deleteResponse{Success: true, Delete: d.ID})
}

// load resolves the :id path parameter.  Ids that are not positive
// integers cannot exist and are reported as not found.
func (h *DrinkHandler) load(c echo.Context) (*model.Drink, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return nil, ErrNotFound
	}
	d, err := h.Store.Get(c.Request().Context(), id)
	if errors.Is(err, repository.ErrDrinkNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, h.storeFailed("get drink", err)
	}
	return d, nil
}

// readDrinkRequest decodes the JSON body.  Invalid JSON and unusable
// fields are unprocessable; valid JSON that is not an object is a bad
// request.
func readDrinkRequest(c echo.Context) (*drinkRequest, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %v: %w", err, ErrUnprocessable)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("body is not valid JSON: %w", ErrUnprocessable)
	}
	if !gjson.ParseBytes(body).IsObject() {
		return nil, fmt.Errorf("body must be a JSON object: %w", ErrBadRequest)
	}
	var req drinkRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("decode body: %v: %w", err, ErrUnprocessable)
	}
	// the title is stored exactly as sent; only blank titles are refused
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return nil, fmt.Errorf("title must not be empty: %w", ErrUnprocessable)
	}
	return &req, nil
}

func (h *DrinkHandler) storeFailed(op string, err error) error {
	h.Log.Warn("store failure", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%s: %w", op, ErrUnprocessable)
}

// publish emits a drink event.  Failures are logged and never change the
// response.
func (h *DrinkHandler) publish(c echo.Context, typ string, d *model.Drink) {
	if h.Events == nil {
		return
	}
	ev := queue.DrinkEvent{
		Type:       typ,
		DrinkID:    d.ID,
		Title:      d.Title,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	if p := middleware.PayloadFrom(c); p != nil {
		ev.Subject = p.Subject
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request().Context()), 3*time.Second)
	defer cancel()
	if err := h.Events.Publish(ctx, ev); err != nil {
		h.Log.Warn("publish drink event", zap.String("type", typ), zap.Uint64("drink_id", d.ID), zap.Error(err))
	}
}
