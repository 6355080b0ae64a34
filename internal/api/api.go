package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"bdo-market/internal/apperrors"
	"bdo-market/internal/cache"
	"bdo-market/internal/config"
	"bdo-market/internal/models"

	"github.com/gin-gonic/gin"
)

// History is the archive lookup used by the history routes.
type History interface {
	ItemHistory(ctx context.Context, itemID string, limit int) ([]models.MarketItemSnapshot, error)
	GroupHistory(ctx context.Context, group string, limit int) ([]models.MarketGroupCheapest, error)
}

type APIHandler struct {
	store   cache.Store
	tables  *config.Tables
	history History
}

// SetupRoutes registers the read-only lookup routes. history may be nil, in
// which case the history routes answer 503.
func SetupRoutes(r *gin.RouterGroup, store cache.Store, tables *config.Tables, history History) *APIHandler {
	handler := &APIHandler{
		store:   store,
		tables:  tables,
		history: history,
	}

	items := r.Group("/items")
	{
		items.GET("/:id", handler.GetItemSnapshot)
		items.GET("/:id/history", handler.GetItemHistory)
	}

	cheapest := r.Group("/cheapest")
	{
		cheapest.GET("", handler.ListCheapest)
		cheapest.GET("/:group", handler.GetCheapest)
	}

	r.GET("/categories", handler.ListCategories)
	r.GET("/groups", handler.ListGroups)
	r.GET("/groups/:group/history", handler.GetGroupHistory)

	return handler
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"msg":  "ok",
		"data": data,
	})
}

func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case apperrors.IsNotFoundError(err):
		status = http.StatusNotFound
	case apperrors.IsConfigError(err):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// label returns the ts query parameter, or the label of the last completed
// run when none is given.
func (h *APIHandler) label(c *gin.Context) (string, error) {
	if ts := strings.TrimSpace(c.Query("ts")); ts != "" {
		return ts, nil
	}
	return h.store.GetScalar(c.Request.Context(), models.LastSettingTimestampKey)
}

func historyLimit(c *gin.Context) int {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	return limit
}

// GetItemSnapshot: GET /api/v1/items/7913?ts=0319-1403
func (h *APIHandler) GetItemSnapshot(c *gin.Context) {
	id := c.Param("id")
	label, err := h.label(c)
	if err != nil {
		fail(c, err)
		return
	}
	rec, err := h.store.GetRecord(c.Request.Context(), models.SnapshotKey(id, label))
	if err != nil {
		fail(c, err)
		return
	}
	snap, err := models.ParseItemSnapshot(id, rec)
	if err != nil {
		fail(c, err)
		return
	}
	name, _ := h.tables.Name(id)
	ok(c, gin.H{
		"ts":        label,
		"item_name": name,
		"snapshot":  snap,
	})
}

// GetCheapest: GET /api/v1/cheapest/meat?ts=0319-1403
func (h *APIHandler) GetCheapest(c *gin.Context) {
	group := c.Param("group")
	if _, known := h.tables.Groups[group]; !known {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown group " + group})
		return
	}
	label, err := h.label(c)
	if err != nil {
		fail(c, err)
		return
	}
	g, err := h.cheapest(c.Request.Context(), group, label)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"ts": label, "cheapest": g})
}

// ListCheapest returns every group's record at one label. Groups without a
// record are listed under "missing".
func (h *APIHandler) ListCheapest(c *gin.Context) {
	label, err := h.label(c)
	if err != nil {
		fail(c, err)
		return
	}
	out := make(map[string]models.GroupCheapest)
	missing := make([]string, 0)
	for _, group := range h.tables.GroupNames() {
		g, err := h.cheapest(c.Request.Context(), group, label)
		if apperrors.IsNotFoundError(err) {
			missing = append(missing, group)
			continue
		}
		if err != nil {
			fail(c, err)
			return
		}
		out[group] = g
	}
	ok(c, gin.H{"ts": label, "groups": out, "missing": missing})
}

func (h *APIHandler) cheapest(ctx context.Context, group, label string) (models.GroupCheapest, error) {
	rec, err := h.store.GetRecord(ctx, models.CheapestKey(group, label))
	if err != nil {
		return models.GroupCheapest{}, err
	}
	return models.ParseGroupCheapest(group, rec)
}

func (h *APIHandler) ListCategories(c *gin.Context) {
	items := make([]gin.H, 0, len(h.tables.Categories))
	for _, key := range h.tables.CategoryKeys() {
		p := h.tables.Categories[key]
		items = append(items, gin.H{
			"key":           key,
			"main_category": p.MainCategory,
			"sub_category":  p.SubCategory,
		})
	}
	ok(c, items)
}

func (h *APIHandler) ListGroups(c *gin.Context) {
	groups := make([]gin.H, 0, len(h.tables.Groups))
	for _, name := range h.tables.GroupNames() {
		members := make([]gin.H, 0, len(h.tables.Groups[name]))
		for _, id := range h.tables.Groups[name] {
			members = append(members, gin.H{"item_id": id, "item_name": h.tables.Names[id]})
		}
		groups = append(groups, gin.H{"group": name, "members": members})
	}
	ok(c, groups)
}

// GetItemHistory: GET /api/v1/items/7913/history?limit=200
func (h *APIHandler) GetItemHistory(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history archive not configured"})
		return
	}
	rows, err := h.history.ItemHistory(c.Request.Context(), c.Param("id"), historyLimit(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, rows)
}

// GetGroupHistory: GET /api/v1/groups/meat/history?limit=200
func (h *APIHandler) GetGroupHistory(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history archive not configured"})
		return
	}
	group := c.Param("group")
	if _, known := h.tables.Groups[group]; !known {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown group " + group})
		return
	}
	rows, err := h.history.GroupHistory(c.Request.Context(), group, historyLimit(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, rows)
}
