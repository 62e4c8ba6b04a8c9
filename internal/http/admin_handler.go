package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/revdash/revdash/internal/cache"
	"github.com/revdash/revdash/internal/domain/dto"
)

// AdminHandler serves the cache administration endpoint.
type AdminHandler struct {
	manager *cache.Manager
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(manager *cache.Manager) *AdminHandler {
	return &AdminHandler{manager: manager}
}

// CacheAction handles POST /api/admin/cache requests. One action-dispatch
// endpoint maps directly onto the cache manager operations.
//
// @Summary      Cache administration
// @Description  Clears caches or reports cache statistics. Cleared data is gone for good; the next read per cleared category forces a live fetch.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body dto.CacheAdminRequest true "Action to perform"
// @Success      200 {object} dto.SuccessResponse "Action result"
// @Failure      400 {object} dto.ErrorResponse "Unknown action"
// @Router       /api/admin/cache [post]
func (h *AdminHandler) CacheAction(c *gin.Context) {
	builder := NewResponseBuilder(c)

	var req dto.CacheAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		builder.Error(http.StatusBadRequest, "action: is required", err)
		return
	}
	if err := req.Validate(); err != nil {
		builder.Error(http.StatusBadRequest, err.Error(), err)
		return
	}

	var resp dto.CacheAdminResponse
	switch req.Action {
	case dto.ActionClearAll:
		h.manager.ClearAll()
		resp = dto.CacheAdminResponse{Success: true, Message: "all caches cleared"}
	case dto.ActionClearGitLabAPI:
		h.manager.ClearCategory(cache.CategoryGitLab)
		resp = dto.CacheAdminResponse{Success: true, Message: "gitlab caches cleared"}
	case dto.ActionClearAPIResponses:
		h.manager.ClearCategory(cache.CategoryAPI)
		resp = dto.CacheAdminResponse{Success: true, Message: "api response caches cleared"}
	case dto.ActionClearClientCache:
		h.manager.ClearCategory(cache.CategoryClient)
		resp = dto.CacheAdminResponse{Success: true, Message: "client caches cleared"}
	case dto.ActionGetStats:
		resp = dto.CacheAdminResponse{Success: true, Stats: h.manager.Stats()}
	}

	builder.SuccessOK(resp)
}
