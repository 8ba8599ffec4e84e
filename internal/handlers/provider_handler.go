package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/sehaty-api/internal/store"
)

// GetProviders is the public doctor/clinic directory.
// Filters: ?role=doctor&specialty=cardiology&q=name&limit=20
func (h *Handler) GetProviders(c *gin.Context) {
	f := store.ProviderFilter{
		Role:      c.Query("role"),
		Specialty: c.Query("specialty"),
		Query:     c.Query("q"),
	}
	limit, ok := h.intQuery(c, "limit", 0, 1000)
	if !ok {
		return
	}
	f.Limit = limit
	providers, err := h.Providers.List(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"providers": providers})
}
