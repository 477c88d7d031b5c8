package handlers

import (
	"net/http"

	"neurothrive/internal/auth"
	"neurothrive/internal/metrics"
	"neurothrive/internal/session"

	"github.com/gin-gonic/gin"
)

// NavigationHandler answers the browser app's routing questions.
type NavigationHandler struct {
	routes *auth.RouteTable
}

func NewNavigationHandler(routes *auth.RouteTable) *NavigationHandler {
	return &NavigationHandler{routes: routes}
}

// Landing returns where the caller should go after the app loads.
func (h *NavigationHandler) Landing(c *gin.Context) {
	gate := session.Gate(c)
	c.JSON(http.StatusOK, gin.H{
		"route":         gate.DefaultRoute(),
		"authenticated": gate.IsAuthenticated(),
	})
}

// Resolve runs the guard for ?path= and reports the decision.
func (h *NavigationHandler) Resolve(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		respondError(c, http.StatusBadRequest, MsgPathRequired)
		return
	}
	res := h.routes.Resolve(path, session.Gate(c).Current())
	metrics.GuardDecisions.WithLabelValues(string(res.Reason)).Inc()
	c.JSON(http.StatusOK, res)
}

func (h *NavigationHandler) Items(c *gin.Context) {
	role := session.Gate(c).Role()
	groups := h.routes.NavItems(role)
	if groups == nil {
		groups = []auth.NavGroup{}
	}
	c.JSON(http.StatusOK, gin.H{"role": role, "groups": groups})
}
