package handlers

import (
	"math"
	"net/http"
	"strconv"

	"neurothrive/internal/metrics"
	"neurothrive/internal/risk"

	"github.com/gin-gonic/gin"
)

type classifyResponse struct {
	Score    float64 `json:"score"`
	Unit     string  `json:"unit"`
	Fraction float64 `json:"fraction"`
	risk.Classification
}

// ClassifyRisk handles GET /api/risk/classify?score=&unit=.
func ClassifyRisk(c *gin.Context) {
	score, err := strconv.ParseFloat(c.Query("score"), 64)
	if err != nil || math.IsNaN(score) || math.IsInf(score, 0) {
		respondError(c, http.StatusBadRequest, MsgInvalidScore)
		return
	}
	unit, err := risk.ParseUnit(c.Query("unit"))
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	class := risk.Classify(score, unit)
	metrics.RiskClassifications.WithLabelValues(string(class.Label), "api").Inc()
	c.JSON(http.StatusOK, classifyResponse{
		Score:          score,
		Unit:           unit.String(),
		Fraction:       risk.ToFraction(score, unit),
		Classification: class,
	})
}
