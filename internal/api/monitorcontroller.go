package api

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shanehull/dartalert/internal/dart"
	"github.com/shanehull/dartalert/internal/monitor"
)

const maxBackfillCount = 100

// StartRequest switches the monitor on for a channel.
type StartRequest struct {
	Channel string `json:"channel"`
}

// BackfillRequest re-scans recent or historical filings in test mode.
// Dates are YYYYMMDD.
type BackfillRequest struct {
	Channel string `json:"channel"`
	Count   int    `json:"count"`
	Begin   string `json:"begin"`
	End     string `json:"end"`
}

type BackfillResponse struct {
	Analyzed int    `json:"analyzed"`
	Passed   int    `json:"passed"`
	Begin    string `json:"begin,omitempty"`
	End      string `json:"end,omitempty"`
}

type monitorController struct {
	ctrl           Controller
	defaultChannel string
}

// RegisterMonitorRoutes registers the monitor control endpoints.
func RegisterMonitorRoutes(r *gin.Engine, ctrl Controller, defaultChannel string) {
	mc := &monitorController{ctrl: ctrl, defaultChannel: defaultChannel}

	g := r.Group("/api/monitor")
	g.GET("/status", mc.handleStatus)
	g.POST("/start", mc.handleStart)
	g.POST("/stop", mc.handleStop)
	g.POST("/backfill", mc.handleBackfill)
}

func (mc *monitorController) channel(requested string) string {
	if requested != "" {
		return requested
	}
	return mc.defaultChannel
}

func (mc *monitorController) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, mc.ctrl.Status())
}

func (mc *monitorController) handleStart(c *gin.Context) {
	var req StartRequest
	// An empty body starts on the default channel.
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	mc.ctrl.Start(mc.channel(req.Channel))
	c.JSON(http.StatusOK, mc.ctrl.Status())
}

func (mc *monitorController) handleStop(c *gin.Context) {
	if err := mc.ctrl.Stop(); err != nil {
		if errors.Is(err, monitor.ErrNotRunning) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, mc.ctrl.Status())
}

func (mc *monitorController) handleBackfill(c *gin.Context) {
	var req BackfillRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	if req.Count < 0 || req.Count > maxBackfillCount {
		c.JSON(http.StatusBadRequest, gin.H{"error": "count must be between 0 and 100"})
		return
	}
	for _, d := range []string{req.Begin, req.End} {
		if d == "" {
			continue
		}
		if _, err := time.Parse("20060102", d); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "dates must be YYYYMMDD: " + d})
			return
		}
	}
	if req.Begin != "" && req.End != "" && req.Begin > req.End {
		c.JSON(http.StatusBadRequest, gin.H{"error": "begin must not be after end"})
		return
	}

	q := dart.ListQuery{Count: req.Count, BeginDate: req.Begin, EndDate: req.End}
	summary, err := mc.ctrl.Backfill(c.Request.Context(), mc.channel(req.Channel), q)
	if err != nil {
		if errors.Is(err, monitor.ErrPassInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Warning: Backfill failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "backfill failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, BackfillResponse{
		Analyzed: summary.Analyzed,
		Passed:   summary.Passed,
		Begin:    summary.BeginDate,
		End:      summary.EndDate,
	})
}
