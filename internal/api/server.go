// Package api exposes the monitor over HTTP so it can be started, stopped
// and back-filled without restarting the process.
package api

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/shanehull/dartalert/internal/dart"
	"github.com/shanehull/dartalert/internal/monitor"
	"github.com/shanehull/dartalert/internal/notify"
)

// Controller is the part of *monitor.Monitor the API drives.
type Controller interface {
	Start(channel string)
	Stop() error
	Status() monitor.Status
	Backfill(ctx context.Context, channel string, q dart.ListQuery) (notify.Summary, error)
}

// NewRouter constructs a Gin engine with registered routes. defaultChannel
// is used when a request names no channel.
func NewRouter(ctrl Controller, defaultChannel string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	RegisterHealthRoutes(r)
	RegisterMonitorRoutes(r, ctrl, defaultChannel)
	return r
}
