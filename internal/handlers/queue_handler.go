package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/sehaty-api/internal/queue"
)

const (
	maxQueueSize  = 200
	maxQueueTicks = 1000
	maxQueueWait  = 24 * 60
)

// SimulateQueue renders the waiting-room display after a number of ticks.
// Defaults: ?current=1&total=5&wait=30&ticks=0
func (h *Handler) SimulateQueue(c *gin.Context) {
	current, ok := h.intQuery(c, "current", 1, 1<<20)
	if !ok {
		return
	}
	total, ok := h.intQuery(c, "total", 5, maxQueueSize)
	if !ok {
		return
	}
	wait, ok := h.intQuery(c, "wait", 30, maxQueueWait)
	if !ok {
		return
	}
	ticks, ok := h.intQuery(c, "ticks", 0, maxQueueTicks)
	if !ok {
		return
	}

	sim, err := queue.New(current, total, wait)
	if err != nil {
		h.badRequest(c, err.Error())
		return
	}
	for i := 0; i < ticks; i++ {
		sim.Advance()
	}
	c.JSON(http.StatusOK, gin.H{
		"queue":        sim.Snapshot(),
		"tickInterval": queue.TickInterval.Seconds(),
	})
}

// intQuery reads a bounded non-negative integer query parameter.
func (h *Handler) intQuery(c *gin.Context, name string, def, max int) (int, bool) {
	s := c.Query(name)
	if s == "" {
		return def, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > max {
		h.badRequest(c, "Invalid "+name)
		return 0, false
	}
	return n, true
}
