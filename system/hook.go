package system

import (
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/dramperf/timing/dram"
)

// AccessLogger is a hook that writes every DRAM access to a logger at trace
// level.
type AccessLogger struct {
	log logrus.FieldLogger
}

// NewAccessLogger returns a hook that writes into log.
func NewAccessLogger(log logrus.FieldLogger) *AccessLogger {
	return &AccessLogger{log: log}
}

// Func writes the access information into the logger.
func (h *AccessLogger) Func(ctx sim.HookCtx) {
	if ctx.Pos != dram.HookPosAccess {
		return
	}

	info, ok := ctx.Item.(dram.AccessInfo)
	if !ok {
		return
	}

	name := ""
	if n, ok := ctx.Domain.(sim.Named); ok {
		name = n.Name()
	}

	h.log.WithFields(logrus.Fields{
		"dram":      name,
		"arrival":   info.Arrival,
		"requester": info.Requester,
		"size":      info.Size,
		"queue":     info.QueueDelay,
		"latency":   info.Latency,
	}).Trace("dram access")
}
