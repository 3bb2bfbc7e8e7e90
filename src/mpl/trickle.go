package mpl

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mosaicnetworks/mpl/src/sched"
)

type timerKind uint8

const (
	dataTimer timerKind = iota
	controlTimer
)

func (k timerKind) String() string {
	switch k {
	case dataTimer:
		return "data"
	case controlTimer:
		return "control"
	default:
		return "unknown"
	}
}

// timerContext is bound to a scheduled callback when it is armed. The id must
// still match the id armed on the target when the callback runs, otherwise
// the callback belongs to a previous occupant and is dropped.
type timerContext struct {
	engine *Engine
	index  int
	kind   timerKind
	id     uint64
}

func (c timerContext) fire() {
	switch c.kind {
	case dataTimer:
		c.engine.onDataTimer(c)
	case controlTimer:
		c.engine.onControlTimer(c)
	}
}

// ControlTrickle is the node-wide control timer state.
type ControlTrickle struct {
	// Expirations is the number of rounds fired since the last reset.
	Expirations int

	Timer sched.Timer

	timerID uint64
}

// Pending reports whether a control round is scheduled.
func (c *ControlTrickle) Pending() bool {
	return c.Timer != nil
}

func (c *ControlTrickle) stop() {
	if c.Timer != nil {
		c.Timer.Stop()
		c.Timer = nil
	}
	c.timerID = 0
}

// randomInterval draws uniformly in [min, max].
func (e *Engine) randomInterval(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(e.rand.Int63n(int64(max-min)+1))
}

func (e *Engine) newTimerContext(index int, kind timerKind) timerContext {
	e.nextTimerID++
	return timerContext{
		engine: e,
		index:  index,
		kind:   kind,
		id:     e.nextTimerID,
	}
}

// armDataTimer schedules the data trickle timer of slot i, replacing any
// timer already pending on it.
func (e *Engine) armDataTimer(i int) {
	entry := e.buffer.At(i)
	e.cancelDataTimer(i)

	ctx := e.newTimerContext(i, dataTimer)
	interval := e.randomInterval(e.conf.DataMessageIMin, e.conf.DataMessageIMax)

	entry.timerID = ctx.id
	entry.Timer = e.scheduler.AfterFunc(interval, ctx.fire)

	e.logger.WithFields(logrus.Fields{
		"slot":     i,
		"seed":     entry.SeedID,
		"seq":      entry.SequenceNumber,
		"interval": interval,
	}).Debug("Arm data timer")
}

func (e *Engine) cancelDataTimer(i int) {
	entry := e.buffer.At(i)
	if entry.Timer != nil {
		entry.Timer.Stop()
		entry.Timer = nil
	}
	entry.timerID = 0
}

func (e *Engine) onDataTimer(ctx timerContext) {
	if ctx.index >= e.buffer.Len() || e.buffer.At(ctx.index).timerID != ctx.id {
		e.logger.WithFields(logrus.Fields{
			"slot": ctx.index,
			"id":   ctx.id,
		}).Debug("Drop stale data timer")
		return
	}
	e.FireDataTimer(ctx.index)
}

// FireDataTimer runs one expiry of the data trickle timer of slot i: the
// expiration count is incremented, the timer is rescheduled while the count
// is below DataMessageTimerExpirations and the entry is valid, the entry is
// retired otherwise, and the buffered message is sent once in either case.
// Released slots carry nothing and are left alone.
func (e *Engine) FireDataTimer(i int) {
	entry := e.buffer.At(i)
	e.cancelDataTimer(i)

	if !entry.holds() {
		e.logger.WithField("slot", i).Debug("Fire on released slot")
		return
	}

	entry.ExpirationCount++
	if entry.ExpirationCount > 1 {
		e.stats.Retransmissions++
	}

	if entry.Valid && entry.ExpirationCount < e.conf.DataMessageTimerExpirations {
		e.armDataTimer(i)
	} else if entry.Valid {
		e.buffer.Retire(i)
		e.stats.Retired++
		e.logger.WithFields(logrus.Fields{
			"slot": i,
			"seed": entry.SeedID,
			"seq":  entry.SequenceNumber,
		}).Debug("Retire buffered message")
	}

	e.sendData(e.BuildDataMessage(i))
}

// StartControlTimer schedules the next control round. A round already pending
// is replaced.
func (e *Engine) StartControlTimer() {
	e.control.stop()

	ctx := e.newTimerContext(-1, controlTimer)
	interval := e.randomInterval(e.conf.ControlMessageIMin, e.conf.ControlMessageIMax)

	e.control.timerID = ctx.id
	e.control.Timer = e.scheduler.AfterFunc(interval, ctx.fire)

	e.logger.WithFields(logrus.Fields{
		"expirations": e.control.Expirations,
		"interval":    interval,
	}).Debug("Start control timer")
}

// ResetControlTimer cancels the pending round, zeroes the expiration counter
// and starts a new round.
func (e *Engine) ResetControlTimer() {
	e.control.stop()
	e.control.Expirations = 0
	e.stats.ControlResets++
	e.StartControlTimer()
}

// FireControlTimer cancels the pending round, increments the expiration
// counter and sends a control message. It does not schedule another round.
func (e *Engine) FireControlTimer() {
	e.control.stop()
	e.control.Expirations++
	e.sendControl(e.BuildControlMessage())
}

func (e *Engine) onControlTimer(ctx timerContext) {
	if ctx.id != e.control.timerID {
		e.logger.WithField("id", ctx.id).Debug("Drop stale control timer")
		return
	}
	e.FireControlTimer()
	if e.control.Expirations < e.conf.ControlMessageTimerExpirations {
		e.StartControlTimer()
	}
}
