package mpl

import (
	"sort"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/sirupsen/logrus"

	"github.com/mosaicnetworks/mpl/src/common"
	"github.com/mosaicnetworks/mpl/src/sched"
)

// Outbound hands messages built by the Engine to the node's multicast queue.
type Outbound interface {
	SendData(msg *DataMessage)
	SendControl(msg *ControlMessage)
}

// Random is the source of trickle intervals. *math/rand.Rand satisfies it.
type Random interface {
	Int63n(n int64) int64
}

// DeliverCallback passes newly accepted data to the application.
type DeliverCallback func(msg *DataMessage) error

type discardOutbound struct{}

func (discardOutbound) SendData(*DataMessage)       {}
func (discardOutbound) SendControl(*ControlMessage) {}

// Engine runs the MPL forwarding logic of a single node.
type Engine struct {
	conf *Config

	seeds   *SeedSet
	buffer  *BufferedSet
	control ControlTrickle

	scheduler sched.Scheduler
	rand      Random
	out       Outbound
	deliver   DeliverCallback

	nextTimerID uint64
	lastSeq     int

	joined   bool
	created  time.Time
	joinedAt time.Time

	stats Stats

	logger *logrus.Entry
}

// NewEngine creates an Engine. The configuration must be valid. out and
// deliver may be nil.
func NewEngine(conf *Config,
	scheduler sched.Scheduler,
	rand Random,
	out Outbound,
	deliver DeliverCallback,
	logger *logrus.Entry) *Engine {

	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
	if out == nil {
		out = discardOutbound{}
	}

	return &Engine{
		conf:      conf,
		seeds:     NewSeedSet(),
		buffer:    NewBufferedSet(),
		scheduler: scheduler,
		rand:      rand,
		out:       out,
		deliver:   deliver,
		created:   scheduler.Now(),
		logger:    logger,
	}
}

// Config ...
func (e *Engine) Config() *Config {
	return e.conf
}

// SeedSet ...
func (e *Engine) SeedSet() *SeedSet {
	return e.seeds
}

// BufferedSet ...
func (e *Engine) BufferedSet() *BufferedSet {
	return e.buffer
}

// ControlExpirations returns the number of control rounds fired since the
// last reset.
func (e *Engine) ControlExpirations() int {
	return e.control.Expirations
}

// ControlTimerPending reports whether a control round is scheduled.
func (e *Engine) ControlTimerPending() bool {
	return e.control.Pending()
}

// Join marks the node as joined and, with reactive forwarding, starts the
// control timer. Calling it again has no effect.
func (e *Engine) Join() {
	if e.joined {
		return
	}
	e.joined = true
	e.joinedAt = e.scheduler.Now()

	if e.conf.ReactiveForwarding && !e.control.Pending() {
		e.StartControlTimer()
	}

	e.logger.Debug("Joined")
}

// IsJoined ...
func (e *Engine) IsJoined() bool {
	return e.joined
}

// OnData is the inbound entry point for data messages.
func (e *Engine) OnData(msg *DataMessage) bool {
	e.stats.RxCount++
	e.stats.DataReceived++
	return e.AcceptData(msg)
}

// OnControl is the inbound entry point for control messages. Control messages
// are ignored unless reactive forwarding is enabled.
func (e *Engine) OnControl(msg *ControlMessage) bool {
	e.stats.RxCount++
	e.stats.ControlReceived++
	if !e.conf.ReactiveForwarding {
		return false
	}
	return e.Reconcile(msg)
}

// AcceptData buffers a data message unless it is a duplicate or falls below
// the window of its seed. It returns whether the message was accepted.
func (e *Engine) AcceptData(msg *DataMessage) bool {
	logger := e.logger.WithFields(logrus.Fields{
		"seed": msg.SeedID,
		"seq":  msg.Sequence,
	})

	if _, ok := e.buffer.Lookup(msg.SeedID, msg.Sequence); ok {
		logger.Debug("Reject duplicate")
		e.stats.Rejected++
		return false
	}

	if e.seeds.Has(msg.SeedID) {
		seed := e.seeds.Get(msg.SeedID)
		if msg.Sequence <= seed.MinSequence {
			logger.WithField("min", seed.MinSequence).Debug("Reject stale")
			e.stats.Rejected++
			return false
		}
		seed.ResetLifetime()
	} else {
		e.seeds.Add(msg.SeedID, msg.Sequence)
		logger.Debug("New seed")
	}

	if i, ok := e.buffer.FindFreeSlot(); ok {
		e.cancelDataTimer(i)
	}
	index := e.buffer.InsertOrOverwrite(msg.SeedID, msg.Sequence, msg.Payload)

	if msg.More {
		e.advanceWindow(msg.SeedID, msg.Sequence)
	}

	if e.conf.ProactiveForwarding {
		e.armDataTimer(index)
	}

	e.sweep()

	e.stats.Accepted++
	logger.WithField("slot", index).Debug("Accept")

	if e.conf.ReactiveForwarding {
		e.ResetControlTimer()
	}

	if e.deliver != nil {
		if err := e.deliver(msg); err != nil {
			logger.WithError(err).Error("Deliver")
		}
	}

	return true
}

func (e *Engine) advanceWindow(id SeedID, seq int) {
	seed := e.seeds.Get(id)
	if seq-seed.MinSequence > e.conf.MinSequenceMargin {
		seed.AdvanceMinSequence(seq - e.conf.MinSequenceMargin)
	}
}

func (e *Engine) sweep() {
	for _, i := range e.buffer.Sweep(e.seeds) {
		e.cancelDataTimer(i)
	}
}

// Reconcile compares a peer's control message with the local state. Data the
// peer lacks is re-armed for transmission and any inconsistency resets the
// control timer. It returns whether an inconsistency was found.
func (e *Engine) Reconcile(msg *ControlMessage) bool {
	local := mapset.NewThreadUnsafeSet[SeedID](e.seeds.IDs()...)
	remote := mapset.NewThreadUnsafeSet[SeedID]()
	for id := range msg.Summaries {
		remote.Add(id)
	}

	inconsistent := false

	for _, id := range sortedSeeds(remote) {
		summary := msg.Summaries[id]
		if !local.Contains(id) {
			e.logger.WithField("seed", id).Debug("Peer knows unknown seed")
			inconsistent = true
			continue
		}
		if max, ok := summary.Max(); ok && max > e.buffer.HighestHeld(id) {
			e.logger.WithFields(logrus.Fields{
				"seed": id,
				"peer": max,
			}).Debug("Peer is ahead")
			inconsistent = true
		}
		if e.rearmMissing(id, summary) > 0 {
			inconsistent = true
		}
	}

	for _, id := range sortedSeeds(local.Difference(remote)) {
		e.logger.WithField("seed", id).Debug("Peer misses seed")
		inconsistent = true
		e.rearmMissing(id, SeedSummary{})
	}

	if inconsistent {
		e.ResetControlTimer()
	}

	return inconsistent
}

// rearmMissing revives the idle messages of a seed that the summary does not
// mark as held and that are not below either window. It returns the number of
// re-armed slots.
func (e *Engine) rearmMissing(id SeedID, summary SeedSummary) int {
	min := e.seeds.Get(id).MinSequence
	rearmed := 0

	for i := 0; i < e.buffer.Len(); i++ {
		entry := e.buffer.At(i)
		if entry.SeedID != id || !entry.holds() || !entry.Idle() {
			continue
		}
		if entry.SequenceNumber < min || entry.SequenceNumber < summary.MinSequence {
			continue
		}
		if summary.Has(entry.SequenceNumber) {
			continue
		}

		e.buffer.Revive(i)
		e.armDataTimer(i)
		rearmed++
	}

	if rearmed > 0 {
		e.logger.WithFields(logrus.Fields{
			"seed":    id,
			"rearmed": rearmed,
		}).Debug("Re-arm missing messages")
	}

	return rearmed
}

func sortedSeeds(s mapset.Set[SeedID]) []SeedID {
	ids := s.ToSlice()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// GenerateSeed originates a data message with the next sequence number of
// this node's seed and accepts it locally. Calling it on a node that is not a
// seed is a contract violation.
func (e *Engine) GenerateSeed(payload []byte) (*DataMessage, bool) {
	if !e.conf.IsSeed {
		panic(common.NewContractErr("Engine", common.NotSeed, e.conf.SeedID.String()))
	}

	seq := e.lastSeq + 1
	if h := e.buffer.HighestSequence(e.conf.SeedID); h >= seq {
		seq = h + 1
	}
	if e.seeds.Has(e.conf.SeedID) {
		if min := e.seeds.Get(e.conf.SeedID).MinSequence; min >= seq {
			seq = min + 1
		}
	}
	e.lastSeq = seq

	msg := &DataMessage{
		SeedID:   e.conf.SeedID,
		Sequence: seq,
		More:     true,
		Payload:  payload,
	}

	return msg, e.AcceptData(msg)
}

// BuildControlMessage summarises the BufferedSet, one bitmap per known seed
// covering [MinSequence, HighestHeld]. Retired messages are reported as held
// so peers do not revive them back and forth.
func (e *Engine) BuildControlMessage() *ControlMessage {
	msg := &ControlMessage{
		Summaries: make(map[SeedID]SeedSummary, e.seeds.Len()),
	}

	bitmaps := make(map[SeedID][]bool, e.seeds.Len())
	for _, id := range e.seeds.IDs() {
		min := e.seeds.Get(id).MinSequence
		highest := e.buffer.HighestHeld(id)
		if highest >= min {
			bitmaps[id] = make([]bool, highest-min+1)
		}
	}

	for i := 0; i < e.buffer.Len(); i++ {
		entry := e.buffer.At(i)
		bitmap, ok := bitmaps[entry.SeedID]
		if !entry.holds() || !ok {
			continue
		}
		offset := entry.SequenceNumber - e.seeds.Get(entry.SeedID).MinSequence
		if offset >= 0 && offset < len(bitmap) {
			bitmap[offset] = true
		}
	}

	for _, id := range e.seeds.IDs() {
		bitmap := bitmaps[id]
		msg.Summaries[id] = SeedSummary{
			MinSequence:  e.seeds.Get(id).MinSequence,
			BitmapLength: len(bitmap),
			Bitmap:       bitmap,
		}
	}

	return msg
}

// BuildDataMessage builds the outbound message for slot i. More is set when
// the slot holds the highest valid sequence number of its seed, so a retired
// message is never sent with More.
func (e *Engine) BuildDataMessage(i int) *DataMessage {
	entry := e.buffer.At(i)
	return &DataMessage{
		SeedID:   entry.SeedID,
		Sequence: entry.SequenceNumber,
		More:     entry.Valid && entry.SequenceNumber == e.buffer.HighestSequence(entry.SeedID),
		Payload:  entry.Payload,
	}
}

// OnLifecycleTick ages the SeedSet and forgets expired seeds together with
// their buffered messages.
func (e *Engine) OnLifecycleTick() {
	e.seeds.IncrementLifetimes()
	for _, id := range e.seeds.Expire(e.conf.SeedSetEntryLifetime) {
		for _, i := range e.buffer.PurgeSeed(id) {
			e.cancelDataTimer(i)
		}
		e.logger.WithField("seed", id).Debug("Expire seed")
	}
}

// OnTimeSourceChange records a change of time source and runs a lifecycle
// tick.
func (e *Engine) OnTimeSourceChange() {
	e.stats.ParentChangeCount++
	e.OnLifecycleTick()
}

// GetStats returns a snapshot of the counters.
func (e *Engine) GetStats() Stats {
	stats := e.stats
	if e.joined {
		stats.JoinTimeSeconds = e.joinedAt.Sub(e.created).Seconds()
	}
	stats.Seeds = e.seeds.Len()
	stats.Buffered = e.buffer.ValidCount()
	return stats
}

func (e *Engine) sendData(msg *DataMessage) {
	e.stats.TxCount++
	e.stats.DataSent++
	e.out.SendData(msg)
}

func (e *Engine) sendControl(msg *ControlMessage) {
	e.stats.TxCount++
	e.stats.ControlSent++
	e.out.SendControl(msg)
}
