package net

import (
	"github.com/sirupsen/logrus"

	"github.com/mosaicnetworks/mpl/src/mpl"
)

// Outbox turns the messages of an engine into packets multicast to
// ALL_MPL_FORWARDERS. It implements mpl.Outbound.
type Outbox struct {
	source string
	sender Sender
	logger *logrus.Entry
}

// NewOutbox ...
func NewOutbox(source string, sender Sender, logger *logrus.Entry) *Outbox {
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
	return &Outbox{
		source: source,
		sender: sender,
		logger: logger,
	}
}

// SendData implements mpl.Outbound.
func (o *Outbox) SendData(msg *mpl.DataMessage) {
	o.send(NewDataPacket(o.source, msg))
}

// SendControl implements mpl.Outbound.
func (o *Outbox) SendControl(msg *mpl.ControlMessage) {
	o.send(NewControlPacket(o.source, msg))
}

func (o *Outbox) send(p *Packet) {
	if err := o.sender.Multicast(p); err != nil {
		o.logger.WithError(err).WithField("kind", p.Kind).Error("Multicast")
	}
}
