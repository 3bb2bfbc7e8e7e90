package net

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/mosaicnetworks/mpl/src/mpl"
)

// ErrUnknownOption is returned by Dispatch for packets whose option has no
// registered handler.
var ErrUnknownOption = errors.New("unknown option")

// HandlerFunc processes an inbound packet.
type HandlerFunc func(p *Packet) error

// Mux routes inbound packets by option number.
type Mux struct {
	sync.RWMutex
	handlers map[uint8]HandlerFunc
	logger   *logrus.Entry
}

// NewMux ...
func NewMux(logger *logrus.Entry) *Mux {
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
	return &Mux{
		handlers: make(map[uint8]HandlerFunc),
		logger:   logger,
	}
}

// Register sets the handler of an option, replacing any previous one.
func (m *Mux) Register(option uint8, handler HandlerFunc) {
	m.Lock()
	defer m.Unlock()
	m.handlers[option] = handler
}

// Dispatch hands the packet to the handler registered for its option.
func (m *Mux) Dispatch(p *Packet) error {
	m.RLock()
	handler, ok := m.handlers[p.Option]
	m.RUnlock()

	if !ok {
		m.logger.WithFields(logrus.Fields{
			"option": p.Option,
			"source": p.Source,
		}).Debug("No handler")
		return fmt.Errorf("option 0x%x: %w", p.Option, ErrUnknownOption)
	}

	return handler(p)
}

// Handler is the inbound side of an MPL engine.
type Handler interface {
	OnData(msg *mpl.DataMessage) bool
	OnControl(msg *mpl.ControlMessage) bool
}

// RegisterEngine routes MPL packets to the handler.
func RegisterEngine(mux *Mux, h Handler) {
	mux.Register(MPLOption, func(p *Packet) error {
		switch p.Kind {
		case DataKind:
			if p.Data == nil {
				return fmt.Errorf("data packet from %s without message", p.Source)
			}
			h.OnData(p.Data)
		case ControlKind:
			if p.Control == nil {
				return fmt.Errorf("control packet from %s without message", p.Source)
			}
			h.OnControl(p.Control)
		default:
			return fmt.Errorf("unknown packet kind %s from %s", p.Kind, p.Source)
		}
		return nil
	})
}
