package text

import (
	"log/slog"
	"sync"

	"github.com/zurustar/sputm/pkg/logger"
)

// Kind says where a message is shown.
type Kind int

const (
	KindActor Kind = iota
	KindLine
	KindText
	KindDebug
	KindSystem
)

func (k Kind) String() string {
	switch k {
	case KindActor:
		return "actor"
	case KindLine:
		return "line"
	case KindText:
		return "text"
	case KindDebug:
		return "debug"
	case KindSystem:
		return "system"
	}
	return "unknown"
}

// Style is the print state a script sets with print sub-opcodes.
type Style struct {
	X, Y     int
	Color    int
	Right    int
	Center   bool
	Overhead bool
	Mumble   bool
}

// Message is a fully decoded message handed to the Sink.
type Message struct {
	Kind  Kind
	Actor int
	Style Style
	Text  string
	Keep  bool
}

// Sink displays messages. The dialog/subtitle UI implements it.
type Sink interface {
	Show(msg Message)
	Clear()
}

// LogSink writes messages to a logger. Headless runs use it.
type LogSink struct {
	Log *slog.Logger
}

func (s LogSink) Show(msg Message) {
	log := s.Log
	if log == nil {
		log = logger.GetLogger()
	}
	log.Info("Message", "kind", msg.Kind.String(), "actor", msg.Actor, "text", msg.Text)
}

func (s LogSink) Clear() {}

// DefaultCharTime is the per-character display time in jiffies.
const DefaultCharTime = 3

// minTalkTime keeps very short lines readable.
const minTalkTime = 60

// Channel tracks the single talking message and how long it stays up.
// The display goroutine reads Current while the main loop updates it.
type Channel struct {
	mu        sync.Mutex
	sink      Sink
	current   *Message
	remaining int
	talking   bool
}

// NewChannel creates a channel delivering to sink.
func NewChannel(sink Sink) *Channel {
	if sink == nil {
		sink = LogSink{}
	}
	return &Channel{sink: sink}
}

// Show delivers msg. Actor messages start a talk timed from the text length;
// other kinds are shown without timing.
func (c *Channel) Show(msg Message, charTime int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if charTime <= 0 {
		charTime = DefaultCharTime
	}
	m := msg
	c.current = &m
	if msg.Kind == KindActor {
		c.talking = true
		c.remaining = max(minTalkTime, len([]rune(msg.Text))*charTime)
	}
	c.sink.Show(msg)
}

// Talking reports whether an actor message is still being spoken.
func (c *Channel) Talking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.talking
}

// Tick advances the talk timer by jiffies. It returns true on the tick the talk ends.
func (c *Channel) Tick(jiffies int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.talking {
		return false
	}
	c.remaining -= jiffies
	if c.remaining > 0 {
		return false
	}
	c.talking = false
	if c.current != nil && !c.current.Keep {
		c.current = nil
		c.sink.Clear()
	}
	return true
}

// Stop ends the current talk immediately.
func (c *Channel) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.talking = false
	c.remaining = 0
	c.current = nil
	c.sink.Clear()
}

// Current returns a copy of the message on screen, if any.
func (c *Channel) Current() (Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return Message{}, false
	}
	return *c.current, true
}
