// bus.go
package bus

import "sync"

// Wildcard tokens: Plus matches exactly one level, Hash the whole tail.
const (
	Plus = "+"
	Hash = "#"
)

// Topic is a sequence of string tokens.
type Topic []string

// T is a convenience constructor for topics.
func T(parts ...string) Topic { return Topic(parts) }

func (t Topic) String() string {
	s := ""
	for i, p := range t {
		if i > 0 {
			s += "/"
		}
		s += p
	}
	return s
}

// -----------------------------------------------------------------------------
// Message
// -----------------------------------------------------------------------------

type Message struct {
	Topic    Topic
	Payload  any
	Retained bool
	From     string
}

// -----------------------------------------------------------------------------
// Subscription
// -----------------------------------------------------------------------------

type Subscription struct {
	topic Topic
	ch    chan *Message
	conn  *Connection
}

func (s *Subscription) Topic() Topic             { return s.topic }
func (s *Subscription) Channel() <-chan *Message { return s.ch }
func (s *Subscription) Unsubscribe()             { s.conn.Unsubscribe(s) }

// -----------------------------------------------------------------------------
// Trie node
// -----------------------------------------------------------------------------

type node struct {
	children map[string]*node
	subs     []*Subscription
	retained *Message
}

func (n *node) child(tok string, create bool) *node {
	c, ok := n.children[tok]
	if !ok && create {
		if n.children == nil {
			n.children = make(map[string]*node)
		}
		c = &node{}
		n.children[tok] = c
	}
	return c
}

// -----------------------------------------------------------------------------
// Bus
// -----------------------------------------------------------------------------

// Bus is an in-process pubsub with retained messages and MQTT-style
// wildcards. Delivery is non-blocking: a full subscriber queue drops.
type Bus struct {
	mu   sync.RWMutex
	root *node
	qLen int
}

// NewBus creates a bus with the given per-subscription queue length.
func NewBus(queueLen int) *Bus {
	if queueLen <= 0 {
		queueLen = 8
	}
	return &Bus{root: &node{}, qLen: queueLen}
}

// NewConnection names one client of the bus.
func (b *Bus) NewConnection(name string) *Connection {
	return &Connection{bus: b, name: name}
}

func (b *Bus) subscribe(conn *Connection, topic Topic) *Subscription {
	sub := &Subscription{topic: topic, ch: make(chan *Message, b.qLen), conn: conn}

	b.mu.Lock()
	n := b.root
	for _, tok := range topic {
		n = n.child(tok, true)
	}
	n.subs = append(n.subs, sub)
	retained := collectRetained(b.root, topic)
	b.mu.Unlock()

	for _, m := range retained {
		deliver(sub, m)
	}
	return sub
}

func (b *Bus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := b.root
	for _, tok := range sub.topic {
		if n = n.child(tok, false); n == nil {
			return
		}
	}
	for i, s := range n.subs {
		if s == sub {
			n.subs = append(n.subs[:i], n.subs[i+1:]...)
			return
		}
	}
}

func (b *Bus) publish(m *Message) {
	b.mu.Lock()
	if m.Retained {
		n := b.root
		for _, tok := range m.Topic {
			n = n.child(tok, true)
		}
		n.retained = m
	}
	targets := matchSubs(b.root, m.Topic)
	b.mu.Unlock()

	for _, sub := range targets {
		deliver(sub, m)
	}
}

func deliver(sub *Subscription, m *Message) {
	select {
	case sub.ch <- m:
	default:
		// drop if the subscriber is slow
	}
}

// matchSubs walks the trie against a concrete published topic, honouring
// + and # in stored subscription paths.
func matchSubs(n *node, topic Topic) []*Subscription {
	if n == nil {
		return nil
	}
	if h := n.child(Hash, false); h != nil {
		// # matches the remainder, including empty
		out := append([]*Subscription(nil), h.subs...)
		out = append(out, matchRest(n, topic)...)
		return out
	}
	return matchRest(n, topic)
}

func matchRest(n *node, topic Topic) []*Subscription {
	if len(topic) == 0 {
		return append([]*Subscription(nil), n.subs...)
	}
	var out []*Subscription
	out = append(out, matchSubs(n.child(topic[0], false), topic[1:])...)
	out = append(out, matchSubs(n.child(Plus, false), topic[1:])...)
	return out
}

// collectRetained gathers retained messages under a (possibly wildcard)
// subscription topic.
func collectRetained(n *node, topic Topic) []*Message {
	if n == nil {
		return nil
	}
	if len(topic) == 0 {
		if n.retained != nil {
			return []*Message{n.retained}
		}
		return nil
	}
	var out []*Message
	switch topic[0] {
	case Hash:
		var walk func(*node)
		walk = func(x *node) {
			if x.retained != nil {
				out = append(out, x.retained)
			}
			for _, c := range x.children {
				walk(c)
			}
		}
		walk(n)
	case Plus:
		for _, c := range n.children {
			out = append(out, collectRetained(c, topic[1:])...)
		}
	default:
		out = collectRetained(n.child(topic[0], false), topic[1:])
	}
	return out
}

// -----------------------------------------------------------------------------
// Connection
// -----------------------------------------------------------------------------

type Connection struct {
	bus  *Bus
	name string

	mu   sync.Mutex
	subs []*Subscription
}

func (c *Connection) Name() string { return c.name }

func (c *Connection) Subscribe(topic Topic) *Subscription {
	sub := c.bus.subscribe(c, topic)
	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	return sub
}

func (c *Connection) Unsubscribe(sub *Subscription) {
	c.bus.unsubscribe(sub)
	c.mu.Lock()
	for i, s := range c.subs {
		if s == sub {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
}

func (c *Connection) Publish(topic Topic, payload any, retained bool) {
	c.bus.publish(&Message{Topic: topic, Payload: payload, Retained: retained, From: c.name})
}

// Close unsubscribes everything owned by the connection.
func (c *Connection) Close() {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()
	for _, s := range subs {
		c.bus.unsubscribe(s)
	}
}
