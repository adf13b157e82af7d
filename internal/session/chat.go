package session

import (
	"strings"
	"sync"
	"time"
)

// DefaultReplyDelay is how long the owner takes to answer a chat message.
const DefaultReplyDelay = time.Second

const (
	ownerGreeting = "Hello! Thanks for asking about this rental."
	ownerReply    = "Sure, when would you like to rent it? Let's pick a time to meet!"
)

// Sender identifies who wrote a chat message.
type Sender string

const (
	SenderOwner Sender = "owner"
	SenderUser  Sender = "user"
)

// Message is one entry in a chat log.
type Message struct {
	ID     int       `json:"id"`
	Sender Sender    `json:"sender"`
	Text   string    `json:"text"`
	Time   time.Time `json:"time"`
}

// ChatOptions configures the simulated owner.
type ChatOptions struct {
	ReplyDelay time.Duration
	Now        func() time.Time
}

func (o ChatOptions) withDefaults() ChatOptions {
	if o.ReplyDelay <= 0 {
		o.ReplyDelay = DefaultReplyDelay
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Chat is a simulated conversation with a listing's owner. Every message
// the user sends gets exactly one canned reply after the reply delay.
// Close cancels replies that have not fired yet.
type Chat struct {
	mu        sync.Mutex
	listingID string
	opts      ChatOptions
	messages  []Message
	pending   map[int]*time.Timer
	nextReply int
	subs      map[int]func(Message)
	nextSub   int
	closed    bool
}

// NewChat starts a chat about a listing with the owner's greeting.
func NewChat(listingID string, opts ChatOptions) *Chat {
	c := &Chat{
		listingID: listingID,
		opts:      opts.withDefaults(),
		pending:   make(map[int]*time.Timer),
		subs:      make(map[int]func(Message)),
	}
	c.messages = append(c.messages, Message{
		ID:     1,
		Sender: SenderOwner,
		Text:   ownerGreeting,
		Time:   c.opts.Now(),
	})
	return c
}

// ListingID returns the listing the chat is about.
func (c *Chat) ListingID() string {
	return c.listingID
}

// Messages returns a copy of the log in insertion order.
func (c *Chat) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Send appends the user's message and schedules the owner's reply.
// Blank text is ignored and reports false.
func (c *Chat) Send(text string) (Message, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, false
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Message{}, false
	}
	msg := c.appendLocked(SenderUser, text)

	id := c.nextReply
	c.nextReply++
	c.pending[id] = time.AfterFunc(c.opts.ReplyDelay, func() {
		c.reply(id)
	})
	subs := c.subscribersLocked()
	c.mu.Unlock()

	notify(subs, msg)
	return msg, true
}

func (c *Chat) reply(id int) {
	c.mu.Lock()
	if _, ok := c.pending[id]; !ok || c.closed {
		c.mu.Unlock()
		return
	}
	delete(c.pending, id)
	msg := c.appendLocked(SenderOwner, ownerReply)
	subs := c.subscribersLocked()
	c.mu.Unlock()

	notify(subs, msg)
}

func (c *Chat) appendLocked(sender Sender, text string) Message {
	msg := Message{
		ID:     len(c.messages) + 1,
		Sender: sender,
		Text:   text,
		Time:   c.opts.Now(),
	}
	c.messages = append(c.messages, msg)
	return msg
}

// Pending returns the number of replies not yet delivered.
func (c *Chat) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Subscribe registers fn to receive every message appended from now on.
// Callbacks run without the chat lock held and must not block.
func (c *Chat) Subscribe(fn func(Message)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

func (c *Chat) subscribersLocked() []func(Message) {
	out := make([]func(Message), 0, len(c.subs))
	for _, fn := range c.subs {
		out = append(out, fn)
	}
	return out
}

// Close stops all pending replies. The log stays readable.
func (c *Chat) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	for _, t := range c.pending {
		t.Stop()
	}
	c.pending = make(map[int]*time.Timer)
	c.subs = make(map[int]func(Message))
}

// Closed reports whether the chat was closed.
func (c *Chat) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func notify(subs []func(Message), msg Message) {
	for _, fn := range subs {
		fn(msg)
	}
}
