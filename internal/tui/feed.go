package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/evcraddock/rentshed/internal/session"
)

// chatMsg carries a message appended to the open chat.
type chatMsg session.Message

// chatFeed forwards chat messages into the bubbletea loop. The chat calls
// subscribers from its reply timers, so delivery never blocks.
type chatFeed struct {
	ch    chan session.Message
	done  chan struct{}
	unsub func()
}

func subscribe(c *session.Chat) *chatFeed {
	f := &chatFeed{
		ch:   make(chan session.Message, 16),
		done: make(chan struct{}),
	}
	f.unsub = c.Subscribe(func(msg session.Message) {
		select {
		case f.ch <- msg:
		default:
		}
	})
	return f
}

// wait returns a command that blocks until the next message or until the
// feed is stopped.
func (f *chatFeed) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-f.ch:
			return chatMsg(msg)
		case <-f.done:
			return nil
		}
	}
}

func (f *chatFeed) stop() {
	f.unsub()
	close(f.done)
}
