package chat

import (
	"sync"
	"time"
)

// DefaultMaxMessages bounds a conversation transcript.
const DefaultMaxMessages = 20

// Message roles.
const (
	RoleAssistant = "assistant"
	RoleUser      = "user"
)

type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is one session's transcript for a single topic. Switching
// topic starts a new transcript with the greeting.
type Conversation struct {
	// turn serializes whole question and answer rounds.
	turn sync.Mutex

	mu       sync.Mutex
	topic    string
	messages []Message
	limit    int
}

func NewConversation(limit int) *Conversation {
	if limit < 2 {
		limit = DefaultMaxMessages
	}
	return &Conversation{limit: limit}
}

// Ensure switches the conversation to topic and reports whether the
// transcript was restarted.
func (c *Conversation) Ensure(topic string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.topic == topic && len(c.messages) > 0 {
		return false
	}
	c.topic = topic
	c.messages = []Message{{Role: RoleAssistant, Content: Greeting(topic), Timestamp: time.Now()}}
	return true
}

// Exchange appends a question and its answer, dropping the oldest messages
// past the limit.
func (c *Conversation) Exchange(question, answer string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	c.messages = append(c.messages,
		Message{Role: RoleUser, Content: question, Timestamp: now},
		Message{Role: RoleAssistant, Content: answer, Timestamp: now},
	)
	if over := len(c.messages) - c.limit; over > 0 {
		c.messages = append(c.messages[:0], c.messages[over:]...)
	}
}

// Messages returns a copy of the transcript.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Conversation) Topic() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.topic
}

// Clear forgets the topic and transcript.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topic = ""
	c.messages = nil
}
