package telegram

import (
	"sync"
	"time"
)

// Step identifies where a chat is in a multi-message conversation
type Step int

const (
	// StepNone is the normal state
	StepNone Step = iota
	// StepAwaitingPhone means registration is waiting for the contact
	StepAwaitingPhone
	// StepAwaitingName means registration is waiting for the full name
	StepAwaitingName
	// StepAwaitingNewName means a name change is waiting for the new name
	StepAwaitingNewName
)

// Conversation is the per-chat scratch state of an in-flight flow
type Conversation struct {
	Step      Step
	Phone     string
	Timestamp time.Time
}

// conversationTTL is how long an unfinished conversation stays alive
const conversationTTL = 10 * time.Minute

// Conversations tracks in-flight registration and rename flows per chat
type Conversations struct {
	convs map[int64]Conversation
	mu    sync.Mutex
}

// NewConversations creates a new conversation tracker
func NewConversations() *Conversations {
	return &Conversations{
		convs: make(map[int64]Conversation),
	}
}

// Set stores the conversation state for a chat
func (c *Conversations) Set(chatID int64, conv Conversation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	conv.Timestamp = time.Now()
	c.convs[chatID] = conv
}

// Get returns the conversation state for a chat. An unfinished conversation
// older than the TTL is dropped and reported as StepNone.
func (c *Conversations) Get(chatID int64) Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	conv, ok := c.convs[chatID]
	if !ok {
		return Conversation{Step: StepNone}
	}
	if time.Since(conv.Timestamp) > conversationTTL {
		delete(c.convs, chatID)
		return Conversation{Step: StepNone}
	}
	return conv
}

// Clear ends the conversation for a chat
func (c *Conversations) Clear(chatID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.convs, chatID)
}
