package common

import (
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// MessageRef locates a message that shows a game
type MessageRef struct {
	ChannelID string
	MessageID string
}

// MessageTracker remembers which message renders each live session so a
// timeout can edit it after the interaction token is gone
type MessageTracker struct {
	mu   sync.Mutex
	refs map[uuid.UUID]MessageRef
}

func NewMessageTracker() *MessageTracker {
	return &MessageTracker{refs: make(map[uuid.UUID]MessageRef)}
}

func (t *MessageTracker) Track(id uuid.UUID, ref MessageRef) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.refs[id] = ref
}

func (t *MessageTracker) Lookup(id uuid.UUID) (MessageRef, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ref, ok := t.refs[id]
	return ref, ok
}

func (t *MessageTracker) Forget(id uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.refs, id)
}

func (t *MessageTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.refs)
}

// TrackResponse records the original response to i as the message for id
func (t *MessageTracker) TrackResponse(s *discordgo.Session, i *discordgo.InteractionCreate, id uuid.UUID) {
	msg, err := s.InteractionResponse(i.Interaction)
	if err != nil {
		log.WithFields(log.Fields{
			"sessionID": id,
			"error":     err,
		}).Warn("Could not fetch game message, timeout will not update it")
		return
	}
	t.Track(id, MessageRef{ChannelID: msg.ChannelID, MessageID: msg.ID})
}
