package common

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ComponentID is the routing key carried in a button's custom id:
// feature:action:session[:arg]
type ComponentID struct {
	Feature   string
	Action    string
	SessionID uuid.UUID
	Arg       string
}

func (c ComponentID) String() string {
	id := c.Feature + ":" + c.Action + ":" + c.SessionID.String()
	if c.Arg != "" {
		id += ":" + c.Arg
	}
	return id
}

// ParseComponentID splits a custom id built by ComponentID.String
func ParseComponentID(customID string) (ComponentID, error) {
	parts := strings.SplitN(customID, ":", 4)
	if len(parts) < 3 {
		return ComponentID{}, fmt.Errorf("malformed component id %q", customID)
	}
	id, err := uuid.Parse(parts[2])
	if err != nil {
		return ComponentID{}, fmt.Errorf("malformed session id in %q: %w", customID, err)
	}
	c := ComponentID{Feature: parts[0], Action: parts[1], SessionID: id}
	if len(parts) == 4 {
		c.Arg = parts[3]
	}
	return c, nil
}
