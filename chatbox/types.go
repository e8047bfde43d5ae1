package chatbox

import "github.com/google/uuid"

// User identifies a chatbox user. UUID is the stable unique id; Name is the
// username Tell addresses messages to.
type User struct {
	Name        string    `json:"name"`
	UUID        uuid.UUID `json:"uuid"`
	DisplayName string    `json:"displayName,omitempty"`
	Group       string    `json:"group,omitempty"`
}

// Command is a backslash-command event delivered by the gateway.
type Command struct {
	User      User
	Command   string
	Args      []string
	OwnerOnly bool
}

// packet is the envelope for every incoming gateway message. Fields are
// populated depending on Type.
type packet struct {
	Type      string   `json:"type"`
	Event     string   `json:"event,omitempty"`
	User      *User    `json:"user,omitempty"`
	Command   string   `json:"command,omitempty"`
	Args      []string `json:"args,omitempty"`
	OwnerOnly bool     `json:"ownerOnly,omitempty"`
	Error     string   `json:"error,omitempty"`
	Message   string   `json:"message,omitempty"`
	Reason    string   `json:"reason,omitempty"`
	Guest     bool     `json:"guest,omitempty"`
	ID        *int     `json:"id,omitempty"`
}

// tellPacket is the outgoing private-message packet.
type tellPacket struct {
	Type string `json:"type"`
	ID   int    `json:"id"`
	User string `json:"user"`
	Text string `json:"text"`
	Name string `json:"name,omitempty"`
	Mode string `json:"mode,omitempty"`
}
