package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/weframe/weframe-server/internal/model"
)

// ClientMsg represents messages sent from client to server. Only one
// field should be set per message (tagged union pattern), following the
// teacher's ClientMsg shape.
type ClientMsg struct {
	Operation *OTOperation `json:"operation,omitempty"`
	Chat      *ChatMsg     `json:"chat,omitempty"`
	Ping      *uint64      `json:"ping,omitempty"`
}

// ChatMsg is an inbound chat line from a client. Chat never touches the
// Document Model or the server_version counter.
type ChatMsg struct {
	Message string `json:"message"`
}

// ServerMsg is the closed set of server-to-client messages. Only one
// field is set per value.
type ServerMsg struct {
	ClientOperation    *OTOperation    `json:"clientOperation,omitempty"`
	NewClient          *NewClientMsg   `json:"newClient,omitempty"`
	ClientDisconnected *string         `json:"clientDisconnected,omitempty"`
	ProjectUpdate      *model.Project  `json:"projectUpdate,omitempty"`
	ChatMessage        *ChatMessageMsg `json:"chatMessage,omitempty"`
	Error              *ErrorMsg       `json:"error,omitempty"`
	Ping               *uint64         `json:"ping,omitempty"`
	Pong               *uint64         `json:"pong,omitempty"`
}

// NewClientMsg announces a newly joined collaborator.
type NewClientMsg struct {
	ClientID string `json:"clientId"`
	Name     string `json:"name"`
}

// ChatMessageMsg relays a chat line to all clients.
type ChatMessageMsg struct {
	ClientID string `json:"clientId"`
	Message  string `json:"message"`
}

// ErrorMsg is addressed to a single originating client.
type ErrorMsg struct {
	ClientID string `json:"clientId"`
	Message  string `json:"message"`
}

// MarshalJSON ensures only the populated variant appears in the wire
// representation.
func (m *ServerMsg) MarshalJSON() ([]byte, error) {
	result := make(map[string]interface{}, 1)

	switch {
	case m.ClientOperation != nil:
		result["clientOperation"] = m.ClientOperation
	case m.NewClient != nil:
		result["newClient"] = m.NewClient
	case m.ClientDisconnected != nil:
		result["clientDisconnected"] = *m.ClientDisconnected
	case m.ProjectUpdate != nil:
		result["projectUpdate"] = m.ProjectUpdate
	case m.ChatMessage != nil:
		result["chatMessage"] = m.ChatMessage
	case m.Error != nil:
		result["error"] = m.Error
	case m.Ping != nil:
		result["ping"] = *m.Ping
	case m.Pong != nil:
		result["pong"] = *m.Pong
	}

	return json.Marshal(result)
}

// UnmarshalJSON implements custom JSON unmarshaling for ClientMsg.
func (m *ClientMsg) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal client message: %w", err)
	}

	if opData, ok := raw["operation"]; ok {
		var op OTOperation
		if err := json.Unmarshal(opData, &op); err != nil {
			return fmt.Errorf("unmarshal operation: %w", err)
		}
		m.Operation = &op
	}

	if chatData, ok := raw["chat"]; ok {
		var chat ChatMsg
		if err := json.Unmarshal(chatData, &chat); err != nil {
			return fmt.Errorf("unmarshal chat: %w", err)
		}
		m.Chat = &chat
	}

	if pingData, ok := raw["ping"]; ok {
		var ping uint64
		if err := json.Unmarshal(pingData, &ping); err != nil {
			return fmt.Errorf("unmarshal ping: %w", err)
		}
		m.Ping = &ping
	}

	return nil
}

// Helper constructors for server messages, following the NewXxxMsg
// convention used throughout this package.

func NewClientOperationMsg(op OTOperation) *ServerMsg {
	return &ServerMsg{ClientOperation: &op}
}

func NewNewClientMsg(clientID, name string) *ServerMsg {
	return &ServerMsg{NewClient: &NewClientMsg{ClientID: clientID, Name: name}}
}

func NewClientDisconnectedMsg(clientID string) *ServerMsg {
	return &ServerMsg{ClientDisconnected: &clientID}
}

func NewProjectUpdateMsg(p *model.Project) *ServerMsg {
	return &ServerMsg{ProjectUpdate: p}
}

func NewChatMessageMsg(clientID, message string) *ServerMsg {
	return &ServerMsg{ChatMessage: &ChatMessageMsg{ClientID: clientID, Message: message}}
}

func NewErrorMsg(clientID, message string) *ServerMsg {
	return &ServerMsg{Error: &ErrorMsg{ClientID: clientID, Message: message}}
}

func NewPongMsg(elapsedMillis uint64) *ServerMsg {
	return &ServerMsg{Pong: &elapsedMillis}
}
