// Package protocol defines the WebSocket message protocol between client
// and server: the operation envelope exchanged on every edit, and the
// closed set of server-to-client messages. Field names are stable and
// lowerCamelCase.
package protocol

import "github.com/weframe/weframe-server/internal/model"

// OTOperation envelopes a single EditOperation with the bookkeeping the
// OT engine and Session need to place it in the commit order.
type OTOperation struct {
	ClientID      string             `json:"clientId"`
	ClientVersion uint64             `json:"clientVersion"`
	ServerVersion uint64             `json:"serverVersion"`
	Operation     model.EditOperation `json:"operation"`
}
