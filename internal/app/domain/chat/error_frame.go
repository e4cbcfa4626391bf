package chat

import "encoding/json"

const (
	ErrorFrameType       = "error"
	ReasonInvalidMessage = "Invalid message format"
)

// ErrorFrame is sent only to the session whose frame was rejected.
type ErrorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func EncodeError(reason string) ([]byte, error) {
	return json.Marshal(ErrorFrame{
		Type:    ErrorFrameType,
		Message: reason,
	})
}
