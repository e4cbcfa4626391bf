package ws

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestOriginPolicy(t *testing.T) {
	tests := []struct {
		name    string
		config  []string
		origin  string
		allowed bool
	}{
		{name: "wildcard", config: []string{"*"}, origin: "https://evil.example", allowed: true},
		{name: "no origin header", config: []string{"https://chat.example"}, origin: "", allowed: true},
		{name: "listed", config: []string{"https://chat.example"}, origin: "https://chat.example", allowed: true},
		{name: "case and path ignored", config: []string{"HTTPS://Chat.Example/app"}, origin: "https://chat.example", allowed: true},
		{name: "port matters", config: []string{"https://chat.example"}, origin: "https://chat.example:8443", allowed: false},
		{name: "scheme matters", config: []string{"https://chat.example"}, origin: "http://chat.example", allowed: false},
		{name: "not listed", config: []string{"https://chat.example"}, origin: "https://other.example", allowed: false},
		{name: "garbage origin", config: []string{"https://chat.example"}, origin: "null", allowed: false},
		{name: "empty list", config: nil, origin: "https://chat.example", allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewOriginPolicy(tt.config)
			assert.Equal(t, tt.allowed, p.Allowed(tt.origin))
		})
	}
}

func TestOriginPolicy_InvalidEntries(t *testing.T) {
	p := NewOriginPolicy([]string{"chat.example", " ", "https://ok.example"})
	assert.Equal(t, []string{"chat.example"}, p.Invalid())
	assert.True(t, p.Allowed("https://ok.example"))
}
