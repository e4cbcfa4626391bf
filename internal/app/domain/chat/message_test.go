package chat

import (
	"encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Message
		wantErr bool
	}{
		{
			name: "sender and content",
			raw:  `{"sender":"alice","content":"hi"}`,
			want: Message{Sender: "alice", Content: "hi"},
		},
		{
			name: "client timestamp kept",
			raw:  `{"sender":"alice","content":"hi","timestamp":1700000000000}`,
			want: Message{Sender: "alice", Content: "hi", Timestamp: 1700000000000},
		},
		{
			name: "empty content is present",
			raw:  `{"sender":"alice","content":""}`,
			want: Message{Sender: "alice", Content: ""},
		},
		{
			name: "null timestamp is unset",
			raw:  `{"sender":"alice","content":"hi","timestamp":null}`,
			want: Message{Sender: "alice", Content: "hi"},
		},
		{
			name: "keys in any order",
			raw:  `{"timestamp":7,"content":"hi","sender":"alice"}`,
			want: Message{Sender: "alice", Content: "hi", Timestamp: 7},
		},
		{
			name: "surrounding whitespace",
			raw:  "  {\"sender\":\"bob\",\"content\":\"yo\"}\n",
			want: Message{Sender: "bob", Content: "yo"},
		},
		{name: "missing sender", raw: `{"content":"hi"}`, wantErr: true},
		{name: "missing content", raw: `{"sender":"alice"}`, wantErr: true},
		{name: "null sender", raw: `{"sender":null,"content":"hi"}`, wantErr: true},
		{name: "not json", raw: `hello`, wantErr: true},
		{name: "array", raw: `[{"sender":"a","content":"b"}]`, wantErr: true},
		{name: "json null", raw: `null`, wantErr: true},
		{name: "unknown field", raw: `{"sender":"a","content":"b","room":"x"}`, wantErr: true},
		{name: "string timestamp", raw: `{"sender":"a","content":"b","timestamp":"now"}`, wantErr: true},
		{name: "fractional timestamp", raw: `{"sender":"a","content":"b","timestamp":1.5}`, wantErr: true},
		{name: "number content", raw: `{"sender":"a","content":5}`, wantErr: true},
		{name: "trailing object", raw: `{"sender":"a","content":"b"}{"sender":"c","content":"d"}`, wantErr: true},
		{name: "empty payload", raw: ``, wantErr: true},
		{name: "keys differ in case", raw: `{"Sender":"alice","CONTENT":"hi"}`, wantErr: true},
		{name: "sender repeated in another case", raw: `{"sender":"alice","content":"hi","Sender":"mallory"}`, wantErr: true},
		{name: "timestamp in another case", raw: `{"sender":"alice","content":"hi","TimeStamp":5}`, wantErr: true},
		{name: "duplicate sender", raw: `{"sender":"alice","content":"hi","sender":"mallory"}`, wantErr: true},
		{name: "unterminated object", raw: `{"sender":"alice","content":"hi"`, wantErr: true},
		{name: "trailing garbage", raw: `{"sender":"alice","content":"hi"} x`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.raw))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidMessage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMessage_WithTimestamp(t *testing.T) {
	now := time.UnixMilli(1_700_000_123_456)

	unset := Message{Sender: "alice", Content: "hi"}
	stamped := unset.WithTimestamp(now)
	assert.Equal(t, int64(1_700_000_123_456), stamped.Timestamp)
	assert.Zero(t, unset.Timestamp, "receiver must not change")

	again := stamped.WithTimestamp(now.Add(time.Hour))
	assert.Equal(t, stamped, again)

	preset := Message{Sender: "alice", Content: "hi", Timestamp: 42}
	assert.Equal(t, preset, preset.WithTimestamp(now))
}

func TestMessage_Encode(t *testing.T) {
	raw, err := Message{Sender: "alice", Content: "hi", Timestamp: 7}.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"sender":"alice","content":"hi","timestamp":7}`, string(raw))

	back, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, Message{Sender: "alice", Content: "hi", Timestamp: 7}, back)
}

func TestMessage_Equality(t *testing.T) {
	a := Message{Sender: "alice", Content: "hi", Timestamp: 1}
	assert.True(t, a == Message{Sender: "alice", Content: "hi", Timestamp: 1})
	assert.False(t, a == Message{Sender: "alice", Content: "hi", Timestamp: 2})
	assert.False(t, a == Message{Sender: "bob", Content: "hi", Timestamp: 1})
}

func TestRecord(t *testing.T) {
	msg := Message{Sender: "alice", Content: "hi", Timestamp: 99}
	assert.Equal(t, Record{Sender: "alice", Content: "hi", Timestamp: 99}, msg.ToRecord())
	assert.Equal(t, msg, FromRecord(msg.ToRecord()))
}

func TestEncodeError(t *testing.T) {
	raw, err := EncodeError(ReasonInvalidMessage)
	require.NoError(t, err)

	var frame map[string]any
	require.NoError(t, json.Unmarshal(raw, &frame))
	assert.Equal(t, map[string]any{"type": "error", "message": "Invalid message format"}, frame)
}
