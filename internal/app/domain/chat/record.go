package chat

// Record - persisted shape of a message, shared by all store backends.
type Record struct {
	Sender    string `bson:"sender" json:"sender"`
	Content   string `bson:"content" json:"content"`
	Timestamp int64  `bson:"timestamp" json:"timestamp"`
}

func (m Message) ToRecord() Record {
	return Record{
		Sender:    m.Sender,
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}
}

func FromRecord(r Record) Message {
	return Message{
		Sender:    r.Sender,
		Content:   r.Content,
		Timestamp: r.Timestamp,
	}
}
