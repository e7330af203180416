package models

import (
	"context"
	"time"
)

// Media is a downloaded attachment
type Media struct {
	Data        []byte
	ContentType string
	Filename    string
}

// MediaFetcher downloads the attachment of an inbound message on demand
type MediaFetcher interface {
	FetchMedia(ctx context.Context) (*Media, error)
}

// InboundMessage is one message received from the transport
type InboundMessage struct {
	ID       string // transport message id (Twilio MessageSid)
	From     string // raw transport address, used to reply
	UserID   string // normalized sender id, used for state
	Body     string
	HasMedia bool
	Media    MediaFetcher
}

// OutboundMessage is a reply waiting for paced delivery
type OutboundMessage struct {
	ID        string    `json:"id"`
	To        string    `json:"to"`
	Text      string    `json:"text"`
	DeliverAt time.Time `json:"deliver_at"`
}
