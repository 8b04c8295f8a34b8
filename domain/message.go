// Package domain contains core concepts of the marketplace chat system.
// This file defines ChatMessage entities and the attachment wire convention.
// Messages are immutable once created and validated by the session layer.
package domain

import (
	"fmt"
	"strings"
	"time"
)

type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeFile  MessageType = "file"
)

// Attachment is a typed reference to content held by the storage service.
// Size is only known on the uploading side; a message decoded from the wire
// carries Size 0.
type Attachment struct {
	Hash     string
	Filename string
	Size     int64
}

// ChatMessage represents one message of a two-party listing conversation.
type ChatMessage struct {
	ID         string
	Content    string
	Sender     string
	Recipient  string
	ListingID  string
	Type       MessageType
	Attachment *Attachment
	CreatedAt  time.Time
}

const (
	imagePrefix = "[image:"
	filePrefix  = "[file:"
)

// EncodeAttachment renders the textual wire form of an attachment.
// Images embed only the content hash; files also carry the original filename.
func EncodeAttachment(t MessageType, a Attachment) string {
	if t == MessageTypeFile {
		return fmt.Sprintf("%s%s:%s]", filePrefix, a.Hash, a.Filename)
	}
	return fmt.Sprintf("%s%s]", imagePrefix, a.Hash)
}

// ParseAttachment extracts a typed attachment from a wire content string.
// Returns nil when the content does not follow the attachment convention.
func ParseAttachment(content string) *Attachment {
	switch {
	case strings.HasPrefix(content, imagePrefix) && strings.HasSuffix(content, "]"):
		return &Attachment{Hash: content[len(imagePrefix) : len(content)-1]}
	case strings.HasPrefix(content, filePrefix) && strings.HasSuffix(content, "]"):
		body := content[len(filePrefix) : len(content)-1]
		hash, name, ok := strings.Cut(body, ":")
		if !ok {
			return nil
		}
		return &Attachment{Hash: hash, Filename: name}
	}
	return nil
}
