package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeAttachment_Image_Embeds_The_Hash(t *testing.T) {
	req := require.New(t)

	content := EncodeAttachment(MessageTypeImage, Attachment{Hash: "abc123"})

	req.Equal("[image:abc123]", content)
}

func TestEncodeAttachment_File_Carries_The_Filename(t *testing.T) {
	req := require.New(t)

	content := EncodeAttachment(MessageTypeFile, Attachment{Hash: "abc123", Filename: "invoice.pdf"})

	req.Equal("[file:abc123:invoice.pdf]", content)
}

func TestParseAttachment_RoundTrips_The_Wire_Form(t *testing.T) {
	req := require.New(t)

	image := ParseAttachment(EncodeAttachment(MessageTypeImage, Attachment{Hash: "abc123"}))
	req.NotNil(image)
	req.Equal("abc123", image.Hash)
	req.Empty(image.Filename)

	file := ParseAttachment(EncodeAttachment(MessageTypeFile, Attachment{Hash: "abc123", Filename: "invoice.pdf"}))
	req.NotNil(file)
	req.Equal("abc123", file.Hash)
	req.Equal("invoice.pdf", file.Filename)
}

func TestParseAttachment_Rejects_Plain_Text(t *testing.T) {
	req := require.New(t)

	req.Nil(ParseAttachment("hello world"))
	req.Nil(ParseAttachment("[image:unterminated"))
	req.Nil(ParseAttachment("[file:hashonly]"))
}
