package internal

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the construction-time surface of the chat session core.
// Everything is sourced from the environment; there is no file format.
type Config struct {
	TransportURL        string        `env:"TRANSPORT_URL,required=true" validate:"required"`
	NetworkID           string        `env:"NETWORK_ID,required=true" validate:"required,alphanum"`
	LocalUserID         string        `env:"LOCAL_USER_ID,required=true" validate:"required"`
	EnableNotifications bool          `env:"ENABLE_NOTIFICATIONS,default=true"`
	MaxMessageLength    int           `env:"MAX_MESSAGE_LENGTH,default=1000" validate:"gt=0"`
	MaxCachedMessages   int           `env:"MAX_CACHED_MESSAGES,default=1000" validate:"gt=0"`
	MaxSubscribers      int           `env:"MAX_SUBSCRIBERS,default=64" validate:"gt=0"`
	TypingTTL           time.Duration `env:"TYPING_TTL,default=10s" validate:"gt=0"`
	DelegateTimeout     time.Duration `env:"DELEGATE_TIMEOUT,default=15s" validate:"gt=0"`
	EventBufferSize     int           `env:"EVENT_BUFFER_SIZE,default=256" validate:"gt=0"`
	BlobFilepath        string        `env:"BLOB_FILEPATH,default=./data/blobs"`
	LogLevel            string        `env:"LOG_LEVEL,default=info"`
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
