package errors

import "fmt"

var (
	ErrContentRequired   = fmt.Errorf("message content is required")
	ErrMessageTooLong    = fmt.Errorf("message exceeds maximum length")
	ErrRoomNotFound      = fmt.Errorf("room not found")
	ErrRecipientNotFound = fmt.Errorf("recipient not found")
	ErrUpload            = fmt.Errorf("attachment upload failed")
	ErrNotConnected      = fmt.Errorf("session is not connected")
	ErrInit              = fmt.Errorf("session initialization failed")
	ErrTooManySinks      = fmt.Errorf("subscriber limit reached")
	ErrWorkerPanic       = fmt.Errorf("worker panic")
)
