package gt06

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrPartialMessage = errors.New("payload shorter than message layout")
	ErrInvalidIMEI    = errors.New("invalid IMEI")
	ErrFrameTooLarge  = errors.New("frame body exceeds length field")
)

// PartialMessageError reports a recognised protocol number whose payload is
// too short for its field layout.
type PartialMessageError struct {
	Protocol byte
	Need     int
	Got      int
}

func (e *PartialMessageError) Error() string {
	return fmt.Sprintf("%s message 0x%02x: need %d bytes, got %d",
		MessageTypeName(e.Protocol), e.Protocol, e.Need, e.Got)
}

func (e *PartialMessageError) Unwrap() error {
	return ErrPartialMessage
}

// MessageTypeName returns a human-readable name for message types
func MessageTypeName(protocolNumber byte) string {
	switch protocolNumber {
	case LoginMsg:
		return string(KindLogin)
	case LocationMsg:
		return string(KindLocation)
	case StatusMsg:
		return string(KindStatus)
	case HeartbeatMsg:
		return string(KindHeartbeat)
	case AlarmMsg:
		return string(KindAlarm)
	case CommandResponseMsg:
		return string(KindCommandResponse)
	default:
		return fmt.Sprintf("unknown_0x%02x", protocolNumber)
	}
}
