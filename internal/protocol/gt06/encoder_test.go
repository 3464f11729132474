package gt06

import (
	"bytes"
	"errors"
	"testing"
)

func TestBuildAck(t *testing.T) {
	tests := []struct {
		name     string
		protocol byte
		serial   uint16
		want     []byte
	}{
		{
			name:     "login",
			protocol: LoginMsg,
			serial:   0x0001,
			want: []byte{
				0x78, 0x78, // Start bytes
				0x05,       // Packet length
				0x01,       // Protocol number
				0x00, 0x01, // Serial number
				0xD9, 0xDC, // Checksum
				0x0D, 0x0A, // Stop bytes
			},
		},
		{
			name:     "heartbeat",
			protocol: HeartbeatMsg,
			serial:   0x0005,
			want:     mustHex(t, "78780516000596680d0a"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildAck(tt.protocol, tt.serial)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("BuildAck() = % x, want % x", got, tt.want)
			}
			f := singleFrame(t, got)
			if !f.ChecksumOK || f.Protocol != tt.protocol || f.Serial != tt.serial || len(f.Payload) != 0 {
				t.Errorf("ack does not parse back: %+v", f)
			}
		})
	}
}

func TestBuildFrameExtended(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB}, 251)
	b := buildFrame(t, 0x8A, payload, 7)
	if b[0] != StartByteLong || b[1] != StartByteLong {
		t.Fatalf("expected 0x7979 marker, got % x", b[:2])
	}
	if got := int(b[2])<<8 | int(b[3]); got != 256 {
		t.Errorf("length field = %d, want 256", got)
	}

	short := buildFrame(t, 0x8A, payload[:250], 7)
	if short[0] != StartByte || short[2] != 0xFF {
		t.Errorf("expected 0x7878 marker with length 255, got % x", short[:3])
	}
}

func TestBuildFrameTooLarge(t *testing.T) {
	_, err := BuildFrame(0x8A, make([]byte, 0xFFFF), 1)
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("err = %v, want ErrFrameTooLarge", err)
	}
}

func TestEncodeMessageRejectsBadIMEI(t *testing.T) {
	_, err := EncodeMessage(&LoginMessage{Head: Header{Protocol: LoginMsg}, DeviceID: "not-an-imei"})
	if !errors.Is(err, ErrInvalidIMEI) {
		t.Errorf("err = %v, want ErrInvalidIMEI", err)
	}
}
