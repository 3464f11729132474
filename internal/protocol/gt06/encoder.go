package gt06

import (
	"encoding/binary"
	"fmt"
	"time"
)

// BuildFrame wraps a payload in start marker, length, protocol number,
// serial number, checksum and stop marker. Bodies longer than a one byte
// length field use the 0x7979 extended form.
func BuildFrame(protocol byte, payload []byte, serial uint16) ([]byte, error) {
	length := 1 + len(payload) + serialLength + checksumLength
	if length > 0xFFFF {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, length)
	}

	frame := make([]byte, 0, markerLength+2+length+markerLength)
	if length <= 0xFF {
		frame = append(frame, StartByte, StartByte, byte(length))
	} else {
		frame = append(frame, StartByteLong, StartByteLong, byte(length>>8), byte(length))
	}
	frame = append(frame, protocol)
	frame = append(frame, payload...)
	frame = binary.BigEndian.AppendUint16(frame, serial)

	crc := Checksum(frame[markerLength:])
	frame = binary.BigEndian.AppendUint16(frame, crc)

	return append(frame, EndByte1, EndByte2), nil
}

// BuildAck returns the acknowledgment for a received frame: an empty body
// echoing the protocol number and serial number of that frame.
func BuildAck(protocol byte, serial uint16) []byte {
	ack, _ := BuildFrame(protocol, nil, serial)
	return ack
}

// EncodeMessage renders m as a complete frame using the protocol number and
// serial number from its header. It is the inverse of Decode for every kind.
func EncodeMessage(m Message) ([]byte, error) {
	payload, err := MarshalPayload(m)
	if err != nil {
		return nil, err
	}
	head := m.Header()
	return BuildFrame(head.Protocol, payload, head.Serial)
}

// MarshalPayload renders the field layout of m without framing.
func MarshalPayload(m Message) ([]byte, error) {
	switch v := m.(type) {
	case *LoginMessage:
		return EncodeIMEI(v.DeviceID)

	case *LocationMessage:
		return appendLocationBlock(nil, v.Time, v.SatelliteInfo, v.Fix, v.CourseStatus, v.Cell), nil

	case *StatusMessage:
		return []byte{EncodeTerminalInfo(v.Terminal), v.Voltage, v.GSMSignal, v.AlarmStatus}, nil

	case *HeartbeatMessage:
		return []byte{EncodeTerminalInfo(v.Terminal), v.Voltage, v.GSMSignal, v.AlarmStatus, v.Language}, nil

	case *AlarmMessage:
		b := appendLocationBlock(nil, v.Time, v.SatelliteInfo, v.Fix, v.Direction, v.Cell)
		return append(b, EncodeTerminalInfo(v.Terminal), v.Voltage, v.GSMSignal, v.AlarmStatus, v.Language), nil

	case *CommandResponseMessage:
		imei, err := EncodeIMEI(v.DeviceID)
		if err != nil {
			return nil, err
		}
		return append(imei, v.Content...), nil

	case *UnknownMessage:
		return append([]byte(nil), v.Payload...), nil

	default:
		return nil, fmt.Errorf("unsupported message type %T", m)
	}
}

func appendLocationBlock(b []byte, t time.Time, sats SatelliteInfo, fix GeoFix, course CourseStatus, cell CellInfo) []byte {
	ts := EncodeTimestamp(t)
	b = append(b, ts[:]...)
	b = append(b, EncodeSatelliteInfo(sats))
	b = binary.BigEndian.AppendUint32(b, EncodeCoordinate(fix.Latitude))
	b = binary.BigEndian.AppendUint32(b, EncodeCoordinate(fix.Longitude))
	b = append(b, byte(fix.Speed))
	cs := EncodeCourseStatus(course)
	b = append(b, cs[:]...)
	c := EncodeCellInfo(cell)
	return append(b, c[:]...)
}
