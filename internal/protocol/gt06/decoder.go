package gt06

import (
	"encoding/binary"
	"time"
)

// Decode turns one frame into a typed Message. It keeps no state between
// calls. Unrecognised protocol numbers yield an *UnknownMessage; a payload
// shorter than its layout yields a *PartialMessageError.
func Decode(f Frame) (Message, error) {
	head := f.Header()
	payload := f.Payload

	switch f.Protocol {
	case LoginMsg:
		if err := requireLength(f.Protocol, payload, LoginPayloadLength); err != nil {
			return nil, err
		}
		return &LoginMessage{
			Head:     head,
			DeviceID: DecodeIMEI(payload[:imeiLength]),
		}, nil

	case LocationMsg:
		if err := requireLength(f.Protocol, payload, LocationPayloadLength); err != nil {
			return nil, err
		}
		loc := decodeLocationBlock(payload)
		return &LocationMessage{
			Head:          head,
			Time:          loc.fixTime,
			TimeValid:     loc.timeValid,
			SatelliteInfo: loc.satellites,
			Fix:           loc.fix,
			CourseStatus:  loc.course,
			Cell:          loc.cell,
		}, nil

	case StatusMsg:
		if err := requireLength(f.Protocol, payload, StatusPayloadLength); err != nil {
			return nil, err
		}
		return &StatusMessage{
			Head:        head,
			Terminal:    DecodeTerminalInfo(payload[0]),
			Voltage:     payload[1],
			GSMSignal:   payload[2],
			AlarmStatus: payload[3],
		}, nil

	case HeartbeatMsg:
		if err := requireLength(f.Protocol, payload, HeartbeatPayloadLength); err != nil {
			return nil, err
		}
		return &HeartbeatMessage{
			Head:        head,
			Terminal:    DecodeTerminalInfo(payload[0]),
			Voltage:     payload[1],
			GSMSignal:   payload[2],
			AlarmStatus: payload[3],
			Language:    payload[4],
		}, nil

	case AlarmMsg:
		if err := requireLength(f.Protocol, payload, AlarmPayloadLength); err != nil {
			return nil, err
		}
		loc := decodeLocationBlock(payload)
		status := payload[locationBlockLength:]
		return &AlarmMessage{
			Head:          head,
			Time:          loc.fixTime,
			TimeValid:     loc.timeValid,
			SatelliteInfo: loc.satellites,
			Fix:           loc.fix,
			Direction:     loc.course,
			Cell:          loc.cell,
			Terminal:      DecodeTerminalInfo(status[0]),
			Voltage:       status[1],
			GSMSignal:     status[2],
			AlarmStatus:   status[3],
			Language:      status[4],
		}, nil

	case CommandResponseMsg:
		if err := requireLength(f.Protocol, payload, CommandResponseMinPayloadLen); err != nil {
			return nil, err
		}
		content := make([]byte, len(payload)-imeiLength)
		copy(content, payload[imeiLength:])
		return &CommandResponseMessage{
			Head:     head,
			DeviceID: DecodeIMEI(payload[:imeiLength]),
			Content:  content,
		}, nil

	default:
		raw := make([]byte, len(payload))
		copy(raw, payload)
		return &UnknownMessage{Head: head, Payload: raw}, nil
	}
}

func requireLength(protocol byte, payload []byte, need int) error {
	if len(payload) < need {
		return &PartialMessageError{Protocol: protocol, Need: need, Got: len(payload)}
	}
	return nil
}

type locationBlock struct {
	fixTime    time.Time
	timeValid  bool
	satellites SatelliteInfo
	fix        GeoFix
	course     CourseStatus
	cell       CellInfo
}

// decodeLocationBlock reads the 26 byte GPS + LBS block shared by location
// and alarm packets. The caller checks the length.
func decodeLocationBlock(b []byte) locationBlock {
	var ts [6]byte
	copy(ts[:], b[0:6])
	t, ok := DecodeTimestamp(ts)

	sats := DecodeSatelliteInfo(b[6])
	rawLat := binary.BigEndian.Uint32(b[7:11])
	rawLon := binary.BigEndian.Uint32(b[11:15])
	speed := b[15]
	course := DecodeCourseStatus([2]byte{b[16], b[17]})

	return locationBlock{
		fixTime:    t,
		timeValid:  ok,
		satellites: sats,
		fix: GeoFix{
			Latitude:   DecodeLatitude(rawLat, !course.North),
			Longitude:  DecodeLongitude(rawLon, course.West),
			Speed:      int(speed),
			Course:     int(course.Course),
			Satellites: int(sats.Satellites),
		},
		course: course,
		cell:   DecodeCellInfo(b[18:26]),
	}
}
