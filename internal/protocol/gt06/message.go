package gt06

import "time"

// Kind tags the Message variants.
type Kind string

const (
	KindLogin           Kind = "login"
	KindLocation        Kind = "location"
	KindStatus          Kind = "status"
	KindHeartbeat       Kind = "heartbeat"
	KindAlarm           Kind = "alarm"
	KindCommandResponse Kind = "commandResponse"
	KindUnknown         Kind = "unknown"
)

// Header carries the frame fields kept on every decoded message for
// acknowledgment correlation and diagnostics.
type Header struct {
	Protocol   byte   `json:"protocol"`
	Serial     uint16 `json:"serialNumber"`
	Checksum   uint16 `json:"crc"`
	ChecksumOK bool   `json:"crcOk"`
	Stop       uint16 `json:"stopBit"`
}

// Message is one decoded GT06 packet. The set of implementations is closed:
// LoginMessage, LocationMessage, StatusMessage, HeartbeatMessage,
// AlarmMessage, CommandResponseMessage and UnknownMessage.
type Message interface {
	Kind() Kind
	Header() Header
	isMessage()
}

// GeoFix is a decoded position.
type GeoFix struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Speed      int     `json:"speed"`
	Course     int     `json:"course"`
	Satellites int     `json:"satellites"`
}

type LoginMessage struct {
	Head     Header `json:"header"`
	DeviceID string `json:"deviceId"`
}

type LocationMessage struct {
	Head          Header        `json:"header"`
	DeviceID      string        `json:"deviceId,omitempty"`
	Time          time.Time     `json:"dateTime"`
	TimeValid     bool          `json:"dateTimeValid"`
	SatelliteInfo SatelliteInfo `json:"satelliteInfo"`
	Fix           GeoFix        `json:"fix"`
	CourseStatus  CourseStatus  `json:"courseStatus"`
	Cell          CellInfo      `json:"cell"`
}

type StatusMessage struct {
	Head        Header       `json:"header"`
	DeviceID    string       `json:"deviceId,omitempty"`
	Terminal    TerminalInfo `json:"terminalInfo"`
	Voltage     byte         `json:"voltage"`
	GSMSignal   byte         `json:"gsmSignal"`
	AlarmStatus byte         `json:"alarmStatus"`
}

type HeartbeatMessage struct {
	Head        Header       `json:"header"`
	DeviceID    string       `json:"deviceId,omitempty"`
	Terminal    TerminalInfo `json:"terminalInfo"`
	Voltage     byte         `json:"voltage"`
	GSMSignal   byte         `json:"gsmSignal"`
	AlarmStatus byte         `json:"alarmStatus"`
	Language    byte         `json:"language"`
}

type AlarmMessage struct {
	Head          Header        `json:"header"`
	DeviceID      string        `json:"deviceId,omitempty"`
	Time          time.Time     `json:"dateTime"`
	TimeValid     bool          `json:"dateTimeValid"`
	SatelliteInfo SatelliteInfo `json:"satelliteInfo"`
	Fix           GeoFix        `json:"fix"`
	Direction     CourseStatus  `json:"direction"`
	Cell          CellInfo      `json:"cell"`
	Terminal      TerminalInfo  `json:"terminalInfo"`
	Voltage       byte          `json:"voltage"`
	GSMSignal     byte          `json:"gsmSignal"`
	AlarmStatus   byte          `json:"alarmStatus"`
	Language      byte          `json:"language"`
}

type CommandResponseMessage struct {
	Head     Header `json:"header"`
	DeviceID string `json:"deviceId"`
	Content  []byte `json:"content"`
}

// UnknownMessage keeps the payload of protocol numbers this package does not decode.
type UnknownMessage struct {
	Head    Header `json:"header"`
	Payload []byte `json:"payload"`
}

func (m *LoginMessage) Kind() Kind           { return KindLogin }
func (m *LocationMessage) Kind() Kind        { return KindLocation }
func (m *StatusMessage) Kind() Kind          { return KindStatus }
func (m *HeartbeatMessage) Kind() Kind       { return KindHeartbeat }
func (m *AlarmMessage) Kind() Kind           { return KindAlarm }
func (m *CommandResponseMessage) Kind() Kind { return KindCommandResponse }
func (m *UnknownMessage) Kind() Kind         { return KindUnknown }

func (m *LoginMessage) Header() Header           { return m.Head }
func (m *LocationMessage) Header() Header        { return m.Head }
func (m *StatusMessage) Header() Header          { return m.Head }
func (m *HeartbeatMessage) Header() Header       { return m.Head }
func (m *AlarmMessage) Header() Header           { return m.Head }
func (m *CommandResponseMessage) Header() Header { return m.Head }
func (m *UnknownMessage) Header() Header         { return m.Head }

func (*LoginMessage) isMessage()           {}
func (*LocationMessage) isMessage()        {}
func (*StatusMessage) isMessage()          {}
func (*HeartbeatMessage) isMessage()       {}
func (*AlarmMessage) isMessage()           {}
func (*CommandResponseMessage) isMessage() {}
func (*UnknownMessage) isMessage()         {}

// DeviceID returns the device identifier carried by m, if any.
func DeviceID(m Message) string {
	switch v := m.(type) {
	case *LoginMessage:
		return v.DeviceID
	case *LocationMessage:
		return v.DeviceID
	case *StatusMessage:
		return v.DeviceID
	case *HeartbeatMessage:
		return v.DeviceID
	case *AlarmMessage:
		return v.DeviceID
	case *CommandResponseMessage:
		return v.DeviceID
	default:
		return ""
	}
}

// WithDeviceID fills in the device identifier of m when the payload did not
// carry one. Identifiers decoded from the payload are never overwritten.
func WithDeviceID(m Message, deviceID string) {
	if deviceID == "" {
		return
	}
	switch v := m.(type) {
	case *LocationMessage:
		if v.DeviceID == "" {
			v.DeviceID = deviceID
		}
	case *StatusMessage:
		if v.DeviceID == "" {
			v.DeviceID = deviceID
		}
	case *HeartbeatMessage:
		if v.DeviceID == "" {
			v.DeviceID = deviceID
		}
	case *AlarmMessage:
		if v.DeviceID == "" {
			v.DeviceID = deviceID
		}
	}
}
