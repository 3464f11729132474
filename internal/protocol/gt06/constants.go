// Package gt06 implements framing, decoding and acknowledgment for the GT06 GPS protocol
package gt06

// Protocol constants
const (
	// Packet markers
	StartByte     = 0x78 // short frame, 1-byte length
	StartByteLong = 0x79 // extended frame, 2-byte length
	EndByte1      = 0x0D
	EndByte2      = 0x0A

	// Message types
	LoginMsg           = 0x01
	LocationMsg        = 0x12
	StatusMsg          = 0x13
	HeartbeatMsg       = 0x16
	AlarmMsg           = 0x18
	CommandResponseMsg = 0x80

	// Alarm/status codes
	AlarmNormal   = 0x00
	AlarmSOS      = 0x01
	AlarmPowerCut = 0x02
	AlarmShock    = 0x03
	AlarmFenceIn  = 0x04
	AlarmFenceOut = 0x05
)

// Payload sizes per message type, excluding serial number and checksum.
const (
	imeiLength          = 8
	locationBlockLength = 26 // time(6) sat(1) lat(4) lon(4) speed(1) course(2) mcc(2) mnc(1) lac(2) cell(3)
	statusBlockLength   = 4  // terminal(1) voltage(1) gsm(1) alarm(1)

	LoginPayloadLength           = imeiLength
	LocationPayloadLength        = locationBlockLength
	StatusPayloadLength          = statusBlockLength
	HeartbeatPayloadLength       = statusBlockLength + 1
	AlarmPayloadLength           = locationBlockLength + statusBlockLength + 1
	CommandResponseMinPayloadLen = imeiLength
)

// Frame layout sizes.
const (
	markerLength   = 2
	serialLength   = 2
	checksumLength = 2

	// MinBodyLength is the smallest legal declared length: protocol(1) + serial(2) + checksum(2).
	MinBodyLength = 1 + serialLength + checksumLength

	// DefaultMaxFrameSize bounds how long the reader waits on a declared length.
	DefaultMaxFrameSize = 1024
)

// Coordinates are transmitted as degrees multiplied by this factor.
const coordinateScale = 300000.0
