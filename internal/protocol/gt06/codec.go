package gt06

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

const hexDigits = "0123456789ABCDEF"

// DecodeIMEI reads BCD packed digits into the device identifier. Eight bytes
// carry sixteen digits; the padding zero in front of a 15-digit IMEI is dropped.
// Nibbles above 9 are rendered as hex digits so the function never fails.
func DecodeIMEI(b []byte) string {
	digits := make([]byte, 0, len(b)*2)
	for _, v := range b {
		digits = append(digits, hexDigits[v>>4], hexDigits[v&0x0F])
	}
	if len(digits) == 2*imeiLength && digits[0] == '0' {
		digits = digits[1:]
	}
	return string(digits)
}

// EncodeIMEI packs a decimal identifier of up to 16 digits into 8 BCD bytes.
func EncodeIMEI(imei string) ([]byte, error) {
	if imei == "" || len(imei) > 2*imeiLength {
		return nil, fmt.Errorf("%w: %q", ErrInvalidIMEI, imei)
	}
	digits := make([]byte, 2*imeiLength)
	pad := len(digits) - len(imei)
	for i := range digits {
		if i < pad {
			continue
		}
		c := imei[i-pad]
		if c < '0' || c > '9' {
			return nil, fmt.Errorf("%w: %q", ErrInvalidIMEI, imei)
		}
		digits[i] = c - '0'
	}
	out := make([]byte, imeiLength)
	for i := range out {
		out[i] = digits[2*i]<<4 | digits[2*i+1]
	}
	return out, nil
}

// DecodeBCD converts a BCD byte to decimal
func DecodeBCD(b byte) int {
	return int(b>>4)*10 + int(b&0x0F)
}

// EncodeBCD converts a value in 0..99 to a BCD byte
func EncodeBCD(v int) byte {
	return byte((v/10)%10)<<4 | byte(v%10)
}

func isBCD(b byte) bool {
	return b>>4 <= 9 && b&0x0F <= 9
}

// DecodeTimestamp parses the six BCD bytes YY MM DD hh mm ss as a UTC time.
// The second result is false, with a zero time, when any field is out of range.
func DecodeTimestamp(b [6]byte) (time.Time, bool) {
	for _, v := range b {
		if !isBCD(v) {
			return time.Time{}, false
		}
	}

	year := 2000 + DecodeBCD(b[0])
	month := DecodeBCD(b[1])
	day := DecodeBCD(b[2])
	hour := DecodeBCD(b[3])
	minute := DecodeBCD(b[4])
	second := DecodeBCD(b[5])

	if month < 1 || month > 12 || day < 1 || hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
	if t.Day() != day {
		// day past the end of the month
		return time.Time{}, false
	}
	return t, true
}

// EncodeTimestamp renders t (in UTC) as six BCD bytes. Years outside 2000..2099 wrap.
func EncodeTimestamp(t time.Time) [6]byte {
	t = t.UTC()
	return [6]byte{
		EncodeBCD(t.Year() - 2000),
		EncodeBCD(int(t.Month())),
		EncodeBCD(t.Day()),
		EncodeBCD(t.Hour()),
		EncodeBCD(t.Minute()),
		EncodeBCD(t.Second()),
	}
}

// DecodeLatitude scales a raw latitude to signed degrees within [-90, 90].
func DecodeLatitude(raw uint32, south bool) float64 {
	return decodeCoordinate(raw, south, 90)
}

// DecodeLongitude scales a raw longitude to signed degrees within [-180, 180].
func DecodeLongitude(raw uint32, west bool) float64 {
	return decodeCoordinate(raw, west, 180)
}

func decodeCoordinate(raw uint32, negative bool, limit float64) float64 {
	v := math.Round(float64(raw)/coordinateScale*1e6) / 1e6
	if v > limit {
		v = limit
	}
	if negative && v != 0 {
		v = -v
	}
	return v
}

// EncodeCoordinate converts degrees to the raw wire value. The sign travels
// in the course/status hemisphere bits, not in the value.
func EncodeCoordinate(deg float64) uint32 {
	v := math.Round(math.Abs(deg) * coordinateScale)
	if v > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(v)
}

// FormatCoordinate renders degrees with six fractional digits.
func FormatCoordinate(deg float64) string {
	return strconv.FormatFloat(deg, 'f', 6, 64)
}

// CourseStatus is the two-byte course/status word of location packets.
type CourseStatus struct {
	RealTime   bool   `json:"gpsRealTime"`
	Positioned bool   `json:"gpsPositioned"`
	West       bool   `json:"westLongitude"`
	North      bool   `json:"northLatitude"`
	Course     uint16 `json:"course"`
}

// DecodeCourseStatus unpacks the course/status word.
func DecodeCourseStatus(b [2]byte) CourseStatus {
	return CourseStatus{
		RealTime:   b[0]&0x20 != 0,
		Positioned: b[0]&0x10 != 0,
		West:       b[0]&0x08 != 0,
		North:      b[0]&0x04 != 0,
		Course:     uint16(b[0]&0x03)<<8 | uint16(b[1]),
	}
}

// EncodeCourseStatus packs c; only the low 10 bits of the course are kept.
func EncodeCourseStatus(c CourseStatus) [2]byte {
	var hi byte
	if c.RealTime {
		hi |= 0x20
	}
	if c.Positioned {
		hi |= 0x10
	}
	if c.West {
		hi |= 0x08
	}
	if c.North {
		hi |= 0x04
	}
	hi |= byte(c.Course>>8) & 0x03
	return [2]byte{hi, byte(c.Course)}
}

// SatelliteInfo is the GPS info length / satellite count byte.
type SatelliteInfo struct {
	InfoLength uint8 `json:"length"`
	Satellites uint8 `json:"satellites"`
}

func DecodeSatelliteInfo(b byte) SatelliteInfo {
	return SatelliteInfo{InfoLength: b >> 4, Satellites: b & 0x0F}
}

func EncodeSatelliteInfo(s SatelliteInfo) byte {
	return s.InfoLength<<4 | s.Satellites&0x0F
}

// TerminalInfo is the terminal status bitfield.
type TerminalInfo struct {
	OilCut      bool  `json:"oilCut"`
	GPSTracking bool  `json:"gpsTracking"`
	AlarmCode   uint8 `json:"alarmCode"`
	Charging    bool  `json:"charging"`
	ACCHigh     bool  `json:"accHigh"`
	Activated   bool  `json:"activated"`
}

// DecodeTerminalInfo unpacks the status byte: bit0 oil/electricity cut,
// bit1 GPS tracking, bits 2-4 alarm code, bit5 charging, bit6 ACC, bit7 activated.
func DecodeTerminalInfo(b byte) TerminalInfo {
	return TerminalInfo{
		OilCut:      b&0x01 != 0,
		GPSTracking: b&0x02 != 0,
		AlarmCode:   (b >> 2) & 0x07,
		Charging:    b&0x20 != 0,
		ACCHigh:     b&0x40 != 0,
		Activated:   b&0x80 != 0,
	}
}

// EncodeTerminalInfo packs t; only the low 3 bits of the alarm code are kept.
func EncodeTerminalInfo(t TerminalInfo) byte {
	b := (t.AlarmCode & 0x07) << 2
	if t.OilCut {
		b |= 0x01
	}
	if t.GPSTracking {
		b |= 0x02
	}
	if t.Charging {
		b |= 0x20
	}
	if t.ACCHigh {
		b |= 0x40
	}
	if t.Activated {
		b |= 0x80
	}
	return b
}

func (t TerminalInfo) OilElectricity() string {
	if t.OilCut {
		return "Disconnected"
	}
	return "Connected"
}

func (t TerminalInfo) GPSTrackingStatus() string {
	if t.GPSTracking {
		return "On"
	}
	return "Off"
}

func (t TerminalInfo) AlarmStatus() string {
	return AlarmStatus(t.AlarmCode)
}

func (t TerminalInfo) ChargingStatus() string {
	if t.Charging {
		return "Charging"
	}
	return "Not Charging"
}

func (t TerminalInfo) ACCStatus() string {
	if t.ACCHigh {
		return "High"
	}
	return "Low"
}

func (t TerminalInfo) ActivatedStatus() string {
	if t.Activated {
		return "Yes"
	}
	return "No"
}

// CellInfo identifies the serving GSM cell.
type CellInfo struct {
	MCC    uint16 `json:"mcc"`
	MNC    uint8  `json:"mnc"`
	LAC    uint16 `json:"lac"`
	CellID uint32 `json:"cellId"`
}

// DecodeCellInfo reads MCC(2) MNC(1) LAC(2) cell-id(3) from an 8 byte span.
func DecodeCellInfo(b []byte) CellInfo {
	if len(b) < 8 {
		return CellInfo{}
	}
	return CellInfo{
		MCC:    uint16(b[0])<<8 | uint16(b[1]),
		MNC:    b[2],
		LAC:    uint16(b[3])<<8 | uint16(b[4]),
		CellID: uint32(b[5])<<16 | uint32(b[6])<<8 | uint32(b[7]),
	}
}

func EncodeCellInfo(c CellInfo) [8]byte {
	return [8]byte{
		byte(c.MCC >> 8), byte(c.MCC),
		c.MNC,
		byte(c.LAC >> 8), byte(c.LAC),
		byte(c.CellID >> 16), byte(c.CellID >> 8), byte(c.CellID),
	}
}
