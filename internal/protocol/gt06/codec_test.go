package gt06

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"
)

func TestDecodeIMEI(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"padded 15 digits", []byte{0x03, 0x59, 0x71, 0x00, 0x49, 0x09, 0x50, 0x95}, "359710049095095"},
		{"full 16 digits", []byte{0x12, 0x34, 0x56, 0x78, 0x90, 0x12, 0x34, 0x56}, "1234567890123456"},
		// BCD digits, not the decimal value of each byte (0x55 is "55", not "85")
		{"bcd not integer", []byte{0x05, 0x55, 0x55, 0x55, 0x55, 0x55, 0x55, 0x55}, "555555555555555"},
		{"non decimal nibble", []byte{0x0A, 0xBC}, "0ABC"},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeIMEI(tt.data); got != tt.want {
				t.Errorf("DecodeIMEI() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncodeIMEI(t *testing.T) {
	for _, imei := range []string{"359710049095095", "1234567890123456", "7"} {
		b, err := EncodeIMEI(imei)
		if err != nil {
			t.Fatalf("EncodeIMEI(%q): %v", imei, err)
		}
		if len(b) != 8 {
			t.Fatalf("EncodeIMEI(%q) length = %d", imei, len(b))
		}
		got := DecodeIMEI(b)
		want := imei
		for len(want) < 15 {
			want = "0" + want
		}
		if got != want {
			t.Errorf("round trip %q -> %q", imei, got)
		}
	}

	for _, bad := range []string{"", "12345678901234567", "35971004909509X"} {
		if _, err := EncodeIMEI(bad); !errors.Is(err, ErrInvalidIMEI) {
			t.Errorf("EncodeIMEI(%q) err = %v, want ErrInvalidIMEI", bad, err)
		}
	}
}

func TestDecodeTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		data  [6]byte
		want  time.Time
		valid bool
	}{
		{"valid", [6]byte{0x23, 0x02, 0x14, 0x12, 0x15, 0x13}, time.Date(2023, 2, 14, 12, 15, 13, 0, time.UTC), true},
		{"leap day", [6]byte{0x24, 0x02, 0x29, 0x00, 0x00, 0x00}, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), true},
		{"february 30", [6]byte{0x23, 0x02, 0x30, 0x00, 0x00, 0x00}, time.Time{}, false},
		{"month 13", [6]byte{0x23, 0x13, 0x01, 0x00, 0x00, 0x00}, time.Time{}, false},
		{"hour 24", [6]byte{0x23, 0x01, 0x01, 0x24, 0x00, 0x00}, time.Time{}, false},
		{"not bcd", [6]byte{0x23, 0x0A, 0x01, 0x00, 0x00, 0x00}, time.Time{}, false},
		{"all zero", [6]byte{}, time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DecodeTimestamp(tt.data)
			if ok != tt.valid || !got.Equal(tt.want) {
				t.Errorf("DecodeTimestamp() = %v, %v; want %v, %v", got, ok, tt.want, tt.valid)
			}
			if ok && got.Location() != time.UTC {
				t.Errorf("expected UTC, got %v", got.Location())
			}
		})
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC).Unix()
	end := time.Date(2099, 12, 31, 23, 59, 59, 0, time.UTC).Unix()

	for i := 0; i < 2000; i++ {
		want := time.Unix(start+rng.Int63n(end-start), 0).UTC()
		got, ok := DecodeTimestamp(EncodeTimestamp(want))
		if !ok || !got.Equal(want) {
			t.Fatalf("round trip %v -> %v (ok=%v)", want, got, ok)
		}
	}
}

func TestCoordinateClamping(t *testing.T) {
	check := func(raw uint32) {
		for _, neg := range []bool{false, true} {
			lat := DecodeLatitude(raw, neg)
			lon := DecodeLongitude(raw, neg)
			if lat < -90 || lat > 90 || math.IsNaN(lat) {
				t.Fatalf("latitude out of range for raw=%d neg=%v: %f", raw, neg, lat)
			}
			if lon < -180 || lon > 180 || math.IsNaN(lon) {
				t.Fatalf("longitude out of range for raw=%d neg=%v: %f", raw, neg, lon)
			}
		}
	}

	for _, raw := range []uint32{0, 1, 27000000, 27000001, 54000000, 54000001, math.MaxUint32} {
		check(raw)
	}
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 100000; i++ {
		check(rng.Uint32())
	}

	if got := DecodeLatitude(math.MaxUint32, true); got != -90 {
		t.Errorf("DecodeLatitude(max, south) = %f, want -90", got)
	}
	if got := DecodeLongitude(math.MaxUint32, false); got != 180 {
		t.Errorf("DecodeLongitude(max, east) = %f, want 180", got)
	}
}

func TestCoordinateRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 100000; i++ {
		raw := uint32(rng.Int63n(54000001)) // 0..180 degrees
		if got := EncodeCoordinate(DecodeLongitude(raw, false)); got != raw {
			t.Fatalf("longitude raw %d -> %d", raw, got)
		}
		if got := EncodeCoordinate(DecodeLongitude(raw, true)); got != raw {
			t.Fatalf("west longitude raw %d -> %d", raw, got)
		}
	}

	if got := DecodeLatitude(6750000, false); got != 22.5 {
		t.Errorf("DecodeLatitude = %f, want 22.5", got)
	}
	if got := FormatCoordinate(DecodeLatitude(6750001, true)); got != "-22.500003" {
		t.Errorf("FormatCoordinate = %s", got)
	}
}

func TestCourseStatusRoundTrip(t *testing.T) {
	for v := 0; v <= 0xFFFF; v++ {
		b := [2]byte{byte(v >> 8), byte(v)}
		cs := DecodeCourseStatus(b)
		got := EncodeCourseStatus(cs)
		// the two top bits of the first byte are not part of the word
		want := [2]byte{b[0] & 0x3F, b[1]}
		if got != want {
			t.Fatalf("course status % x -> %+v -> % x", b, cs, got)
		}
	}

	cs := DecodeCourseStatus([2]byte{0x15, 0x4C})
	if !cs.Positioned || cs.RealTime || !cs.North || cs.West || cs.Course != 332 {
		t.Errorf("unexpected course status %+v", cs)
	}
}

func TestTerminalInfoRoundTrip(t *testing.T) {
	for v := 0; v <= 0xFF; v++ {
		info := DecodeTerminalInfo(byte(v))
		if got := EncodeTerminalInfo(info); got != byte(v) {
			t.Fatalf("terminal info %#02x -> %+v -> %#02x", v, info, got)
		}
	}
}

func TestTerminalInfoFields(t *testing.T) {
	tests := []struct {
		name  string
		value byte
		want  [6]string
	}{
		{"zero", 0x00, [6]string{"Connected", "Off", "Normal", "Not Charging", "Low", "No"}},
		{"oil cut", 0x01, [6]string{"Disconnected", "Off", "Normal", "Not Charging", "Low", "No"}},
		{"all set", 0xFF, [6]string{"Disconnected", "On", "Unknown", "Charging", "High", "Yes"}},
		{"power cut alarm", 0x02<<2 | 0x02, [6]string{"Connected", "On", "Power Cut", "Not Charging", "Low", "No"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := DecodeTerminalInfo(tt.value)
			got := [6]string{
				info.OilElectricity(),
				info.GPSTrackingStatus(),
				info.AlarmStatus(),
				info.ChargingStatus(),
				info.ACCStatus(),
				info.ActivatedStatus(),
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLookupTables(t *testing.T) {
	tests := []struct {
		name string
		fn   func(byte) string
		in   byte
		want string
	}{
		{"voltage first", VoltageLevel, 0, "No Power"},
		{"voltage last", VoltageLevel, 6, "Very High"},
		{"voltage beyond", VoltageLevel, 7, Unknown},
		{"voltage high nibble", VoltageLevel, 0xF0, Unknown},
		{"gsm first", GSMSignal, 0, "No Signal"},
		{"gsm last", GSMSignal, 4, "Strong"},
		{"gsm beyond", GSMSignal, 5, Unknown},
		{"alarm shock", AlarmStatus, 0x03, "Shock"},
		{"alarm fence out", AlarmStatus, 0x05, "Fence Out"},
		{"alarm unmapped", AlarmStatus, 0x06, Unknown},
		{"language chinese", Language, 0x01, "Chinese"},
		{"language unmapped", Language, 0x03, Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChecksum(t *testing.T) {
	if got := Checksum([]byte("123456789")); got != 0x906E {
		t.Errorf("Checksum(check string) = %#04x, want 0x906e", got)
	}
	if got := Checksum([]byte{0x05, 0x01, 0x00, 0x01}); got != 0xD9DC {
		t.Errorf("Checksum(login ack) = %#04x, want 0xd9dc", got)
	}
}
