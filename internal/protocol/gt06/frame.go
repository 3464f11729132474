package gt06

import "encoding/binary"

// Frame is one complete, structurally valid packet cut from the stream.
type Frame struct {
	Start      uint16 // 0x7878 or 0x7979
	Length     int    // declared length: protocol + payload + serial + checksum
	Protocol   byte
	Payload    []byte // content between the protocol number and the serial number
	Serial     uint16
	Checksum   uint16
	ChecksumOK bool
	Raw        []byte
}

// Header returns the envelope kept on messages decoded from f.
func (f Frame) Header() Header {
	return Header{
		Protocol:   f.Protocol,
		Serial:     f.Serial,
		Checksum:   f.Checksum,
		ChecksumOK: f.ChecksumOK,
		Stop:       uint16(EndByte1)<<8 | EndByte2,
	}
}

// FrameReader cuts frames out of a connection's byte stream. It keeps
// incomplete trailing bytes between calls and resynchronises on the next
// start marker whenever a candidate frame turns out to be malformed.
// A FrameReader is not safe for concurrent use.
type FrameReader struct {
	buf      []byte
	maxFrame int
}

// NewFrameReader returns a reader that rejects candidates longer than
// maxFrame bytes. A non-positive maxFrame selects DefaultMaxFrameSize.
func NewFrameReader(maxFrame int) *FrameReader {
	if maxFrame <= 0 {
		maxFrame = DefaultMaxFrameSize
	}
	return &FrameReader{maxFrame: maxFrame}
}

// Buffered reports how many bytes are waiting for the rest of a frame.
func (r *FrameReader) Buffered() int {
	return len(r.buf)
}

type candidateStatus int

const (
	candidateOK candidateStatus = iota
	candidateIncomplete
	candidateInvalid
)

// Feed appends p to the stream and returns every frame completed by it, in
// arrival order, together with the number of bytes discarded while
// resynchronising. Feed never fails.
func (r *FrameReader) Feed(p []byte) (frames []Frame, discarded int) {
	buf := append(r.buf, p...)

	for len(buf) > 0 {
		start := findStart(buf)
		if start < 0 {
			keep := 0
			if isStartByte(buf[len(buf)-1]) {
				keep = 1
			}
			discarded += len(buf) - keep
			buf = buf[len(buf)-keep:]
			break
		}
		if start > 0 {
			discarded += start
			buf = buf[start:]
		}

		frame, size, status := parseCandidate(buf, r.maxFrame)
		if status == candidateIncomplete {
			// A corrupt length byte can announce a frame that never ends.
			// Give up on it once a later marker holds a whole frame.
			skip := nextCompleteFrame(buf, r.maxFrame)
			if skip < 0 {
				break
			}
			discarded += skip
			buf = buf[skip:]
			continue
		}
		if status == candidateInvalid {
			discarded++
			buf = buf[1:]
			continue
		}
		frames = append(frames, frame)
		buf = buf[size:]
	}

	if len(buf) == 0 {
		r.buf = nil
	} else {
		r.buf = append([]byte(nil), buf...)
	}
	return frames, discarded
}

func isStartByte(b byte) bool {
	return b == StartByte || b == StartByteLong
}

func findStart(buf []byte) int {
	for i := 0; i+1 < len(buf); i++ {
		if isStartByte(buf[i]) && buf[i+1] == buf[i] {
			return i
		}
	}
	return -1
}

// nextCompleteFrame returns the offset of the first start marker after
// buf[0] that begins a complete frame, or -1.
func nextCompleteFrame(buf []byte, maxFrame int) int {
	for i := 1; i+1 < len(buf); i++ {
		if !isStartByte(buf[i]) || buf[i+1] != buf[i] {
			continue
		}
		if _, _, status := parseCandidate(buf[i:], maxFrame); status == candidateOK {
			return i
		}
	}
	return -1
}

// parseCandidate inspects a buffer that begins with a start marker.
func parseCandidate(buf []byte, maxFrame int) (Frame, int, candidateStatus) {
	headerLen := markerLength + 1
	if buf[0] == StartByteLong {
		headerLen = markerLength + 2
	}
	if len(buf) < headerLen {
		return Frame{}, 0, candidateIncomplete
	}

	var length int
	if headerLen == markerLength+1 {
		length = int(buf[2])
	} else {
		length = int(binary.BigEndian.Uint16(buf[2:4]))
	}

	total := headerLen + length + markerLength
	if length < MinBodyLength || total > maxFrame {
		return Frame{}, 0, candidateInvalid
	}
	if len(buf) < total {
		return Frame{}, 0, candidateIncomplete
	}
	if buf[total-2] != EndByte1 || buf[total-1] != EndByte2 {
		return Frame{}, 0, candidateInvalid
	}

	raw := make([]byte, total)
	copy(raw, buf[:total])

	body := raw[headerLen : headerLen+length]
	serialAt := length - checksumLength - serialLength
	checksum := binary.BigEndian.Uint16(body[length-checksumLength:])

	return Frame{
		Start:      binary.BigEndian.Uint16(raw[0:2]),
		Length:     length,
		Protocol:   body[0],
		Payload:    body[1:serialAt],
		Serial:     binary.BigEndian.Uint16(body[serialAt : serialAt+serialLength]),
		Checksum:   checksum,
		ChecksumOK: Checksum(raw[markerLength:headerLen+serialAt+serialLength]) == checksum,
		Raw:        raw,
	}, total, candidateOK
}
