package gt06

import (
	"bytes"
	"math/rand"
	"testing"
)

func sampleStream(t *testing.T) ([]byte, [][]byte) {
	t.Helper()
	frames := [][]byte{
		mustHex(t, "78780d01012345678901234500018cdd0d0a"),
		mustHex(t, "78781f12230214121513c90066ff300209d9c028154c01cc00287d001fb80003ed100d0a"),
		mustHex(t, "787809130104030000021d330d0a"),
		mustHex(t, "78780a164606040102000547910d0a"),
		buildFrame(t, 0x8A, bytes.Repeat([]byte{0x78}, 300), 0x0909), // extended 0x7979 frame
		mustHex(t, "78780899aabbcc0007ec9e0d0a"),
	}
	return bytes.Join(frames, nil), frames
}

func assertFrames(t *testing.T, got []Frame, want [][]byte) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d frames, want %d", len(got), len(want))
	}
	for i := range want {
		if !bytes.Equal(got[i].Raw, want[i]) {
			t.Fatalf("frame %d:\n got % x\nwant % x", i, got[i].Raw, want[i])
		}
	}
}

func TestFrameReaderCoalesced(t *testing.T) {
	stream, want := sampleStream(t)

	got, discarded := NewFrameReader(0).Feed(stream)
	if discarded != 0 {
		t.Errorf("discarded = %d, want 0", discarded)
	}
	assertFrames(t, got, want)

	if got[4].Start != 0x7979 || got[4].Length != 1+300+4 {
		t.Errorf("extended frame start=%#04x length=%d", got[4].Start, got[4].Length)
	}
	for i, f := range got {
		if !f.ChecksumOK {
			t.Errorf("frame %d checksum flagged bad", i)
		}
	}
}

func TestFrameReaderEverySplitPoint(t *testing.T) {
	stream, want := sampleStream(t)

	for split := 0; split <= len(stream); split++ {
		r := NewFrameReader(0)
		first, d1 := r.Feed(stream[:split])
		second, d2 := r.Feed(stream[split:])
		if d1+d2 != 0 {
			t.Fatalf("split %d: discarded %d bytes", split, d1+d2)
		}
		assertFrames(t, append(first, second...), want)
		if r.Buffered() != 0 {
			t.Fatalf("split %d: %d bytes left buffered", split, r.Buffered())
		}
	}
}

func TestFrameReaderRandomFragmentation(t *testing.T) {
	stream, want := sampleStream(t)
	rng := rand.New(rand.NewSource(4))

	for round := 0; round < 500; round++ {
		r := NewFrameReader(0)
		var got []Frame
		for rest := stream; len(rest) > 0; {
			n := 1 + rng.Intn(16)
			if n > len(rest) {
				n = len(rest)
			}
			frames, _ := r.Feed(rest[:n])
			got = append(got, frames...)
			rest = rest[n:]
		}
		assertFrames(t, got, want)
	}
}

func TestFrameReaderByteAtATime(t *testing.T) {
	stream, want := sampleStream(t)
	r := NewFrameReader(0)
	var got []Frame
	for i := range stream {
		frames, _ := r.Feed(stream[i : i+1])
		got = append(got, frames...)
	}
	assertFrames(t, got, want)
}

func TestFrameReaderResync(t *testing.T) {
	login := mustHex(t, "78780d01012345678901234500018cdd0d0a")
	status := mustHex(t, "787809130104030000021d330d0a")

	badStop := append([]byte(nil), status...)
	badStop[len(badStop)-1] = 0x0B

	tests := []struct {
		name      string
		stream    []byte
		want      [][]byte
		discarded int
	}{
		{
			name:      "leading garbage",
			stream:    append([]byte{0x00, 0x11, 0x22}, login...),
			want:      [][]byte{login},
			discarded: 3,
		},
		{
			name:      "misplaced stop marker",
			stream:    append(append([]byte(nil), badStop...), login...),
			want:      [][]byte{login},
			discarded: len(badStop),
		},
		{
			name:      "length below minimum",
			stream:    append([]byte{0x78, 0x78, 0x02, 0x0D, 0x0A}, status...),
			want:      [][]byte{status},
			discarded: 5,
		},
		{
			name:      "garbage between frames",
			stream:    append(append(append([]byte(nil), login...), 0xFF, 0x78, 0x00), status...),
			want:      [][]byte{login, status},
			discarded: 3,
		},
		{
			name:      "frame inside a corrupt candidate",
			stream:    append([]byte{0x78, 0x78, 0x0D}, login...),
			want:      [][]byte{login},
			discarded: 3,
		},
		{
			name:      "plausible length before complete frames",
			stream:    append(append([]byte{0x78, 0x78, 0xFF}, login...), status...),
			want:      [][]byte{login, status},
			discarded: 3,
		},
		{
			name:      "long marker with plausible length",
			stream:    append([]byte{0x79, 0x79, 0x01, 0x00}, login...),
			want:      [][]byte{login},
			discarded: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, discarded := NewFrameReader(0).Feed(tt.stream)
			assertFrames(t, got, tt.want)
			if discarded != tt.discarded {
				t.Errorf("discarded = %d, want %d", discarded, tt.discarded)
			}
		})
	}
}

func TestFrameReaderResyncAcrossReads(t *testing.T) {
	login := mustHex(t, "78780d01012345678901234500018cdd0d0a")
	status := mustHex(t, "787809130104030000021d330d0a")
	stream := append(append([]byte{0x78, 0x78, 0xFF}, login...), status...)

	r := NewFrameReader(0)
	var got [][]byte
	discarded := 0
	for _, b := range stream {
		frames, n := r.Feed([]byte{b})
		discarded += n
		for _, f := range frames {
			got = append(got, f.Raw)
		}
	}

	if len(got) != 2 || !bytes.Equal(got[0], login) || !bytes.Equal(got[1], status) {
		t.Fatalf("frames = %x", got)
	}
	if discarded != 3 || r.Buffered() != 0 {
		t.Errorf("discarded = %d, buffered = %d", discarded, r.Buffered())
	}
}

func TestFrameReaderKeepsPartialMarker(t *testing.T) {
	login := mustHex(t, "78780d01012345678901234500018cdd0d0a")
	r := NewFrameReader(0)

	frames, discarded := r.Feed([]byte{0x01, 0x02, 0x78})
	if len(frames) != 0 || discarded != 2 || r.Buffered() != 1 {
		t.Fatalf("frames=%d discarded=%d buffered=%d", len(frames), discarded, r.Buffered())
	}
	frames, _ = r.Feed(login[1:])
	assertFrames(t, frames, [][]byte{login})
}

func TestFrameReaderMaxFrameSize(t *testing.T) {
	big := buildFrame(t, 0x8A, make([]byte, 200), 1)
	login := mustHex(t, "78780d01012345678901234500018cdd0d0a")

	r := NewFrameReader(64)
	frames, discarded := r.Feed(append(append([]byte(nil), big...), login...))
	assertFrames(t, frames, [][]byte{login})
	if discarded != len(big) {
		t.Errorf("discarded = %d, want %d", discarded, len(big))
	}
}

func TestFrameReaderRandomInput(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	alphabet := []byte{0x78, 0x79, 0x0D, 0x0A, 0x00, 0x05, 0x01, 0xFF}

	for round := 0; round < 2000; round++ {
		r := NewFrameReader(0)
		for chunk := 0; chunk < 8; chunk++ {
			data := make([]byte, rng.Intn(64))
			for i := range data {
				if rng.Intn(2) == 0 {
					data[i] = alphabet[rng.Intn(len(alphabet))]
				} else {
					data[i] = byte(rng.Intn(256))
				}
			}
			frames, _ := r.Feed(data)
			for _, f := range frames {
				assertStructurallyValid(t, f)
				// decoding any frame must not panic either
				_, _ = Decode(f)
			}
		}
	}
}

func assertStructurallyValid(t *testing.T, f Frame) {
	t.Helper()
	raw := f.Raw
	headerLen := 3
	if raw[0] == StartByteLong {
		headerLen = 4
	}
	if raw[0] != raw[1] || (raw[0] != StartByte && raw[0] != StartByteLong) {
		t.Fatalf("bad start marker % x", raw)
	}
	if len(raw) != headerLen+f.Length+2 || f.Length < MinBodyLength {
		t.Fatalf("length %d inconsistent with frame of %d bytes", f.Length, len(raw))
	}
	if raw[len(raw)-2] != EndByte1 || raw[len(raw)-1] != EndByte2 {
		t.Fatalf("bad stop marker % x", raw)
	}
	if len(f.Payload) != f.Length-MinBodyLength {
		t.Fatalf("payload length %d for declared length %d", len(f.Payload), f.Length)
	}
}
