// Command simulator plays a GT06 tracker against a running gateway: it logs
// in, then alternates heartbeats and location reports and logs every
// acknowledgment it receives.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"tracking/internal/logging"
	"tracking/internal/protocol/gt06"

	"github.com/rs/zerolog"
)

type options struct {
	addr     string
	imei     string
	count    int
	interval time.Duration
	lat      float64
	lon      float64
}

func main() {
	var opts options
	flag.StringVar(&opts.addr, "addr", "127.0.0.1:5023", "gateway TCP address")
	flag.StringVar(&opts.imei, "imei", "123456789012345", "15 digit device IMEI")
	flag.IntVar(&opts.count, "count", 10, "number of location reports to send")
	flag.DurationVar(&opts.interval, "interval", 2*time.Second, "delay between reports")
	flag.Float64Var(&opts.lat, "lat", 22.5431, "starting latitude")
	flag.Float64Var(&opts.lon, "lon", 114.0579, "starting longitude")
	flag.Parse()

	logger := logging.ConfigureRuntime("gt06-simulator")
	if err := run(opts, logger); err != nil {
		logger.Error().Err(err).Msg("simulation failed")
		os.Exit(1)
	}
}

func run(opts options, logger zerolog.Logger) error {
	conn, err := net.DialTimeout("tcp", opts.addr, 5*time.Second)
	if err != nil {
		return fmt.Errorf("dial %s: %w", opts.addr, err)
	}
	defer conn.Close()
	logger.Info().Str("addr", opts.addr).Str("imei", opts.imei).Msg("connected")

	acks := make(chan gt06.Frame, 16)
	go readAcks(conn, acks, logger)

	var serial uint16
	send := func(msg gt06.Message) error {
		frame, err := gt06.EncodeMessage(msg)
		if err != nil {
			return err
		}
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if _, err := conn.Write(frame); err != nil {
			return fmt.Errorf("write %s: %w", msg.Kind(), err)
		}
		logger.Debug().Str("type", string(msg.Kind())).Str("raw", hex.EncodeToString(frame)).Msg("sent")
		return nil
	}
	next := func(protocol byte) gt06.Header {
		serial++
		return gt06.Header{Protocol: protocol, Serial: serial}
	}

	if err := send(&gt06.LoginMessage{Head: next(gt06.LoginMsg), DeviceID: opts.imei}); err != nil {
		return err
	}
	select {
	case ack, ok := <-acks:
		if !ok {
			return fmt.Errorf("connection closed before login ack")
		}
		if ack.Protocol != gt06.LoginMsg || ack.Serial != serial {
			return fmt.Errorf("unexpected login ack protocol=0x%02X serial=%d", ack.Protocol, ack.Serial)
		}
	case <-time.After(5 * time.Second):
		return fmt.Errorf("no login ack within 5s")
	}

	lat, lon := opts.lat, opts.lon
	for i := 0; i < opts.count; i++ {
		heartbeat := &gt06.HeartbeatMessage{
			Head:      next(gt06.HeartbeatMsg),
			Terminal:  gt06.TerminalInfo{GPSTracking: true, ACCHigh: true, Activated: true},
			Voltage:   6,
			GSMSignal: 4,
			Language:  2,
		}
		if err := send(heartbeat); err != nil {
			return err
		}

		lat += 0.0005
		lon += 0.0003
		location := &gt06.LocationMessage{
			Head:          next(gt06.LocationMsg),
			Time:          time.Now().UTC().Truncate(time.Second),
			TimeValid:     true,
			SatelliteInfo: gt06.SatelliteInfo{InfoLength: 12, Satellites: 9},
			Fix:           gt06.GeoFix{Latitude: lat, Longitude: lon, Speed: 35, Course: 90, Satellites: 9},
			CourseStatus:  gt06.CourseStatus{RealTime: true, Positioned: true, North: lat >= 0, West: lon < 0, Course: 90},
			Cell:          gt06.CellInfo{MCC: 460, MNC: 0, LAC: 0x287D, CellID: 0x001FB8},
		}
		if err := send(location); err != nil {
			return err
		}

		time.Sleep(opts.interval)
	}

	logger.Info().Int("reports", opts.count).Msg("simulation complete")
	return nil
}

func readAcks(conn net.Conn, out chan<- gt06.Frame, logger zerolog.Logger) {
	defer close(out)
	reader := gt06.NewFrameReader(0)
	buf := make([]byte, 256)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			frames, _ := reader.Feed(buf[:n])
			for _, f := range frames {
				logger.Info().
					Str("type", gt06.MessageTypeName(f.Protocol)).
					Uint16("serial", f.Serial).
					Bool("crc_ok", f.ChecksumOK).
					Msg("ack received")
				select {
				case out <- f:
				default:
				}
			}
		}
		if err != nil {
			if err != io.EOF {
				logger.Debug().Err(err).Msg("ack reader stopped")
			}
			return
		}
	}
}
