package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"
	"tracking/internal/protocol/gt06"
	"tracking/internal/protocol/server"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	DefaultSessionTTL = 300 * time.Second
	shadowTTL         = 24 * time.Hour
)

// releaseScript deletes the session key only while it still names the
// releasing connection, so a reconnect on another gateway is not removed.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Connect parses a redis:// URL and checks the server is reachable.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// Registry records which gateway connection owns each device and keeps a
// small shadow hash with the latest values reported by the device.
type Registry struct {
	client    *redis.Client
	gatewayID string
	ttl       time.Duration
	logger    zerolog.Logger
}

func NewRegistry(client *redis.Client, gatewayID string, ttl time.Duration, logger zerolog.Logger) *Registry {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Registry{
		client:    client,
		gatewayID: gatewayID,
		ttl:       ttl,
		logger:    logger.With().Str("component", "presence").Logger(),
	}
}

func SessionKey(deviceID string) string { return "gt06:sess:" + deviceID }
func ShadowKey(deviceID string) string  { return "gt06:shadow:" + deviceID }

// sessionValue is "<gateway>:<conn>:<client ip>".
func sessionValue(info server.SessionInfo) string {
	return fmt.Sprintf("%s:%s:%s", info.GatewayID, info.ConnID, info.RemoteAddr)
}

func (r *Registry) Register(ctx context.Context, info server.SessionInfo) error {
	if info.DeviceID == "" {
		return nil
	}
	value := sessionValue(info)
	if err := r.client.Set(ctx, SessionKey(info.DeviceID), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to register session: %w", err)
	}
	r.logger.Debug().Str("device_id", info.DeviceID).Str("session", value).Msg("session registered")
	return nil
}

// Touch extends the session TTL and records msg in the device shadow.
func (r *Registry) Touch(ctx context.Context, info server.SessionInfo, msg gt06.Message) error {
	if info.DeviceID == "" {
		return nil
	}

	pipe := r.client.TxPipeline()
	pipe.Expire(ctx, SessionKey(info.DeviceID), r.ttl)
	pipe.HSet(ctx, ShadowKey(info.DeviceID), ShadowFields(msg, time.Now()))
	pipe.Expire(ctx, ShadowKey(info.DeviceID), shadowTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to update device shadow: %w", err)
	}
	return nil
}

func (r *Registry) Unregister(ctx context.Context, info server.SessionInfo) error {
	if info.DeviceID == "" {
		return nil
	}
	err := releaseScript.Run(ctx, r.client, []string{SessionKey(info.DeviceID)}, sessionValue(info)).Err()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("failed to release session: %w", err)
	}
	return nil
}

// ShadowFields flattens the parts of msg worth keeping in the shadow hash.
func ShadowFields(msg gt06.Message, now time.Time) map[string]any {
	fields := map[string]any{
		"ts":     now.Unix(),
		"kind":   string(msg.Kind()),
		"serial": strconv.Itoa(int(msg.Header().Serial)),
	}

	switch m := msg.(type) {
	case *gt06.LocationMessage:
		addFix(fields, m.Fix, m.Time, m.TimeValid)
	case *gt06.AlarmMessage:
		addFix(fields, m.Fix, m.Time, m.TimeValid)
		fields["alarm"] = gt06.AlarmStatus(m.AlarmStatus)
		fields["voltage"] = gt06.VoltageLevel(m.Voltage)
		fields["gsm"] = gt06.GSMSignal(m.GSMSignal)
	case *gt06.StatusMessage:
		fields["voltage"] = gt06.VoltageLevel(m.Voltage)
		fields["gsm"] = gt06.GSMSignal(m.GSMSignal)
		fields["acc"] = m.Terminal.ACCStatus()
	case *gt06.HeartbeatMessage:
		fields["voltage"] = gt06.VoltageLevel(m.Voltage)
		fields["gsm"] = gt06.GSMSignal(m.GSMSignal)
		fields["acc"] = m.Terminal.ACCStatus()
	}
	return fields
}

func addFix(fields map[string]any, fix gt06.GeoFix, at time.Time, valid bool) {
	fields["lat"] = strconv.FormatFloat(fix.Latitude, 'f', 6, 64)
	fields["lon"] = strconv.FormatFloat(fix.Longitude, 'f', 6, 64)
	fields["speed"] = fix.Speed
	fields["course"] = fix.Course
	if valid {
		fields["fix_ts"] = at.Unix()
	}
}
