package scheduling

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/clinic-intake/pkg/logging"
)

const defaultSlotsKey = "clinic:slots"

// claimSlot flips a field from "1" to "0" in one step so concurrent callers
// cannot both observe the slot as free.
var claimSlot = redis.NewScript(`
if redis.call('HGET', KEYS[1], ARGV[1]) == '1' then
	redis.call('HSET', KEYS[1], ARGV[1], '0')
	return 1
end
return 0
`)

// RedisStore keeps the slot table in a single Redis hash keyed by doctor|date|time.
type RedisStore struct {
	client *redis.Client
	key    string
	tracer trace.Tracer
	logger *logging.Logger
}

// NewRedisStore creates a Redis-backed slot store. An empty key uses the default hash name.
func NewRedisStore(client *redis.Client, key string, logger *logging.Logger) *RedisStore {
	if client == nil {
		panic("scheduling: redis client cannot be nil")
	}
	if key == "" {
		key = defaultSlotsKey
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisStore{
		client: client,
		key:    key,
		tracer: otel.Tracer("clinic.internal.scheduling.redis"),
		logger: logger,
	}
}

// ListAvailable returns available slots ordered by doctor, date, then time.
func (s *RedisStore) ListAvailable(ctx context.Context) ([]Slot, error) {
	all, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return filterAvailable(all), nil
}

// ListAll returns every slot in the hash.
func (s *RedisStore) ListAll(ctx context.Context) ([]Slot, error) {
	ctx, span := s.tracer.Start(ctx, "scheduling.redis.list")
	defer span.End()

	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("scheduling: load slot hash: %w", err)
	}
	slots := make([]Slot, 0, len(fields))
	for field, flag := range fields {
		parts := strings.Split(field, "|")
		if len(parts) != 3 {
			s.logger.Warn("skipping malformed slot field", "field", field)
			continue
		}
		slots = append(slots, Slot{
			Doctor:    parts[0],
			Date:      parts[1],
			Time:      parts[2],
			Available: flag == "1",
		})
	}
	SortSlots(slots)
	return slots, nil
}

// MarkUnavailable runs the claim script; Redis persistence (AOF/RDB) covers durability.
func (s *RedisStore) MarkUnavailable(ctx context.Context, doctor, date, clock string) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "scheduling.redis.claim")
	defer span.End()

	n, err := claimSlot.Run(ctx, s.client, []string{s.key}, SlotKey(doctor, date, clock)).Int()
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("scheduling: claim slot: %w", err)
	}
	return n == 1, nil
}

// Seed adds missing fields with HSETNX so booked slots are never reopened.
func (s *RedisStore) Seed(ctx context.Context, slots []Slot) error {
	if len(slots) == 0 {
		return nil
	}
	pipe := s.client.Pipeline()
	cmds := make([]*redis.BoolCmd, 0, len(slots))
	for _, slot := range slots {
		flag := "0"
		if slot.Available {
			flag = "1"
		}
		cmds = append(cmds, pipe.HSetNX(ctx, s.key, slot.Key(), flag))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("scheduling: seed slot hash: %w", err)
	}
	added := 0
	for _, cmd := range cmds {
		if cmd.Val() {
			added++
		}
	}
	s.logger.Info("slots seeded", "added", added, "requested", len(slots))
	return nil
}

var _ Store = (*RedisStore)(nil)
