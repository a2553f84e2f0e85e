package redis

import (
	"testing"

	"github.com/ecoscan-in/ecoscan-backend/pkg/config"
)

func TestOptionsFromConfigRequiresURLOrAddress(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error for empty config")
	}
}

func TestOptionsFromConfigParsesURL(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://:pw@localhost:6380/2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6380" {
		t.Fatalf("unexpected addr %q", opts.Addr)
	}
	if opts.DB != 2 {
		t.Fatalf("unexpected db %d", opts.DB)
	}
}

func TestOptionsFromConfigAddressFallback(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{Address: "redis.internal:6379", Password: "pw", DB: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "redis.internal:6379" || opts.Password != "pw" || opts.DB != 1 {
		t.Fatalf("unexpected options %+v", opts)
	}
}

func TestKeyBuilders(t *testing.T) {
	c := &Client{}
	if got := c.IdempotencyKey("recycle-submit", "abc"); got != "eco:idempotency:recycle-submit:abc" {
		t.Fatalf("unexpected idempotency key %q", got)
	}
	if got := c.SessionKey("user-1"); got != "eco:recycle_session:user-1" {
		t.Fatalf("unexpected session key %q", got)
	}
	if got := c.StatsKey("recycling_rate"); got != "eco:stats:recycling_rate" {
		t.Fatalf("unexpected stats key %q", got)
	}
	if got := c.LockKey("cron-worker"); got != "eco:lock:cron-worker" {
		t.Fatalf("unexpected lock key %q", got)
	}
}
