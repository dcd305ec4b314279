package redis

import (
	"testing"

	"github.com/harborline/cruisebook-backend/pkg/config"
)

func TestOptionsFromConfigRequiresTarget(t *testing.T) {
	t.Parallel()

	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error when neither url nor address is set")
	}
}

func TestOptionsFromConfigAddress(t *testing.T) {
	t.Parallel()

	opts, err := optionsFromConfig(config.RedisConfig{Address: "localhost:6379", DB: 2, PoolSize: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6379" || opts.DB != 2 || opts.PoolSize != 5 {
		t.Fatalf("options not applied: %+v", opts)
	}
}

func TestKeyNamespacing(t *testing.T) {
	t.Parallel()

	c := &Client{}
	if got := c.CacheKey("promotions", "active"); got != "cb:cache:promotions:active" {
		t.Fatalf("unexpected cache key: %s", got)
	}
	if got := c.WebhookKey("evt_1"); got != "cb:webhook:stripe:evt_1" {
		t.Fatalf("unexpected webhook key: %s", got)
	}
}
