package cache

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestParseRedisURL(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantAddr string
		wantDB   int
		wantErr  bool
	}{
		{name: "bare address", raw: "redis:6379", wantAddr: "redis:6379"},
		{name: "url with db", raw: "redis://:secret@cache.local:6380/2", wantAddr: "cache.local:6380", wantDB: 2},
		{name: "empty", raw: "  ", wantErr: true},
		{name: "bad scheme", raw: "http://cache.local:6379", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opt, err := ParseRedisURL(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", opt)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if opt.Addr != tt.wantAddr || opt.DB != tt.wantDB {
				t.Fatalf("got addr=%q db=%d", opt.Addr, opt.DB)
			}
		})
	}
}

// unreachableAddr returns an address nothing listens on.
func unreachableAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := l.Addr().String()
	l.Close()
	return addr
}

func TestRedisCacheUnavailableReadsAsMiss(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        unreachableAddr(t),
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })

	c := NewRedisCache[int](client, "test:", time.Minute)
	c.Set("a", 1)
	if v, ok := c.Get("a"); ok {
		t.Fatalf("expected miss, got %d", v)
	}
	c.Purge()
	c.Delete("a")

	st := c.Stats()
	if st.Size != 0 || st.Hits != 0 || st.Misses != 1 {
		t.Fatalf("stats = %+v", st)
	}
	if c.key("a") != "test:a" {
		t.Fatalf("key = %q", c.key("a"))
	}
}

// scriptedRedis answers SCAN with fixed keys and fails every DEL, without
// touching the network.
type scriptedRedis struct {
	keys []string
	dels int
}

func (h *scriptedRedis) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *scriptedRedis) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		switch cmd.Name() {
		case "scan":
			cmd.(*redis.ScanCmd).SetVal(h.keys, 0)
			return nil
		case "del":
			h.dels++
			return errors.New("READONLY You can't write against a read only replica")
		}
		return next(ctx, cmd)
	}
}

func (h *scriptedRedis) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestRedisPurgeReportsFailedDeletes(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: unreachableAddr(t), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	hook := &scriptedRedis{keys: []string{"test:a", "test:b", "test:c"}}
	client.AddHook(hook)

	c := NewRedisCache[int](client, "test:", time.Minute)
	if left := c.purge(); left != 3 {
		t.Fatalf("keys left = %d, want 3", left)
	}
	if hook.dels != 1 {
		t.Fatalf("del calls = %d, want 1", hook.dels)
	}
}
