// Token tests need a reachable Valkey; they skip otherwise, matching the
// rest of the integration-style suite. DB 15 is used and cleaned up.
package token

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testValkeyClient returns a Valkey client for token tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:     envOr("VALKEY_HOST", "localhost") + ":" + envOr("VALKEY_PORT", "6379"),
		Password: os.Getenv("VALKEY_PASSWORD"),
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, keyPrefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return client
}

func TestValidFormat(t *testing.T) {
	cases := []struct {
		tok  string
		want bool
	}{
		{strings.Repeat("a1", 32), true},
		{strings.Repeat("A1", 32), false}, // uppercase never issued
		{strings.Repeat("a1", 31), false}, // too short
		{strings.Repeat("a1", 33), false}, // too long
		{strings.Repeat("g1", 32), false}, // not hex
		{"", false},
		{"../../../etc/passwd", false},
	}
	for _, c := range cases {
		if got := ValidFormat(c.tok); got != c.want {
			t.Errorf("ValidFormat(%q): got %v, want %v", c.tok, got, c.want)
		}
	}
}

func TestIssueConsume_RoundTrip(t *testing.T) {
	client := testValkeyClient(t)
	svc := NewService(client, time.Minute)
	ctx := context.Background()

	shadowID := uuid.New()
	tok, err := svc.Issue(ctx, shadowID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !ValidFormat(tok) {
		t.Fatalf("issued token fails its own format check: %q", tok)
	}

	got, err := svc.Consume(ctx, tok)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if got != shadowID {
		t.Errorf("Consume: got %s, want %s", got, shadowID)
	}

	// Replay must fail with the uniform error.
	if _, err := svc.Consume(ctx, tok); err != ErrInvalidToken {
		t.Errorf("replayed Consume: got %v, want ErrInvalidToken", err)
	}
}

func TestConsume_UnknownAndMalformed(t *testing.T) {
	client := testValkeyClient(t)
	svc := NewService(client, time.Minute)
	ctx := context.Background()

	if _, err := svc.Consume(ctx, strings.Repeat("ab", 32)); err != ErrInvalidToken {
		t.Errorf("unknown token: got %v, want ErrInvalidToken", err)
	}
	if _, err := svc.Consume(ctx, "not-a-token"); err != ErrInvalidToken {
		t.Errorf("malformed token: got %v, want ErrInvalidToken", err)
	}
}

func TestConsume_ExactlyOnceUnderConcurrency(t *testing.T) {
	client := testValkeyClient(t)
	svc := NewService(client, time.Minute)
	ctx := context.Background()

	tok, err := svc.Issue(ctx, uuid.New())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	const workers = 32
	var wg sync.WaitGroup
	results := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Consume(ctx, tok)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, failures int
	for err := range results {
		switch err {
		case nil:
			successes++
		case ErrInvalidToken:
			failures++
		default:
			t.Errorf("unexpected consume error: %v", err)
		}
	}

	if successes != 1 {
		t.Errorf("concurrent consumption: got %d successes, want exactly 1", successes)
	}
	if failures != workers-1 {
		t.Errorf("concurrent consumption: got %d failures, want %d", failures, workers-1)
	}
}

func TestIssue_TokenExpires(t *testing.T) {
	client := testValkeyClient(t)
	svc := NewService(client, 50*time.Millisecond)
	ctx := context.Background()

	tok, err := svc.Issue(ctx, uuid.New())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	if _, err := svc.Consume(ctx, tok); err != ErrInvalidToken {
		t.Errorf("expired token: got %v, want ErrInvalidToken", err)
	}
}
