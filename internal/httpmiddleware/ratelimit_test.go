package httpmiddleware

import (
	"context"
	"testing"
)

func TestLocalFallbackEnforcesLimit(t *testing.T) {
	l := NewRateLimiter(3, nil)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if !l.allow(ctx, "1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.allow(ctx, "1.2.3.4") {
		t.Fatalf("fourth request should be rejected")
	}
}

func TestLocalFallbackIsPerKey(t *testing.T) {
	l := NewRateLimiter(1, nil)
	ctx := context.Background()
	if !l.allow(ctx, "1.1.1.1") {
		t.Fatalf("first ip should be allowed")
	}
	if !l.allow(ctx, "2.2.2.2") {
		t.Fatalf("other ip should have its own budget")
	}
}
