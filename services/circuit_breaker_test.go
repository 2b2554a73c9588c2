package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewCircuitBreakerRegistry(t *testing.T) {
	config := CircuitBreakerConfig{
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
	}

	registry := NewCircuitBreakerRegistry(config)

	if registry == nil {
		t.Fatal("expected registry to be created")
	}
	if registry.breakers == nil {
		t.Error("expected breakers map to be initialized")
	}
	if registry.config != config {
		t.Error("expected config to be set")
	}
}

func TestCircuitBreakerRegistry_GetBreaker(t *testing.T) {
	registry := NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig)

	// First call should create a new breaker
	breaker1 := registry.GetBreaker("test-feed")
	if breaker1 == nil {
		t.Fatal("expected breaker to be created")
	}

	// Second call should return the same breaker
	breaker2 := registry.GetBreaker("test-feed")
	if breaker1 != breaker2 {
		t.Error("expected same breaker instance")
	}

	// Different name should create different breaker
	breaker3 := registry.GetBreaker("other-feed")
	if breaker1 == breaker3 {
		t.Error("expected different breaker for different name")
	}
}

func TestCircuitBreakerRegistry_Execute_Success(t *testing.T) {
	registry := NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig)
	ctx := context.Background()

	result, err := registry.Execute(ctx, "test-feed", func() (any, error) {
		return "success", nil
	})

	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if result != "success" {
		t.Errorf("result = %v, want 'success'", result)
	}
}

func TestCircuitBreakerRegistry_Execute_TripsOpen(t *testing.T) {
	registry := NewCircuitBreakerRegistry(CircuitBreakerConfig{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     time.Minute,
	})
	ctx := context.Background()
	failure := errors.New("upstream down")

	// Five consecutive failures exceed the 50% trip ratio.
	for i := 0; i < 5; i++ {
		registry.Execute(ctx, "flaky-feed", func() (any, error) {
			return nil, failure
		})
	}

	_, err := registry.Execute(ctx, "flaky-feed", func() (any, error) {
		return "should not run", nil
	})
	if err == nil {
		t.Fatal("expected open-breaker error, got nil")
	}
	if !strings.Contains(err.Error(), "circuit breaker open") {
		t.Errorf("expected circuit breaker open error, got: %v", err)
	}
}

func TestCircuitBreakerRegistry_Execute_ContextCancelled(t *testing.T) {
	registry := NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	_, err := registry.Execute(ctx, "test-feed", func() (any, error) {
		called = true
		return nil, nil
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got: %v", err)
	}
	if called {
		t.Error("function should not run with cancelled context")
	}
}

func TestWithCircuitBreaker_TypedResult(t *testing.T) {
	SetGlobalRegistry(NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig))
	ctx := context.Background()

	got, err := WithCircuitBreaker(ctx, "typed-feed", func() (int, error) {
		return 42, nil
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if got != 42 {
		t.Errorf("result = %d, want 42", got)
	}

	_, err = WithCircuitBreaker(ctx, "typed-feed", func() (int, error) {
		return 0, errors.New("boom")
	})
	if err == nil {
		t.Error("expected error, got nil")
	}
}

func TestCircuitBreakerRegistry_Status(t *testing.T) {
	registry := NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig)
	ctx := context.Background()

	registry.Execute(ctx, "status-feed", func() (any, error) { return nil, nil })

	status := registry.Status()
	s, ok := status["status-feed"]
	if !ok {
		t.Fatal("expected status entry for status-feed")
	}
	if s.State != "closed" {
		t.Errorf("State = %v, want 'closed'", s.State)
	}
	if s.TotalSuccesses != 1 {
		t.Errorf("TotalSuccesses = %d, want 1", s.TotalSuccesses)
	}
}
