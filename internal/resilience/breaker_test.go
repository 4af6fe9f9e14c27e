// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	var transitions []BreakerState
	b := NewBreaker(BreakerConfig{
		Name:             "collaborator",
		FailureThreshold: 2,
		Cooldown:         time.Minute,
		OnStateChange: func(name string, from, to BreakerState) {
			transitions = append(transitions, to)
		},
	})
	fail := func(ctx context.Context) error { return errFlaky }

	for i := 0; i < 2; i++ {
		if err := b.Execute(context.Background(), fail); !errors.Is(err, errFlaky) {
			t.Fatalf("call %d: expected flaky error, got %v", i, err)
		}
	}
	if b.State() != StateOpen {
		t.Fatalf("expected open, got %v", b.State())
	}

	called := false
	err := b.Execute(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) || called {
		t.Fatalf("expected fast failure without a call, got %v (called=%v)", err, called)
	}
	if len(transitions) != 1 || transitions[0] != StateOpen {
		t.Errorf("unexpected transitions %v", transitions)
	}
}

func TestBreaker_HalfOpenProbe(t *testing.T) {
	now := time.Now()
	b := NewBreaker(BreakerConfig{FailureThreshold: 1, Cooldown: time.Second})
	b.now = func() time.Time { return now }

	_ = b.Execute(context.Background(), func(ctx context.Context) error { return errFlaky })
	if b.State() != StateOpen {
		t.Fatalf("expected open, got %v", b.State())
	}

	now = now.Add(2 * time.Second)
	if err := b.Execute(context.Background(), func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("expected probe to run, got %v", err)
	}
	if b.State() != StateClosed {
		t.Errorf("expected closed after successful probe, got %v", b.State())
	}
}

func TestBreaker_IgnoresPermanentErrors(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 1, Cooldown: time.Minute})
	_ = b.Execute(context.Background(), func(ctx context.Context) error {
		return FromStatus(401, errors.New("bad key"))
	})
	if b.State() != StateClosed {
		t.Errorf("expected closed, got %v", b.State())
	}
}
