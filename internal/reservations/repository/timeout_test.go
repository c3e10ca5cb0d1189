package repository

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

func TestWithTimeout_AddsDeadline(t *testing.T) {
	ctx, cancel := withTimeout(context.Background(), 5*time.Second)
	defer cancel()

	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatal("no deadline set")
	}
	if remaining := time.Until(deadline); remaining > 5*time.Second {
		t.Errorf("deadline %s out, want at most 5s", remaining)
	}
}

func TestWithTimeout_KeepsShorterDeadline(t *testing.T) {
	parent, parentCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer parentCancel()
	parentDeadline, _ := parent.Deadline()

	ctx, cancel := withTimeout(parent, 5*time.Second)
	defer cancel()

	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatal("no deadline set")
	}
	if deadline.After(parentDeadline) {
		t.Errorf("deadline %s is later than the parent's %s", deadline, parentDeadline)
	}
}

func TestWithTimeout_LeavesSessionContextUnchanged(t *testing.T) {
	sessCtx := mongo.NewSessionContext(context.Background(), nil)

	ctx, cancel := withTimeout(sessCtx, 5*time.Second)
	defer cancel()

	if ctx != sessCtx {
		t.Error("transaction context was wrapped")
	}
	if _, ok := ctx.Deadline(); ok {
		t.Error("deadline applied inside a transaction")
	}
}
