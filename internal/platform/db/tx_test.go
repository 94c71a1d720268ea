package db

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type fakeQuerier struct{}

func (*fakeQuerier) Query(context.Context, string, ...interface{}) (pgx.Rows, error) { return nil, nil }
func (*fakeQuerier) QueryRow(context.Context, string, ...interface{}) pgx.Row        { return nil }
func (*fakeQuerier) Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func TestConn_Fallback(t *testing.T) {
	q := &fakeQuerier{}
	if got := Conn(context.Background(), q); got != Querier(q) {
		t.Error("expected the fallback querier without a tx or tenant connection")
	}
}

func TestAfterCommit_OutsideTx(t *testing.T) {
	ran := false
	AfterCommit(context.Background(), func() { ran = true })
	if !ran {
		t.Error("expected immediate run outside a transaction")
	}
}

func TestAfterCommit_Deferred(t *testing.T) {
	hooks := &[]func(){}
	ctx := context.WithValue(context.Background(), hooksKey, hooks)

	var order []int
	AfterCommit(ctx, func() { order = append(order, 1) })
	AfterCommit(ctx, func() { order = append(order, 2) })
	if len(order) != 0 {
		t.Fatal("hooks must wait for commit")
	}
	if len(*hooks) != 2 {
		t.Fatalf("expected 2 queued hooks, got %d", len(*hooks))
	}
	for _, h := range *hooks {
		h()
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("hooks ran out of order: %v", order)
	}
}
