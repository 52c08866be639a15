package txn

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestIsNotSupported(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
		{
			name: "generic error",
			err:  errors.New("some random error"),
			want: false,
		},
		{
			name: "command error code 20",
			err:  mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member"},
			want: true,
		},
		{
			name: "command error code 51",
			err:  mongo.CommandError{Code: 51, Message: "Illegal operation"},
			want: true,
		},
		{
			name: "command error code 263",
			err:  mongo.CommandError{Code: 263, Message: "Cannot run in a multi-document transaction"},
			want: true,
		},
		{
			name: "wrapped command error",
			err:  fmt.Errorf("commit leads batch: %w", mongo.CommandError{Code: 263, Message: "Cannot run in a multi-document transaction"}),
			want: true,
		},
		{
			name: "joined with ErrNotSupported",
			err:  errors.Join(ErrNotSupported, mongo.CommandError{Code: 20}),
			want: true,
		},
		{
			name: "other command error code",
			err:  mongo.CommandError{Code: 100, Message: "Some other error"},
			want: false,
		},
		{
			name: "error with transaction and replica set keywords",
			err:  errors.New("transaction failed because this is not a replica set member"),
			want: true,
		},
		{
			name: "error with session and not supported keywords",
			err:  errors.New("session operations are not supported on this server"),
			want: true,
		},
		{
			name: "error with only one keyword",
			err:  errors.New("transaction failed"),
			want: false,
		},
		{
			name: "error with transaction and session",
			err:  errors.New("cannot start transaction in current session state"),
			want: true,
		},
		{
			name: "error with illegal operation keywords",
			err:  errors.New("illegal operation during transaction"),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsNotSupported(tt.err)
			if got != tt.want {
				t.Errorf("IsNotSupported(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsNotSupported_CaseInsensitive(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "uppercase TRANSACTION and REPLICA SET",
			err:  errors.New("TRANSACTION FAILED on REPLICA SET"),
			want: true,
		},
		{
			name: "mixed case Transaction and Session",
			err:  errors.New("Transaction Session error"),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsNotSupported(tt.err)
			if got != tt.want {
				t.Errorf("IsNotSupported(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	log := zap.New(core)

	refused := mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member"}
	err := classify(refused, log)
	if !errors.Is(err, ErrNotSupported) {
		t.Fatalf("expected ErrNotSupported, got %v", err)
	}
	var ce mongo.CommandError
	if !errors.As(err, &ce) || ce.Code != 20 {
		t.Errorf("server error not kept in chain: %v", err)
	}
	if logs.FilterMessage("transaction rejected by server").Len() != 1 {
		t.Errorf("expected one warning, got %d entries", logs.Len())
	}

	other := errors.New("write conflict on lead")
	if got := classify(other, log); got != other || errors.Is(got, ErrNotSupported) {
		t.Errorf("other error: got %v", got)
	}
	if got := classify(nil, nil); got != nil {
		t.Errorf("nil: got %v", got)
	}
	if got := classify(refused, nil); !errors.Is(got, ErrNotSupported) {
		t.Errorf("nil logger: got %v", got)
	}
}

// TestRun_Mongo needs a replica set; a standalone server must report
// ErrNotSupported instead.
func TestRun_Mongo(t *testing.T) {
	uri := os.Getenv("LEADHUB_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("LEADHUB_TEST_MONGO_URI not set; skipping MongoDB test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Disconnect(ctx)

	sentinel := errors.New("abort batch")
	err = Run(ctx, client, zap.NewNop(), func(context.Context) error { return sentinel })
	if errors.Is(err, ErrNotSupported) {
		t.Skip("server does not support transactions")
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("Run: expected fn error, got %v", err)
	}
	if err := Run(ctx, client, zap.NewNop(), func(context.Context) error { return nil }); err != nil {
		t.Errorf("Run: %v", err)
	}
}
