// Package txn runs MongoDB multi-document transactions.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
	"go.uber.org/zap"
)

// ErrNotSupported is returned by Run when the deployment cannot run
// transactions (standalone mongod, some managed offerings).
var ErrNotSupported = errors.New("txn: transactions not supported by this deployment")

// Run executes fn inside a transaction with majority read/write concern.
// fn must use the ctx it is given so its operations join the session.
// There is no non-transactional fallback: if the server rejects
// transactions, Run returns an error wrapping ErrNotSupported and nothing
// has been written.
func Run(ctx context.Context, client *mongo.Client, log *zap.Logger, fn func(ctx context.Context) error) error {
	sess, err := client.StartSession()
	if err != nil {
		return classify(err, log)
	}
	defer sess.EndSession(ctx)

	opts := options.Transaction().
		SetReadConcern(readconcern.Majority()).
		SetWriteConcern(writeconcern.Majority())

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	}, opts)
	return classify(err, log)
}

// classify wraps server refusals in ErrNotSupported and passes other
// errors (including nil) through untouched.
func classify(err error, log *zap.Logger) error {
	if !IsNotSupported(err) {
		return err
	}
	if log != nil {
		log.Warn("transaction rejected by server", zap.Error(err))
	}
	return errors.Join(ErrNotSupported, err)
}

// IsNotSupported reports whether err indicates the server cannot run
// transactions or sessions.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, 51, 263:
			return true
		}
	}
	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "transaction") && strings.Contains(s, "replica set"):
		return true
	case strings.Contains(s, "session") && strings.Contains(s, "not supported"):
		return true
	case strings.Contains(s, "transaction") && strings.Contains(s, "session"):
		return true
	case strings.Contains(s, "illegal operation"):
		return true
	}
	return false
}
