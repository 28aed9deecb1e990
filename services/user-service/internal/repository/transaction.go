package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// TxRunner runs fn as one unit of work. Repository calls made with the ctx
// passed to fn take part in the transaction.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	// Transactional reports whether fn really runs inside a multi-document transaction.
	Transactional() bool
}

type mongoTxRunner struct {
	client  *mongo.Client
	enabled bool
}

// NewMongoTxRunner creates a TxRunner. When enabled is false, which is required
// for standalone servers, fn runs directly without a transaction.
func NewMongoTxRunner(client *mongo.Client, enabled bool) TxRunner {
	return &mongoTxRunner{client: client, enabled: enabled}
}

func (r *mongoTxRunner) Transactional() bool {
	return r.enabled
}

func (r *mongoTxRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !r.enabled {
		return fn(ctx)
	}

	session, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})

	return err
}
