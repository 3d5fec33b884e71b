package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager executes a function within a database transaction,
// passing the underlying transaction handle to repositories via tx.
//
// The concrete type of tx is infra-defined (pgx.Tx for Postgres, NoTX for the
// in-memory store). Repositories MUST accept NoTX (non-transactional path).
//
// USAGE
//
//	tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx Tx) error {
//		ok, err := ledger.InsertSuccessAtomic(ctx, tx, rec, plan.MaxUsagesPerMonth)
//		...
//	})
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
