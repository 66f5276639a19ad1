package contracts

import "context"

// TxManager scopes a function to one durable transaction. Repositories
// called inside fn pick the transaction up from the context.
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
