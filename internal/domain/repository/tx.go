package repository

import "context"

// TxManager runs fn with repository instances bound to a single database
// transaction. If fn returns an error the transaction is rolled back and
// the error is returned; otherwise it is committed. The transaction is
// released on every exit path, including panics.
//
// The place create/delete dual writes (place row + owner's place_ids list)
// are the only callers; partial application of those two writes must be
// unreachable.
type TxManager interface {
	WithTx(ctx context.Context, fn func(users UserRepository, places PlaceRepository) error) error
}
