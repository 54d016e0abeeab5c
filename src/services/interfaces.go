package services

import (
	"context"

	"github.com/username/recurro/backend/src/models"
)

// Store interfaces. Implemented by the sqlite repositories in src/store; the
// services only see these so tests can substitute in-memory fakes and the
// ledger stays an explicit collaborator boundary. Lookups return (nil, nil)
// when no row matches; errors are reserved for dependency failures.

type SeriesStore interface {
	GetByID(ctx context.Context, userID, id int64) (*models.RecurringSeries, error)
	List(ctx context.Context, userID int64, f models.SeriesFilter) ([]models.RecurringSeries, error)
	Insert(ctx context.Context, s *models.RecurringSeries) error
	Update(ctx context.Context, s *models.RecurringSeries) error
	Delete(ctx context.Context, userID, id int64) (bool, error)
}

type BillStore interface {
	GetByID(ctx context.Context, userID, id int64) (*models.Bill, error)
	List(ctx context.Context, userID int64, f models.BillFilter) ([]models.Bill, error)
	FindOpenNear(ctx context.Context, userID, seriesID int64, from, to string) (*models.Bill, error)
	ListPaidSince(ctx context.Context, userID int64, since string) ([]models.Bill, error)
	ListUpcoming(ctx context.Context, userID int64, until string) ([]models.Bill, error)
	Insert(ctx context.Context, b *models.Bill) error
	Update(ctx context.Context, b *models.Bill) error
}

type PaycheckStore interface {
	Insert(ctx context.Context, p *models.PaycheckHit) error
	SetTxRef(ctx context.Context, userID, id int64, txRef string) error
	ListSince(ctx context.Context, userID int64, since string) ([]models.PaycheckHit, error)
}

type TransactionStore interface {
	TransactionQuery
	GetByID(ctx context.Context, userID, id int64) (*models.LedgerTransaction, error)
	GetByExternalID(ctx context.Context, userID int64, externalID string) (*models.LedgerTransaction, error)
	FindByMatchedBill(ctx context.Context, userID, billID int64) (*models.LedgerTransaction, error)
	FindByMatchedPaycheck(ctx context.Context, userID, paycheckID int64) (*models.LedgerTransaction, error)
	Insert(ctx context.Context, t *models.LedgerTransaction) error
	SetMatchRefs(ctx context.Context, userID, txID int64, refs models.MatchRefs) error
}

// TransactionQuery is the read-only ledger handle forwarded to the external
// pattern-mining detector. The engine does not inspect what the detector
// does with it.
type TransactionQuery interface {
	ListSince(ctx context.Context, userID int64, since string) ([]models.LedgerTransaction, error)
}
