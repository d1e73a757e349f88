package cache

import (
	"context"

	"partselect/parser/internal/domain"
)

// Result labels of the cache lookup counter.
const (
	resultHit   = "hit"
	resultMiss  = "miss"
	resultError = "error"
)

// RecordCache keeps recently assembled records keyed by part number.
// Records handed out are copies; callers may modify them freely.
type RecordCache interface {
	Get(ctx context.Context, partNumber string) (domain.PartRecord, bool, error)
	Set(ctx context.Context, partNumber string, record domain.PartRecord) error
}
