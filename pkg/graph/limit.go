package graph

import (
	"github.com/athapong/graph-bridge/pkg/table"
	"github.com/pkg/errors"
)

// Limit keeps the first maxRecords rows of t. The Truncation is non-nil only when
// rows were dropped.
func Limit(t *table.Table, maxRecords int) (*table.Table, *Truncation, error) {
	if maxRecords < 0 {
		return nil, nil, configErr(errors.Wrapf(ErrInvalidLimit, "%d", maxRecords))
	}
	if t.Len() <= maxRecords {
		return t, nil, nil
	}
	return t.Head(maxRecords), &Truncation{From: t.Len(), To: maxRecords}, nil
}
