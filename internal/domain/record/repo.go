package record

import "context"

// Repository loads and saves a facility's whole record table. The
// contract is deliberately coarse: every save overwrites the facility's
// entire table and the last full-table write wins. There is no merge and
// no lock; concurrent sessions editing the same facility race, and the
// later save silently discards the earlier one. Implementations must
// preserve this behavior, not fix it.
type Repository interface {
	Load(ctx context.Context, facilityID string) (*Table, error)
	Save(ctx context.Context, facilityID string, t *Table) error
	Facilities(ctx context.Context) ([]string, error)
}
