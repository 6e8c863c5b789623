// Package migrations holds the history database schema migrations, versioned
// by YYYYMMDDHHmmss timestamps.
package migrations

import (
	"github.com/jingkaihe/skillkit/pkg/db"
)

// All returns every registered migration. New migrations are appended here.
func All() []db.Migration {
	return []db.Migration{
		Migration20261018090000CreateRuns(),
		Migration20261018090100AddRunIndexes(),
	}
}
