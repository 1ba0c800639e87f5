package sqlxrepos

import (
	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/keneanapp/kenean/core"
)

// psql builds queries with postgres $N placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// getExec picks the executor a service may have passed down (e.g. a *sqlx.Tx)
// over the repository's own connection pool. Non-sqlx executors fall back to
// the pool.
func getExec(db *sqlx.DB, svcExec []core.DBExecutor) sqlx.ExtContext {
	if len(svcExec) > 0 {
		if ext, ok := svcExec[0].(sqlx.ExtContext); ok {
			return ext
		}
	}
	return db
}
