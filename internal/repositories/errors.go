// Package repositories implements MySQL data access for the API server
package repositories

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/learnportal/backend/internal/apperrors"
)

const mysqlDuplicateEntry = 1062

// isDuplicateEntry reports whether err is a unique key violation
func isDuplicateEntry(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

func notFound(format string, args ...any) error {
	return apperrors.Clone(apperrors.ErrNotFound, fmt.Sprintf(format, args...))
}
