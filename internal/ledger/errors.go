package ledger

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"fjacquet/txledger/internal/ingesterror"
)

// ErrSuggestionClosed is returned when accepting or rejecting a suggestion
// that was already resolved or superseded by a newer run.
var ErrSuggestionClosed = errors.New("suggestion already resolved or superseded")

const mysqlDuplicateEntry = 1062

// uniqueViolation reports whether err is a uniqueness violation and, when it
// is, the message naming the violated constraint.
func uniqueViolation(err error) (string, bool) {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return myErr.Message, true
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return liteErr.Error(), true
		}
		if code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), "UNIQUE") {
			return liteErr.Error(), true
		}
	}
	return "", false
}

// translateInsertError maps a failed transaction insert to the engine's error
// taxonomy: uniqueness violations become DuplicateError, anything else a
// PersistenceError.
func translateInsertError(op string, err error) error {
	if msg, ok := uniqueViolation(err); ok {
		key := ingesterror.KeyCanonicalHash
		if strings.Contains(msg, "external_id") {
			key = ingesterror.KeyExternalID
		}
		return &ingesterror.DuplicateError{Key: key, Err: err}
	}
	return &ingesterror.PersistenceError{Op: op, Err: err}
}
