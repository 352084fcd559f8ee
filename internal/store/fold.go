package store

import (
	"database/sql/driver"
	"fmt"

	"golang.org/x/text/cases"
	"modernc.org/sqlite"
)

// FoldFunc is the SQL function that case folds text with Unicode rules. SQLite's LIKE only folds ASCII.
const FoldFunc = "trivia_fold"

// Registered functions reach every connection opened afterwards.
func init() {
	sqlite.MustRegisterDeterministicScalarFunction(FoldFunc, 1, foldValue)
}

// Fold case folds s the way FoldFunc does. "ÉTÉ" and "été" fold to the same string.
func Fold(s string) string {
	// A Caser keeps state, so each call gets its own.
	return cases.Fold().String(s)
}

func foldValue(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil //nolint:nilnil // SQL NULL folds to NULL.
	case string:
		return Fold(v), nil
	case []byte:
		return Fold(string(v)), nil
	default:
		return nil, fmt.Errorf("%s: unsupported argument type %T", FoldFunc, v)
	}
}
