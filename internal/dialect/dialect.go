// Package dialect routes raw explainer output to the parser for the
// database engine that produced it.
package dialect

import (
	"errors"
	"fmt"
	"strings"

	"github.com/plantell/plantell/internal/model"
	"github.com/plantell/plantell/internal/parser"
)

// Kind identifies the database dialect an explain text came from.
type Kind string

const (
	PostgreSQL Kind = "postgresql"
	MySQL      Kind = "mysql"
	Unknown    Kind = "unknown"
)

// ErrMySQLNotSupported is returned until the MySQL text parser lands.
var ErrMySQLNotSupported = errors.New("mysql explain parsing is not supported yet")

var postgresSignatures = []string{"->", "cost=", "Planning Time:"}
var mysqlSignatures = []string{"table:", "possible_keys:"}

// Detect inspects the raw text for dialect-signature substrings.
func Detect(text string) Kind {
	for _, sig := range postgresSignatures {
		if strings.Contains(text, sig) {
			return PostgreSQL
		}
	}
	for _, sig := range mysqlSignatures {
		if strings.Contains(text, sig) {
			return MySQL
		}
	}
	return Unknown
}

// Parse detects the dialect and runs the matching parser.
func Parse(text string) (*model.Plan, error) {
	switch kind := Detect(text); kind {
	case PostgreSQL:
		return parser.Parse(text)
	case MySQL:
		return parseMySQL(text)
	default:
		return nil, fmt.Errorf("unrecognized explain dialect")
	}
}

// parseMySQL is a stub: the vertical "table: / possible_keys:" format is
// recognized but not yet parsed into a tree.
func parseMySQL(string) (*model.Plan, error) {
	return nil, ErrMySQLNotSupported
}
