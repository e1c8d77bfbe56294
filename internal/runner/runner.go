package runner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/jackc/pgx/v5"
)

// Options customises how EXPLAIN is executed.
type Options struct {
	Timeout time.Duration
	// Analyze adds ANALYZE and BUFFERS, actually executing the query.
	Analyze bool
	Logger  log.Logger
}

// Run executes EXPLAIN for the provided SQL statement and returns the plan
// in the text format the parser consumes.
func Run(ctx context.Context, dsn, sqlStatement string, opts Options) (string, error) {
	if strings.TrimSpace(dsn) == "" {
		return "", fmt.Errorf("runner: empty DSN")
	}
	query := strings.TrimSpace(sqlStatement)
	if query == "" {
		return "", fmt.Errorf("runner: empty sql statement")
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}

	explainSQL := explainStatement(query, opts.Analyze)

	var cancel context.CancelFunc
	if opts.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	_ = level.Debug(logger).Log("msg", "connecting", "analyze", opts.Analyze)
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return "", fmt.Errorf("runner: connect: %w", err)
	}
	defer conn.Close(ctx)

	started := time.Now()
	rows, err := conn.Query(ctx, explainSQL)
	if err != nil {
		return "", fmt.Errorf("runner: query: %w", err)
	}
	defer rows.Close()

	// Text-format EXPLAIN returns one row per output line.
	var lines []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return "", fmt.Errorf("runner: scan: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("runner: read rows: %w", err)
	}
	_ = level.Debug(logger).Log("msg", "explain finished", "lines", len(lines), "took", time.Since(started))

	return strings.Join(lines, "\n"), nil
}

func explainStatement(query string, analyze bool) string {
	query = strings.TrimSuffix(strings.TrimSpace(query), ";")
	if analyze {
		return "EXPLAIN (ANALYZE, BUFFERS) " + query
	}
	return "EXPLAIN " + query
}
