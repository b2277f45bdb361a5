// Package catalog reads local headings from the library catalog database.
package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // mysql driver
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/agentstation/authmatch/pkg/authority"
	"github.com/agentstation/authmatch/pkg/constants"
	"github.com/agentstation/authmatch/pkg/errors"
	"github.com/agentstation/authmatch/pkg/logging"
	"github.com/agentstation/authmatch/pkg/marc"
	"github.com/agentstation/authmatch/pkg/reconcile"
)

// Config selects the database.
type Config struct {
	Driver string // mysql, postgres or sqlite
	DSN    string
}

// driverName maps configured driver names to registered database/sql drivers.
func driverName(driver string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "mysql", "mariadb", "":
		return "mysql", nil
	case "postgres", "postgresql", "pgx":
		return "pgx", nil
	case "sqlite", "sqlite3":
		return "sqlite", nil
	}
	return "", errors.NewConfigError("database.driver",
		fmt.Sprintf("unsupported driver %q (want mysql, postgres or sqlite)", driver), nil)
}

// Catalog runs heading queries against the catalog database.
type Catalog struct {
	db     *sqlx.DB
	driver string
}

// Open connects to the catalog and pings it, so an unreachable database
// fails the run before anything else happens.
func Open(ctx context.Context, cfg Config) (*Catalog, error) {
	name, err := driverName(cfg.Driver)
	if err != nil {
		return nil, err
	}
	if cfg.DSN == "" {
		return nil, errors.NewConfigError("database.dsn", "is required", nil)
	}

	db, err := sqlx.Open(name, cfg.DSN)
	if err != nil {
		return nil, errors.NewConfigError("database.dsn", "cannot be parsed", err)
	}
	if name == "sqlite" {
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, constants.DatabasePingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, errors.NewConnectionError("database", name, err)
	}
	return New(db), nil
}

// New wraps an open database handle.
func New(db *sqlx.DB) *Catalog {
	return &Catalog{db: db, driver: db.DriverName()}
}

// Close closes the database handle.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Records runs query and converts each row into a LocalRecord in result
// order. Rows that cannot be converted are logged and skipped; a failing
// query is a connection error.
func (c *Catalog) Records(ctx context.Context, kind authority.Kind, query string, allow marc.AllowList) ([]reconcile.LocalRecord, error) {
	logger := logging.FromContext(ctx)
	start := time.Now()

	rows, err := c.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, errors.NewConnectionError("database", c.driver, err)
	}
	defer rows.Close()

	var records []reconcile.LocalRecord
	skipped := 0
	for rows.Next() {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return nil, errors.NewConnectionError("database", c.driver, err)
		}
		rec, err := toRecord(kind, row, allow)
		if err != nil {
			skipped++
			logger.Warn().Err(err).Msg("Skipping catalog row")
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewConnectionError("database", c.driver, err)
	}

	logger.Info().
		Int("records", len(records)).
		Int("skipped", skipped).
		Dur("elapsed", time.Since(start)).
		Msg("Catalog query finished")
	return records, nil
}

// toRecord converts one result row. LOC rows take their authority id from
// the heading's $0; OCLC rows from the oclc column.
func toRecord(kind authority.Kind, row map[string]any, allow marc.AllowList) (reconcile.LocalRecord, error) {
	bibID := column(row, "bib_id")
	if bibID == "" {
		return reconcile.LocalRecord{}, &errors.RecordError{Message: "row has no bib_id"}
	}

	rec := reconcile.LocalRecord{
		BibID:    bibID,
		Tag:      column(row, "tag"),
		Language: column(row, "language"),
		Location: column(row, "location"),
	}

	if ord := column(row, "ord"); ord != "" {
		n, err := strconv.Atoi(ord)
		if err != nil {
			return reconcile.LocalRecord{}, &errors.RecordError{BibID: bibID, Message: "ord is not an integer", Err: err}
		}
		rec.Ord = n
	}

	sf, err := marc.ParseHeading(column(row, "heading"), allow)
	rec.Subfields = sf
	if err != nil {
		rec.Problem = err
	}

	switch kind {
	case authority.KindLOC:
		rec.AuthorityID, _ = marc.AuthorityURI(sf)
	case authority.KindOCLC:
		rec.AuthorityID = column(row, "oclc")
	}
	return rec, nil
}

// column returns a column as a trimmed string. Missing and NULL columns
// yield "".
func column(row map[string]any, name string) string {
	v, ok := row[name]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case []byte:
		return strings.TrimSpace(string(t))
	case string:
		return strings.TrimSpace(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
