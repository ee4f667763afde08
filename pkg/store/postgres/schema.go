package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/lexalign/concordance/internal"
	"github.com/oiime/logrusbun"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

var log = internal.GetLogger()

// jsonb containment needs at least this server version.
const minServerVersion = "9.4"

// DocumentSchema stores one JSON document of a named database.
type DocumentSchema struct {
	bun.BaseModel `bun:"table:document,alias:d"`

	DB        string         `bun:"db,pk"`
	ID        string         `bun:"id,pk"`
	Seq       int64          `bun:",autoincrement"` // insertion order
	CreatedAt time.Time      `bun:"type:timestamptz,notnull,default:current_timestamp"`
	Body      map[string]any `bun:"type:jsonb,notnull"`
}

var _ bun.AfterCreateTableHook = (*DocumentSchema)(nil)

func (*DocumentSchema) AfterCreateTable(
	ctx context.Context,
	query *bun.CreateTableQuery,
) error {
	_, err := query.DB().NewCreateIndex().
		Model((*DocumentSchema)(nil)).
		Index("document_body_idx").
		Using("GIN").
		Column("body").
		IfNotExists().
		Exec(ctx)
	return err
}

// NewPostgresConn opens a bun DB for dsn and waits until the server answers.
func NewPostgresConn(ctx context.Context, dsn string) (*bun.DB, error) {
	maxOpenConns := 4 * runtime.GOMAXPROCS(0)

	sqldb := sql.OpenDB(
		pgdriver.NewConnector(
			pgdriver.WithDSN(dsn),
			pgdriver.WithReadTimeout(30*time.Second),
		),
	)
	sqldb.SetMaxOpenConns(maxOpenConns)
	sqldb.SetMaxIdleConns(maxOpenConns)

	db := bun.NewDB(sqldb, pgdialect.New())
	SetUpDBLogging(db, log)

	connectRetryPolicy := retrypolicy.Builder[any]().
		WithBackoff(200*time.Millisecond, 5*time.Second).
		WithMaxRetries(5).
		Build()

	_, err := failsafe.Get(func() (any, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, db.PingContext(ctx)
	}, connectRetryPolicy)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return db, nil
}

// SetUpDBLogging logs queries at debug level and slow queries as warnings.
func SetUpDBLogging(db *bun.DB, log logrus.FieldLogger) {
	db.AddQueryHook(logrusbun.NewQueryHook(logrusbun.QueryHookOptions{
		LogSlow:         time.Second,
		Logger:          log,
		QueryLevel:      logrus.DebugLevel,
		ErrorLevel:      logrus.ErrorLevel,
		SlowLevel:       logrus.WarnLevel,
		MessageTemplate: "{{.Operation}}[{{.Duration}}]: {{.Query}}",
		ErrorTemplate:   "{{.Operation}}[{{.Duration}}]: {{.Query}}: {{.Error}}",
	}))
}

// CreateSchema creates the document table if it does not exist.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().
		Model((*DocumentSchema)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		// bun still trying to create indexes despite IfNotExists flag
		if strings.Contains(err.Error(), "already exists") {
			return nil
		}
		return fmt.Errorf("error creating document table: %w", err)
	}
	return nil
}

// checkServerVersion fails when the server is too old for jsonb.
func checkServerVersion(ctx context.Context, db *bun.DB) error {
	requiredVersion, err := semver.NewVersion(minServerVersion)
	if err != nil {
		return fmt.Errorf("error parsing required server version: %w", err)
	}

	var version string
	if err := db.NewSelect().ColumnExpr("current_setting('server_version')").Scan(ctx, &version); err != nil {
		return fmt.Errorf("error checking server version: %w", err)
	}

	thisVersion, err := parseServerVersion(version)
	if err != nil {
		return err
	}

	if requiredVersion.GreaterThan(thisVersion) {
		return fmt.Errorf("postgres %s is not supported, %s or later is required", thisVersion, requiredVersion)
	}
	log.Debugf("postgres server version %s", thisVersion)

	return nil
}

// parseServerVersion parses values such as "16.2 (Debian 16.2-1.pgdg120+2)".
func parseServerVersion(version string) (*semver.Version, error) {
	fields := strings.Fields(version)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty server version")
	}
	v, err := semver.NewVersion(fields[0])
	if err != nil {
		return nil, fmt.Errorf("error parsing server version %q: %w", version, err)
	}
	return v, nil
}
