package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/modelfabric/operator/internal/ferrors"
	corev1alpha1 "github.com/modelfabric/operator/pkg/apis/core/v1alpha1"
)

// DriverOpener opens a *sql.DB for a DSN. The concrete SQL driver
// registration (postgres, mysql, ...) is a composition-root concern named
// but not owned by this package — the system's own boundary places
// backend-specific client libraries outside the core, so the core only
// depends on database/sql plus this narrow seam.
type DriverOpener func(driverName, dsn string) (*sql.DB, error)

// DSNResolver reads the DSN named by a SecretReference from the
// orchestrator's native secret store.
type DSNResolver interface {
	ResolveDSN(ctx context.Context, namespace string, ref corev1alpha1.SecretReference) (string, error)
}

// DatabaseAdapter binds models to relational tables, one *sql.DB pool per
// distinct (driver, dsn) pair.
type DatabaseAdapter struct {
	open      DriverOpener
	dsns      DSNResolver
	namespace string

	mu    sync.Mutex
	pools map[string]*sql.DB
}

func NewDatabaseAdapter(open DriverOpener, dsns DSNResolver, namespace string) *DatabaseAdapter {
	return &DatabaseAdapter{open: open, dsns: dsns, namespace: namespace, pools: make(map[string]*sql.DB)}
}

func (a *DatabaseAdapter) pool(ctx context.Context, cfg *corev1alpha1.DatabaseStorageConfig) (*sql.DB, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := cfg.Driver + "|" + cfg.CredentialsSecretRef.Name
	if db, ok := a.pools[key]; ok {
		return db, nil
	}

	dsn, err := a.dsns.ResolveDSN(ctx, a.namespace, cfg.CredentialsSecretRef)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.Unauthorized, err, "resolve DSN for %s", cfg.CredentialsSecretRef.Name)
	}

	db, err := a.open(cfg.Driver, dsn)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.Permanent, err, "open database connection for driver %s", cfg.Driver)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(int(cfg.MaxOpenConns))
	}

	a.pools[key] = db
	return db, nil
}

// modelColumns maps a model's native field schema to SQL column
// declarations. Only top-level fields are materialized as columns; Array
// and Object fields are stored as their JSON-serialized form under a TEXT
// column, since there is no portable SQL aggregate type across drivers.
func modelColumns(model corev1alpha1.ModelSpec) (map[string]string, error) {
	if model.Schema.IsNativeRef() {
		return nil, ferrors.New(ferrors.Conflict, "Database storages require an explicit field schema, not a native-CRD reference")
	}
	cols := make(map[string]string, len(model.Schema.Fields))
	for _, f := range model.Schema.Fields {
		cols[f.Name] = sqlColumnType(f.Type)
	}
	return cols, nil
}

func sqlColumnType(t corev1alpha1.FieldType) string {
	switch t {
	case corev1alpha1.FieldTypeString:
		return "TEXT"
	case corev1alpha1.FieldTypeInt:
		return "BIGINT"
	case corev1alpha1.FieldTypeFloat:
		return "DOUBLE PRECISION"
	case corev1alpha1.FieldTypeBool:
		return "BOOLEAN"
	case corev1alpha1.FieldTypeBytes:
		return "BYTEA"
	case corev1alpha1.FieldTypeTimestamp:
		return "TIMESTAMP"
	default:
		// Array and Object fields are flattened to their JSON text form.
		return "TEXT"
	}
}

func (a *DatabaseAdapter) Bind(ctx context.Context, req BindRequest) error {
	if req.Target.Database == nil {
		return ferrors.New(ferrors.Conflict, "target storage %q is not a Database storage", req.StorageName)
	}
	if req.Source != nil {
		return ferrors.New(ferrors.Conflict, "Database storages do not support a replication source")
	}

	db, err := a.pool(ctx, req.Target.Database)
	if err != nil {
		return err
	}

	wantCols, err := modelColumns(req.Model)
	if err != nil {
		return err
	}
	table := tableName(req.ModelName)

	existing, err := existingColumns(ctx, db, req.Target.Database.Database, table)
	if err != nil {
		return classifySQLErr(err).WithTarget(req.StorageName)
	}

	if len(existing) == 0 {
		if err := createTable(ctx, db, table, wantCols); err != nil {
			return classifySQLErr(err).WithTarget(req.StorageName)
		}
		return nil
	}

	return addMissingColumns(ctx, db, table, existing, wantCols, req.StorageName)
}

// tableName derives the backing table for a bound model; one table per
// model, so a single Database storage can hold several models.
func tableName(modelName string) string {
	return "model_" + strings.ReplaceAll(modelName, "-", "_")
}

func existingColumns(ctx context.Context, db *sql.DB, database, table string) (map[string]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT column_name, data_type FROM information_schema.columns WHERE table_name = $1`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]string)
	for rows.Next() {
		var name, dtype string
		if err := rows.Scan(&name, &dtype); err != nil {
			return nil, err
		}
		cols[name] = dtype
	}
	return cols, rows.Err()
}

func createTable(ctx context.Context, db *sql.DB, table string, cols map[string]string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (id TEXT PRIMARY KEY", table)
	for name, sqlType := range cols {
		fmt.Fprintf(&b, ", %s %s", name, sqlType)
	}
	b.WriteString(")")
	_, err := db.ExecContext(ctx, b.String())
	return err
}

// addMissingColumns performs the additive-only migration the contract
// requires: new fields get ALTER TABLE ADD COLUMN; a field whose type
// changed incompatibly is reported as a Conflict instead of being altered.
func addMissingColumns(ctx context.Context, db *sql.DB, table string, existing, want map[string]string, storageName string) error {
	for name, sqlType := range want {
		existingType, present := existing[name]
		if !present {
			stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, name, sqlType)
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return classifySQLErr(err).WithTarget(storageName)
			}
			continue
		}
		if !compatibleColumnType(existingType, sqlType) {
			return ferrors.New(ferrors.Conflict, "column %q of table %s has incompatible type %s (want %s)", name, table, existingType, sqlType).WithTarget(storageName)
		}
	}
	return nil
}

// compatibleColumnType compares a SQL driver's reported data_type against
// the type this adapter would have created, tolerant of driver-specific
// spelling (e.g. postgres reports "double precision" in lowercase).
func compatibleColumnType(reported, want string) bool {
	return strings.EqualFold(strings.TrimSpace(reported), strings.TrimSpace(want))
}

func (a *DatabaseAdapter) Unbind(ctx context.Context, req UnbindRequest) error {
	if req.Target.Database == nil {
		return ferrors.New(ferrors.Conflict, "target storage %q is not a Database storage", req.StorageName)
	}
	if req.DeletionPolicy != DeletionPolicyDelete {
		return nil
	}

	db, err := a.pool(ctx, req.Target.Database)
	if err != nil {
		return err
	}
	table := tableName(req.ModelName)
	if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
		return classifySQLErr(err).WithTarget(req.StorageName)
	}
	return nil
}

func (a *DatabaseAdapter) Get(ctx context.Context, name string, storage corev1alpha1.ModelStorageSpec, key Key) (Record, error) {
	if storage.Database == nil {
		return Record{}, ferrors.New(ferrors.Conflict, "storage is not a Database storage")
	}
	db, err := a.pool(ctx, storage.Database)
	if err != nil {
		return Record{}, err
	}

	table := tableName(name)
	rows, err := db.QueryContext(ctx, "SELECT * FROM "+table+" WHERE id = $1", key.Value)
	if err != nil {
		return Record{}, classifySQLErr(err)
	}
	defer rows.Close()

	record, ok, err := scanOneRow(rows, key)
	if err != nil {
		return Record{}, classifySQLErr(err)
	}
	if !ok {
		return Record{}, ferrors.New(ferrors.NotFound, "record %q not found in %s", key.Value, table)
	}
	return record, nil
}

func (a *DatabaseAdapter) List(ctx context.Context, name string, storage corev1alpha1.ModelStorageSpec) ([]Record, error) {
	if storage.Database == nil {
		return nil, ferrors.New(ferrors.Conflict, "storage is not a Database storage")
	}
	db, err := a.pool(ctx, storage.Database)
	if err != nil {
		return nil, err
	}

	table := tableName(name)
	rows, err := db.QueryContext(ctx, "SELECT * FROM "+table)
	if err != nil {
		return nil, classifySQLErr(err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		columns, err := rows.Columns()
		if err != nil {
			return nil, classifySQLErr(err)
		}
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, classifySQLErr(err)
		}

		fields := make(map[string]any, len(columns))
		var id string
		for i, col := range columns {
			fields[col] = values[i]
			if col == "id" {
				if s, ok := values[i].(string); ok {
					id = s
				}
			}
		}
		records = append(records, Record{Key: Key{Value: id}, Fields: fields})
	}
	return records, rows.Err()
}

func scanOneRow(rows *sql.Rows, key Key) (Record, bool, error) {
	if !rows.Next() {
		return Record{}, false, rows.Err()
	}
	columns, err := rows.Columns()
	if err != nil {
		return Record{}, false, err
	}
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return Record{}, false, err
	}
	fields := make(map[string]any, len(columns))
	for i, col := range columns {
		fields[col] = values[i]
	}
	return Record{Key: key, Fields: fields}, true, nil
}

// Capacity queries the database engine's own size accounting. The query
// below is PostgreSQL's pg_database_size; a driver-specific accounting
// function is expected for other engines, another reason the concrete
// driver is injected rather than hardcoded.
func (a *DatabaseAdapter) Capacity(ctx context.Context, storageName string, storage corev1alpha1.ModelStorageSpec) (Capacity, error) {
	if storage.Database == nil {
		return Capacity{}, ferrors.New(ferrors.Conflict, "storage is not a Database storage")
	}
	db, err := a.pool(ctx, storage.Database)
	if err != nil {
		return Capacity{}, err
	}

	var usedBytes int64
	row := db.QueryRowContext(ctx, "SELECT pg_database_size($1)", storage.Database.Database)
	if err := row.Scan(&usedBytes); err != nil {
		return Capacity{Ok: false}, nil
	}
	return Capacity{UsedBytes: usedBytes, Ok: true}, nil
}

func classifySQLErr(err error) *ferrors.Error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "permission denied"), strings.Contains(msg, "authentication"):
		return ferrors.Wrap(ferrors.Unauthorized, err, "database credentials rejected")
	case strings.Contains(msg, "already exists"), strings.Contains(msg, "duplicate"):
		return ferrors.Wrap(ferrors.Conflict, err, "database schema conflict")
	case strings.Contains(msg, "connection"), strings.Contains(msg, "timeout"), strings.Contains(msg, "eof"):
		return ferrors.Wrap(ferrors.Transient, err, "database connection failure")
	}
	return ferrors.Wrap(ferrors.Permanent, err, "database operation failed")
}
