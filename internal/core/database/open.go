package database

import (
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/household-ledger/internal"
	activityDatamodel "github.com/frahmantamala/household-ledger/internal/core/datamodel/activity"
	balanceDatamodel "github.com/frahmantamala/household-ledger/internal/core/datamodel/balance"
	categoryDatamodel "github.com/frahmantamala/household-ledger/internal/core/datamodel/category"
	expenseDatamodel "github.com/frahmantamala/household-ledger/internal/core/datamodel/expense"
	householdDatamodel "github.com/frahmantamala/household-ledger/internal/core/datamodel/household"
	paymentDatamodel "github.com/frahmantamala/household-ledger/internal/core/datamodel/payment"
	userDatamodel "github.com/frahmantamala/household-ledger/internal/core/datamodel/user"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DB pairs the gorm handle used by repositories with the sqlx handle used by
// read models. Both share one *sql.DB pool.
type DB struct {
	Gorm *gorm.DB
	SQL  *sqlx.DB
}

func (d *DB) Close() error {
	return d.SQL.Close()
}

// Open connects to the configured database.
func Open(cfg internal.DatabaseConfig) (*DB, error) {
	switch cfg.Driver {
	case DriverSQLite:
		return openSQLite(cfg.Source)
	case DriverPostgres, "":
		return openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func openPostgres(cfg internal.DatabaseConfig) (*DB, error) {
	sqlDB, err := sqlx.Connect("pgx", cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB.DB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}

	return &DB{Gorm: gormDB, SQL: sqlDB}, nil
}

// openSQLite pins the pool to one connection so that ":memory:" databases keep
// their tables and writers never see SQLITE_BUSY.
func openSQLite(dsn string) (*DB, error) {
	sqlDB, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	gormDB, err := gorm.Open(sqlite.New(sqlite.Config{Conn: sqlDB.DB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}

	return &DB{Gorm: gormDB, SQL: sqlDB}, nil
}

// OpenSQLiteSchema opens a SQLite database and creates every table from the
// datamodels. Postgres schemas are managed by goose migrations instead.
func OpenSQLiteSchema(dsn string) (*DB, error) {
	db, err := openSQLite(dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Gorm.AutoMigrate(Models()...); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate sqlite schema: %w", err)
	}
	return db, nil
}

func Models() []interface{} {
	return []interface{}{
		&userDatamodel.User{},
		&householdDatamodel.Household{},
		&householdDatamodel.Member{},
		&balanceDatamodel.Balance{},
		&categoryDatamodel.ExpenseCategory{},
		&expenseDatamodel.Expense{},
		&expenseDatamodel.Share{},
		&expenseDatamodel.Approval{},
		&paymentDatamodel.Payment{},
		&activityDatamodel.Entry{},
	}
}
