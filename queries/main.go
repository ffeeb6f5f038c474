package queries

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/config"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// Repo is the postgres implementation of the Store
type Repo struct {
	Conn        *gorm.DB
	ConnReader  *gorm.DB
	Isolation   sql.IsolationLevel
	LockTimeout int64 // milliseconds, zero keeps the server setting
}

// Connect opens the writer and reader pools of the cluster
func Connect(cfg config.DatabaseClusterConfig) (*Repo, error) {
	isolation, err := ParseIsolation(cfg.Isolation)
	if err != nil {
		return nil, err
	}
	writer, err := open(cfg.Writer)
	if err != nil {
		return nil, errors.Wrap(err, "connect to database [WRITER]")
	}
	reader := writer
	if cfg.Reader.Host != "" {
		reader, err = open(cfg.Reader)
		if err != nil {
			return nil, errors.Wrap(err, "connect to database [READER]")
		}
	}
	return &Repo{
		Conn:        writer,
		ConnReader:  reader,
		Isolation:   isolation,
		LockTimeout: cfg.LockTimeout.Milliseconds(),
	}, nil
}

func open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s application_name=%s",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Name, cfg.SSLmode, cfg.ApplicationName)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	return db, nil
}

func ParseIsolation(level string) (sql.IsolationLevel, error) {
	switch level {
	case "", "read_committed":
		return sql.LevelReadCommitted, nil
	case "repeatable_read":
		return sql.LevelRepeatableRead, nil
	case "serializable":
		return sql.LevelSerializable, nil
	default:
		return sql.LevelDefault, fmt.Errorf("unsupported isolation level %q", level)
	}
}

// WithinTx runs fn inside a transaction using the configured isolation level
func (repo *Repo) WithinTx(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error {
	logger := log.With().Str("section", "queries").Str("method", "WithinTx").Logger()

	tx := repo.Conn.WithContext(ctx).Begin(&sql.TxOptions{Isolation: repo.Isolation})
	if tx.Error != nil {
		return classify(tx.Error)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if repo.LockTimeout > 0 {
		if err := tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", repo.LockTimeout)).Error; err != nil {
			tx.Rollback()
			return classify(err)
		}
	}

	if err := fn(ctx, &unitOfWork{tx: tx}); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logger.Warn().Err(rbErr).Msg("Unable to rollback transaction")
		}
		return err
	}
	if err := ctx.Err(); err != nil {
		tx.Rollback()
		return errors.Wrap(err, "unit of work aborted")
	}
	if err := tx.Commit().Error; err != nil {
		logger.Error().Err(err).Msg("Unable to commit transaction")
		return classify(err)
	}
	return nil
}

func (repo *Repo) Close() error {
	conns := []*gorm.DB{repo.Conn}
	if repo.ConnReader != nil && repo.ConnReader != repo.Conn {
		conns = append(conns, repo.ConnReader)
	}
	for _, conn := range conns {
		db, err := conn.DB()
		if err != nil {
			return err
		}
		if err := db.Close(); err != nil {
			return err
		}
	}
	return nil
}

type unitOfWork struct {
	tx *gorm.DB
}

// classify maps postgres failures onto the ledger error taxonomy
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23514":
			return model.NewExecutionError(model.ErrInvariantViolation, "constraint %s violated", pgErr.ConstraintName)
		case "40001", "40P01", "55P03":
			return errors.Wrap(ErrConflict, pgErr.Message)
		case "57014":
			return errors.Wrap(context.Canceled, pgErr.Message)
		}
	}
	return errors.Wrap(err, "store")
}
