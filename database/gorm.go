package database

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/avaliaedu/portal/config"
	"github.com/avaliaedu/portal/model"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage defines the interface the rest of the application depends on.
// The composition root owns the lifecycle (open at startup, close at shutdown).
type Storage interface {
	Init() error
	Close() error
	HealthCheck() error

	// GetDB returns the underlying *gorm.DB
	GetDB() interface{}
}

type GORMStore struct {
	db *gorm.DB
}

// StartGORM initializes a GORM connection to PostgreSQL
func StartGORM() (*GORMStore, error) {
	getEnv, err := config.Get()
	if err != nil {
		return nil, err
	}

	// Build DSN (Data Source Name)
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		getEnv.DB_HOST,
		getEnv.DB_USER_NAME,
		getEnv.DB_PASSWORD,
		getEnv.DB_NAME,
		getEnv.DB_PORT,
		getEnv.DB_SSL_MODE,
	)

	// Configure GORM logger
	gormLogger := logger.Default.LogMode(logger.Info)
	if getEnv.GO_ENV == "production" {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: false,
		PrepareStmt:            true,
		TranslateError:         true, // surface duplicate keys as gorm.ErrDuplicatedKey
	})
	if err != nil {
		log.Println("Unable to connect to PostgreSQL with GORM:", err)
		return nil, err
	}

	// Get underlying *sql.DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// Connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("Successfully connected to PostgreSQL Database with GORM.")

	return &GORMStore{db: db}, nil
}

// Init runs AutoMigrate and creates the case-insensitive uniqueness indexes
// the directory resolution depends on.
func (s *GORMStore) Init() error {
	log.Println("Running GORM AutoMigrate for all models...")

	err := s.db.AutoMigrate(
		// Directory models
		&model.Institution{},
		&model.Course{},

		// User-related models
		&model.User{},
		&model.UnlockRequest{},

		// Evaluation models
		&model.Evaluation{},
		&model.EvaluationAnswer{},

		// Audit & logging models
		&model.AutoCreatedEntity{},
		&model.AdminAuditLog{},
		&model.CronJobLog{},
	)
	if err != nil {
		log.Println("Error running AutoMigrate:", err)
		return err
	}

	if err := EnsureNameIndexes(s.db); err != nil {
		log.Println("Error creating uniqueness indexes:", err)
		return err
	}

	log.Println("GORM AutoMigrate completed successfully!")
	return nil
}

// EnsureNameIndexes creates the expression indexes that enforce one active
// directory row per normalized name. AutoMigrate cannot express LOWER()
// indexes, so they are created with raw DDL.
func EnsureNameIndexes(db *gorm.DB) error {
	stmts := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_instituicoes_nome_ci ON "Instituicoes" (LOWER(nome))`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_cursos_nome_ci ON "Cursos" (LOWER(nome), instituicao_id)`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// IsUniqueViolation reports whether err is a duplicate-key error. GORM's
// TranslateError covers both dialects; the pgconn check catches errors that
// bypass GORM's translation (e.g. raw Exec against expression indexes).
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return false
}

// Close closes the database connection
func (s *GORMStore) Close() error {
	log.Println("Closing GORM PostgreSQL connection...")
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetDB returns the GORM DB instance for use in services/handlers
func (s *GORMStore) GetDB() interface{} {
	return s.db
}

// HealthCheck verifies the database connection is alive
func (s *GORMStore) HealthCheck() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
