package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"github.com/lindembergz/123Vendas-sub000/internal/domain"
)

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrDuplicateOrderNumber = errors.New("order number already taken for branch")
	ErrRequestNotFound      = errors.New("processed request not found")
	ErrDuplicateRequest     = errors.New("request id already recorded")
	ErrSequenceNotFound     = errors.New("branch sequence not found")
	ErrSequenceConflict     = errors.New("branch sequence modified concurrently")
)

// uniqueViolation is the postgres error code for unique-constraint failures.
const uniqueViolation = "23505"

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order, events []domain.Event, req *ProcessedRequest) error
	UpdateOrder(ctx context.Context, order *domain.Order, events []domain.Event, req *ProcessedRequest) error
	GetOrderByID(ctx context.Context, id string) (*domain.Order, error)

	GetProcessedRequest(ctx context.Context, requestID string) (*ProcessedRequest, error)

	GetSequence(ctx context.Context, branchID string) (*BranchSequence, error)
	InsertSequence(ctx context.Context, branchID string, number int64) error
	UpdateSequence(ctx context.Context, branchID string, number, expectedVersion int64) error

	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventProcessed(ctx context.Context, id int64) error
	MarkEventFailed(ctx context.Context, id int64, reason string) error

	RunMigrations(*Credentials) error
	Close() error
}

type Repository struct {
	db *sql.DB
}

func NewRepository(cred *Credentials) (*Repository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "orders_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
