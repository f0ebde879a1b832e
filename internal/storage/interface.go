package storage

import (
	"context"

	"github.com/julianstephens/fitbot/internal/models"
)

// Provider is the durable store for users and their weight history. Every
// method is atomic with respect to every other; backends serialise writers.
// Missing users surface as errors.ErrNotFound, I/O failures as
// *errors.StoreError.
type Provider interface {
	// Lifecycle
	Init(ctx context.Context) error // open and EnsureSchema
	Load(ctx context.Context) error // open and validate the schema version only
	Close() error
	Ping(ctx context.Context) error

	// EnsureSchema creates or upgrades the schema. Safe on every start.
	EnsureSchema(ctx context.Context) error
	// SchemaVersion returns the applied and the newest known version.
	SchemaVersion(ctx context.Context) (current, latest int, err error)

	// Users
	UpsertUser(ctx context.Context, id int64, firstName string, lastName, username *string) (created bool, err error)
	GetUser(ctx context.Context, id int64) (models.User, error)
	SetUserWeight(ctx context.Context, id int64, weight float64) error
	DeleteUser(ctx context.Context, id int64) error
	ListUsers(ctx context.Context) ([]models.User, error)
	ListAllUsersWithWeight(ctx context.Context) ([]models.UserWeight, error)

	// Weight history
	AppendWeightEntry(ctx context.Context, entry models.WeightEntry) error
	// AppendSnapshot copies the user's current weight into a snapshot entry
	// dated date. It writes nothing and returns false when the user is gone
	// or has no weight.
	AppendSnapshot(ctx context.Context, userID int64, date string) (written bool, err error)
	// RecordWeight appends a history row and sets the user's current weight
	// in one transaction.
	RecordWeight(ctx context.Context, userID int64, date string, weight float64) error
	ListWeightHistory(ctx context.Context, userID int64) ([]models.WeightEntry, error)

	// Utils
	GetConfigPath() string
}
