package repositories

import (
	"context"
	"errors"
	"strings"

	"github.com/anonto42/snapfeed/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrCredentialNotFound is returned when no account matches the lookup
	ErrCredentialNotFound = errors.New("credential not found")
	// ErrEmailTaken is returned when an account already uses the email
	ErrEmailTaken = errors.New("email already registered")
)

// CredentialRepository defines the interface for password account operations
type CredentialRepository interface {
	CreateCredential(ctx context.Context, cred *models.Credential) error
	GetCredentialByEmail(ctx context.Context, email string) (*models.Credential, error)
	GetCredentialByUID(ctx context.Context, uid string) (*models.Credential, error)
}

// PostgresCredentialRepository implements CredentialRepository for PostgreSQL
type PostgresCredentialRepository struct {
	db *gorm.DB
}

// NewPostgresCredentialRepository creates a new PostgresCredentialRepository
func NewPostgresCredentialRepository(db *gorm.DB) *PostgresCredentialRepository {
	return &PostgresCredentialRepository{db: db}
}

// CreateCredential stores a new account; emails are unique
func (r *PostgresCredentialRepository) CreateCredential(ctx context.Context, cred *models.Credential) error {
	cred.Email = NormalizeEmail(cred.Email)
	err := r.db.WithContext(ctx).Create(cred).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrEmailTaken
	}
	return err
}

// GetCredentialByEmail retrieves an account by email
func (r *PostgresCredentialRepository) GetCredentialByEmail(ctx context.Context, email string) (*models.Credential, error) {
	var cred models.Credential
	if err := r.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&cred).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCredentialNotFound
		}
		return nil, err
	}
	return &cred, nil
}

// GetCredentialByUID retrieves an account by its auth uid
func (r *PostgresCredentialRepository) GetCredentialByUID(ctx context.Context, uid string) (*models.Credential, error) {
	var cred models.Credential
	if err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&cred).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCredentialNotFound
		}
		return nil, err
	}
	return &cred, nil
}

// NormalizeEmail lower-cases and trims an email for lookups
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
