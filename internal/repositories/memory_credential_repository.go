package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/anonto42/snapfeed/internal/models"
)

// MemoryCredentialRepository keeps accounts in memory, for local runs without PostgreSQL
type MemoryCredentialRepository struct {
	mu      sync.RWMutex
	byEmail map[string]models.Credential
	nextID  uint
}

// NewMemoryCredentialRepository creates an empty MemoryCredentialRepository
func NewMemoryCredentialRepository() *MemoryCredentialRepository {
	return &MemoryCredentialRepository{byEmail: make(map[string]models.Credential)}
}

func (r *MemoryCredentialRepository) CreateCredential(_ context.Context, cred *models.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cred.Email = NormalizeEmail(cred.Email)
	if _, ok := r.byEmail[cred.Email]; ok {
		return ErrEmailTaken
	}
	r.nextID++
	cred.ID = r.nextID
	cred.CreatedAt = time.Now()
	cred.UpdatedAt = cred.CreatedAt
	r.byEmail[cred.Email] = *cred
	return nil
}

func (r *MemoryCredentialRepository) GetCredentialByEmail(_ context.Context, email string) (*models.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cred, ok := r.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, ErrCredentialNotFound
	}
	return &cred, nil
}

func (r *MemoryCredentialRepository) GetCredentialByUID(_ context.Context, uid string) (*models.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, cred := range r.byEmail {
		if cred.UID == uid {
			c := cred
			return &c, nil
		}
	}
	return nil, ErrCredentialNotFound
}
