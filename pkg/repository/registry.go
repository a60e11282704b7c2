// Package repository provides data access layer abstractions and registry
package repository

import (
	"sync"

	"gorm.io/gorm"
)

// Registry provides centralized access to all repositories
type Registry struct {
	PresenceRepository PresenceRepository
	CallRepository     CallRepository
	MessageRepository  MessageRepository

	// Database connection
	db *gorm.DB

	// Sync
	mu sync.RWMutex
}

// NewRegistry creates a new repository registry
func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{
		db: db,
	}
}

// Initialize migrates schemas and constructs all repositories
func (r *Registry) Initialize() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.AutoMigrate(&PresenceRecord{}, &CallRecord{}, &MessageRecord{}); err != nil {
		return err
	}

	r.PresenceRepository = NewPresenceRepository(r.db)
	r.CallRepository = NewCallRepository(r.db)
	r.MessageRepository = NewMessageRepository(r.db)

	return nil
}

// GetDB returns the database connection
func (r *Registry) GetDB() *gorm.DB {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.db
}
