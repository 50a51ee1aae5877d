package repository

import "gorm.io/gorm"

// Store bundles the repositories and the transaction runner behind one handle.
// It is built once at startup and injected wherever storage is needed.
type Store struct {
	*Transactor
	*ProfileRepository
	*LikeRepository
}

// NewStore wires every repository to the same connection.
func NewStore(database *gorm.DB) *Store {
	return &Store{
		Transactor:        NewTransactor(database),
		ProfileRepository: NewProfileRepository(database),
		LikeRepository:    NewLikeRepository(database),
	}
}
