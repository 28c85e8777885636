// Package store wraps the gorm handle behind the small set of queries the
// services need. Every multi-field mutation is a single statement or a
// transaction.
package store

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

type Store struct {
	Users   Users
	Reports Reports
}

func New(db *gorm.DB) *Store {
	return &Store{
		Users:   NewUsers(db),
		Reports: NewReports(db),
	}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}
