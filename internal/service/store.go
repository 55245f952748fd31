package service

import (
    "context"
    "database/sql"

    "github.com/iliyamo/festival-booking/internal/repository"
)

// sqlAdmissionStore adapts the MySQL repositories to AdmissionStore.
type sqlAdmissionStore struct {
    *repository.AdmissionStore
}

// NewSQLAdmissionStore returns the MySQL backed AdmissionStore.
func NewSQLAdmissionStore(db *sql.DB) AdmissionStore {
    return sqlAdmissionStore{repository.NewAdmissionStore(db)}
}

func (s sqlAdmissionStore) Begin(ctx context.Context) (AdmissionTx, error) {
    tx, err := s.AdmissionStore.Begin(ctx)
    if err != nil {
        return nil, err
    }
    return tx, nil
}
