package data

import (
	"database/sql"
	"time"

	pg "github.com/code-payments/presale-server/pkg/database/postgres"
)

const (
	// Matches the default signature max age, so replays are caught for as
	// long as a signed request would otherwise be accepted
	defaultSignatureRetention = 2 * time.Minute
)

type Provider interface {
	DatabaseData
	EstimatedData

	GetDatabaseDataProvider() DatabaseData
	GetEstimatedDataProvider() EstimatedData
}

type provider struct {
	*DatabaseProvider
	*EstimatedProvider
}

func NewDataProvider(dbConfig *pg.Config, signatureRetention time.Duration) (Provider, error) {
	db, err := NewDatabaseProvider(dbConfig)
	if err != nil {
		return nil, err
	}

	return newProvider(db, signatureRetention)
}

// NewDataProviderFromDB is NewDataProvider over an already opened connection
// pool
func NewDataProviderFromDB(db *sql.DB, signatureRetention time.Duration) (Provider, error) {
	return newProvider(NewDatabaseProviderFromDB(db), signatureRetention)
}

func NewTestDataProvider() Provider {
	p, err := newProvider(NewTestDatabaseProvider(), defaultSignatureRetention)
	if err != nil {
		panic(err)
	}
	return p
}

func newProvider(db DatabaseData, signatureRetention time.Duration) (Provider, error) {
	if signatureRetention <= 0 {
		signatureRetention = defaultSignatureRetention
	}

	estimated, err := NewEstimatedProvider(signatureRetention)
	if err != nil {
		return nil, err
	}

	return &provider{
		DatabaseProvider:  db.(*DatabaseProvider),
		EstimatedProvider: estimated.(*EstimatedProvider),
	}, nil
}

func (p *provider) GetDatabaseDataProvider() DatabaseData {
	return p.DatabaseProvider
}
func (p *provider) GetEstimatedDataProvider() EstimatedData {
	return p.EstimatedProvider
}
