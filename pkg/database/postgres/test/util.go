package test

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib" //nolint:revive
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/presale-server/pkg/retry"
	"github.com/code-payments/presale-server/pkg/retry/backoff"
)

const (
	image        = "postgres"
	imageTag     = "15-alpine"
	containerTTL = 120 * time.Second

	port     = 5432
	user     = "localtest"
	password = "localpassword"
	dbname   = "testdb"
)

// StartPostgresDB runs a throwaway postgres container and returns a client
// connected to it. closeFunc removes the container; it is safe to call when
// err is non-nil.
func StartPostgresDB(pool *dockertest.Pool) (db *sql.DB, closeFunc func(), err error) {
	closeFunc = func() {}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: image,
		Tag:        imageTag,
		Env: []string{
			"POSTGRES_USER=" + user,
			"POSTGRES_PASSWORD=" + password,
			"POSTGRES_DB=" + dbname,
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, closeFunc, errors.Wrap(err, "failed to start postgres container")
	}

	closeFunc = func() {
		if err := pool.Purge(resource); err != nil {
			logrus.StandardLogger().WithError(err).Warn("failure purging postgres container")
		}
	}

	// Expire never returns an error, and guarantees cleanup if the test
	// binary dies before closeFunc runs
	_ = resource.Expire(uint(containerTTL.Seconds()))

	url := fmt.Sprintf(
		"postgres://%s:%s@%s/%s?sslmode=disable",
		user,
		password,
		resource.GetHostPort(fmt.Sprintf("%d/tcp", port)),
		dbname,
	)

	_, err = retry.Retry(
		func() error {
			db, err = sql.Open("pgx", url)
			if err != nil {
				return err
			}
			return db.Ping()
		},
		retry.Limit(50),
		retry.Backoff(backoff.Constant(500*time.Millisecond), 500*time.Millisecond),
	)
	if err != nil {
		closeFunc()
		return nil, func() {}, errors.Wrap(err, "timed out waiting for postgres container to become available")
	}

	return db, closeFunc, nil
}
