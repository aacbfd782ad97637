package pg

import (
	"database/sql"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/rds/rdsutils"

	_ "github.com/newrelic/go-agent/v3/integrations/nrpgx"
)

// driverName is the newrelic instrumented pgx driver
const driverName = "nrpgx"

type Config struct {
	User               string
	Host               string
	Password           string
	Port               int
	DbName             string
	MaxOpenConnections int
	MaxIdleConnections int
}

// Get a DB connection pool using AWS IAM credentials
//
// https://docs.aws.amazon.com/AmazonRDS/latest/AuroraUserGuide/UsingWithRDS.IAMDBAuth.Connecting.Go.html
func NewWithAwsIam(cfg *Config, awsConfig aws.Config) (*sql.DB, error) {
	// Only supported on provisioned Aurora clusters
	rdsClient := rds.New(awsConfig)

	endpoint := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	authToken, err := rdsutils.BuildAuthToken(endpoint, rdsClient.Region, cfg.User, rdsClient.Credentials)
	if err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		cfg.Host, cfg.Port, cfg.User, authToken, cfg.DbName,
	)
	return open(dsn, cfg)
}

// Get a DB connection pool using username/password credentials
func NewWithUsernameAndPassword(cfg *Config) (*sql.DB, error) {
	// TODO: enable SSL once the cluster certificate is bundled with the image
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DbName,
	)
	return open(dsn, cfg)
}

func open(dsn string, cfg *Config) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConnections)
	}
	if cfg.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConnections)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
