// Package storage implements the Redis and PostgreSQL backends used by the
// frame-log and the decoded frame persistence.
package storage

import (
	"context"
	"crypto/tls"
	"embed"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	// register postgres driver
	_ "github.com/lib/pq"

	"github.com/loralogger/lora-log-decoder/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

var (
	redisClient redis.UniversalClient
	db          *sqlx.DB
)

// Setup configures the storage backends needed by the enabled
// integrations.
func Setup(c config.Config) error {
	log.Info("storage: setting up storage module")

	if c.IntegrationEnabled(config.IntegrationRedis) {
		if err := SetupRedis(c); err != nil {
			return err
		}
	}

	if c.IntegrationEnabled(config.IntegrationPostgreSQL) {
		if err := SetupPostgreSQL(c); err != nil {
			return err
		}
	}

	return nil
}

// SetupRedis configures the Redis client.
func SetupRedis(c config.Config) error {
	log.Info("storage: setting up Redis client")

	client, err := newRedisClient(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return errors.Wrap(err, "storage: ping redis error")
	}

	redisClient = client
	return nil
}

func newRedisClient(c config.Config) (redis.UniversalClient, error) {
	conf := c.Integration.Redis

	var tlsConfig *tls.Config
	if conf.TLSEnabled {
		tlsConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	if conf.URL != "" {
		opts, err := redis.ParseURL(conf.URL)
		if err != nil {
			return nil, errors.Wrap(err, "storage: parse redis url error")
		}
		if tlsConfig != nil {
			opts.TLSConfig = tlsConfig
		}
		if conf.PoolSize != 0 {
			opts.PoolSize = conf.PoolSize
		}
		return redis.NewClient(opts), nil
	}

	if len(conf.Servers) == 0 {
		return nil, errors.New("storage: at least one redis server must be configured")
	}

	if conf.Cluster {
		return redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:     conf.Servers,
			PoolSize:  conf.PoolSize,
			Password:  conf.Password,
			TLSConfig: tlsConfig,
		}), nil
	}

	if conf.MasterName != "" {
		return redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:       conf.MasterName,
			SentinelAddrs:    conf.Servers,
			SentinelPassword: conf.Password,
			DB:               conf.Database,
			PoolSize:         conf.PoolSize,
			TLSConfig:        tlsConfig,
		}), nil
	}

	return redis.NewClient(&redis.Options{
		Addr:      conf.Servers[0],
		DB:        conf.Database,
		Password:  conf.Password,
		PoolSize:  conf.PoolSize,
		TLSConfig: tlsConfig,
	}), nil
}

// SetupPostgreSQL configures the PostgreSQL connection and applies the
// migrations when automigrate is enabled.
func SetupPostgreSQL(c config.Config) error {
	conf := c.Integration.PostgreSQL

	log.Info("storage: connecting to PostgreSQL")
	d, err := sqlx.Open("postgres", conf.DSN)
	if err != nil {
		return errors.Wrap(err, "storage: PostgreSQL connection error")
	}
	d.SetMaxOpenConns(conf.MaxOpenConnections)
	d.SetMaxIdleConns(conf.MaxIdleConnections)

	for i := 0; ; i++ {
		if err := d.Ping(); err != nil {
			if i >= 4 {
				return errors.Wrap(err, "storage: ping PostgreSQL database error")
			}
			log.WithError(err).Warning("storage: ping PostgreSQL database error, will retry in 2s")
			time.Sleep(2 * time.Second)
			continue
		}
		break
	}

	db = d

	if conf.Automigrate {
		if err := MigrateUp(d); err != nil {
			return err
		}
	}

	return nil
}

func newMigrate(d *sqlx.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, errors.Wrap(err, "storage: open migrations error")
	}

	driver, err := postgres.WithInstance(d.DB, &postgres.Config{})
	if err != nil {
		return nil, errors.Wrap(err, "storage: migration driver error")
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, errors.Wrap(err, "storage: new migrate instance error")
	}
	return m, nil
}

// MigrateUp applies all pending PostgreSQL migrations.
func MigrateUp(d *sqlx.DB) error {
	log.Info("storage: applying PostgreSQL data migrations")

	m, err := newMigrate(d)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return errors.Wrap(err, "storage: applying PostgreSQL data migrations error")
	}

	v, _, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return errors.Wrap(err, "storage: get migration version error")
	}
	log.WithField("version", v).Info("storage: PostgreSQL data migrations applied")

	return nil
}

// MigrateDown reverts all PostgreSQL migrations.
func MigrateDown(d *sqlx.DB) error {
	m, err := newMigrate(d)
	if err != nil {
		return err
	}

	if err := m.Down(); err != nil && err != migrate.ErrNoChange {
		return errors.Wrap(err, "storage: reverting PostgreSQL data migrations error")
	}
	return nil
}

// RedisClient returns the Redis client.
func RedisClient() redis.UniversalClient {
	return redisClient
}

// DB returns the PostgreSQL database object.
func DB() *sqlx.DB {
	return db
}

// GetRedisKey returns the Redis key given a template and parameters.
func GetRedisKey(tmpl string, params ...interface{}) string {
	return fmt.Sprintf(tmpl, params...)
}
