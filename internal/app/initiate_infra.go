package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/nsqio/go-nsq"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/shandysiswandi/fintrack/internal/pkg/idempotency"
	"github.com/shandysiswandi/fintrack/internal/pkg/mail"
	"github.com/shandysiswandi/fintrack/internal/pkg/messaging"
	"github.com/shandysiswandi/fintrack/internal/pkg/migration"
	"github.com/shandysiswandi/fintrack/internal/pkg/pgxcasbin"
	"github.com/shandysiswandi/fintrack/internal/pkg/ratelimit"
	"github.com/shandysiswandi/fintrack/internal/pkg/storage"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

const (
	pingTimeout = 5 * time.Second
	pubsubScope = "https://www.googleapis.com/auth/pubsub"
)

func (a *App) initDatabase() error {
	cfg, err := pgxpool.ParseConfig(a.config.GetString("database.url"))
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	cfg.MaxConns = a.config.GetInt32("database.pool.max_conns")
	cfg.MinConns = a.config.GetInt32("database.pool.min_conns")
	cfg.MaxConnLifetime = a.config.GetSecond("database.pool.max_conn_lifetime_seconds")
	cfg.MaxConnIdleTime = a.config.GetSecond("database.pool.max_conn_idle_seconds")
	cfg.HealthCheckPeriod = a.config.GetSecond("database.pool.health_check_period_seconds")

	pool, err := pgxpool.NewWithConfig(a.ctx, cfg)
	if err != nil {
		return err
	}
	a.dbConn = pool
	a.onClose("database", func(context.Context) error { pool.Close(); return nil })

	ctx, cancel := context.WithTimeout(a.ctx, pingTimeout)
	defer cancel()
	return pool.Ping(ctx)
}

func (a *App) initMigration() error {
	if !a.config.GetBool("database.auto_migrate") {
		return nil
	}
	return migration.Up(a.ctx, a.dbConn)
}

// initRedis also builds the two Redis backed helpers.
func (a *App) initRedis() error {
	opt, err := redis.ParseURL(a.config.GetString("redis.url"))
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}

	rdb := redis.NewClient(opt)
	a.redis = rdb
	a.onClose("redis", func(context.Context) error { return rdb.Close() })

	ctx, cancel := context.WithTimeout(a.ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return err
	}

	a.idemp = idempotency.New(rdb)
	a.limiter = ratelimit.New(rdb)
	return nil
}

func (a *App) initMail() error {
	client, err := mail.NewSMTP(mail.SMTPConfig{
		Host:     a.config.GetString("mail.host"),
		Port:     a.config.GetInt("mail.port"),
		Username: a.config.GetString("mail.username"),
		Password: a.config.GetString("mail.password"),
		From:     a.config.GetString("mail.from"),
		SSL:      a.config.GetBool("mail.ssl"),
		Timeout:  a.config.GetSecond("mail.timeout_seconds"),
	})
	if err != nil {
		return err
	}
	a.mail = client
	a.onClose("mail", func(context.Context) error { return client.Close() })

	return nil
}

// googleCredentials reads a service account from a file or inline JSON. It
// returns no option when neither is configured so the client falls back to
// application default credentials.
func googleCredentials(ctx context.Context, file string, inline []byte, scope string) ([]option.ClientOption, error) {
	raw := inline
	if file = strings.TrimSpace(file); file != "" && len(raw) == 0 {
		// #nosec G304 -- path is from trusted config file.
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read credentials: %w", err)
		}
		raw = b
	}
	if len(raw) == 0 {
		return nil, nil
	}

	creds, err := google.CredentialsFromJSON(ctx, raw, scope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return []option.ClientOption{option.WithCredentials(creds)}, nil
}

func (a *App) gcsClient() (*gcs.Client, error) {
	opts, err := googleCredentials(a.ctx,
		a.config.GetString("storage.gcs.credentials_file"),
		a.config.GetBinary("storage.gcs.credentials_json"),
		gcs.ScopeFullControl,
	)
	if err != nil {
		return nil, err
	}
	if a.config.GetBool("storage.gcs.without_auth") {
		opts = append(opts, option.WithoutAuthentication())
	}
	if v := strings.TrimSpace(a.config.GetString("storage.gcs.endpoint")); v != "" {
		opts = append(opts, option.WithEndpoint(v))
	}
	if v := strings.TrimSpace(a.config.GetString("storage.gcs.user_agent")); v != "" {
		opts = append(opts, option.WithUserAgent(v))
	}

	return gcs.NewClient(a.ctx, opts...)
}

func (a *App) initStorage() error {
	driver := strings.TrimSpace(a.config.GetString("storage.driver"))
	str := func(key string) string { return strings.TrimSpace(a.config.GetString(key)) }

	opts := storage.FactoryOptions{
		S3: storage.S3Options{
			Region:       str("storage.s3.region"),
			Endpoint:     str("storage.s3.endpoint"),
			AccessKey:    str("storage.s3.access_key"),
			SecretKey:    str("storage.s3.secret_key"),
			SessionToken: str("storage.s3.session_token"),
			UsePathStyle: a.config.GetBool("storage.s3.use_path_style"),
		},
		MinIO: storage.MinIOOptions{
			Region:       str("storage.minio.region"),
			Endpoint:     str("storage.minio.endpoint"),
			AccessKey:    str("storage.minio.access_key"),
			SecretKey:    str("storage.minio.secret_key"),
			SessionToken: str("storage.minio.session_token"),
			UseSSL:       a.config.GetBool("storage.minio.use_ssl"),
		},
	}
	if driver == storage.DriverGCS {
		client, err := a.gcsClient()
		if err != nil {
			return fmt.Errorf("gcs client: %w", err)
		}
		opts.GCS = storage.GCSOptions{
			Client:         client,
			GoogleAccessID: str("storage.gcs.signer_access_id"),
			PrivateKey:     a.config.GetBinary("storage.gcs.signer_private_key"),
		}
	}

	stg, err := storage.NewFromDriver(a.ctx, driver, opts)
	if err != nil {
		return err
	}
	a.storage = stg
	a.onClose("storage", func(context.Context) error { return stg.Close() })

	return nil
}

func (a *App) nsqConfig(prefix string, consumer bool) *nsq.Config {
	cfg := nsq.NewConfig()
	cfg.MaxInFlight = a.config.GetInt(prefix + ".max_in_flight")
	cfg.DialTimeout = a.config.GetSecond(prefix + ".dial_timeout_seconds")
	cfg.ReadTimeout = a.config.GetSecond(prefix + ".read_timeout_seconds")
	cfg.WriteTimeout = a.config.GetSecond(prefix + ".write_timeout_seconds")
	if consumer {
		cfg.MaxAttempts = a.config.GetUint16(prefix + ".max_attempts")
		cfg.LookupdPollInterval = a.config.GetSecond(prefix + ".lookupd_poll_interval_seconds")
		cfg.DefaultRequeueDelay = a.config.GetSecond(prefix + ".default_requeue_delay_seconds")
		cfg.MaxRequeueDelay = a.config.GetSecond(prefix + ".max_requeue_delay_seconds")
	}
	return cfg
}

func (a *App) natsOptions() []nats.Option {
	opts := []nats.Option{
		nats.Name(a.config.GetString("messaging.nats.name")),
		nats.MaxReconnects(a.config.GetInt("messaging.nats.max_reconnects")),
		nats.Timeout(a.config.GetSecond("messaging.nats.timeout_seconds")),
		nats.ReconnectWait(a.config.GetSecond("messaging.nats.reconnect_wait_seconds")),
		nats.PingInterval(a.config.GetSecond("messaging.nats.ping_interval_seconds")),
		nats.MaxPingsOutstanding(a.config.GetInt("messaging.nats.max_pings_outstanding")),
	}
	if a.config.GetBool("messaging.nats.retry_on_failed_connect") {
		opts = append(opts, nats.RetryOnFailedConnect(true))
	}
	if a.config.GetBool("messaging.nats.no_echo") {
		opts = append(opts, nats.NoEcho())
	}
	return opts
}

func (a *App) initMessaging() error {
	driver := a.config.GetString("messaging.driver")

	opts := messaging.FactoryOptions{
		NSQ: messaging.NSQConfig{
			ProducerAddr:         a.config.GetString("messaging.nsq.producer_addr"),
			ConsumerNSQDAddrs:    a.config.GetArray("messaging.nsq.consumer_nsqd_addrs"),
			ConsumerLookupdAddrs: a.config.GetArray("messaging.nsq.consumer_lookupd_addrs"),
			ProducerConfig:       a.nsqConfig("messaging.nsq.producer_config", false),
			ConsumerConfig:       a.nsqConfig("messaging.nsq.consumer_config", true),
		},
		NATS: messaging.NATSConfig{
			URL:     a.config.GetString("messaging.nats.url"),
			Options: a.natsOptions(),
		},
		Kafka: messaging.KafkaConfig{
			Brokers: a.config.GetArray("messaging.kafka.brokers"),
			Dialer: &kafka.Dialer{
				ClientID: a.config.GetString("messaging.kafka.client_id"),
				Timeout:  a.config.GetSecond("messaging.kafka.dial_timeout_seconds"),
			},
		},
		PubSub: messaging.PubSubConfig{
			ProjectID: a.config.GetString("messaging.pubsub.project_id"),
		},
	}
	if driver == messaging.DriverGooglePubSub {
		creds, err := googleCredentials(a.ctx, a.config.GetString("messaging.pubsub.credentials_file"), nil, pubsubScope)
		if err != nil {
			return fmt.Errorf("pubsub: %w", err)
		}
		opts.PubSub.ClientOptions = creds
	}

	client, err := messaging.NewFromDriver(a.ctx, driver, opts)
	if err != nil {
		return fmt.Errorf("driver %q: %w", driver, err)
	}
	a.messaging = client
	a.onClose("messaging", func(context.Context) error { return client.Close() })

	return nil
}

func (a *App) initCasbin() error {
	e, w, err := pgxcasbin.NewEnforcer(a.ctx, a.dbConn,
		a.config.GetString("casbin.table"),
		a.config.GetString("casbin.channel"),
	)
	if err != nil {
		return err
	}
	a.casbin = e
	if w != nil {
		a.onClose("casbin watcher", func(context.Context) error { w.Close(); return nil })
	}

	return nil
}
