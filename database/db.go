package database

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect opens the MySQL connection with TLS, pooling and retry, and stores
// the handle in DB. Repeated calls return the existing handle.
func Connect() (*gorm.DB, error) {
	if DB != nil {
		return DB, nil
	}

	dsn, err := buildDSN()
	if err != nil {
		return nil, err
	}

	gormLogger := logger.Default.LogMode(logger.Silent)
	if strings.ToLower(getenv("ENV", "development")) == "development" {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	// TranslateError maps driver duplicate-key errors to gorm.ErrDuplicatedKey,
	// which the vote engine relies on for conflict retries.
	cfg := &gorm.Config{Logger: gormLogger, TranslateError: true}

	var db *gorm.DB
	retries := envInt("DB_CONNECT_RETRIES", 5)
	backoff := time.Second
	for attempt := 1; ; attempt++ {
		db, err = gorm.Open(gormmysql.Open(dsn), cfg)
		if err == nil {
			break
		}
		if attempt >= retries {
			return nil, fmt.Errorf("database connect failed after %d attempts: %w", attempt, err)
		}
		log.Printf("[database] connect attempt %d failed, retrying in %s: %v", attempt, backoff, err)
		time.Sleep(backoff)
		backoff *= 2
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(envInt("DB_MAX_OPEN_CONNS", 25))
	sqlDB.SetMaxIdleConns(envInt("DB_MAX_IDLE_CONNS", 25))
	sqlDB.SetConnMaxLifetime(time.Duration(envInt("DB_CONN_MAX_LIFETIME", 3600)) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	DB = db
	return DB, nil
}

// buildDSN assembles the DSN from DB_* env vars unless DB_DSN overrides it
// outright. TLS and timeout params are forced on unless already present.
func buildDSN() (string, error) {
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		return dsn, nil
	}

	host := getenv("DB_HOST", "127.0.0.1")
	port := getenv("DB_PORT", "3306")
	user := getenv("DB_USER", "root")
	pass := getenv("DB_PASS", "")
	name := getenv("DB_NAME", "pulse")
	params := getenv("DB_PARAMS", "charset=utf8mb4&parseTime=True&loc=Local")

	if !strings.Contains(params, "tls=") && getenv("DB_TLS", "true") == "true" {
		if getenv("DB_TLS_VERIFY", "false") == "true" {
			if err := registerStrictTLS(); err != nil {
				return "", err
			}
			params += "&tls=custom"
		} else {
			params += "&tls=true"
		}
	}
	for _, p := range []string{"timeout=10s", "readTimeout=10s", "writeTimeout=10s"} {
		if !strings.Contains(params, strings.SplitN(p, "=", 2)[0]+"=") {
			params += "&" + p
		}
	}

	log.Printf("[database] connecting to %s@tcp(%s:%s)/%s", user, host, port, name)
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?%s", user, pass, host, port, name, params), nil
}

// registerStrictTLS registers a named TLS config with full certificate
// verification, optionally with a custom CA bundle and client cert.
func registerStrictTLS() error {
	tlsCfg := &tls.Config{}

	if caPath := getenv("DB_TLS_CA_PATH", ""); caPath != "" {
		caCert, err := os.ReadFile(caPath)
		if err != nil {
			return fmt.Errorf("failed reading DB TLS CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return errors.New("failed to append CA certs")
		}
		tlsCfg.RootCAs = pool
	}

	clientCert := getenv("DB_TLS_CLIENT_CERT", "")
	clientKey := getenv("DB_TLS_CLIENT_KEY", "")
	if clientCert != "" && clientKey != "" {
		cert, err := tls.LoadX509KeyPair(clientCert, clientKey)
		if err != nil {
			return fmt.Errorf("failed to load client cert/key: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{cert}
	}

	return mysqldriver.RegisterTLSConfig("custom", tlsCfg)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
