// internal/db/db.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	appErrors "github.com/unclebandit/churn-etl/internal/errors"
)

// Settings are the connection parameters for one Postgres database.
type Settings struct {
	User     string
	Password string
	Host     string
	Port     string
	Name     string
	SSLMode  string
}

// DSN renders the settings as a postgres:// URL.
func (s Settings) DSN() string {
	sslMode := s.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(s.User, s.Password),
		Host:     fmt.Sprintf("%s:%s", s.Host, s.Port),
		Path:     "/" + s.Name,
		RawQuery: "sslmode=" + url.QueryEscape(sslMode),
	}
	return u.String()
}

// Open connects to the named store and pings it. Any failure is reported as
// a connectivity error so the caller's scheduler can decide to retry.
func Open(ctx context.Context, store string, s Settings) (*sql.DB, error) {
	log.Info().Str("store", store).Str("host", s.Host).Str("db", s.Name).Msg("connecting to database")

	db, err := sql.Open("postgres", s.DSN())
	if err != nil {
		return nil, appErrors.NewConnectivity(store, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, appErrors.NewConnectivity(store, err)
	}

	log.Info().Str("store", store).Msg("connected to database")
	return db, nil
}
