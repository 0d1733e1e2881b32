package atmxgo

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"
)

var (
	//go:embed schema/init_db.sql
	initDBSQL string

	//go:embed schema/teardown_db.sql
	teardownDBSQL string
)

// LocalHelper prepares a Postgres database for PostgresStore. It is used
// by the seeder and by the Postgres tests.
type LocalHelper struct {
	Conn *pgx.Conn
}

func NewLocalHelper(cfg *Config) (*LocalHelper, error) {
	conn, err := pgx.Connect(context.Background(), cfg.Store.ConnectionString)
	if err != nil {
		return nil, err
	}
	return &LocalHelper{
		Conn: conn,
	}, nil
}

// InitDB creates the schema and returns a func that drops it again and
// closes the connection.
func (lh *LocalHelper) InitDB() (func(), error) {
	if _, err := lh.Conn.Exec(context.Background(), initDBSQL); err != nil {
		return nil, err
	}
	return lh.teardownDB(), nil
}

// ResetDB drops and recreates the schema.
func (lh *LocalHelper) ResetDB() error {
	if _, err := lh.Conn.Exec(context.Background(), teardownDBSQL); err != nil {
		return err
	}
	_, err := lh.Conn.Exec(context.Background(), initDBSQL)
	return err
}

func (lh *LocalHelper) Close() error {
	return lh.Conn.Close(context.Background())
}

func (lh *LocalHelper) teardownDB() func() {
	return func() {
		defer lh.Conn.Close(context.Background())

		if _, err := lh.Conn.Exec(context.Background(), teardownDBSQL); err != nil {
			fmt.Fprintf(os.Stderr, "DB cleanup exec teardown sql: %s", err.Error())
			return
		}
	}
}
