package profile

import (
	_ "github.com/go-sql-driver/mysql" // registers the "mysql" driver
)

// MySQLStore is the shared-installation profile store, for teams running
// several editors against one profile set — the counterpart of
// Fast-MBTiler's SetupMysqlTables shared-output mode.
type MySQLStore struct {
	*sqlStore
}

// NewMySQLStore opens (creating the table if necessary) a mysql-backed
// profile store using dsn, e.g. "user:pass@tcp(host:3306)/dbname".
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	s, err := openSQLStore("mysql", dsn)
	if err != nil {
		return nil, err
	}
	return &MySQLStore{sqlStore: s}, nil
}
