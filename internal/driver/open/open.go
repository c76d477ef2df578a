// Package open is the driver.Driver factory, generalizing the teacher's
// internal/output/renderer.go format-name dispatch (NewRenderer) from output
// format selection to database driver selection.
package open

import (
	"fmt"

	"github.com/nethalo/sqlsentinel/internal/driver"
	"github.com/nethalo/sqlsentinel/internal/driver/mysqldriver"
	"github.com/nethalo/sqlsentinel/internal/driver/pgdriver"
	"github.com/nethalo/sqlsentinel/internal/driver/sqlitedriver"
)

// Open connects using the driver named in cfg.Driver ("mysql", "pgsql", or
// "sqlite"), per spec §6's configuration key.
func Open(cfg driver.ConnectionConfig) (driver.Driver, error) {
	switch cfg.Driver {
	case "mysql", "":
		return mysqldriver.Open(cfg)
	case "pgsql", "postgres", "postgresql":
		return pgdriver.Open(cfg)
	case "sqlite", "sqlite3":
		return sqlitedriver.Open(cfg)
	default:
		return nil, fmt.Errorf("unknown driver %q: must be one of mysql, pgsql, sqlite", cfg.Driver)
	}
}
