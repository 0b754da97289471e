package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/gestorb3/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Checking database migrations", "databasePath", databasePath)
	} else {
		stdlog.Println("Checking database migrations for:", databasePath)
	}
	migrateOperationsTable()

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		email TEXT DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		token TEXT NOT NULL,
		refresh_token TEXT NOT NULL,
		user_agent TEXT,
		client_ip TEXT,
		is_blocked BOOLEAN DEFAULT FALSE,
		expires_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS operations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		date TEXT NOT NULL,
		time TEXT NOT NULL DEFAULT '00:00:00',
		ticker TEXT NOT NULL,
		side TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		price REAL NOT NULL,
		brokerage_fee REAL DEFAULT 0,
		exchange_fee REAL DEFAULT 0,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS earnings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		date TEXT NOT NULL,
		ticker TEXT NOT NULL,
		kind TEXT NOT NULL,
		amount REAL NOT NULL,
		FOREIGN KEY(user_id) REFERENCES users(id)
	);

	CREATE INDEX IF NOT EXISTS idx_operations_date ON operations(date);
	CREATE INDEX IF NOT EXISTS idx_operations_ticker ON operations(ticker);
	CREATE INDEX IF NOT EXISTS idx_operations_side ON operations(side);
	CREATE INDEX IF NOT EXISTS idx_earnings_ticker ON earnings(ticker);
	`

	_, err = DB.Exec(createTableStatement)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.")
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}

// migrateOperationsTable adds columns introduced after the first schema
// version (fee columns and the time-of-day column) to existing databases.
func migrateOperationsTable() {
	var tableName string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='operations'").Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			if logger.L != nil {
				logger.L.Info("'operations' table does not exist, no migration needed as table will be created.")
			} else {
				stdlog.Println("'operations' table does not exist, no migration needed as table will be created.")
			}
			return
		}
		if logger.L != nil {
			logger.L.Error("Error checking for 'operations' table", "error", err)
		} else {
			stdlog.Printf("Error checking for 'operations' table: %v", err)
		}
		return
	}

	rows, err := DB.Query("PRAGMA table_info(operations)")
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error querying table schema for 'operations'", "error", err)
		} else {
			stdlog.Printf("Error querying table schema for 'operations': %v", err)
		}
		return
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var name, dataType string
		var notnullVal int
		var dfltValue interface{}

		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			if logger.L != nil {
				logger.L.Error("Error scanning column info for 'operations'", "error", err)
			} else {
				stdlog.Printf("Error scanning column info for 'operations': %v", err)
			}
			return
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		if logger.L != nil {
			logger.L.Error("Error iterating over column info for 'operations'", "error", err)
		} else {
			stdlog.Printf("Error iterating over column info for 'operations': %v", err)
		}
		return
	}

	addColumn := func(name, ddl string) {
		if columnExists[name] {
			return
		}
		if _, err := DB.Exec("ALTER TABLE operations ADD COLUMN " + ddl); err != nil {
			if logger.L != nil {
				logger.L.Error("Error adding column to 'operations' table", "column", name, "error", err)
			} else {
				stdlog.Printf("Error adding '%s' column to 'operations' table: %v", name, err)
			}
			return
		}
		if logger.L != nil {
			logger.L.Info("Added column to 'operations' table", "column", name)
		} else {
			stdlog.Printf("Added '%s' column to 'operations' table", name)
		}
	}

	addColumn("brokerage_fee", "brokerage_fee REAL DEFAULT 0")
	addColumn("exchange_fee", "exchange_fee REAL DEFAULT 0")
	addColumn("time", "time TEXT NOT NULL DEFAULT '00:00:00'")
}
