package main

import (
	"log"
	"os"

	"sql-agent-be/internal/model"
	"sql-agent-be/pkg/database"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		color.Red("Error: DB_CONNECTION_STRING is not set")
		os.Exit(1)
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		color.Red("Error: Failed to connect to database %s: %v", database.MaskDSN(dsn), err)
		os.Exit(1)
	}
	color.Green("Connected to %s", database.MaskDSN(dsn))

	color.Cyan("Starting GORM migration of the query schema...")

	// 3. AutoMigrate the tables questions are asked against
	models := []interface{}{
		&model.Cliente{},
		&model.Produto{},
		&model.Transacao{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		color.Red("Error: AutoMigrate failed: %v", err)
		os.Exit(1)
	}

	// 4. Read-only role used by the agent. Failure is not fatal: the role may
	// already exist or the migration user may lack CREATEROLE.
	color.Yellow("Granting read-only access...")
	postMigrationSQL := []string{
		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_roles WHERE rolname = 'sql_agent_reader') THEN CREATE ROLE sql_agent_reader NOLOGIN; END IF; END $$;`,
		`GRANT SELECT ON clientes, produtos, transacoes TO sql_agent_reader;`,
	}
	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			color.Yellow("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	color.Green("Success: clientes, produtos and transacoes are up to date.")
}
