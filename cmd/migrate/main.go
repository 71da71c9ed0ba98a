package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"codeatlas/internal/graph"
	"codeatlas/pkg/config"
	"codeatlas/pkg/logger"
)

const migrationVersion = "code_graph_schema_v1"

func main() {
	force := flag.Bool("force", false, "Force migration even if already applied")
	flag.Parse()

	// Initialize logger
	if err := logger.Init("development"); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting Neo4j schema migration...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Initialize Neo4j driver
	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	defer driver.Close(context.Background())

	// Verify connection
	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	// Check if migration already applied
	if !*force {
		applied, err := checkMigrationApplied(ctx, driver)
		if err != nil {
			log.Fatal("Failed to check migration status", zap.Error(err))
		}
		if applied {
			log.Info("Migration already applied. Use -force to reapply.")
			os.Exit(0)
		}
	}

	// Run migrations
	if err := runMigrations(ctx, driver, log); err != nil {
		log.Fatal("Migration failed", zap.Error(err))
	}

	// Mark migration as applied
	if err := markMigrationApplied(ctx, driver); err != nil {
		log.Warn("Failed to mark migration as applied", zap.Error(err))
	}

	log.Info("Migration completed successfully!")
}

func checkMigrationApplied(ctx context.Context, driver neo4j.DriverWithContext) (bool, error) {
	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (m:Migration {version: $version})
		RETURN m.applied_at as applied_at
	`

	result, err := session.Run(ctx, query, map[string]interface{}{"version": migrationVersion})
	if err != nil {
		return false, err
	}

	return result.Next(ctx), nil
}

func markMigrationApplied(ctx context.Context, driver neo4j.DriverWithContext) error {
	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MERGE (m:Migration {version: $version})
		SET m.applied_at = datetime(),
		    m.description = 'Code graph schema: hint constraints, entity indexes, fulltext body index'
	`

	_, err := session.Run(ctx, query, map[string]interface{}{"version": migrationVersion})
	return err
}

func runMigrations(ctx context.Context, driver neo4j.DriverWithContext, log *zap.Logger) error {
	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	migrations := []struct {
		name  string
		query string
	}{
		{
			name:  "Hint ref_id uniqueness",
			query: `CREATE CONSTRAINT hint_ref_id_unique IF NOT EXISTS FOR (h:Hint) REQUIRE h.ref_id IS UNIQUE`,
		},
		{
			name:  "Entity ref_id index",
			query: `CREATE INDEX entity_ref_id IF NOT EXISTS FOR (n:` + graph.IndexLabel + `) ON (n.ref_id)`,
		},
		{
			name:  "Entity name index",
			query: `CREATE INDEX entity_name IF NOT EXISTS FOR (n:` + graph.IndexLabel + `) ON (n.name)`,
		},
		{
			name:  "Entity file index",
			query: `CREATE INDEX entity_file IF NOT EXISTS FOR (n:` + graph.IndexLabel + `) ON (n.file)`,
		},
		{
			name: "Fulltext body index",
			query: `CREATE FULLTEXT INDEX ` + graph.BodyIndex + ` IF NOT EXISTS
				FOR (n:` + graph.IndexLabel + `) ON EACH [n.name, n.body]`,
		},
	}

	for _, m := range migrations {
		log.Info("Applying migration step", zap.String("name", m.name))
		if _, err := session.Run(ctx, m.query, nil); err != nil {
			return fmt.Errorf("migration step %q failed: %w", m.name, err)
		}
	}
	return nil
}
