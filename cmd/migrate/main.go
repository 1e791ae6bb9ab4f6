package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/dropDatabas3/orgauth/internal/config"
	migrations "github.com/dropDatabas3/orgauth/migrations/postgres"
)

const versionTable = "schema_migrations"

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config (vacío = solo env)")
		dsn        = flag.String("dsn", "", "Postgres DSN (pisa storage.dsn)")
		dir        = flag.String("dir", "", "Migrations directory (vacío = migraciones embebidas)")
	)
	flag.Parse()

	// Positional args: [action] [steps]
	action := "up"
	steps := 0
	args := flag.Args()
	if len(args) >= 1 && args[0] != "" {
		action = strings.ToLower(args[0])
	}
	if len(args) >= 2 {
		if n, err := strconv.Atoi(args[1]); err == nil && n > 0 {
			steps = n
		}
	}

	_ = godotenv.Load()

	target := *dsn
	if target == "" {
		target = os.Getenv("STORAGE_DSN")
	}
	if target == "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("config load: %v", err)
		}
		target = cfg.Storage.DSN
	}
	if target == "" {
		log.Fatal("no DSN: use -dsn, STORAGE_DSN or storage.dsn")
	}

	var src fs.FS = migrations.FS
	if *dir != "" {
		src = os.DirFS(*dir)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, target)
	if err != nil {
		log.Fatalf("pgxpool: %v", err)
	}
	defer pool.Close()

	if err := ensureVersionTable(ctx, pool); err != nil {
		log.Fatalf("version table: %v", err)
	}
	applied, err := appliedVersions(ctx, pool)
	if err != nil {
		log.Fatalf("applied versions: %v", err)
	}

	switch action {
	case "up":
		upFiles, err := listSQL(src, "_up.sql")
		if err != nil {
			log.Fatalf("list up: %v", err)
		}
		var pending []string
		for _, f := range upFiles {
			if !applied[version(f, "_up.sql")] {
				pending = append(pending, f)
			}
		}
		if len(pending) == 0 {
			log.Println("No pending migrations. Nothing to do.")
			return
		}
		if steps > 0 && steps < len(pending) {
			pending = pending[:steps]
		}
		log.Printf("Applying %d up migration(s)...", len(pending))
		for _, f := range pending {
			if err := execSQLFile(ctx, pool, src, f, version(f, "_up.sql"), true); err != nil {
				log.Fatalf("exec %s: %v", f, err)
			}
		}
		log.Println("Up migrations completed.")

	case "down":
		downFiles, err := listSQL(src, "_down.sql")
		if err != nil {
			log.Fatalf("list down: %v", err)
		}
		reverseInPlace(downFiles)
		var todo []string
		for _, f := range downFiles {
			if applied[version(f, "_down.sql")] {
				todo = append(todo, f)
			}
		}
		if len(todo) == 0 {
			log.Println("No applied migrations to revert. Nothing to do.")
			return
		}
		if steps > 0 && steps < len(todo) {
			todo = todo[:steps] // only N most-recent downs
		}
		log.Printf("Applying %d down migration(s)...", len(todo))
		for _, f := range todo {
			if err := execSQLFile(ctx, pool, src, f, version(f, "_down.sql"), false); err != nil {
				log.Fatalf("exec %s: %v", f, err)
			}
		}
		log.Println("Down migrations completed.")

	case "status":
		upFiles, err := listSQL(src, "_up.sql")
		if err != nil {
			log.Fatalf("list up: %v", err)
		}
		for _, f := range upFiles {
			state := "pending"
			if applied[version(f, "_up.sql")] {
				state = "applied"
			}
			fmt.Printf("%-40s %s\n", f, state)
		}

	default:
		log.Fatalf("unknown action %q. Use: up | down [steps] | status", action)
	}
}

func listSQL(src fs.FS, suffix string) ([]string, error) {
	entries, err := fs.ReadDir(src, ".")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(strings.ToLower(e.Name()), suffix) {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// version: "0001_auth_up.sql" → "0001_auth".
func version(name, suffix string) string {
	return strings.TrimSuffix(path.Base(name), suffix)
}

func reverseInPlace(ss []string) {
	for i, j := 0, len(ss)-1; i < j; i, j = i+1, j-1 {
		ss[i], ss[j] = ss[j], ss[i]
	}
}

func ensureVersionTable(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+versionTable+` (
		version    TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	return err
}

func appliedVersions(ctx context.Context, pool *pgxpool.Pool) (map[string]bool, error) {
	rows, err := pool.Query(ctx, `SELECT version FROM `+versionTable)
	if err != nil {
		return nil, err
	}
	vs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(vs))
	for _, v := range vs {
		out[v] = true
	}
	return out, nil
}

// execSQLFile corre el archivo y registra (o borra) la versión en la misma
// transacción.
func execSQLFile(ctx context.Context, pool *pgxpool.Pool, src fs.FS, name, ver string, up bool) error {
	b, err := fs.ReadFile(src, name)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	start := time.Now()
	err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, string(b)); err != nil {
			return err
		}
		if up {
			_, err = tx.Exec(ctx, `INSERT INTO `+versionTable+` (version) VALUES ($1)`, ver)
		} else {
			_, err = tx.Exec(ctx, `DELETE FROM `+versionTable+` WHERE version = $1`, ver)
		}
		return err
	})
	if err != nil {
		var pgErr interface{ SQLState() string }
		if errors.As(err, &pgErr) {
			return fmt.Errorf("exec (sqlstate %s): %w", pgErr.SQLState(), err)
		}
		return fmt.Errorf("exec: %w", err)
	}
	log.Printf("OK %s (%s)", name, time.Since(start).Truncate(time.Millisecond))
	return nil
}
