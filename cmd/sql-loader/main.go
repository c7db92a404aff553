// Package main provides sql-loader, a CLI that runs a SQL script against a
// SQLite or PostgreSQL database.
//
// Usage:
//
//	sql-loader --database <url> --file <script.sql> [--verbose] [--transaction]
//
// The database URL may also come from DATABASE_URL (a .env file in the working
// directory is honored) or from sql-loader.yaml.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := Execute(ctx)
	stop()
	os.Exit(code)
}
