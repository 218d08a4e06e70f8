package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"gofarma/internal/pkg/database"
)

// Uso: go run ./cmd/migrate [-dir ./sql] [-dsn postgres://...] up|down|status|redo|version
func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️ Aviso: arquivo .env não encontrado. Usando apenas o ambiente do sistema: %v", err)
	}

	var migrationsDir, dsn string
	flag.StringVar(&migrationsDir, "dir", "./sql", "diretório com as migrações")
	flag.StringVar(&dsn, "dsn", os.Getenv("DATABASE_URL"), "DSN do PostgreSQL (padrão: DATABASE_URL)")
	flag.Parse()

	if dsn == "" {
		log.Fatal("goose: DATABASE_URL não definida")
	}

	db, err := database.NewPostgresDB(dsn)
	if err != nil {
		log.Fatalf("goose: falha ao conectar ao banco: %v\n", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Fatalf("goose: falha ao fechar o banco: %v\n", err)
		}
	}()

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("goose: %v", err)
	}

	arguments := flag.Args()
	if len(arguments) == 0 {
		arguments = []string{"up"}
	}

	command := arguments[0]
	var args []string
	if len(arguments) > 1 {
		args = arguments[1:]
	}

	if err := goose.Run(command, db, migrationsDir, args...); err != nil {
		log.Fatalf("goose %v: %v", command, err)
	}

	fmt.Printf("goose %s: ok\n", command)
}
