package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"resumeforge/internal/auth"
	"resumeforge/internal/config"
	"resumeforge/internal/database"
	"resumeforge/internal/pdf"
)

func main() {
	var (
		doCreateUser = flag.Bool("create-user", false, "create an account and print its generated password")
		doMigrate    = flag.Bool("migrate", false, "run database migrations and exit")
		doCheckTools = flag.Bool("check-tools", false, "probe the external render tool chain and exit")

		email     = flag.String("email", "", "account email (required with -create-user)")
		firstName = flag.String("first-name", "", "account first name")
		lastName  = flag.String("last-name", "", "account last name")

		dbHost  = flag.String("db-host", "", "database host (default: DATABASE_HOST)")
		dbPort  = flag.Int("db-port", 0, "database port (default: DATABASE_PORT)")
		dbName  = flag.String("db-name", "", "database name (default: POSTGRES_DB)")
		dbUser  = flag.String("db-user", "", "database user (default: POSTGRES_USER)")
		dbPass  = flag.String("db-password", "", "database password (default: POSTGRES_PASSWORD)")
		sslMode = flag.String("db-sslmode", "", "database sslmode (default: DATABASE_SSLMODE)")
	)
	flag.Parse()

	switch {
	case *doCheckTools:
		checkTools()
	case *doMigrate:
		db := openDatabase(*dbHost, *dbPort, *dbName, *dbUser, *dbPass, *sslMode)
		if err := database.Migrate(db); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		fmt.Println("migrations applied")
	case *doCreateUser:
		db := openDatabase(*dbHost, *dbPort, *dbName, *dbUser, *dbPass, *sslMode)
		createUser(db, *email, *firstName, *lastName)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func openDatabase(host string, port int, name, user, password, sslmode string) *gorm.DB {
	dbCfg, err := loadDatabaseConfig(host, port, name, user, password, sslmode)
	if err != nil {
		log.Fatalf("load database config: %v", err)
	}
	db, err := database.InitDatabase(dbCfg)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	return db
}

func createUser(db *gorm.DB, email, firstName, lastName string) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		log.Fatal("missing required flag: -email")
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	var existing database.User
	switch err := db.Where("email = ?", email).First(&existing).Error; {
	case err == nil:
		log.Fatalf("user %q already exists", email)
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		log.Fatalf("query user: %v", err)
	}

	password, err := generateRandomPassword(24)
	if err != nil {
		log.Fatalf("generate password: %v", err)
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	user := database.User{
		Email:        email,
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		PasswordHash: hashed,
	}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("create user: %v", err)
	}

	fmt.Printf("account created:\n")
	fmt.Printf("email: %s\n", email)
	fmt.Printf("password: %s\n", password)
	fmt.Printf("note: the password is shown only once.\n")
}

// checkTools probes the external binaries the render pipeline shells
// out to. Exit code 1 when any probe fails.
func checkTools() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	executor := pdf.NewCommandExecutor()
	checks := []struct {
		name string
		bin  string
		args []string
	}{
		{"pdflatex", envOr("LATEX_COMPILER_BIN", "pdflatex"), []string{"--version"}},
		{"pdfinfo", envOr("LATEX_PDFINFO_BIN", "pdfinfo"), []string{"-v"}},
		{"ghostscript", envOr("LATEX_GHOSTSCRIPT_BIN", "gs"), []string{"--version"}},
	}

	failed := false
	for _, check := range checks {
		out, err := executor.Run(ctx, check.bin, check.args...)
		if err != nil {
			failed = true
			fmt.Printf("%-12s FAIL  %v\n", check.name, err)
			continue
		}
		fmt.Printf("%-12s OK    %s\n", check.name, firstLine(out))
	}
	if failed {
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func firstLine(out []byte) string {
	s := strings.TrimSpace(string(out))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func loadDatabaseConfig(host string, port int, name, user, password, sslmode string) (config.DatabaseConfig, error) {
	if strings.TrimSpace(host) == "" {
		host = os.Getenv("DATABASE_HOST")
	}
	if port <= 0 {
		if env := strings.TrimSpace(os.Getenv("DATABASE_PORT")); env != "" {
			p, err := strconv.Atoi(env)
			if err != nil {
				return config.DatabaseConfig{}, fmt.Errorf("parse DATABASE_PORT: %w", err)
			}
			port = p
		}
	}
	if strings.TrimSpace(name) == "" {
		name = os.Getenv("POSTGRES_DB")
	}
	if strings.TrimSpace(user) == "" {
		user = os.Getenv("POSTGRES_USER")
	}
	if strings.TrimSpace(password) == "" {
		password = os.Getenv("POSTGRES_PASSWORD")
	}
	if strings.TrimSpace(sslmode) == "" {
		sslmode = os.Getenv("DATABASE_SSLMODE")
	}

	if strings.TrimSpace(host) == "" {
		host = "localhost"
	}
	if port <= 0 {
		port = 5432
	}
	if strings.TrimSpace(sslmode) == "" {
		sslmode = "disable"
	}
	if strings.TrimSpace(name) == "" {
		return config.DatabaseConfig{}, errors.New("database name is required (POSTGRES_DB)")
	}
	if strings.TrimSpace(user) == "" {
		return config.DatabaseConfig{}, errors.New("database user is required (POSTGRES_USER)")
	}
	if strings.TrimSpace(password) == "" {
		return config.DatabaseConfig{}, errors.New("database password is required (POSTGRES_PASSWORD)")
	}

	return config.DatabaseConfig{
		Host:     host,
		Port:     port,
		Name:     name,
		User:     user,
		Password: password,
		SSLMode:  sslmode,
	}, nil
}

func generateRandomPassword(bytesLen int) (string, error) {
	if bytesLen <= 0 {
		bytesLen = 24
	}
	buf := make([]byte, bytesLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
