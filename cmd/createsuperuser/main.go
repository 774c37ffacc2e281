// Command createsuperuser creates a staff account with superuser rights in
// the configured MySQL database.
//
//	createsuperuser -email admin@example.com [-name Admin]
//
// The password is read from the terminal, or from the first line of stdin
// when stdin is not a terminal.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/iliyamo/recipe-app-api/internal/config"
	"github.com/iliyamo/recipe-app-api/internal/database"
	"github.com/iliyamo/recipe-app-api/internal/repository"
	"github.com/iliyamo/recipe-app-api/internal/service"
)

func main() {
	email := flag.String("email", "", "superuser email (required)")
	name := flag.String("name", "", "display name")
	flag.Parse()

	if err := run(*email, *name, os.Stdin, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "createsuperuser:", err)
		os.Exit(1)
	}
}

func run(email, name string, in *os.File, out io.Writer) error {
	if strings.TrimSpace(email) == "" {
		return errors.New("-email is required")
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Store != config.StoreMySQL {
		return fmt.Errorf("STORE=%s has no persistent users", cfg.Store)
	}

	password, err := readPassword(in, out)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Open(ctx, database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName))
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	users := service.NewUserService(repository.NewUserRepo(db), repository.NewTokenRepo(db), cfg.BcryptCost)
	u, err := users.CreateSuperuser(ctx, email, password, service.UserFields{Name: name})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "superuser %s created (id=%d)\n", u.Email, u.ID)
	return nil
}

func readPassword(in *os.File, out io.Writer) (string, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(out, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}
	fmt.Fprint(out, "Password (again): ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	if len(first) == 0 {
		return "", errors.New("password must not be blank")
	}
	return string(first), nil
}
