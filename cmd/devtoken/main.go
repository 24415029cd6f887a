// Command devtoken mints HS256 access tokens accepted by the exam service when
// it runs with JWT_SECRET, for local development and integration scripts.
//
//	JWT_SECRET=... devtoken -sub alice -ttl 1h
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/onlineexam/exam-service/internal/config"
	"github.com/onlineexam/exam-service/internal/models"
	"github.com/onlineexam/exam-service/internal/tokens"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		// -secret may still supply what is missing
		cfg = &config.Config{}
		cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	}
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, cfg))
}

func run(args []string, stdout, stderr io.Writer, cfg *config.Config) int {
	fs := flag.NewFlagSet("devtoken", flag.ContinueOnError)
	fs.SetOutput(stderr)

	sub := fs.String("sub", "", "Subject (owner id) of the token")
	email := fs.String("email", "", "Email claim")
	name := fs.String("name", "", "Name claim")
	ttl := fs.Duration("ttl", time.Hour, "Token lifetime")
	secret := fs.String("secret", "", "Signing secret (defaults to JWT_SECRET)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *sub == "" {
		fmt.Fprintln(stderr, "Error: -sub is required")
		return 1
	}
	if *ttl <= 0 {
		fmt.Fprintln(stderr, "Error: -ttl must be positive")
		return 1
	}
	if *secret != "" {
		cfg.JWT.Secret = *secret
	}

	tok, err := tokens.GenerateAccessToken(cfg, &models.User{Sub: *sub, Email: *email, Name: *name}, *ttl)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, tok)
	return 0
}
