// Command devtoken prints a bearer token for local development.
//
//	go run ./cmd/devtoken -user alice -email alice@example.com
//
// The token is signed with JWT_SECRET (or the development default).
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/config"
	"github.com/mmynk/settleup/pkg/logging"
)

func main() {
	user := flag.String("user", "", "user ID to issue the token for")
	email := flag.String("email", "", "optional email claim")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	logging.Setup()

	if *user == "" {
		fmt.Fprintln(os.Stderr, "usage: devtoken -user <id> [-email <email>] [-ttl 24h]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	token, err := auth.NewJWTManager(cfg.JWTSecret, *ttl).Generate(*user, *email)
	if err != nil {
		slog.Error("Failed to issue token", "error", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
