// Command admin-token prints a signed bearer token for the /api/admin routes.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	httpapi "whatsapp-catalog-bot/internal/infra/http"
)

type env struct {
	Secret string        `envconfig:"ADMIN_JWT_SECRET"`
	TTL    time.Duration `envconfig:"ADMIN_TOKEN_TTL" default:"24h"`
}

func main() {
	subject := flag.String("sub", "admin", "token subject")
	ttl := flag.Duration("ttl", 0, "token lifetime (defaults to ADMIN_TOKEN_TTL)")
	flag.Parse()

	_ = godotenv.Load()
	var e env
	if err := envconfig.Process("", &e); err != nil {
		log.Fatalf("env: %v", err)
	}
	if e.Secret == "" {
		fmt.Fprintln(os.Stderr, "ADMIN_JWT_SECRET is not set")
		os.Exit(2)
	}
	if *ttl > 0 {
		e.TTL = *ttl
	}

	tok, err := httpapi.NewAuthManager(e.Secret, e.TTL).Mint(*subject)
	if err != nil {
		log.Fatalf("mint: %v", err)
	}
	fmt.Println(tok)
}
