// Command admin-token prints a signed role token for operators and
// integrations. It reads the same config as the server:
//
//	admin-token -sub ops@fusaf.org.ua -role admin -ttl 72h
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/fusaf/fusaf-service/internal/auth"
	"github.com/fusaf/fusaf-service/internal/config"
)

func main() {
	_ = godotenv.Load()

	var (
		cfgPath = flag.String("config", "config.yaml", "path to config.yaml")
		subject = flag.String("sub", "", "token subject (athlete id for athletes, an email otherwise)")
		role    = flag.String("role", auth.RoleAdmin, "one of athlete, coach, judge, club_owner, admin")
		ttl     = flag.Duration("ttl", 0, "token lifetime (default: auth.token_ttl_hours)")
	)
	flag.Parse()

	if *subject == "" {
		flag.Usage()
		os.Exit(2)
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("❌ Config loading failed: %v", err)
	}
	if cfg.Auth.JWTSecret == "" {
		log.Fatal("❌ auth.jwt_secret is not set (APP_AUTH_JWT_SECRET); the server would reject this token")
	}
	m, err := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, time.Duration(cfg.Auth.TokenTTL)*time.Hour)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	token, exp, err := m.Issue(*subject, *role, *ttl)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires %s\n", exp.Format(time.RFC3339))
}
