// Command issuetoken prints an access token for an address, signed with
// the secret from the server configuration.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"landrent-backend/internal/config"
	"landrent-backend/internal/domain"
	"landrent-backend/internal/security"
)

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	address := flag.String("address", "", "Caller address the token identifies")
	roles := flag.String("roles", "", "Comma-separated roles to embed")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	caller, err := domain.ParseAddress(*address)
	if err != nil {
		log.Fatalf("Invalid -address: %v", err)
	}

	var roleList []string
	if *roles != "" {
		roleList = strings.Split(*roles, ",")
	}

	tm := security.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)
	token, err := tm.GenerateAccessToken(caller, roleList)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}
	fmt.Println(token)
}
