//go:build ignore

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sanitation-complaints/internal/pkg/auth"
)

// Issues a development token:
//
//	go run scripts/issue_token.go -staff 700
//	go run scripts/issue_token.go -mobile 9876543210
func main() {
	staffID := flag.Int64("staff", 0, "position holder id")
	mobile := flag.String("mobile", "", "citizen mobile number")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	issuer := flag.String("issuer", "sanitation-complaints", "token issuer")
	audience := flag.String("audience", "sanitation-api", "token audience")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is not set")
	}
	tokens := auth.NewTokenService(secret, *issuer, *audience)

	var (
		token string
		err   error
	)
	switch {
	case *staffID > 0:
		token, err = tokens.IssueStaffToken(*staffID, *ttl)
	case *mobile != "":
		token, err = tokens.IssueCitizenToken(*mobile, *ttl)
	default:
		log.Fatal("one of -staff or -mobile is required")
	}
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}

	fmt.Println(token)
}
