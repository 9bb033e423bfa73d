package main

import (
	"flag"
	"fmt"
	"log"

	"backoffice-api/internal/config"
	"backoffice-api/pkg/jwt"

	"github.com/google/uuid"
)

// issue-token prints a bearer token that attributes API changes to one
// operator. It signs with the same JWT_SECRET the API reads.
func main() {
	id := flag.String("id", "", "operator id (random when empty)")
	name := flag.String("name", "", "operator display name")
	email := flag.String("email", "", "operator email")
	flag.Parse()

	if *name == "" {
		log.Fatal("-name is required")
	}
	if *id == "" {
		*id = uuid.NewString()
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	signer := jwt.NewSigner(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	token, err := signer.GenerateToken(*id, *email, *name)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}

	log.Printf("Token for %s (%s) valid for %s", *name, *id, cfg.JWTTTL)
	fmt.Println(token)
}
