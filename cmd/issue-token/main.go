package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/academie/admission-backend/internal/config"
	"github.com/academie/admission-backend/internal/model"
	"github.com/academie/admission-backend/internal/service"
	"github.com/google/uuid"
	"golang.org/x/term"
)

// issue-token mints a principal token for local development and the e2e suite.
// Production tokens come from the identity provider.
func main() {
	var (
		roleFlag = flag.String("role", "", "Role: CANDIDAT, INSTRUCTEUR, SUPERVISEUR or DIRECTEUR")
		subFlag  = flag.String("sub", "", "Principal id (uuid); random when empty")
		ttl      = flag.Duration("ttl", 0, "Token lifetime; defaults to JWT_EXPIRY_HOURS")
	)
	flag.Parse()

	cfg := config.Load()
	reader := bufio.NewReader(os.Stdin)

	// Role
	role := model.Role(strings.ToUpper(strings.TrimSpace(*roleFlag)))
	if role == "" {
		fmt.Fprint(os.Stderr, "Enter Role (CANDIDAT/INSTRUCTEUR/SUPERVISEUR/DIRECTEUR): ")
		line, _ := reader.ReadString('\n')
		role = model.Role(strings.ToUpper(strings.TrimSpace(line)))
	}
	if !role.Valid() {
		exitf("unknown role %q", role)
	}

	// Subject
	id := uuid.New()
	if *subFlag != "" {
		parsed, err := uuid.Parse(*subFlag)
		if err != nil {
			exitf("invalid -sub: %v", err)
		}
		id = parsed
	}

	// Secret
	secret := cfg.JWTSecret
	if secret == "" {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			exitf("JWT_SECRET is not set and stdin is not a terminal")
		}
		fmt.Fprint(os.Stderr, "Enter JWT secret: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			exitf("read secret: %v", err)
		}
		secret = strings.TrimSpace(string(raw))
	}
	if secret == "" {
		exitf("secret is required")
	}

	expiry := cfg.JWTExpiry
	if *ttl > 0 {
		expiry = *ttl
	}

	token, err := service.NewTokenService(secret, expiry).Issue(model.Principal{ID: id, Role: role})
	if err != nil {
		exitf("sign token: %v", err)
	}

	fmt.Fprintf(os.Stderr, "principal %s (%s), expires %s\n", id, role, time.Now().Add(expiry).Format(time.RFC3339))
	fmt.Println(token)
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "issue-token: "+format+"\n", args...)
	os.Exit(1)
}
