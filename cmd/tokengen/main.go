package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/skRookies2team/Backend-Relay/internal/auth"
	"github.com/skRookies2team/Backend-Relay/internal/config"
)

func main() {
	subject := flag.String("sub", "", "principal id to put in the sub claim (required)")
	expires := flag.String("expires", "1d", "expiry duration (e.g., 30d, 12h)")
	secret := flag.String("secret", "", "HMAC secret (defaults to $JWT_SECRET)")
	flag.Parse()

	if *subject == "" {
		flag.Usage()
		fmt.Fprintln(os.Stderr, "\nerror: -sub is required")
		os.Exit(1)
	}

	key := *secret
	if key == "" {
		key = os.Getenv("JWT_SECRET")
	}
	if len(key) < config.MinSecretBytes {
		log.Fatalf("secret must be at least %d bytes", config.MinSecretBytes)
	}

	dur, err := auth.ParseDuration(*expires)
	if err != nil {
		log.Fatalf("invalid expires: %v", err)
	}

	token, err := auth.IssueToken([]byte(key), *subject, dur)
	if err != nil {
		log.Fatalf("failed to issue token: %v", err)
	}

	fmt.Fprintf(os.Stderr, "subject %s, expires %s\n", *subject, time.Now().Add(dur).UTC().Format(time.RFC3339))
	fmt.Println(token)
}
