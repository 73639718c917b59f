// Command token prints a signed caller token for local testing.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/apicoin/apicoin/internal/auth"
	"github.com/apicoin/apicoin/internal/config"
)

func main() {
	subject := flag.String("sub", "", "caller identity to embed in the token")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL, cfg.AppName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build issuer: %v\n", err)
		os.Exit(1)
	}
	token, exp, err := issuer.Issue(*subject)
	if err != nil {
		fmt.Fprintf(os.Stderr, "issue token: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "expires %s\n", exp.Format("2006-01-02 15:04:05 MST"))
	fmt.Println(token)
}
