package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"ticketchain/internal/adapters/auth/wallet"
	"ticketchain/internal/ports/auth"
	"ticketchain/internal/router"
)

// @title TicketChain API
// @version 1.0
// @description Motor de consistencia multi-store para eventos: ledger, database y object store.
// @BasePath /

func main() {
	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}

	var verifier auth.WalletVerifier
	if base := os.Getenv("WALLET_AUTH_URL"); base != "" {
		wv, err := wallet.NewVerifier(wallet.Config{
			BaseURL: base,
			APIKey:  os.Getenv("WALLET_AUTH_API_KEY"),
		})
		if err != nil {
			log.Fatalf("wallet verifier: %v", err)
		}
		verifier = wv
	} else {
		log.Printf("WALLET_AUTH_URL not set, dev mode: X-Debug-Wallet header habilitado")
	}

	r := router.NewRouter(router.Options{AuthVerifier: verifier})

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Printf("starting server on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}
