// apicheck exercises the collection API end to end: health probe,
// registration, and a sample receipt submission. Useful when standing up a
// new terminal or debugging connectivity.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/posbridge/receipt-interceptor/internal/api"
	"github.com/posbridge/receipt-interceptor/internal/common"
	"github.com/posbridge/receipt-interceptor/internal/identity"
	"github.com/posbridge/receipt-interceptor/internal/receipt"
)

func main() {
	endpoint := os.Getenv("API_ENDPOINT")
	if endpoint == "" {
		log.Println("ERROR: API_ENDPOINT env var is required")
		log.Println("  example: export API_ENDPOINT=https://collect.example.com/api")
		os.Exit(2)
	}
	apiKey := os.Getenv("API_KEY")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	terminalID := identity.TerminalID()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	client := api.NewClient(endpoint, apiKey, terminalID, 10*time.Second, logger)

	log.Printf("terminal id: %s", terminalID)

	// 1) health
	if err := client.Health(ctx); err != nil {
		log.Printf("health: FAIL (%v)", err)
	} else {
		log.Println("health: OK")
	}

	// 2) registration
	if apiKey == "" {
		resp, err := client.Register(ctx, api.RegistrationRequest{
			TerminalID: terminalID,
			Hostname:   hostname(),
			Platform:   runtime.GOOS,
			Version:    common.Version,
			MACAddress: identity.MACAddress(),
		})
		if err != nil {
			log.Printf("register: FAIL (%v)", err)
		} else if resp.APIKey == "" {
			log.Println("register: declined (no apiKey in response)")
		} else {
			log.Printf("register: OK (location %s)", resp.LocationID)
			client.SetAPIKey(resp.APIKey)
		}
	}

	// 3) sample receipt
	sample := &receipt.Receipt{
		ReceiptID: "TEST-0001",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Items: []receipt.Item{
			{Name: "Test Item", Quantity: 1, Price: 9.99},
		},
		Total:     9.99,
		ItemCount: 1,
	}
	sample.Stamp(terminalID, "")

	resp, err := client.SubmitReceipt(ctx, sample)
	if err != nil {
		log.Fatalf("submit receipt: FAIL (%v)", err)
	}
	log.Printf("submit receipt: OK (%v)", resp)
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}
