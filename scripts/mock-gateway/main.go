package main

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Mock payment provider for local testing. Serves the order-create paths of
// all three gateways and can fire a signed payment.captured webhook back at
// the API so the full settle path can be exercised without real credentials.

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

var (
	webhookURL    = flag.String("webhook-url", "", "when set, POST a signed payment.captured event here after each order")
	webhookSecret = flag.String("webhook-secret", "mock_webhook_secret", "secret used to sign outgoing webhooks")
)

func main() {
	flag.Parse()
	port := ":8081"

	createOrder := func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req struct {
			Amount   int64  `json:"amount"`
			Currency string `json:"currency"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}

		// Simulate slight processing delay
		time.Sleep(1 * time.Millisecond)

		resp := orderResponse{
			ID:       fmt.Sprintf("order_mock_%d", time.Now().UnixNano()),
			Amount:   req.Amount,
			Currency: req.Currency,
			Status:   "created",
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(resp)

		log.Printf("Created mock order: %s (%d %s)", resp.ID, resp.Amount, resp.Currency)

		if *webhookURL != "" {
			go fireWebhook(resp.ID, resp.Amount)
		}
	}

	http.HandleFunc("/orders", createOrder)
	http.HandleFunc("/payment_intents", createOrder)
	http.HandleFunc("/v2/checkout/orders", createOrder)

	log.Printf("Mock gateway server starting on %s...", port)
	if err := http.ListenAndServe(port, nil); err != nil {
		log.Fatal(err)
	}
}

func fireWebhook(orderID string, amount int64) {
	event := map[string]any{
		"event": "payment.captured",
		"payload": map[string]any{
			"payment": map[string]any{
				"entity": map[string]any{
					"id":         fmt.Sprintf("pay_mock_%d", time.Now().UnixNano()),
					"order_id":   orderID,
					"amount":     amount,
					"status":     "captured",
					"created_at": time.Now().Unix(),
				},
			},
		},
	}
	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("webhook marshal failed: %v", err)
		return
	}

	mac := hmac.New(sha256.New, []byte(*webhookSecret))
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	req, err := http.NewRequest(http.MethodPost, *webhookURL, bytes.NewReader(body))
	if err != nil {
		log.Printf("webhook request failed: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-razorpay-signature", signature)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Printf("webhook delivery failed: %v", err)
		return
	}
	defer resp.Body.Close()
	log.Printf("Delivered webhook for %s: %d", orderID, resp.StatusCode)
}
