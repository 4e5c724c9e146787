// Talentsync Webhook Sender Example
//
// This is a minimal example of how to send a signed test delivery to a
// talentsync deployment, the same way Clerk (via svix) would.
//
// Usage:
//   export CLERK_WEBHOOK_SECRET="whsec_your_secret_here"
//   go run main.go -url http://localhost:8080/clerk-webhook -clerk-id user_123 -email test@example.com

package main

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

type emailAddress struct {
	EmailAddress string `json:"email_address"`
}

type userData struct {
	ID             string         `json:"id"`
	EmailAddresses []emailAddress `json:"email_addresses"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
}

type event struct {
	Type string   `json:"type"`
	Data userData `json:"data"`
}

func main() {
	var (
		url       = flag.String("url", "http://localhost:8080/clerk-webhook", "Webhook endpoint URL")
		clerkID   = flag.String("clerk-id", "user_test_1", "Clerk user id to send")
		email     = flag.String("email", "test@example.com", "Email address to send")
		firstName = flag.String("first-name", "Test", "First name")
		lastName  = flag.String("last-name", "User", "Last name")
	)
	flag.Parse()

	secret := os.Getenv("CLERK_WEBHOOK_SECRET")
	if secret == "" {
		log.Fatal("CLERK_WEBHOOK_SECRET environment variable is required")
	}

	body, err := json.Marshal(event{
		Type: "user.created",
		Data: userData{
			ID:             *clerkID,
			EmailAddresses: []emailAddress{{EmailAddress: *email}},
			FirstName:      *firstName,
			LastName:       *lastName,
		},
	})
	if err != nil {
		log.Fatalf("marshal payload: %v", err)
	}

	msgID := fmt.Sprintf("msg_%d", time.Now().UnixNano())
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	signature, err := sign(secret, msgID, timestamp, body)
	if err != nil {
		log.Fatalf("sign payload: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, *url, bytes.NewReader(body))
	if err != nil {
		log.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("svix-id", msgID)
	req.Header.Set("svix-timestamp", timestamp)
	req.Header.Set("svix-signature", signature)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("send request: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	log.Printf("%s %s", resp.Status, strings.TrimSpace(string(respBody)))
}

// sign computes the svix signature: HMAC-SHA256 over "{msg_id}.{timestamp}.{body}"
// with the base64 part of the whsec_ secret as key.
func sign(secret, msgID, timestamp string, body []byte) (string, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(secret, "whsec_"))
	if err != nil {
		return "", fmt.Errorf("secret is not valid base64: %w", err)
	}

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(msgID))
	mac.Write([]byte{'.'})
	mac.Write([]byte(timestamp))
	mac.Write([]byte{'.'})
	mac.Write(body)

	return "v1," + base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}
