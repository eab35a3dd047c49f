package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Smoke-checks a running instance: health endpoint, then a workflow open
// against a known package id. Needs the booking backend reachable too.
func main() {
	var baseURL, packageID string
	flag.StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the workflow service")
	flag.StringVar(&packageID, "package", "", "Package id to open a workflow for (skipped when empty)")
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}

	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		log.Fatalf("health check failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("health check returned %d", resp.StatusCode)
	}
	log.Println("health: ok")

	if packageID == "" {
		return
	}

	body, _ := json.Marshal(map[string]string{"package_id": packageID})
	resp, err = client.Post(baseURL+"/api/workflows", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("open workflow failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		log.Fatalf("open workflow returned %d", resp.StatusCode)
	}

	var snap struct {
		ID    string `json:"id"`
		State string `json:"state"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		log.Fatalf("failed to decode snapshot: %v", err)
	}
	fmt.Printf("workflow %s opened in state %s\n", snap.ID, snap.State)
}
