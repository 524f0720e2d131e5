//go:build ignore

// Simple HTTP test server for local load-generation runs
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

func main() {
	// Index endpoint the demo profile's fetchIndex task hits
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		response := map[string]interface{}{
			"method": r.Method,
			"url":    r.URL.String(),
			"time":   time.Now().Format(time.RFC3339),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	})

	// Health check endpoint with the "status" field the demo profile asserts
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	port := "8080"
	fmt.Printf("Starting test server on http://localhost:%s\n", port)
	fmt.Println("Endpoints:")
	fmt.Println("  - GET /")
	fmt.Println("  - GET /health")
	fmt.Println()

	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Fatal(err)
	}
}
