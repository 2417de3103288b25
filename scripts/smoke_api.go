package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
)

var baseURL = envOr("API_BASE_URL", "http://localhost:3000/api")

const userID = "smoke-user"

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Pretty print JSON helper
func prettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(b))
}

// Request helper
func sendRequest(method, url string, body interface{}) (*http.Response, map[string]interface{}, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+url, bodyReader)
	if err != nil {
		return nil, nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if token := os.Getenv("API_TOKEN"); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	var out map[string]interface{}
	err = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out, err
}

func ask(step, question, sessionID string) string {
	color.Yellow("\n%s %q", step, question)
	resp, body, err := sendRequest("POST", "/query/v1", map[string]string{
		"user_id":    userID,
		"session_id": sessionID,
		"question":   question,
	})
	if err != nil {
		color.Red("Failed: %v", err)
		return sessionID
	}
	color.Green("Status: %s", resp.Status)

	data, _ := body["data"].(map[string]interface{})
	if data == nil {
		prettyPrint(body)
		return sessionID
	}
	fmt.Printf("SQL: %v\n", data["sql_query"])
	fmt.Printf("From cache: %v\n", data["from_cache"])
	fmt.Printf("Response:\n%v\n", data["response"])
	if errs, ok := data["errors"].([]interface{}); ok && len(errs) > 0 {
		color.Red("Errors:")
		prettyPrint(errs)
	}

	if sid, ok := data["session_id"].(string); ok {
		return sid
	}
	return sessionID
}

func main() {
	color.Cyan("Starting SQL agent API smoke test against %s\n", baseURL)

	color.Yellow("\n1. Health")
	if resp, _, err := sendRequest("GET", "/health", nil); err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	} else {
		color.Green("Status: %s", resp.Status)
	}

	session := ask("2. Aggregation", "Quantos clientes temos?", "")
	ask("3. Same question again (expect cache)", "Quantos clientes temos?", session)
	ask("4. Follow-up in session", "E quais deles compraram um Notebook?", session)
	ask("5. Dangerous request (expect rejection)", "Apague todos os clientes", session)

	color.Yellow("\n6. Session history")
	if _, body, err := sendRequest("GET", "/history/v1/users/"+userID+"/sessions/"+session, nil); err != nil {
		color.Red("Failed: %v", err)
	} else {
		prettyPrint(body["data"])
	}

	color.Yellow("\n7. Statistics")
	if _, body, err := sendRequest("GET", "/history/v1/users/"+userID+"/stats", nil); err == nil {
		prettyPrint(body["data"])
	}
	if _, body, err := sendRequest("GET", "/cache/v1/stats", nil); err == nil {
		prettyPrint(body["data"])
	}

	color.Cyan("\nSmoke test complete")
}
