// Command smoke drives a running API instance through the full draw
// lifecycle: register, create a dynamic draw, join participants via the
// invite link, trigger execution and wait for completion. Intended for
// manual verification against a local stack.
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

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type client struct {
	base    string
	token   string
	httpCli *http.Client
}

func main() {
	var (
		base    string
		timeout time.Duration
		wait    time.Duration
	)
	flag.StringVar(&base, "base", "http://localhost:8080/api/v1", "API base URL")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.DurationVar(&wait, "wait", 30*time.Second, "How long to wait for draw completion")
	flag.Parse()

	c := &client{base: base, httpCli: &http.Client{Timeout: timeout}}

	email := fmt.Sprintf("smoke-%d@example.com", time.Now().Unix())
	log.Printf("registering %s", email)
	var tokens struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.do(http.MethodPost, "/auth/register", map[string]string{
		"email":    email,
		"password": "smoke-test-password",
	}, &tokens); err != nil {
		log.Fatalf("register failed: %v", err)
	}
	c.token = tokens.AccessToken

	log.Print("creating dynamic draw")
	var created struct {
		DrawID     string `json:"drawId"`
		InviteCode string `json:"inviteCode"`
	}
	if err := c.do(http.MethodPost, "/draws/dynamic", map[string]interface{}{
		"language": "EN",
		"participants": []map[string]string{
			{"firstName": "Smoke", "lastName": "Organizer", "email": email},
		},
	}, &created); err != nil {
		log.Fatalf("create draw failed: %v", err)
	}
	log.Printf("draw %s invite %s", created.DrawID, created.InviteCode)

	for i := 1; i <= 2; i++ {
		if err := c.do(http.MethodPost, "/join/"+created.InviteCode, map[string]string{
			"firstName": fmt.Sprintf("Joiner%d", i),
			"lastName":  "Smoke",
			"email":     fmt.Sprintf("smoke-joiner-%d-%d@example.com", i, time.Now().Unix()),
		}, nil); err != nil {
			log.Fatalf("join %d failed: %v", i, err)
		}
	}
	log.Print("participants joined")

	if err := c.do(http.MethodPost, "/draws/"+created.DrawID+"/trigger", nil, nil); err != nil {
		log.Fatalf("trigger failed: %v", err)
	}
	log.Print("execution triggered, waiting for completion")

	deadline := time.Now().Add(wait)
	for {
		var detail struct {
			Status string `json:"status"`
		}
		if err := c.do(http.MethodGet, "/draws/"+created.DrawID, nil, &detail); err != nil {
			log.Fatalf("fetch detail failed: %v", err)
		}
		if detail.Status == "COMPLETED" {
			log.Print("draw completed, smoke test passed")
			return
		}
		if time.Now().After(deadline) {
			log.Fatalf("draw still %s after %s", detail.Status, wait)
		}
		time.Sleep(time.Second)
	}
}

func (c *client) do(method, path string, payload, out interface{}) error {
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%s %s: status %d, undecodable body", method, path, resp.StatusCode)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		if env.Error != nil {
			return fmt.Errorf("%s %s: %s (%s)", method, path, env.Error.Message, env.Error.Code)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	if out != nil && len(env.Data) > 0 {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}
