package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/hualidepianju/ElderEnglishLearner/chatclient"
)

const (
	BaseURL   = "http://localhost:8080"
	WSURL     = "ws://localhost:8080/ws"
	RoomID    = 1   // Seed a room via /api/admin/chat/rooms first.
	UserCount = 100 // ⚠️ Start small. Database might choke on 1000 immediately.
	MsgCount  = 20  // Messages per user
)

type loginResponse struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

func main() {
	log.Printf("🔥 STARTING STRESS TEST: %d users, %d messages each, room %d...", UserCount, MsgCount, RoomID)
	var wg sync.WaitGroup

	for i := 0; i < UserCount; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			runUser(n)
		}(i)
	}

	wg.Wait()
	log.Println("✅ LOAD TEST COMPLETE")
}

func runUser(n int) {
	username := fmt.Sprintf("loadtest_u%d", n)
	pass := "password123"

	cookie, userID := authenticate(username, pass)
	if cookie == "" {
		return
	}

	header := http.Header{}
	header.Set("Cookie", cookie)
	mgr := chatclient.NewManager(chatclient.Options{
		URL:    WSURL,
		Header: header,
	})
	defer mgr.CloseAll()

	conn := mgr.Connect(RoomID, userID)
	feed := chatclient.NewFeed(userID)

	// Wait for the join to go out before spamming.
	deadline := time.After(10 * time.Second)
	for !conn.Connected() {
		select {
		case <-deadline:
			log.Printf("❌ [%s] never connected", username)
			return
		case <-time.After(50 * time.Millisecond):
		}
	}

	// Drain events in the background so the buffer never fills up.
	go func() {
		for ev := range conn.Events() {
			if ev.Kind == chatclient.EventMessage && ev.Message != nil {
				feed.Apply(*ev.Message)
			}
		}
	}()

	for i := 0; i < MsgCount; i++ {
		content := fmt.Sprintf("hello from %s #%d", username, i)
		clientID := feed.AppendLocal(RoomID, "text", content)
		if err := conn.Send("text", content, clientID); err != nil {
			log.Printf("❌ [%s] send failed: %v", username, err)
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// authenticate registers (ignoring "already exists") and logs in,
// returning the session cookie and user id.
func authenticate(username, password string) (string, int) {
	creds := map[string]string{"username": username, "password": password}

	resp, err := postJSON("/api/register", creds)
	if err == nil {
		resp.Body.Close()
	}

	resp, err = postJSON("/api/login", creds)
	if err != nil {
		log.Printf("❌ Login failed [%s]: %v", username, err)
		return "", 0
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("❌ Login rejected [%s]: %s", username, resp.Status)
		return "", 0
	}

	var data loginResponse
	json.NewDecoder(resp.Body).Decode(&data)

	for _, c := range resp.Cookies() {
		if c.Name == "session" {
			return c.Name + "=" + c.Value, data.ID
		}
	}
	log.Printf("❌ No session cookie for [%s]", username)
	return "", 0
}

func postJSON(path string, body interface{}) (*http.Response, error) {
	data, _ := json.Marshal(body)
	return http.Post(BaseURL+path, "application/json", bytes.NewReader(data))
}
