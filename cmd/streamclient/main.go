// Command streamclient submits a URL to a running server over the
// /ws/analyze websocket and prints progress as it arrives.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type message struct {
	Type    string          `json:"type"`
	Stage   string          `json:"stage"`
	Message string          `json:"message"`
	Report  json.RawMessage `json:"report"`
	Error   *struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	server := flag.String("server", "localhost:8080", "HTTP server address")
	videoURL := flag.String("url", "https://www.youtube.com/watch?v=3FtGOHUkEzI", "URL to analyze")
	flag.Parse()

	u := url.URL{Scheme: "ws", Host: *server, Path: "/ws/analyze"}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	log.Printf("Connected to %s", u.String())
	start := time.Now()

	if err := conn.WriteJSON(map[string]string{"url": *videoURL}); err != nil {
		log.Fatalf("Failed to send request: %v", err)
	}

	for {
		var m message
		if err := conn.ReadJSON(&m); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return
			}
			log.Fatalf("Failed to read: %v", err)
		}

		switch m.Type {
		case "progress":
			log.Printf("[%s] %s (%v)", m.Stage, m.Message, time.Since(start).Round(time.Second))
		case "report":
			log.Printf("Analysis finished in %v", time.Since(start).Round(time.Second))
			os.Stdout.Write(m.Report)
			os.Stdout.WriteString("\n")
		case "error":
			log.Printf("Analysis failed (%s): %s", m.Error.Kind, m.Error.Message)
			os.Exit(1)
		}
	}
}
