package main

// fake_engine mimics the subset of the engine's CLI and HTTP API the
// orchestrator relies on: `serve`, `list`, `pull <model>`.

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

func models() []string {
	v := os.Getenv("FAKE_ENGINE_MODELS")
	if v == "" {
		return nil
	}
	return strings.Split(v, ",")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: fake_engine serve|list|pull <model>")
		os.Exit(2)
	}
	switch os.Args[1] {
	case "serve":
		serve()
	case "list":
		fmt.Println("NAME\tID\tSIZE\tMODIFIED")
		for _, m := range models() {
			fmt.Printf("%s\tabc123\t2.2 GB\t1 day ago\n", m)
		}
	case "pull":
		if len(os.Args) < 3 || strings.HasPrefix(os.Args[2], "bad") {
			fmt.Fprintln(os.Stderr, "Error: pull model manifest: file does not exist")
			os.Exit(1)
		}
		fmt.Println("success")
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		os.Exit(2)
	}
}

func serve() {
	if msg := os.Getenv("FAKE_ENGINE_FAIL"); msg != "" {
		fmt.Fprintln(os.Stderr, msg)
		os.Exit(3)
	}
	addr := os.Getenv("OLLAMA_HOST")
	if addr == "" {
		addr = "127.0.0.1:11434"
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		type model struct {
			Name  string `json:"name"`
			Model string `json:"model"`
		}
		out := struct {
			Models []model `json:"models"`
		}{Models: []model{}}
		for _, m := range models() {
			out.Models = append(out.Models, model{Name: m, Model: m})
		}
		_ = json.NewEncoder(w).Encode(out)
	})
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":    req.Model,
			"response": "READY. This is a canned answer.",
			"done":     true,
		})
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	<-sigCh
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
