package main

import (
	"flag"
	"log"
	"net/http"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	server := NewServer()
	mux := http.NewServeMux()
	server.RegisterRoutes(mux)

	log.Printf("Server starting on %s...", *addr)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		log.Fatal(err)
	}
}
