package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/a14a-org/claudeskill-manager/internal/server"
)

func main() {
	addr := flag.String("addr", envOr("SKILLSYNC_ADDR", ":8787"), "listen address")
	mongoURI := flag.String("mongo", os.Getenv("SKILLSYNC_MONGO_URI"), "MongoDB URI (empty means file storage)")
	mongoDB := flag.String("db", envOr("SKILLSYNC_MONGO_DB", "skillsync"), "Mongo database name")
	dataDir := flag.String("data", envOr("SKILLSYNC_DATA_DIR", "./skillsync-data"), "file storage directory")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "bearer token lifetime")
	flag.Parse()

	s, err := server.New(context.Background(), server.Config{
		Addr:     *addr,
		MongoURI: *mongoURI,
		MongoDB:  *mongoDB,
		DataDir:  *dataDir,
		TokenTTL: *tokenTTL,
	})
	if err != nil {
		log.Fatal(err)
	}

	backend := "files:" + *dataDir
	if *mongoURI != "" {
		backend = "mongo:" + *mongoDB
	}
	log.Printf("skillsyncd listening on %s (%s)", *addr, backend)
	log.Fatal(http.ListenAndServe(*addr, s.Handler()))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
