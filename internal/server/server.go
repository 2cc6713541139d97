// Package server is the sync backend: account signup/login, the encrypted
// keyring document and the per-account version chains. It stores and serves
// ciphertext envelopes; no handler here can decrypt anything.
package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/time/rate"

	"github.com/a14a-org/claudeskill-manager/internal/audit"
	"github.com/a14a-org/claudeskill-manager/internal/auth"
	"github.com/a14a-org/claudeskill-manager/internal/storage"
)

type accountStores struct {
	versions storage.VersionStore
	keyring  storage.KeyringStore
}

type Server struct {
	cfg Config

	mux      *http.ServeMux
	signer   *auth.JWTSigner
	accounts auth.AccountStore
	logger   *log.Logger
	audit    *audit.Log

	storageClient *mongo.Client

	mu     sync.Mutex
	stores map[string]accountStores

	rlLoginIP   *multiLimiter
	rlLoginName *multiLimiter
	rlSignupIP  *multiLimiter
}

func New(ctx context.Context, cfg Config) (*Server, error) {
	cfg.setDefaults()

	priv, _, err := auth.GenerateEd25519()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:    cfg,
		mux:    http.NewServeMux(),
		signer: auth.NewJWTSigner(priv, cfg.JWTIssuer, cfg.TokenTTL),
		logger: log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile),
		audit:  audit.New(),
		stores: map[string]accountStores{},
	}

	if cfg.MongoURI != "" {
		cli, err := storage.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		s.storageClient = cli
		s.accounts = auth.NewMongoAccountStore(ctx, cli, cfg.MongoDB)
	} else {
		if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
			return nil, err
		}
		accounts, err := auth.NewFileAccountStore(filepath.Join(cfg.DataDir, "accounts.json"))
		if err != nil {
			return nil, err
		}
		s.accounts = accounts
	}

	perWindow := func(n int, window time.Duration) float64 { return float64(n) / window.Seconds() }
	s.rlLoginIP = newMultiLimiter(rate.Limit(perWindow(10, time.Minute)), 10, time.Hour)
	s.rlLoginName = newMultiLimiter(rate.Limit(perWindow(5, time.Minute)), 5, time.Hour)
	s.rlSignupIP = newMultiLimiter(rate.Limit(perWindow(5, 10*time.Minute)), 5, time.Hour)

	s.routes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Printf("panic: %v", rec)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}()

	s.addDefaultHeaders(w, r)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	path := r.URL.Path
	if strings.HasPrefix(path, "/api/") && !s.isPublic(path) {
		auth.Required(s.signer)(s.mux).ServeHTTP(w, r)
		return
	}
	s.mux.ServeHTTP(w, r)
}

func (s *Server) Handler() http.Handler {
	return s
}

func (s *Server) isPublic(path string) bool {
	switch path {
	case "/health", "/api/health", "/api/signup", "/api/login":
		return true
	default:
		return false
	}
}

func (s *Server) addDefaultHeaders(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
	w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,OPTIONS")
}

// storesFor lazily binds one account's version and keyring stores. The
// account prefix keeps Mongo collections and file-store directories disjoint
// across accounts.
func (s *Server) storesFor(ctx context.Context, account string) accountStores {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.stores[account]; ok {
		return st
	}

	prefix := accountPrefix(account)
	var st accountStores
	if s.storageClient != nil {
		ms := storage.NewMongoStore(ctx, s.storageClient, s.cfg.MongoDB, prefix)
		st = accountStores{versions: ms, keyring: ms}
	} else {
		fs := storage.NewFileStore(filepath.Join(s.cfg.DataDir, prefix))
		st = accountStores{versions: fs, keyring: fs}
	}
	s.stores[account] = st
	return st
}
