package remote

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// signedToken builds a user token carrying the given scopes claim.
func signedToken(t *testing.T, scopes any) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": "user"}
	if scopes != nil {
		claims["scopes"] = scopes
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

// fakeBlobServer is an in-memory content-addressed sync server.
type fakeBlobServer struct {
	mu         sync.Mutex
	files      map[string][]byte
	root       rootInfo
	fileReads  int
	completes  int
	conflict   bool
	authHeader string
}

func newFakeBlobServer(t *testing.T) (*fakeBlobServer, *httptest.Server) {
	f := &fakeBlobServer{files: make(map[string][]byte)}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeBlobServer) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authHeader = r.Header.Get("Authorization")

	switch {
	case r.URL.Path == blobRootPath && r.Method == http.MethodGet:
		if f.root.Hash == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(f.root)

	case r.URL.Path == blobRootPath && r.Method == http.MethodPut:
		var req rootUpdate
		_ = json.NewDecoder(r.Body).Decode(&req)
		if f.conflict || req.Generation != f.root.Generation {
			w.WriteHeader(http.StatusPreconditionFailed)
			return
		}
		if _, ok := f.files[req.Hash]; !ok {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.root = rootInfo{Hash: req.Hash, Generation: f.root.Generation + 1}
		_ = json.NewEncoder(w).Encode(f.root)

	case r.URL.Path == blobCompletePath:
		f.completes++
		w.WriteHeader(http.StatusOK)

	case strings.HasPrefix(r.URL.Path, blobFilesPath):
		hash := strings.TrimPrefix(r.URL.Path, blobFilesPath)
		if r.Method == http.MethodPut {
			data, _ := io.ReadAll(r.Body)
			f.files[hash] = data
			w.WriteHeader(http.StatusOK)
			return
		}
		data, ok := f.files[hash]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		f.fileReads++
		_, _ = w.Write(data)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeBlobServer) reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fileReads
}

// seed stores data as a blob and returns its hash.
func (f *fakeBlobServer) seed(data string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	hash := hashOf([]byte(data))
	f.files[hash] = []byte(data)
	return hash
}
