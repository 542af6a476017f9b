// Package backendtest runs an in-memory stand-in for the content backend's
// REST API so controller, session and web tests can exercise real HTTP round
// trips.
package backendtest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/vbonduro/shopassist/internal/api"
)

const (
	DefaultEmail    = "admin@shop.test"
	DefaultPassword = "correct-horse"
)

// Resource names accepted by Seed, Record and Count.
const (
	Blogs        = "blogs"
	DemoBookings = "demo-bookings"
	Users        = "users"
	Media        = "media"
)

type collection struct {
	path          string
	defaultStatus string
	publicRead    bool
	publicCreate  bool
	order         []string
	records       map[string]map[string]any
}

type Backend struct {
	server *httptest.Server

	mu          sync.Mutex
	email       string
	password    string
	tokens      map[string]string
	collections map[string]*collection
	failIDs     map[string]bool
	verifyDelay time.Duration
	requests    int
}

// New starts a backend that is shut down when t finishes.
func New(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		email:    DefaultEmail,
		password: DefaultPassword,
		tokens:   make(map[string]string),
		failIDs:  make(map[string]bool),
		collections: map[string]*collection{
			Blogs:        {path: "/api/blogs", defaultStatus: "draft", publicRead: true},
			DemoBookings: {path: "/api/demo-bookings", defaultStatus: "pending", publicCreate: true},
			Users:        {path: "/api/users", defaultStatus: "active"},
			Media:        {path: "/api/upload/images", defaultStatus: "active"},
		},
	}
	for _, c := range b.collections {
		c.records = make(map[string]map[string]any)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", b.handleLogin)
	mux.HandleFunc("GET /api/auth/verify", b.handleVerify)
	mux.HandleFunc("GET /api/blogs/slug/{slug}", b.handleBlogBySlug)
	mux.HandleFunc("POST /api/upload/image", b.handleUpload("image"))
	mux.HandleFunc("POST /api/upload/images", b.handleUpload("images"))
	for name, c := range b.collections {
		b.register(mux, name, c)
	}

	b.server = httptest.NewServer(mux)
	t.Cleanup(b.server.Close)
	return b
}

func (b *Backend) register(mux *http.ServeMux, name string, c *collection) {
	mux.HandleFunc("GET "+c.path, b.handleList(name))
	mux.HandleFunc("GET "+c.path+"/search", b.handleSearch(name))
	mux.HandleFunc("GET "+c.path+"/{id}", b.handleGet(name))
	mux.HandleFunc("PUT "+c.path+"/{id}", b.handleUpdate(name))
	mux.HandleFunc("DELETE "+c.path+"/{id}", b.handleDelete(name))
	if name != Media {
		mux.HandleFunc("POST "+c.path, b.handleCreate(name))
	}
}

func (b *Backend) URL() string {
	return b.server.URL
}

// IssueToken returns a valid token without going through login.
func (b *Backend) IssueToken() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	token := "tok_" + uuid.NewString()
	b.tokens[token] = b.email
	return token
}

// RevokeTokens invalidates every issued token.
func (b *Backend) RevokeTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens = make(map[string]string)
}

// FailIDs makes updates and deletes of the given ids return 500.
func (b *Backend) FailIDs(ids ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range ids {
		b.failIDs[id] = true
	}
}

// SetVerifyDelay makes token verification wait before answering.
func (b *Backend) SetVerifyDelay(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.verifyDelay = d
}

// Seed stores a record directly and returns its id.
func (b *Backend) Seed(resource string, fields map[string]any) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.insert(b.collections[resource], fields)
}

// Record returns a copy of a stored record, or nil.
func (b *Backend) Record(resource, id string) map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.collections[resource].records[id]
	if !ok {
		return nil
	}
	return clone(rec)
}

func (b *Backend) Count(resource string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.collections[resource].order)
}

// Requests returns how many API requests the backend has served.
func (b *Backend) Requests() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests
}

func (b *Backend) insert(c *collection, fields map[string]any) string {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	rec := clone(fields)
	id, _ := rec["id"].(string)
	if id == "" {
		id = strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	}
	rec["id"] = id
	if s, _ := rec["status"].(string); s == "" {
		rec["status"] = c.defaultStatus
	}
	rec["createdAt"] = now
	rec["updatedAt"] = now
	c.records[id] = rec
	c.order = append(c.order, id)
	return id
}

// begin counts the request and checks auth. It returns false after writing
// a 401 when auth is required and missing.
func (b *Backend) begin(w http.ResponseWriter, r *http.Request, needAuth bool) bool {
	b.mu.Lock()
	b.requests++
	_, valid := b.tokens[bearer(r)]
	b.mu.Unlock()

	if needAuth && !valid {
		writeEnvelope(w, http.StatusUnauthorized, false, nil, "Invalid or expired token")
		return false
	}
	return true
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	b.begin(w, r, false)
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeEnvelope(w, http.StatusBadRequest, false, nil, "Invalid request body")
		return
	}
	if in.Email != b.email || in.Password != b.password {
		writeEnvelope(w, http.StatusUnauthorized, false, nil, "Invalid email or password")
		return
	}
	writeEnvelope(w, http.StatusOK, true, map[string]string{"token": b.IssueToken()}, "")
}

func (b *Backend) handleVerify(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	delay := b.verifyDelay
	b.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	if !b.begin(w, r, true) {
		return
	}
	writeEnvelope(w, http.StatusOK, true, api.VerifiedUser{UID: "admin-1", Email: b.email, IsAdmin: true}, "")
}

func (b *Backend) handleList(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := b.collections[name]
		if !b.begin(w, r, !c.publicRead) {
			return
		}
		status := r.URL.Query().Get("status")
		writeEnvelope(w, http.StatusOK, true, b.filter(c, func(rec map[string]any) bool {
			return status == "" || rec["status"] == status
		}), "")
	}
}

func (b *Backend) handleSearch(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := b.collections[name]
		if !b.begin(w, r, !c.publicRead) {
			return
		}
		q := strings.ToLower(r.URL.Query().Get("q"))
		status := r.URL.Query().Get("status")
		writeEnvelope(w, http.StatusOK, true, b.filter(c, func(rec map[string]any) bool {
			if status != "" && rec["status"] != status {
				return false
			}
			for k, v := range rec {
				if s, ok := v.(string); ok && k != "id" && strings.Contains(strings.ToLower(s), q) {
					return true
				}
			}
			return false
		}), "")
	}
}

func (b *Backend) handleGet(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := b.collections[name]
		if !b.begin(w, r, !c.publicRead) {
			return
		}
		rec := b.Record(name, r.PathValue("id"))
		if rec == nil {
			writeEnvelope(w, http.StatusNotFound, false, nil, "Not found")
			return
		}
		writeEnvelope(w, http.StatusOK, true, rec, "")
	}
}

func (b *Backend) handleBlogBySlug(w http.ResponseWriter, r *http.Request) {
	b.begin(w, r, false)
	slug := r.PathValue("slug")
	for _, rec := range b.filter(b.collections[Blogs], func(rec map[string]any) bool {
		return rec["slug"] == slug && rec["status"] == "published"
	}) {
		writeEnvelope(w, http.StatusOK, true, rec, "")
		return
	}
	writeEnvelope(w, http.StatusNotFound, false, nil, "Blog post not found")
}

func (b *Backend) handleCreate(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := b.collections[name]
		if !b.begin(w, r, !c.publicCreate) {
			return
		}
		var fields map[string]any
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			writeEnvelope(w, http.StatusBadRequest, false, nil, "Invalid request body")
			return
		}
		delete(fields, "id")
		if c.publicCreate {
			delete(fields, "status")
		}
		id := b.Seed(name, fields)
		writeEnvelope(w, http.StatusCreated, true, b.Record(name, id), "")
	}
}

func (b *Backend) handleUpdate(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !b.begin(w, r, true) {
			return
		}
		id := r.PathValue("id")
		var fields map[string]any
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			writeEnvelope(w, http.StatusBadRequest, false, nil, "Invalid request body")
			return
		}

		b.mu.Lock()
		defer b.mu.Unlock()
		if b.failIDs[id] {
			writeEnvelope(w, http.StatusInternalServerError, false, nil, "simulated failure")
			return
		}
		rec, ok := b.collections[name].records[id]
		if !ok {
			writeEnvelope(w, http.StatusNotFound, false, nil, "Not found")
			return
		}
		for k, v := range fields {
			if k == "id" || k == "createdAt" || k == "updatedAt" {
				continue
			}
			rec[k] = v
		}
		rec["updatedAt"] = time.Now().UTC().Add(time.Millisecond).Format(time.RFC3339Nano)
		writeEnvelope(w, http.StatusOK, true, clone(rec), "")
	}
}

func (b *Backend) handleDelete(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !b.begin(w, r, true) {
			return
		}
		id := r.PathValue("id")

		b.mu.Lock()
		defer b.mu.Unlock()
		if b.failIDs[id] {
			writeEnvelope(w, http.StatusInternalServerError, false, nil, "simulated failure")
			return
		}
		c := b.collections[name]
		if _, ok := c.records[id]; !ok {
			writeEnvelope(w, http.StatusNotFound, false, nil, "Not found")
			return
		}
		delete(c.records, id)
		c.order = slices.DeleteFunc(c.order, func(s string) bool { return s == id })
		writeEnvelope(w, http.StatusOK, true, nil, "Deleted")
	}
}

func (b *Backend) handleUpload(field string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !b.begin(w, r, true) {
			return
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			writeEnvelope(w, http.StatusBadRequest, false, nil, "Invalid upload")
			return
		}
		headers := r.MultipartForm.File[field]
		if len(headers) == 0 {
			writeEnvelope(w, http.StatusBadRequest, false, nil, "No file uploaded")
			return
		}

		var created []map[string]any
		for _, h := range headers {
			f, err := h.Open()
			if err != nil {
				writeEnvelope(w, http.StatusBadRequest, false, nil, "Invalid upload")
				return
			}
			size, _ := io.Copy(io.Discard, f)
			_ = f.Close()

			filename := uuid.NewString()[:8] + "-" + h.Filename
			id := b.Seed(Media, map[string]any{
				"filename":     filename,
				"originalName": h.Filename,
				"url":          "/uploads/" + filename,
				"mimeType":     h.Header.Get("Content-Type"),
				"size":         size,
			})
			created = append(created, b.Record(Media, id))
		}

		if field == "image" {
			writeEnvelope(w, http.StatusCreated, true, created[0], "")
			return
		}
		writeEnvelope(w, http.StatusCreated, true, created, "")
	}
}

// filter returns matching records newest first.
func (b *Backend) filter(c *collection, keep func(map[string]any) bool) []map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []map[string]any{}
	for i := len(c.order) - 1; i >= 0; i-- {
		rec := c.records[c.order[i]]
		if keep(rec) {
			out = append(out, clone(rec))
		}
	}
	return out
}

func bearer(r *http.Request) string {
	return strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
}

func clone(rec map[string]any) map[string]any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

func writeEnvelope(w http.ResponseWriter, status int, success bool, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(api.Envelope[any]{Success: success, Data: data, Message: message})
}
