// Package channels hosts the browser chat channel: an HTTP server that
// serves the chat page and exposes the session controller's operations as
// JSON endpoints.
package channels

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/lenaai/lenachat/pkg/config"
	"github.com/lenaai/lenachat/pkg/logger"
	"github.com/lenaai/lenachat/pkg/session"
	"github.com/lenaai/lenachat/pkg/store"
)

const sessionCookie = "lenachat_session"

// maxVoiceUpload bounds a single browser voice blob.
const maxVoiceUpload = 16 << 20

// WebChat serves the chat UI and its API. One controller, one visitor
// log: the channel is a single-user prototype surface, not a multi-tenant
// server.
type WebChat struct {
	config   config.WebChatConfig
	ctrl     *session.Controller
	mediaDir string
	server   *http.Server

	mu       sync.Mutex
	sessions map[string]time.Time     // token -> expiry
	limiters map[string]*rate.Limiter // client IP -> bucket
}

func NewWebChat(cfg config.WebChatConfig, ctrl *session.Controller, mediaDir string) *WebChat {
	return &WebChat{
		config:   cfg,
		ctrl:     ctrl,
		mediaDir: mediaDir,
		sessions: make(map[string]time.Time),
		limiters: make(map[string]*rate.Limiter),
	}
}

type sendRequest struct {
	Message string `json:"message"`
}

type likeRequest struct {
	PropertyID string `json:"property_id"`
}

type turnResponse struct {
	Identity string          `json:"identity"`
	Messages []store.Message `json:"messages"`
}

func (c *WebChat) Start(ctx context.Context) error {
	c.ctrl.Start()

	addr := fmt.Sprintf("%s:%d", c.config.Host, c.config.Port)
	c.server = &http.Server{Addr: addr, Handler: c.routes()}

	logger.InfoCF("channels", "WebChat started", map[string]interface{}{
		"addr": addr, "auth": c.authEnabled(),
	})

	go func() {
		if err := c.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.ErrorCF("channels", "WebChat server error", map[string]interface{}{"error": err.Error()})
		}
	}()

	return nil
}

func (c *WebChat) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", c.requireAuth(c.handleUI))
	mux.HandleFunc("/u/", c.requireAuth(c.handleUnit))
	mux.HandleFunc("/chat/send", c.requireAuthAPI(c.limited(c.handleSend)))
	mux.HandleFunc("/chat/voice", c.requireAuthAPI(c.limited(c.handleVoice)))
	mux.HandleFunc("/chat/like", c.requireAuthAPI(c.limited(c.handleLike)))
	mux.HandleFunc("/chat/clear", c.requireAuthAPI(c.limited(c.handleClear)))
	mux.HandleFunc("/chat/history", c.requireAuthAPI(c.handleHistory))
	mux.Handle("/media/", c.requireAuthAPI(
		http.StripPrefix("/media/", http.FileServer(http.Dir(c.mediaDir))).ServeHTTP))
	mux.HandleFunc("/login", c.handleLogin)
	mux.HandleFunc("/logout", c.handleLogout)
	return mux
}

func (c *WebChat) Stop(ctx context.Context) error {
	if c.server != nil {
		return c.server.Shutdown(ctx)
	}
	return nil
}

// authEnabled returns true when both username and password are configured.
func (c *WebChat) authEnabled() bool {
	return c.config.Username != "" && c.config.Password != ""
}

// createSession generates a random session token and stores it.
func (c *WebChat) createSession() string {
	b := make([]byte, 32)
	rand.Read(b)
	token := hex.EncodeToString(b)
	c.mu.Lock()
	c.sessions[token] = time.Now().Add(24 * time.Hour)
	c.mu.Unlock()
	return token
}

// validSession checks if the request carries a valid session cookie.
func (c *WebChat) validSession(r *http.Request) bool {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return false
	}
	c.mu.Lock()
	expiry, ok := c.sessions[cookie.Value]
	c.mu.Unlock()
	return ok && time.Now().Before(expiry)
}

// requireAuth wraps a page handler. When auth is not configured it passes
// through.
func (c *WebChat) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !c.authEnabled() || c.validSession(r) {
			next(w, r)
			return
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}

// requireAuthAPI is like requireAuth but returns 401 JSON for API endpoints.
func (c *WebChat) requireAuthAPI(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !c.authEnabled() || c.validSession(r) {
			next(w, r)
			return
		}
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
}

// limited applies the per-IP token bucket to an API handler.
func (c *WebChat) limited(next http.HandlerFunc) http.HandlerFunc {
	if c.config.RatePerMinute <= 0 {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if !c.limiter(clientIP(r)).Allow() {
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limited"})
			return
		}
		next(w, r)
	}
}

func (c *WebChat) limiter(ip string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	lim, ok := c.limiters[ip]
	if !ok {
		per := rate.Every(time.Minute / time.Duration(c.config.RatePerMinute))
		lim = rate.NewLimiter(per, c.config.RatePerMinute)
		c.limiters[ip] = lim
	}
	return lim
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (c *WebChat) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !c.authEnabled() || c.validSession(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if r.Method == http.MethodGet {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, loginPage(""))
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.ParseForm()
	user := r.FormValue("username")
	pass := r.FormValue("password")

	userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(c.config.Username)) == 1
	passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(c.config.Password)) == 1
	if !userMatch || !passMatch {
		logger.WarnCF("channels", "WebChat login failed", map[string]interface{}{"remote": r.RemoteAddr})
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, loginPage("Invalid username or password"))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    c.createSession(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   86400,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (c *WebChat) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		c.mu.Lock()
		delete(c.sessions, cookie.Value)
		c.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (c *WebChat) handleUI(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, chatHTML)
}

// handleUnit is the unit deep-link entry: seed the conversation from the
// listing, then land on the chat page.
func (c *WebChat) handleUnit(w http.ResponseWriter, r *http.Request) {
	unitID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/u/"), "/")
	if unitID == "" {
		http.NotFound(w, r)
		return
	}
	c.ctrl.SeedFromUnit(r.Context(), unitID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (c *WebChat) handleSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad request"})
		return
	}

	msgs := c.ctrl.SendText(r.Context(), req.Message)
	writeJSON(w, http.StatusOK, turnResponse{Identity: c.ctrl.Identity(), Messages: nonNil(msgs)})
}

func (c *WebChat) handleVoice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(maxVoiceUpload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad upload"})
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing file"})
		return
	}
	defer file.Close()

	blob, err := io.ReadAll(io.LimitReader(file, maxVoiceUpload))
	if err != nil || len(blob) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "empty audio"})
		return
	}

	msgs := c.ctrl.SendVoice(r.Context(), blob)
	writeJSON(w, http.StatusOK, turnResponse{Identity: c.ctrl.Identity(), Messages: nonNil(msgs)})
}

func (c *WebChat) handleLike(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req likeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PropertyID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad request"})
		return
	}

	msgs := c.ctrl.LikeProperty(r.Context(), req.PropertyID)
	writeJSON(w, http.StatusOK, turnResponse{Identity: c.ctrl.Identity(), Messages: nonNil(msgs)})
}

func (c *WebChat) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := c.ctrl.Clear()
	writeJSON(w, http.StatusOK, map[string]string{"identity": id})
}

func (c *WebChat) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, turnResponse{
		Identity: c.ctrl.Identity(),
		Messages: nonNil(c.ctrl.Messages()),
	})
}

func nonNil(msgs []store.Message) []store.Message {
	if msgs == nil {
		return []store.Message{}
	}
	return msgs
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
