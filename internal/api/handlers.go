package api

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"bruteguard/internal/auth"
	"bruteguard/internal/lockout"
	"bruteguard/internal/models"
	"bruteguard/internal/version"
)

// Kind values accepted in lockout admin routes.
const (
	kindIPs       = "ips"
	kindUsernames = "usernames"
)

// Handlers contains HTTP handlers for the bruteguard API
type Handlers struct {
	guard    lockout.Guard
	creds    *auth.CredentialStore
	security models.SecurityConfig
	started  time.Time
}

// NewHandlers creates a new handlers instance
func NewHandlers(guard lockout.Guard, creds *auth.CredentialStore, security models.SecurityConfig) *Handlers {
	return &Handlers{
		guard:    guard,
		creds:    creds,
		security: security,
		started:  time.Now(),
	}
}

// Login handles authentication attempts
// POST /api/v1/auth/login
//
// The guard is consulted before credentials are checked: a locked IP or
// username gets a 429 without touching the credential store. Failed
// verifications are recorded against both keys; a success resets them.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, r, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid JSON body")
		return
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		h.writeErrorResponse(w, r, http.StatusBadRequest, models.ErrorCodeValidation, err.Error())
		return
	}

	ip := clientIP(r)

	allowed, err := h.guard.Allowed(ip, req.Username)
	if err != nil {
		h.writeErrorResponse(w, r, http.StatusBadRequest, models.ErrorCodeBadRequest, err.Error())
		return
	}
	if !allowed {
		h.writeLockedResponse(w, r, ip, req.Username)
		return
	}

	if !h.creds.Verify(req.Username, req.Password) {
		ipStatus, userStatus, err := h.guard.RecordFailure(ip, req.Username)
		if err != nil {
			h.writeErrorResponse(w, r, http.StatusBadRequest, models.ErrorCodeBadRequest, err.Error())
			return
		}

		slog.Info("Login failed",
			"username", req.Username,
			"ip", ip,
			"ip_locked", ipStatus.Locked,
			"username_locked", userStatus.Locked,
			"request_id", GetRequestID(r))

		if ipStatus.Locked || userStatus.Locked {
			h.writeLockedResponse(w, r, ip, req.Username)
			return
		}

		errorResp := models.NewErrorResponse("Invalid username or password", models.ErrorCodeInvalidCredentials)
		errorResp.RequestID = GetRequestID(r)
		errorResp.Details = map[string]string{
			"remaining_attempts": strconv.Itoa(userStatus.Remaining),
		}
		h.writeJSONResponse(w, http.StatusUnauthorized, errorResp)
		return
	}

	if err := h.guard.Reset(ip, req.Username); err != nil {
		h.writeErrorResponse(w, r, http.StatusInternalServerError, models.ErrorCodeInternalError, err.Error())
		return
	}

	slog.Info("Login succeeded", "username", req.Username, "ip", ip, "request_id", GetRequestID(r))

	h.writeJSONResponse(w, http.StatusOK, &models.LoginResponse{
		Message:  "Login successful",
		Username: req.Username,
	})
}

// LockoutStatus handles lockout inspection requests
// GET /api/v1/lockouts/{kind}/{id}
func (h *Handlers) LockoutStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind := vars["kind"]
	id := vars["id"]

	var st lockout.Status
	var err error
	switch kind {
	case kindIPs:
		st, err = h.guard.IPStatus(id)
	case kindUsernames:
		st, err = h.guard.UserStatus(id)
	default:
		h.writeErrorResponse(w, r, http.StatusNotFound, models.ErrorCodeNotFound, "Unknown lockout kind: "+kind)
		return
	}
	if err != nil {
		h.writeErrorResponse(w, r, http.StatusBadRequest, models.ErrorCodeBadRequest, err.Error())
		return
	}

	h.writeJSONResponse(w, http.StatusOK, statusResponse(kind, id, st))
}

// Unlock handles manual lockout resets
// DELETE /api/v1/lockouts/{kind}/{id}
func (h *Handlers) Unlock(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind := vars["kind"]
	id := vars["id"]

	var err error
	switch kind {
	case kindIPs:
		err = h.guard.ResetIP(id)
	case kindUsernames:
		err = h.guard.ResetUser(id)
	default:
		h.writeErrorResponse(w, r, http.StatusNotFound, models.ErrorCodeNotFound, "Unknown lockout kind: "+kind)
		return
	}
	if err != nil {
		h.writeErrorResponse(w, r, http.StatusBadRequest, models.ErrorCodeBadRequest, err.Error())
		return
	}

	slog.Info("Manual unlock", "kind", kind, "identifier", id, "request_id", GetRequestID(r))

	h.writeJSONResponse(w, http.StatusOK, &models.UnlockResponse{
		Kind:       kind,
		Identifier: id,
		Message:    "Tracking state cleared",
	})
}

// ListLocked handles locked identifier enumeration
// GET /api/v1/lockouts/{kind}
func (h *Handlers) ListLocked(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind := vars["kind"]

	var ids []string
	switch kind {
	case kindIPs:
		ids = h.guard.LockedIPs()
	case kindUsernames:
		ids = h.guard.LockedUsers()
	default:
		h.writeErrorResponse(w, r, http.StatusNotFound, models.ErrorCodeNotFound, "Unknown lockout kind: "+kind)
		return
	}

	if ids == nil {
		ids = []string{}
	}

	h.writeJSONResponse(w, http.StatusOK, &models.LockedListResponse{
		Kind:        kind,
		Identifiers: ids,
		TotalCount:  len(ids),
	})
}

// CreateUser handles credential registration
// POST /api/v1/users
func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, r, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid JSON body")
		return
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		h.writeErrorResponse(w, r, http.StatusBadRequest, models.ErrorCodeValidation, err.Error())
		return
	}

	if err := h.creds.Register(req.Username, req.Password); err != nil {
		if err == auth.ErrUserExists {
			h.writeErrorResponse(w, r, http.StatusConflict, models.ErrorCodeConflict, "Username already registered")
			return
		}
		h.writeErrorResponse(w, r, http.StatusInternalServerError, models.ErrorCodeInternalError, err.Error())
		return
	}

	slog.Info("User registered", "username", req.Username, "request_id", GetRequestID(r))

	h.writeJSONResponse(w, http.StatusCreated, &models.CreateUserResponse{
		Username:  req.Username,
		Message:   "User created",
		CreatedAt: time.Now(),
	})
}

// HealthCheck handles health check requests
// GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := models.NewHealthCheckResponse(models.StatusHealthy)
	response.Version = version.GetInfo().Version
	response.Uptime = time.Since(h.started).Round(time.Second).String()

	response.AddComponent("guard", models.StatusHealthy, "Lockout tracking is operational")
	response.AddComponent("credentials", models.StatusHealthy, "Credential store is operational")
	response.AddComponent("api", models.StatusHealthy, "API is operational")

	response.AddMetric("locked_ips", len(h.guard.LockedIPs()))
	response.AddMetric("locked_usernames", len(h.guard.LockedUsers()))
	response.AddMetric("registered_users", h.creds.Count())

	h.writeJSONResponse(w, http.StatusOK, response)
}

// writeLockedResponse emits the 429 lockout envelope with Retry-After derived
// from whichever key is locked longer.
func (h *Handlers) writeLockedResponse(w http.ResponseWriter, r *http.Request, ip, username string) {
	ipStatus, err := h.guard.IPStatus(ip)
	if err != nil {
		h.writeErrorResponse(w, r, http.StatusBadRequest, models.ErrorCodeBadRequest, err.Error())
		return
	}
	userStatus, err := h.guard.UserStatus(username)
	if err != nil {
		h.writeErrorResponse(w, r, http.StatusBadRequest, models.ErrorCodeBadRequest, err.Error())
		return
	}

	retryAfter := ipStatus.RetryAfter
	if userStatus.RetryAfter > retryAfter {
		retryAfter = userStatus.RetryAfter
	}
	retrySecs := int(retryAfter.Seconds()) + 1

	w.Header().Set("Retry-After", strconv.Itoa(retrySecs))

	errorResp := models.NewErrorResponse("Too many failed attempts, try again later", models.ErrorCodeAccountLocked)
	errorResp.RequestID = GetRequestID(r)
	errorResp.Details = map[string]string{
		"retry_after_seconds": strconv.Itoa(retrySecs),
		"ip_locked":           boolString(ipStatus.Locked),
		"username_locked":     boolString(userStatus.Locked),
	}
	h.writeJSONResponse(w, http.StatusTooManyRequests, errorResp)
}

func statusResponse(kind, id string, st lockout.Status) *models.LockoutStatusResponse {
	resp := &models.LockoutStatusResponse{
		Kind:              strings.TrimSuffix(kind, "s"),
		Identifier:        id,
		Locked:            st.Locked,
		Attempts:          st.Attempts,
		RemainingAttempts: st.Remaining,
	}
	if st.Locked {
		until := st.LockedUntil
		resp.LockedUntil = &until
		resp.RetryAfterSeconds = int(st.RetryAfter.Seconds()) + 1
	}
	return resp
}

// writeJSONResponse writes a JSON response
func (h *Handlers) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already written; nothing left to do but log it.
		slog.Error("Error encoding JSON response", "error", err)
	}
}

// writeErrorResponse writes an error response
func (h *Handlers) writeErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, errorCode, message string) {
	errorResp := models.NewErrorResponse(message, errorCode)
	errorResp.RequestID = GetRequestID(r)

	h.writeJSONResponse(w, statusCode, errorResp)
}

// clientIP extracts the client IP from the request, checking proxy headers.
// The port is stripped from RemoteAddr so one client maps to one lockout key.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
