package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/GenACT-Africa/swahiba-web-sub001/internal/auth"
	"github.com/GenACT-Africa/swahiba-web-sub001/internal/metrics"
	"github.com/GenACT-Africa/swahiba-web-sub001/internal/models"
	"github.com/GenACT-Africa/swahiba-web-sub001/internal/store"
)

type Handler struct {
	store     store.Store
	resolver  *auth.Resolver
	tokens    *auth.TokenManager
	feedLimit int
	metrics   metrics.Metrics
}

type Options struct {
	FeedLimit int
	Metrics   metrics.Metrics
}

func NewHandler(st store.Store, resolver *auth.Resolver, tokens *auth.TokenManager, options Options) *Handler {
	limit := options.FeedLimit
	if limit <= 0 {
		limit = 20
	}
	m := options.Metrics
	if m == nil {
		m = metrics.Noop{}
	}
	return &Handler{store: st, resolver: resolver, tokens: tokens, feedLimit: limit, metrics: m}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.HandleFunc("/api/auth/anonymous", h.handleAnonymous)
	mux.HandleFunc("/api/auth/login", h.handleLogin)
	mux.HandleFunc("/api/packs/available", h.handleAvailablePacks)
	mux.HandleFunc("/api/packs/claim", h.handleClaimPack)
	mux.HandleFunc("/api/requests/open", h.handleOpenRequests)
	mux.HandleFunc("/api/notifications/list", h.handleListNotifications)
	mux.HandleFunc("/api/notifications/read", h.handleMarkRead)
	mux.HandleFunc("/api/notifications/read-all", h.handleMarkAllRead)
	return CORSMiddleware(mux)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
}

type availablePacksRequest struct {
	PackType string `json:"pack_type"`
}

type packListResponse struct {
	Packs []models.Pack     `json:"packs"`
	Items []models.PackItem `json:"items"`
}

func (h *Handler) handleAvailablePacks(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req availablePacksRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.PackType = strings.TrimSpace(req.PackType)
	if req.PackType == "" {
		writeError(w, http.StatusBadRequest, "missing pack_type", "")
		return
	}

	packs, err := h.store.ListAvailablePacks(r.Context(), req.PackType)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	ids := make([]string, 0, len(packs))
	for _, pack := range packs {
		ids = append(ids, pack.PackID)
	}
	items, err := h.store.ListPackItems(r.Context(), ids)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, packListResponse{
		Packs: emptyIfNilPacks(packs),
		Items: emptyIfNilItems(items),
	})
}

type claimPackRequest struct {
	PackNo   string `json:"pack_no"`
	DeviceID string `json:"device_id"`
}

type claimPackResponse struct {
	Pack  *models.Pack      `json:"pack"`
	Items []models.PackItem `json:"items"`
}

func (h *Handler) handleClaimPack(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req claimPackRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.PackNo = strings.TrimSpace(req.PackNo)
	req.DeviceID = strings.TrimSpace(req.DeviceID)
	if req.PackNo == "" {
		writeError(w, http.StatusBadRequest, "missing pack_no", "")
		return
	}

	ownerID, ok := h.claimIdentity(w, r, req.DeviceID)
	if !ok {
		return
	}

	pack, claimed, err := h.store.ClaimPack(r.Context(), store.ClaimPackInput{
		PackNo:    req.PackNo,
		OwnerID:   ownerID,
		ClaimedAt: time.Now().UTC(),
	})
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if !claimed {
		// Already owned, inactive, or absent: an expected steady-state
		// outcome, not an error.
		h.metrics.IncClaim("empty")
		writeJSON(w, http.StatusOK, claimPackResponse{Pack: nil, Items: []models.PackItem{}})
		return
	}
	h.metrics.IncClaim("claimed")

	// The item read is deliberately outside the claim: manifests are
	// immutable after pack creation, so staleness here cannot produce a
	// wrong assignment, only an incomplete display.
	items, err := h.store.ListPackItems(r.Context(), []string{pack.PackID})
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, claimPackResponse{Pack: &pack, Items: emptyIfNilItems(items)})
}

// claimIdentity resolves who the claim is for: the bearer principal when a
// token is present, otherwise the anonymous identity for the supplied
// device id.
func (h *Handler) claimIdentity(w http.ResponseWriter, r *http.Request, deviceID string) (string, bool) {
	if token := bearerToken(r.Header.Get("Authorization")); token != "" {
		principal, err := h.resolver.Resolve(r.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrUnauthenticated) {
				writeError(w, http.StatusUnauthorized, "invalid token", "")
				return "", false
			}
			writeInternalError(w, err)
			return "", false
		}
		return principal.UserID, true
	}
	if deviceID == "" {
		writeError(w, http.StatusUnauthorized, "missing identity", "supply a bearer token or device_id")
		return "", false
	}
	profile, err := h.store.EnsureIdentity(r.Context(), deviceID)
	if err != nil {
		writeInternalError(w, err)
		return "", false
	}
	return profile.UserID, true
}

type openRequestsResponse struct {
	Data []models.ServiceRequest `json:"data"`
}

func (h *Handler) handleOpenRequests(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	principal, resolveErr := h.resolvePrincipal(r)
	decision := auth.Authorize(principal, resolveErr, []string{models.RoleSwahiba}, true)
	if !decision.Allowed {
		writeDenied(w, decision)
		return
	}

	requests, err := h.store.ListOpenRequests(r.Context(), principal.UserID)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if requests == nil {
		requests = []models.ServiceRequest{}
	}
	writeJSON(w, http.StatusOK, openRequestsResponse{Data: requests})
}

type anonymousRequest struct {
	DeviceID string `json:"device_id"`
}

type authResponse struct {
	Token   string         `json:"token"`
	Profile models.Profile `json:"profile"`
}

func (h *Handler) handleAnonymous(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req anonymousRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.DeviceID = strings.TrimSpace(req.DeviceID)
	if req.DeviceID == "" {
		writeError(w, http.StatusBadRequest, "missing device_id", "")
		return
	}

	profile, err := h.store.EnsureIdentity(r.Context(), req.DeviceID)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	token, err := h.tokens.Issue(profile.UserID, profile.Role)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: token, Profile: profile})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing credentials", "email and password are required")
		return
	}

	profile, err := h.store.Login(r.Context(), store.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		if errors.Is(err, store.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials", "")
			return
		}
		writeInternalError(w, err)
		return
	}
	if profile.Banned {
		writeError(w, http.StatusForbidden, "banned", "")
		return
	}
	token, err := h.tokens.Issue(profile.UserID, profile.Role)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: token, Profile: profile})
}

func (h *Handler) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	principal, resolveErr := h.resolvePrincipal(r)
	decision := auth.Authorize(principal, resolveErr, nil, true)
	if !decision.Allowed {
		writeDenied(w, decision)
		return
	}

	notifications, err := h.store.ListNotifications(r.Context(), principal.UserID, h.feedLimit)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	unread := 0
	for _, n := range notifications {
		if !n.Read {
			unread++
		}
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": notifications,
		"unread_count":  unread,
	})
}

type markReadRequest struct {
	ID string `json:"id"`
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	principal, resolveErr := h.resolvePrincipal(r)
	decision := auth.Authorize(principal, resolveErr, nil, true)
	if !decision.Allowed {
		writeDenied(w, decision)
		return
	}

	var req markReadRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.ID = strings.TrimSpace(req.ID)
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "missing id", "")
		return
	}

	// Local state is not updated here: the row update fires the change feed
	// and the feed refetch is what moves every open session forward.
	if err := h.store.MarkNotificationRead(r.Context(), principal.UserID, req.ID); err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	principal, resolveErr := h.resolvePrincipal(r)
	decision := auth.Authorize(principal, resolveErr, nil, true)
	if !decision.Allowed {
		writeDenied(w, decision)
		return
	}

	if err := h.store.MarkAllNotificationsRead(r.Context(), principal.UserID); err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) resolvePrincipal(r *http.Request) (auth.Principal, error) {
	return h.resolver.Resolve(r.Context(), bearerToken(r.Header.Get("Authorization")))
}

func decodeBody(w http.ResponseWriter, r *http.Request, target any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload", "")
		return false
	}
	return true
}

func writeDenied(w http.ResponseWriter, decision auth.Decision) {
	switch decision.Reason {
	case auth.DenyNotAuthenticated:
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid credential")
	case auth.DenyBanned:
		writeError(w, http.StatusForbidden, "forbidden", "account is banned")
	case auth.DenyRoleNotPermitted:
		writeError(w, http.StatusForbidden, "forbidden", "role not permitted")
	default:
		// Lookup failures fail closed as a server-side error, never as an
		// anonymous allow.
		writeError(w, http.StatusInternalServerError, "internal error", "profile lookup failed")
	}
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "internal error", err.Error())
}

func emptyIfNilPacks(packs []models.Pack) []models.Pack {
	if packs == nil {
		return []models.Pack{}
	}
	return packs
}

func emptyIfNilItems(items []models.PackItem) []models.PackItem {
	if items == nil {
		return []models.PackItem{}
	}
	return items
}
