package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"seva/internal/cause"
	"seva/internal/session"
	"seva/internal/tenant"
	"seva/internal/theme"
)

type server struct {
	signingKey []byte
	logger     *slog.Logger

	mu      sync.Mutex
	tenants map[string]*tenant.Tenant // keyed by host
	causes  map[int64]*cause.Cause
	orders  map[string]devOrder
	users   map[string]*session.User
	seq     int
}

func newServer(signingKey string, logger *slog.Logger) *server {
	s := &server{
		signingKey: []byte(signingKey),
		logger:     logger,
		tenants:    make(map[string]*tenant.Tenant),
		causes:     make(map[int64]*cause.Cause),
		orders:     make(map[string]devOrder),
		users:      make(map[string]*session.User),
	}
	s.seed()
	return s
}

func (s *server) seed() {
	hope := &tenant.Tenant{
		ID:   uuid.New(),
		Name: "Hope Trust",
		Slug: "hope-trust",
		Brand: &theme.BrandTheme{
			PrimaryColor:   "#336699",
			SecondaryColor: "#993366",
			LogoURL:        "https://cdn.example.org/hope.png",
		},
		ContactEmail: "hello@giveforhope.org",
	}
	s.tenants["giveforhope.org"] = hope
	s.tenants["localhost:5173"] = hope

	s.causes[42] = &cause.Cause{
		ID: 42, NGOID: hope.ID, Title: "Clean Water for Koppal",
		Description:  "Borewell restoration across 14 villages.",
		TargetAmount: 5000000, CurrentAmount: 1250000, Currency: "INR", Status: cause.StatusLive,
	}
	s.causes[43] = &cause.Cause{
		ID: 43, NGOID: hope.ID, Title: "School Meals",
		TargetAmount: 2000000, CurrentAmount: 2000000, Currency: "INR", Status: cause.StatusFunded,
	}

	s.users["donor@example.com"] = &session.User{
		ID: uuid.NewString(), Email: "donor@example.com", FullName: "Dev Donor",
		Role: session.RoleDonor, Phone: "+911234567890",
	}
	s.users["admin@example.com"] = &session.User{
		ID: uuid.NewString(), Email: "admin@example.com", FullName: "Dev Admin",
		Role: session.RoleAdmin,
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/public/tenants/by-host", s.handleResolveTenant)
	r.Get("/public/causes", s.handleListCauses)
	r.Post("/auth/login", s.handleLogin)
	r.Get("/auth/me", s.handleMe)
	r.Post("/donations/init", s.handleInitDonation)
	r.Post("/donations/verify", s.handleVerifyDonation)

	return r
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func (s *server) handleResolveTenant(w http.ResponseWriter, r *http.Request) {
	host := r.URL.Query().Get("host")
	s.mu.Lock()
	found, ok := s.tenants[host]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"mode": "MARKETPLACE"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"mode":   "MICROSITE",
		"tenant": found,
		"theme":  found.Brand,
	})
}

func (s *server) handleListCauses(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var value []*cause.Cause
	idFilter := r.URL.Query().Get("id")
	for _, c := range s.causes {
		if idFilter != "" && strconv.FormatInt(c.ID, 10) != idFilter {
			continue
		}
		value = append(value, c)
	}
	if value == nil {
		value = []*cause.Cause{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"value": value, "Count": len(value)})
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed form body")
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	s.mu.Lock()
	user, ok := s.users[username]
	s.mu.Unlock()
	if !ok || password == "wrong" {
		writeDetail(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	access, err := s.mintToken(user, time.Hour)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "failed to mint token")
		return
	}
	refresh, err := s.mintToken(user, 30*24*time.Hour)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "failed to mint token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token":  access,
		"refresh_token": refresh,
		"token_type":    "bearer",
	})
}

func (s *server) mintToken(user *session.User, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   user.Email,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
}

// authenticate validates the bearer token and returns the user it names.
func (s *server) authenticate(r *http.Request) *session.User {
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return nil
	}
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[claims.Subject]
}

func (s *server) handleMe(w http.ResponseWriter, r *http.Request) {
	user := s.authenticate(r)
	if user == nil {
		writeDetail(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// devOrder is a pending order awaiting verification.
type devOrder struct {
	CauseID int64
	Amount  int64
}

type initRequest struct {
	CauseID    int64  `json:"cause_id"`
	Amount     int64  `json:"amount"`
	DonorName  string `json:"donor_name"`
	DonorEmail string `json:"donor_email"`
	DonorPhone string `json:"donor_phone"`
}

func (s *server) handleInitDonation(w http.ResponseWriter, r *http.Request) {
	user := s.authenticate(r)
	if user == nil {
		writeDetail(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}

	var req initRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Amount <= 0 {
		writeDetail(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.causes[req.CauseID]
	if !ok {
		writeDetail(w, http.StatusNotFound, "cause not found")
		return
	}
	if !target.AcceptsDonations() {
		writeDetail(w, http.StatusBadRequest, "cause is not accepting donations")
		return
	}

	s.seq++
	orderID := fmt.Sprintf("order_dev_%d", s.seq)
	s.orders[orderID] = devOrder{CauseID: target.ID, Amount: req.Amount}

	writeJSON(w, http.StatusOK, map[string]any{
		"order_id":    orderID,
		"amount":      req.Amount,
		"currency":    target.Currency,
		"key":         "rzp_test_devapi",
		"name":        "Hope Trust",
		"description": target.Title,
		"prefill": map[string]string{
			"name":    req.DonorName,
			"email":   req.DonorEmail,
			"contact": req.DonorPhone,
		},
		"notes": map[string]string{"cause_id": strconv.FormatInt(target.ID, 10)},
	})
}

type verifyRequest struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

func (s *server) handleVerifyDonation(w http.ResponseWriter, r *http.Request) {
	user := s.authenticate(r)
	if user == nil {
		writeDetail(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[req.OrderID]
	if !ok || req.Signature == "sig_fail" {
		writeJSON(w, http.StatusOK, map[string]any{"success": false})
		return
	}
	delete(s.orders, req.OrderID)
	// the dev backend is the ledger here; the real one moves money first
	if c, found := s.causes[order.CauseID]; found {
		c.CurrentAmount += order.Amount
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"payment_id":     "pay_" + uuid.NewString()[:8],
		"transaction_id": "txn_" + uuid.NewString()[:8],
	})
}
