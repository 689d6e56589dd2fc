package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/paylite/ewallet/internal/models"
	"github.com/paylite/ewallet/internal/wallet"
)

// Server exposes the money-movement core over HTTP. Handlers only
// parse, dispatch and translate errors; every business decision lives
// in the wallet engine. Token verification happens upstream — handlers
// only require that an Authorization header was forwarded.
type Server struct {
	engine *wallet.Engine
}

func NewServer(engine *wallet.Engine) *Server {
	return &Server{engine: engine}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("POST /transactions/topup/{id}", s.authed(s.handleTopUp))
	mux.Handle("POST /transactions/send/{id}", s.authed(s.handleSend))
	mux.Handle("GET /transactions/{id}", s.authed(s.handleHistory))
	mux.Handle("GET /user/{id}", s.authed(s.handleAccount))

	mux.Handle("GET /notifications/{id}", s.authed(s.handleNotifications))
	mux.Handle("GET /read_notifications/{id}", s.authed(s.handleMarkAllRead))
	mux.Handle("GET /unread_notifications_count/{id}", s.authed(s.handleUnreadCount))
	mux.Handle("DELETE /notifications/{id}", s.authed(s.handleDeleteNotification))
	mux.Handle("DELETE /clear_notifications/{id}", s.authed(s.handleClearNotifications))

	return mux
}

// authed rejects requests that arrive without an identity token. The
// token itself was validated upstream; authorization enforcement is out
// of scope here.
func (s *Server) authed(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			writeError(w, http.StatusUnauthorized, "missing authorization token")
			return
		}
		next(w, r)
	})
}

// Response DTOs own the wire shapes. Money is always rendered with two
// decimal places; decimal's own marshaller trims trailing zeros, which
// is wrong for a balance.

type accountResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Balance   string `json:"balance"`
}

func toAccountResponse(a models.Account) accountResponse {
	return accountResponse{
		ID:        a.ID,
		Email:     a.Email,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Balance:   a.Balance.StringFixed(2),
	}
}

type entryResponse struct {
	ID          string             `json:"id"`
	AccountID   string             `json:"accountId"`
	Type        models.EntryType   `json:"type"`
	Amount      string             `json:"amount"`
	Description string             `json:"description"`
	Method      models.TopUpMethod `json:"method,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
}

type statementResponse struct {
	Account      accountResponse `json:"account"`
	Transactions []entryResponse `json:"transactions"`
}

func toStatementResponse(s wallet.Statement) statementResponse {
	resp := statementResponse{
		Account:      toAccountResponse(s.Account),
		Transactions: make([]entryResponse, 0, len(s.Transactions)),
	}
	for _, e := range s.Transactions {
		resp.Transactions = append(resp.Transactions, entryResponse{
			ID:          e.ID,
			AccountID:   e.AccountID,
			Type:        e.Type,
			Amount:      e.Amount.StringFixed(2),
			Description: e.Description,
			Method:      e.Method,
			CreatedAt:   e.CreatedAt,
		})
	}
	return resp
}

type topUpPayload struct {
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method"`
	Description string          `json:"description"`
}

func (s *Server) handleTopUp(w http.ResponseWriter, r *http.Request) {
	var payload topUpPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Method == "" {
		writeError(w, http.StatusBadRequest, "method is required")
		return
	}

	err := s.engine.TopUp(r.Context(), wallet.TopUpRequest{
		AccountID:   r.PathValue("id"),
		Amount:      payload.Amount,
		Method:      models.TopUpMethod(payload.Method),
		Description: payload.Description,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

type sendPayload struct {
	RecipientEmail string          `json:"recipientEmail"`
	Amount         decimal.Decimal `json:"amount"`
	Description    string          `json:"description"`
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var payload sendPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.RecipientEmail == "" {
		writeError(w, http.StatusBadRequest, "recipientEmail is required")
		return
	}

	err := s.engine.Send(r.Context(), wallet.SendRequest{
		SenderID:       r.PathValue("id"),
		RecipientEmail: payload.RecipientEmail,
		Amount:         payload.Amount,
		Description:    payload.Description,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	statement, err := s.engine.History(r.Context(), r.PathValue("id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatementResponse(statement))
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	account, err := s.engine.Account(r.Context(), r.PathValue("id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	notifications, err := s.engine.Notifications(r.Context(), r.PathValue("id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	writeJSON(w, http.StatusOK, notifications)
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.MarkAllRead(r.Context(), r.PathValue("id")); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := s.engine.UnreadCount(r.Context(), r.PathValue("id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (s *Server) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeleteNotification(r.Context(), r.PathValue("id")); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleClearNotifications(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.ClearNotifications(r.Context(), r.PathValue("id")); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// writeEngineError maps core errors onto HTTP statuses. Anything not
// recognized is a persistence failure: the unit aborted with no side
// effects, so the client may safely retry.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrAccountNotFound),
		errors.Is(err, models.ErrNotificationNotFound),
		errors.Is(err, wallet.ErrRecipientNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, wallet.ErrInvalidAmount),
		errors.Is(err, wallet.ErrInsufficientFunds),
		errors.Is(err, wallet.ErrSelfTransfer):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("httpapi: %v", err)
		writeError(w, http.StatusInternalServerError, "Oops...Something went wrong")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("httpapi: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
