// Package httpserver exposes the contacts JSON API over HTTP.
package httpserver

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/contacts-api/internal/errs"
	"github.com/and161185/contacts-api/internal/model"
	"github.com/and161185/contacts-api/internal/service"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 1 << 20

// Server wires services into HTTP handlers.
type Server struct {
	auth     service.AuthService
	contacts service.ContactService
	log      *zap.Logger
}

// New constructs an HTTP server with injected services.
func New(auth service.AuthService, contacts service.ContactService, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{auth: auth, contacts: contacts, log: log}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		Logging(s.log),
		Recover(s.log),
		CORS,
	)
	noRoute := func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusNotFound, msgNoRoute)
	}
	r.NotFound(noRoute)
	r.MethodNotAllowed(noRoute)

	r.Route("/users", func(r chi.Router) {
		r.Post("/signup", s.signup)
		r.Post("/login", s.login)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/", s.listContacts)
		r.Get("/contact", s.searchContacts)
		r.Post("/contact/create", s.createContact)
		r.Get("/contact/{id}", s.getContact)
		r.Put("/contact/{id}/update", s.updateContact)
		r.Delete("/contact/{id}/delete", s.deleteContact)
	})
	return r
}

// --- Users ---

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Token  string `json:"token"`
}

func toSessionResponse(ss model.Session) sessionResponse {
	return sessionResponse{UserID: ss.UserID.String(), Email: ss.Email, Token: ss.Token}
}

// signup creates a new user account.
func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, err, msgUserNotFound)
		return
	}
	ss, err := s.auth.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		s.fail(w, r, err, msgUserNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, toSessionResponse(ss))
}

// login authenticates a user by email and password.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, err, msgUserNotFound)
		return
	}
	ss, err := s.auth.Login(r.Context(), req.Email, req.Password, remoteIP(r))
	if err != nil {
		if errors.Is(err, errs.ErrUnauthorized) {
			writeMessage(w, http.StatusUnauthorized, msgBadCredentials)
			return
		}
		s.fail(w, r, err, msgUserNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(ss))
}

// --- Contacts ---

type contactRequest struct {
	Name    string     `json:"name"`
	Number  flexString `json:"number"`
	Email   string     `json:"email"`
	Creator string     `json:"creator"`
}

type contactResponse struct {
	Contact *model.Contact `json:"contact"`
}

type contactsResponse struct {
	Contacts []model.Contact `json:"contacts"`
}

// listContacts returns the caller's contacts, or an empty object when none.
func (s *Server) listContacts(w http.ResponseWriter, r *http.Request) {
	list, err := s.contacts.List(r.Context(), callerID(r))
	if err != nil {
		s.fail(w, r, err, msgUserNotFound)
		return
	}
	if len(list) == 0 {
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, contactsResponse{Contacts: list})
}

// searchContacts filters the caller's contacts by the search query parameter.
func (s *Server) searchContacts(w http.ResponseWriter, r *http.Request) {
	list, err := s.contacts.Search(r.Context(), callerID(r), r.URL.Query().Get("search"))
	if err != nil {
		s.fail(w, r, err, msgContactNotFound)
		return
	}
	if list == nil {
		list = []model.Contact{}
	}
	writeJSON(w, http.StatusOK, contactsResponse{Contacts: list})
}

func (s *Server) createContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, err, msgUserNotFound)
		return
	}
	var creator uuid.UUID
	if c := strings.TrimSpace(req.Creator); c != "" {
		id, err := uuid.FromString(c)
		if err != nil {
			s.fail(w, r, errs.ErrValidation, msgUserNotFound)
			return
		}
		creator = id
	}
	c, err := s.contacts.Create(r.Context(), callerID(r), model.NewContact{
		Name:    req.Name,
		Number:  string(req.Number),
		Email:   req.Email,
		Creator: creator,
	})
	if err != nil {
		s.fail(w, r, err, msgUserNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, contactResponse{Contact: c})
}

func (s *Server) getContact(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, msgContactNotFound)
		return
	}
	c, err := s.contacts.Get(r.Context(), callerID(r), id)
	if err != nil {
		s.fail(w, r, err, msgContactNotFound)
		return
	}
	writeJSON(w, http.StatusOK, contactResponse{Contact: c})
}

func (s *Server) updateContact(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, msgContactNotFound)
		return
	}
	var req contactRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, err, msgContactNotFound)
		return
	}
	c, err := s.contacts.Update(r.Context(), callerID(r), id, model.ContactPatch{
		Name:   req.Name,
		Number: string(req.Number),
		Email:  req.Email,
	})
	if err != nil {
		s.fail(w, r, err, msgContactNotFound)
		return
	}
	writeJSON(w, http.StatusOK, contactResponse{Contact: c})
}

func (s *Server) deleteContact(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, msgContactNotFound)
		return
	}
	if err := s.contacts.Delete(r.Context(), callerID(r), id); err != nil {
		s.fail(w, r, err, msgContactNotFound)
		return
	}
	writeMessage(w, http.StatusOK, msgDeleted)
}

// --- helpers ---

// decode reads a size-limited JSON body. Unknown fields are ignored.
// Oversized bodies yield errBodyTooLarge, anything else ErrValidation.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errBodyTooLarge
		}
		return errors.Join(errs.ErrValidation, err)
	}
	return nil
}

func callerID(r *http.Request) uuid.UUID {
	id, _ := UserIDFromCtx(r.Context())
	return id
}

func pathID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
