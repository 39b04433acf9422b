// Package api exposes a RecordStore over REST and provides the matching
// HTTP client.
package api

import (
	"io"
	"net/http"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/vanderheijden86/pedigree/pkg/model"
	"github.com/vanderheijden86/pedigree/pkg/store"
)

// maxBody bounds request bodies; a horse record is a few hundred bytes.
const maxBody = 1 << 20

// Server serves horses and owners from a RecordStore.
type Server struct {
	store   store.RecordStore
	router  *mux.Router
	metrics *metrics
}

// NewServer wires the routes. The caller keeps ownership of s.
func NewServer(s store.RecordStore) *Server {
	srv := &Server{store: s, router: mux.NewRouter(), metrics: newMetrics()}
	r := srv.router
	r.Use(srv.metrics.instrument)

	r.HandleFunc("/horses", srv.searchHorses).Methods(http.MethodGet)
	r.HandleFunc("/horses", srv.createHorse).Methods(http.MethodPost)
	r.HandleFunc("/horses/{id}", srv.getHorse).Methods(http.MethodGet)
	r.HandleFunc("/horses/{id}", srv.updateHorse).Methods(http.MethodPut)
	r.HandleFunc("/horses/{id}", srv.deleteHorse).Methods(http.MethodDelete)
	r.HandleFunc("/horses/{id}/ancestors", srv.ancestors).Methods(http.MethodGet)
	r.HandleFunc("/owners", srv.searchOwners).Methods(http.MethodGet)
	r.HandleFunc("/owners", srv.createOwner).Methods(http.MethodPost)
	r.HandleFunc("/healthz", srv.healthz).Methods(http.MethodGet)
	r.Handle("/metrics", srv.metrics.handler()).Methods(http.MethodGet)
	return srv
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	EnableCORS(s.router).ServeHTTP(w, r)
}

// EnableCORS allows any origin; the service has no authentication.
func EnableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := model.ParseHorseID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, op string, v any) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		badRequest(w, r, op, "Could not read request body")
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		badRequest(w, r, op, "Malformed JSON: "+err.Error())
		return false
	}
	return true
}

// GET /horses?name=&description=&bornBefore=&sex=&ownerName=&limit=
func (s *Server) searchHorses(w http.ResponseWriter, r *http.Request) {
	const op = "search horses"
	q := r.URL.Query()
	search := model.HorseSearch{
		Name:        q.Get("name"),
		Description: q.Get("description"),
		OwnerName:   q.Get("ownerName"),
	}
	var msgs []string
	if v := q.Get("bornBefore"); v != "" {
		d, err := model.ParseDate(v)
		if err != nil {
			msgs = append(msgs, "bornBefore must be a date (YYYY-MM-DD)")
		} else {
			search.BornBefore = &d
		}
	}
	if v := q.Get("sex"); v != "" {
		sex, err := model.ParseSex(v)
		if err != nil {
			msgs = append(msgs, "sex must be FEMALE or MALE")
		}
		search.Sex = sex
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			msgs = append(msgs, "limit must be a non-negative integer")
		}
		search.Limit = n
	}
	if len(msgs) > 0 {
		badRequest(w, r, op, msgs...)
		return
	}

	horses, err := s.store.SearchHorses(r.Context(), search)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if horses == nil {
		horses = []model.Horse{}
	}
	writeJSON(w, http.StatusOK, horses)
}

func (s *Server) getHorse(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h, err := s.store.GetHorse(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) createHorse(w http.ResponseWriter, r *http.Request) {
	var h model.Horse
	if !decodeBody(w, r, "create horse", &h) {
		return
	}
	created, err := s.store.CreateHorse(r.Context(), h)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) updateHorse(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var h model.Horse
	if !decodeBody(w, r, "update horse", &h) {
		return
	}
	if h.ID != 0 && h.ID != id {
		badRequest(w, r, "update horse", "ID in body does not match the path")
		return
	}
	h.ID = id
	updated, err := s.store.UpdateHorse(r.Context(), h)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteHorse(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteHorse(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /horses/{id}/ancestors?generations=N
func (s *Server) ancestors(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	raw := r.URL.Query().Get("generations")
	if raw == "" {
		badRequest(w, r, "tree", "Ancestor generations are missing")
		return
	}
	generations, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(w, r, "tree", "Ancestor generations must be an integer")
		return
	}
	tree, err := s.store.Tree(r.Context(), id, generations)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

// GET /owners?name=&maxAmount=
func (s *Server) searchOwners(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if v := q.Get("maxAmount"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			badRequest(w, r, "search owners", "maxAmount must be a non-negative integer")
			return
		}
		limit = n
	}
	owners, err := s.store.SearchOwners(r.Context(), q.Get("name"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if owners == nil {
		owners = []model.Owner{}
	}
	writeJSON(w, http.StatusOK, owners)
}

func (s *Server) createOwner(w http.ResponseWriter, r *http.Request) {
	var o model.Owner
	if !decodeBody(w, r, "create owner", &o) {
		return
	}
	created, err := s.store.CreateOwner(r.Context(), o)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
