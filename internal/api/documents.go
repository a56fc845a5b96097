package api

import (
	"errors"
	"net/http"

	"github.com/ajitpratap0/conceptgraph/internal/ingest"
	"github.com/ajitpratap0/conceptgraph/internal/models"
)

const (
	defaultDocumentLimit = 10
	defaultRecentLimit   = 20
	defaultNeighborLimit = 20
)

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingest.Request
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.ingest.Ingest(r.Context(), req)
	if err != nil {
		var perr *ingest.PartialIngestionError
		if res != nil && errors.As(err, &perr) && !isClientError(err) {
			s.writePartial(w, perr, res.FailedBatch)
			return
		}
		s.fail(w, "ingest document", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	limit, ok := s.intParam(w, r, "limit", defaultDocumentLimit)
	if !ok {
		return
	}
	docs, err := s.store.ListDocuments(r.Context(), limit)
	if err != nil {
		s.fail(w, "list documents", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.GetDocument(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, "get document", err)
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

// statusRequest is the body accepted by PATCH /v1/documents/{id}/status.
type statusRequest struct {
	Status models.DocumentStatus `json:"status"`
}

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !s.decode(w, r, &req) {
		return
	}
	id := r.PathValue("id")
	if err := s.curation.SetDocumentStatus(r.Context(), id, req.Status); err != nil {
		s.fail(w, "set document status", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": string(req.Status)})
}

// sentenceResponse is a sentence detail with optional entity suggestions.
type sentenceResponse struct {
	*models.SentenceDetail
	Suggestions []models.Suggestion `json:"suggestions,omitempty"`
}

func (s *Server) handleGetSentence(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	detail, err := s.store.GetSentence(r.Context(), id)
	if err != nil {
		s.fail(w, "get sentence", err)
		return
	}
	resp := sentenceResponse{SentenceDetail: detail}
	if r.URL.Query().Get("suggest") == "true" {
		resp.Suggestions, err = s.curation.Suggest(r.Context(), id)
		if err != nil {
			s.fail(w, "suggest entities", err)
			return
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetToken(w http.ResponseWriter, r *http.Request) {
	limit, ok := s.intParam(w, r, "neighbors", defaultNeighborLimit)
	if !ok {
		return
	}
	tok, err := s.store.GetToken(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		s.fail(w, "get token", err)
		return
	}
	s.writeJSON(w, http.StatusOK, tok)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	limit, ok := s.intParam(w, r, "limit", 0)
	if !ok {
		return
	}
	q := r.URL.Query()
	label := q.Get("label")
	if label == "" {
		label = string(models.LabelDocument)
	}
	hits, err := s.curation.Search(r.Context(), label, q.Get("q"), limit)
	if err != nil {
		s.fail(w, "search", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"results": hits})
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit, ok := s.intParam(w, r, "limit", defaultRecentLimit)
	if !ok {
		return
	}
	nodes, err := s.store.Recent(r.Context(), limit)
	if err != nil {
		s.fail(w, "list recent nodes", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"nodes": nodes})
}
