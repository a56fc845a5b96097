package api

import (
	"net/http"

	"github.com/ajitpratap0/conceptgraph/internal/curation"
	"github.com/ajitpratap0/conceptgraph/internal/models"
)

func (s *Server) handleCreateEntity(w http.ResponseWriter, r *http.Request) {
	var req curation.EntityRequest
	if !s.decode(w, r, &req) {
		return
	}
	entity, err := s.curation.CreateEntity(r.Context(), req)
	if err != nil {
		s.fail(w, "create entity", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, entity)
}

func (s *Server) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	detail, err := s.curation.GetEntity(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, "get entity", err)
		return
	}
	s.writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleLinkEntity(w http.ResponseWriter, r *http.Request) {
	var link models.EntityLink
	if !s.decode(w, r, &link) {
		return
	}
	link.EntityID = r.PathValue("id")
	if err := s.curation.LinkEntity(r.Context(), link); err != nil {
		s.fail(w, "link entity", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"linked": true})
}

// recommendRequest is the body accepted by POST /v1/entities/recommend. All
// returns every reachable entity instead of the thresholded top list.
type recommendRequest struct {
	TokenIDs   []string `json:"token_ids"`
	SentenceID string   `json:"sentence_id"`
	All        bool     `json:"all"`
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if !s.decode(w, r, &req) {
		return
	}
	recommend := s.analytics.RecommendEntities
	if req.All {
		recommend = s.analytics.EntitiesForTokens
	}
	recs, err := recommend(r.Context(), req.TokenIDs, req.SentenceID)
	if err != nil {
		s.fail(w, "recommend entities", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"recommendations": recs})
}

func (s *Server) handleCreateRelationship(w http.ResponseWriter, r *http.Request) {
	var rel models.Relationship
	if !s.decode(w, r, &rel) {
		return
	}
	if err := s.curation.CreateRelationship(r.Context(), rel); err != nil {
		s.fail(w, "create relationship", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]bool{"created": true})
}

func (s *Server) handleRelationshipTypes(w http.ResponseWriter, r *http.Request) {
	present, err := s.curation.RelationshipTypes(r.Context())
	if err != nil {
		s.fail(w, "list relationship types", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{
		"present": present,
		"allowed": s.curation.AllowedRelationshipTypes(),
	})
}
