package api

import "net/http"

func (s *Server) handleImportantTokens(w http.ResponseWriter, r *http.Request) {
	k, ok := s.intParam(w, r, "k", 0)
	if !ok {
		return
	}
	tokens, err := s.analytics.ImportantTokens(r.Context(), r.URL.Query().Get("document_id"), k)
	if err != nil {
		s.fail(w, "rank tokens", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"tokens": tokens})
}

func (s *Server) handleNGrams(w http.ResponseWriter, r *http.Request) {
	grams, err := s.analytics.NGrams(r.Context(), r.URL.Query().Get("document_id"))
	if err != nil {
		s.fail(w, "compute n-grams", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"ngrams": grams})
}

func (s *Server) handleOverlap(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	overlap, err := s.analytics.CompareDocuments(r.Context(), q.Get("first"), q.Get("second"))
	if err != nil {
		s.fail(w, "compare documents", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"phrases": overlap})
}
