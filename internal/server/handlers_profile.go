package server

import (
	"net/http"
)

// ProfileDeleteResponse represents the response for DELETE /profile/me
type ProfileDeleteResponse struct {
	Deleted bool `json:"deleted"`
}

// handleGetProfile returns the authenticated user's stored profile.
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	profile, err := s.profiles.GetProfile(r.Context(), uid)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	if profile == nil {
		s.failure(w, r, &ErrNotFound{Resource: "profile"})
		return
	}

	s.jsonResponse(w, http.StatusOK, profile)
}

// handleDeleteProfile removes the stored profile. The next new thread asks
// for a resume again; existing threads keep their own copy.
func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	deleted, err := s.profiles.DeleteProfile(r.Context(), uid)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	if !deleted {
		s.failure(w, r, &ErrNotFound{Resource: "profile"})
		return
	}

	s.jsonResponse(w, http.StatusOK, ProfileDeleteResponse{Deleted: true})
}
