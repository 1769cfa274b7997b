package http

import (
	"net/http"
	"strconv"

	"drinklog/internal/core"
	"drinklog/internal/log"
)

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	req, err := parseEntryForm(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	photoURL, err := s.uploadImage(r)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "image upload failed", log.FieldError, err)
		respondError(w, http.StatusInternalServerError, "image upload failed")
		return
	}
	req.PhotoURL = photoURL

	entry, err := s.entries.Create(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, buildEntryResponse(*entry))
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := s.entries.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, buildEntryResponse(*entry))
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	req, err := parseEntryForm(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	newPhotoURL, err := s.uploadImage(r)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "image upload failed", log.FieldError, err)
		respondError(w, http.StatusInternalServerError, "image upload failed")
		return
	}

	entry, err := s.entries.Update(r.Context(), id, req, newPhotoURL)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, buildEntryResponse(*entry))
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.entries.Delete(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	userID, err := queryInt64(r, "user_id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := s.entries.ListByUser(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, buildEntryList(entries))
}

func (s *Server) handleDailyEntries(w http.ResponseWriter, r *http.Request) {
	userID, err := queryInt64(r, "user_id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	year, month := parseYearMonth(r)
	day, err := strconv.Atoi(r.URL.Query().Get("day"))
	if err != nil || day < 1 || day > 31 {
		respondError(w, http.StatusBadRequest, "invalid day")
		return
	}

	entries, err := s.entries.DailyEntries(r.Context(), userID, core.Date(year, month, day))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, buildEntryList(entries))
}

func (s *Server) handleSharedEntries(w http.ResponseWriter, r *http.Request) {
	userID, err := queryInt64(r, "user_id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := s.entries.SharedByUser(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, buildEntryList(entries))
}

func (s *Server) handleGroupEntries(w http.ResponseWriter, r *http.Request) {
	groupID, err := pathID(r, "groupID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := s.entries.ListByGroup(r.Context(), groupID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, buildEntryList(entries))
}
