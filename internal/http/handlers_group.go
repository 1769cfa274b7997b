package http

import (
	"net/http"
)

type createGroupPayload struct {
	LeaderID    int64  `json:"leaderId"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var payload createGroupPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	group, err := s.groups.Create(r.Context(), payload.LeaderID, payload.Name, payload.Description)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, buildGroupResponse(*group, nil))
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	group, err := s.groups.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, buildGroupWithMembers(group))
}

type updateGroupPayload struct {
	CallerID    int64  `json:"callerId"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var payload updateGroupPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	group, err := s.groups.Update(r.Context(), id, payload.CallerID, payload.Name, payload.Description)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, buildGroupResponse(*group, nil))
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	callerID, err := queryInt64(r, "caller_id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.groups.Delete(r.Context(), id, callerID); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addMemberPayload struct {
	MemberID int64 `json:"memberId"`
}

func (s *Server) handleAddGroupMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var payload addMemberPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.groups.AddMember(r.Context(), id, payload.MemberID); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveGroupMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	memberID, err := pathID(r, "memberID")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	callerID, err := queryInt64(r, "caller_id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.groups.RemoveMember(r.Context(), id, memberID, callerID); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type registerMemberPayload struct {
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
}

func (s *Server) handleRegisterMember(w http.ResponseWriter, r *http.Request) {
	var payload registerMemberPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	member, err := s.members.Register(r.Context(), payload.Email, payload.Nickname)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, buildMemberResponse(*member))
}

func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	member, err := s.members.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, buildMemberResponse(*member))
}

func (s *Server) handleListDrinks(w http.ResponseWriter, r *http.Request) {
	drinks, err := s.drinks.List(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	out := make([]drinkResponse, 0, len(drinks))
	for _, d := range drinks {
		out = append(out, drinkResponse{ID: d.ID, Name: d.Name, Type: d.Type})
	}
	respondJSON(w, http.StatusOK, out)
}
