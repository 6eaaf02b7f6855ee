package controller

import (
	"net/http"

	"github.com/cassiomorais/finance/internal/service"
)

type FamilyController struct {
	familyService *service.FamilyService
}

func NewFamilyController(familyService *service.FamilyService) *FamilyController {
	return &FamilyController{familyService: familyService}
}

func (h *FamilyController) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req CreateFamilyRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	f, err := h.familyService.Create(r.Context(), userID, req.Name, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, FromFamily(f))
}

func (h *FamilyController) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	fams, err := h.familyService.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromFamilies(fams))
}

func (h *FamilyController) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	f, err := h.familyService.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromFamily(f))
}

func (h *FamilyController) Invite(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req InviteRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	inv, err := h.familyService.Invite(r.Context(), userID, id, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, FromInvitation(inv))
}

// ListInvitations returns the caller's pending invitations.
func (h *FamilyController) ListInvitations(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	invs, err := h.familyService.ListInvitations(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]InvitationResponse, 0, len(invs))
	for _, inv := range invs {
		out = append(out, FromInvitation(inv))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *FamilyController) Accept(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	f, err := h.familyService.Accept(r.Context(), userID, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromFamily(f))
}

func (h *FamilyController) RemoveMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	familyID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	memberID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}

	if err := h.familyService.RemoveMember(r.Context(), userID, familyID, memberID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}
