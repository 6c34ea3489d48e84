package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aferrand/housetab/internal/auth"
	"github.com/aferrand/housetab/internal/middleware"
	"github.com/aferrand/housetab/internal/models"
	"github.com/aferrand/housetab/internal/storage"
)

type createHouseholdRequest struct {
	Name          string `json:"name"`
	MemberOneName string `json:"member_one_name"`
	MemberTwoName string `json:"member_two_name"`
	Passcode      string `json:"passcode"`
}

// createHousehold registers a new household. The creating member becomes
// user_1 and gets a session token right away.
func (h *Handler) createHousehold(w http.ResponseWriter, r *http.Request) {
	var req createHouseholdRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	name := strings.TrimSpace(req.Name)
	memberOne := strings.TrimSpace(req.MemberOneName)
	memberTwo := strings.TrimSpace(req.MemberTwoName)

	if name == "" {
		respondError(w, http.StatusBadRequest, "household name is required")
		return
	}
	if memberOne == "" || memberTwo == "" {
		respondError(w, http.StatusBadRequest, "both member names are required")
		return
	}
	if strings.EqualFold(memberOne, memberTwo) {
		respondError(w, http.StatusBadRequest, "member names must differ")
		return
	}

	hash, err := auth.HashPasscode(req.Passcode)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	household := &models.Household{
		Name:          name,
		MemberOneName: memberOne,
		MemberTwoName: memberTwo,
		PasscodeHash:  hash,
	}

	// The join code has a unique index; on the rare collision we roll a
	// fresh code and try again.
	for attempt := 0; attempt < 3; attempt++ {
		household.Code, err = auth.GenerateHouseholdCode()
		if err != nil {
			respondStoreError(w, err, "create household")
			return
		}
		err = h.store.CreateHousehold(r.Context(), household)
		if err == nil {
			break
		}
		household.ID = ""
	}
	if err != nil {
		respondStoreError(w, err, "create household")
		return
	}

	token, err := h.tokens.Generate(household.ID, models.MemberOne)
	if err != nil {
		slog.Error("failed to issue session token", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	slog.Info("household created", "household_id", household.ID, "name", household.Name)
	respondJSON(w, http.StatusCreated, toSessionPayload(household, models.MemberOne, token))
}

type loginRequest struct {
	HouseholdName string `json:"household_name"`
	MemberName    string `json:"member_name"`
	Passcode      string `json:"passcode"`
}

// login exchanges a household name, member name, and passcode for a session
// token. The household is looked up by name case-insensitively; a name
// shared by several households is a conflict the caller has to resolve.
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	household, err := h.store.FindHouseholdByName(r.Context(), req.HouseholdName)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "household not found")
			return
		}
		respondStoreError(w, err, "look up household")
		return
	}

	if err := auth.VerifyPasscode(household.PasscodeHash, req.Passcode); err != nil {
		respondError(w, http.StatusUnauthorized, "invalid passcode")
		return
	}

	member := household.ResolveMember(req.MemberName)
	if member == "" {
		respondError(w, http.StatusBadRequest, "member name does not match this household")
		return
	}

	token, err := h.tokens.Generate(household.ID, member)
	if err != nil {
		slog.Error("failed to issue session token", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	slog.Info("member logged in", "household_id", household.ID, "member", member)
	respondJSON(w, http.StatusOK, toSessionPayload(household, member, token))
}

// logout exists for client symmetry. Tokens are stateless, so there is
// nothing to revoke server-side; clients drop the token.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// me returns the session's household and member, refreshed from storage.
func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	household, err := h.store.GetHousehold(r.Context(), middleware.GetHouseholdID(r.Context()))
	if err != nil {
		respondStoreError(w, err, "load household")
		return
	}
	respondJSON(w, http.StatusOK, toSessionPayload(household, middleware.GetMemberCode(r.Context()), ""))
}
