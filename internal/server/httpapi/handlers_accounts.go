package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/openpasswd/openpasswd/internal/common"
	"github.com/openpasswd/openpasswd/internal/server/models"
	"github.com/openpasswd/openpasswd/internal/server/services"
)

type registerGroupRequest struct {
	Name string `json:"name"`
}

type groupView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type registerAccountRequest struct {
	Name     string `json:"name"`
	GroupID  int64  `json:"group_id"`
	Level    int16  `json:"level"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type accountView struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	GroupID int64  `json:"group_id"`
	Level   int16  `json:"level"`
}

func (a *API) authedUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		a.writeError(w, r, common.ErrInvalidToken)
		return 0, false
	}
	userID, err := claims.UserID()
	if err != nil {
		a.writeError(w, r, common.ErrInvalidToken)
		return 0, false
	}
	return userID, true
}

func (a *API) registerGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.authedUserID(w, r)
	if !ok {
		return
	}

	var req registerGroupRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "name is required"})
		return
	}

	group, err := a.accounts.RegisterGroup(r.Context(), userID, req.Name)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, groupView{ID: group.ID, Name: group.Name})
}

func (a *API) listGroups(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.authedUserID(w, r)
	if !ok {
		return
	}

	groups, err := a.accounts.ListGroups(r.Context(), userID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	views := make([]groupView, 0, len(groups))
	for _, g := range groups {
		views = append(views, groupView{ID: g.ID, Name: g.Name})
	}
	writeJSON(w, http.StatusOK, views)
}

func (a *API) registerAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.authedUserID(w, r)
	if !ok {
		return
	}

	var req registerAccountRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if req.Name == "" || req.GroupID == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "name and group_id are required"})
		return
	}

	account, err := a.accounts.RegisterAccount(r.Context(), userID, services.AccountParams{
		Name:     req.Name,
		GroupID:  req.GroupID,
		Level:    req.Level,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountView(account))
}

func (a *API) listAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.authedUserID(w, r)
	if !ok {
		return
	}

	var groupID *int64
	if raw := r.URL.Query().Get("group_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed group_id"})
			return
		}
		groupID = &id
	}

	accounts, err := a.accounts.ListAccounts(r.Context(), userID, groupID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	views := make([]accountView, 0, len(accounts))
	for _, acc := range accounts {
		views = append(views, toAccountView(acc))
	}
	writeJSON(w, http.StatusOK, views)
}

func (a *API) getAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.authedUserID(w, r)
	if !ok {
		return
	}

	accountID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed account id"})
		return
	}

	view, err := a.accounts.GetAccount(r.Context(), userID, accountID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func toAccountView(a *models.Account) accountView {
	return accountView{ID: a.ID, Name: a.Name, GroupID: a.AccountGroupID, Level: a.Level}
}
