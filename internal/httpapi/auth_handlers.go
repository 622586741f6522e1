package httpapi

import (
	"context"
	"net/http"
	"strings"

	"cliphub.org/internal/auth"
	"cliphub.org/internal/social"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Fullname string `json:"fullname"`
	Password string `json:"password"`
	Avatar   string `json:"avatar"`
	Cover    string `json:"cover"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type profileRequest struct {
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type assetRequest struct {
	URL string `json:"url"`
}

type sessionResponse struct {
	User   auth.User      `json:"user"`
	Tokens auth.TokenPair `json:"tokens"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	u, err := a.sessions.Register(r.Context(), auth.RegisterParams{
		Username: req.Username,
		Email:    req.Email,
		Fullname: req.Fullname,
		Password: req.Password,
		Avatar:   req.Avatar,
		Cover:    req.Cover,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u.Public(), "user registered")
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	pair, u, err := a.sessions.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	a.setSessionCookies(w, pair)
	writeJSON(w, http.StatusOK, sessionResponse{User: u.Public(), Tokens: pair}, "logged in")
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	presented := refreshTokenFromRequest(w, r)
	if presented == "" {
		writeError(w, http.StatusUnauthorized, "missing refresh token")
		return
	}
	pair, u, err := a.sessions.Refresh(r.Context(), presented)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	a.setSessionCookies(w, pair)
	writeJSON(w, http.StatusOK, sessionResponse{User: u.Public(), Tokens: pair}, "session refreshed")
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	u, _ := identity(r)
	if err := a.sessions.Logout(r.Context(), u.ID); err != nil {
		writeServiceError(w, err)
		return
	}
	a.clearSessionCookies(w)
	writeJSON(w, http.StatusOK, nil, "logged out")
}

func (a *API) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	u, _ := identity(r)
	if err := a.sessions.ChangePassword(r.Context(), u.ID, req.OldPassword, req.NewPassword); err != nil {
		writeServiceError(w, err)
		return
	}
	// The stored refresh token is gone; drop the cookies too.
	a.clearSessionCookies(w)
	writeJSON(w, http.StatusOK, nil, "password changed")
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		u, _ := identity(r)
		writeJSON(w, http.StatusOK, u, "current user")
	case http.MethodPut:
		var req profileRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		u, _ := identity(r)
		updated, err := a.sessions.UpdateProfile(r.Context(), u.ID, req.Fullname, req.Email, req.Username, req.Password)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated.Public(), "profile updated")
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPut)
	}
}

func (a *API) handleUpdateAvatar(w http.ResponseWriter, r *http.Request) {
	a.handleAssetUpdate(w, r, a.sessions.UpdateAvatar, "avatar updated")
}

func (a *API) handleUpdateCover(w http.ResponseWriter, r *http.Request) {
	a.handleAssetUpdate(w, r, a.sessions.UpdateCover, "cover updated")
}

func (a *API) handleAssetUpdate(w http.ResponseWriter, r *http.Request,
	update func(ctx context.Context, userID, url string) (*auth.User, error), message string) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, http.MethodPut)
		return
	}
	var req assetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	u, _ := identity(r)
	updated, err := update(r.Context(), u.ID, req.URL)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated.Public(), message)
}

func (a *API) handleWatchHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	u, _ := identity(r)
	page, limit := pageParams(r)
	history, err := a.videos.History(r.Context(), u.ID, page, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history, "watch history")
}

func (a *API) handleActivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	u, _ := identity(r)
	page, limit := pageParams(r)
	entries, err := a.activity.List(r.Context(), u.ID, page, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries, "activity")
}

type channelResponse struct {
	Channel auth.User           `json:"channel"`
	Stats   social.ChannelStats `json:"stats"`
}

func (a *API) handleChannel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	channelID := strings.TrimPrefix(r.URL.Path, "/v1/channels/")
	if channelID == "" || strings.Contains(channelID, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	u, err := a.sessions.User(r.Context(), channelID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	stats, err := a.social.ChannelStats(r.Context(), channelID, viewerID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, channelResponse{Channel: u.Public(), Stats: stats}, "channel profile")
}

func refreshTokenFromRequest(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(refreshCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return ""
	}
	return strings.TrimSpace(req.RefreshToken)
}

func (a *API) setSessionCookies(w http.ResponseWriter, pair auth.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessCookieName,
		Value:    pair.AccessToken,
		Path:     "/",
		Expires:  pair.AccessExpiresAt,
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    pair.RefreshToken,
		Path:     "/",
		Expires:  pair.RefreshExpiresAt,
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (a *API) clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{accessCookieName, refreshCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   a.secure,
			SameSite: http.SameSiteStrictMode,
		})
	}
}
