package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"cliphub.org/internal/auth"
	"cliphub.org/internal/social"
	"cliphub.org/internal/stream"
)

type commentRequest struct {
	VideoID string `json:"video_id"`
	Content string `json:"content"`
}

type commentEditRequest struct {
	Content string `json:"content"`
}

type rateRequest struct {
	TargetID string `json:"target_id"`
	Like     bool   `json:"like"`
}

type subscriptionResponse struct {
	ChannelID  string `json:"channel_id"`
	Subscribed bool   `json:"subscribed"`
}

func (a *API) handleComments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req commentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := a.videos.Get(r.Context(), req.VideoID, ""); err != nil {
		writeServiceError(w, err)
		return
	}
	u, _ := identity(r)
	c, err := a.social.AddComment(r.Context(), u.ID, req.VideoID, req.Content)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	a.publish(stream.Event{Type: stream.EventCommentPosted, VideoID: req.VideoID, ActorID: u.ID})
	writeJSON(w, http.StatusCreated, c, "comment added")
}

// handleCommentByID serves GET /v1/comments/{videoID} (list a video's
// comments) and PUT/DELETE /v1/comments/{commentID}.
func (a *API) handleCommentByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/comments/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		if _, err := a.videos.Get(r.Context(), id, ""); err != nil {
			writeServiceError(w, err)
			return
		}
		page, limit := pageParams(r)
		comments, err := a.social.Comments(r.Context(), id, viewerID(r), page, limit)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, comments, "comments")
	case http.MethodPut:
		var req commentEditRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		u, _ := identity(r)
		c, err := a.social.EditComment(r.Context(), u.ID, id, req.Content)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c, "comment updated")
	case http.MethodDelete:
		u, _ := identity(r)
		if err := a.social.DeleteComment(r.Context(), u.ID, id); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, nil, "comment deleted")
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) handleLikeVideo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req rateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := a.videos.Get(r.Context(), req.TargetID, ""); err != nil {
		writeServiceError(w, err)
		return
	}
	u, _ := identity(r)
	status, err := a.social.Rate(r.Context(), u.ID, social.TargetVideo, req.TargetID, req.Like)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if status.Liked {
		a.publish(stream.Event{Type: stream.EventVideoRated, VideoID: req.TargetID, ActorID: u.ID})
	}
	writeJSON(w, http.StatusOK, status, "rating updated")
}

func (a *API) handleLikeComment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req rateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := a.social.Comment(r.Context(), req.TargetID); err != nil {
		writeServiceError(w, err)
		return
	}
	u, _ := identity(r)
	status, err := a.social.Rate(r.Context(), u.ID, social.TargetComment, req.TargetID, req.Like)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status, "rating updated")
}

func (a *API) handleLikedVideos(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	u, _ := identity(r)
	ids, err := a.social.LikedVideoIDs(r.Context(), u.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	liked, err := a.videos.GetMany(r.Context(), ids)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, liked, "liked videos")
}

func (a *API) handleToggleSubscription(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	channelID := strings.TrimPrefix(r.URL.Path, "/v1/subscriptions/")
	if channelID == "" || strings.Contains(channelID, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if _, err := a.sessions.User(r.Context(), channelID); err != nil {
		writeServiceError(w, err)
		return
	}
	u, _ := identity(r)
	subscribed, err := a.social.ToggleSubscription(r.Context(), u.ID, channelID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if subscribed {
		a.publish(stream.Event{Type: stream.EventSubscribed, ChannelID: channelID, ActorID: u.ID})
	}
	writeJSON(w, http.StatusOK, subscriptionResponse{ChannelID: channelID, Subscribed: subscribed}, "subscription updated")
}

func (a *API) handleSubscribers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	u, _ := identity(r)
	ids, err := a.social.SubscriberIDs(r.Context(), u.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	users, err := a.hydrateUsers(r, ids)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users, "subscribers")
}

func (a *API) handleSubscriptions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	u, _ := identity(r)
	ids, err := a.social.SubscribedToIDs(r.Context(), u.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	users, err := a.hydrateUsers(r, ids)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users, "subscriptions")
}

// hydrateUsers resolves ids to public profiles, skipping deleted accounts.
func (a *API) hydrateUsers(r *http.Request, ids []string) ([]auth.User, error) {
	users := make([]auth.User, 0, len(ids))
	for _, id := range ids {
		u, err := a.sessions.User(r.Context(), id)
		if errors.Is(err, auth.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		users = append(users, u.Public())
	}
	return users, nil
}
