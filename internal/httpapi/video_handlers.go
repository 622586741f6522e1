package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"cliphub.org/internal/social"
	"cliphub.org/internal/stream"
	"cliphub.org/internal/video"
)

type videoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	VideoFile   string `json:"video_file"`
	Thumbnail   string `json:"thumbnail"`
	Duration    int64  `json:"duration"`
	Published   bool   `json:"published"`
}

type videoDetailResponse struct {
	Video    video.Video         `json:"video"`
	Ratings  social.RatingCounts `json:"ratings"`
	Comments social.CommentPage  `json:"comments"`
}

func (a *API) handleVideos(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req videoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	u, _ := identity(r)
	v, err := a.videos.Publish(r.Context(), u.ID, video.PublishParams{
		Title:       req.Title,
		Description: req.Description,
		VideoFile:   req.VideoFile,
		Thumbnail:   req.Thumbnail,
		Duration:    req.Duration,
		Published:   req.Published,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if v.Published {
		a.publish(stream.Event{Type: stream.EventVideoPublished, VideoID: v.ID, ChannelID: u.ID, ActorID: u.ID})
	}
	writeJSON(w, http.StatusCreated, v, "video published")
}

func (a *API) handleFeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	page, limit := pageParams(r)
	feed, err := a.videos.Feed(r.Context(), page, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, feed, "feed")
}

func (a *API) handleMyVideos(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	u, _ := identity(r)
	page, limit := pageParams(r)
	f := video.OwnerFilter{
		Title: r.URL.Query().Get("title"),
		Page:  page,
		Limit: limit,
	}
	if raw := r.URL.Query().Get("published"); raw != "" {
		published, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid published filter")
			return
		}
		f.Published = &published
	}
	mine, err := a.videos.Mine(r.Context(), u.ID, f)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mine, "my videos")
}

func (a *API) handleVideoByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/videos/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getVideo(w, r, id)
	case http.MethodPatch:
		a.editVideo(w, r, id)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPatch)
	}
}

// getVideo composes the watch page: the video, its rating tallies and the
// first page of comments.
func (a *API) getVideo(w http.ResponseWriter, r *http.Request, id string) {
	v, err := a.videos.Get(r.Context(), id, viewerID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	ratings, err := a.social.VideoRatings(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	comments, err := a.social.Comments(r.Context(), id, viewerID(r), 1, 10)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, videoDetailResponse{
		Video:    *v,
		Ratings:  ratings,
		Comments: comments,
	}, "video")
}

func (a *API) editVideo(w http.ResponseWriter, r *http.Request, id string) {
	u, ok := identity(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing access token")
		return
	}
	var req videoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	v, err := a.videos.Edit(r.Context(), u.ID, id, video.PublishParams{
		Title:       req.Title,
		Description: req.Description,
		Thumbnail:   req.Thumbnail,
		Published:   req.Published,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v, "video updated")
}

func pageParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return page, limit
}
