package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cliphub.org/internal/activity"
	"cliphub.org/internal/auth"
	"cliphub.org/internal/social"
	"cliphub.org/internal/stream"
	"cliphub.org/internal/video"
)

type respEnvelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
}

type testEnv struct {
	t      *testing.T
	api    *API
	h      http.Handler
	nextIP int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	tokens, err := auth.NewTokens("access-secret", "refresh-secret")
	require.NoError(t, err)
	api := New(Config{
		Sessions:        auth.NewSessions(auth.NewInMemory(), tokens),
		Videos:          video.NewService(video.NewInMemory()),
		Social:          social.NewService(social.NewInMemory()),
		Activity:        activity.NewRecorder(activity.NewInMemory()),
		Stream:          stream.New(),
		Version:         "test",
		CORSOrigin:      "http://localhost:3000",
		InsecureCookies: true,
	})
	return &testEnv{t: t, api: api, h: api.Handler()}
}

type reqOpts struct {
	bearer  string
	cookies []*http.Cookie
}

func (e *testEnv) do(method, path string, body any, opts reqOpts) (*httptest.ResponseRecorder, respEnvelope) {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	e.nextIP++
	req.RemoteAddr = fmt.Sprintf("10.1.%d.%d:5000", e.nextIP/200, e.nextIP%200)
	if opts.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+opts.bearer)
	}
	for _, c := range opts.cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	e.h.ServeHTTP(rr, req)

	var env respEnvelope
	if rr.Body.Len() > 0 && strings.Contains(rr.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(rr.Body.Bytes(), &env)
	}
	return rr, env
}

func (e *testEnv) register(username string) {
	e.t.Helper()
	rr, _ := e.do(http.MethodPost, "/v1/users/register", map[string]any{
		"username": username,
		"email":    username + "@example.com",
		"fullname": "User " + username,
		"password": "secret1",
		"avatar":   "https://cdn.example.com/" + username + ".png",
	}, reqOpts{})
	require.Equal(e.t, http.StatusCreated, rr.Code, rr.Body.String())
}

func (e *testEnv) login(username string) auth.TokenPair {
	e.t.Helper()
	rr, env := e.do(http.MethodPost, "/v1/users/login", map[string]any{
		"identifier": username,
		"password":   "secret1",
	}, reqOpts{})
	require.Equal(e.t, http.StatusOK, rr.Code, rr.Body.String())
	var session struct {
		Tokens auth.TokenPair `json:"tokens"`
	}
	require.NoError(e.t, json.Unmarshal(env.Data, &session))
	return session.Tokens
}

func TestRegisterLoginAndMe(t *testing.T) {
	e := newTestEnv(t)
	e.register("ada")

	rr, env := e.do(http.MethodPost, "/v1/users/login", map[string]any{
		"identifier": "ada", "password": "secret1",
	}, reqOpts{})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, env.Success)

	var gotAccess, gotRefresh bool
	for _, c := range rr.Result().Cookies() {
		switch c.Name {
		case accessCookieName:
			gotAccess = c.HttpOnly && c.Value != ""
		case refreshCookieName:
			gotRefresh = c.HttpOnly && c.Value != ""
		}
	}
	assert.True(t, gotAccess, "expected httpOnly access cookie")
	assert.True(t, gotRefresh, "expected httpOnly refresh cookie")

	pair := e.login("ada")
	rr, env = e.do(http.MethodGet, "/v1/users/me", nil, reqOpts{bearer: pair.AccessToken})
	require.Equal(t, http.StatusOK, rr.Code)
	var me auth.User
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "ada", me.Username)

	rr, env = e.do(http.MethodGet, "/v1/users/me", nil, reqOpts{})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, env.Success)
}

func TestRegisterDuplicateConflict(t *testing.T) {
	e := newTestEnv(t)
	e.register("ada")

	rr, _ := e.do(http.MethodPost, "/v1/users/register", map[string]any{
		"username": "ada", "email": "other@example.com", "fullname": "x",
		"password": "y", "avatar": "a",
	}, reqOpts{})
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestLoginBadCredentials(t *testing.T) {
	e := newTestEnv(t)
	e.register("ada")

	rr, _ := e.do(http.MethodPost, "/v1/users/login", map[string]any{
		"identifier": "ada", "password": "wrong",
	}, reqOpts{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, _ = e.do(http.MethodPost, "/v1/users/login", map[string]any{
		"identifier": "ghost", "password": "secret1",
	}, reqOpts{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRefreshRotation(t *testing.T) {
	e := newTestEnv(t)
	e.register("ada")
	pair := e.login("ada")

	// Refresh via cookie, the browser flow.
	rr, env := e.do(http.MethodPost, "/v1/users/refresh", nil, reqOpts{
		cookies: []*http.Cookie{{Name: refreshCookieName, Value: pair.RefreshToken}},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var session struct {
		Tokens auth.TokenPair `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))
	require.NotEqual(t, pair.RefreshToken, session.Tokens.RefreshToken)

	// The superseded token fails even though its signature is valid.
	rr, _ = e.do(http.MethodPost, "/v1/users/refresh", map[string]any{
		"refresh_token": pair.RefreshToken,
	}, reqOpts{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// The current token works via the body, the API-client flow.
	rr, _ = e.do(http.MethodPost, "/v1/users/refresh", map[string]any{
		"refresh_token": session.Tokens.RefreshToken,
	}, reqOpts{})
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRefreshGarbageUnauthorized(t *testing.T) {
	e := newTestEnv(t)
	rr, _ := e.do(http.MethodPost, "/v1/users/refresh", map[string]any{
		"refresh_token": "garbage",
	}, reqOpts{})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLogoutRevokesAndClearsCookies(t *testing.T) {
	e := newTestEnv(t)
	e.register("ada")
	pair := e.login("ada")

	rr, _ := e.do(http.MethodPost, "/v1/users/logout", nil, reqOpts{bearer: pair.AccessToken})
	require.Equal(t, http.StatusOK, rr.Code)
	for _, c := range rr.Result().Cookies() {
		if c.Name == accessCookieName || c.Name == refreshCookieName {
			assert.True(t, c.MaxAge < 0, "expected %s cookie cleared", c.Name)
		}
	}

	rr, _ = e.do(http.MethodPost, "/v1/users/refresh", map[string]any{
		"refresh_token": pair.RefreshToken,
	}, reqOpts{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestChangePasswordForcesRelogin(t *testing.T) {
	e := newTestEnv(t)
	e.register("ada")
	pair := e.login("ada")

	rr, _ := e.do(http.MethodPost, "/v1/users/change-password", map[string]any{
		"old_password": "secret1", "new_password": "secret2",
	}, reqOpts{bearer: pair.AccessToken})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr, _ = e.do(http.MethodPost, "/v1/users/refresh", map[string]any{
		"refresh_token": pair.RefreshToken,
	}, reqOpts{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, _ = e.do(http.MethodPost, "/v1/users/login", map[string]any{
		"identifier": "ada", "password": "secret2",
	}, reqOpts{})
	assert.Equal(t, http.StatusOK, rr.Code)
}

func (e *testEnv) publishVideo(token, title string) video.Video {
	e.t.Helper()
	rr, env := e.do(http.MethodPost, "/v1/videos", map[string]any{
		"title":       title,
		"description": "a description",
		"video_file":  "https://cdn.example.com/v.mp4",
		"thumbnail":   "https://cdn.example.com/t.jpg",
		"duration":    90,
		"published":   true,
	}, reqOpts{bearer: token})
	require.Equal(e.t, http.StatusCreated, rr.Code, rr.Body.String())
	var v video.Video
	require.NoError(e.t, json.Unmarshal(env.Data, &v))
	return v
}

func TestVideoPublishFeedAndWatch(t *testing.T) {
	e := newTestEnv(t)
	e.register("owner")
	e.register("viewer")
	ownerTok := e.login("owner")
	viewerTok := e.login("viewer")

	v := e.publishVideo(ownerTok.AccessToken, "first upload")

	// The feed is public.
	rr, env := e.do(http.MethodGet, "/v1/videos/feed", nil, reqOpts{})
	require.Equal(t, http.StatusOK, rr.Code)
	var page video.Page
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "first upload", page.Items[0].Title)

	// An authenticated watch counts a view and lands in history.
	rr, env = e.do(http.MethodGet, "/v1/videos/"+v.ID, nil, reqOpts{bearer: viewerTok.AccessToken})
	require.Equal(t, http.StatusOK, rr.Code)
	var detail videoDetailResponse
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Equal(t, int64(1), detail.Video.Views)

	rr, env = e.do(http.MethodGet, "/v1/users/watch-history", nil, reqOpts{bearer: viewerTok.AccessToken})
	require.Equal(t, http.StatusOK, rr.Code)
	var history []video.Video
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, 1)
	assert.Equal(t, v.ID, history[0].ID)

	// Anonymous watch works but stays out of any history.
	rr, _ = e.do(http.MethodGet, "/v1/videos/"+v.ID, nil, reqOpts{})
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestVideoEditOwnerOnly(t *testing.T) {
	e := newTestEnv(t)
	e.register("owner")
	e.register("intruder")
	ownerTok := e.login("owner")
	intruderTok := e.login("intruder")

	v := e.publishVideo(ownerTok.AccessToken, "original")

	edit := map[string]any{"title": "renamed", "description": "new", "published": true}
	rr, _ := e.do(http.MethodPatch, "/v1/videos/"+v.ID, edit, reqOpts{bearer: intruderTok.AccessToken})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr, env := e.do(http.MethodPatch, "/v1/videos/"+v.ID, edit, reqOpts{bearer: ownerTok.AccessToken})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var updated video.Video
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "renamed", updated.Title)
}

func TestCommentsFlow(t *testing.T) {
	e := newTestEnv(t)
	e.register("owner")
	e.register("fan")
	ownerTok := e.login("owner")
	fanTok := e.login("fan")

	v := e.publishVideo(ownerTok.AccessToken, "commented")

	rr, env := e.do(http.MethodPost, "/v1/comments", map[string]any{
		"video_id": v.ID, "content": "great video",
	}, reqOpts{bearer: fanTok.AccessToken})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var c social.Comment
	require.NoError(t, json.Unmarshal(env.Data, &c))

	rr, _ = e.do(http.MethodPost, "/v1/comments", map[string]any{
		"video_id": "missing", "content": "hello",
	}, reqOpts{bearer: fanTok.AccessToken})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr, env = e.do(http.MethodGet, "/v1/comments/"+v.ID, nil, reqOpts{})
	require.Equal(t, http.StatusOK, rr.Code)
	var listed social.CommentPage
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	require.Len(t, listed.Items, 1)
	assert.Equal(t, "great video", listed.Items[0].Content)

	rr, _ = e.do(http.MethodPut, "/v1/comments/"+c.ID, map[string]any{
		"content": "edited",
	}, reqOpts{bearer: ownerTok.AccessToken})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr, _ = e.do(http.MethodDelete, "/v1/comments/"+c.ID, nil, reqOpts{bearer: fanTok.AccessToken})
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestLikesFlow(t *testing.T) {
	e := newTestEnv(t)
	e.register("owner")
	e.register("fan")
	ownerTok := e.login("owner")
	fanTok := e.login("fan")

	v := e.publishVideo(ownerTok.AccessToken, "likeable")

	rr, env := e.do(http.MethodPost, "/v1/likes/video", map[string]any{
		"target_id": v.ID, "like": true,
	}, reqOpts{bearer: fanTok.AccessToken})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var status social.RatingStatus
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.Equal(t, int64(1), status.Likes)
	assert.True(t, status.Liked)

	// Repeating the same rating is rejected and leaves the like standing.
	rr, env = e.do(http.MethodPost, "/v1/likes/video", map[string]any{
		"target_id": v.ID, "like": true,
	}, reqOpts{bearer: fanTok.AccessToken})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.False(t, env.Success)

	rr, env = e.do(http.MethodGet, "/v1/likes/mine", nil, reqOpts{bearer: fanTok.AccessToken})
	require.Equal(t, http.StatusOK, rr.Code)
	var liked []video.Video
	require.NoError(t, json.Unmarshal(env.Data, &liked))
	require.Len(t, liked, 1)
	assert.Equal(t, v.ID, liked[0].ID)

	rr, _ = e.do(http.MethodPost, "/v1/likes/video", map[string]any{
		"target_id": "missing", "like": true,
	}, reqOpts{bearer: fanTok.AccessToken})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSubscriptionsAndChannelProfile(t *testing.T) {
	e := newTestEnv(t)
	e.register("creator")
	e.register("fan")
	creatorTok := e.login("creator")
	fanTok := e.login("fan")

	rr, env := e.do(http.MethodGet, "/v1/users/me", nil, reqOpts{bearer: creatorTok.AccessToken})
	require.Equal(t, http.StatusOK, rr.Code)
	var creator auth.User
	require.NoError(t, json.Unmarshal(env.Data, &creator))

	rr, env = e.do(http.MethodPost, "/v1/subscriptions/"+creator.ID, nil, reqOpts{bearer: fanTok.AccessToken})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var sub subscriptionResponse
	require.NoError(t, json.Unmarshal(env.Data, &sub))
	assert.True(t, sub.Subscribed)

	rr, env = e.do(http.MethodGet, "/v1/channels/"+creator.ID, nil, reqOpts{bearer: fanTok.AccessToken})
	require.Equal(t, http.StatusOK, rr.Code)
	var channel channelResponse
	require.NoError(t, json.Unmarshal(env.Data, &channel))
	assert.Equal(t, "creator", channel.Channel.Username)
	assert.Equal(t, int64(1), channel.Stats.Subscribers)
	assert.True(t, channel.Stats.IsSubscribed)

	rr, env = e.do(http.MethodGet, "/v1/subscriptions/mine", nil, reqOpts{bearer: fanTok.AccessToken})
	require.Equal(t, http.StatusOK, rr.Code)
	var mine []auth.User
	require.NoError(t, json.Unmarshal(env.Data, &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, creator.ID, mine[0].ID)

	rr, env = e.do(http.MethodGet, "/v1/subscriptions/subscribers", nil, reqOpts{bearer: creatorTok.AccessToken})
	require.Equal(t, http.StatusOK, rr.Code)
	var subs []auth.User
	require.NoError(t, json.Unmarshal(env.Data, &subs))
	require.Len(t, subs, 1)
	assert.Equal(t, "fan", subs[0].Username)

	// Toggling again unsubscribes.
	rr, env = e.do(http.MethodPost, "/v1/subscriptions/"+creator.ID, nil, reqOpts{bearer: fanTok.AccessToken})
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(env.Data, &sub))
	assert.False(t, sub.Subscribed)
}

func TestActivityRecorded(t *testing.T) {
	e := newTestEnv(t)
	e.register("ada")
	pair := e.login("ada")

	_, _ = e.do(http.MethodGet, "/v1/users/me", nil, reqOpts{bearer: pair.AccessToken})

	rr, env := e.do(http.MethodGet, "/v1/users/activity", nil, reqOpts{bearer: pair.AccessToken})
	require.Equal(t, http.StatusOK, rr.Code)
	var entries []activity.Entry
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	require.NotEmpty(t, entries)
	assert.Equal(t, "/v1/users/me", entries[0].Endpoint)
}

func TestProfileAndAssetUpdates(t *testing.T) {
	e := newTestEnv(t)
	e.register("ada")
	pair := e.login("ada")

	rr, env := e.do(http.MethodPut, "/v1/users/me", map[string]any{
		"fullname": "Ada L.", "email": "ada2@example.com", "username": "ada", "password": "secret1",
	}, reqOpts{bearer: pair.AccessToken})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var me auth.User
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "ada2@example.com", me.Email)

	rr, env = e.do(http.MethodPut, "/v1/users/me/avatar", map[string]any{
		"url": "https://cdn.example.com/new.png",
	}, reqOpts{bearer: pair.AccessToken})
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "https://cdn.example.com/new.png", me.Avatar)
}

func TestUnknownRouteEnvelope(t *testing.T) {
	e := newTestEnv(t)
	rr, env := e.do(http.MethodGet, "/nope", nil, reqOpts{})
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.False(t, env.Success)
	assert.Equal(t, http.StatusNotFound, env.StatusCode)
}

func TestHealthAndInfo(t *testing.T) {
	e := newTestEnv(t)
	for _, path := range []string{"/healthz", "/readyz", "/v1/info"} {
		rr, env := e.do(http.MethodGet, path, nil, reqOpts{})
		assert.Equal(t, http.StatusOK, rr.Code, path)
		assert.True(t, env.Success, path)
	}
}

func TestStreamDeliversEvents(t *testing.T) {
	e := newTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/v1/events", nil).WithContext(ctx)
	rr := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		e.api.Stream(rr, req)
		close(done)
	}()

	// Give the subscriber time to register, then publish and end the stream.
	time.Sleep(50 * time.Millisecond)
	e.api.publish(stream.Event{Type: stream.EventVideoRated, VideoID: "v1", ActorID: "u1"})
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream handler did not exit after context cancel")
	}

	body := rr.Body.String()
	assert.Contains(t, body, ": stream started")
	assert.Contains(t, body, stream.EventVideoRated)
}
