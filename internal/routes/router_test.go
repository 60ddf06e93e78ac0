package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingualink/lingualink-backend/internal/config"
	"github.com/lingualink/lingualink-backend/internal/handlers"
	"github.com/lingualink/lingualink-backend/internal/realtime"
	"github.com/lingualink/lingualink-backend/internal/repository/memory"
	"github.com/lingualink/lingualink-backend/internal/services"
	jwtutil "github.com/lingualink/lingualink-backend/pkg/jwt"
)

const testSecret = "test-secret"

type testServer struct {
	*httptest.Server
	hub *realtime.Hub
	cfg *config.Config
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:       testSecret,
		TokenExpiry:     time.Hour,
		AllowedOrigins:  []string{"http://localhost:5173"},
		StreamAPISecret: "stream-secret",
	}

	store := memory.NewStore()
	hub := realtime.NewHub(store)
	notifications := services.NewNotificationService(store, hub)
	users := services.NewUserService(store, store)
	friends := services.NewFriendService(store, store, store, store, notifications)

	srv := httptest.NewServer(NewRouter(cfg, Handlers{
		Auth:         handlers.NewAuthHandler(users, cfg),
		Friends:      handlers.NewFriendHandler(friends),
		Notification: handlers.NewNotificationHandler(notifications),
		Chat:         handlers.NewChatHandler(cfg),
		Realtime:     handlers.NewRealtimeHandler(hub, friends, cfg.JWTSecret, cfg.AllowedOrigins),
		LastActive:   users,
	}))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return &testServer{Server: srv, hub: hub, cfg: cfg}
}

type response struct {
	status int
	body   map[string]interface{}
}

func (s *testServer) do(t *testing.T, method, path, token string, payload interface{}) response {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req, err := http.NewRequest(method, s.URL+path, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := response{status: resp.StatusCode}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out.body))
	return out
}

type account struct {
	id    string
	token string
}

// signup creates and onboards a user.
func (s *testServer) signup(t *testing.T, name string) account {
	t.Helper()
	resp := s.do(t, "POST", "/api/auth/signup", "", map[string]string{
		"fullName": name,
		"email":    strings.ToLower(name) + "@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, resp.status, resp.body)
	acct := account{
		id:    resp.body["user"].(map[string]interface{})["_id"].(string),
		token: resp.body["token"].(string),
	}

	resp = s.do(t, "POST", "/api/auth/onboarding", acct.token, map[string]string{
		"fullName":         name,
		"bio":              "hello",
		"nativeLanguage":   "english",
		"learningLanguage": "spanish",
		"location":         "Lisbon",
	})
	require.Equal(t, http.StatusOK, resp.status, resp.body)
	return acct
}

func ids(t *testing.T, items interface{}) []string {
	t.Helper()
	list, ok := items.([]interface{})
	require.True(t, ok, "expected a list, got %T", items)
	out := make([]string, 0, len(list))
	for _, item := range list {
		out = append(out, item.(map[string]interface{})["_id"].(string))
	}
	return out
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp := srv.do(t, "GET", "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "OK", resp.body["status"])
	assert.Equal(t, "LinguaLink Backend is running!", resp.body["message"])
}

func TestAuthFlow(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.do(t, "POST", "/api/auth/signup", "", map[string]string{
		"fullName": "Ana", "email": "ana@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, resp.status)
	assert.Equal(t, true, resp.body["success"])
	user := resp.body["user"].(map[string]interface{})
	assert.NotContains(t, user, "hashedPassword")
	assert.Equal(t, false, user["isOnboarded"])
	token := resp.body["token"].(string)

	claims, err := jwtutil.ValidateToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, user["_id"], claims.UserID)

	resp = srv.do(t, "POST", "/api/auth/signup", "", map[string]string{
		"fullName": "Ana", "email": "ana@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, resp.status)
	assert.Equal(t, false, resp.body["success"])
	assert.Equal(t, "Email already exists, please use a different one", resp.body["message"])

	resp = srv.do(t, "POST", "/api/auth/login", "", map[string]string{"email": "ana@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.status)
	assert.Equal(t, "Invalid email or password", resp.body["message"])

	resp = srv.do(t, "POST", "/api/auth/login", "", map[string]string{"email": "ana@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, resp.status)
	assert.NotEmpty(t, resp.body["token"])

	resp = srv.do(t, "POST", "/api/auth/onboarding", token, map[string]string{"fullName": "Ana"})
	assert.Equal(t, http.StatusBadRequest, resp.status)
	assert.Contains(t, resp.body["message"], "Missing: bio")

	resp = srv.do(t, "GET", "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "ana@example.com", resp.body["user"].(map[string]interface{})["email"])

	resp = srv.do(t, "POST", "/api/auth/logout", "", nil)
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, true, resp.body["success"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/api/users", "/api/users/friends", "/api/users/friend-requests", "/api/notifications", "/api/auth/me"} {
		resp := srv.do(t, "GET", path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.status, path)
		assert.Equal(t, false, resp.body["success"], path)
	}

	resp := srv.do(t, "GET", "/api/users", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.status)
}

func TestFriendshipScenario(t *testing.T) {
	srv := newTestServer(t)
	alice, bob := srv.signup(t, "Alice"), srv.signup(t, "Bob")

	resp := srv.do(t, "POST", "/api/users/friend-request/"+bob.id, alice.token, nil)
	require.Equal(t, http.StatusCreated, resp.status, resp.body)
	request := resp.body["request"].(map[string]interface{})
	assert.Equal(t, "pending", request["status"])
	requestID := request["_id"].(string)

	resp = srv.do(t, "GET", "/api/users/outgoing-friend-requests", alice.token, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, []string{requestID}, ids(t, resp.body["outgoingReqs"]))

	resp = srv.do(t, "GET", "/api/users/friend-requests", bob.token, nil)
	require.Equal(t, http.StatusOK, resp.status)
	incoming := resp.body["incomingReqs"].([]interface{})
	require.Len(t, incoming, 1)
	sender := incoming[0].(map[string]interface{})["sender"].(map[string]interface{})
	assert.Equal(t, "Alice", sender["fullName"])

	resp = srv.do(t, "PUT", "/api/users/friend-request/"+requestID+"/accept", bob.token, nil)
	require.Equal(t, http.StatusOK, resp.status, resp.body)

	resp = srv.do(t, "GET", "/api/users/friends", alice.token, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, []string{bob.id}, ids(t, resp.body["data"]))

	resp = srv.do(t, "GET", "/api/users/friends", bob.token, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, []string{alice.id}, ids(t, resp.body["data"]))

	resp = srv.do(t, "GET", "/api/users/friend-requests", alice.token, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, []string{requestID}, ids(t, resp.body["acceptedReqs"]))

	resp = srv.do(t, "GET", "/api/users", alice.token, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Empty(t, resp.body["data"])

	for i := 0; i < 2; i++ {
		resp = srv.do(t, "DELETE", "/api/friends/"+bob.id, alice.token, nil)
		require.Equal(t, http.StatusOK, resp.status)
		assert.Equal(t, "Friend removed", resp.body["message"])
	}

	resp = srv.do(t, "GET", "/api/users/friends", bob.token, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Empty(t, resp.body["data"])

	resp = srv.do(t, "GET", "/api/users", bob.token, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, []string{alice.id}, ids(t, resp.body["data"]))
}

func TestFriendRequestErrors(t *testing.T) {
	srv := newTestServer(t)
	alice, bob, carol := srv.signup(t, "Alice"), srv.signup(t, "Bob"), srv.signup(t, "Carol")

	tests := []struct {
		name    string
		method  string
		path    func(requestID string) string
		token   string
		status  int
		message string
	}{
		{"self request", "POST", func(string) string { return "/api/users/friend-request/" + alice.id }, alice.token,
			http.StatusBadRequest, "You can't send friend request to yourself"},
		{"duplicate", "POST", func(string) string { return "/api/users/friend-request/" + bob.id }, alice.token,
			http.StatusBadRequest, "A friend request already exists between you and this user"},
		{"reverse", "POST", func(string) string { return "/api/users/friend-request/" + alice.id }, bob.token,
			http.StatusBadRequest, "A friend request already exists between you and this user"},
		{"unknown recipient", "POST", func(string) string { return "/api/users/friend-request/507f1f77bcf86cd799439011" }, alice.token,
			http.StatusNotFound, "Recipient not found"},
		{"malformed recipient", "POST", func(string) string { return "/api/users/friend-request/nope" }, alice.token,
			http.StatusBadRequest, "Invalid user ID"},
		{"accept as outsider", "PUT", func(id string) string { return "/api/users/friend-request/" + id + "/accept" }, carol.token,
			http.StatusForbidden, "You are not authorized to accept this request"},
		{"accept as sender", "PUT", func(id string) string { return "/api/users/friend-request/" + id + "/accept" }, alice.token,
			http.StatusForbidden, "You are not authorized to accept this request"},
		{"accept unknown", "PUT", func(string) string { return "/api/users/friend-request/507f1f77bcf86cd799439011/accept" }, bob.token,
			http.StatusNotFound, "Friend request not found"},
	}

	resp := srv.do(t, "POST", "/api/users/friend-request/"+bob.id, alice.token, nil)
	require.Equal(t, http.StatusCreated, resp.status)
	requestID := resp.body["request"].(map[string]interface{})["_id"].(string)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := srv.do(t, tt.method, tt.path(requestID), tt.token, nil)
			assert.Equal(t, tt.status, resp.status)
			assert.Equal(t, false, resp.body["success"])
			assert.Equal(t, tt.message, resp.body["message"])
		})
	}

	resp = srv.do(t, "PUT", "/api/users/friend-request/"+requestID+"/accept", bob.token, nil)
	require.Equal(t, http.StatusOK, resp.status)
	resp = srv.do(t, "PUT", "/api/users/friend-request/"+requestID+"/accept", bob.token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.status)
	assert.Equal(t, "Friend request already accepted", resp.body["message"])

	resp = srv.do(t, "POST", "/api/users/friend-request/"+bob.id, alice.token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.status)
	assert.Equal(t, "You are already friends with this user", resp.body["message"])
}

func TestNotifications(t *testing.T) {
	srv := newTestServer(t)
	alice, bob := srv.signup(t, "Alice"), srv.signup(t, "Bob")

	resp := srv.do(t, "POST", "/api/users/friend-request/"+bob.id, alice.token, nil)
	require.Equal(t, http.StatusCreated, resp.status)

	resp = srv.do(t, "GET", "/api/notifications", bob.token, nil)
	require.Equal(t, http.StatusOK, resp.status)
	notifs := resp.body["notifications"].([]interface{})
	require.Len(t, notifs, 1)
	notif := notifs[0].(map[string]interface{})
	assert.Equal(t, "friend_request", notif["type"])
	assert.Equal(t, false, notif["read"])
	notifID := notif["_id"].(string)

	resp = srv.do(t, "PUT", "/api/notifications/"+notifID+"/read", alice.token, nil)
	assert.Equal(t, http.StatusNotFound, resp.status)
	resp = srv.do(t, "DELETE", "/api/notifications/"+notifID, alice.token, nil)
	assert.Equal(t, http.StatusNotFound, resp.status)

	resp = srv.do(t, "PUT", "/api/notifications/"+notifID+"/read", bob.token, nil)
	require.Equal(t, http.StatusOK, resp.status)
	resp = srv.do(t, "GET", "/api/notifications", bob.token, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, true, resp.body["notifications"].([]interface{})[0].(map[string]interface{})["read"])

	resp = srv.do(t, "DELETE", "/api/notifications/"+notifID, bob.token, nil)
	require.Equal(t, http.StatusOK, resp.status)
	resp = srv.do(t, "GET", "/api/notifications", bob.token, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Empty(t, resp.body["notifications"])
}

func TestChatToken(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.signup(t, "Alice")

	resp := srv.do(t, "GET", "/api/chat/token", alice.token, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.NotEmpty(t, resp.body["token"])

	srv.cfg.StreamAPISecret = ""
	resp = srv.do(t, "GET", "/api/chat/token", alice.token, nil)
	assert.Equal(t, http.StatusInternalServerError, resp.status)
	assert.Equal(t, "Internal server error", resp.body["message"])
}

func dialEvents(t *testing.T, srv *testServer, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) realtime.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev realtime.Event
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestRealtimeNotificationsAndPresence(t *testing.T) {
	srv := newTestServer(t)
	alice, bob := srv.signup(t, "Alice"), srv.signup(t, "Bob")

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	bobConn := dialEvents(t, srv, bob.token)
	require.Eventually(t, func() bool { return srv.hub.IsOnline(bob.id) }, time.Second, 10*time.Millisecond)

	r := srv.do(t, "POST", "/api/users/friend-request/"+bob.id, alice.token, nil)
	require.Equal(t, http.StatusCreated, r.status)
	requestID := r.body["request"].(map[string]interface{})["_id"].(string)

	ev := readEvent(t, bobConn)
	assert.Equal(t, services.EventNotification, ev.Type)
	assert.Equal(t, "friend_request", ev.Data.(map[string]interface{})["type"])

	r = srv.do(t, "PUT", "/api/users/friend-request/"+requestID+"/accept", bob.token, nil)
	require.Equal(t, http.StatusOK, r.status)

	r = srv.do(t, "GET", "/api/users/friends/online", alice.token, nil)
	require.Equal(t, http.StatusOK, r.status)
	assert.Equal(t, []interface{}{bob.id}, r.body["online"])

	dialEvents(t, srv, alice.token)
	ev = readEvent(t, bobConn)
	assert.Equal(t, realtime.EventStatus, ev.Type)
	assert.Equal(t, map[string]interface{}{"userId": alice.id, "status": realtime.StatusOnline}, ev.Data)
}
