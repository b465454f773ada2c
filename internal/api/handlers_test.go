package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aliyevm/telechat/internal/store"
	"github.com/aliyevm/telechat/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// findCookie is a helper function to find a cookie by name in the response recorder.
// It returns the cookie if found, or nil if not found.
func findCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range rr.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func Test_healthCheck(t *testing.T) {
	tcases := []struct {
		name         string
		mockErr      error
		expectedCode int
	}{
		{
			name:         "successful health check",
			mockErr:      nil,
			expectedCode: http.StatusOK,
		},
		{
			name:         "failed health check",
			mockErr:      errors.New("backend error"),
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &store.MockRepository{}
			defer mockRepo.AssertExpectations(t)

			mockRepo.On("Ping").Return(tc.mockErr).Once()
			app := newTestApp(t, mockRepo)

			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			app.healthCheck(rr, req)

			assert.Equal(t, tc.expectedCode, rr.Code)
			if tc.expectedCode == http.StatusOK {
				assert.Equal(t, "OK", rr.Body.String())
			}
		})
	}
}

func Test_register(t *testing.T) {
	t.Run("successful registration", func(t *testing.T) {
		mockRepo := &store.MockRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("CreateUser", mock.MatchedBy(func(u store.User) bool {
			return u.Username == "alice" &&
				u.Name == "Alice" &&
				u.Online &&
				verifyPassword(u.PasswordHash, "password")
		})).Return(store.User{
			Id:       1,
			Username: "alice",
			Name:     "Alice",
			Online:   true,
		}, nil).Once()

		app := newTestApp(t, mockRepo)

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register",
			strings.NewReader(`{"username":"alice","password":"password","name":"Alice"}`))
		app.register(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var session types.UserSession
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&session))
		assert.Equal(t, int64(1), session.User.Id)
		assert.Equal(t, "alice", session.User.Username)
		assert.NotEmpty(t, session.Token, "expected token in response body")

		cookie := findCookie(rr, tokenCookieKey)
		assert.NotNil(t, cookie, "expected session cookie to be set")
		assert.Equal(t, session.Token, cookie.Value)

		userId, err := app.extractUserIdFromToken(session.Token)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), userId)
	})

	t.Run("name defaults to username", func(t *testing.T) {
		mockRepo := &store.MockRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("CreateUser", mock.MatchedBy(func(u store.User) bool {
			return u.Username == "bob" && u.Name == "bob"
		})).Return(store.User{Id: 2, Username: "bob", Name: "bob"}, nil).Once()

		app := newTestApp(t, mockRepo)

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register",
			strings.NewReader(`{"username":"bob","password":"password"}`))
		app.register(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("duplicate username", func(t *testing.T) {
		mockRepo := &store.MockRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("CreateUser", mock.AnythingOfType("store.User")).
			Return(store.User{}, store.ErrDuplicate).Once()

		app := newTestApp(t, mockRepo)

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register",
			strings.NewReader(`{"username":"alice","password":"password"}`))
		app.register(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var apiErr ApiError
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&apiErr))
		assert.Equal(t, msgUsernameTaken, apiErr.Message)
	})

	t.Run("missing credentials", func(t *testing.T) {
		app := newTestApp(t, &store.MockRepository{})

		for _, body := range []string{
			`{"username":"alice"}`,
			`{"password":"password"}`,
			`{}`,
		} {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
			app.register(rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code)

			var apiErr ApiError
			assert.NoError(t, json.NewDecoder(rr.Body).Decode(&apiErr))
			assert.Equal(t, msgCredentialsNeeded, apiErr.Message)
		}
	})

	t.Run("invalid body", func(t *testing.T) {
		app := newTestApp(t, &store.MockRepository{})

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader("{not json"))
		app.register(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func Test_login(t *testing.T) {
	hash, err := hashPassword("password")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	t.Run("successful login", func(t *testing.T) {
		mockRepo := &store.MockRepository{}
		defer mockRepo.AssertExpectations(t)

		user := store.User{Id: 1, Username: "alice", PasswordHash: hash, Name: "Alice"}
		mockRepo.On("GetUserByUsername", "alice").Return(user, nil).Once()
		mockRepo.On("UpdateUser", mock.MatchedBy(func(u store.User) bool {
			return u.Id == 1 && u.Online && !u.LastSeen.IsZero()
		})).Return(store.User{Id: 1, Username: "alice", Name: "Alice", Online: true}, nil).Once()

		app := newTestApp(t, mockRepo)

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
			strings.NewReader(`{"username":"alice","password":"password"}`))
		app.login(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var session types.UserSession
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&session))
		assert.Equal(t, int64(1), session.User.Id)
		assert.True(t, session.User.Online)
		assert.NotEmpty(t, session.Token)
		assert.NotNil(t, findCookie(rr, tokenCookieKey), "expected session cookie to be set")
	})

	t.Run("wrong password", func(t *testing.T) {
		mockRepo := &store.MockRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetUserByUsername", "alice").
			Return(store.User{Id: 1, Username: "alice", PasswordHash: hash}, nil).Once()

		app := newTestApp(t, mockRepo)

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
			strings.NewReader(`{"username":"alice","password":"wrong"}`))
		app.login(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var apiErr ApiError
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&apiErr))
		assert.Equal(t, msgInvalidCredentials, apiErr.Message)
	})

	t.Run("unknown username", func(t *testing.T) {
		mockRepo := &store.MockRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetUserByUsername", "ghost").
			Return(store.User{}, store.ErrNotFound).Once()

		app := newTestApp(t, mockRepo)

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
			strings.NewReader(`{"username":"ghost","password":"password"}`))
		app.login(rr, req)

		// identical to the wrong-password response
		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var apiErr ApiError
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&apiErr))
		assert.Equal(t, msgInvalidCredentials, apiErr.Message)
	})

	t.Run("missing credentials", func(t *testing.T) {
		app := newTestApp(t, &store.MockRepository{})

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
			strings.NewReader(`{"username":"alice"}`))
		app.login(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func Test_logout(t *testing.T) {
	mockRepo := &store.MockRepository{}
	defer mockRepo.AssertExpectations(t)

	user := store.User{Id: 1, Username: "alice", Online: true}
	mockRepo.On("GetUser", int64(1)).Return(user, nil).Once()
	mockRepo.On("UpdateUser", mock.MatchedBy(func(u store.User) bool {
		return u.Id == 1 && !u.Online
	})).Return(user, nil).Once()

	app := newTestApp(t, mockRepo)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req = req.WithContext(WithUserId(req.Context(), 1))
	app.logout(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var ack types.Ack
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&ack))
	assert.True(t, ack.Success)

	cookie := findCookie(rr, tokenCookieKey)
	assert.NotNil(t, cookie, "expected cookie to be overwritten")
	assert.Empty(t, cookie.Value)
	assert.True(t, cookie.Expires.Before(time.Now()), "expected cookie to be expired")
}

func Test_me(t *testing.T) {
	t.Run("returns current user", func(t *testing.T) {
		mockRepo := &store.MockRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetUser", int64(1)).
			Return(store.User{Id: 1, Username: "alice", Name: "Alice", PasswordHash: "secret-hash"}, nil).Once()

		app := newTestApp(t, mockRepo)

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req = req.WithContext(WithUserId(req.Context(), 1))
		app.me(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var session types.UserSession
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&session))
		assert.Equal(t, "alice", session.User.Username)
		assert.Empty(t, session.Token, "me response carries no token")
		assert.NotContains(t, rr.Body.String(), "secret-hash")
	})

	t.Run("user not found", func(t *testing.T) {
		mockRepo := &store.MockRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetUser", int64(1)).Return(store.User{}, store.ErrNotFound).Once()

		app := newTestApp(t, mockRepo)

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req = req.WithContext(WithUserId(req.Context(), 1))
		app.me(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)

		var apiErr ApiError
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&apiErr))
		assert.Equal(t, msgUserNotFound, apiErr.Message)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		app := newTestApp(t, &store.MockRepository{})

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		app.me(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func Test_listUsers(t *testing.T) {
	mockRepo := &store.MockRepository{}
	defer mockRepo.AssertExpectations(t)

	mockRepo.On("ListUsers").Return([]store.User{
		{Id: 1, Username: "alice", PasswordHash: "hash-a"},
		{Id: 2, Username: "bob", PasswordHash: "hash-b"},
	}, nil).Once()

	app := newTestApp(t, mockRepo)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req = req.WithContext(WithUserId(req.Context(), 1))
	app.listUsers(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var users []types.User
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&users))
	assert.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.NotContains(t, rr.Body.String(), "hash-a", "password hashes must not leak")
}

func Test_updateProfile(t *testing.T) {
	t.Run("updates name and avatar", func(t *testing.T) {
		mockRepo := &store.MockRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetUser", int64(1)).
			Return(store.User{Id: 1, Username: "alice", Name: "Alice"}, nil).Once()
		mockRepo.On("UpdateUser", mock.MatchedBy(func(u store.User) bool {
			return u.Name == "Alicia" && u.Avatar == "avatar.png"
		})).Return(store.User{Id: 1, Username: "alice", Name: "Alicia", Avatar: "avatar.png"}, nil).Once()

		app := newTestApp(t, mockRepo)

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/users/profile",
			strings.NewReader(`{"name":"Alicia","avatar":"avatar.png"}`))
		req = req.WithContext(WithUserId(req.Context(), 1))
		app.updateProfile(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var session types.UserSession
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&session))
		assert.Equal(t, "Alicia", session.User.Name)
	})

	t.Run("empty fields keep current values", func(t *testing.T) {
		mockRepo := &store.MockRepository{}
		defer mockRepo.AssertExpectations(t)

		current := store.User{Id: 1, Username: "alice", Name: "Alice", Avatar: "old.png"}
		mockRepo.On("GetUser", int64(1)).Return(current, nil).Once()
		mockRepo.On("UpdateUser", mock.MatchedBy(func(u store.User) bool {
			return u.Name == "Alice" && u.Avatar == "old.png"
		})).Return(current, nil).Once()

		app := newTestApp(t, mockRepo)

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/users/profile", strings.NewReader(`{}`))
		req = req.WithContext(WithUserId(req.Context(), 1))
		app.updateProfile(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})
}
