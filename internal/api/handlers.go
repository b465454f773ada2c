package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aliyevm/telechat/internal/stats"
	"github.com/aliyevm/telechat/internal/store"
	"github.com/aliyevm/telechat/internal/types"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UpdateProfileRequest struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

func (s *TelechatApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func userResponse(u store.User) types.User {
	return types.User{
		Id:       u.Id,
		Username: u.Username,
		Name:     u.Name,
		Avatar:   u.Avatar,
		Online:   u.Online,
		LastSeen: u.LastSeen,
	}
}

func (s *TelechatApp) healthCheck(w http.ResponseWriter, _ *http.Request) {
	if err := s.store.Ping(); err != nil {
		s.log.Printf("health check: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *TelechatApp) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError(msgInvalidBody)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Username == "" || req.Password == "" {
		errResp := NewBadRequestError(msgCredentialsNeeded)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	pwdHash, err := hashPassword(req.Password)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	name := req.Name
	if name == "" {
		name = req.Username
	}

	newUser, err := s.store.CreateUser(store.User{
		Username:     req.Username,
		PasswordHash: pwdHash,
		Name:         name,
		Online:       true,
	})
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, store.ErrDuplicate) {
			errResp = NewBadRequestError(msgUsernameTaken)
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	token, err := s.createSessionToken(newUser.Id, defaultSessionExpiration)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	http.SetCookie(w, createSessionCookie(token, defaultSessionExpiration))

	if s.stats != nil {
		s.stats.Incr(stats.ActiveSessions)
	}

	s.writeJson(w, http.StatusOK, types.UserSession{
		User:  userResponse(newUser),
		Token: token,
	})
}

func (s *TelechatApp) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError(msgInvalidBody)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Username == "" || req.Password == "" {
		errResp := NewBadRequestError(msgCredentialsNeeded)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	user, err := s.store.GetUserByUsername(req.Username)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, store.ErrNotFound) {
			// same response as a bad password so usernames can't be probed
			errResp = NewBadRequestError(msgInvalidCredentials)
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !verifyPassword(user.PasswordHash, req.Password) {
		errResp := NewBadRequestError(msgInvalidCredentials)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	user.Online = true
	user.LastSeen = time.Now().UTC()
	user, err = s.store.UpdateUser(user)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	token, err := s.createSessionToken(user.Id, defaultSessionExpiration)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	http.SetCookie(w, createSessionCookie(token, defaultSessionExpiration))

	if s.stats != nil {
		s.stats.Incr(stats.ActiveSessions)
	}

	s.writeJson(w, http.StatusOK, types.UserSession{
		User:  userResponse(user),
		Token: token,
	})
}

func (s *TelechatApp) logout(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError(msgAuthRequired)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if user, err := s.store.GetUser(userId); err == nil {
		user.Online = false
		if _, err := s.store.UpdateUser(user); err != nil {
			s.log.Printf("mark user %d offline: %v", userId, err)
		}
	}

	// instruct browser to delete cookie by overwriting it with an expired token
	http.SetCookie(w, createSessionCookie("", time.Duration(time.Unix(0, 0).Unix())))

	if s.stats != nil {
		s.stats.Decr(stats.ActiveSessions)
	}

	s.writeJson(w, http.StatusOK, types.Ack{Success: true})
}

func (s *TelechatApp) me(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError(msgAuthRequired)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	user, err := s.store.GetUser(userId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, store.ErrNotFound) {
			errResp = NewNotFoundError(msgUserNotFound)
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, types.UserSession{User: userResponse(user)})
}

func (s *TelechatApp) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers()
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	userList := make([]types.User, 0, len(users))
	for _, u := range users {
		userList = append(userList, userResponse(u))
	}

	s.writeJson(w, http.StatusOK, userList)
}

func (s *TelechatApp) updateProfile(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError(msgAuthRequired)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	user, err := s.store.GetUser(userId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, store.ErrNotFound) {
			errResp = NewNotFoundError(msgUserNotFound)
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError(msgInvalidBody)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Avatar != "" {
		user.Avatar = req.Avatar
	}

	user, err = s.store.UpdateUser(user)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, types.UserSession{User: userResponse(user)})
}
