package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/aliyevm/telechat/internal/stats"
	"github.com/aliyevm/telechat/internal/store"
	"github.com/aliyevm/telechat/internal/types"
)

type CreateGroupChatRequest struct {
	Name         string  `json:"name"`
	Participants []int64 `json:"participants"`
}

type PrivateChatRequest struct {
	UserId int64 `json:"userId"`
}

type UpdateChatRequest struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

type AddParticipantRequest struct {
	UserId int64 `json:"userId"`
}

func chatResponse(c store.Chat) types.Chat {
	return types.Chat{
		Id:           c.Id,
		Kind:         c.Kind,
		Name:         c.Name,
		Participants: c.Participants,
		Avatar:       c.Avatar,
		CreatedAt:    c.CreatedAt,
	}
}

func parsePathId(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id, err == nil
}

// chatForMember loads the chat from the {id} path segment and verifies
// the acting user's membership. Every chat-scoped operation goes
// through here.
func (s *TelechatApp) chatForMember(r *http.Request) (store.Chat, int64, *ApiError) {
	userId, ok := UserId(r.Context())
	if !ok {
		return store.Chat{}, 0, NewUnauthorizedError(msgAuthRequired)
	}

	chatId, ok := parsePathId(r, "id")
	if !ok {
		return store.Chat{}, 0, NewNotFoundError(msgChatNotFound)
	}

	chat, err := s.store.GetChat(chatId)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Chat{}, 0, NewNotFoundError(msgChatNotFound)
		}
		return store.Chat{}, 0, NewInternalServerError(err)
	}

	if !chat.HasParticipant(userId) {
		return store.Chat{}, 0, NewForbiddenError()
	}

	return chat, userId, nil
}

func (s *TelechatApp) listChats(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError(msgAuthRequired)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	chats, err := s.store.ListChatsByParticipant(userId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	chatList := make([]types.Chat, 0, len(chats))
	for _, c := range chats {
		chatList = append(chatList, chatResponse(c))
	}

	s.writeJson(w, http.StatusOK, chatList)
}

func (s *TelechatApp) createGroupChat(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError(msgAuthRequired)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req CreateGroupChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError(msgInvalidBody)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Name == "" {
		errResp := NewBadRequestError(msgGroupNameRequired)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	// participant set is the creator plus the given ids, deduplicated
	participants := []int64{userId}
	for _, id := range req.Participants {
		seen := false
		for _, p := range participants {
			if p == id {
				seen = true
				break
			}
		}
		if !seen {
			participants = append(participants, id)
		}
	}

	chat, err := s.store.CreateChat(store.Chat{
		Kind:         store.ChatGroup,
		Name:         req.Name,
		Participants: participants,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if s.stats != nil {
		s.stats.Incr(stats.ChatsCreated)
	}

	s.writeJson(w, http.StatusOK, chatResponse(chat))
}

// getOrCreatePrivateChat is idempotent: repeated calls for the same
// pair of users return the same chat regardless of argument order.
func (s *TelechatApp) getOrCreatePrivateChat(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError(msgAuthRequired)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req PrivateChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError(msgInvalidBody)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.UserId == 0 {
		errResp := NewBadRequestError(msgUserIdRequired)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	chat, err := s.store.FindPrivateChat(userId, req.UserId)
	if errors.Is(err, store.ErrNotFound) {
		chat, err = s.store.CreateChat(store.Chat{
			Kind:         store.ChatPrivate,
			Participants: []int64{userId, req.UserId},
		})
		if err == nil && s.stats != nil {
			s.stats.Incr(stats.ChatsCreated)
		}
	}
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, chatResponse(chat))
}

func (s *TelechatApp) updateChat(w http.ResponseWriter, r *http.Request) {
	chat, _, errResp := s.chatForMember(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req UpdateChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError(msgInvalidBody)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	// private chats derive their name from the other participant
	if req.Name != "" && chat.Kind != store.ChatPrivate {
		chat.Name = req.Name
	}
	if req.Avatar != "" {
		chat.Avatar = req.Avatar
	}

	chat, err := s.store.UpdateChat(chat)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, chatResponse(chat))
}

func (s *TelechatApp) deleteChat(w http.ResponseWriter, r *http.Request) {
	chat, _, errResp := s.chatForMember(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.store.DeleteChat(chat.Id); err != nil {
		s.log.Printf("delete chat %d: %v", chat.Id, err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, types.Ack{Success: true})
}

func (s *TelechatApp) addParticipant(w http.ResponseWriter, r *http.Request) {
	chat, _, errResp := s.chatForMember(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req AddParticipantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError(msgInvalidBody)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	// adding an existing participant is a no-op, not an error
	if req.UserId != 0 && !chat.HasParticipant(req.UserId) {
		chat.Participants = append(chat.Participants, req.UserId)

		var err error
		chat, err = s.store.UpdateChat(chat)
		if err != nil {
			errResp := NewInternalServerError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
	}

	s.writeJson(w, http.StatusOK, chatResponse(chat))
}

func (s *TelechatApp) removeParticipant(w http.ResponseWriter, r *http.Request) {
	chat, userId, errResp := s.chatForMember(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	removeId, ok := parsePathId(r, "userId")
	if !ok {
		errResp := NewBadRequestError(msgUserIdRequired)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if removeId == userId {
		errResp := NewBadRequestError(msgCannotRemoveSelf)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	for i, p := range chat.Participants {
		if p == removeId {
			chat.Participants = append(chat.Participants[:i], chat.Participants[i+1:]...)

			var err error
			chat, err = s.store.UpdateChat(chat)
			if err != nil {
				errResp := NewInternalServerError(err)
				s.writeJson(w, errResp.StatusCode, errResp)
				return
			}
			break
		}
	}

	s.writeJson(w, http.StatusOK, chatResponse(chat))
}
