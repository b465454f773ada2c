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

type SendMessageRequest struct {
	Text          string            `json:"text"`
	Attachment    *types.Attachment `json:"attachment"`
	ReplyTo       int64             `json:"replyTo"`
	ForwardedFrom int64             `json:"forwardedFrom"`
	ScheduledFor  *time.Time        `json:"scheduledFor"`
}

type EditMessageRequest struct {
	Text string `json:"text"`
}

type UpdateReactionsRequest struct {
	Emoji     string             `json:"emoji"`
	Reactions map[string][]int64 `json:"reactions"`
}

func messageResponse(m store.Message) types.Message {
	msg := types.Message{
		Id:            m.Id,
		ChatId:        m.ChatId,
		SenderId:      m.SenderId,
		Text:          m.Text,
		ReplyTo:       m.ReplyTo,
		ForwardedFrom: m.ForwardedFrom,
		ScheduledFor:  m.ScheduledFor,
		Status:        m.Status,
		Pinned:        m.Pinned,
		Reactions:     m.Reactions,
		Timestamp:     m.Timestamp,
	}
	if m.Attachment != nil {
		att := types.Attachment(*m.Attachment)
		msg.Attachment = &att
	}
	return msg
}

// messageForSender loads the message from the {id} path segment and
// verifies the acting user sent it. Edit, delete and pin operations go
// through here.
func (s *TelechatApp) messageForSender(r *http.Request) (store.Message, *ApiError) {
	userId, ok := UserId(r.Context())
	if !ok {
		return store.Message{}, NewUnauthorizedError(msgAuthRequired)
	}

	msgId, ok := parsePathId(r, "id")
	if !ok {
		return store.Message{}, NewNotFoundError(msgMessageNotFound)
	}

	msg, err := s.store.GetMessage(msgId)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Message{}, NewNotFoundError(msgMessageNotFound)
		}
		return store.Message{}, NewInternalServerError(err)
	}

	if msg.SenderId != userId {
		return store.Message{}, NewForbiddenError()
	}

	return msg, nil
}

// listMessages returns the chat's messages. Fetching is also the read
// receipt: every message not sent by the caller and not yet seen is
// transitioned to seen before the response is built.
func (s *TelechatApp) listMessages(w http.ResponseWriter, r *http.Request) {
	chat, userId, errResp := s.chatForMember(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	msgs, err := s.store.ListMessagesByChat(chat.Id)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var seen []store.Message
	for i := range msgs {
		if msgs[i].SenderId != userId && msgs[i].MarkSeen() {
			seen = append(seen, msgs[i])
		}
	}

	if len(seen) > 0 {
		if err := s.store.UpdateMessages(seen); err != nil {
			errResp := NewInternalServerError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
	}

	msgList := make([]types.Message, 0, len(msgs))
	for _, m := range msgs {
		msgList = append(msgList, messageResponse(m))
	}

	s.writeJson(w, http.StatusOK, msgList)
}

func (s *TelechatApp) sendMessage(w http.ResponseWriter, r *http.Request) {
	chat, userId, errResp := s.chatForMember(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError(msgInvalidBody)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Text == "" && req.Attachment == nil {
		errResp := NewBadRequestError(msgMessageEmpty)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	msg := store.Message{
		ChatId:   chat.Id,
		SenderId: userId,
		Text:     req.Text,
		// replyTo and forwardedFrom are carried opaquely; a reference to
		// a missing message must not break rendering, so it is not
		// validated here
		ReplyTo:       req.ReplyTo,
		ForwardedFrom: req.ForwardedFrom,
		ScheduledFor:  req.ScheduledFor,
		Status:        store.StatusSent,
	}
	if req.Attachment != nil {
		att := store.Attachment(*req.Attachment)
		msg.Attachment = &att
	}

	msg, err := s.store.CreateMessage(msg)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if s.stats != nil {
		s.stats.Incr(stats.MessagesSent)
	}

	s.writeJson(w, http.StatusOK, messageResponse(msg))
}

func (s *TelechatApp) editMessage(w http.ResponseWriter, r *http.Request) {
	msg, errResp := s.messageForSender(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req EditMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError(msgInvalidBody)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	// edit replaces text only; attachment, status and timestamp keep
	// their original values
	if req.Text != "" {
		msg.Text = req.Text
	}

	msg, err := s.store.UpdateMessage(msg)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, messageResponse(msg))
}

func (s *TelechatApp) deleteMessage(w http.ResponseWriter, r *http.Request) {
	msg, errResp := s.messageForSender(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.store.DeleteMessage(msg.Id); err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, types.Ack{Success: true})
}

// updateReactions toggles the caller's reaction when given an emoji, or
// replaces the whole map when given one (the shape the reference web
// client sends). Either way the updated map is returned.
func (s *TelechatApp) updateReactions(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError(msgAuthRequired)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	msgId, ok := parsePathId(r, "id")
	if !ok {
		errResp := NewNotFoundError(msgMessageNotFound)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	msg, err := s.store.GetMessage(msgId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, store.ErrNotFound) {
			errResp = NewNotFoundError(msgMessageNotFound)
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	chat, err := s.store.GetChat(msg.ChatId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, store.ErrNotFound) {
			errResp = NewNotFoundError(msgChatNotFound)
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !chat.HasParticipant(userId) {
		errResp := NewForbiddenError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req UpdateReactionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError(msgInvalidBody)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Emoji != "" {
		msg.ToggleReaction(req.Emoji, userId)
	} else {
		msg.Reactions = sanitizeReactions(req.Reactions)
	}

	msg, err = s.store.UpdateMessage(msg)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	reactions := msg.Reactions
	if reactions == nil {
		reactions = map[string][]int64{}
	}

	s.writeJson(w, http.StatusOK, reactions)
}

// sanitizeReactions deduplicates user ids per emoji and drops empty
// sets, so a user appears at most once per emoji regardless of what the
// client sent.
func sanitizeReactions(reactions map[string][]int64) map[string][]int64 {
	if len(reactions) == 0 {
		return nil
	}

	clean := make(map[string][]int64, len(reactions))
	for emoji, users := range reactions {
		var set []int64
		for _, id := range users {
			dup := false
			for _, existing := range set {
				if existing == id {
					dup = true
					break
				}
			}
			if !dup {
				set = append(set, id)
			}
		}
		if len(set) > 0 {
			clean[emoji] = set
		}
	}

	if len(clean) == 0 {
		return nil
	}
	return clean
}

// pinMessage pins the message and unpins any other pinned message in
// the chat, keeping at most one pinned message per chat.
func (s *TelechatApp) pinMessage(w http.ResponseWriter, r *http.Request) {
	msg, errResp := s.messageForSender(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	chatMsgs, err := s.store.ListMessagesByChat(msg.ChatId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var updates []store.Message
	for _, m := range chatMsgs {
		if m.Pinned && m.Id != msg.Id {
			m.Pinned = false
			updates = append(updates, m)
		}
	}

	msg.Pinned = true
	updates = append(updates, msg)

	if err := s.store.UpdateMessages(updates); err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, types.Ack{Success: true})
}

func (s *TelechatApp) unpinMessage(w http.ResponseWriter, r *http.Request) {
	msg, errResp := s.messageForSender(r)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	msg.Pinned = false
	if _, err := s.store.UpdateMessage(msg); err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, types.Ack{Success: true})
}
