package store

import (
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/aliyevm/telechat/internal/stats"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// Collections is the unit of persistence: all three entity collections,
// loaded and flushed together.
type Collections struct {
	Users    []User    `json:"users"`
	Chats    []Chat    `json:"chats"`
	Messages []Message `json:"messages"`
}

// Backend provides durable storage for the collections. Load is called
// once on open, Flush after every mutation with the full state. A crash
// between partial backend writes may leave collections mutually
// inconsistent; that is an accepted limitation of the contract.
type Backend interface {
	Load() (Collections, error)
	Flush(Collections) error
	Ping() error
	Close() error
}

type Repository interface {
	Ping() error
	CreateUser(u User) (User, error)
	GetUser(id int64) (User, error)
	GetUserByUsername(username string) (User, error)
	ListUsers() ([]User, error)
	UpdateUser(u User) (User, error)
	CreateChat(c Chat) (Chat, error)
	GetChat(id int64) (Chat, error)
	ListChatsByParticipant(userId int64) ([]Chat, error)
	FindPrivateChat(userA, userB int64) (Chat, error)
	UpdateChat(c Chat) (Chat, error)
	DeleteChat(id int64) error
	CreateMessage(m Message) (Message, error)
	GetMessage(id int64) (Message, error)
	ListMessagesByChat(chatId int64) ([]Message, error)
	UpdateMessage(m Message) (Message, error)
	UpdateMessages(ms []Message) error
	DeleteMessage(id int64) error
	Close() error
}

// Store holds the three collections in memory and rewrites them through
// its backend in full on every mutation. A single mutex serializes
// requests, giving each operation run-to-completion semantics.
type Store struct {
	mu       sync.Mutex
	log      *log.Logger
	stats    stats.Provider
	backend  Backend
	users    []User
	chats    []Chat
	messages []Message
	lastId   int64
}

func NewStore(backend Backend, logger *log.Logger, sp stats.Provider) (*Store, error) {
	cols, err := backend.Load()
	if err != nil {
		return nil, err
	}

	s := &Store{
		log:      logger,
		stats:    sp,
		backend:  backend,
		users:    cols.Users,
		chats:    cols.Chats,
		messages: cols.Messages,
	}

	for _, u := range s.users {
		if u.Id > s.lastId {
			s.lastId = u.Id
		}
	}
	for _, c := range s.chats {
		if c.Id > s.lastId {
			s.lastId = c.Id
		}
	}
	for _, m := range s.messages {
		if m.Id > s.lastId {
			s.lastId = m.Id
		}
	}

	if sp != nil {
		sp.RegisterMetric(stats.StoreFlushes)
	}

	return s, nil
}

func (s *Store) Ping() error {
	return s.backend.Ping()
}

func (s *Store) Close() error {
	return s.backend.Close()
}

// nextId assigns epoch-millisecond identifiers, bumped past the last
// issued id so they stay unique and strictly monotonic.
func (s *Store) nextId() int64 {
	id := time.Now().UnixMilli()
	if id <= s.lastId {
		id = s.lastId + 1
	}
	s.lastId = id
	return id
}

func (s *Store) flush() error {
	err := s.backend.Flush(Collections{
		Users:    s.users,
		Chats:    s.chats,
		Messages: s.messages,
	})
	if err != nil {
		s.log.Printf("store flush: %v", err)
		return err
	}

	if s.stats != nil {
		s.stats.Incr(stats.StoreFlushes)
	}
	return nil
}

func (s *Store) CreateUser(u User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == u.Username {
			return User{}, ErrDuplicate
		}
	}

	u.Id = s.nextId()
	u.CreatedAt = time.Now().UTC()
	s.users = append(s.users, u)

	if err := s.flush(); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Store) GetUser(id int64) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Id == id {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *Store) GetUserByUsername(username string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *Store) ListUsers() ([]User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]User, len(s.users))
	copy(users, s.users)
	return users, nil
}

func (s *Store) UpdateUser(u User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.users {
		if existing.Id == u.Id {
			// username is immutable after creation
			u.Username = existing.Username
			u.CreatedAt = existing.CreatedAt
			s.users[i] = u

			if err := s.flush(); err != nil {
				return User{}, err
			}
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *Store) CreateChat(c Chat) (Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.Id = s.nextId()
	c.CreatedAt = time.Now().UTC()
	c.Participants = append([]int64(nil), c.Participants...)
	s.chats = append(s.chats, c)

	if err := s.flush(); err != nil {
		return Chat{}, err
	}
	return cloneChat(c), nil
}

func (s *Store) GetChat(id int64) (Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.chats {
		if c.Id == id {
			return cloneChat(c), nil
		}
	}
	return Chat{}, ErrNotFound
}

func (s *Store) ListChatsByParticipant(userId int64) ([]Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var chats []Chat
	for _, c := range s.chats {
		if c.HasParticipant(userId) {
			chats = append(chats, cloneChat(c))
		}
	}
	return chats, nil
}

// FindPrivateChat returns the private chat containing both users. A
// private chat between two given users is unique, so membership order
// does not matter.
func (s *Store) FindPrivateChat(userA, userB int64) (Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.chats {
		if c.Kind == ChatPrivate && c.HasParticipant(userA) && c.HasParticipant(userB) {
			return cloneChat(c), nil
		}
	}
	return Chat{}, ErrNotFound
}

func (s *Store) UpdateChat(c Chat) (Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.chats {
		if existing.Id == c.Id {
			c.CreatedAt = existing.CreatedAt
			s.chats[i] = cloneChat(c)

			if err := s.flush(); err != nil {
				return Chat{}, err
			}
			return c, nil
		}
	}
	return Chat{}, ErrNotFound
}

// DeleteChat removes the chat and every message belonging to it.
func (s *Store) DeleteChat(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, c := range s.chats {
		if c.Id == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrNotFound
	}

	s.chats = append(s.chats[:idx], s.chats[idx+1:]...)

	kept := s.messages[:0]
	for _, m := range s.messages {
		if m.ChatId != id {
			kept = append(kept, m)
		}
	}
	s.messages = kept

	return s.flush()
}

func (s *Store) CreateMessage(m Message) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m.Id = s.nextId()
	m.Timestamp = time.Now().UTC()
	s.messages = append(s.messages, m)

	if err := s.flush(); err != nil {
		return Message{}, err
	}
	return cloneMessage(m), nil
}

func (s *Store) GetMessage(id int64) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.messages {
		if m.Id == id {
			return cloneMessage(m), nil
		}
	}
	return Message{}, ErrNotFound
}

// ListMessagesByChat returns the chat's messages ordered by id, which is
// creation-time order.
func (s *Store) ListMessagesByChat(chatId int64) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var msgs []Message
	for _, m := range s.messages {
		if m.ChatId == chatId {
			msgs = append(msgs, cloneMessage(m))
		}
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].Id < msgs[j].Id })
	return msgs, nil
}

func (s *Store) UpdateMessage(m Message) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.messages {
		if existing.Id == m.Id {
			// sender and chat are immutable after creation
			m.SenderId = existing.SenderId
			m.ChatId = existing.ChatId
			m.Timestamp = existing.Timestamp
			s.messages[i] = cloneMessage(m)

			if err := s.flush(); err != nil {
				return Message{}, err
			}
			return m, nil
		}
	}
	return Message{}, ErrNotFound
}

// UpdateMessages applies a batch of message updates with a single flush.
// Unknown ids are skipped rather than failing the batch.
func (s *Store) UpdateMessages(ms []Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byId := make(map[int64]Message, len(ms))
	for _, m := range ms {
		byId[m.Id] = m
	}

	for i, existing := range s.messages {
		if m, ok := byId[existing.Id]; ok {
			m.SenderId = existing.SenderId
			m.ChatId = existing.ChatId
			m.Timestamp = existing.Timestamp
			s.messages[i] = cloneMessage(m)
		}
	}

	return s.flush()
}

func (s *Store) DeleteMessage(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, m := range s.messages {
		if m.Id == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			return s.flush()
		}
	}
	return ErrNotFound
}

func cloneChat(c Chat) Chat {
	c.Participants = append([]int64(nil), c.Participants...)
	return c
}

func cloneMessage(m Message) Message {
	if m.Reactions != nil {
		reactions := make(map[string][]int64, len(m.Reactions))
		for emoji, users := range m.Reactions {
			reactions[emoji] = append([]int64(nil), users...)
		}
		m.Reactions = reactions
	}
	if m.Attachment != nil {
		att := *m.Attachment
		m.Attachment = &att
	}
	if m.ScheduledFor != nil {
		t := *m.ScheduledFor
		m.ScheduledFor = &t
	}
	return m
}
