package store

import (
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockRepository) CreateUser(u User) (User, error) {
	args := m.Called(u)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) GetUser(id int64) (User, error) {
	args := m.Called(id)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) GetUserByUsername(username string) (User, error) {
	args := m.Called(username)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) ListUsers() ([]User, error) {
	args := m.Called()
	return args.Get(0).([]User), args.Error(1)
}
func (m *MockRepository) UpdateUser(u User) (User, error) {
	args := m.Called(u)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) CreateChat(c Chat) (Chat, error) {
	args := m.Called(c)
	return args.Get(0).(Chat), args.Error(1)
}
func (m *MockRepository) GetChat(id int64) (Chat, error) {
	args := m.Called(id)
	return args.Get(0).(Chat), args.Error(1)
}
func (m *MockRepository) ListChatsByParticipant(userId int64) ([]Chat, error) {
	args := m.Called(userId)
	return args.Get(0).([]Chat), args.Error(1)
}
func (m *MockRepository) FindPrivateChat(userA, userB int64) (Chat, error) {
	args := m.Called(userA, userB)
	return args.Get(0).(Chat), args.Error(1)
}
func (m *MockRepository) UpdateChat(c Chat) (Chat, error) {
	args := m.Called(c)
	return args.Get(0).(Chat), args.Error(1)
}
func (m *MockRepository) DeleteChat(id int64) error {
	args := m.Called(id)
	return args.Error(0)
}
func (m *MockRepository) CreateMessage(msg Message) (Message, error) {
	args := m.Called(msg)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockRepository) GetMessage(id int64) (Message, error) {
	args := m.Called(id)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockRepository) ListMessagesByChat(chatId int64) ([]Message, error) {
	args := m.Called(chatId)
	return args.Get(0).([]Message), args.Error(1)
}
func (m *MockRepository) UpdateMessage(msg Message) (Message, error) {
	args := m.Called(msg)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockRepository) UpdateMessages(msgs []Message) error {
	args := m.Called(msgs)
	return args.Error(0)
}
func (m *MockRepository) DeleteMessage(id int64) error {
	args := m.Called(id)
	return args.Error(0)
}
func (m *MockRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}
