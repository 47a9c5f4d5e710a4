package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"doc-converter/internal/domain"
	apperrors "doc-converter/pkg/errors"
)

// Mock logger used by handler package tests.
type MockHandlerLogger struct{}

func NewMockHandlerLogger() domain.Logger {
	return &MockHandlerLogger{}
}

func (l *MockHandlerLogger) Info(msg string, fields ...interface{})             {}
func (l *MockHandlerLogger) Error(msg string, err error, fields ...interface{}) {}
func (l *MockHandlerLogger) Debug(msg string, fields ...interface{})            {}
func (l *MockHandlerLogger) Warn(msg string, fields ...interface{})             {}

type mockAuthService struct {
	users       map[string]*domain.User
	passwords   map[string]string
	registerErr error
}

func newMockAuthService() *mockAuthService {
	return &mockAuthService{users: map[string]*domain.User{}, passwords: map[string]string{}}
}

func (m *mockAuthService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	if m.registerErr != nil {
		return nil, m.registerErr
	}
	if username == "" {
		return nil, apperrors.NewValidationError("username is required", "username")
	}
	if _, ok := m.users[username]; ok {
		return nil, apperrors.NewConflictError("Username or email already exists", domain.ErrUserExists)
	}
	u := &domain.User{ID: int64(len(m.users) + 1), Username: username, Email: email}
	m.users[username] = u
	m.passwords[username] = password
	return u, nil
}

func (m *mockAuthService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	u, ok := m.users[username]
	if !ok || m.passwords[username] != password {
		return nil, apperrors.NewUnauthorizedError("Invalid credentials")
	}
	return u, nil
}

// mockSessionManager treats the cookie value as the user id.
type mockSessionManager struct {
	sessions  map[string]*domain.Session
	createErr error
	destroyed int
}

func newMockSessionManager() *mockSessionManager {
	return &mockSessionManager{sessions: map[string]*domain.Session{}}
}

func (m *mockSessionManager) Load(r *http.Request) (*domain.Session, error) {
	c, err := r.Cookie("session")
	if err != nil {
		return nil, domain.ErrSessionNotFound
	}
	s, ok := m.sessions[c.Value]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

func (m *mockSessionManager) Create(w http.ResponseWriter, r *http.Request, user *domain.User) (*domain.Session, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	s := &domain.Session{UserID: user.ID, Username: user.Username, CreatedAt: time.Now()}
	m.sessions[user.Username] = s
	http.SetCookie(w, &http.Cookie{Name: "session", Value: user.Username, Path: "/"})
	return s, nil
}

func (m *mockSessionManager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	m.destroyed++
	if c, err := r.Cookie("session"); err == nil {
		delete(m.sessions, c.Value)
	}
	http.SetCookie(w, &http.Cookie{Name: "session", Value: "", Path: "/", MaxAge: -1})
	return nil
}

type mockDocumentService struct {
	mu        sync.Mutex
	docs      map[string]*domain.Document
	blobs     map[string][]byte
	uploadErr error
	uploaded  []string
	nextID    int
}

func newMockDocumentService() *mockDocumentService {
	return &mockDocumentService{docs: map[string]*domain.Document{}, blobs: map[string][]byte{}}
}

func (m *mockDocumentService) Upload(ctx context.Context, userID int64, file io.Reader, originalName string) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	m.nextID++
	id := "file-" + string(rune('0'+m.nextID))
	doc := &domain.Document{
		FileID:           id,
		UserID:           userID,
		OriginalFilename: originalName,
		PDFFilename:      id + "_converted.pdf",
		PDFPath:          "/data/" + id + "_converted.pdf",
		CreatedAt:        time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC).Add(time.Duration(m.nextID) * time.Minute),
		FileSize:         int64(len(data)),
	}
	m.docs[id] = doc
	m.blobs[id] = append([]byte("%PDF "), data...)
	m.uploaded = append(m.uploaded, originalName)
	return doc, nil
}

func (m *mockDocumentService) List(ctx context.Context, userID int64) ([]*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Document
	for _, d := range m.docs {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockDocumentService) Open(ctx context.Context, userID int64, fileID string) (*domain.Document, io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[fileID]
	if !ok || d.UserID != userID {
		return nil, nil, apperrors.NewNotFoundError("File not found")
	}
	return d, io.NopCloser(bytes.NewReader(m.blobs[fileID])), nil
}

func (m *mockDocumentService) Delete(ctx context.Context, userID int64, fileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if fileID == "explode" {
		return apperrors.NewInternalError("Failed to delete document", errors.New("disk on fire"))
	}
	if d, ok := m.docs[fileID]; ok && d.UserID == userID {
		delete(m.docs, fileID)
		delete(m.blobs, fileID)
	}
	return nil
}
