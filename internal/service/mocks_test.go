package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"doc-converter/internal/converter"
	"doc-converter/internal/domain"
)

type MockLogger struct {
	mu       sync.Mutex
	messages []string
	fields   map[string][]interface{}
}

func NewMockLogger() *MockLogger {
	return &MockLogger{
		messages: []string{},
		fields:   map[string][]interface{}{},
	}
}

func (m *MockLogger) log(line string) {
	m.mu.Lock()
	m.messages = append(m.messages, line)
	m.mu.Unlock()
}

func (m *MockLogger) Info(msg string, args ...interface{}) {
	m.mu.Lock()
	m.fields[msg] = args
	m.mu.Unlock()
	m.log("INFO: " + msg)
}

// Field returns the value logged under key by the last Info call for msg.
func (m *MockLogger) Field(msg, key string) (interface{}, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	args := m.fields[msg]
	for i := 0; i+1 < len(args); i += 2 {
		if args[i] == key {
			return args[i+1], true
		}
	}
	return nil, false
}

func (m *MockLogger) Error(msg string, err error, args ...interface{}) {
	if err != nil {
		msg += " - " + err.Error()
	}
	m.log("ERROR: " + msg)
}

func (m *MockLogger) Debug(msg string, args ...interface{}) {
	m.log("DEBUG: " + msg)
}

func (m *MockLogger) Warn(msg string, args ...interface{}) {
	m.log("WARN: " + msg)
}

func (m *MockLogger) Has(line string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.messages {
		if l == line {
			return true
		}
	}
	return false
}

// MockUserRepository keeps users in memory with unique usernames and emails.
type MockUserRepository struct {
	users  map[string]*domain.User
	nextID int64
	err    error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]*domain.User), nextID: 1}
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return nil, fmt.Errorf("%w: duplicate key", domain.ErrUserExists)
		}
	}
	created := *user
	created.ID = m.nextID
	m.nextID++
	m.users[created.Username] = &created
	return &created, nil
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

type MockDocumentRepository struct {
	documents map[string]*domain.Document
	createErr error
	listErr   error
}

func NewMockDocumentRepository() *MockDocumentRepository {
	return &MockDocumentRepository{
		documents: make(map[string]*domain.Document),
	}
}

func (m *MockDocumentRepository) Create(ctx context.Context, document *domain.Document) error {
	if m.createErr != nil {
		return m.createErr
	}
	if err := document.Validate(); err != nil {
		return err
	}
	m.documents[document.FileID] = document
	return nil
}

func (m *MockDocumentRepository) GetOwned(ctx context.Context, fileID string, userID int64) (*domain.Document, error) {
	doc, ok := m.documents[fileID]
	if !ok || doc.UserID != userID {
		return nil, domain.ErrDocumentNotFound
	}
	return doc, nil
}

func (m *MockDocumentRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Document, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var docs []*domain.Document
	for _, doc := range m.documents {
		if doc.UserID == userID {
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].CreatedAt.After(docs[j].CreatedAt) })
	return docs, nil
}

func (m *MockDocumentRepository) DeleteOwned(ctx context.Context, fileID string, userID int64) (bool, error) {
	doc, ok := m.documents[fileID]
	if !ok || doc.UserID != userID {
		return false, nil
	}
	delete(m.documents, fileID)
	return true, nil
}

type MockBlobStore struct {
	objects   map[string][]byte
	putErr    error
	deleteErr error
	deleted   []string
}

func NewMockBlobStore() *MockBlobStore {
	return &MockBlobStore{objects: make(map[string][]byte)}
}

func (m *MockBlobStore) Put(ctx context.Context, key string, file io.Reader, size int64) error {
	if m.putErr != nil {
		return m.putErr
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: %d != %d", len(data), size)
	}
	m.objects[key] = data
	return nil
}

func (m *MockBlobStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, domain.ErrBlobNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MockBlobStore) Delete(ctx context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.objects[key]; !ok {
		return domain.ErrBlobNotFound
	}
	delete(m.objects, key)
	return nil
}

func (m *MockBlobStore) Location(key string) string {
	return "mock://" + key
}

// MockConverter writes a fake PDF where the office suite would.
type MockConverter struct {
	err        error
	skipOutput bool
	inputs     []string
}

func (m *MockConverter) Convert(ctx context.Context, inputPath, outputDir string) (string, error) {
	m.inputs = append(m.inputs, inputPath)
	if m.err != nil {
		return "", m.err
	}
	out := converter.ExpectedOutput(inputPath, outputDir)
	if m.skipOutput {
		return out, nil
	}
	if err := os.WriteFile(out, []byte("%PDF-1.7 fake"), 0o644); err != nil {
		return "", err
	}
	return out, nil
}

type MockInspector struct {
	pages  int
	title  string
	author string
	err    error
}

func (m *MockInspector) Inspect(path string) (*domain.PDFInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return &domain.PDFInfo{PageCount: m.pages, Title: m.title, Author: m.author}, nil
}
