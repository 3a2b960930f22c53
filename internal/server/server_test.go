package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/doctorai-app/backend/internal/domain"
	"github.com/doctorai-app/backend/internal/logger"
)

func init() {
	logger.Init(logger.Config{Format: "text", OutputPath: "stdout"})
}

// --- fakes ---

type fakeAnalyzer struct {
	diagnosis    string
	reply        string
	analyzeErr   error
	chatErr      error
	analyzeCalls int
	chatCalls    int
	lastHistory  []domain.ChatMessage
}

func (a *fakeAnalyzer) AnalyzeImage(ctx context.Context, image []byte, contentType string) (string, error) {
	a.analyzeCalls++
	if a.analyzeErr != nil {
		return "", a.analyzeErr
	}
	return a.diagnosis, nil
}

func (a *fakeAnalyzer) Chat(ctx context.Context, history []domain.ChatMessage) (string, error) {
	a.chatCalls++
	a.lastHistory = append([]domain.ChatMessage(nil), history...)
	if a.chatErr != nil {
		return "", a.chatErr
	}
	return a.reply, nil
}

type fakeRecordService struct {
	result      *domain.AnalyzeStoreResult
	err         error
	calls       int
	lastInput   domain.AnalyzeStoreInput
	records     []domain.MedicalRecord
	findErr     error
	lastPatient string
}

func (s *fakeRecordService) AnalyzeAndStore(ctx context.Context, in domain.AnalyzeStoreInput) (*domain.AnalyzeStoreResult, error) {
	s.calls++
	s.lastInput = in
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *fakeRecordService) FindByPatient(ctx context.Context, patientID string) ([]domain.MedicalRecord, error) {
	s.lastPatient = patientID
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.records, nil
}

type fakeChatService struct {
	saveID      string
	saveErr     error
	savedTurn   *domain.ChatTurn
	turns       []domain.ChatTurn
	findErr     error
	deleteErr   error
	lastUser    string
	lastInclude bool
	lastDeleted string
}

func (s *fakeChatService) Save(ctx context.Context, turn *domain.ChatTurn) (string, error) {
	s.savedTurn = turn
	if s.saveErr != nil {
		return "", s.saveErr
	}
	return s.saveID, nil
}

func (s *fakeChatService) FindByUser(ctx context.Context, userID string, includeDeleted bool) ([]domain.ChatTurn, error) {
	s.lastUser = userID
	s.lastInclude = includeDeleted
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.turns, nil
}

func (s *fakeChatService) SoftDelete(ctx context.Context, id string) error {
	s.lastDeleted = id
	return s.deleteErr
}

// --- helpers ---

type filePart struct {
	name        string
	contentType string
	data        []byte
}

func newTestApp(deps Dependencies) *fiber.App {
	return New(deps).App()
}

func multipartRequest(t *testing.T, path string, fields map[string]string, file *filePart) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if file != nil {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.name))
		header.Set("Content-Type", file.contentType)
		part, err := w.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(file.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	return body
}

// --- liveness ---

func TestRoot(t *testing.T) {
	app := newTestApp(Dependencies{AI: &fakeAnalyzer{}, Records: &fakeRecordService{}, Chats: &fakeChatService{}})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	require.Equal(t, "success", body["status"])
	require.Equal(t, "Doctor AI API is running", body["message"])
}

func TestHealth(t *testing.T) {
	app := newTestApp(Dependencies{AI: &fakeAnalyzer{}, Records: &fakeRecordService{}, Chats: &fakeChatService{}})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	require.Equal(t, "healthy", body["status"])
	require.NotEmpty(t, body["timestamp"])
}
