package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/inboxsight/inboxsight-backend/internal/api/response"
	"github.com/inboxsight/inboxsight-backend/internal/models"
	"github.com/inboxsight/inboxsight-backend/internal/repository"
	"github.com/inboxsight/inboxsight-backend/tests/mocks"
)

const testBaseURL = "https://track.example.com"

// MessageHandlerTestSuite is the test suite for MessageHandler
type MessageHandlerTestSuite struct {
	suite.Suite
	echo            *echo.Echo
	handler         *MessageHandler
	mockMessageRepo *mocks.MockMessageRepository
}

// SetupTest runs before each test
func (s *MessageHandlerTestSuite) SetupTest() {
	s.echo = echo.New()
	s.mockMessageRepo = new(mocks.MockMessageRepository)
	s.handler = NewMessageHandler(s.mockMessageRepo, testBaseURL)
}

// TearDownTest runs after each test
func (s *MessageHandlerTestSuite) TearDownTest() {
	s.mockMessageRepo.AssertExpectations(s.T())
}

// TestMessageHandlerTestSuite runs the test suite
func TestMessageHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(MessageHandlerTestSuite))
}

// Helper function to create a test context
func (s *MessageHandlerTestSuite) createContext(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := s.echo.NewContext(req, rec)
	return c, rec
}

// Helper function to create a test message
func (s *MessageHandlerTestSuite) createTestMessage(id string) *models.TrackedMessage {
	return &models.TrackedMessage{
		ID:        id,
		Recipient: "a@x.com",
		Subject:   "Hi",
		Sender:    "me@y.com",
		CreatedAt: time.Now(),
	}
}

// ==================== Create Tests ====================

func (s *MessageHandlerTestSuite) TestCreate_Success() {
	// Arrange
	c, rec := s.createContext(http.MethodPost, "/api/emails", `{"recipient":"a@x.com","subject":"Hi"}`)

	s.mockMessageRepo.On("Create", mock.Anything, mock.MatchedBy(func(m *models.TrackedMessage) bool {
		return m.Recipient == "a@x.com" && m.Subject == "Hi"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.TrackedMessage).ID = "00112233445566778899aabbccddeeff"
	}).Return(nil)

	// Act
	err := s.handler.Create(c)

	// Assert
	s.NoError(err)
	s.Equal(http.StatusCreated, rec.Code)

	var resp struct {
		Success bool                   `json:"success"`
		Data    CreatedMessageResponse `json:"data"`
	}
	s.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.True(resp.Success)
	s.Equal("a@x.com", resp.Data.Recipient)
	s.Equal(testBaseURL+"/track/00112233445566778899aabbccddeeff.png", resp.Data.TrackingURL)
	s.Contains(resp.Data.TrackingHTML, resp.Data.TrackingURL)
	s.Contains(resp.Data.TrackingHTML, `width="1"`)
	s.Contains(resp.Data.TrackingHTML, `display:none`)
}

func (s *MessageHandlerTestSuite) TestCreate_MissingRecipient() {
	c, rec := s.createContext(http.MethodPost, "/api/emails", `{}`)

	err := s.handler.Create(c)

	s.NoError(err)
	s.Equal(http.StatusBadRequest, rec.Code)

	var resp response.ErrorResponse
	s.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.False(resp.Success)
	s.Contains(resp.Error, "recipient")
}

func (s *MessageHandlerTestSuite) TestCreate_BlankRecipient() {
	c, rec := s.createContext(http.MethodPost, "/api/emails", `{"recipient":"   "}`)

	err := s.handler.Create(c)

	s.NoError(err)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *MessageHandlerTestSuite) TestCreate_InvalidBody() {
	c, rec := s.createContext(http.MethodPost, "/api/emails", `{not json`)

	err := s.handler.Create(c)

	s.NoError(err)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *MessageHandlerTestSuite) TestCreate_StorageFailure() {
	c, rec := s.createContext(http.MethodPost, "/api/emails", `{"recipient":"a@x.com"}`)

	s.mockMessageRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	err := s.handler.Create(c)

	s.NoError(err)
	s.Equal(http.StatusInternalServerError, rec.Code)
	// Internal detail never leaks to the caller
	s.NotContains(rec.Body.String(), "disk full")
}

// ==================== List Tests ====================

func (s *MessageHandlerTestSuite) TestList_Success() {
	items := []models.MessageListItem{
		{ID: "bbbb", Recipient: "b@x.com", CreatedAt: time.Now(), OpenCount: 0},
		{ID: "aaaa", Recipient: "a@x.com", CreatedAt: time.Now().Add(-time.Hour), OpenCount: 3},
	}
	c, rec := s.createContext(http.MethodGet, "/api/emails", "")

	s.mockMessageRepo.On("ListWithCounts", mock.Anything).Return(items, nil)

	err := s.handler.List(c)

	s.NoError(err)
	s.Equal(http.StatusOK, rec.Code)

	var resp struct {
		Success bool                     `json:"success"`
		Data    []models.MessageListItem `json:"data"`
	}
	s.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.True(resp.Success)
	s.Len(resp.Data, 2)
	s.Equal(int64(3), resp.Data[1].OpenCount)
}

func (s *MessageHandlerTestSuite) TestList_StorageFailure() {
	c, rec := s.createContext(http.MethodGet, "/api/emails", "")

	s.mockMessageRepo.On("ListWithCounts", mock.Anything).Return(nil, errors.New("boom"))

	err := s.handler.List(c)

	s.NoError(err)
	s.Equal(http.StatusInternalServerError, rec.Code)
}

// ==================== Get Tests ====================

func (s *MessageHandlerTestSuite) TestGet_Success() {
	message := s.createTestMessage("aaaa")
	detail := &models.MessageDetail{
		Message:   *message,
		Opens:     []models.OpenEvent{{ID: 2, MessageID: "aaaa"}, {ID: 1, MessageID: "aaaa"}},
		OpenCount: 2,
	}
	c, rec := s.createContext(http.MethodGet, "/api/emails/aaaa", "")
	c.SetParamNames("id")
	c.SetParamValues("aaaa")

	s.mockMessageRepo.On("GetWithOpens", mock.Anything, "aaaa").Return(detail, nil)

	err := s.handler.Get(c)

	s.NoError(err)
	s.Equal(http.StatusOK, rec.Code)

	var resp struct {
		Success bool                 `json:"success"`
		Data    models.MessageDetail `json:"data"`
	}
	s.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(2, resp.Data.OpenCount)
	s.Len(resp.Data.Opens, 2)
}

func (s *MessageHandlerTestSuite) TestGet_NotFound() {
	c, rec := s.createContext(http.MethodGet, "/api/emails/does-not-exist", "")
	c.SetParamNames("id")
	c.SetParamValues("does-not-exist")

	s.mockMessageRepo.On("GetWithOpens", mock.Anything, "does-not-exist").Return(nil, repository.ErrNotFound)

	err := s.handler.Get(c)

	s.NoError(err)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *MessageHandlerTestSuite) TestGet_StorageFailure() {
	c, rec := s.createContext(http.MethodGet, "/api/emails/aaaa", "")
	c.SetParamNames("id")
	c.SetParamValues("aaaa")

	s.mockMessageRepo.On("GetWithOpens", mock.Anything, "aaaa").Return(nil, errors.New("boom"))

	err := s.handler.Get(c)

	s.NoError(err)
	s.Equal(http.StatusInternalServerError, rec.Code)
}
