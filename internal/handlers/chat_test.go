package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messenger-service/internal/mocks"
	"messenger-service/internal/models"
	"messenger-service/internal/services"
)

func setupRouter(chats *mocks.ChatServiceMock, relationships *mocks.RelationshipServiceMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	RegisterRoutes(r, NewChatHandler(chats, nil), NewRelationshipHandler(relationships, nil))
	return r
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestListChatsSuccess(t *testing.T) {
	chats := new(mocks.ChatServiceMock)
	router := setupRouter(chats, nil)

	chats.On("ListChats", mock.Anything, 1).Return([]models.ChatSummary{{Chat: models.Chat{ID: 3}}}, nil).Once()

	rec := serve(router, http.MethodGet, "/chats", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Chats []models.ChatSummary `json:"chats"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Chats, 1)
	assert.Equal(t, 3, resp.Chats[0].ID)
	chats.AssertExpectations(t)
}

func TestListChatsInternalError(t *testing.T) {
	chats := new(mocks.ChatServiceMock)
	router := setupRouter(chats, nil)

	chats.On("ListChats", mock.Anything, 1).Return(([]models.ChatSummary)(nil), assert.AnError).Once()

	rec := serve(router, http.MethodGet, "/chats", "")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
	chats.AssertExpectations(t)
}

func TestCreateChatPassesMembers(t *testing.T) {
	chats := new(mocks.ChatServiceMock)
	router := setupRouter(chats, nil)

	detail := models.ChatDetail{Chat: models.Chat{ID: 10}}
	chats.On("CreateChat", mock.Anything, 1, (*string)(nil), []int{2}).Return(detail, nil).Once()

	rec := serve(router, http.MethodPost, "/chats", `{"member_ids":[2]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	chats.AssertExpectations(t)
}

func TestCreateChatRejectsBadMemberID(t *testing.T) {
	chats := new(mocks.ChatServiceMock)
	router := setupRouter(chats, nil)

	rec := serve(router, http.MethodPost, "/chats", `{"member_ids":[0]}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	chats.AssertNotCalled(t, "CreateChat", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateChatFullGroupReachesService(t *testing.T) {
	chats := new(mocks.ChatServiceMock)
	router := setupRouter(chats, nil)

	others := make([]int, 0, 19)
	for id := 2; id <= 20; id++ {
		others = append(others, id)
	}
	body, err := json.Marshal(map[string][]int{"member_ids": append([]int{1}, others...)})
	require.NoError(t, err)

	chats.On("CreateChat", mock.Anything, 1, (*string)(nil), append([]int{1}, others...)).
		Return(models.ChatDetail{Chat: models.Chat{ID: 11, IsGroup: true}}, nil).Once()

	rec := serve(router, http.MethodPost, "/chats", string(body))

	require.Equal(t, http.StatusOK, rec.Code)
	chats.AssertExpectations(t)
}

func TestCreateChatTooManyMembers(t *testing.T) {
	chats := new(mocks.ChatServiceMock)
	router := setupRouter(chats, nil)

	err := &services.Error{Kind: services.KindInvalidOperation, Message: "Max members in a chat: 20"}
	chats.On("CreateChat", mock.Anything, 1, (*string)(nil), []int{2, 3}).Return(nil, err).Once()

	rec := serve(router, http.MethodPost, "/chats", `{"member_ids":[2,3]}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Max members in a chat: 20", resp["error"])
	assert.Equal(t, "invalid_operation", resp["kind"])
}

func TestGetChatStatusByKind(t *testing.T) {
	cases := []struct {
		name   string
		kind   services.Kind
		status int
	}{
		{"missing chat", services.KindNotFound, http.StatusNotFound},
		{"not a member", services.KindForbidden, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			chats := new(mocks.ChatServiceMock)
			router := setupRouter(chats, nil)

			chats.On("GetChat", mock.Anything, 5, 1).Return(nil, &services.Error{Kind: tc.kind}).Once()

			rec := serve(router, http.MethodGet, "/chats/5", "")

			require.Equal(t, tc.status, rec.Code)
			chats.AssertExpectations(t)
		})
	}
}

func TestGetChatInvalidID(t *testing.T) {
	router := setupRouter(new(mocks.ChatServiceMock), nil)

	rec := serve(router, http.MethodGet, "/chats/abc", "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddMemberDefaultsToCaller(t *testing.T) {
	chats := new(mocks.ChatServiceMock)
	router := setupRouter(chats, nil)

	chats.On("AddMember", mock.Anything, 4, 1, 1).Return(models.ChatMember{ChatID: 4, UserID: 1}, nil).Once()

	rec := serve(router, http.MethodPost, "/chats/4/members", "")

	require.Equal(t, http.StatusCreated, rec.Code)
	chats.AssertExpectations(t)
}

func TestAddMemberOtherUser(t *testing.T) {
	chats := new(mocks.ChatServiceMock)
	router := setupRouter(chats, nil)

	err := &services.Error{Kind: services.KindInvalidOperation, Message: "Cannot add new user to a private DM"}
	chats.On("AddMember", mock.Anything, 4, 1, 7).Return(nil, err).Once()

	rec := serve(router, http.MethodPost, "/chats/4/members", `{"user_id":7}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	chats.AssertExpectations(t)
}

func TestPostMessageSuccess(t *testing.T) {
	chats := new(mocks.ChatServiceMock)
	router := setupRouter(chats, nil)

	author := 1
	msg := models.MessageView{Message: models.Message{ID: 9, ChatID: 5, UserID: &author, Content: "hi"}}
	chats.On("SendMessage", mock.Anything, 5, 1, "hi").Return(msg, nil).Once()

	rec := serve(router, http.MethodPost, "/chats/5/messages", `{"content":"hi"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	chats.AssertExpectations(t)
}

func TestPostMessageMissingContent(t *testing.T) {
	chats := new(mocks.ChatServiceMock)
	router := setupRouter(chats, nil)

	rec := serve(router, http.MethodPost, "/chats/5/messages", `{}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	chats.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPostMessageDomainErrors(t *testing.T) {
	cases := []struct {
		name   string
		kind   services.Kind
		status int
	}{
		{"blocked", services.KindBlocked, http.StatusForbidden},
		{"alone", services.KindOnlySelf, http.StatusBadRequest},
		{"not member", services.KindForbidden, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			chats := new(mocks.ChatServiceMock)
			router := setupRouter(chats, nil)

			chats.On("SendMessage", mock.Anything, 5, 1, "hi").Return(nil, &services.Error{Kind: tc.kind}).Once()

			rec := serve(router, http.MethodPost, "/chats/5/messages", `{"content":"hi"}`)

			require.Equal(t, tc.status, rec.Code)
			var resp map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, string(tc.kind), resp["kind"])
		})
	}
}

func TestRenameChat(t *testing.T) {
	chats := new(mocks.ChatServiceMock)
	router := setupRouter(chats, nil)

	name := "team"
	chats.On("ChangeChatName", mock.Anything, 5, 1, mock.MatchedBy(func(n *string) bool {
		return n != nil && *n == "team"
	})).Return(models.Chat{ID: 5, Name: &name, IsGroup: true}, nil).Once()

	rec := serve(router, http.MethodPut, "/chats/5", `{"name":"team"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	chats.AssertExpectations(t)
}

func TestLeaveAndUnhide(t *testing.T) {
	chats := new(mocks.ChatServiceMock)
	router := setupRouter(chats, nil)

	chats.On("LeaveChat", mock.Anything, 5, 1).Return(models.ChatMember{ChatID: 5, UserID: 1, Hidden: true}, nil).Once()
	chats.On("UnhideChat", mock.Anything, 5, 1).Return(models.ChatMember{ChatID: 5, UserID: 1}, nil).Once()

	require.Equal(t, http.StatusOK, serve(router, http.MethodPut, "/chats/5/leave", "").Code)
	require.Equal(t, http.StatusOK, serve(router, http.MethodPut, "/chats/5/unhide", "").Code)
	chats.AssertExpectations(t)
}

func TestEditMessageForbidden(t *testing.T) {
	chats := new(mocks.ChatServiceMock)
	router := setupRouter(chats, nil)

	err := &services.Error{Kind: services.KindForbidden, Message: "Not authorized to edit this message"}
	chats.On("EditMessage", mock.Anything, 9, 1, "new").Return(nil, err).Once()

	rec := serve(router, http.MethodPut, "/messages/9", `{"content":"new"}`)

	require.Equal(t, http.StatusForbidden, rec.Code)
	chats.AssertExpectations(t)
}

func TestDeleteMessageSuccess(t *testing.T) {
	chats := new(mocks.ChatServiceMock)
	router := setupRouter(chats, nil)

	chats.On("DeleteMessage", mock.Anything, 9, 1).Return(models.Message{ID: 9}, nil).Once()

	rec := serve(router, http.MethodDelete, "/messages/9", "")

	require.Equal(t, http.StatusOK, rec.Code)
	chats.AssertExpectations(t)
}

func TestAuditEmittedOnFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	chats := new(mocks.ChatServiceMock)
	publisher := new(mocks.PublisherMock)
	audit := telemetryEmitter(publisher)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	h := NewChatHandler(chats, audit)
	r.DELETE("/messages/:message_id", h.DeleteMessage)

	chats.On("DeleteMessage", mock.Anything, 9, 1).Return(nil, &services.Error{Kind: services.KindNotFound, Message: "Message not found"}).Once()
	publisher.On("Publish", mock.Anything, "audit.chat", mock.Anything).Return(nil).Once()

	rec := serve(r, http.MethodDelete, "/messages/9", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	publisher.AssertExpectations(t)
}
