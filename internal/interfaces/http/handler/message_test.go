package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appmessaging "github.com/messmate/backend/internal/application/messaging"
	"github.com/messmate/backend/internal/domain/identity"
	"github.com/messmate/backend/internal/domain/messaging"
	"github.com/messmate/backend/internal/domain/shared"
	"github.com/messmate/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func messageRouter(svc *MockMessageService, session identity.Session) *gin.Engine {
	h := NewMessageHandler(svc)
	router := newRouter(&session)
	router.POST("/messages", h.Send)
	router.GET("/messages/inbox", h.Inbox)
	router.POST("/messages/:id/read", h.MarkRead)
	return router
}

func TestMessageHandler_Send(t *testing.T) {
	sessions := newTestSessions()

	t.Run("member to managers", func(t *testing.T) {
		svc := new(MockMessageService)
		req := appmessaging.SendMessageRequest{Target: "managers", Body: "Gas cylinder is empty"}
		svc.On("Send", mock.Anything, sessions.member, req).
			Return(&appmessaging.SendResult{MessageID: uuid.New(), Recipients: 2}, nil)

		w := doJSON(messageRouter(svc, sessions.member), http.MethodPost, "/messages", req)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, float64(2), decode(t, w).Data.(map[string]any)["recipients"])
		svc.AssertExpectations(t)
	})

	t.Run("member to whole mess refused", func(t *testing.T) {
		svc := new(MockMessageService)
		svc.On("Send", mock.Anything, sessions.member, mock.Anything).Return(nil, shared.ErrForbidden)

		w := doJSON(messageRouter(svc, sessions.member), http.MethodPost, "/messages",
			appmessaging.SendMessageRequest{Target: "tenant", Body: "hello all"})

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, dto.ErrCodeForbidden, errorCodeOf(t, w))
	})

	t.Run("unknown target kind", func(t *testing.T) {
		svc := new(MockMessageService)

		w := doJSON(messageRouter(svc, sessions.manager), http.MethodPost, "/messages",
			appmessaging.SendMessageRequest{Target: "everyone", Body: "hi"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestMessageHandler_Inbox(t *testing.T) {
	sessions := newTestSessions()
	svc := new(MockMessageService)
	svc.On("Inbox", mock.Anything, sessions.member, true, mock.MatchedBy(func(f shared.Filter) bool {
		return f.Page == 2
	})).Return(&shared.Paginated[messaging.InboxItem]{
		Items:    []messaging.InboxItem{{DeliveryID: uuid.New(), Body: "Rollover done"}},
		Total:    21,
		Page:     2,
		PageSize: 20,
	}, nil)

	w := doJSON(messageRouter(svc, sessions.member), http.MethodGet, "/messages/inbox?unread=true&page=2", nil)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, 2, resp.Meta.TotalPages)
	svc.AssertExpectations(t)
}

func TestMessageHandler_MarkRead(t *testing.T) {
	sessions := newTestSessions()
	deliveryID := uuid.New()
	svc := new(MockMessageService)
	svc.On("MarkRead", mock.Anything, sessions.manager, deliveryID).Return(nil)
	svc.On("MarkRead", mock.Anything, sessions.manager, mock.Anything).Return(shared.ErrNotFound)
	router := messageRouter(svc, sessions.manager)

	assert.Equal(t, http.StatusNoContent, doJSON(router, http.MethodPost, "/messages/"+deliveryID.String()+"/read", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(router, http.MethodPost, "/messages/"+uuid.NewString()+"/read", nil).Code)
}
