package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nordrein/webshop/internal/notification"
)

type notificationRepoMock struct {
	feed   map[string][]*notification.Notification
	marked []string
}

func (m *notificationRepoMock) Append(_ context.Context, n *notification.Notification) error {
	if m.feed == nil {
		m.feed = map[string][]*notification.Notification{}
	}
	m.feed[n.SessionKey] = append(m.feed[n.SessionKey], n)
	return nil
}

func (m *notificationRepoMock) ListBySession(_ context.Context, sessionKey string, _ int) ([]*notification.Notification, error) {
	return m.feed[sessionKey], nil
}

func (m *notificationRepoMock) MarkRead(_ context.Context, sessionKey, id string) error {
	for _, n := range m.feed[sessionKey] {
		if n.ID == id {
			m.marked = append(m.marked, id)
			return nil
		}
	}
	return notification.ErrNotificationNotFound
}

func notificationsTestRouter(repo notification.Repository) chi.Router {
	handler := NewNotificationHandler(repo)
	return testRouter(testSessionKey, func(r chi.Router) {
		r.Get("/notifications", handler.List)
		r.Post("/notifications/{id}/read", handler.MarkRead)
	})
}

func TestListNotifications_ReturnsSessionFeed(t *testing.T) {
	repo := &notificationRepoMock{feed: map[string][]*notification.Notification{
		testSessionKey: {{ID: "n1", Kind: notification.KindOrderConfirmed, Title: "Order confirmed"}},
		"someone-else": {{ID: "n2"}},
	}}

	rec := httptest.NewRecorder()
	notificationsTestRouter(repo).ServeHTTP(rec, httptest.NewRequest("GET", "/notifications", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp NotificationsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, "n1", resp.Notifications[0].ID)
}

func TestListNotifications_EmptyFeed(t *testing.T) {
	rec := httptest.NewRecorder()
	notificationsTestRouter(&notificationRepoMock{}).ServeHTTP(rec, httptest.NewRequest("GET", "/notifications", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp NotificationsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Empty(t, resp.Notifications)
}

func TestMarkRead_Success(t *testing.T) {
	repo := &notificationRepoMock{feed: map[string][]*notification.Notification{
		testSessionKey: {{ID: "n1"}},
	}}

	rec := httptest.NewRecorder()
	notificationsTestRouter(repo).ServeHTTP(rec, httptest.NewRequest("POST", "/notifications/n1/read", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"n1"}, repo.marked)
}

func TestMarkRead_OtherSessionLooksMissing(t *testing.T) {
	repo := &notificationRepoMock{feed: map[string][]*notification.Notification{
		"someone-else": {{ID: "n1"}},
	}}

	rec := httptest.NewRecorder()
	notificationsTestRouter(repo).ServeHTTP(rec, httptest.NewRequest("POST", "/notifications/n1/read", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
