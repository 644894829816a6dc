package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Inkroom/internal/auth"
	"github.com/dkeye/Inkroom/internal/domain"
)

type fakeInbox struct {
	notes map[domain.UserID][]domain.Notification
}

func (f *fakeInbox) NotificationsFor(ctx context.Context, to domain.UserID) ([]domain.Notification, error) {
	return f.notes[to], nil
}

func TestListNotifications(t *testing.T) {
	gin.SetMode(gin.TestMode)
	verifier, err := auth.NewTokenVerifier(testSecret)
	require.NoError(t, err)

	inbox := &fakeInbox{notes: map[domain.UserID][]domain.Notification{
		"u1": {{To: "u1", Type: domain.NotifyInviteReceive, Body: "Invited: You were received by Cora. Document: Launch Plan"}},
	}}
	handler := NewNotificationsHandler(inbox)

	r := gin.New()
	r.GET("/notifications", BearerAuth(verifier), handler.listNotifications)

	req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "u1", "Uma"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data struct {
			Notifications []domain.Notification `json:"notifications"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data.Notifications, 1)
	assert.Contains(t, body.Data.Notifications[0].Body, "Cora")

	// Another user's inbox is empty.
	req = httptest.NewRequest(http.MethodGet, "/notifications", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "u2", "Ugo"))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Cora")
}
