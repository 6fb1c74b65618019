package comments_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"eventhub/internal/comments"
	"eventhub/internal/events"
	"eventhub/internal/realtime"
	"eventhub/internal/shared/apperrors"
	"eventhub/internal/shared/database/dbtest"
	"eventhub/internal/users"
	"eventhub/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const jwtSecret = "comments-test-secret"

type fixture struct {
	db      *gorm.DB
	hub     *realtime.Hub
	service comments.Service
	event   events.Event
	author  users.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t, &users.User{}, &events.Event{}, &comments.Comment{})

	author := users.User{FirstName: "Asha", LastName: "Rao", Email: "asha@example.com", Password: "x", Role: users.RoleUser}
	require.NoError(t, db.Create(&author).Error)

	event := events.Event{
		Title:       "Poetry Slam",
		Date:        time.Now().Add(24 * time.Hour),
		Location:    "Delhi",
		EventType:   events.EventTypeOther,
		Currency:    "INR",
		OrganizerID: uuid.New(),
	}
	require.NoError(t, db.Create(&event).Error)

	hub := realtime.NewHub()
	return &fixture{
		db:      db,
		hub:     hub,
		service: comments.NewService(comments.NewRepository(db), events.NewRepository(db), hub, logger.Nop()),
		event:   event,
		author:  author,
	}
}

func (f *fixture) actor() users.Actor {
	return users.Actor{ID: f.author.ID, Role: f.author.Role}
}

func TestAddComment_PublishesToEventTopic(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sub := f.hub.Subscribe(f.event.ID.String())
	defer f.hub.Unsubscribe(sub)

	rating := 5
	comment, err := f.service.AddComment(ctx, f.actor(), comments.CreateCommentRequest{
		EventID: f.event.ID.String(),
		Text:    "  Loved it  ",
		Rating:  &rating,
	})
	require.NoError(t, err)
	assert.Equal(t, "Loved it", comment.Text)
	assert.Equal(t, "Asha Rao", comment.AuthorName)

	select {
	case msg := <-sub.C():
		assert.Equal(t, realtime.TypeNewComment, msg.Type)
		var payload comments.CommentResponse
		require.NoError(t, json.Unmarshal(msg.Payload, &payload))
		assert.Equal(t, comment.ID, payload.ID)
	case <-time.After(time.Second):
		t.Fatal("no newComment message")
	}

	_, err = f.service.AddComment(ctx, f.actor(), comments.CreateCommentRequest{EventID: uuid.NewString(), Text: "hi"})
	assert.ErrorIs(t, err, apperrors.ErrEventNotFound)
}

func TestListByEvent_NewestFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, text := range []string{"first", "second", "third"} {
		_, err := f.service.AddComment(ctx, f.actor(), comments.CreateCommentRequest{EventID: f.event.ID.String(), Text: text})
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	page, err := f.service.ListByEvent(ctx, f.event.ID, comments.ListQuery{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Comments, 2)
	assert.Equal(t, "third", page.Comments[0].Text)
	assert.Equal(t, int64(3), page.Meta.Total)
	assert.Equal(t, 2, page.Meta.TotalPages)
}

func TestDeleteComment_OwnerOrAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	comment, err := f.service.AddComment(ctx, f.actor(), comments.CreateCommentRequest{EventID: f.event.ID.String(), Text: "mine"})
	require.NoError(t, err)
	id := uuid.MustParse(comment.ID)

	stranger := users.Actor{ID: uuid.New(), Role: users.RoleUser}
	assert.ErrorIs(t, f.service.DeleteComment(ctx, id, stranger), apperrors.ErrForbidden)

	admin := users.Actor{ID: uuid.New(), Role: users.RoleAdmin}
	require.NoError(t, f.service.DeleteComment(ctx, id, admin))
	assert.ErrorIs(t, f.service.DeleteComment(ctx, id, admin), apperrors.ErrCommentNotFound)
}

func accessToken(t *testing.T, user users.User) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID.String(),
		"email":   user.Email,
		"role":    string(user.Role),
		"type":    "access",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return signed
}

func TestCommentRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newFixture(t)

	r := gin.New()
	comments.SetupCommentRoutes(r.Group("/api/v1"), comments.NewController(f.service), jwtSecret)

	body := `{"eventId":"` + f.event.ID.String() + `","text":"Great lineup","rating":4}`

	anon := httptest.NewRecorder()
	r.ServeHTTP(anon, httptest.NewRequest(http.MethodPost, "/api/v1/comments", strings.NewReader(body)))
	assert.Equal(t, http.StatusUnauthorized, anon.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/comments", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken(t, f.author))
	created := httptest.NewRecorder()
	r.ServeHTTP(created, req)
	assert.Equal(t, http.StatusCreated, created.Code)

	bad := httptest.NewRequest(http.MethodPost, "/api/v1/comments", strings.NewReader(`{"eventId":"`+f.event.ID.String()+`","text":"x","rating":9}`))
	bad.Header.Set("Content-Type", "application/json")
	bad.Header.Set("Authorization", "Bearer "+accessToken(t, f.author))
	rejected := httptest.NewRecorder()
	r.ServeHTTP(rejected, bad)
	assert.Equal(t, http.StatusBadRequest, rejected.Code)

	list := httptest.NewRecorder()
	r.ServeHTTP(list, httptest.NewRequest(http.MethodGet, "/api/v1/comments/"+f.event.ID.String(), nil))
	require.Equal(t, http.StatusOK, list.Code)

	var envelope struct {
		Data comments.PaginatedComments `json:"data"`
	}
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Comments, 1)
	assert.Equal(t, "Great lineup", envelope.Data.Comments[0].Text)
}
