package check

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/practice-studio/internal/http/middlewarectx"
	"github.com/magabrotheeeer/practice-studio/internal/models"
	"github.com/magabrotheeeer/practice-studio/internal/services/access"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Check(ctx context.Context, userUID string, visibility models.Visibility) (access.Decision, error) {
	args := m.Called(ctx, userUID, visibility)
	return args.Get(0).(access.Decision), args.Error(1)
}

func TestCheckHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		visibility     string
		userUID        string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:       "доступ разрешен",
			visibility: "members",
			userUID:    "u1",
			setupMock: func(m *MockService) {
				m.On("Check", mock.Anything, "u1", models.VisibilityMembers).
					Return(access.Decision{Allowed: true}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"allowed":true`,
		},
		{
			name:       "доступ запрещен",
			visibility: "members",
			userUID:    "u1",
			setupMock: func(m *MockService) {
				m.On("Check", mock.Anything, "u1", models.VisibilityMembers).
					Return(access.Decision{}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"allowed":false`,
		},
		{
			name:           "неизвестная видимость",
			visibility:     "vip",
			userUID:        "u1",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `unknown visibility`,
		},
		{
			name:           "нет пользователя в контексте",
			visibility:     "public_sample",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `unauthorized`,
		},
		{
			name:       "ошибка сервиса",
			visibility: "public_sample",
			userUID:    "u1",
			setupMock: func(m *MockService) {
				m.On("Check", mock.Anything, "u1", models.VisibilityPublicSample).
					Return(access.Decision{}, errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `could not check access`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)
			handler := New(logger, svc)

			req := httptest.NewRequest(http.MethodGet, "/content/"+tt.visibility+"/access", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("visibility", tt.visibility)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			if tt.userUID != "" {
				ctx = context.WithValue(ctx, middlewarectx.UserUID, tt.userUID)
			}
			req = req.WithContext(ctx)

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
