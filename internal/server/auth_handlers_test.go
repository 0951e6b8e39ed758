package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"photogram/internal/config"
	"photogram/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository is a mock of the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func postJSON(t *testing.T, app *fiber.App, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, url, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestSignup(t *testing.T) {
	mockUsers := new(MockUserRepository)
	s := &Server{
		config:   &config.Config{JWTSecret: "test-secret"},
		userRepo: mockUsers,
	}

	app := fiber.New()
	app.Post("/signup", s.Signup)

	valid := map[string]string{
		"username": "new_user",
		"email":    "new@example.com",
		"password": "SecurePass12!@",
	}

	t.Run("Success", func(t *testing.T) {
		mockUsers.On("GetByEmail", mock.Anything, "new@example.com").Return(nil, nil).Once()
		mockUsers.On("GetByUsername", mock.Anything, "new_user").Return(nil, nil).Once()
		mockUsers.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
			// The handler must store a bcrypt hash, never the raw password.
			return u.Username == "new_user" &&
				bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("SecurePass12!@")) == nil
		})).Return(nil).Once()

		resp := postJSON(t, app, "/signup", valid)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var out struct {
			Token string      `json:"token"`
			User  models.User `json:"user"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.NotEmpty(t, out.Token)
		assert.Equal(t, "new_user", out.User.Username)
	})

	t.Run("Weak Password", func(t *testing.T) {
		body := map[string]string{
			"username": "new_user",
			"email":    "new@example.com",
			"password": "short",
		}
		resp := postJSON(t, app, "/signup", body)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Duplicate Email", func(t *testing.T) {
		mockUsers.On("GetByEmail", mock.Anything, "new@example.com").
			Return(&models.User{ID: 1, Email: "new@example.com"}, nil).Once()

		resp := postJSON(t, app, "/signup", valid)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("Missing Fields", func(t *testing.T) {
		resp := postJSON(t, app, "/signup", map[string]string{"username": "x"})
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	mockUsers.AssertExpectations(t)
}

func TestLogin(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("SecurePass12!@"), bcrypt.DefaultCost)
	require.NoError(t, err)

	mockUsers := new(MockUserRepository)
	s := &Server{
		config:   &config.Config{JWTSecret: "test-secret"},
		userRepo: mockUsers,
	}

	app := fiber.New()
	app.Post("/login", s.Login)

	t.Run("Success", func(t *testing.T) {
		mockUsers.On("GetByEmail", mock.Anything, "alice@example.com").
			Return(&models.User{ID: 1, Username: "alice", Email: "alice@example.com", Password: string(hashed)}, nil).Once()

		resp := postJSON(t, app, "/login", map[string]string{
			"email":    "alice@example.com",
			"password": "SecurePass12!@",
		})
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var out struct {
			Token string `json:"token"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.NotEmpty(t, out.Token)
	})

	t.Run("Wrong Password", func(t *testing.T) {
		mockUsers.On("GetByEmail", mock.Anything, "alice@example.com").
			Return(&models.User{ID: 1, Password: string(hashed)}, nil).Once()

		resp := postJSON(t, app, "/login", map[string]string{
			"email":    "alice@example.com",
			"password": "WrongPass12!@",
		})
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Unknown Email", func(t *testing.T) {
		mockUsers.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, nil).Once()

		resp := postJSON(t, app, "/login", map[string]string{
			"email":    "ghost@example.com",
			"password": "SecurePass12!@",
		})
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	mockUsers.AssertExpectations(t)
}
