package userdelivery

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/middleware"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
	"github.com/go-petr/pet-ledger/pkg/randompkg"
	"github.com/go-petr/pet-ledger/pkg/tokenpkg"
	"github.com/go-petr/pet-ledger/pkg/web"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.ReleaseMode)
	os.Exit(m.Run())
}

func randomUser() (domain.UserWithoutPassword, string) {
	user := domain.UserWithoutPassword{
		Username:  randompkg.Owner(),
		FullName:  randompkg.Owner(),
		Email:     randompkg.Email(),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}

	return user, randompkg.String(10)
}

func randomSession(username string) (string, time.Time, domain.Session) {
	expiresAt := time.Now().Add(time.Hour).UTC().Truncate(time.Second)

	return randompkg.String(20), expiresAt, domain.Session{
		Username:     username,
		RefreshToken: randompkg.String(20),
		ExpiresAt:    expiresAt.Add(time.Hour),
	}
}

func decodeUser(t *testing.T, recorder *httptest.ResponseRecorder) (web.Response, *data) {
	t.Helper()

	got := &data{}
	res := web.Response{Data: got}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&res))

	return res, got
}

func TestCreateAPI(t *testing.T) {
	user, password := randomUser()
	accessToken, accessExpiresAt, session := randomSession(user.Username)

	validBody := gin.H{
		"username": user.Username,
		"password": password,
		"fullname": user.FullName,
		"email":    user.Email,
	}

	testCases := []struct {
		name          string
		requestBody   gin.H
		buildStubs    func(userService *MockService, sessionMaker *MockSessionMaker)
		checkResponse func(t *testing.T, recorder *httptest.ResponseRecorder)
	}{
		{
			name: "InvalidUsername",
			requestBody: gin.H{
				"username": "user&%",
				"password": password,
				"fullname": user.FullName,
				"email":    user.Email,
			},
			buildStubs: func(userService *MockService, sessionMaker *MockSessionMaker) {
				userService.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
				sessionMaker.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(t *testing.T, recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusBadRequest, recorder.Code)

				res, _ := decodeUser(t, recorder)
				require.Equal(t, "Username field must contain only letters and digits", res.Error)
			},
		},
		{
			name: "ShortPassword",
			requestBody: gin.H{
				"username": user.Username,
				"password": "xyz",
				"fullname": user.FullName,
				"email":    user.Email,
			},
			buildStubs: func(userService *MockService, sessionMaker *MockSessionMaker) {
				userService.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
				sessionMaker.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(t *testing.T, recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusBadRequest, recorder.Code)

				res, _ := decodeUser(t, recorder)
				require.Equal(t, "Password field must be at least 6", res.Error)
			},
		},
		{
			name: "InvalidEmail",
			requestBody: gin.H{
				"username": user.Username,
				"password": password,
				"fullname": user.FullName,
				"email":    "user%email.com",
			},
			buildStubs: func(userService *MockService, sessionMaker *MockSessionMaker) {
				userService.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
				sessionMaker.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(t *testing.T, recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusBadRequest, recorder.Code)
			},
		},
		{
			name:        "UniqueViolationUsername",
			requestBody: validBody,
			buildStubs: func(userService *MockService, sessionMaker *MockSessionMaker) {
				userService.EXPECT().
					Create(gomock.Any(), gomock.Eq(user.Username), gomock.Eq(password), gomock.Eq(user.FullName), gomock.Eq(user.Email)).
					Times(1).
					Return(domain.UserWithoutPassword{}, domain.ErrUsernameAlreadyExists)
				sessionMaker.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(t *testing.T, recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusConflict, recorder.Code)
			},
		},
		{
			name:        "UniqueViolationEmail",
			requestBody: validBody,
			buildStubs: func(userService *MockService, sessionMaker *MockSessionMaker) {
				userService.EXPECT().
					Create(gomock.Any(), gomock.Eq(user.Username), gomock.Eq(password), gomock.Eq(user.FullName), gomock.Eq(user.Email)).
					Times(1).
					Return(domain.UserWithoutPassword{}, domain.ErrEmailAlreadyExists)
				sessionMaker.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(t *testing.T, recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusConflict, recorder.Code)

				res, _ := decodeUser(t, recorder)
				require.Equal(t, domain.ErrEmailAlreadyExists.Error(), res.Error)
			},
		},
		{
			name:        "CreateInternalError",
			requestBody: validBody,
			buildStubs: func(userService *MockService, sessionMaker *MockSessionMaker) {
				userService.EXPECT().
					Create(gomock.Any(), gomock.Eq(user.Username), gomock.Eq(password), gomock.Eq(user.FullName), gomock.Eq(user.Email)).
					Times(1).
					Return(domain.UserWithoutPassword{}, errorspkg.ErrInternal)
				sessionMaker.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(t *testing.T, recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusInternalServerError, recorder.Code)
			},
		},
		{
			name:        "CreateSessionInternalError",
			requestBody: validBody,
			buildStubs: func(userService *MockService, sessionMaker *MockSessionMaker) {
				userService.EXPECT().
					Create(gomock.Any(), gomock.Eq(user.Username), gomock.Eq(password), gomock.Eq(user.FullName), gomock.Eq(user.Email)).
					Times(1).
					Return(user, nil)
				sessionMaker.EXPECT().
					Create(gomock.Any(), gomock.Eq(domain.CreateSessionParams{Username: user.Username})).
					Times(1).
					Return("", time.Time{}, domain.Session{}, errorspkg.ErrInternal)
			},
			checkResponse: func(t *testing.T, recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusInternalServerError, recorder.Code)
			},
		},
		{
			name:        "OK",
			requestBody: validBody,
			buildStubs: func(userService *MockService, sessionMaker *MockSessionMaker) {
				userService.EXPECT().
					Create(gomock.Any(), gomock.Eq(user.Username), gomock.Eq(password), gomock.Eq(user.FullName), gomock.Eq(user.Email)).
					Times(1).
					Return(user, nil)
				sessionMaker.EXPECT().
					Create(gomock.Any(), gomock.Eq(domain.CreateSessionParams{Username: user.Username})).
					Times(1).
					Return(accessToken, accessExpiresAt, session, nil)
			},
			checkResponse: func(t *testing.T, recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusCreated, recorder.Code)

				res, got := decodeUser(t, recorder)
				require.Equal(t, user.Username, got.User.Username)
				require.Equal(t, user.FullName, got.User.FullName)
				require.Equal(t, user.Email, got.User.Email)
				require.Equal(t, accessToken, res.AccessToken)
				require.Equal(t, accessExpiresAt.Format(time.RFC3339), res.AccessTokenExpiresAt)
				require.Equal(t, session.RefreshToken, res.RefreshToken)
				require.Equal(t, session.ExpiresAt.Format(time.RFC3339), res.RefreshTokenExpiresAt)
			},
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			sessionMaker := NewMockSessionMaker(ctrl)
			userService := NewMockService(ctrl)
			tc.buildStubs(userService, sessionMaker)

			server := gin.New()
			url := "/users"
			server.POST(url, NewHandler(userService, sessionMaker).Create)

			body, err := json.Marshal(tc.requestBody)
			require.NoError(t, err)

			req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
			require.NoError(t, err)

			recorder := httptest.NewRecorder()
			server.ServeHTTP(recorder, req)

			tc.checkResponse(t, recorder)
		})
	}
}

func TestLoginAPI(t *testing.T) {
	user, password := randomUser()
	accessToken, accessExpiresAt, session := randomSession(user.Username)

	testCases := []struct {
		name           string
		requestBody    gin.H
		buildStubs     func(userService *MockService, sessionMaker *MockSessionMaker)
		wantStatusCode int
	}{
		{
			name:        "InvalidUsername",
			requestBody: gin.H{"username": "invalid-%user#1", "password": password},
			buildStubs: func(userService *MockService, sessionMaker *MockSessionMaker) {
				userService.EXPECT().CheckPassword(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
				sessionMaker.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:        "UserNotFound",
			requestBody: gin.H{"username": user.Username, "password": password},
			buildStubs: func(userService *MockService, sessionMaker *MockSessionMaker) {
				userService.EXPECT().CheckPassword(gomock.Any(), gomock.Eq(user.Username), gomock.Eq(password)).
					Times(1).
					Return(domain.UserWithoutPassword{}, domain.ErrUserNotFound)
				sessionMaker.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:        "WrongPassword",
			requestBody: gin.H{"username": user.Username, "password": "incorrect"},
			buildStubs: func(userService *MockService, sessionMaker *MockSessionMaker) {
				userService.EXPECT().CheckPassword(gomock.Any(), gomock.Eq(user.Username), gomock.Eq("incorrect")).
					Times(1).
					Return(domain.UserWithoutPassword{}, domain.ErrWrongPassword)
				sessionMaker.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:        "InternalError",
			requestBody: gin.H{"username": user.Username, "password": password},
			buildStubs: func(userService *MockService, sessionMaker *MockSessionMaker) {
				userService.EXPECT().CheckPassword(gomock.Any(), gomock.Eq(user.Username), gomock.Eq(password)).
					Times(1).
					Return(domain.UserWithoutPassword{}, errorspkg.ErrInternal)
				sessionMaker.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusInternalServerError,
		},
		{
			name:        "OK",
			requestBody: gin.H{"username": user.Username, "password": password},
			buildStubs: func(userService *MockService, sessionMaker *MockSessionMaker) {
				userService.EXPECT().CheckPassword(gomock.Any(), gomock.Eq(user.Username), gomock.Eq(password)).
					Times(1).
					Return(user, nil)
				sessionMaker.EXPECT().
					Create(gomock.Any(), gomock.Eq(domain.CreateSessionParams{Username: user.Username})).
					Times(1).
					Return(accessToken, accessExpiresAt, session, nil)
			},
			wantStatusCode: http.StatusOK,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			sessionMaker := NewMockSessionMaker(ctrl)
			userService := NewMockService(ctrl)
			tc.buildStubs(userService, sessionMaker)

			server := gin.New()
			url := "/users/login"
			server.POST(url, NewHandler(userService, sessionMaker).Login)

			body, err := json.Marshal(tc.requestBody)
			require.NoError(t, err)

			req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
			require.NoError(t, err)

			recorder := httptest.NewRecorder()
			server.ServeHTTP(recorder, req)

			require.Equal(t, tc.wantStatusCode, recorder.Code)

			if tc.wantStatusCode == http.StatusOK {
				res, got := decodeUser(t, recorder)
				require.Equal(t, user.Username, got.User.Username)
				require.Equal(t, accessToken, res.AccessToken)
				require.Equal(t, session.RefreshToken, res.RefreshToken)
			}
		})
	}
}

func TestMeAPI(t *testing.T) {
	user, _ := randomUser()

	tokenMaker, err := tokenpkg.NewPasetoMaker(randompkg.String(32))
	require.NoError(t, err)

	testCases := []struct {
		name           string
		err            error
		wantStatusCode int
	}{
		{name: "OK", wantStatusCode: http.StatusOK},
		{name: "NotFound", err: domain.ErrUserNotFound, wantStatusCode: http.StatusNotFound},
		{name: "InternalError", err: errorspkg.ErrInternal, wantStatusCode: http.StatusInternalServerError},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			userService := NewMockService(ctrl)

			if tc.err != nil {
				userService.EXPECT().Get(gomock.Any(), gomock.Eq(user.Username)).Times(1).
					Return(domain.UserWithoutPassword{}, tc.err)
			} else {
				userService.EXPECT().Get(gomock.Any(), gomock.Eq(user.Username)).Times(1).Return(user, nil)
			}

			server := gin.New()
			server.GET("/users/me", middleware.AuthMiddleware(tokenMaker), NewHandler(userService, NewMockSessionMaker(ctrl)).Me)

			req, err := http.NewRequest(http.MethodGet, "/users/me", nil)
			require.NoError(t, err)
			require.NoError(t, middleware.AddAuthorization(req, tokenMaker, middleware.AuthTypeBearer, user.Username, time.Minute))

			recorder := httptest.NewRecorder()
			server.ServeHTTP(recorder, req)

			require.Equal(t, tc.wantStatusCode, recorder.Code)

			res, got := decodeUser(t, recorder)
			if tc.err != nil {
				require.Equal(t, tc.err.Error(), res.Error)
				return
			}

			require.Equal(t, user.Username, got.User.Username)
			require.Equal(t, user.Email, got.User.Email)
		})
	}
}
