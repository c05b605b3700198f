package accountdelivery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-ledger/internal/credential"
	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/middleware"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
	"github.com/go-petr/pet-ledger/pkg/randompkg"
	"github.com/go-petr/pet-ledger/pkg/tokenpkg"
	"github.com/go-petr/pet-ledger/pkg/web"
)

var (
	tokenMaker tokenpkg.Maker

	compareDecimal = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })
	compareTime    = cmpopts.EquateApproxTime(time.Second)
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)

	if err := web.RegisterValidation("pin", credential.ValidPINField); err != nil {
		fmt.Fprintf(os.Stderr, "web.RegisterValidation(pin) returned error: %v\n", err)
		os.Exit(1)
	}

	var err error

	tokenMaker, err = tokenpkg.NewPasetoMaker(randompkg.String(32))
	if err != nil {
		fmt.Fprintf(os.Stderr, "tokenpkg.NewPasetoMaker returned error: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

func randomAccount(owner string) domain.Account {
	return domain.Account{
		ID:        randompkg.IntBetween(1, 1000),
		Owner:     owner,
		Balance:   randompkg.MoneyAmountBetween(0, 1000),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

// serve routes one request through a fresh engine guarded by the auth middleware.
func serve(t *testing.T, h *Handler, method, pattern, path string, body any, username string) *httptest.ResponseRecorder {
	t.Helper()

	server := gin.New()
	server.Use(middleware.AuthMiddleware(tokenMaker))

	switch pattern {
	case "/accounts":
		server.POST(pattern, h.Create)
		server.GET(pattern, h.List)
	case "/accounts/:id":
		server.GET(pattern, h.Get)
		server.PATCH(pattern, h.UpdatePIN)
		server.DELETE(pattern, h.Delete)
	case "/accounts/:id/reconciliation":
		server.GET(pattern, h.Reconcile)
	}

	var reader *bytes.Reader

	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json.Marshal(%v) returned error: %v", body, err)
		}

		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	if err != nil {
		t.Fatalf("http.NewRequest(%v, %v) returned error: %v", method, path, err)
	}

	if username != "" {
		if err := middleware.AddAuthorization(req, tokenMaker, middleware.AuthTypeBearer, username, time.Minute); err != nil {
			t.Fatalf("middleware.AddAuthorization returned error: %v", err)
		}
	}

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)

	return recorder
}

func decode(t *testing.T, recorder *httptest.ResponseRecorder, data any) web.Response {
	t.Helper()

	res := web.Response{Data: data}
	if err := json.NewDecoder(recorder.Body).Decode(&res); err != nil {
		t.Fatalf("Decoding response body error: %v", err)
	}

	return res
}

func TestCreate(t *testing.T) {
	username := randompkg.Owner()
	account := randomAccount(username)
	pin := randompkg.PIN()

	type requestBody struct {
		PIN string `json:"pin"`
	}

	testCases := []struct {
		name           string
		username       string
		body           requestBody
		buildStubs     func(s *MockService)
		wantStatusCode int
		wantError      string
	}{
		{
			name:     "OK",
			username: username,
			body:     requestBody{PIN: pin},
			buildStubs: func(s *MockService) {
				s.EXPECT().Create(gomock.Any(), gomock.Eq(username), gomock.Eq(pin)).Times(1).Return(account, nil)
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name: "NoAuthorization",
			body: requestBody{PIN: pin},
			buildStubs: func(s *MockService) {
				s.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusUnauthorized,
			wantError:      middleware.ErrAuthHeaderNotFound.Error(),
		},
		{
			name:     "PINTooShort",
			username: username,
			body:     requestBody{PIN: "123"},
			buildStubs: func(s *MockService) {
				s.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "PIN field is invalid",
		},
		{
			name:     "PINNotDigits",
			username: username,
			body:     requestBody{PIN: "12a4"},
			buildStubs: func(s *MockService) {
				s.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "PIN field is invalid",
		},
		{
			name:     "MissingPIN",
			username: username,
			body:     requestBody{},
			buildStubs: func(s *MockService) {
				s.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "PIN field is required",
		},
		{
			name:     "ErrDuplicateCredential",
			username: username,
			body:     requestBody{PIN: pin},
			buildStubs: func(s *MockService) {
				s.EXPECT().Create(gomock.Any(), gomock.Eq(username), gomock.Eq(pin)).Times(1).
					Return(domain.Account{}, domain.ErrDuplicateCredential)
			},
			wantStatusCode: http.StatusConflict,
			wantError:      domain.ErrDuplicateCredential.Error(),
		},
		{
			name:     "ErrOwnerNotFound",
			username: username,
			body:     requestBody{PIN: pin},
			buildStubs: func(s *MockService) {
				s.EXPECT().Create(gomock.Any(), gomock.Eq(username), gomock.Eq(pin)).Times(1).
					Return(domain.Account{}, domain.ErrOwnerNotFound)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      domain.ErrOwnerNotFound.Error(),
		},
		{
			name:     "InternalError",
			username: username,
			body:     requestBody{PIN: pin},
			buildStubs: func(s *MockService) {
				s.EXPECT().Create(gomock.Any(), gomock.Eq(username), gomock.Eq(pin)).Times(1).
					Return(domain.Account{}, errorspkg.ErrInternal)
			},
			wantStatusCode: http.StatusInternalServerError,
			wantError:      errorspkg.ErrInternal.Error(),
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			service := NewMockService(ctrl)
			tc.buildStubs(service)

			recorder := serve(t, NewHandler(service, NewMockReconciler(ctrl)),
				http.MethodPost, "/accounts", "/accounts", tc.body, tc.username)

			if got := recorder.Code; got != tc.wantStatusCode {
				t.Errorf("Status code: got %v, want %v", got, tc.wantStatusCode)
			}

			got := &data{}
			res := decode(t, recorder, got)

			if tc.wantStatusCode != http.StatusCreated {
				if res.Error != tc.wantError {
					t.Errorf(`res.Error=%q, want %q`, res.Error, tc.wantError)
				}

				return
			}

			if diff := cmp.Diff(account, got.Account, compareDecimal, compareTime); diff != "" {
				t.Errorf("res.Data mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGet(t *testing.T) {
	username := randompkg.Owner()
	account := randomAccount(username)

	testCases := []struct {
		name           string
		path           string
		buildStubs     func(s *MockService)
		wantStatusCode int
		wantError      string
	}{
		{
			name: "OK",
			path: fmt.Sprintf("/accounts/%d", account.ID),
			buildStubs: func(s *MockService) {
				s.EXPECT().Get(gomock.Any(), gomock.Eq(account.ID), gomock.Eq(username)).Times(1).Return(account, nil)
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "InvalidID",
			path: "/accounts/0",
			buildStubs: func(s *MockService) {
				s.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "ID field is required",
		},
		{
			name: "NotFound",
			path: fmt.Sprintf("/accounts/%d", account.ID),
			buildStubs: func(s *MockService) {
				s.EXPECT().Get(gomock.Any(), gomock.Eq(account.ID), gomock.Eq(username)).Times(1).
					Return(domain.Account{}, domain.ErrAccountNotFound)
			},
			wantStatusCode: http.StatusNotFound,
			wantError:      domain.ErrAccountNotFound.Error(),
		},
		{
			name: "InternalError",
			path: fmt.Sprintf("/accounts/%d", account.ID),
			buildStubs: func(s *MockService) {
				s.EXPECT().Get(gomock.Any(), gomock.Eq(account.ID), gomock.Eq(username)).Times(1).
					Return(domain.Account{}, errorspkg.ErrInternal)
			},
			wantStatusCode: http.StatusInternalServerError,
			wantError:      errorspkg.ErrInternal.Error(),
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			service := NewMockService(ctrl)
			tc.buildStubs(service)

			recorder := serve(t, NewHandler(service, NewMockReconciler(ctrl)),
				http.MethodGet, "/accounts/:id", tc.path, nil, username)

			if got := recorder.Code; got != tc.wantStatusCode {
				t.Errorf("Status code: got %v, want %v", got, tc.wantStatusCode)
			}

			got := &data{}
			res := decode(t, recorder, got)

			if tc.wantStatusCode != http.StatusOK {
				if res.Error != tc.wantError {
					t.Errorf(`res.Error=%q, want %q`, res.Error, tc.wantError)
				}

				return
			}

			if diff := cmp.Diff(account, got.Account, compareDecimal, compareTime); diff != "" {
				t.Errorf("res.Data mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestList(t *testing.T) {
	username := randompkg.Owner()

	accounts := make([]domain.Account, 3)
	for i := range accounts {
		accounts[i] = randomAccount(username)
	}

	testCases := []struct {
		name           string
		query          string
		buildStubs     func(s *MockService)
		wantStatusCode int
		wantError      string
	}{
		{
			name:  "OK",
			query: "?page_id=2&page_size=3",
			buildStubs: func(s *MockService) {
				s.EXPECT().List(gomock.Any(), gomock.Eq(username), gomock.Eq(int32(3)), gomock.Eq(int32(2))).
					Times(1).Return(accounts, nil)
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:  "PageSizeTooLarge",
			query: "?page_id=1&page_size=101",
			buildStubs: func(s *MockService) {
				s.EXPECT().List(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "PageSize field must be at most 100",
		},
		{
			name:  "MissingPageID",
			query: "?page_size=5",
			buildStubs: func(s *MockService) {
				s.EXPECT().List(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "PageID field is required",
		},
		{
			name:  "InternalError",
			query: "?page_id=1&page_size=5",
			buildStubs: func(s *MockService) {
				s.EXPECT().List(gomock.Any(), gomock.Eq(username), gomock.Eq(int32(5)), gomock.Eq(int32(1))).
					Times(1).Return(nil, errorspkg.ErrInternal)
			},
			wantStatusCode: http.StatusInternalServerError,
			wantError:      errorspkg.ErrInternal.Error(),
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			service := NewMockService(ctrl)
			tc.buildStubs(service)

			recorder := serve(t, NewHandler(service, NewMockReconciler(ctrl)),
				http.MethodGet, "/accounts", "/accounts"+tc.query, nil, username)

			if got := recorder.Code; got != tc.wantStatusCode {
				t.Errorf("Status code: got %v, want %v", got, tc.wantStatusCode)
			}

			got := &dataAccounts{}
			res := decode(t, recorder, got)

			if tc.wantStatusCode != http.StatusOK {
				if res.Error != tc.wantError {
					t.Errorf(`res.Error=%q, want %q`, res.Error, tc.wantError)
				}

				return
			}

			if diff := cmp.Diff(accounts, got.Accounts, compareDecimal, compareTime); diff != "" {
				t.Errorf("res.Data mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUpdatePIN(t *testing.T) {
	username := randompkg.Owner()
	account := randomAccount(username)
	path := fmt.Sprintf("/accounts/%d", account.ID)

	type requestBody struct {
		PIN string `json:"pin"`
	}

	testCases := []struct {
		name           string
		body           requestBody
		buildStubs     func(s *MockService)
		wantStatusCode int
		wantError      string
	}{
		{
			name: "OK",
			body: requestBody{PIN: "4321"},
			buildStubs: func(s *MockService) {
				s.EXPECT().UpdatePIN(gomock.Any(), gomock.Eq(account.ID), gomock.Eq(username), gomock.Eq("4321")).
					Times(1).Return(account, nil)
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "InvalidPIN",
			body: requestBody{PIN: "43210"},
			buildStubs: func(s *MockService) {
				s.EXPECT().UpdatePIN(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "PIN field is invalid",
		},
		{
			name: "NotFound",
			body: requestBody{PIN: "4321"},
			buildStubs: func(s *MockService) {
				s.EXPECT().UpdatePIN(gomock.Any(), gomock.Eq(account.ID), gomock.Eq(username), gomock.Eq("4321")).
					Times(1).Return(domain.Account{}, domain.ErrAccountNotFound)
			},
			wantStatusCode: http.StatusNotFound,
			wantError:      domain.ErrAccountNotFound.Error(),
		},
		{
			name: "DuplicateCredential",
			body: requestBody{PIN: "4321"},
			buildStubs: func(s *MockService) {
				s.EXPECT().UpdatePIN(gomock.Any(), gomock.Eq(account.ID), gomock.Eq(username), gomock.Eq("4321")).
					Times(1).Return(domain.Account{}, domain.ErrDuplicateCredential)
			},
			wantStatusCode: http.StatusConflict,
			wantError:      domain.ErrDuplicateCredential.Error(),
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			service := NewMockService(ctrl)
			tc.buildStubs(service)

			recorder := serve(t, NewHandler(service, NewMockReconciler(ctrl)),
				http.MethodPatch, "/accounts/:id", path, tc.body, username)

			if got := recorder.Code; got != tc.wantStatusCode {
				t.Errorf("Status code: got %v, want %v", got, tc.wantStatusCode)
			}

			res := decode(t, recorder, &data{})

			if tc.wantStatusCode != http.StatusOK && res.Error != tc.wantError {
				t.Errorf(`res.Error=%q, want %q`, res.Error, tc.wantError)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	username := randompkg.Owner()
	id := randompkg.IntBetween(1, 1000)
	path := fmt.Sprintf("/accounts/%d", id)

	testCases := []struct {
		name           string
		err            error
		wantStatusCode int
	}{
		{
			name:           "OK",
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "NotFound",
			err:            domain.ErrAccountNotFound,
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "InUse",
			err:            domain.ErrAccountInUse,
			wantStatusCode: http.StatusConflict,
		},
		{
			name:           "InternalError",
			err:            errorspkg.ErrInternal,
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			service := NewMockService(ctrl)
			service.EXPECT().Delete(gomock.Any(), gomock.Eq(id), gomock.Eq(username)).Times(1).Return(tc.err)

			recorder := serve(t, NewHandler(service, NewMockReconciler(ctrl)),
				http.MethodDelete, "/accounts/:id", path, nil, username)

			if got := recorder.Code; got != tc.wantStatusCode {
				t.Errorf("Status code: got %v, want %v", got, tc.wantStatusCode)
			}

			res := decode(t, recorder, nil)

			if tc.err != nil && res.Error != tc.err.Error() {
				t.Errorf(`res.Error=%q, want %q`, res.Error, tc.err.Error())
			}
		})
	}
}

func TestReconcile(t *testing.T) {
	username := randompkg.Owner()
	id := randompkg.IntBetween(1, 1000)
	path := fmt.Sprintf("/accounts/%d/reconciliation", id)

	want := domain.Reconciliation{
		AccountID:      id,
		Balance:        decimal.RequireFromString("35.50"),
		JournalBalance: decimal.RequireFromString("35.50"),
		Entries:        2,
		Consistent:     true,
	}

	testCases := []struct {
		name           string
		result         domain.Reconciliation
		err            error
		wantStatusCode int
	}{
		{
			name:           "OK",
			result:         want,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "NotFound",
			err:            domain.ErrAccountNotFound,
			wantStatusCode: http.StatusNotFound,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			reconciler := NewMockReconciler(ctrl)
			reconciler.EXPECT().Reconcile(gomock.Any(), gomock.Eq(id), gomock.Eq(username)).Times(1).
				Return(tc.result, tc.err)

			recorder := serve(t, NewHandler(NewMockService(ctrl), reconciler),
				http.MethodGet, "/accounts/:id/reconciliation", path, nil, username)

			if got := recorder.Code; got != tc.wantStatusCode {
				t.Errorf("Status code: got %v, want %v", got, tc.wantStatusCode)
			}

			got := &dataReconciliation{}
			res := decode(t, recorder, got)

			if tc.err != nil {
				if res.Error != tc.err.Error() {
					t.Errorf(`res.Error=%q, want %q`, res.Error, tc.err.Error())
				}

				return
			}

			if diff := cmp.Diff(want, got.Reconciliation, compareDecimal); diff != "" {
				t.Errorf("res.Data mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
