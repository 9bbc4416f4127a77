package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/loanhub/loanhub-api/internal/models"
	"github.com/loanhub/loanhub-api/internal/repository"
	"github.com/loanhub/loanhub-api/pkg/openai"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeProductStore struct {
	products []models.Product
	err      error

	lastFilter repository.ProductFilter
}

func (f *fakeProductStore) GetAll(filter repository.ProductFilter) ([]models.Product, error) {
	f.lastFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}

func (f *fakeProductStore) GetByID(id string) (*models.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.products {
		if f.products[i].ID == id {
			return &f.products[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeProductStore) GetDistinctBanks() ([]string, error) { return []string{"Acme"}, f.err }
func (f *fakeProductStore) GetDistinctTypes() ([]string, error) { return []string{"personal"}, f.err }

type fakeLLM struct {
	reply string
	err   error
	calls int
}

func (f *fakeLLM) ChatCompletion(ctx context.Context, req openai.ChatRequest) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakeMessageStore struct {
	inserted []models.ChatMessage
	listed   []models.ChatMessage
}

func (f *fakeMessageStore) Insert(msg *models.ChatMessage) error {
	f.inserted = append(f.inserted, *msg)
	return nil
}

func (f *fakeMessageStore) ListByUserAndProduct(userID, productID string) ([]models.ChatMessage, error) {
	return f.listed, nil
}

type fakeAuth struct {
	user  *models.User
	token string
	err   error

	signupCalls int
	loginCalls  int
	logoutCalls int
}

func (f *fakeAuth) Signup(email, password string, displayName *string) (*models.User, error) {
	f.signupCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	f.loginCalls++
	if f.err != nil {
		return nil, "", f.err
	}
	return f.user, f.token, nil
}

func (f *fakeAuth) Logout(ctx context.Context, sessionID string) error {
	f.logoutCalls++
	return f.err
}

// doJSON performs a request against the router and decodes the JSON body
// into a generic map for assertions.
func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var decoded map[string]any
	if len(w.Body.Bytes()) > 0 && w.Body.Bytes()[0] == '{' {
		if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
		}
	}
	return w, decoded
}
