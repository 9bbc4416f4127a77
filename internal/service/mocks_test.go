package service

import (
	"context"
	"database/sql"

	"github.com/loanhub/loanhub-api/internal/cache"
	"github.com/loanhub/loanhub-api/internal/models"
	"github.com/loanhub/loanhub-api/internal/repository"
	"github.com/loanhub/loanhub-api/pkg/openai"
)

func strPtr(s string) *string    { return &s }
func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int          { return &i }

// catalogProduct builds a minimal product for ranking tests. A negative apr
// means "no APR".
func catalogProduct(id string, apr float64) models.Product {
	p := models.Product{ID: id, Name: "Loan " + id}
	if apr >= 0 {
		p.RateAPR = &apr
	}
	return p
}

type fakeProductStore struct {
	products []models.Product
	err      error

	getAllCalls int
	lastFilter  repository.ProductFilter
}

func (f *fakeProductStore) GetAll(filter repository.ProductFilter) ([]models.Product, error) {
	f.getAllCalls++
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

func (f *fakeProductStore) GetDistinctBanks() ([]string, error) { return nil, f.err }
func (f *fakeProductStore) GetDistinctTypes() ([]string, error) { return nil, f.err }

type fakeLLM struct {
	reply string
	err   error

	calls   int
	lastReq openai.ChatRequest
}

func (f *fakeLLM) ChatCompletion(ctx context.Context, req openai.ChatRequest) (string, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakeMessageStore struct {
	inserted  []models.ChatMessage
	insertErr error
	listed    []models.ChatMessage
	listErr   error
}

func (f *fakeMessageStore) Insert(msg *models.ChatMessage) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, *msg)
	return nil
}

func (f *fakeMessageStore) ListByUserAndProduct(userID, productID string) ([]models.ChatMessage, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listed, nil
}

type fakeUserStore struct {
	users     map[string]*models.User
	createErr error

	upsertCalls int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*models.User{}}
}

func (f *fakeUserStore) GetByEmail(email string) (*models.User, error) {
	if u, ok := f.users[email]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserStore) Create(user *models.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.users[user.Email] = user
	return nil
}

func (f *fakeUserStore) Upsert(user *models.User) error {
	f.upsertCalls++
	f.users[user.Email] = user
	return nil
}

type fakeSessionStore struct {
	created map[string]cache.SessionData
	err     error
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{created: map[string]cache.SessionData{}}
}

func (f *fakeSessionStore) Create(ctx context.Context, id string, data cache.SessionData) error {
	if f.err != nil {
		return f.err
	}
	f.created[id] = data
	return nil
}

func (f *fakeSessionStore) Delete(ctx context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	delete(f.created, id)
	return nil
}
