//go:build !integration

package usecase

import (
	"context"
	"io"
	"sort"
	"sync"
	"testing"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"whatsapp-catalog-bot/internal/domain"
	"whatsapp-catalog-bot/internal/domain/model"
	"whatsapp-catalog-bot/internal/domain/ports/adapter"
	"whatsapp-catalog-bot/internal/domain/ports/repository"
	"whatsapp-catalog-bot/internal/infra/i18n"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func newTestTranslator(t *testing.T) *i18n.Translator {
	t.Helper()
	tr, err := i18n.NewTranslator(i18n.LocalesFS, i18n.DefaultLang)
	if err != nil {
		t.Fatalf("load vocabulary: %v", err)
	}
	return tr
}

// ---- In-memory ProductRepository ----

type MockProductRepo struct {
	mu       sync.Mutex
	seq      int64
	products map[int64]model.Product
	Saves    []model.Product

	SaveFunc     func(p *model.Product) error
	FindByIDFunc func(id int64) (*model.Product, error)
	FindAllFunc  func() ([]*model.Product, error)
	DeleteFunc   func(id int64) error
}

var _ repository.ProductRepository = (*MockProductRepo)(nil)

func NewMockProductRepo() *MockProductRepo {
	return &MockProductRepo{products: map[int64]model.Product{}}
}

// seed inserts products directly, bypassing Save bookkeeping.
func (m *MockProductRepo) seed(ps ...*model.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range ps {
		if p.ID == 0 {
			m.seq++
			p.ID = m.seq
		} else if p.ID > m.seq {
			m.seq = p.ID
		}
		m.products[p.ID] = *p
	}
}

func (m *MockProductRepo) get(id int64) (model.Product, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	return p, ok
}

func (m *MockProductRepo) Save(ctx context.Context, tx repository.Tx, p *model.Product) error {
	if m.SaveFunc != nil {
		if err := m.SaveFunc(p); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == 0 {
		m.seq++
		p.ID = m.seq
	} else if _, ok := m.products[p.ID]; !ok {
		return domain.ErrNotFound
	}
	m.products[p.ID] = *p
	m.Saves = append(m.Saves, *p)
	return nil
}

func (m *MockProductRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.Product, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(id)
	}
	p, ok := m.get(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (m *MockProductRepo) FindAll(ctx context.Context, tx repository.Tx) ([]*model.Product, error) {
	if m.FindAllFunc != nil {
		return m.FindAllFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Product, 0, len(m.products))
	for _, p := range m.products {
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockProductRepo) FindVisible(ctx context.Context, tx repository.Tx) ([]*model.Product, error) {
	all, err := m.FindAll(ctx, tx)
	if err != nil {
		return nil, err
	}
	var out []*model.Product
	for _, p := range all {
		if p.IsVisible() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MockProductRepo) Delete(ctx context.Context, tx repository.Tx, id int64) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

// ---- In-memory ConversationStore ----

type MockConversationStore struct {
	mu     sync.Mutex
	states map[string]*model.ConversationState
	PutErr error
}

var _ repository.ConversationStore = (*MockConversationStore)(nil)

func NewMockConversationStore() *MockConversationStore {
	return &MockConversationStore{states: map[string]*model.ConversationState{}}
}

func (m *MockConversationStore) Get(ctx context.Context, senderID string) (*model.ConversationState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[senderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return st.Clone(), nil
}

func (m *MockConversationStore) Put(ctx context.Context, senderID string, st *model.ConversationState) error {
	if m.PutErr != nil {
		return m.PutErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[senderID] = st.Clone()
	return nil
}

func (m *MockConversationStore) Remove(ctx context.Context, senderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, senderID)
	return nil
}

// peek returns the stored state or nil.
func (m *MockConversationStore) peek(senderID string) *model.ConversationState {
	st, err := m.Get(context.Background(), senderID)
	if err != nil {
		return nil
	}
	return st
}

// ---- SenderLocker ----

type MockLocker struct {
	mu      sync.Mutex
	Held    map[string]int
	Calls   int
	LockErr error
}

var _ repository.SenderLocker = (*MockLocker)(nil)

func NewMockLocker() *MockLocker {
	return &MockLocker{Held: map[string]int{}}
}

func (l *MockLocker) Lock(ctx context.Context, senderID string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Calls++
	if l.LockErr != nil {
		return nil, l.LockErr
	}
	l.Held[senderID]++
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			l.Held[senderID]--
			l.mu.Unlock()
		})
	}, nil
}

// ---- ImageIngest ----

type ingestCall struct {
	URL       string
	ProductID int64
}

type MockImageIngest struct {
	mu    sync.Mutex
	Calls []ingestCall

	DownloadFunc func(url string, productID int64) (string, error)
}

var _ adapter.ImageIngest = (*MockImageIngest)(nil)

func (m *MockImageIngest) DownloadAndSaveImage(ctx context.Context, url string, productID int64) (string, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, ingestCall{URL: url, ProductID: productID})
	m.mu.Unlock()
	if m.DownloadFunc != nil {
		return m.DownloadFunc(url, productID)
	}
	return "https://catalog.example.com/api/images/product_1_abcd1234.jpg", nil
}

// ---- TransactionManager ----

type MockTxManager struct {
	Calls      int
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs fn immediately with NoTX unless WithTxFunc is set.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.Calls++
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}
