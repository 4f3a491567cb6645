package services

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/gymsite/backend/internal/apperrors"
	"github.com/gymsite/backend/internal/models"
	"github.com/gymsite/backend/internal/roles"
)

// mockAccountRepository is an in-memory implementation of AccountRepository
type mockAccountRepository struct {
	mu       sync.Mutex
	accounts map[string]*models.Account
	nextID   int

	err       error
	createErr error
	// casMiss makes the next conditional write match no row
	casMiss bool
}

func newMockAccountRepository(accounts ...models.Account) *mockAccountRepository {
	m := &mockAccountRepository{accounts: map[string]*models.Account{}}
	for i := range accounts {
		a := accounts[i]
		m.accounts[a.ID] = &a
	}
	return m
}

func (m *mockAccountRepository) Create(ctx context.Context, account *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.createErr != nil {
		return m.createErr
	}
	for _, a := range m.accounts {
		if a.Email == account.Email {
			return apperrors.Wrap(apperrors.ErrDuplicateEmail, "%s", account.Email)
		}
	}
	m.nextID++
	account.ID = fmt.Sprintf("acc-%d", m.nextID)
	account.Role = roles.InitialRole(len(m.accounts))
	account.CreatedAt = time.Now()
	stored := *account
	m.accounts[account.ID] = &stored
	return nil
}

func (m *mockAccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.accounts[id]
	if !ok {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "user %s", id)
	}
	out := *a
	return &out, nil
}

func (m *mockAccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, a := range m.accounts {
		if a.Email == email {
			out := *a
			return &out, nil
		}
	}
	return nil, apperrors.Wrap(apperrors.ErrNotFound, "user %s", email)
}

func (m *mockAccountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	if err == nil {
		return true, nil
	}
	if m.err != nil {
		return false, m.err
	}
	return false, nil
}

func (m *mockAccountRepository) List(ctx context.Context) ([]models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, *a)
	}
	slices.SortFunc(out, func(a, b models.Account) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

func (m *mockAccountRepository) UpdateRole(ctx context.Context, id string, from, to models.Role) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if m.casMiss {
		m.casMiss = false
		return false, nil
	}
	a, ok := m.accounts[id]
	if !ok || a.Role != from {
		return false, nil
	}
	a.Role = to
	return true, nil
}

func (m *mockAccountRepository) Delete(ctx context.Context, id string, role models.Role) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if m.casMiss {
		m.casMiss = false
		return false, nil
	}
	a, ok := m.accounts[id]
	if !ok || a.Role != role {
		return false, nil
	}
	delete(m.accounts, id)
	return true, nil
}

func (m *mockAccountRepository) role(id string) models.Role {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.accounts[id]; ok {
		return a.Role
	}
	return ""
}

// mockTokenIssuer is a mock implementation of TokenIssuer
type mockTokenIssuer struct {
	err error
}

func (m *mockTokenIssuer) GenerateAccessToken(account *models.Account) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return "token-" + account.ID, nil
}

// mockGalleryRepository is an in-memory implementation of GalleryRepository
type mockGalleryRepository struct {
	mu    sync.Mutex
	items map[string]*models.GalleryItem
	seq   int
	clock time.Time

	listErr   error
	createErr error
	updateErr error
	applyErr  error
	deleteErr error
}

func newMockGalleryRepository() *mockGalleryRepository {
	return &mockGalleryRepository{
		items: map[string]*models.GalleryItem{},
		clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// seed stores an item directly, bypassing CreateBatch
func (m *mockGalleryRepository) seed(id string, position int64, ref string) {
	m.clock = m.clock.Add(time.Second)
	m.items[id] = &models.GalleryItem{
		ID: id, Kind: models.MediaKindImage, StorageRef: ref, Filename: id + ".jpg",
		Position: position, Version: 1, CreatedAt: m.clock, UpdatedAt: m.clock,
	}
}

func (m *mockGalleryRepository) List(ctx context.Context) ([]models.GalleryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]models.GalleryItem, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, *it)
	}
	// unordered on purpose; the service must sort
	return out, nil
}

func (m *mockGalleryRepository) GetByID(ctx context.Context, id string) (*models.GalleryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "gallery item %s", id)
	}
	out := *it
	return &out, nil
}

func (m *mockGalleryRepository) GetByIDs(ctx context.Context, ids []string) ([]models.GalleryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.GalleryItem
	for _, id := range ids {
		if it, ok := m.items[id]; ok {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (m *mockGalleryRepository) CreateBatch(ctx context.Context, items []*models.GalleryItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	next := int64(0)
	if len(m.items) > 0 {
		next = -1 << 62
		for _, it := range m.items {
			next = max(next, it.Position)
		}
		next++
	}
	m.clock = m.clock.Add(time.Second)
	for i, it := range items {
		m.seq++
		it.ID = fmt.Sprintf("new-%d", m.seq)
		it.Position = next + int64(i)
		it.Version = 1
		it.CreatedAt = m.clock
		it.UpdatedAt = m.clock
		stored := *it
		m.items[it.ID] = &stored
	}
	return nil
}

func (m *mockGalleryRepository) Update(ctx context.Context, item *models.GalleryItem, expectedVersion *int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	cur, ok := m.items[item.ID]
	if !ok {
		return apperrors.Wrap(apperrors.ErrNotFound, "gallery item %s", item.ID)
	}
	if expectedVersion != nil && *expectedVersion != cur.Version {
		return apperrors.Wrap(apperrors.ErrConflict, "gallery item %s", item.ID)
	}
	item.Version = cur.Version + 1
	stored := *item
	m.items[item.ID] = &stored
	return nil
}

func (m *mockGalleryRepository) ApplyPositions(ctx context.Context, updates []models.PositionUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.applyErr != nil {
		return m.applyErr
	}
	// validate everything first so a failure changes nothing
	for _, u := range updates {
		cur, ok := m.items[u.ID]
		if !ok {
			return apperrors.Wrap(apperrors.ErrNotFound, "gallery item %s", u.ID)
		}
		if u.Version != nil && *u.Version != cur.Version {
			return apperrors.Wrap(apperrors.ErrConflict, "gallery item %s", u.ID)
		}
	}
	for _, u := range updates {
		m.items[u.ID].Position = u.Position
		m.items[u.ID].Version++
	}
	return nil
}

func (m *mockGalleryRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	var n int64
	for _, id := range ids {
		if _, ok := m.items[id]; ok {
			delete(m.items, id)
			n++
		}
	}
	return n, nil
}

func (m *mockGalleryRepository) Renumber(ctx context.Context) (int, error) {
	return 0, nil
}

func (m *mockGalleryRepository) position(id string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[id].Position
}

// mockStorage is an in-memory implementation of FileStorage
type mockStorage struct {
	mu        sync.Mutex
	files     map[string]string
	seq       int
	saveErrAt int // 1-based index of the Save call that fails, 0 for none
	saves     int
	deleteErr map[string]error
}

func newMockStorage() *mockStorage {
	return &mockStorage{files: map[string]string{}, deleteErr: map[string]error{}}
}

func (m *mockStorage) Save(ctx context.Context, r io.Reader, filename, contentType string, kind models.MediaKind) (string, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErrAt == m.saves {
		return "", 0, apperrors.Storage("write file", fmt.Errorf("disk full"))
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, err
	}
	m.seq++
	ref := fmt.Sprintf("%s/%d-%s", kind, m.seq, filename)
	m.files[ref] = string(data)
	return ref, int64(len(data)), nil
}

func (m *mockStorage) Delete(ctx context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.deleteErr[ref]; err != nil {
		return err
	}
	delete(m.files, ref)
	return nil
}

func (m *mockStorage) URL(ref string) string {
	return "/" + ref
}

func (m *mockStorage) has(ref string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[ref]
	return ok
}

func (m *mockStorage) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}
