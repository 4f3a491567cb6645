package handlers

import (
	"context"
	"io"

	"github.com/gymsite/backend/internal/models"
)

// mockAuthService is a mock implementation of AuthService
type mockAuthService struct {
	resp    *models.AuthResponse
	err     error
	lastReq any
}

func (m *mockAuthService) Signup(ctx context.Context, req *models.SignupRequest) (*models.AuthResponse, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

func (m *mockAuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

// mockAdminService is a mock implementation of AdminService
type mockAdminService struct {
	message    string
	account    *models.Account
	accounts   []models.Account
	err        error
	lastActor  string
	lastTarget models.RoleChangeRequest
	lastOp     string
}

func (m *mockAdminService) record(op, actorID string, target models.RoleChangeRequest) (string, error) {
	m.lastOp = op
	m.lastActor = actorID
	m.lastTarget = target
	if m.err != nil {
		return "", m.err
	}
	return m.message, nil
}

func (m *mockAdminService) Promote(ctx context.Context, actorID string, target models.RoleChangeRequest) (string, error) {
	return m.record("promote", actorID, target)
}

func (m *mockAdminService) Demote(ctx context.Context, actorID string, target models.RoleChangeRequest) (string, error) {
	return m.record("demote", actorID, target)
}

func (m *mockAdminService) DeleteAccount(ctx context.Context, actorID string, target models.RoleChangeRequest) (string, error) {
	return m.record("delete", actorID, target)
}

func (m *mockAdminService) ListUsers(ctx context.Context, actorID string) ([]models.Account, error) {
	m.lastActor = actorID
	if m.err != nil {
		return nil, m.err
	}
	return m.accounts, nil
}

func (m *mockAdminService) Profile(ctx context.Context, actorID string) (*models.Account, error) {
	m.lastActor = actorID
	if m.err != nil {
		return nil, m.err
	}
	return m.account, nil
}

// uploadedFile is what the mock gallery service read from an UploadFile
type uploadedFile struct {
	Filename    string
	ContentType string
	Body        string
}

// mockGalleryService is a mock implementation of GalleryService
type mockGalleryService struct {
	items        []models.GalleryItem
	updateResult *models.UpdateResult
	deleteResult *models.DeleteResult
	selectResp   *models.SwapSelectResponse
	swapped      bool
	err          error

	uploaded   []uploadedFile
	lastUpdate models.GalleryUpdate
	lastID     string
	lastIDs    []string
	lastMoves  []models.PositionUpdate
	lastActor  string
}

func (m *mockGalleryService) List(ctx context.Context) ([]models.GalleryItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.items, nil
}

func (m *mockGalleryService) Upload(ctx context.Context, files []models.UploadFile) ([]models.GalleryItem, error) {
	for _, f := range files {
		body, _ := io.ReadAll(f.Reader)
		m.uploaded = append(m.uploaded, uploadedFile{Filename: f.Filename, ContentType: f.ContentType, Body: string(body)})
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.items, nil
}

func (m *mockGalleryService) Update(ctx context.Context, id string, upd models.GalleryUpdate) (*models.UpdateResult, error) {
	m.lastID = id
	m.lastUpdate = upd
	if upd.File != nil {
		body, _ := io.ReadAll(upd.File.Reader)
		m.uploaded = append(m.uploaded, uploadedFile{Filename: upd.File.Filename, ContentType: upd.File.ContentType, Body: string(body)})
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.updateResult, nil
}

func (m *mockGalleryService) Delete(ctx context.Context, id string) (*models.DeleteResult, error) {
	m.lastID = id
	if m.err != nil {
		return nil, m.err
	}
	return m.deleteResult, nil
}

func (m *mockGalleryService) DeleteMany(ctx context.Context, ids []string) (*models.DeleteResult, error) {
	m.lastIDs = ids
	if m.err != nil {
		return nil, m.err
	}
	return m.deleteResult, nil
}

func (m *mockGalleryService) Reorder(ctx context.Context, updates []models.PositionUpdate) ([]models.GalleryItem, error) {
	m.lastMoves = updates
	if m.err != nil {
		return nil, m.err
	}
	return m.items, nil
}

func (m *mockGalleryService) Swap(ctx context.Context, a, b string) ([]models.GalleryItem, bool, error) {
	m.lastIDs = []string{a, b}
	if m.err != nil {
		return nil, false, m.err
	}
	return m.items, m.swapped, nil
}

func (m *mockGalleryService) SelectForSwap(ctx context.Context, actorID, id string) (*models.SwapSelectResponse, error) {
	m.lastActor = actorID
	m.lastID = id
	if m.err != nil {
		return nil, m.err
	}
	return m.selectResp, nil
}
