package account

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/conecta/internal/auth"
	"github.com/hitoshi/conecta/internal/media"
	"github.com/hitoshi/conecta/internal/model"
	"github.com/hitoshi/conecta/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// --- モック ---

type mockUserRepo struct {
	findByIDFn          func(ctx context.Context, id string) (*model.Account, error)
	findByUsernameFn    func(ctx context.Context, username string) (*model.Account, error)
	findByEmailFn       func(ctx context.Context, email string) (*model.Account, error)
	updateUsernameFn    func(ctx context.Context, id, username string) error
	updateCredentialsFn func(ctx context.Context, id, email, passwordHash string) error
	replaceAvatarFn     func(ctx context.Context, id, avatarURL string) (*string, error)
	deleteByIDFn        func(ctx context.Context, id string) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*model.Account, error) {
	if m.findByUsernameFn != nil {
		return m.findByUsernameFn(ctx, username)
	}
	return nil, nil
}
func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, nil
}
func (m *mockUserRepo) ExistsByCPF(ctx context.Context, cpf string) (bool, error) {
	return false, nil
}
func (m *mockUserRepo) CreateWithProfile(ctx context.Context, user *model.User, profile *model.Profile) error {
	return nil
}
func (m *mockUserRepo) UpdateUsername(ctx context.Context, id, username string) error {
	if m.updateUsernameFn != nil {
		return m.updateUsernameFn(ctx, id, username)
	}
	return nil
}
func (m *mockUserRepo) UpdateCredentials(ctx context.Context, id, email, passwordHash string) error {
	if m.updateCredentialsFn != nil {
		return m.updateCredentialsFn(ctx, id, email, passwordHash)
	}
	return nil
}
func (m *mockUserRepo) ReplaceAvatar(ctx context.Context, id, avatarURL string) (*string, error) {
	if m.replaceAvatarFn != nil {
		return m.replaceAvatarFn(ctx, id, avatarURL)
	}
	return nil, nil
}
func (m *mockUserRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

var _ repository.UserRepository = (*mockUserRepo)(nil)

type mockStats struct {
	statsFn func(ctx context.Context, userID, viewerID string) (model.GraphStats, error)
}

func (m *mockStats) Stats(ctx context.Context, userID, viewerID string) (model.GraphStats, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx, userID, viewerID)
	}
	return model.GraphStats{}, nil
}

type mockUploader struct {
	checkFn   func(f *media.File) (string, error)
	saveFn    func(ctx context.Context, f *media.File) (string, error)
	discarded []string
}

func (m *mockUploader) Check(f *media.File) (string, error) {
	if m.checkFn != nil {
		return m.checkFn(f)
	}
	return "", nil
}
func (m *mockUploader) Save(ctx context.Context, f *media.File) (string, error) {
	if m.saveFn != nil {
		return m.saveFn(ctx, f)
	}
	return "http://media.local/profile_pictures/new.png", nil
}
func (m *mockUploader) Discard(ctx context.Context, url string) {
	m.discarded = append(m.discarded, url)
}

var (
	_ StatsReader    = (*mockStats)(nil)
	_ AvatarUploader = (*mockUploader)(nil)
)

// --- ヘルパー ---

func strPtr(s string) *string { return &s }

func testAccount(t *testing.T) *model.Account {
	t.Helper()
	hash, err := auth.HashPassword("Senha123", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	return &model.Account{
		User: model.User{
			ID:           "user-1",
			Username:     "ana_silva",
			Email:        "ana@example.com",
			PasswordHash: hash,
		},
		Profile: model.Profile{UserID: "user-1", CPF: "123.456.789-09"},
	}
}

func repoWith(account *model.Account) *mockUserRepo {
	return &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Account, error) {
			if id == account.ID {
				return account, nil
			}
			return nil, nil
		},
		findByUsernameFn: func(ctx context.Context, username string) (*model.Account, error) {
			if username == account.Username {
				return account, nil
			}
			return nil, nil
		},
		findByEmailFn: func(ctx context.Context, email string) (*model.Account, error) {
			if email == account.Email {
				return account, nil
			}
			return nil, nil
		},
	}
}

func apiCode(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

func fieldMessage(t *testing.T, err error, field string) string {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %v", err)
	}
	if len(apiErr.Fields[field]) == 0 {
		t.Fatalf("no error for field %q in %v", field, apiErr.Fields)
	}
	return apiErr.Fields[field][0]
}

// --- Me / Profile ---

func TestMe(t *testing.T) {
	account := testAccount(t)
	var gotViewer string
	stats := &mockStats{
		statsFn: func(ctx context.Context, userID, viewerID string) (model.GraphStats, error) {
			gotViewer = viewerID
			return model.GraphStats{FollowersCount: 3, FollowingCount: 1}, nil
		},
	}
	svc := NewService(repoWith(account), stats, &mockUploader{}, bcrypt.MinCost)

	detail, err := svc.Me(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Me failed: %v", err)
	}
	if detail.Username != "ana_silva" {
		t.Errorf("Username = %q", detail.Username)
	}
	if detail.Stats.FollowersCount != 3 || detail.Stats.FollowingCount != 1 {
		t.Errorf("Stats = %+v", detail.Stats)
	}
	if gotViewer != "" {
		t.Errorf("viewerID = %q, want empty", gotViewer)
	}
}

func TestMe_UserGone(t *testing.T) {
	svc := NewService(&mockUserRepo{}, &mockStats{}, &mockUploader{}, bcrypt.MinCost)

	_, err := svc.Me(context.Background(), "ghost")
	if apiCode(err) != model.ErrCodeUserNotFound {
		t.Errorf("error = %v, want USER_NOT_FOUND", err)
	}
}

func TestProfile(t *testing.T) {
	account := testAccount(t)
	stats := &mockStats{
		statsFn: func(ctx context.Context, userID, viewerID string) (model.GraphStats, error) {
			return model.GraphStats{IsFollowing: viewerID == "viewer-1"}, nil
		},
	}
	svc := NewService(repoWith(account), stats, &mockUploader{}, bcrypt.MinCost)

	t.Run("認証済み閲覧者", func(t *testing.T) {
		detail, err := svc.Profile(context.Background(), "ana_silva", "viewer-1")
		if err != nil {
			t.Fatalf("Profile failed: %v", err)
		}
		if !detail.Stats.IsFollowing {
			t.Error("IsFollowing should be true for a follower")
		}
	})

	t.Run("未認証", func(t *testing.T) {
		detail, err := svc.Profile(context.Background(), "ana_silva", "")
		if err != nil {
			t.Fatalf("Profile failed: %v", err)
		}
		if detail.Stats.IsFollowing {
			t.Error("IsFollowing must be false when anonymous")
		}
	})

	t.Run("ユーザー名なし", func(t *testing.T) {
		_, err := svc.Profile(context.Background(), " ", "")
		if apiCode(err) != model.ErrCodeInvalidRequest {
			t.Errorf("error = %v, want INVALID_REQUEST", err)
		}
	})

	t.Run("存在しないユーザー", func(t *testing.T) {
		_, err := svc.Profile(context.Background(), "ninguem", "")
		if apiCode(err) != model.ErrCodeUserNotFound {
			t.Errorf("error = %v, want USER_NOT_FOUND", err)
		}
	})
}

// --- UpdateUsername ---

func TestUpdateUsername(t *testing.T) {
	account := testAccount(t)
	other := &model.Account{User: model.User{ID: "user-2", Username: "bruno"}}

	tests := []struct {
		name     string
		input    string
		wantCode string
		wantMsg  string
		wantName string
	}{
		{"新しいユーザー名", "  ana_nova ", "", "", "ana_nova"},
		{"現在のユーザー名", "ana_silva", "", "", "ana_silva"},
		{"空", "", model.ErrCodeValidation, model.MsgUsernameRequired, ""},
		{"形式不正", "a b", model.ErrCodeValidation, model.MsgUsernameInvalid, ""},
		{"他人が使用中", "bruno", model.ErrCodeValidation, model.MsgUsernameExists, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := repoWith(account)
			repo.findByUsernameFn = func(ctx context.Context, username string) (*model.Account, error) {
				switch username {
				case account.Username:
					return account, nil
				case other.Username:
					return other, nil
				}
				return nil, nil
			}
			var updated string
			repo.updateUsernameFn = func(ctx context.Context, id, username string) error {
				updated = username
				return nil
			}
			svc := NewService(repo, &mockStats{}, &mockUploader{}, bcrypt.MinCost)

			got, err := svc.UpdateUsername(context.Background(), "user-1", tt.input)
			if tt.wantCode != "" {
				if apiCode(err) != tt.wantCode {
					t.Fatalf("error = %v, want %s", err, tt.wantCode)
				}
				if msg := fieldMessage(t, err, "username"); msg != tt.wantMsg {
					t.Errorf("message = %q, want %q", msg, tt.wantMsg)
				}
				if updated != "" {
					t.Error("repository must not be updated on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("UpdateUsername failed: %v", err)
			}
			if got != tt.wantName || updated != tt.wantName {
				t.Errorf("got %q, updated %q, want %q", got, updated, tt.wantName)
			}
		})
	}
}

func TestUpdateUsername_RaceUniqueViolation(t *testing.T) {
	repo := repoWith(testAccount(t))
	repo.updateUsernameFn = func(ctx context.Context, id, username string) error {
		return &repository.UniqueViolationError{Constraint: repository.ConstraintUsername}
	}
	svc := NewService(repo, &mockStats{}, &mockUploader{}, bcrypt.MinCost)

	_, err := svc.UpdateUsername(context.Background(), "user-1", "carla_1")
	if msg := fieldMessage(t, err, "username"); msg != model.MsgUsernameExists {
		t.Errorf("message = %q", msg)
	}
}

// --- UpdateEmailPassword ---

func TestUpdateEmailPassword_Success(t *testing.T) {
	account := testAccount(t)
	repo := repoWith(account)
	var gotEmail, gotHash string
	repo.updateCredentialsFn = func(ctx context.Context, id, email, passwordHash string) error {
		gotEmail, gotHash = email, passwordHash
		return nil
	}
	svc := NewService(repo, &mockStats{}, &mockUploader{}, bcrypt.MinCost)

	err := svc.UpdateEmailPassword(context.Background(), "user-1", CredentialsInput{
		CurrentPassword: "Senha123",
		Email:           "ana.nova@example.com",
		NewPassword:     "NovaSenha9",
	})
	if err != nil {
		t.Fatalf("UpdateEmailPassword failed: %v", err)
	}
	if gotEmail != "ana.nova@example.com" {
		t.Errorf("email = %q", gotEmail)
	}
	if !auth.CheckPassword(gotHash, "NovaSenha9") {
		t.Error("new password hash does not match")
	}
}

func TestUpdateEmailPassword_KeepsUnchangedValues(t *testing.T) {
	account := testAccount(t)
	repo := repoWith(account)
	var gotEmail, gotHash string
	repo.updateCredentialsFn = func(ctx context.Context, id, email, passwordHash string) error {
		gotEmail, gotHash = email, passwordHash
		return nil
	}
	svc := NewService(repo, &mockStats{}, &mockUploader{}, bcrypt.MinCost)

	err := svc.UpdateEmailPassword(context.Background(), "user-1", CredentialsInput{
		CurrentPassword: "Senha123",
		NewPassword:     "OutraSenha1",
	})
	if err != nil {
		t.Fatalf("UpdateEmailPassword failed: %v", err)
	}
	if gotEmail != account.Email {
		t.Errorf("email = %q, want unchanged %q", gotEmail, account.Email)
	}
	if gotHash == account.PasswordHash {
		t.Error("password hash should change")
	}
}

func TestUpdateEmailPassword_Errors(t *testing.T) {
	account := testAccount(t)
	other := &model.Account{User: model.User{ID: "user-2", Email: "bruno@example.com"}}

	tests := []struct {
		name      string
		input     CredentialsInput
		wantCode  string
		wantField string
		wantMsg   string
	}{
		{
			name:      "現在のパスワードなし",
			input:     CredentialsInput{Email: "x@example.com"},
			wantCode:  model.ErrCodeValidation,
			wantField: "current_password",
			wantMsg:   model.MsgCurrentPasswordReq,
		},
		{
			name:     "現在のパスワード誤り",
			input:    CredentialsInput{CurrentPassword: "Errada123", Email: "x@example.com"},
			wantCode: model.ErrCodeIncorrectPassword,
		},
		{
			name:      "メール形式不正",
			input:     CredentialsInput{CurrentPassword: "Senha123", Email: "invalido"},
			wantCode:  model.ErrCodeValidation,
			wantField: "email",
			wantMsg:   model.MsgEmailInvalid,
		},
		{
			name:      "メール使用中",
			input:     CredentialsInput{CurrentPassword: "Senha123", Email: "bruno@example.com"},
			wantCode:  model.ErrCodeValidation,
			wantField: "email",
			wantMsg:   model.MsgEmailExists,
		},
		{
			name:      "弱いパスワード",
			input:     CredentialsInput{CurrentPassword: "Senha123", NewPassword: "fraca"},
			wantCode:  model.ErrCodeValidation,
			wantField: "new_password",
			wantMsg:   model.MsgPasswordWeak,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := repoWith(account)
			repo.findByEmailFn = func(ctx context.Context, email string) (*model.Account, error) {
				if email == other.Email {
					return other, nil
				}
				return nil, nil
			}
			repo.updateCredentialsFn = func(ctx context.Context, id, email, passwordHash string) error {
				t.Error("UpdateCredentials must not be called")
				return nil
			}
			svc := NewService(repo, &mockStats{}, &mockUploader{}, bcrypt.MinCost)

			err := svc.UpdateEmailPassword(context.Background(), "user-1", tt.input)
			if apiCode(err) != tt.wantCode {
				t.Fatalf("error = %v, want %s", err, tt.wantCode)
			}
			if tt.wantField != "" {
				if msg := fieldMessage(t, err, tt.wantField); msg != tt.wantMsg {
					t.Errorf("message = %q, want %q", msg, tt.wantMsg)
				}
			}
		})
	}
}

// --- UpdateAvatar ---

func TestUpdateAvatar_ReplacesAndDiscardsPrevious(t *testing.T) {
	repo := repoWith(testAccount(t))
	var replaced string
	repo.replaceAvatarFn = func(ctx context.Context, id, avatarURL string) (*string, error) {
		replaced = avatarURL
		return strPtr("http://media.local/profile_pictures/old.png"), nil
	}
	uploader := &mockUploader{}
	svc := NewService(repo, &mockStats{}, uploader, bcrypt.MinCost)

	url, err := svc.UpdateAvatar(context.Background(), "user-1", &media.File{Name: "a.png", ContentType: "image/png", Size: 10})
	if err != nil {
		t.Fatalf("UpdateAvatar failed: %v", err)
	}
	if url != "http://media.local/profile_pictures/new.png" || replaced != url {
		t.Errorf("url = %q, replaced = %q", url, replaced)
	}
	if len(uploader.discarded) != 1 || uploader.discarded[0] != "http://media.local/profile_pictures/old.png" {
		t.Errorf("discarded = %v, want the previous avatar", uploader.discarded)
	}
}

func TestUpdateAvatar_NoPrevious(t *testing.T) {
	uploader := &mockUploader{}
	svc := NewService(repoWith(testAccount(t)), &mockStats{}, uploader, bcrypt.MinCost)

	if _, err := svc.UpdateAvatar(context.Background(), "user-1", &media.File{Name: "a.png", ContentType: "image/png", Size: 10}); err != nil {
		t.Fatalf("UpdateAvatar failed: %v", err)
	}
	if len(uploader.discarded) != 0 {
		t.Errorf("discarded = %v, want none", uploader.discarded)
	}
}

func TestUpdateAvatar_PolicyViolation(t *testing.T) {
	uploader := &mockUploader{
		checkFn: func(f *media.File) (string, error) { return model.MsgFileExtInvalid, nil },
		saveFn: func(ctx context.Context, f *media.File) (string, error) {
			t.Error("Save must not be called")
			return "", nil
		},
	}
	svc := NewService(repoWith(testAccount(t)), &mockStats{}, uploader, bcrypt.MinCost)

	_, err := svc.UpdateAvatar(context.Background(), "user-1", &media.File{Name: "a.exe", ContentType: "image/png", Size: 10})
	if apiCode(err) != model.ErrCodeInvalidUpload {
		t.Fatalf("error = %v, want INVALID_UPLOAD", err)
	}
	if msg := fieldMessage(t, err, "profile_picture"); msg != model.MsgFileExtInvalid {
		t.Errorf("message = %q", msg)
	}
}

func TestUpdateAvatar_StoreUnavailable(t *testing.T) {
	uploader := &mockUploader{
		saveFn: func(ctx context.Context, f *media.File) (string, error) {
			return "", errors.New("connection refused")
		},
	}
	svc := NewService(repoWith(testAccount(t)), &mockStats{}, uploader, bcrypt.MinCost)

	_, err := svc.UpdateAvatar(context.Background(), "user-1", &media.File{Name: "a.png", ContentType: "image/png", Size: 10})
	if apiCode(err) != model.ErrCodeUpstreamUnavailable {
		t.Errorf("error = %v, want UPSTREAM_UNAVAILABLE", err)
	}
}

func TestUpdateAvatar_ReplaceFailureDiscardsNewBlob(t *testing.T) {
	repo := repoWith(testAccount(t))
	repo.replaceAvatarFn = func(ctx context.Context, id, avatarURL string) (*string, error) {
		return nil, errors.New("deadlock detected")
	}
	uploader := &mockUploader{}
	svc := NewService(repo, &mockStats{}, uploader, bcrypt.MinCost)

	_, err := svc.UpdateAvatar(context.Background(), "user-1", &media.File{Name: "a.png", ContentType: "image/png", Size: 10})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(uploader.discarded) != 1 || uploader.discarded[0] != "http://media.local/profile_pictures/new.png" {
		t.Errorf("discarded = %v, want the new blob", uploader.discarded)
	}
}

// --- Withdraw ---

func TestWithdraw_DeletesUserThenAvatar(t *testing.T) {
	account := testAccount(t)
	account.Profile.AvatarURL = strPtr("http://media.local/profile_pictures/me.png")
	repo := repoWith(account)

	var calls []string
	repo.deleteByIDFn = func(ctx context.Context, id string) error {
		calls = append(calls, "delete:"+id)
		return nil
	}
	uploader := &mockUploader{}
	svc := NewService(repo, &mockStats{}, uploader, bcrypt.MinCost)

	if err := svc.Withdraw(context.Background(), "user-1"); err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}
	if len(calls) != 1 || calls[0] != "delete:user-1" {
		t.Errorf("calls = %v", calls)
	}
	if len(uploader.discarded) != 1 || uploader.discarded[0] != "http://media.local/profile_pictures/me.png" {
		t.Errorf("discarded = %v", uploader.discarded)
	}
}

func TestWithdraw_UserNotFound(t *testing.T) {
	svc := NewService(&mockUserRepo{}, &mockStats{}, &mockUploader{}, bcrypt.MinCost)

	err := svc.Withdraw(context.Background(), "ghost")
	if apiCode(err) != model.ErrCodeUserNotFound {
		t.Errorf("error = %v, want USER_NOT_FOUND", err)
	}
}

func TestWithdraw_DeleteFailureKeepsAvatar(t *testing.T) {
	account := testAccount(t)
	account.Profile.AvatarURL = strPtr("http://media.local/profile_pictures/me.png")
	repo := repoWith(account)
	repo.deleteByIDFn = func(ctx context.Context, id string) error {
		return errors.New("db error")
	}
	uploader := &mockUploader{}
	svc := NewService(repo, &mockStats{}, uploader, bcrypt.MinCost)

	if err := svc.Withdraw(context.Background(), "user-1"); err == nil {
		t.Fatal("expected error")
	}
	if len(uploader.discarded) != 0 {
		t.Errorf("avatar must be kept when the user row survives, discarded = %v", uploader.discarded)
	}
}
