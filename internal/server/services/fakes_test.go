package services

import (
	"context"
	"database/sql"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/userauth/internal/common"
	"github.com/dmitrijs2005/userauth/internal/dbx"
	"github.com/dmitrijs2005/userauth/internal/logging"
	"github.com/dmitrijs2005/userauth/internal/server/auth"
	"github.com/dmitrijs2005/userauth/internal/server/models"
	usersrepo "github.com/dmitrijs2005/userauth/internal/server/repositories/users"
	"golang.org/x/crypto/bcrypt"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// memUsers is an in-memory users.Repository. failOn makes the named method
// return the given error.
type memUsers struct {
	mu     sync.Mutex
	rows   map[int64]models.User
	nextID int64
	failOn map[string]error
}

func newMemUsers() *memUsers {
	return &memUsers{rows: map[int64]models.User{}, failOn: map[string]error{}}
}

func (m *memUsers) fail(method string) error { return m.failOn[method] }

func (m *memUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("Create"); err != nil {
		return nil, err
	}
	for _, r := range m.rows {
		if r.UserName == u.UserName || r.Email == u.Email {
			return nil, common.ErrDuplicate
		}
	}
	m.nextID++
	u.ID = m.nextID
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.rows[u.ID] = *u
	return u, nil
}

func (m *memUsers) find(match func(models.User) bool) (*models.User, error) {
	for _, r := range m.rows {
		if match(r) {
			c := r
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("GetByID"); err != nil {
		return nil, err
	}
	return m.find(func(r models.User) bool { return r.ID == id })
}

func (m *memUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("GetByUsername"); err != nil {
		return nil, err
	}
	return m.find(func(r models.User) bool { return r.UserName == username })
}

func (m *memUsers) GetByUsernameOrEmail(ctx context.Context, login string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("GetByUsernameOrEmail"); err != nil {
		return nil, err
	}
	if u, err := m.find(func(r models.User) bool { return r.UserName == login }); err == nil {
		return u, nil
	}
	return m.find(func(r models.User) bool { return r.Email == login })
}

func (m *memUsers) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ExistsByUsernameOrEmail"); err != nil {
		return false, err
	}
	_, err := m.find(func(r models.User) bool { return r.UserName == username || r.Email == email })
	return err == nil, nil
}

func (m *memUsers) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := m.find(func(r models.User) bool { return r.UserName == username })
	return err == nil, nil
}

func (m *memUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := m.find(func(r models.User) bool { return r.Email == email })
	return err == nil, nil
}

func (m *memUsers) List(ctx context.Context) ([]*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("List"); err != nil {
		return nil, err
	}
	var out []*models.User
	for _, r := range m.rows {
		c := r
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memUsers) Update(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[u.ID]
	if !ok {
		return common.ErrorNotFound
	}
	cur.UserName, cur.Email, cur.PasswordHash = u.UserName, u.Email, u.PasswordHash
	cur.FirstName, cur.LastName, cur.PhoneNumber = u.FirstName, u.LastName, u.PhoneNumber
	cur.UpdatedAt = time.Now()
	m.rows[u.ID] = cur
	return nil
}

func (m *memUsers) modify(method string, id int64, fn func(*models.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(method); err != nil {
		return err
	}
	cur, ok := m.rows[id]
	if !ok {
		return common.ErrorNotFound
	}
	fn(&cur)
	m.rows[id] = cur
	return nil
}

func (m *memUsers) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	return m.modify("UpdateLastLogin", id, func(u *models.User) { u.LastLogin = &at })
}

func (m *memUsers) UpdateRole(ctx context.Context, id int64, role models.Role) error {
	return m.modify("UpdateRole", id, func(u *models.User) { u.Role = role })
}

func (m *memUsers) UpdateEnabled(ctx context.Context, id int64, enabled bool) error {
	return m.modify("UpdateEnabled", id, func(u *models.User) { u.Enabled = enabled })
}

func (m *memUsers) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return common.ErrorNotFound
	}
	delete(m.rows, id)
	return nil
}

type fakeRepoManager struct {
	u *memUsers
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return m.u }

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	svc   *UserService
	repo  *memUsers
	mock  sqlmock.Sqlmock
	clock *fakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	keys := auth.KeyConfig{Secret: []byte("test-secret"), Lifetime: time.Hour}
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	tokens := auth.NewTokenService(auth.NewCodec(keys), keys, auth.WithClock(clock.Now))
	repo := newMemUsers()

	svc := NewUserService(db, &fakeRepoManager{u: repo}, tokens,
		auth.NewPasswordHasher(bcrypt.MinCost), logging.NewJSONLogger(io.Discard, "error"))
	svc.now = clock.Now

	return &fixture{svc: svc, repo: repo, mock: mock, clock: clock}
}

func (f *fixture) expectTx(commit bool) {
	f.mock.ExpectBegin()
	if commit {
		f.mock.ExpectCommit()
	} else {
		f.mock.ExpectRollback()
	}
}

func (f *fixture) register(t *testing.T, username, email, password string) *AuthResult {
	t.Helper()
	res, err := f.svc.Register(context.Background(), RegisterRequest{Username: username, Email: email, Password: password})
	if err != nil {
		t.Fatalf("Register(%s) error: %v", username, err)
	}
	return res
}
