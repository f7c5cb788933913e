package services

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/sampottinger/kipling-package-index/internal/common"
	"github.com/sampottinger/kipling-package-index/internal/dbx"
	"github.com/sampottinger/kipling-package-index/internal/logging"
	"github.com/sampottinger/kipling-package-index/internal/server/models"
	"github.com/sampottinger/kipling-package-index/internal/server/notify"
	"github.com/sampottinger/kipling-package-index/internal/server/repositories/packages"
	"github.com/sampottinger/kipling-package-index/internal/server/repositories/repomanager"
	"github.com/sampottinger/kipling-package-index/internal/server/repositories/users"
	"github.com/sampottinger/kipling-package-index/internal/server/uploads"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var fixedNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

// fakeManager serves the memory store unless a repository is overridden.
type fakeManager struct {
	*repomanager.MemoryRepositoryManager
	users    users.Repository
	packages packages.Repository
}

func (m *fakeManager) Users(db dbx.DBTX) users.Repository {
	if m.users != nil {
		return m.users
	}
	return m.MemoryRepositoryManager.Users(db)
}

func (m *fakeManager) Packages(db dbx.DBTX) packages.Repository {
	if m.packages != nil {
		return m.packages
	}
	return m.MemoryRepositoryManager.Packages(db)
}

func newFakeManager() *fakeManager {
	return &fakeManager{MemoryRepositoryManager: repomanager.NewMemoryRepositoryManager()}
}

func seedUser(t *testing.T, m repomanager.RepositoryManager, username, password string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, m.Users(nil).Create(context.Background(), &models.User{
		Username: username, Email: username + "@example.com", PasswordHash: string(hash),
	}))
}

func newIssuer(t *testing.T) uploads.Issuer {
	t.Helper()
	i, err := uploads.NewQueryAuthIssuer(uploads.QueryAuthOptions{
		Bucket: "kipling-packages", AccessKey: "AKID", SecretKey: "secret", TTL: 15 * time.Minute,
	})
	require.NoError(t, err)
	return i
}

func newPackageService(t *testing.T, m repomanager.RepositoryManager) *PackageService {
	t.Helper()
	s := NewPackageService(nil, m, newIssuer(t), logging.Nop(), nil)
	s.now = func() time.Time { return fixedNow }
	return s
}

func packageForm(name string, authors ...string) url.Values {
	form := url.Values{
		"license":   {"MIT"},
		"humanName": {"Simple AIN"},
		"version":   {"1.0.0"},
		"authors":   authors,
	}
	if name != "" {
		form.Set("name", name)
	}
	return form
}

type failingIssuer struct{}

func (failingIssuer) Issue(context.Context, string, time.Time) (*models.UploadCredential, error) {
	return nil, errors.New("signer offline")
}

// brokenPackages fails every call with err.
type brokenPackages struct{ err error }

func (b brokenPackages) Get(context.Context, string) (*models.Package, error) { return nil, b.err }
func (b brokenPackages) Upsert(context.Context, *models.Package) error        { return b.err }
func (b brokenPackages) Insert(context.Context, *models.Package) error        { return b.err }
func (b brokenPackages) Delete(context.Context, string) error                 { return b.err }

// racingPackages holds every Get until all expected callers have arrived
// and then reports the package as absent, so concurrent creates all pass
// the lookup and only Insert can tell them apart.
type racingPackages struct {
	packages.Repository
	arrived sync.WaitGroup
}

func (r *racingPackages) Get(context.Context, string) (*models.Package, error) {
	r.arrived.Done()
	r.arrived.Wait()
	return nil, common.ErrorNotFound
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return n.err
}
