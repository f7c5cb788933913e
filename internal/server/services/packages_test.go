package services

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/sampottinger/kipling-package-index/internal/logging"
	"github.com/sampottinger/kipling-package-index/internal/server/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stageOf(t *testing.T, err error) Stage {
	t.Helper()
	var pe *PublishError
	require.ErrorAs(t, err, &pe)
	return pe.Stage
}

func setupPackages(t *testing.T) (*PackageService, *fakeManager) {
	t.Helper()
	m := newFakeManager()
	seedUser(t, m, "alice", "alicepw")
	seedUser(t, m, "bob", "bobpw")
	return newPackageService(t, m), m
}

func TestCreate_ThenRead(t *testing.T) {
	s, _ := setupPackages(t)
	ctx := context.Background()

	res, err := s.Create(ctx, Submission{Username: "alice", Password: "alicepw", Form: packageForm("simple_ain", "alice")})
	require.NoError(t, err)

	assert.Equal(t, []string{"alice"}, res.Record.Authors)
	assert.Contains(t, res.Credential.URL, "https://kipling-packages.s3.amazonaws.com/simple_ain.zip?")
	assert.Equal(t, fixedNow.Add(15*time.Minute), res.Credential.ExpiresAt)
	assert.NotEmpty(t, res.Credential.Signature)

	got, err := s.Read(ctx, "simple_ain")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, got.Authors)
	assert.Equal(t, "1.0.0", got.Version)
}

func TestCreate_JoinedAndListedAuthorsAgree(t *testing.T) {
	s, _ := setupPackages(t)
	ctx := context.Background()

	a, err := s.Create(ctx, Submission{Username: "alice", Password: "alicepw", Form: packageForm("one", "alice, bob")})
	require.NoError(t, err)
	b, err := s.Create(ctx, Submission{Username: "alice", Password: "alicepw", Form: packageForm("two", "alice", "bob")})
	require.NoError(t, err)

	assert.Equal(t, []string{"alice", "bob"}, a.Record.Authors)
	assert.Equal(t, a.Record.Authors, b.Record.Authors)
}

func TestCreate_Duplicate(t *testing.T) {
	s, _ := setupPackages(t)
	ctx := context.Background()
	sub := Submission{Username: "alice", Password: "alicepw", Form: packageForm("simple_ain", "alice")}

	_, err := s.Create(ctx, sub)
	require.NoError(t, err)

	_, err = s.Create(ctx, sub)
	assert.ErrorIs(t, err, ErrDuplicateName)
	assert.Equal(t, StageAuthorizing, stageOf(t, err))
}

func TestCreate_Refusals(t *testing.T) {
	tests := []struct {
		name      string
		sub       Submission
		wantErr   error
		wantField string
		wantStage Stage
	}{
		{
			name:      "wrong password",
			sub:       Submission{Username: "alice", Password: "nope", Form: packageForm("p", "alice")},
			wantErr:   ErrPermission,
			wantStage: StageAuthorizing,
		},
		{
			name:      "unknown user",
			sub:       Submission{Username: "mallory", Password: "x", Form: packageForm("p", "mallory")},
			wantErr:   ErrPermission,
			wantStage: StageAuthorizing,
		},
		{
			name:      "submitter not an author",
			sub:       Submission{Username: "alice", Password: "alicepw", Form: packageForm("p", "bob")},
			wantErr:   ErrNotAnAuthor,
			wantStage: StageAuthorizing,
		},
		{
			name:      "no metadata",
			sub:       Submission{Username: "alice", Password: "alicepw", Form: url.Values{"username": {"alice"}}},
			wantErr:   ErrMissingDescriptor,
			wantStage: StageValidating,
		},
		{
			name:      "nil form",
			sub:       Submission{Username: "alice", Password: "alicepw"},
			wantErr:   ErrMissingDescriptor,
			wantStage: StageValidating,
		},
		{
			name:      "missing name",
			sub:       Submission{Username: "alice", Password: "alicepw", Form: packageForm("", "alice")},
			wantField: "name",
			wantStage: StageValidating,
		},
		{
			name:      "validation runs before authorization",
			sub:       Submission{Username: "alice", Password: "nope", Form: packageForm("", "alice")},
			wantField: "name",
			wantStage: StageValidating,
		},
		{
			name:      "blank authors",
			sub:       Submission{Username: "alice", Password: "alicepw", Form: packageForm("p", " , ")},
			wantField: "authors",
			wantStage: StageValidating,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := setupPackages(t)

			_, err := s.Create(context.Background(), tt.sub)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantField != "" {
				var ve *metadata.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, tt.wantField, ve.Field)
			}
			assert.Equal(t, tt.wantStage, stageOf(t, err))
			assert.True(t, IsDomainError(err))

			_, err = s.Read(context.Background(), "p")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestCreate_ConcurrentSameNameSingleWinner(t *testing.T) {
	m := newFakeManager()
	seedUser(t, m, "alice", "alicepw")

	const n = 8
	racing := &racingPackages{Repository: m.MemoryRepositoryManager.Packages(nil)}
	racing.arrived.Add(n)
	m.packages = racing
	s := newPackageService(t, m)

	var (
		wg   sync.WaitGroup
		errs = make([]error, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Create(context.Background(), Submission{
				Username: "alice", Password: "alicepw", Form: packageForm("simple_ain", "alice"),
			})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, ErrDuplicateName)
		assert.Equal(t, StagePersisting, stageOf(t, err))
	}
	assert.Equal(t, 1, wins)
}

func TestUpdate_ByAuthorMergesOptionalFields(t *testing.T) {
	s, _ := setupPackages(t)
	ctx := context.Background()

	form := packageForm("simple_ain", "alice")
	form.Set("homepage", "https://labjack.com")
	_, err := s.Create(ctx, Submission{Username: "alice", Password: "alicepw", Form: form})
	require.NoError(t, err)

	next := packageForm("", "alice, bob")
	next.Set("version", "1.1.0")
	next.Set("description", "reads analog inputs")
	res, err := s.Update(ctx, "simple_ain", Submission{Username: "alice", Password: "alicepw", Form: next})
	require.NoError(t, err)

	assert.Equal(t, "simple_ain", res.Record.Name)
	assert.Equal(t, "1.1.0", res.Record.Version)
	assert.Equal(t, []string{"alice", "bob"}, res.Record.Authors)
	require.NotNil(t, res.Record.Homepage)
	assert.Equal(t, "https://labjack.com", *res.Record.Homepage)
	assert.Equal(t, "reads analog inputs", *res.Record.Description)
	assert.Contains(t, res.Credential.URL, "/simple_ain.zip?")

	// bob was added as an author and may now update.
	_, err = s.Update(ctx, "simple_ain", Submission{Username: "bob", Password: "bobpw", Form: packageForm("simple_ain", "bob")})
	require.NoError(t, err)
}

func TestUpdate_IdenticalReplayIsIdempotent(t *testing.T) {
	s, _ := setupPackages(t)
	ctx := context.Background()

	_, err := s.Create(ctx, Submission{Username: "alice", Password: "alicepw", Form: packageForm("simple_ain", "alice")})
	require.NoError(t, err)

	update := func() *PublishResult {
		form := packageForm("simple_ain", "alice", "bob")
		form.Set("version", "1.1.0")
		form.Set("repository", "https://github.com/labjack/simple_ain")
		res, err := s.Update(ctx, "simple_ain", Submission{Username: "alice", Password: "alicepw", Form: form})
		require.NoError(t, err)
		return res
	}

	first := update()
	afterFirst, err := s.Read(ctx, "simple_ain")
	require.NoError(t, err)

	second := update()
	afterSecond, err := s.Read(ctx, "simple_ain")
	require.NoError(t, err)

	assert.Equal(t, afterFirst, afterSecond)
	assert.Equal(t, first.Record, second.Record)
	assert.Equal(t, first.Credential, second.Credential, "same clock, same credential")
	assert.Equal(t, []string{"alice", "bob"}, afterSecond.Authors)
}

func TestUpdate_NonAuthorLeavesRecordUnchanged(t *testing.T) {
	s, _ := setupPackages(t)
	ctx := context.Background()

	_, err := s.Create(ctx, Submission{Username: "alice", Password: "alicepw", Form: packageForm("simple_ain", "alice")})
	require.NoError(t, err)
	before, _ := s.Read(ctx, "simple_ain")

	hijack := packageForm("simple_ain", "bob")
	hijack.Set("version", "6.6.6")
	_, err = s.Update(ctx, "simple_ain", Submission{Username: "bob", Password: "bobpw", Form: hijack})
	assert.ErrorIs(t, err, ErrPermission)
	assert.Equal(t, StageAuthorizing, stageOf(t, err))

	after, _ := s.Read(ctx, "simple_ain")
	assert.Equal(t, before, after)
}

func TestUpdate_Refusals(t *testing.T) {
	s, _ := setupPackages(t)
	ctx := context.Background()
	_, err := s.Create(ctx, Submission{Username: "alice", Password: "alicepw", Form: packageForm("simple_ain", "alice")})
	require.NoError(t, err)

	_, err = s.Update(ctx, "ghost", Submission{Username: "alice", Password: "alicepw", Form: packageForm("ghost", "alice")})
	assert.ErrorIs(t, err, ErrPermission)

	_, err = s.Update(ctx, "simple_ain", Submission{Username: "alice", Password: "nope", Form: packageForm("simple_ain", "alice")})
	assert.ErrorIs(t, err, ErrPermission)

	_, err = s.Update(ctx, "simple_ain", Submission{Username: "alice", Password: "alicepw", Form: packageForm("other", "alice")})
	var ve *metadata.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "name", ve.Field)
	assert.Equal(t, StageValidating, stageOf(t, err))
}

func TestDelete(t *testing.T) {
	s, _ := setupPackages(t)
	ctx := context.Background()

	require.NoError(t, s.Delete(ctx, "does_not_exist", "alice", "alicepw"))

	_, err := s.Create(ctx, Submission{Username: "alice", Password: "alicepw", Form: packageForm("simple_ain", "alice")})
	require.NoError(t, err)

	err = s.Delete(ctx, "simple_ain", "bob", "bobpw")
	assert.ErrorIs(t, err, ErrPermission)
	_, err = s.Read(ctx, "simple_ain")
	require.NoError(t, err)

	assert.ErrorIs(t, s.Delete(ctx, "simple_ain", "alice", "wrong"), ErrPermission)

	require.NoError(t, s.Delete(ctx, "simple_ain", "alice", "alicepw"))
	_, err = s.Read(ctx, "simple_ain")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCredentialFailureKeepsMetadata(t *testing.T) {
	m := newFakeManager()
	seedUser(t, m, "alice", "alicepw")
	s := NewPackageService(nil, m, failingIssuer{}, logging.Nop(), nil)

	_, err := s.Create(context.Background(), Submission{Username: "alice", Password: "alicepw", Form: packageForm("simple_ain", "alice")})
	assert.ErrorIs(t, err, ErrCredentialIssuance)
	assert.ErrorContains(t, err, "signer offline")
	assert.Equal(t, StageCredentialing, stageOf(t, err))
	assert.False(t, IsDomainError(err))

	_, err = s.Read(context.Background(), "simple_ain")
	assert.NoError(t, err)
}

func TestStoreFailuresAreNotDomainErrors(t *testing.T) {
	m := newFakeManager()
	seedUser(t, m, "alice", "alicepw")
	m.packages = brokenPackages{err: errors.New("db error: connection refused")}
	s := newPackageService(t, m)
	ctx := context.Background()

	_, err := s.Create(ctx, Submission{Username: "alice", Password: "alicepw", Form: packageForm("p", "alice")})
	require.Error(t, err)
	assert.False(t, IsDomainError(err))
	assert.Equal(t, StageAuthorizing, stageOf(t, err))

	_, err = s.Update(ctx, "p", Submission{Username: "alice", Password: "alicepw", Form: packageForm("p", "alice")})
	require.Error(t, err)
	assert.False(t, IsDomainError(err))

	err = s.Delete(ctx, "p", "alice", "alicepw")
	require.Error(t, err)
	assert.False(t, IsDomainError(err))

	_, err = s.Read(ctx, "p")
	require.Error(t, err)
	assert.False(t, IsDomainError(err))
	assert.ErrorContains(t, err, "connection refused")
}
