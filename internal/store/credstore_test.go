package store

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stealer-insight/analyzer/internal/models"
)

func newLoadedStore(t *testing.T) *CredStore {
	t.Helper()

	s, err := NewCredStore(t.TempDir(), "test")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	res := &models.AnalysisResult{
		Filename: "leak.zip",
		SystemsData: []models.SystemEntry{
			{
				Credentials: []models.Credential{
					{Software: models.StringPtr("Chrome"), Username: models.StringPtr("alice"), Domain: models.StringPtr("gmail.com")},
					{Software: models.StringPtr("Chrome"), Username: models.StringPtr("bob"), Domain: models.StringPtr("example.org")},
					{Username: models.StringPtr("carol")},
				},
			},
			{
				Credentials: []models.Credential{
					{Software: models.StringPtr("Firefox"), Username: models.StringPtr("dave"), Domain: models.StringPtr("gmail.com")},
				},
			},
		},
	}
	require.NoError(t, s.LoadResult(res))
	return s
}

func TestLoadResultCount(t *testing.T) {
	s := newLoadedStore(t)
	assert.Equal(t, 4, s.Len())
}

func TestQueryCredentialsAll(t *testing.T) {
	s := newLoadedStore(t)

	creds, total, err := s.QueryCredentials(context.Background(), Query{}, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, creds, 4)

	// Insertion order survives the round trip through the table.
	assert.Equal(t, "alice", *creds[0].Username)
	assert.Equal(t, "dave", *creds[3].Username)

	// NULL columns come back as absent, not empty strings.
	assert.Nil(t, creds[2].Software)
	assert.Nil(t, creds[2].Domain)
}

func TestQueryCredentialsPaging(t *testing.T) {
	s := newLoadedStore(t)

	page1, total, err := s.QueryCredentials(context.Background(), Query{}, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, page1, 2)
	assert.Equal(t, "alice", *page1[0].Username)

	page2, total, err := s.QueryCredentials(context.Background(), Query{}, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, page2, 2)
	assert.Equal(t, "carol", *page2[0].Username)

	empty, _, err := s.QueryCredentials(context.Background(), Query{}, 9, 2)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestQueryCredentialsFilters(t *testing.T) {
	s := newLoadedStore(t)

	byDomain, total, err := s.QueryCredentials(context.Background(), Query{Domain: "gmail.com"}, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, byDomain, 2)
	assert.Equal(t, "alice", *byDomain[0].Username)
	assert.Equal(t, "dave", *byDomain[1].Username)

	bySoftware, total, err := s.QueryCredentials(context.Background(), Query{Software: "Firefox"}, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "dave", *bySoftware[0].Username)

	// Search is case-insensitive across username, host and domain.
	bySearch, total, err := s.QueryCredentials(context.Background(), Query{Search: "CAROL"}, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "carol", *bySearch[0].Username)

	combined, total, err := s.QueryCredentials(context.Background(), Query{Domain: "gmail.com", Software: "Chrome"}, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "alice", *combined[0].Username)
}

func TestDomainCounts(t *testing.T) {
	s := newLoadedStore(t)

	counts, err := s.DomainCounts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []DomainCount{
		{Domain: "gmail.com", Count: 2},
		{Domain: "example.org", Count: 1},
	}, counts)
}

func TestCloseRemovesFile(t *testing.T) {
	s, err := NewCredStore(t.TempDir(), "cleanup")
	require.NoError(t, err)

	path := s.dbPath
	_, err = os.Stat(path)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
