package services

import (
	"context"
	"testing"

	"dailybread/models"
	"dailybread/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.church(t, "Grace Chapel", models.ChurchActive)
	f.church(t, "Grace Pending", models.ChurchPending)

	got, err := f.churches.Search(ctx, "   ")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got, err = f.churches.Search(ctx, "grace")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Grace Chapel", got[0].Name)

	got, err = f.churches.Search(ctx, "austin")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSearch_LimitAndOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	names := []string{
		"hope Fellowship", "Grace Chapel", "Zion Baptist", "all Saints", "Bethel Church",
		"Calvary Chapel", "Emmanuel Church", "New Life", "Faith Church", "Dayspring",
		"Mercy House", "Ironwood Church",
	}
	for _, n := range names {
		f.church(t, n, models.ChurchActive)
	}
	f.church(t, "Abbey Pending", models.ChurchPending)

	got, err := f.churches.Search(ctx, "austin")
	require.NoError(t, err)
	require.Len(t, got, 10)

	var gotNames []string
	for _, c := range got {
		gotNames = append(gotNames, c.Name)
	}
	assert.Equal(t, []string{
		"all Saints", "Bethel Church", "Calvary Chapel", "Dayspring", "Emmanuel Church",
		"Faith Church", "Grace Chapel", "hope Fellowship", "Ironwood Church", "Mercy House",
	}, gotNames)
}

func TestBySlug(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.church(t, "Grace Chapel", models.ChurchActive)
	f.church(t, "New Hope", models.ChurchPending)

	c, err := f.churches.BySlug(ctx, " Grace-Chapel ")
	require.NoError(t, err)
	assert.Equal(t, "grace-chapel", c.Slug)

	_, err = f.churches.BySlug(ctx, "new-hope")
	assert.ErrorIs(t, err, ErrChurchNotFound)
	_, err = f.churches.BySlug(ctx, "missing")
	assert.ErrorIs(t, err, ErrChurchNotFound)
}

func TestJoinAndLeave(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.donor(t, "ana@example.com", "Ana", "Lopez")
	active := f.church(t, "Grace Chapel", models.ChurchActive)
	pending := f.church(t, "New Hope", models.ChurchPending)

	mine, err := f.churches.MyChurch(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, mine)

	_, err = f.churches.Join(ctx, u.ID, pending.ID)
	assert.ErrorIs(t, err, ErrChurchInactive)
	_, err = f.churches.Join(ctx, u.ID, 999)
	assert.ErrorIs(t, err, ErrChurchNotFound)

	joined, err := f.churches.Join(ctx, u.ID, active.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, joined.MemberCount)

	mine, err = f.churches.MyChurch(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, mine)
	assert.Equal(t, active.ID, mine.ID)

	require.NoError(t, f.churches.Leave(ctx, u.ID))
	mine, err = f.churches.MyChurch(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, mine)
}

func TestJoin_MemberCountFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.donor(t, "ana@example.com", "Ana", "Lopez")
	c := f.church(t, "Grace Chapel", models.ChurchActive)

	core, logs := observer.New(zap.WarnLevel)
	s := &ChurchService{Churches: failingMembers{f.store}, Users: f.store, Audit: f.store, Logger: zap.New(core)}

	joined, err := s.Join(ctx, u.ID, c.ID)
	require.NoError(t, err)
	assert.Zero(t, joined.MemberCount)
	require.Equal(t, 1, logs.FilterMessage("count church members failed").Len())

	mine, err := s.MyChurch(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, mine.ID)
}

func TestSubmit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.donor(t, "ana@example.com", "Ana", "Lopez")

	_, err := f.churches.Submit(ctx, u.ID, ChurchInput{Name: "G"})
	assert.Equal(t, "name", fieldOf(t, err))
	_, err = f.churches.Submit(ctx, u.ID, ChurchInput{Name: "Grace", ContactEmail: "not-an-email"})
	assert.Equal(t, "contact_email", fieldOf(t, err))

	c, err := f.churches.Submit(ctx, u.ID, ChurchInput{Name: "  Grace Chapel ", City: "Austin", State: "TX"})
	require.NoError(t, err)
	assert.Equal(t, "grace-chapel", c.Slug)
	assert.Equal(t, models.ChurchPending, c.Status)
	assert.Equal(t, 1, c.MemberCount)

	p, err := f.store.GetProfile(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, p.ChurchID)
	assert.Equal(t, c.ID, *p.ChurchID)

	_, err = f.churches.Submit(ctx, u.ID, ChurchInput{Name: "GRACE CHAPEL"})
	assert.ErrorIs(t, err, ErrChurchExists)

	events, err := f.store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.AuditChurchSubmitted, events[0].Action)
	assert.Equal(t, u.ID, events[0].ActorID)
}

func TestUpdateDetails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.church(t, "Grace Chapel", models.ChurchActive)

	_, err := f.churches.UpdateDetails(ctx, c.ID, ChurchInput{Website: "ftp://grace.example.org"})
	assert.Equal(t, "website", fieldOf(t, err))

	got, err := f.churches.UpdateDetails(ctx, c.ID, ChurchInput{
		Name:         "Ignored",
		City:         "Dallas",
		Website:      "https://grace.example.org",
		ContactEmail: "Office@Grace.example.org",
	})
	require.NoError(t, err)
	assert.Equal(t, "Grace Chapel", got.Name)
	require.NotNil(t, got.ContactEmail)
	assert.Equal(t, "office@grace.example.org", *got.ContactEmail)
	assert.Nil(t, got.State)

	_, err = f.churches.UpdateDetails(ctx, 999, ChurchInput{})
	assert.ErrorIs(t, err, ErrChurchNotFound)
}

func TestUploadLogo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.church(t, "Grace Chapel", models.ChurchActive)

	_, err := f.churches.UploadLogo(ctx, c.ID, pngHeader)
	assert.ErrorIs(t, err, utils.ErrStorageDisabled)

	store := newFakeStore()
	f.churches.Store = store

	_, err = f.churches.UploadLogo(ctx, c.ID, []byte("plain text, not an image"))
	assert.Equal(t, "logo", fieldOf(t, err))
	_, err = f.churches.UploadLogo(ctx, c.ID, make([]byte, MaxLogoBytes+1))
	assert.Equal(t, "logo", fieldOf(t, err))

	first, err := f.churches.UploadLogo(ctx, c.ID, pngHeader)
	require.NoError(t, err)
	require.NotNil(t, first.LogoURL)
	assert.Contains(t, *first.LogoURL, "logos/")
	assert.Contains(t, *first.LogoURL, ".png")
	firstURL := *first.LogoURL

	second, err := f.churches.UploadLogo(ctx, c.ID, pngHeader)
	require.NoError(t, err)
	assert.NotEqual(t, firstURL, *second.LogoURL)
	assert.Equal(t, []string{firstURL}, store.deleted)
	assert.Len(t, store.uploads, 2)
}
