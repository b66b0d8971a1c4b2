package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"surekeys_dev_v1/internal/model"
)

func setupSessionTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	err = db.AutoMigrate(&model.DraftSession{}, &model.AuthSession{}, &model.AuthProfile{})
	if err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}
	return db
}

func sampleSnapshot(id string, expiresAt time.Time) *model.WizardSnapshot {
	return &model.WizardSnapshot{
		ID:      id,
		OwnerID: "owner-1",
		Role:    model.RoleLandlord,
		Step:    model.StepPhotos,
		Draft: model.Draft{
			Address: &model.AddressSection{
				Title:                     "2 Bedroom Flat",
				Purpose:                   model.PurposeForRent,
				State:                     "Lagos",
				Locality:                  "Ikeja",
				Area:                      "GRA",
				StreetEstateNeighbourhood: "Allen Avenue",
				PropertyType:              "Flat",
			},
			Details: &model.DetailsSection{
				Bedrooms:    2,
				RentAmount:  "₦1,200,000",
				Description: "Spacious flat close to the main road",
				AgentInvite: &model.AgentInviteDetails{
					CommissionRate:     "10",
					PreferredAgentType: model.AgentTypeLocal,
				},
			},
		},
		Images: []model.ListingImage{
			{URL: "https://cdn.example.com/a.jpg", ExternalID: "a", IsCover: true},
			{URL: "https://cdn.example.com/b.jpg", ExternalID: "b"},
		},
		VideoLinks: []model.VideoLink{
			{URL: "https://youtu.be/xyz", Platform: model.PlatformYouTube},
		},
		ExpiresAt: expiresAt,
	}
}

// ==================== 数据库快照 ====================

func TestDraftSessionRepo_SaveAndGet(t *testing.T) {
	repo := NewDraftSessionRepository(setupSessionTestDB(t))
	ctx := context.Background()
	snap := sampleSnapshot("s-1", time.Now().Add(time.Hour))

	require.NoError(t, repo.Save(ctx, snap))

	got, err := repo.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, model.StepPhotos, got.Step)
	assert.Equal(t, "owner-1", got.OwnerID)
	require.NotNil(t, got.Draft.Address)
	assert.Equal(t, "Ikeja", got.Draft.Address.Locality)
	require.NotNil(t, got.Draft.Details)
	require.NotNil(t, got.Draft.Details.AgentInvite)
	assert.Equal(t, model.AgentTypeLocal, got.Draft.Details.AgentInvite.PreferredAgentType)
	assert.Nil(t, got.Draft.Photos)
	assert.Len(t, got.Images, 2)
	assert.True(t, got.Images[0].IsCover)
	assert.Equal(t, model.PlatformYouTube, got.VideoLinks[0].Platform)
}

func TestDraftSessionRepo_SaveOverwrites(t *testing.T) {
	repo := NewDraftSessionRepository(setupSessionTestDB(t))
	ctx := context.Background()
	snap := sampleSnapshot("s-1", time.Now().Add(time.Hour))
	require.NoError(t, repo.Save(ctx, snap))

	snap.Step = model.StepPreview
	snap.Images = snap.Images[:1]
	require.NoError(t, repo.Save(ctx, snap))

	got, err := repo.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, model.StepPreview, got.Step)
	assert.Len(t, got.Images, 1)
}

func TestDraftSessionRepo_NotFound(t *testing.T) {
	repo := NewDraftSessionRepository(setupSessionTestDB(t))

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDraftSessionRepo_DeleteExpired(t *testing.T) {
	repo := NewDraftSessionRepository(setupSessionTestDB(t))
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.Save(ctx, sampleSnapshot("old", now.Add(-time.Minute))))
	require.NoError(t, repo.Save(ctx, sampleSnapshot("fresh", now.Add(time.Hour))))

	n, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.Get(ctx, "old")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.Get(ctx, "fresh")
	assert.NoError(t, err)
}

// ==================== Redis 快照 ====================

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestDraftCacheRepo_SaveGetDelete(t *testing.T) {
	mr, client := setupRedis(t)
	repo := NewDraftCacheRepository(client)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleSnapshot("s-1", time.Now().Add(time.Hour))))
	assert.True(t, mr.Exists(PrefixWizardSession+"s-1"))
	assert.Greater(t, mr.TTL(PrefixWizardSession+"s-1"), 59*time.Minute)

	got, err := repo.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "2 Bedroom Flat", got.Draft.Address.Title)
	assert.Len(t, got.Images, 2)

	require.NoError(t, repo.Delete(ctx, "s-1"))
	_, err = repo.Get(ctx, "s-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDraftCacheRepo_ExpiresWithTTL(t *testing.T) {
	mr, client := setupRedis(t)
	repo := NewDraftCacheRepository(client)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleSnapshot("s-1", time.Now().Add(time.Minute))))
	mr.FastForward(2 * time.Minute)

	_, err := repo.Get(ctx, "s-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDraftCacheRepo_SaveExpiredDeletes(t *testing.T) {
	mr, client := setupRedis(t)
	repo := NewDraftCacheRepository(client)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleSnapshot("s-1", time.Now().Add(time.Hour))))
	require.NoError(t, repo.Save(ctx, sampleSnapshot("s-1", time.Now().Add(-time.Second))))
	assert.False(t, mr.Exists(PrefixWizardSession+"s-1"))
}

// ==================== 登录会话 ====================

func TestAuthSessionRepo_CreateAndGet(t *testing.T) {
	repo := NewAuthSessionRepository(setupSessionTestDB(t))
	ctx := context.Background()

	session := &model.AuthSession{ID: "auth-1", Token: "jwt-token", ExpiresAt: time.Now().Add(time.Hour)}
	profile := &model.AuthProfile{Email: "ada@example.com", Name: "Ada", Role: model.RoleAgent}
	require.NoError(t, repo.Create(ctx, session, profile))

	gotSession, err := repo.GetSession(ctx, "auth-1")
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", gotSession.Token)

	gotProfile, err := repo.GetProfile(ctx, "auth-1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", gotProfile.Email)
	assert.Equal(t, model.RoleAgent, gotProfile.Role)

	require.NoError(t, repo.Delete(ctx, "auth-1"))
	_, err = repo.GetSession(ctx, "auth-1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetProfile(ctx, "auth-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAuthSessionRepo_DeleteExpired(t *testing.T) {
	repo := NewAuthSessionRepository(setupSessionTestDB(t))
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.Create(ctx,
		&model.AuthSession{ID: "old", Token: "t1", ExpiresAt: now.Add(-time.Minute)},
		&model.AuthProfile{Email: "old@example.com"}))
	require.NoError(t, repo.Create(ctx,
		&model.AuthSession{ID: "new", Token: "t2", ExpiresAt: now.Add(time.Hour)},
		&model.AuthProfile{Email: "new@example.com"}))

	n, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.GetProfile(ctx, "old")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetSession(ctx, "new")
	assert.NoError(t, err)
}
