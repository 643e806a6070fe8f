package repository

import (
	"context"
	"testing"
	"time"

	"golang-deal-sentinel/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&entity.Signal{},
		&entity.Source{},
		&entity.WatchlistTarget{},
		&entity.SweepRun{},
		&entity.Pulse{},
	))
	return db
}

func TestSaveIfNew_DedupByLink(t *testing.T) {
	repo := NewSignalRepository(newTestDB(t))
	ctx := context.Background()

	first := &entity.Signal{
		CompanyName: "Acme Ltd",
		Headline:    "Acme enters administration",
		SourceLink:  "https://news.example.com/acme-1",
	}
	created, err := repo.SaveIfNew(ctx, first, DedupByLink)
	require.NoError(t, err)
	assert.True(t, created)

	// Same link under a different headline must be dropped.
	second := &entity.Signal{
		CompanyName: "Acme Ltd",
		Headline:    "Acme collapse deepens",
		SourceLink:  "https://news.example.com/acme-1",
	}
	created, err = repo.SaveIfNew(ctx, second, DedupByLink)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestSaveIfNew_DedupByCompany(t *testing.T) {
	repo := NewSignalRepository(newTestDB(t))
	ctx := context.Background()

	created, err := repo.SaveIfNew(ctx, &entity.Signal{
		CompanyName: "Acme Ltd",
		Headline:    "Acme raises Series B",
		SourceLink:  "https://news.example.com/a",
	}, DedupByCompany)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.SaveIfNew(ctx, &entity.Signal{
		CompanyName: "Acme Ltd",
		Headline:    "A completely different story",
		SourceLink:  "https://news.example.com/b",
	}, DedupByCompany)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestSaveIfNew_DedupByHeadlineAndCompany(t *testing.T) {
	repo := NewSignalRepository(newTestDB(t))
	ctx := context.Background()

	created, err := repo.SaveIfNew(ctx, &entity.Signal{
		CompanyName: "Acme Ltd",
		Headline:    "CH ALERT: New Debt/Debenture registration",
	}, DedupByHeadlineAndCompany)
	require.NoError(t, err)
	assert.True(t, created)

	// Same headline for the same company is a repeat.
	created, err = repo.SaveIfNew(ctx, &entity.Signal{
		CompanyName: "Acme Ltd",
		Headline:    "CH ALERT: New Debt/Debenture registration",
	}, DedupByHeadlineAndCompany)
	require.NoError(t, err)
	assert.False(t, created)

	// Same headline for another company is a distinct signal.
	created, err = repo.SaveIfNew(ctx, &entity.Signal{
		CompanyName: "Other Ltd",
		Headline:    "CH ALERT: New Debt/Debenture registration",
	}, DedupByHeadlineAndCompany)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestSaveIfNew_AppliesDefaults(t *testing.T) {
	db := newTestDB(t)
	repo := NewSignalRepository(db)
	ctx := context.Background()

	signal := &entity.Signal{
		CompanyName: "Acme Ltd",
		Headline:    "Bare minimum payload",
		SourceLink:  "https://news.example.com/bare",
	}
	created, err := repo.SaveIfNew(ctx, signal, DedupByLink)
	require.NoError(t, err)
	require.True(t, created)

	var stored entity.Signal
	require.NoError(t, db.First(&stored, signal.ID).Error)
	assert.Equal(t, entity.DefaultSignalType, stored.SignalType)
	assert.Equal(t, entity.DefaultSourceFamily, stored.SourceFamily)
	assert.Equal(t, entity.DefaultConvictionScore, stored.ConvictionScore)
	assert.Equal(t, entity.ReviewStatusNone, stored.ReviewStatus)
	assert.False(t, stored.IngestedAt.IsZero())
}

func TestSaveIfNew_RejectsMissingCompanyName(t *testing.T) {
	repo := NewSignalRepository(newTestDB(t))

	created, err := repo.SaveIfNew(context.Background(), &entity.Signal{
		Headline:   "Orphan headline",
		SourceLink: "https://news.example.com/orphan",
	}, DedupByLink)
	require.Error(t, err)
	assert.False(t, created)
}

func TestCreateInBatches(t *testing.T) {
	db := newTestDB(t)
	repo := NewSignalRepository(db)

	signals := make([]entity.Signal, 0, 450)
	for i := 0; i < 450; i++ {
		signals = append(signals, entity.Signal{
			CompanyName: "Bulk Ltd",
			Headline:    "Historical deal",
		})
	}
	imported, err := repo.CreateInBatches(context.Background(), signals)
	require.NoError(t, err)
	assert.Equal(t, 450, imported)

	var count int64
	require.NoError(t, db.Model(&entity.Signal{}).Count(&count).Error)
	assert.EqualValues(t, 450, count)
}

func TestFindTopSince(t *testing.T) {
	db := newTestDB(t)
	repo := NewSignalRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	seed := []entity.Signal{
		{CompanyName: "Old Ltd", Headline: "old", ConvictionScore: 95, IngestedAt: now.Add(-48 * time.Hour)},
		{CompanyName: "Low Ltd", Headline: "low", ConvictionScore: 60, IngestedAt: now.Add(-1 * time.Hour)},
		{CompanyName: "High Ltd", Headline: "high", ConvictionScore: 90, IngestedAt: now.Add(-2 * time.Hour)},
		{CompanyName: "Tie Ltd", Headline: "tie", ConvictionScore: 90, IngestedAt: now.Add(-1 * time.Hour)},
	}
	for i := range seed {
		require.NoError(t, db.Create(&seed[i]).Error)
	}

	top, err := repo.FindTopSince(ctx, now.Add(-24*time.Hour), 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	// Conviction first, recency breaks the tie. The 48h-old record is outside
	// the window regardless of its score.
	assert.Equal(t, "Tie Ltd", top[0].CompanyName)
	assert.Equal(t, "High Ltd", top[1].CompanyName)
}

func TestUpdateReviewStatus(t *testing.T) {
	db := newTestDB(t)
	repo := NewSignalRepository(db)
	ctx := context.Background()

	signal := entity.Signal{CompanyName: "Acme Ltd", Headline: "review me"}
	require.NoError(t, db.Create(&signal).Error)

	require.NoError(t, repo.UpdateReviewStatus(ctx, signal.ID, entity.ReviewStatusWatchlist))

	var stored entity.Signal
	require.NoError(t, db.First(&stored, signal.ID).Error)
	assert.Equal(t, entity.ReviewStatusWatchlist, stored.ReviewStatus)
	require.NotNil(t, stored.ReviewedAt)

	err := repo.UpdateReviewStatus(ctx, 99999, entity.ReviewStatusIgnored)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
