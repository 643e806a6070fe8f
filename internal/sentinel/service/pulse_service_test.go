package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"golang-deal-sentinel/internal/entity"
	"golang-deal-sentinel/internal/sentinel/config"
	"golang-deal-sentinel/internal/sentinel/repository"
	"golang-deal-sentinel/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	messages []string
	err      error
}

func (f *fakeNotifier) SendMessage(text string) error {
	f.messages = append(f.messages, text)
	return f.err
}

func newPulseTestConfig() *config.Config {
	return &config.Config{Pulse: config.Pulse{TopN: 2, WindowHours: 24}}
}

func TestGeneratePulse(t *testing.T) {
	db := newServiceTestDB(t)
	now := time.Now().UTC()
	seed := []entity.Signal{
		{CompanyName: "High Ltd", Headline: "big deal", ConvictionScore: 92, IngestedAt: now.Add(-time.Hour)},
		{CompanyName: "Mid Ltd", Headline: "mid deal", ConvictionScore: 80, IngestedAt: now.Add(-2 * time.Hour)},
		{CompanyName: "Low Ltd", Headline: "small deal", ConvictionScore: 60, IngestedAt: now.Add(-3 * time.Hour)},
		{CompanyName: "Stale Ltd", Headline: "stale deal", ConvictionScore: 99, IngestedAt: now.Add(-30 * time.Hour)},
	}
	for i := range seed {
		require.NoError(t, db.Create(&seed[i]).Error)
	}

	notifier := &fakeNotifier{}
	svc := NewPulseService(newPulseTestConfig(), logger.NewNop(),
		repository.NewSignalRepository(db), repository.NewPulseRepository(db), notifier)

	pulse, err := svc.GeneratePulse(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, pulse.SignalCount)
	assert.Equal(t, now.Format("2006-01-02"), pulse.PulseDate)

	var items []entity.Signal
	require.NoError(t, json.Unmarshal(pulse.Items, &items))
	require.Len(t, items, 2)
	assert.Equal(t, "High Ltd", items[0].CompanyName)
	assert.Equal(t, "Mid Ltd", items[1].CompanyName)

	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "High Ltd")
	assert.Contains(t, notifier.messages[0], "Morning Pulse")

	latest, err := svc.GetLatestPulse(context.Background())
	require.NoError(t, err)
	assert.Equal(t, pulse.ID, latest.ID)
}

func TestGeneratePulse_NotifierFailureIsNotFatal(t *testing.T) {
	db := newServiceTestDB(t)
	notifier := &fakeNotifier{err: assert.AnError}
	svc := NewPulseService(newPulseTestConfig(), logger.NewNop(),
		repository.NewSignalRepository(db), repository.NewPulseRepository(db), notifier)

	pulse, err := svc.GeneratePulse(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, pulse.SignalCount)
}

func TestGeneratePulse_NoNotifierConfigured(t *testing.T) {
	db := newServiceTestDB(t)
	svc := NewPulseService(newPulseTestConfig(), logger.NewNop(),
		repository.NewSignalRepository(db), repository.NewPulseRepository(db), nil)

	_, err := svc.GeneratePulse(context.Background())
	require.NoError(t, err)
}
