package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axellelanca/qrforge/internal/content"
	"github.com/axellelanca/qrforge/internal/models"
)

func createDynamicURLCode(t *testing.T, svc *CodeService, target string) *models.ScannableCode {
	t.Helper()
	code, err := svc.CreateCode(CreateRequest{
		Kind:    content.KindURL,
		Mode:    models.ModeDynamic,
		Payload: rawJSON(t, content.URLPayload{URL: target}),
		Owner:   "alice",
	})
	require.NoError(t, err)
	return code
}

func TestResolveNotFound(t *testing.T) {
	_, resolver, _ := setupService(t)

	res, err := resolver.Resolve("nothere1", time.Now())
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotFound, res.Outcome)
	assert.Nil(t, res.Payload)
}

func TestResolveInactive(t *testing.T) {
	svc, resolver, repo := setupService(t)

	code := createDynamicURLCode(t, svc, "https://example.com")
	code.Status = models.StatusInactive
	require.NoError(t, repo.UpdateCode(code))

	res, err := resolver.Resolve(*code.ShortCode, time.Now())
	require.NoError(t, err)
	assert.Equal(t, OutcomeInactive, res.Outcome)

	// Rejected resolutions never touch the counter.
	reloaded, err := repo.GetCodeByID(code.ID)
	require.NoError(t, err)
	assert.Zero(t, reloaded.ScanCount)
}

func TestResolveExpired(t *testing.T) {
	svc, resolver, repo := setupService(t)

	code := createDynamicURLCode(t, svc, "https://example.com")
	past := time.Now().Add(-time.Hour)
	code.ExpiresAt = &past
	require.NoError(t, repo.UpdateCode(code))

	res, err := resolver.Resolve(*code.ShortCode, time.Now())
	require.NoError(t, err)
	assert.Equal(t, OutcomeExpired, res.Outcome)
}

func TestResolveFutureExpiryStillActive(t *testing.T) {
	svc, resolver, repo := setupService(t)

	code := createDynamicURLCode(t, svc, "https://example.com")
	future := time.Now().Add(time.Hour)
	code.ExpiresAt = &future
	require.NoError(t, repo.UpdateCode(code))

	res, err := resolver.Resolve(*code.ShortCode, time.Now())
	require.NoError(t, err)
	assert.Equal(t, OutcomeResolved, res.Outcome)
}

func TestResolveReturnsLivePayload(t *testing.T) {
	svc, resolver, _ := setupService(t)

	code := createDynamicURLCode(t, svc, "https://example.com/before")
	_, err := svc.UpdateDestination(*code.ShortCode, "alice", rawJSON(t, content.URLPayload{URL: "https://example.com/after"}))
	require.NoError(t, err)

	// The resolved payload is the edited one, not a frozen copy.
	res, err := resolver.Resolve(*code.ShortCode, time.Now())
	require.NoError(t, err)
	require.Equal(t, OutcomeResolved, res.Outcome)
	assert.Equal(t, content.URLPayload{URL: "https://example.com/after"}, res.Payload)
}

func TestResolveMultiDestinationFiltersLinks(t *testing.T) {
	svc, resolver, _ := setupService(t)

	future := time.Now().Add(time.Hour)
	inactive := false
	code, err := svc.CreateCode(CreateRequest{
		Kind: content.KindMultiDestination,
		Payload: rawJSON(t, content.MultiDestinationPayload{
			Title: "Links",
			Links: []content.LinkEntry{
				{ID: "a", Title: "Visible", TargetURL: "https://example.com/a"},
				{ID: "b", Title: "Scheduled", TargetURL: "https://example.com/b", ScheduledStart: &future},
				{ID: "c", Title: "Switched off", TargetURL: "https://example.com/c", IsActive: &inactive},
			},
		}),
	})
	require.NoError(t, err)

	res, err := resolver.Resolve(*code.ShortCode, time.Now())
	require.NoError(t, err)
	require.Equal(t, OutcomeResolved, res.Outcome)
	require.Len(t, res.ActiveLinks, 1)
	assert.Equal(t, "a", res.ActiveLinks[0].ID)
}

func TestSessionID(t *testing.T) {
	day := time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC)
	sameDayLater := time.Date(2026, 9, 1, 23, 59, 0, 0, time.UTC)
	nextDay := time.Date(2026, 9, 2, 0, 1, 0, 0, time.UTC)

	first := SessionID("203.0.113.9", "Mozilla/5.0", day)
	assert.Equal(t, first, SessionID("203.0.113.9", "Mozilla/5.0", sameDayLater), "same fingerprint, same day")
	assert.NotEqual(t, first, SessionID("203.0.113.9", "Mozilla/5.0", nextDay), "same fingerprint, next day")
	assert.NotEqual(t, first, SessionID("203.0.113.77", "Mozilla/5.0", day), "different client")
	assert.NotEqual(t, first, SessionID("203.0.113.9", "curl/8.0", day), "different agent")

	// Digest output only, never raw fingerprint material.
	assert.Len(t, first, 64)
	assert.NotContains(t, first, "203.0.113.9")
}

func TestRecordScanIncrementsAndAppends(t *testing.T) {
	svc, resolver, repo := setupService(t)

	code := createDynamicURLCode(t, svc, "https://example.com")
	now := time.Now()

	require.NoError(t, resolver.RecordScan(models.ScanEventMsg{
		CodeID:    code.ID,
		Timestamp: now,
		UserAgent: "Mozilla/5.0",
		IPAddress: "203.0.113.9",
	}))

	reloaded, err := repo.GetCodeByID(code.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reloaded.ScanCount)
	require.NotNil(t, reloaded.LastScannedAt)
}

func TestRecordScanConcurrent(t *testing.T) {
	svc, resolver, repo := setupService(t)

	code := createDynamicURLCode(t, svc, "https://example.com")

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- resolver.RecordScan(models.ScanEventMsg{
				CodeID:    code.ID,
				Timestamp: time.Now(),
				UserAgent: "Mozilla/5.0",
				IPAddress: "203.0.113.9",
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// No lost updates: exactly n increments.
	reloaded, err := repo.GetCodeByID(code.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(n), reloaded.ScanCount)
}

func TestRecordScanUnknownCode(t *testing.T) {
	_, resolver, _ := setupService(t)

	err := resolver.RecordScan(models.ScanEventMsg{
		CodeID:    9999,
		Timestamp: time.Now(),
	})
	require.Error(t, err)
}

func TestRecordLinkClick(t *testing.T) {
	svc, resolver, repo := setupService(t)

	code, err := svc.CreateCode(CreateRequest{
		Kind: content.KindMultiDestination,
		Payload: rawJSON(t, content.MultiDestinationPayload{
			Title: "Links",
			Links: []content.LinkEntry{
				{ID: "a", Title: "Site", TargetURL: "https://example.com/a"},
				{ID: "b", Title: "Shop", TargetURL: "https://example.com/b"},
			},
		}),
	})
	require.NoError(t, err)

	require.NoError(t, resolver.RecordLinkClick(*code.ShortCode, "b", models.ScanEventMsg{
		Timestamp: time.Now(),
		UserAgent: "Mozilla/5.0",
		IPAddress: "203.0.113.9",
	}))

	reloaded, err := repo.GetCodeByID(code.ID)
	require.NoError(t, err)
	payload, err := reloaded.Payload()
	require.NoError(t, err)
	page := payload.(content.MultiDestinationPayload)
	assert.Equal(t, int64(0), page.Links[0].ClickCount)
	assert.Equal(t, int64(1), page.Links[1].ClickCount)

	// Link clicks are plain events: the scan counter stays put.
	assert.Zero(t, reloaded.ScanCount)
}

func TestRecordLinkClickUnknownLink(t *testing.T) {
	svc, resolver, _ := setupService(t)

	code, err := svc.CreateCode(CreateRequest{
		Kind: content.KindMultiDestination,
		Payload: rawJSON(t, content.MultiDestinationPayload{
			Title: "Links",
			Links: []content.LinkEntry{{ID: "a", Title: "Site", TargetURL: "https://example.com/a"}},
		}),
	})
	require.NoError(t, err)

	err = resolver.RecordLinkClick(*code.ShortCode, "zzz", models.ScanEventMsg{Timestamp: time.Now()})
	require.Error(t, err)
}
