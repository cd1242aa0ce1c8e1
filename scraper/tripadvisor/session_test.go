package tripadvisor

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/Husse1nBerg/TripadvisorPostmanScraper/models"
	"github.com/Husse1nBerg/TripadvisorPostmanScraper/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const harvestedPageFixture = `<html><head><script>
	window.__WEB_CONTEXT__ = {"sessionId": "D2855F001712C827E756B613E9303C14", "pageLoadUid": "1b4e28ba-2fa1-11d2-883f-0016d3cca427"};
</script></head><body>Fairmont The Queen Elizabeth</body></html>`

func newTestHarvester(visit func(ctx context.Context, url string, settle time.Duration) (string, []models.Cookie, error)) *SessionHarvester {
	h := NewSessionHarvester("https://www.tripadvisor.ca", utils.NewLogger())
	h.visit = visit
	return h
}

func TestHarvestExtractsRealTokens(t *testing.T) {
	h := newTestHarvester(func(ctx context.Context, url string, settle time.Duration) (string, []models.Cookie, error) {
		return harvestedPageFixture, []models.Cookie{{Name: "TASession", Value: "abc"}}, nil
	})

	sc, err := h.Harvest(context.Background(), validQuery())
	require.NoError(t, err)
	require.Equal(t, "D2855F001712C827E756B613E9303C14", sc.SessionID)
	require.Equal(t, "1b4e28ba-2fa1-11d2-883f-0016d3cca427", sc.PageLoadUID)
	require.False(t, sc.Synthesized)
	require.Len(t, sc.Cookies, 1)
}

func TestHarvestSynthesizesMissingTokens(t *testing.T) {
	h := newTestHarvester(func(ctx context.Context, url string, settle time.Duration) (string, []models.Cookie, error) {
		return `<html><body>nothing token-shaped here</body></html>`, nil, nil
	})

	sc, err := h.Harvest(context.Background(), validQuery())
	require.NoError(t, err)
	require.True(t, sc.Synthesized, "fabricated tokens must be flagged as degraded")
	require.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{32}$`), sc.SessionID)

	_, uuidErr := uuid.Parse(sc.PageLoadUID)
	require.NoError(t, uuidErr)
}

func TestHarvestFailsFastOnBlockPage(t *testing.T) {
	h := newTestHarvester(func(ctx context.Context, url string, settle time.Duration) (string, []models.Cookie, error) {
		return `<html><body>We have detected unusual activity from your device.</body></html>`, nil, nil
	})

	_, err := h.Harvest(context.Background(), validQuery())
	require.Error(t, err)

	kind, ok := Kind(err)
	require.True(t, ok)
	require.Equal(t, KindBlocked, kind)
}

func TestHarvestClassifiesTimeout(t *testing.T) {
	h := newTestHarvester(func(ctx context.Context, url string, settle time.Duration) (string, []models.Cookie, error) {
		<-ctx.Done()
		return "", nil, ctx.Err()
	})
	h.timeout = 50 * time.Millisecond

	_, err := h.Harvest(context.Background(), validQuery())
	require.Error(t, err)

	kind, ok := Kind(err)
	require.True(t, ok)
	require.Equal(t, KindTimeout, kind)
}
