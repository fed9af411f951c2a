package scraper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liscraper/pkg/linkedin"
	"liscraper/pkg/logger"
	"liscraper/pkg/ratelimit"
)

func newController(page *fakePage) *scrollController {
	return &scrollController{
		driver:  page,
		limiter: ratelimit.NewTokenBucket(10000, time.Minute),
		log:     logger.GetLogger(),
		settle:  0,
		plateau: 3,
		sleep:   func(time.Duration) {},
	}
}

// harvestCounter counts distinct rendered elements without extraction.
func harvestCounter(page *fakePage) (harvestFunc, *map[string]bool) {
	seen := make(map[string]bool)
	return func() (int, error) {
		htmls, err := page.QueryOuterHTML(linkedin.PostSelector)
		if err != nil {
			return len(seen), err
		}
		for _, h := range htmls {
			seen[h] = true
		}
		return len(seen), nil
	}, &seen
}

func TestScrollStopsAtPlateau(t *testing.T) {
	page := newFakePage()
	page.pages["feed"] = [][]string{
		{postHTML("1", "a", "1h")},
		{postHTML("2", "b", "2h")},
		// Nothing more loads after the second batch.
	}
	require.NoError(t, page.Navigate("feed"))

	harvest, _ := harvestCounter(page)
	sc := newController(page)

	progress, err := sc.run(linkedin.PostSelector, 20, 1000, harvest)
	require.NoError(t, err)

	// One productive scroll, then three unproductive ones trip the plateau.
	assert.Equal(t, 4, progress.Iterations)
	assert.Equal(t, 3, progress.NoNewContent)
	assert.Equal(t, 2, progress.Distinct)
	assert.Less(t, progress.Iterations, 20, "must terminate before the scroll budget")
}

func TestScrollPlateauResetsOnNewContent(t *testing.T) {
	page := newFakePage()
	// Batches alternate: content, empty, content. A single unproductive
	// scroll must not end the channel.
	page.pages["feed"] = [][]string{
		{postHTML("1", "a", "1h")},
		{},
		{postHTML("2", "b", "2h")},
		{postHTML("3", "c", "3h")},
	}
	require.NoError(t, page.Navigate("feed"))

	harvest, _ := harvestCounter(page)
	sc := newController(page)

	progress, err := sc.run(linkedin.PostSelector, 20, 1000, harvest)
	require.NoError(t, err)

	assert.Equal(t, 3, progress.Distinct, "posts after a gap must still be collected")
}

func TestScrollStopsAtBudget(t *testing.T) {
	page := newFakePage()
	// Every scroll keeps producing; only the budget can stop it.
	var batches [][]string
	for i := 0; i < 50; i++ {
		batches = append(batches, []string{postHTML(string(rune('a'+i%26))+string(rune('0'+i/26)), "x", "1h")})
	}
	page.pages["feed"] = batches
	require.NoError(t, page.Navigate("feed"))

	harvest, _ := harvestCounter(page)
	sc := newController(page)

	progress, err := sc.run(linkedin.PostSelector, 5, 1000, harvest)
	require.NoError(t, err)
	assert.Equal(t, 5, progress.Iterations)
}

func TestScrollStopsAtCap(t *testing.T) {
	page := newFakePage()
	page.pages["feed"] = [][]string{
		{postHTML("1", "a", "1h"), postHTML("2", "b", "1h")},
		{postHTML("3", "c", "1h"), postHTML("4", "d", "1h")},
		{postHTML("5", "e", "1h"), postHTML("6", "f", "1h")},
	}
	require.NoError(t, page.Navigate("feed"))

	harvest, _ := harvestCounter(page)
	sc := newController(page)

	progress, err := sc.run(linkedin.PostSelector, 20, 3, harvest)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, progress.Distinct, 3)
	assert.LessOrEqual(t, progress.Iterations, 1, "cap must stop pagination early")
}

func TestScrollCapSatisfiedByInitialRender(t *testing.T) {
	page := newFakePage()
	page.pages["feed"] = [][]string{
		{postHTML("1", "a", "1h"), postHTML("2", "b", "1h"), postHTML("3", "c", "1h")},
	}
	require.NoError(t, page.Navigate("feed"))

	harvest, _ := harvestCounter(page)
	sc := newController(page)

	progress, err := sc.run(linkedin.PostSelector, 20, 2, harvest)
	require.NoError(t, err)
	assert.Equal(t, 0, progress.Iterations, "no scrolling when the initial render satisfies the cap")
	assert.Equal(t, 0, page.scrolls)
}

func TestScrollReportsProgress(t *testing.T) {
	page := newFakePage()
	page.pages["feed"] = [][]string{
		{postHTML("1", "a", "1h")},
		{postHTML("2", "b", "2h")},
	}
	require.NoError(t, page.Navigate("feed"))

	var updates []int
	harvest, _ := harvestCounter(page)
	sc := newController(page)
	sc.onUpdate = func(iteration, distinct int) {
		updates = append(updates, distinct)
	}

	_, err := sc.run(linkedin.PostSelector, 20, 1000, harvest)
	require.NoError(t, err)
	require.NotEmpty(t, updates)
	assert.Equal(t, 2, updates[len(updates)-1])
}
