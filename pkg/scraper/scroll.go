package scraper

import (
	"time"

	"liscraper/pkg/browser"
	"liscraper/pkg/logger"
	"liscraper/pkg/ratelimit"
)

// harvestFunc extracts whatever post elements are currently rendered and
// reports how many distinct posts the channel has yielded so far.
// Harvesting is interleaved with scrolling so element snapshots never pile
// up unextracted.
type harvestFunc func() (distinct int, err error)

// ScrollProgress is the per-channel pagination state. It is discarded once
// the channel's extraction completes.
type ScrollProgress struct {
	// Iterations counts scroll actions performed.
	Iterations int
	// NoNewContent counts consecutive iterations with an unchanged
	// element count.
	NoNewContent int
	// Distinct counts distinct posts extracted so far.
	Distinct int
}

// scrollController drives lazy-load pagination on one feed page. Lazy
// feeds have unknown, provider-controlled page sizes and no total-count
// API; a run of iterations with no new elements (a plateau) is the only
// reliable end-of-content signal.
type scrollController struct {
	driver  browser.PageDriver
	limiter ratelimit.Limiter
	log     logger.Logger

	settle  time.Duration
	plateau int

	sleep    func(time.Duration)
	onUpdate func(iteration, distinct int)
}

// run paginates until one of three normal terminations: the scroll budget
// is exhausted, a plateau is detected, or the distinct-post cap is hit.
func (sc *scrollController) run(postSelector string, maxScrolls, maxPosts int, harvest harvestFunc) (ScrollProgress, error) {
	var progress ScrollProgress

	count, err := sc.driver.CountElements(postSelector)
	if err != nil {
		return progress, err
	}

	// Extract whatever rendered before the first scroll; short feeds may
	// already satisfy the cap.
	distinct, err := harvest()
	if err != nil {
		return progress, err
	}
	progress.Distinct = distinct
	if distinct >= maxPosts {
		return progress, nil
	}

	for progress.Iterations < maxScrolls {
		sc.limiter.Wait()
		if err := sc.driver.ScrollToBottom(); err != nil {
			return progress, err
		}
		sc.sleep(sc.settle)
		progress.Iterations++

		newCount, err := sc.driver.CountElements(postSelector)
		if err != nil {
			return progress, err
		}

		distinct, err = harvest()
		if err != nil {
			return progress, err
		}
		progress.Distinct = distinct
		if sc.onUpdate != nil {
			sc.onUpdate(progress.Iterations, distinct)
		}

		if distinct >= maxPosts {
			sc.log.DebugWithFields("post cap reached", map[string]interface{}{
				"distinct": distinct,
			})
			break
		}

		if newCount <= count {
			progress.NoNewContent++
			if progress.NoNewContent >= sc.plateau {
				sc.log.DebugWithFields("content plateau, feed has no more lazily-loaded posts", map[string]interface{}{
					"iterations": progress.Iterations,
					"elements":   newCount,
				})
				break
			}
		} else {
			progress.NoNewContent = 0
		}
		count = newCount
	}

	return progress, nil
}
