package linkedin

// All knowledge of the rendered markup lives in this package. The scroll
// controller and aggregator only ever see selectors and extracted records,
// so markup changes are contained here.

// PostSelector matches one rendered post element in the activity feed.
const PostSelector = "div.feed-shared-update-v2, div[data-urn*='activity']"

// FeedReadySelector matches any element that signals the feed page finished
// its initial render, including the provider's empty-state placeholder.
const FeedReadySelector = "div.feed-shared-update-v2, .artdeco-empty-state, .org-page-navigation-module__links"

// EmptyStateSelector marks a profile with no visible posts (or a private
// one); the channel yields no content but is not a failure.
const EmptyStateSelector = ".artdeco-empty-state"

// Login form fields.
const (
	LoginEmailSelector    = "#username"
	LoginPasswordSelector = "#password"
	LoginSubmitSelector   = "button[type='submit']"
)

// LoginSuccessSelectors signal an authenticated landing page.
var LoginSuccessSelectors = []string{
	"div.feed-container-theme",
	"main#main-content",
}

// ChallengeSelectors mark an interactive verification page (captcha, 2FA).
var ChallengeSelectors = []string{
	"#captcha-internal",
	"main.app__content .challenge-dialog",
	"input[name='pin']",
}

// ChallengeURLFragments identify challenge pages by address when no known
// marker element is present.
var ChallengeURLFragments = []string{
	"/checkpoint/",
	"/challenge",
}

// LoginRejectedSelectors mark an inline credential error on the login form.
var LoginRejectedSelectors = []string{
	"#error-for-username",
	"#error-for-password",
	"div.form__label--error",
}

// Post sub-element selectors, in preference order. The markup has carried
// two generations of class prefixes (update-components and feed-shared);
// both are probed.
var (
	timestampSelectors = []string{
		"time",
		".update-components-actor__sub-description time",
		".feed-shared-actor__sub-description time",
		".update-components-actor__sub-description",
		".feed-shared-actor__sub-description",
	}

	permalinkSelectors = []string{
		"a[href*='/feed/update/']",
		"a[href*='activity:']",
	}

	textSelectors = []string{
		"span.break-words",
		".feed-shared-text",
		".update-components-text",
		".attributed-text-segment-list__content",
		".feed-shared-update-v2__description-wrapper span",
	}

	authorNameSelectors = []string{
		".update-components-actor__name",
		".feed-shared-actor__name",
		".update-components-actor__title",
	}

	authorLinkSelectors = []string{
		".update-components-actor__name a",
		".feed-shared-actor__name a",
		"a.update-components-actor__meta-link",
		"a.update-components-actor__image",
	}

	authorTitleSelectors = []string{
		".update-components-actor__description",
		".feed-shared-actor__description",
	}

	avatarSelectors = []string{
		".update-components-actor__avatar img",
		".feed-shared-actor__avatar img",
		"img.presence-entity__image",
		"img.EntityPhoto-circle-3",
	}
)

// mediaHost is the CDN prefix content images are served from; anything else
// inside a post (tracking pixels, emoji sprites) is not media.
const mediaHost = "media.licdn.com/dms"

// mediaSkipTerms filter avatars, presence badges and reaction icons out of
// the media set by class/alt keywords.
var mediaSkipTerms = []string{
	"avatar",
	"profile",
	"entity-photo",
	"presence-entity",
	"actor",
	"reactions-icon",
}

// promotedMarkers identify sponsored placeholders that render inside the
// feed but are not posts.
var promotedMarkers = []string{
	"promoted",
	"sponsored",
}
