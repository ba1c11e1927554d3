package model

import "time"

// Item kinds for the mixed feed union.
const (
	KindPost     = "post"
	KindAd       = "ad"
	KindCarousel = "carousel"
)

// Source pool names, recorded on each post as provenance.
const (
	PoolFollowed    = "followed"
	PoolInterest    = "interest"
	PoolTrending    = "trending"
	PoolFresh       = "fresh"
	PoolViral       = "viral"
	PoolExploration = "exploration"
)

// Post is an organic feed candidate. EngagementScore is derived from the
// raw counters (likes + comments + 2*shares) and never stored.
type Post struct {
	ID         string    `json:"postId"`
	AuthorID   string    `json:"authorId"`
	Content    string    `json:"content,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	Likes      int       `json:"likes"`
	Comments   int       `json:"comments"`
	Shares     int       `json:"shares"`
	CreatedAt  time.Time `json:"createdAt"`
	SourcePool string    `json:"sourcePool,omitempty"`

	EngagementScore float64 `json:"engagementScore"`
	RankingScore    float64 `json:"rankingScore,omitempty"`
}

// EngagementFrom computes the canonical engagement score from raw counters.
// Every pool must use this so the ranker sees comparable magnitudes.
func EngagementFrom(likes, comments, shares int) float64 {
	return float64(likes) + float64(comments) + 2*float64(shares)
}

// Ad is a monetization candidate selected by the auction.
type Ad struct {
	ID               string   `json:"adId"`
	Title            string   `json:"title,omitempty"`
	TargetTags       []string `json:"targetTags,omitempty"`
	BidCPM           float64  `json:"bidCpm"`
	ClickProbability float64  `json:"clickProbability"`
	Budget           float64  `json:"budget"`
	ECPM             float64  `json:"eCPM"`
}

// Carousel types.
const (
	CarouselTrendingCreators     = "trending_creators"
	CarouselSuggestedCommunities = "suggested_communities"
	CarouselSimilarPosts         = "similar_posts"
	CarouselDiscover             = "discover"
)

// CarouselItem is one display card inside a carousel.
type CarouselItem struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	ImageURL string `json:"imageUrl,omitempty"`
	Subtitle string `json:"subtitle,omitempty"`
}

// Carousel is a non-post discovery module injected into the feed.
type Carousel struct {
	Type  string         `json:"carouselType"`
	Title string         `json:"title"`
	Items []CarouselItem `json:"items"`
}

// FeedItem is the tagged union the mixer operates on. Exactly one of
// Post, Ad, Carousel is set, matching Kind.
type FeedItem struct {
	Kind     string    `json:"kind"`
	Post     *Post     `json:"post,omitempty"`
	Ad       *Ad       `json:"ad,omitempty"`
	Carousel *Carousel `json:"carousel,omitempty"`
}

func PostItem(p Post) FeedItem { return FeedItem{Kind: KindPost, Post: &p} }

func AdItem(a Ad) FeedItem { return FeedItem{Kind: KindAd, Ad: &a} }

func CarouselOf(c Carousel) FeedItem { return FeedItem{Kind: KindCarousel, Carousel: &c} }

// Signal types logged by the interaction collector.
const (
	SignalLike    = "like"
	SignalComment = "comment"
	SignalShare   = "share"
	SignalSkip    = "skip"
)

// UserSignal is a read-only behavioral event. DwellTimeMS is zero when
// the client did not report a dwell time.
type UserSignal struct {
	UserID      string    `json:"userId"`
	PostID      string    `json:"postId,omitempty"`
	AuthorID    string    `json:"authorId,omitempty"`
	SignalType  string    `json:"signalType"`
	DwellTimeMS int       `json:"dwellTime,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Profile is the caller's resolved profile. Its absence aborts a run.
type Profile struct {
	UserID        string
	Username      string
	Interests     []string
	FollowCount   int
	FollowerCount int
	ImageURL      string
	IsCreator     bool
}

// Session states inferred from recent signals.
const (
	StateNeutral   = "neutral"
	StateEngaged   = "engaged"
	StateImpatient = "impatient"
)

// Ad aggression levels.
const (
	AggressionNone   = "none"
	AggressionLow    = "low"
	AggressionMedium = "medium"
	AggressionHigh   = "high"
)

// SessionContext is the per-request behavioral state driving ranking
// weights and ad/carousel eligibility. Built fresh every invocation.
type SessionContext struct {
	State            string
	AdAggression     string
	IsPatient        bool
	IsRapidScrolling bool
	IsEngaged        bool
	EngagementStreak bool
	ConsecutiveLikes int
	FollowCount      int
	JustSawAd        bool
	AdFatigue        bool

	// CreatorCounts is the pre-ranking snapshot over the candidate
	// union, distinct from the running counts used by the diversity
	// enforcer later.
	CreatorCounts map[string]int
}
