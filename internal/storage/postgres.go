package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pulsefeed/internal/model"

	"github.com/lib/pq"
)

// PostgresStore is the document store behind candidate pools, profile
// resolution, signal reads, and the ad inventory.
type PostgresStore struct {
	Conn *sql.DB
}

func NewPostgresStore(conn *sql.DB) *PostgresStore {
	return &PostgresStore{Conn: conn}
}

const postColumns = "id, author_id, content, tags, likes, comments, shares, created_at"

func scanPosts(rows *sql.Rows) ([]model.Post, error) {
	defer rows.Close()
	var out []model.Post
	for rows.Next() {
		var p model.Post
		var tags pq.StringArray
		if err := rows.Scan(&p.ID, &p.AuthorID, &p.Content, &tags, &p.Likes, &p.Comments, &p.Shares, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Tags = []string(tags)
		p.EngagementScore = model.EngagementFrom(p.Likes, p.Comments, p.Shares)
		out = append(out, p)
	}
	return out, rows.Err()
}

// postTypeClause appends an equality filter when the caller restricts the
// feed to a single post type. args grows by one when used.
func postTypeClause(postType string, args []any) (string, []any) {
	if postType == "" || postType == "all" {
		return "", args
	}
	args = append(args, postType)
	return fmt.Sprintf(" AND post_type = $%d", len(args)), args
}

// Profile resolves the caller's profile. A missing row is an error: the
// pipeline cannot run without it.
func (s *PostgresStore) Profile(ctx context.Context, userID string) (*model.Profile, error) {
	query := `
		SELECT user_id, username, interests, following_count, follower_count, COALESCE(image_url, ''), is_creator
		FROM profiles
		WHERE user_id = $1
	`
	var p model.Profile
	var interests pq.StringArray
	err := s.Conn.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID, &p.Username, &interests, &p.FollowCount, &p.FollowerCount, &p.ImageURL, &p.IsCreator)
	if err != nil {
		return nil, err
	}
	p.Interests = []string(interests)
	return &p, nil
}

// FollowedIDs returns the users the caller follows, bounded.
func (s *PostgresStore) FollowedIDs(ctx context.Context, userID string, limit int) ([]string, error) {
	rows, err := s.Conn.QueryContext(ctx, `
		SELECT following_id FROM follows
		WHERE follower_id = $1
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// PostsByAuthors returns recent posts from the given authors.
func (s *PostgresStore) PostsByAuthors(ctx context.Context, authorIDs []string, postType string, limit int) ([]model.Post, error) {
	args := []any{pq.Array(authorIDs)}
	clause, args := postTypeClause(postType, args)
	args = append(args, limit)
	rows, err := s.Conn.QueryContext(ctx, `
		SELECT `+postColumns+` FROM posts
		WHERE author_id = ANY($1)`+clause+`
		ORDER BY created_at DESC
		LIMIT $`+fmt.Sprint(len(args)), args...)
	if err != nil {
		return nil, err
	}
	return scanPosts(rows)
}

// PostsByTags returns recent posts whose tags intersect the given set.
func (s *PostgresStore) PostsByTags(ctx context.Context, tags []string, postType string, limit int) ([]model.Post, error) {
	args := []any{pq.Array(tags)}
	clause, args := postTypeClause(postType, args)
	args = append(args, limit)
	rows, err := s.Conn.QueryContext(ctx, `
		SELECT `+postColumns+` FROM posts
		WHERE tags && $1`+clause+`
		ORDER BY created_at DESC
		LIMIT $`+fmt.Sprint(len(args)), args...)
	if err != nil {
		return nil, err
	}
	return scanPosts(rows)
}

// PostsSince returns posts created after the given time, newest first.
func (s *PostgresStore) PostsSince(ctx context.Context, since time.Time, postType string, limit int) ([]model.Post, error) {
	args := []any{since}
	clause, args := postTypeClause(postType, args)
	args = append(args, limit)
	rows, err := s.Conn.QueryContext(ctx, `
		SELECT `+postColumns+` FROM posts
		WHERE created_at > $1`+clause+`
		ORDER BY created_at DESC
		LIMIT $`+fmt.Sprint(len(args)), args...)
	if err != nil {
		return nil, err
	}
	return scanPosts(rows)
}

// RecentPosts returns the newest posts regardless of age.
func (s *PostgresStore) RecentPosts(ctx context.Context, postType string, limit int) ([]model.Post, error) {
	var args []any
	clause, args := postTypeClause(postType, args)
	where := "TRUE"
	args = append(args, limit)
	rows, err := s.Conn.QueryContext(ctx, `
		SELECT `+postColumns+` FROM posts
		WHERE `+where+clause+`
		ORDER BY created_at DESC
		LIMIT $`+fmt.Sprint(len(args)), args...)
	if err != nil {
		return nil, err
	}
	return scanPosts(rows)
}

// ViralPosts returns posts flagged viral, recency as the tiebreak.
func (s *PostgresStore) ViralPosts(ctx context.Context, postType string, limit int) ([]model.Post, error) {
	var args []any
	clause, args := postTypeClause(postType, args)
	args = append(args, limit)
	rows, err := s.Conn.QueryContext(ctx, `
		SELECT `+postColumns+` FROM posts
		WHERE is_viral`+clause+`
		ORDER BY created_at DESC
		LIMIT $`+fmt.Sprint(len(args)), args...)
	if err != nil {
		return nil, err
	}
	return scanPosts(rows)
}

// TrendingPostIDs aggregates like signals since the given time and
// returns post IDs ordered most-liked first. Used by the trending pool.
func (s *PostgresStore) TrendingPostIDs(ctx context.Context, since time.Time, limit int) ([]string, error) {
	rows, err := s.Conn.QueryContext(ctx, `
		SELECT post_id
		FROM user_signals
		WHERE signal_type = 'like' AND created_at > $1 AND post_id <> ''
		GROUP BY post_id
		ORDER BY COUNT(*) DESC
		LIMIT $2
	`, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// PostsByIDs fetches the given posts; order is not preserved.
func (s *PostgresStore) PostsByIDs(ctx context.Context, ids []string, postType string) ([]model.Post, error) {
	args := []any{pq.Array(ids)}
	clause, args := postTypeClause(postType, args)
	rows, err := s.Conn.QueryContext(ctx, `
		SELECT `+postColumns+` FROM posts
		WHERE id = ANY($1)`+clause, args...)
	if err != nil {
		return nil, err
	}
	return scanPosts(rows)
}

// RecentSignals returns the caller's most recent signals, newest first.
func (s *PostgresStore) RecentSignals(ctx context.Context, userID string, limit int) ([]model.UserSignal, error) {
	rows, err := s.Conn.QueryContext(ctx, `
		SELECT user_id, COALESCE(post_id, ''), COALESCE(author_id, ''), signal_type, COALESCE(dwell_time_ms, 0), created_at
		FROM user_signals
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.UserSignal
	for rows.Next() {
		var sig model.UserSignal
		if err := rows.Scan(&sig.UserID, &sig.PostID, &sig.AuthorID, &sig.SignalType, &sig.DwellTimeMS, &sig.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}

// RecentSkips returns the caller's most recent skip signals, newest first.
func (s *PostgresStore) RecentSkips(ctx context.Context, userID string, limit int) ([]model.UserSignal, error) {
	rows, err := s.Conn.QueryContext(ctx, `
		SELECT user_id, COALESCE(post_id, ''), COALESCE(author_id, ''), signal_type, COALESCE(dwell_time_ms, 0), created_at
		FROM user_signals
		WHERE user_id = $1 AND signal_type = 'skip'
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.UserSignal
	for rows.Next() {
		var sig model.UserSignal
		if err := rows.Scan(&sig.UserID, &sig.PostID, &sig.AuthorID, &sig.SignalType, &sig.DwellTimeMS, &sig.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}

// AffinityCounts aggregates the caller's interactions with one author
// since the given time, by signal type.
func (s *PostgresStore) AffinityCounts(ctx context.Context, userID, authorID string, since time.Time) (likes, comments, shares int, err error) {
	err = s.Conn.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE signal_type = 'like'),
			COUNT(*) FILTER (WHERE signal_type = 'comment'),
			COUNT(*) FILTER (WHERE signal_type = 'share')
		FROM user_signals
		WHERE user_id = $1 AND author_id = $2 AND created_at > $3
	`, userID, authorID, since).Scan(&likes, &comments, &shares)
	return likes, comments, shares, err
}

// QuickSkippedPostIDs returns posts the caller skipped with a dwell time
// below the threshold since the given time.
func (s *PostgresStore) QuickSkippedPostIDs(ctx context.Context, userID string, since time.Time, dwellBelowMS, limit int) ([]string, error) {
	rows, err := s.Conn.QueryContext(ctx, `
		SELECT post_id FROM user_signals
		WHERE user_id = $1 AND signal_type = 'skip'
		  AND dwell_time_ms > 0 AND dwell_time_ms < $2
		  AND created_at > $3 AND post_id <> ''
		LIMIT $4
	`, userID, dwellBelowMS, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ActiveAds returns active ads with remaining budget, over-fetched for
// the auction. Budget accounting lives with the spend ledger, not here.
func (s *PostgresStore) ActiveAds(ctx context.Context, limit int) ([]model.Ad, error) {
	rows, err := s.Conn.QueryContext(ctx, `
		SELECT id, COALESCE(title, ''), target_tags, bid_cpm, click_probability, budget
		FROM ads
		WHERE is_active AND budget > 0
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Ad
	for rows.Next() {
		var a model.Ad
		var tags pq.StringArray
		if err := rows.Scan(&a.ID, &a.Title, &tags, &a.BidCPM, &a.ClickProbability, &a.Budget); err != nil {
			return nil, err
		}
		a.TargetTags = []string(tags)
		out = append(out, a)
	}
	return out, rows.Err()
}

// TopCreators returns creator profiles by follower count, for the
// trending-creators carousel.
func (s *PostgresStore) TopCreators(ctx context.Context, limit int) ([]model.Profile, error) {
	rows, err := s.Conn.QueryContext(ctx, `
		SELECT user_id, username, interests, following_count, follower_count, COALESCE(image_url, ''), is_creator
		FROM profiles
		WHERE is_creator
		ORDER BY follower_count DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Profile
	for rows.Next() {
		var p model.Profile
		var interests pq.StringArray
		if err := rows.Scan(&p.UserID, &p.Username, &interests, &p.FollowCount, &p.FollowerCount, &p.ImageURL, &p.IsCreator); err != nil {
			return nil, err
		}
		p.Interests = []string(interests)
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkViralSince flags posts from the trailing window whose canonical
// engagement score crosses the threshold. Returns rows updated.
func (s *PostgresStore) MarkViralSince(ctx context.Context, since time.Time, threshold float64) (int64, error) {
	res, err := s.Conn.ExecContext(ctx, `
		UPDATE posts
		SET is_viral = TRUE
		WHERE created_at > $1 AND NOT is_viral
		  AND (likes + comments + 2 * shares) >= $2
	`, since, threshold)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
