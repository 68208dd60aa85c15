package domain

import "time"

// Post is a social-media post whose comments are enriched. Posts are owned by
// the ingestion collaborator; this service only reads them.
type Post struct {
	ID       string    `db:"id"        json:"id"`
	Platform string    `db:"platform"  json:"platform"`
	Caption  string    `db:"caption"   json:"caption"`
	PostedAt time.Time `db:"posted_at" json:"posted_at"`
}

// Comment is a normalized social-media comment. EnrichedAt is the
// processed-since watermark; nil means the comment has never been enriched.
type Comment struct {
	ID         string     `db:"id"          json:"id"`
	PostID     string     `db:"post_id"     json:"post_id"`
	Author     string     `db:"author"      json:"author"`
	Body       string     `db:"body"        json:"body"`
	Likes      int        `db:"likes"       json:"likes"`
	PostedAt   time.Time  `db:"posted_at"   json:"posted_at"`
	EnrichedAt *time.Time `db:"enriched_at" json:"enriched_at,omitempty"`
}

const likesPerWeightPoint = 100

// WeightScore returns the engagement weight for this comment's signals:
// 1 + likes/100, computed once and reused across all of the comment's signals.
func (c *Comment) WeightScore() float64 {
	return 1 + float64(c.Likes)/likesPerWeightPoint
}
