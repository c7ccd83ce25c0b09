package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// ID is a backend identifier. The backend is inconsistent about sending ids as
// JSON numbers or strings, so both decode to the same value.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s", data)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// Timestamp accepts the handful of date layouts the backend emits
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil || raw == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", raw)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}

// User is the identity snapshot returned by /me/ and login
type User struct {
	ID             ID        `json:"id"`
	Username       string    `json:"username"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	ProfilePicture string    `json:"profile_picture,omitempty"`
	IsActive       bool      `json:"is_active"`
	DateJoined     Timestamp `json:"date_joined"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

// SignupResponse is the created-account payload. Raw keeps the full body since
// the backend's shape is not fixed.
type SignupResponse struct {
	Message string          `json:"message"`
	User    *User           `json:"user,omitempty"`
	Raw     json.RawMessage `json:"-"`
}

// Upload is a file attached to a multipart request
type Upload struct {
	FileName string
	Data     io.Reader
}

// SignupRequest represents the multipart signup form
type SignupRequest struct {
	Username       string
	Name           string
	Email          string
	Password       string
	ProfilePicture *Upload
}

// ArticleRequest represents the multipart create/update form
type ArticleRequest struct {
	Title   string
	Content string
	TagIDs  []string
	Image   *Upload
}

// Tag is a post tag. The detail endpoint sends bare names while the edit
// endpoint sends objects, so both decode here.
type Tag struct {
	ID   ID     `json:"tag_id"`
	Name string `json:"name"`
}

func (t *Tag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &t.Name)
	}
	if len(data) > 0 && data[0] != '{' {
		return t.ID.UnmarshalJSON(data)
	}
	type plain Tag
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*t = Tag(p)
	return nil
}

// Label returns the tag name, falling back to its id
func (t Tag) Label() string {
	if t.Name != "" {
		return t.Name
	}
	return t.ID.String()
}

// BlogSummary is a post as it appears in lists
type BlogSummary struct {
	PostID    ID        `json:"post_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content,omitempty"`
	ImageURL  string    `json:"image_url,omitempty"`
	Likes     int       `json:"likes"`
	Comments  int       `json:"comments"`
	CreatedAt Timestamp `json:"created_at"`
	UpdatedAt Timestamp `json:"updated_at"`
}

// Like records one user's like on a post
type Like struct {
	User     string `json:"user"`
	Username string `json:"username"`
}

// Comment is a single comment on a post
type Comment struct {
	CommentID ID     `json:"comment_id"`
	User      string `json:"user"`
	Username  string `json:"username"`
	Text      string `json:"text"`
}

// OwnedBy reports whether the comment was written by the user with this email
func (c Comment) OwnedBy(email string) bool {
	return email != "" && strings.EqualFold(c.User, email)
}

// BlogDetail is a full post with likes and comments
type BlogDetail struct {
	PostID       ID        `json:"post_id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	ImageURL     string    `json:"image_url,omitempty"`
	User         string    `json:"user"`
	Username     string    `json:"username"`
	Tags         []Tag     `json:"tags"`
	Likes        []Like    `json:"likes"`
	CommentCount int       `json:"commentCount"`
	Comments     []Comment `json:"comments"`
	CreatedAt    Timestamp `json:"created_at"`
}

// LikedBy reports whether the user with this email has liked the post
func (b *BlogDetail) LikedBy(email string) bool {
	if email == "" {
		return false
	}
	for _, like := range b.Likes {
		if strings.EqualFold(like.User, email) {
			return true
		}
	}
	return false
}

// TagIDs returns the ids of the post's tags, skipping name-only tags
func (b *BlogDetail) TagIDs() []string {
	ids := make([]string, 0, len(b.Tags))
	for _, tag := range b.Tags {
		if tag.ID != "" {
			ids = append(ids, tag.ID.String())
		}
	}
	return ids
}

// UserStats is an author entry in the top-users dashboard
type UserStats struct {
	UserID         ID     `json:"user_id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profile_picture,omitempty"`
	TotalLikes     int    `json:"total_likes"`
	PostsCount     int    `json:"posts_count"`
}
