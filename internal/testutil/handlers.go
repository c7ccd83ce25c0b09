package testutil

import (
	"net/http"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type textRequest struct {
	Text string `json:"text"`
}

func (b *Backend) userJSON(u *user) gin.H {
	out := gin.H{
		"id":          u.ID,
		"username":    u.Username,
		"name":        u.Name,
		"email":       u.Email,
		"is_active":   true,
		"date_joined": u.DateJoined.Format(time.RFC3339),
	}
	if u.ProfilePicture != "" {
		out["profile_picture"] = u.ProfilePicture
	}
	return out
}

func (b *Backend) summaryJSON(p *post) gin.H {
	return gin.H{
		"post_id":    p.ID,
		"title":      p.Title,
		"content":    p.Content,
		"image_url":  p.ImageURL,
		"likes":      len(p.Likes),
		"comments":   b.commentCount(p.ID),
		"created_at": p.CreatedAt.Format(time.RFC3339),
		"updated_at": p.UpdatedAt.Format(time.RFC3339),
	}
}

func (b *Backend) commentCount(postID int) int {
	n := 0
	for _, c := range b.comments {
		if c.PostID == postID {
			n++
		}
	}
	return n
}

func (b *Backend) summaries(keep func(*post) bool) []gin.H {
	var posts []*post
	for _, p := range b.posts {
		if keep == nil || keep(p) {
			posts = append(posts, p)
		}
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID < posts[j].ID })

	out := make([]gin.H, 0, len(posts))
	for _, p := range posts {
		out = append(out, b.summaryJSON(p))
	}
	return out
}

func (b *Backend) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	u := b.findByEmail(req.Email)
	if u == nil || bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid credentials"})
		return
	}

	token, err := b.issueToken(u)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token, "user": b.userJSON(u)})
}

func (b *Backend) signup(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	name := strings.TrimSpace(c.PostForm("name"))
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")

	if username == "" || email == "" || password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "username, email and password are required"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to create user"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.findByEmail(email) != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
		return
	}

	u := &user{ID: b.id(), Username: username, Name: name, Email: email, PasswordHash: hash, DateJoined: b.tick()}
	if upload, ok := b.receiveFile(c, "profile_picture"); ok {
		u.ProfilePicture = "/media/profiles/" + upload.FileName
	}
	b.users[u.ID] = u

	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully", "user": b.userJSON(u)})
}

// receiveFile records an optional uploaded file; callers hold b.mu
func (b *Backend) receiveFile(c *gin.Context, field string) (Upload, bool) {
	header, err := c.FormFile(field)
	if err != nil {
		return Upload{}, false
	}
	upload := Upload{
		Field:       field,
		FileName:    filepath.Base(header.Filename),
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	}
	b.uploads = append(b.uploads, upload)
	return upload, true
}

func (b *Backend) me(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.meStatus != 0 {
		c.JSON(b.meStatus, gin.H{"detail": "Forced failure"})
		return
	}
	c.JSON(http.StatusOK, b.userJSON(currentUser(c)))
}

func (b *Backend) listTags(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	tags := make([]*tag, 0, len(b.tags))
	for _, t := range b.tags {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].ID < tags[j].ID })

	out := make([]gin.H, 0, len(tags))
	for _, t := range tags {
		out = append(out, gin.H{"tag_id": t.ID, "name": t.Name})
	}
	c.JSON(http.StatusOK, out)
}

func (b *Backend) listPosts(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c.JSON(http.StatusOK, b.summaries(nil))
}

func (b *Backend) topLiked(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.summaries(nil)
	sort.SliceStable(out, func(i, j int) bool { return out[i]["likes"].(int) > out[j]["likes"].(int) })
	c.JSON(http.StatusOK, limit(out, 5))
}

func (b *Backend) mostCommented(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.summaries(nil)
	sort.SliceStable(out, func(i, j int) bool { return out[i]["comments"].(int) > out[j]["comments"].(int) })
	c.JSON(http.StatusOK, limit(out, 5))
}

func limit(items []gin.H, n int) []gin.H {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func (b *Backend) topUsers(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	users := make([]*user, 0, len(b.users))
	for _, u := range b.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })

	out := make([]gin.H, 0, len(users))
	for _, u := range users {
		likes, posts := 0, 0
		for _, p := range b.posts {
			if p.AuthorID == u.ID {
				posts++
				likes += len(p.Likes)
			}
		}
		out = append(out, gin.H{
			"user_id":         u.ID,
			"username":        u.Username,
			"profile_picture": u.ProfilePicture,
			"total_likes":     likes,
			"posts_count":     posts,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (b *Backend) getUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	u, ok := b.users[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "User not found"})
		return
	}
	c.JSON(http.StatusOK, b.userJSON(u))
}

func (b *Backend) userPosts(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.users[id]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "User not found"})
		return
	}
	c.JSON(http.StatusOK, b.summaries(func(p *post) bool { return p.AuthorID == id }))
}

func (b *Backend) getPost(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.posts[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}
	author := b.users[p.AuthorID]

	tags := make([]gin.H, 0, len(p.TagIDs))
	for _, tagID := range p.TagIDs {
		if t, ok := b.tags[tagID]; ok {
			tags = append(tags, gin.H{"tag_id": t.ID, "name": t.Name})
		}
	}

	var likerIDs []int
	for userID := range p.Likes {
		likerIDs = append(likerIDs, userID)
	}
	sort.Ints(likerIDs)
	likes := make([]gin.H, 0, len(likerIDs))
	for _, userID := range likerIDs {
		u := b.users[userID]
		likes = append(likes, gin.H{"user": u.Email, "username": u.Username})
	}

	var commentIDs []int
	for _, cm := range b.comments {
		if cm.PostID == id {
			commentIDs = append(commentIDs, cm.ID)
		}
	}
	sort.Ints(commentIDs)
	comments := make([]gin.H, 0, len(commentIDs))
	for _, commentID := range commentIDs {
		cm := b.comments[commentID]
		u := b.users[cm.AuthorID]
		comments = append(comments, gin.H{"comment_id": cm.ID, "user": u.Email, "username": u.Username, "text": cm.Text})
	}

	c.JSON(http.StatusOK, gin.H{
		"post_id":      p.ID,
		"title":        p.Title,
		"content":      p.Content,
		"image_url":    p.ImageURL,
		"user":         author.Email,
		"username":     author.Username,
		"tags":         tags,
		"likes":        likes,
		"commentCount": len(comments),
		"comments":     comments,
		"created_at":   p.CreatedAt.Format(time.RFC3339),
	})
}

func (b *Backend) parseTagIDs(c *gin.Context) ([]int, bool) {
	var ids []int
	for _, raw := range c.PostFormArray("tags") {
		id, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"tags": []string{"Invalid pk \"" + raw + "\" - object does not exist."}})
			return nil, false
		}
		if _, ok := b.tags[id]; !ok {
			c.JSON(http.StatusBadRequest, gin.H{"tags": []string{"Invalid pk \"" + raw + "\" - object does not exist."}})
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}

func (b *Backend) createPost(c *gin.Context) {
	title := strings.TrimSpace(c.PostForm("title"))
	content := c.PostForm("content")
	if title == "" || strings.TrimSpace(content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "title and content are required"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	tagIDs, ok := b.parseTagIDs(c)
	if !ok {
		return
	}

	now := b.tick()
	p := &post{ID: b.id(), Title: title, Content: content, AuthorID: currentUser(c).ID, TagIDs: tagIDs, Likes: map[int]bool{}, CreatedAt: now, UpdatedAt: now}
	if upload, ok := b.receiveFile(c, "image_url"); ok {
		p.ImageURL = "/media/posts/" + upload.FileName
	}
	b.posts[p.ID] = p

	c.JSON(http.StatusCreated, b.summaryJSON(p))
}

func (b *Backend) updatePost(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.posts[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}
	if p.AuthorID != currentUser(c).ID {
		c.JSON(http.StatusForbidden, gin.H{"detail": "You do not have permission to perform this action."})
		return
	}

	tagIDs, ok := b.parseTagIDs(c)
	if !ok {
		return
	}

	if title := strings.TrimSpace(c.PostForm("title")); title != "" {
		p.Title = title
	}
	if content := c.PostForm("content"); strings.TrimSpace(content) != "" {
		p.Content = content
	}
	p.TagIDs = tagIDs
	if upload, ok := b.receiveFile(c, "image_url"); ok {
		p.ImageURL = "/media/posts/" + upload.FileName
	}
	p.UpdatedAt = b.tick()

	c.JSON(http.StatusOK, b.summaryJSON(p))
}

func (b *Backend) toggleLike(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.posts[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}

	userID := currentUser(c).ID
	liked := !p.Likes[userID]
	if liked {
		p.Likes[userID] = true
	} else {
		delete(p.Likes, userID)
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked, "likes": len(p.Likes)})
}

func (b *Backend) addComment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"text": []string{"This field may not be blank."}})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.posts[id]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}

	u := currentUser(c)
	cm := &comment{ID: b.id(), PostID: id, AuthorID: u.ID, Text: req.Text}
	b.comments[cm.ID] = cm
	c.JSON(http.StatusCreated, gin.H{"comment_id": cm.ID, "user": u.Email, "username": u.Username, "text": cm.Text})
}

// ownComment loads a comment the caller wrote; callers hold b.mu
func (b *Backend) ownComment(c *gin.Context) (*comment, bool) {
	id, ok := pathID(c)
	if !ok {
		return nil, false
	}
	cm, ok := b.comments[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return nil, false
	}
	if cm.AuthorID != currentUser(c).ID {
		c.JSON(http.StatusForbidden, gin.H{"detail": "You do not have permission to perform this action."})
		return nil, false
	}
	return cm, true
}

func (b *Backend) updateComment(c *gin.Context) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"text": []string{"This field may not be blank."}})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	cm, ok := b.ownComment(c)
	if !ok {
		return
	}
	cm.Text = req.Text
	c.JSON(http.StatusOK, gin.H{"comment_id": cm.ID, "text": cm.Text})
}

func (b *Backend) deleteComment(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cm, ok := b.ownComment(c)
	if !ok {
		return
	}
	delete(b.comments, cm.ID)
	c.Status(http.StatusNoContent)
}
