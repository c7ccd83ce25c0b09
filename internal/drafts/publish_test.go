package drafts

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blogdeck/blogdeck/internal/api"
	"github.com/blogdeck/blogdeck/internal/forms"
)

type recordingPublisher struct {
	created []api.ArticleRequest
	updated map[api.ID]api.ArticleRequest
	image   string
	err     error
}

func (p *recordingPublisher) CreateBlog(_ context.Context, token string, in api.ArticleRequest) error {
	if p.err != nil {
		return p.err
	}
	p.readImage(in)
	p.created = append(p.created, in)
	return nil
}

func (p *recordingPublisher) UpdateBlog(_ context.Context, token string, postID api.ID, in api.ArticleRequest) error {
	if p.err != nil {
		return p.err
	}
	p.readImage(in)
	if p.updated == nil {
		p.updated = make(map[api.ID]api.ArticleRequest)
	}
	p.updated[postID] = in
	return nil
}

func (p *recordingPublisher) readImage(in api.ArticleRequest) {
	if in.Image == nil {
		return
	}
	data, _ := io.ReadAll(in.Image.Data)
	p.image = in.Image.FileName + ":" + string(data)
}

func TestPublish_New(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	imagePath, err := store.SaveImage("cover.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)

	draft := &Draft{Title: "Hello", Content: "<p>World</p>", TagIDs: []string{"2"}, ImagePath: imagePath}
	require.NoError(t, store.Save(ctx, draft))

	pub := &recordingPublisher{}
	require.NoError(t, store.Publish(ctx, draft, pub, "token"))

	require.Len(t, pub.created, 1)
	assert.Equal(t, "Hello", pub.created[0].Title)
	assert.Equal(t, []string{"2"}, pub.created[0].TagIDs)
	assert.Equal(t, "cover.png:png-bytes", pub.image)

	_, err = store.Get(ctx, draft.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = os.Stat(imagePath)
	assert.True(t, os.IsNotExist(err), "stored image removed with the draft")
}

func TestPublish_Edit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	draft := &Draft{Title: "Edited", Content: "<p>new</p>", PostID: "7"}
	require.NoError(t, store.Save(ctx, draft))

	pub := &recordingPublisher{}
	require.NoError(t, store.Publish(ctx, draft, pub, "token"))

	assert.Empty(t, pub.created)
	require.Contains(t, pub.updated, api.ID("7"))
	assert.Equal(t, "Edited", pub.updated["7"].Title)
}

func TestPublish_InvalidDraftKept(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	draft := &Draft{Title: "", Content: "<p><br></p>"}
	require.NoError(t, store.Save(ctx, draft))

	err := store.Publish(ctx, draft, &recordingPublisher{}, "token")
	var formErr *forms.Errors
	require.ErrorAs(t, err, &formErr)
	assert.Equal(t, "Title is required", formErr.Get("title"))

	_, err = store.Get(ctx, draft.ID)
	assert.NoError(t, err)
}

func TestPublish_BackendFailureKeepsDraft(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	draft := &Draft{Title: "Hello", Content: "<p>World</p>"}
	require.NoError(t, store.Save(ctx, draft))

	boom := errors.New("backend down")
	err := store.Publish(ctx, draft, &recordingPublisher{err: boom}, "token")
	require.ErrorIs(t, err, boom)

	_, err = store.Get(ctx, draft.ID)
	assert.NoError(t, err)
}

func TestDelete_KeepsForeignImages(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	outside := filepath.Join(t.TempDir(), "mine.png")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o600))

	draft := &Draft{Title: "x", ImagePath: outside}
	require.NoError(t, store.Save(ctx, draft))
	require.NoError(t, store.Delete(ctx, draft.ID))

	_, err := os.Stat(outside)
	assert.NoError(t, err, "files outside the media directory are never removed")
}

func TestUploadName(t *testing.T) {
	assert.Equal(t, "cover.png", uploadName("/x/media/01ARZ3NDEKTSV4RRFFQ69G5FAV-cover.png"))
	assert.Equal(t, "my-photo.jpg", uploadName("/home/me/my-photo.jpg"))
}
