package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blogdeck/blogdeck/internal/api"
	"github.com/blogdeck/blogdeck/internal/cli/prompt"
	"github.com/blogdeck/blogdeck/internal/drafts"
	"github.com/blogdeck/blogdeck/internal/forms"
)

// articleFlags are shared by write and edit
type articleFlags struct {
	title   string
	content string
	file    string
	tags    []string
	image   string
	draft   bool
}

func (f *articleFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "Post title")
	cmd.Flags().StringVar(&f.content, "content", "", "Post content as HTML")
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "Read the content from a file ('-' for stdin)")
	cmd.Flags().StringSliceVar(&f.tags, "tag", nil, "Tag id (repeatable; see 'blogdeck tags')")
	cmd.Flags().StringVar(&f.image, "image", "", "Path to a cover image")
	cmd.Flags().BoolVar(&f.draft, "draft", false, "Save as a local draft instead of publishing")
	cmd.MarkFlagsMutuallyExclusive("content", "file")
}

// apply copies the flags that were given onto form
func (f *articleFlags) apply(cmd *cobra.Command, app *App, form *forms.Article) error {
	if cmd.Flags().Changed("title") {
		form.Title = f.title
	}
	if cmd.Flags().Changed("content") {
		form.Content = f.content
	}
	if f.file != "" {
		content, err := readContent(app.In, f.file)
		if err != nil {
			return err
		}
		form.Content = content
	}

	if cmd.Flags().Changed("tag") {
		form.TagIDs = f.tags
	} else if app.interactive() {
		tags, err := app.client.ListTags(cmd.Context())
		if err != nil {
			app.logger.Warn().Err(err).Msg("Failed to fetch tags")
			return nil
		}
		chosen, err := prompt.SelectTags(tags, form.TagIDs)
		if err != nil {
			return err
		}
		form.TagIDs = chosen
	}
	return nil
}

// openImage opens the --image file; the returned func closes it
func (f *articleFlags) openImage() (*api.Upload, func(), error) {
	if f.image == "" {
		return nil, func() {}, nil
	}
	file, err := os.Open(f.image)
	if err != nil {
		return nil, func() {}, fmt.Errorf("failed to open image: %w", err)
	}
	return &api.Upload{FileName: filepath.Base(f.image), Data: file}, func() { _ = file.Close() }, nil
}

func readContent(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read content: %w", err)
	}
	return string(data), nil
}

// NewWriteCmd creates the write command
func NewWriteCmd(app *App) *cobra.Command {
	var flags articleFlags

	cmd := &cobra.Command{
		Use:   "write",
		Short: "Publish a new post",
		Example: `  blogdeck write --title "Hello" --file post.html --tag 1 --tag 3
  blogdeck write --title "Later" --content "<p>Not done</p>" --draft`,
		Args: cobra.NoArgs,
	}
	cmd.RunE = app.protected(func(ctx context.Context, user *api.User, args []string) error {
		var form forms.Article
		if err := flags.apply(cmd, app, &form); err != nil {
			return err
		}

		if flags.draft {
			return saveDraft(ctx, app, &flags, form, "")
		}

		if err := forms.Validate(form); err != nil {
			return err
		}

		image, closeImage, err := flags.openImage()
		if err != nil {
			return err
		}
		defer closeImage()
		form.Image = image

		if err := app.client.CreateBlog(ctx, app.token(), form.Request()); err != nil {
			return app.apiError(err, "failed to create blog post")
		}

		fmt.Fprintln(app.Out, "✓ Article published successfully!")
		return nil
	})
	flags.register(cmd)

	return cmd
}

// NewEditCmd creates the edit command
func NewEditCmd(app *App) *cobra.Command {
	var flags articleFlags

	cmd := &cobra.Command{
		Use:   "edit <post-id>",
		Short: "Update one of your posts",
		Long: `Update one of your posts.

Only the fields given as flags change; the rest keep their current values.`,
		Args: cobra.ExactArgs(1),
	}
	cmd.RunE = app.protected(func(ctx context.Context, user *api.User, args []string) error {
		id := api.ID(args[0])

		blog, err := app.client.GetBlog(ctx, app.token(), id)
		if err != nil {
			return app.apiError(err, "failed to load article data")
		}
		if !strings.EqualFold(blog.User, user.Email) {
			return fmt.Errorf("you can only edit your own articles")
		}

		form := forms.Article{Title: blog.Title, Content: blog.Content, TagIDs: blog.TagIDs()}
		if err := flags.apply(cmd, app, &form); err != nil {
			return err
		}

		if flags.draft {
			return saveDraft(ctx, app, &flags, form, id.String())
		}

		if err := forms.Validate(form); err != nil {
			return err
		}

		image, closeImage, err := flags.openImage()
		if err != nil {
			return err
		}
		defer closeImage()
		form.Image = image

		if err := app.client.UpdateBlog(ctx, app.token(), id, form.Request()); err != nil {
			return app.apiError(err, "failed to update blog post")
		}

		fmt.Fprintln(app.Out, "✓ Article updated successfully!")
		return nil
	})
	flags.register(cmd)

	return cmd
}

func saveDraft(ctx context.Context, app *App, flags *articleFlags, form forms.Article, postID string) error {
	store, err := app.draftStore()
	if err != nil {
		return err
	}

	draft := &drafts.Draft{
		Title:   form.Title,
		Content: form.Content,
		TagIDs:  form.TagIDs,
		PostID:  postID,
	}

	image, closeImage, err := flags.openImage()
	if err != nil {
		return err
	}
	defer closeImage()
	if image != nil {
		if draft.ImagePath, err = store.SaveImage(image.FileName, image.Data); err != nil {
			return err
		}
	}

	if err := store.Save(ctx, draft); err != nil {
		return err
	}

	fmt.Fprintf(app.Out, "✓ Draft saved: %s\n", draft.ID)
	fmt.Fprintf(app.Out, "\nPublish it with: blogdeck drafts publish %s\n", draft.ID)
	return nil
}
