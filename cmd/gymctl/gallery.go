package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gymsite/backend/internal/logger"
	"github.com/gymsite/backend/internal/models"
	"github.com/gymsite/backend/internal/ordering"
	"github.com/gymsite/backend/internal/repositories"
	"github.com/gymsite/backend/internal/services"
	"github.com/gymsite/backend/internal/storage"
	"github.com/spf13/cobra"
)

// newGalleryService wires the gallery service the same way the server does
func newGalleryService(ctx context.Context, e *env) (*galleryCLI, error) {
	fileStorage, err := storage.New(ctx, e.cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	repo := repositories.NewGalleryRepository(e.db, logger.Logger)
	return &galleryCLI{svc: services.NewGalleryService(repo, fileStorage, logger.Logger)}, nil
}

// galleryCLI holds the gallery operations used by the commands
type galleryCLI struct {
	svc interface {
		Upload(ctx context.Context, files []models.UploadFile) ([]models.GalleryItem, error)
		Update(ctx context.Context, id string, upd models.GalleryUpdate) (*models.UpdateResult, error)
		List(ctx context.Context) ([]models.GalleryItem, error)
		Renumber(ctx context.Context) (int, error)
	}
}

// planRenumber returns the position updates a renumbering would write and the order they produce
func (g *galleryCLI) planRenumber(ctx context.Context) ([]models.PositionUpdate, []models.GalleryItem, error) {
	items, err := g.svc.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	updates := ordering.Renumber(items)
	return updates, ordering.Apply(items, updates), nil
}

// seed uploads every manifest item in one batch, then sets the titles.
// Nothing is created when any file cannot be read or stored.
func (g *galleryCLI) seed(ctx context.Context, m *manifest) ([]models.GalleryItem, error) {
	files := make([]models.UploadFile, 0, len(m.Items))
	for _, it := range m.Items {
		f, err := os.Open(it.Path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", it.Path, err)
		}
		defer f.Close()
		files = append(files, models.UploadFile{Filename: filepath.Base(it.Path), ContentType: it.ContentType, Reader: f})
	}

	items, err := g.svc.Upload(ctx, files)
	if err != nil {
		return nil, err
	}

	for i, it := range m.Items {
		if it.Title == "" {
			continue
		}
		title := it.Title
		res, err := g.svc.Update(ctx, items[i].ID, models.GalleryUpdate{DisplayName: &title})
		if err != nil {
			return items, fmt.Errorf("setting title of %s: %w", it.Path, err)
		}
		items[i] = *res.Item
	}
	return items, nil
}

var seedGalleryCmd = &cobra.Command{
	Use:   "seed-gallery",
	Short: "Import files listed in a TOML manifest into the gallery",
	Long: `Import files listed in a TOML manifest into the gallery.

The files are copied into the configured storage and appended after the
current last position, in manifest order. Example manifest:

    dir = "seed"

    [[items]]
    path = "front-desk.jpg"
    title = "Front desk"

    [[items]]
    path = "tour.mp4"
`,
	RunE: withEnv(func(ctx context.Context, e *env, cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("manifest")
		m, err := loadManifest(path)
		if err != nil {
			return err
		}

		g, err := newGalleryService(ctx, e)
		if err != nil {
			return err
		}

		items, err := g.seed(ctx, m)
		for _, it := range items {
			fmt.Fprintf(cmd.OutOrStdout(), "%4d  %-5s  %s  %s\n", it.Position, it.Kind, it.ID, it.Filename)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d file(s)\n", len(items))
		return nil
	}),
}

var renumberCmd = &cobra.Command{
	Use:   "renumber-positions",
	Short: "Rewrite gallery positions to 0..n-1 keeping the display order",
	RunE: withEnv(func(ctx context.Context, e *env, cmd *cobra.Command, args []string) error {
		g, err := newGalleryService(ctx, e)
		if err != nil {
			return err
		}

		if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
			updates, items, err := g.planRenumber(ctx)
			if err != nil {
				return err
			}
			for _, it := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "%4d  %s  %s\n", it.Position, it.ID, it.Filename)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Would renumber %d item(s)\n", len(updates))
			return nil
		}

		n, err := g.svc.Renumber(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Renumbered %d item(s)\n", n)
		return nil
	}),
}
