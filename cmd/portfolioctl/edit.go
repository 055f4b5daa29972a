package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"portfolio/internal/apperr"
	"portfolio/internal/client"
	"portfolio/internal/content"
	"portfolio/internal/imageref"
	"portfolio/internal/media/sniffer"
	"portfolio/internal/models"
	"portfolio/internal/storage"
	"portfolio/internal/workflow"
)

type editOptions struct {
	file        string
	id          string
	image       string
	removeImage bool
	version     int
}

type session struct {
	client   *client.Client
	resolver imageref.Resolver
	log      zerolog.Logger
	out      io.Writer
}

func (o *globalOptions) session(out io.Writer) session {
	return session{
		client:   o.client(),
		resolver: imageref.New(o.bucket),
		log:      o.logger(),
		out:      out,
	}
}

// entity binds a CLI name to the typed edit and delete flows of one record
// variant.
type entity struct {
	path   string
	edit   func(ctx context.Context, s session, path string, o editOptions) error
	remove func(ctx context.Context, s session, path string, id string, keepImage bool) error
}

var entities = map[string]entity{
	"projects":       {"/projects", editRecord[models.Project, *models.Project], deleteRecord[models.Project, *models.Project]},
	"blog":           {"/blog", editRecord[models.BlogPost, *models.BlogPost], deleteRecord[models.BlogPost, *models.BlogPost]},
	"certifications": {"/certifications", editRecord[models.Certification, *models.Certification], deleteRecord[models.Certification, *models.Certification]},
	"skills":         {"/skills", editRecord[models.Skill, *models.Skill], deleteRecord[models.Skill, *models.Skill]},
	"messages":       {"/messages", editRecord[models.Message, *models.Message], deleteRecord[models.Message, *models.Message]},
}

func lookupEntity(name string) (entity, error) {
	e, ok := entities[strings.ToLower(name)]
	if !ok {
		names := make([]string, 0, len(entities))
		for n := range entities {
			names = append(names, n)
		}
		sort.Strings(names)
		return entity{}, fmt.Errorf("unknown entity %q, expected one of: %s", name, strings.Join(names, ", "))
	}
	return e, nil
}

func newEditCmd(opts *globalOptions) *cobra.Command {
	var o editOptions
	cmd := &cobra.Command{
		Use:   "edit <entity>",
		Short: "Create or update a record, optionally replacing its image",
		Long: "Creates a record from --file, or updates the record --id with the fields in --file.\n" +
			"--image uploads a new picture first; the replaced one is deleted after the save succeeds.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := lookupEntity(args[0])
			if err != nil {
				return err
			}
			if o.image != "" && o.removeImage {
				return errors.New("--image and --remove-image are mutually exclusive")
			}
			if o.file == "" && o.image == "" && !o.removeImage {
				return errors.New("nothing to change, pass --file, --image or --remove-image")
			}
			return e.edit(cmd.Context(), opts.session(cmd.OutOrStdout()), e.path, o)
		},
	}
	cmd.Flags().StringVarP(&o.file, "file", "f", "", "JSON file with record fields (- for stdin)")
	cmd.Flags().StringVar(&o.id, "id", "", "record id to update; omit to create")
	cmd.Flags().StringVar(&o.image, "image", "", "image file to upload and attach")
	cmd.Flags().BoolVar(&o.removeImage, "remove-image", false, "detach and delete the current image")
	cmd.Flags().IntVar(&o.version, "version", 0, "expected record version, the save is rejected if it changed")
	return cmd
}

func newDeleteCmd(opts *globalOptions) *cobra.Command {
	var id string
	var keepImage bool
	cmd := &cobra.Command{
		Use:   "delete <entity>",
		Short: "Delete a record and its stored image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := lookupEntity(args[0])
			if err != nil {
				return err
			}
			if id == "" {
				return errors.New("--id is required")
			}
			if err := e.remove(cmd.Context(), opts.session(cmd.OutOrStdout()), e.path, id, keepImage); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "record id")
	cmd.Flags().BoolVar(&keepImage, "keep-image", false, "leave the stored image in place")
	return cmd
}

func editRecord[T any, P content.Entity[T]](ctx context.Context, s session, path string, o editOptions) error {
	records := client.NewCollection[T, P](s.client, path)
	editor := workflow.NewEditor[T, P](s.client.Assets(), records, s.resolver, s.log)

	var existing P
	if o.id != "" {
		rec, err := records.Find(ctx, o.id)
		if err != nil {
			return err
		}
		existing = rec
	}
	if err := editor.Open(existing); err != nil {
		return err
	}
	defer editor.Close()

	draft := editor.Draft()
	if o.file != "" {
		if err := readRecord(o.file, draft); err != nil {
			return err
		}
	}
	if o.version != 0 {
		draft.Metadata().Version = o.version
	}

	switch {
	case o.image != "":
		blob, err := loadBlob(o.image)
		if err != nil {
			return err
		}
		if err := editor.StageImage(blob); err != nil {
			return err
		}
	case o.removeImage:
		if err := editor.RemoveImage(); err != nil {
			return err
		}
	}

	saved, err := editor.Submit(ctx)
	if err != nil {
		for _, key := range editor.Orphans() {
			s.log.Warn().Str("key", key).Msg("uploaded image is not attached to any record")
		}
		return err
	}
	return printJSON(s.out, saved)
}

// deleteRecord treats a record that is already gone as deleted.
func deleteRecord[T any, P content.Entity[T]](ctx context.Context, s session, path string, id string, keepImage bool) error {
	records := client.NewCollection[T, P](s.client, path)
	editor := workflow.NewEditor[T, P](s.client.Assets(), records, s.resolver, s.log)

	image := ""
	rec, err := records.Find(ctx, id)
	switch {
	case err == nil:
		if !keepImage {
			image = content.ImageKey(rec)
		}
	case !errors.Is(err, apperr.ErrNotFound):
		return err
	}
	return editor.DeleteRecord(ctx, id, image)
}

// readRecord overlays the JSON fields in file onto rec. The id and version
// of an opened record are kept.
func readRecord(file string, rec content.Record) error {
	var (
		data []byte
		err  error
	)
	if file == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}

	meta := *rec.Metadata()
	if err := json.Unmarshal(data, rec); err != nil {
		return fmt.Errorf("parse %s: %w", file, err)
	}
	if meta.ID != "" {
		rec.Metadata().ID = meta.ID
		rec.Metadata().Version = meta.Version
	}
	return nil
}

// loadBlob reads an image file. Its type comes from the content, falling
// back to the extension so the server can reject what it does not accept.
func loadBlob(file string) (workflow.Blob, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return workflow.Blob{}, fmt.Errorf("read image: %w", err)
	}
	contentType := storage.ContentTypeFor(file)
	if detected, err := sniffer.DetectHead(data); err == nil {
		contentType = detected.MIME
	}
	return workflow.Blob{Name: filepath.Base(file), ContentType: contentType, Data: data}, nil
}
