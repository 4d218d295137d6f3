package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Lllllllleong/jobboard/internal/models"
)

func newSnapshotCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "snapshot", Short: "Export or import job snapshots in Cloud Storage"}

	var object string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write every job to the snapshot bucket",
		RunE: func(cmd *cobra.Command, _ []string) error {
			exporter, err := opts.app.Exporter(cmd.Context())
			if err != nil {
				return err
			}
			uri, err := exporter.Export(cmd.Context(), object)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), uri)
			return nil
		},
	}
	export.Flags().StringVar(&object, "object", "", "Object name (default {collection}/{timestamp}.json)")
	cmd.AddCommand(export)

	cmd.AddCommand(&cobra.Command{
		Use:   "import gs://BUCKET/OBJECT",
		Short: "Add every job in a snapshot as a new document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			event, err := parseGCSURI(args[0])
			if err != nil {
				return err
			}
			importer, err := opts.app.Importer(cmd.Context())
			if err != nil {
				return err
			}
			res, err := importer.Process(cmd.Context(), event)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d jobs from %s\n", res.Imported, res.Source)
			return nil
		},
	})
	return cmd
}

func parseGCSURI(uri string) (models.GCSEvent, error) {
	rest, ok := strings.CutPrefix(uri, "gs://")
	if !ok {
		return models.GCSEvent{}, fmt.Errorf("not a gs:// URI: %q", uri)
	}
	bucket, name, _ := strings.Cut(rest, "/")
	if bucket == "" || name == "" {
		return models.GCSEvent{}, fmt.Errorf("URI must name a bucket and object: %q", uri)
	}
	return models.GCSEvent{Bucket: bucket, Name: name}, nil
}
