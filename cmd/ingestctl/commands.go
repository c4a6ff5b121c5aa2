package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tendant/simple-ingest/pkg/ingest"
)

// NewPutCommand creates the put command
func NewPutCommand() *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "put <file>",
		Short: "Upload a file to the uploads bucket",
		Long:  `Upload a file to the uploads bucket. The bucket's change notification then drives the pipeline.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filePath := args[0]
			f, err := os.Open(filePath)
			if err != nil {
				return fmt.Errorf("failed to open file: %w", err)
			}
			defer f.Close()

			if key == "" {
				key = filepath.Base(filePath)
			}
			if outcome := ingest.Validate(key); !outcome.Accepted {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s will be rejected: %s\n", key, outcome.Reason)
			}

			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			store, err := newStore(cmd.Context(), cmd, cfg)
			if err != nil {
				return err
			}

			if err := store.Upload(cmd.Context(), key, f, mime.TypeByExtension(filepath.Ext(key))); err != nil {
				return fmt.Errorf("upload failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded s3://%s/%s\n", store.Bucket(), key)
			return nil
		},
	}

	cmd.Flags().StringVarP(&key, "key", "k", "", "object key (default: file name)")
	return cmd
}

// NewDeleteCommand creates the delete command
func NewDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete an object from the uploads bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			store, err := newStore(cmd.Context(), cmd, cfg)
			if err != nil {
				return err
			}
			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("delete failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted s3://%s/%s\n", store.Bucket(), args[0])
			return nil
		},
	}
}

// NewReplayCommand creates the replay command
func NewReplayCommand() *cobra.Command {
	var (
		fromFile string
		prefix   string
	)

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Run change notifications through a local pipeline",
		Long: `Replay change notifications through a pipeline built from the environment.

With --file, each line of the file is one raw message body (an SNS envelope
or an S3 notification). Otherwise every object in the bucket under --prefix
is replayed as a creation, which rebuilds the catalog after an outage.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			var msgs []ingest.Message
			if fromFile != "" {
				f, err := os.Open(fromFile)
				if err != nil {
					return fmt.Errorf("failed to open file: %w", err)
				}
				defer f.Close()
				if msgs, err = readMessages(f); err != nil {
					return err
				}
			} else {
				store, err := newStore(ctx, cmd, cfg)
				if err != nil {
					return err
				}
				keys, err := store.List(ctx, prefix)
				if err != nil {
					return err
				}
				if msgs, err = createdMessages(store.Bucket(), keys); err != nil {
					return err
				}
			}

			pipeline, closeCatalog, err := cfg.BuildPipeline(ctx, logger)
			if err != nil {
				return err
			}
			defer closeCatalog()

			result := pipeline.HandleChanges(ctx, msgs)
			return printSummary(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVarP(&fromFile, "file", "f", "", "file with one message body per line")
	cmd.Flags().StringVarP(&prefix, "prefix", "p", "", "only replay keys under this prefix")
	return cmd
}

// NewGetCommand creates the get command
func NewGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Show the catalog entry for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			catalog, closeCatalog, err := cfg.BuildCatalog(cmd.Context())
			if err != nil {
				return err
			}
			defer closeCatalog()

			entry, err := catalog.Get(cmd.Context(), args[0])
			if errors.Is(err, ingest.ErrEntryNotFound) {
				return fmt.Errorf("no catalog entry for %q", args[0])
			}
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(entry)
		},
	}
}

func printSummary(w io.Writer, result *ingest.BatchResult) error {
	fmt.Fprintf(w, "Processed %d message(s): %d succeeded, %d failed\n", result.Total, result.Succeeded, len(result.Failures))
	for _, f := range result.Failures {
		fmt.Fprintf(w, "  #%d %s: %v\n", f.Index, f.MessageID, f.Err)
	}
	if ids := result.RetryableIDs(); len(ids) > 0 {
		return fmt.Errorf("%d message(s) failed with retryable errors", len(ids))
	}
	return nil
}
