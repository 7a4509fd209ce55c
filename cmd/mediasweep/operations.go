package main

import (
	"strings"

	"github.com/spf13/cobra"

	"mediasweep/internal/capability"
	"mediasweep/internal/dispatch"
)

func newCompressCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags
	var bundle bool
	cmd := &cobra.Command{
		Use:   "compress <root>",
		Short: "Archive every media file into a mirrored compressed/ tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := flags.apply(dispatch.Request{
				Op:       dispatch.OpCompress,
				Root:     args[0],
				Compress: dispatch.CompressOptions{Bundle: bundle},
			})
			return runOperation(cmd, ctx, req, false)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&bundle, "bundle", false, "Also merge the run's archives into one <root>-compressed.7z")
	return cmd
}

func newUncompressCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "uncompress <root|bundle.7z>",
		Short: "Extract archives into an uncompressed/ tree beside the input",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := flags.apply(dispatch.Request{Op: dispatch.OpUncompress, Root: args[0]})
			return runOperation(cmd, ctx, req, false)
		},
	}
	flags.register(cmd)
	return cmd
}

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags
	var (
		codec      string
		metadata   string
		drop       []string
		placement  string
		replace    bool
		onConflict string
		useDrapto  bool
	)
	cmd := &cobra.Command{
		Use:   "convert <root>",
		Short: "Transcode every media file to a target codec",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if replace {
				placement = string(dispatch.PlacementReplace)
			}
			req := flags.apply(dispatch.Request{
				Op:   dispatch.OpConvert,
				Root: args[0],
				Convert: dispatch.ConvertOptions{
					Codec: strings.ToLower(strings.TrimSpace(codec)),
					Metadata: capability.MetadataParams{
						Mode: capability.MetadataMode(strings.ToLower(strings.TrimSpace(metadata))),
						Drop: drop,
					},
					Placement: dispatch.Placement(strings.ToLower(strings.TrimSpace(placement))),
					Conflict:  dispatch.ConflictPolicy(strings.ToLower(strings.TrimSpace(onConflict))),
				},
			})
			return runOperation(cmd, ctx, req, useDrapto)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&codec, "codec", "", "Target codec (default from config)")
	cmd.Flags().StringVar(&metadata, "metadata", "", "Metadata handling: retain, drop, or drop-only")
	cmd.Flags().StringSliceVar(&drop, "drop", nil, "Tag keys removed in drop-only mode")
	cmd.Flags().StringVar(&placement, "placement", "", "Output placement: keep or replace")
	cmd.Flags().BoolVar(&replace, "replace", false, "Shorthand for --placement replace")
	cmd.Flags().StringVar(&onConflict, "on-conflict", "", "Sources already in the target format: skip, convert, or prompt")
	cmd.Flags().BoolVar(&useDrapto, "drapto", false, "Encode AV1 video through the drapto library")
	cmd.MarkFlagsMutuallyExclusive("placement", "replace")
	return cmd
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "scan <root>",
		Short: "Probe every media file and classify it as normal, weird, or corrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := flags.apply(dispatch.Request{Op: dispatch.OpScan, Root: args[0]})
			return runOperation(cmd, ctx, req, false)
		},
	}
	flags.register(cmd)
	return cmd
}

func newTagsCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags
	var remove, set []string
	cmd := &cobra.Command{
		Use:   "tags <root>",
		Short: "Remove or set metadata tags on every media file in place",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := flags.apply(dispatch.Request{
				Op:   dispatch.OpTags,
				Root: args[0],
				Tags: dispatch.TagOptions{Remove: remove, Set: set},
			})
			return runOperation(cmd, ctx, req, false)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringSliceVar(&remove, "remove", nil, "Tag keys to remove")
	cmd.Flags().StringArrayVar(&set, "set", nil, "Tag to set as key=value (repeatable)")
	return cmd
}
