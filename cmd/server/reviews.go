package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alem-hub/adaptive-learning/internal/application/query"
)

type reviewsOptions struct {
	course    string
	user      int64
	revisions bool
}

func newReviewsCommand(root *rootOptions) *cobra.Command {
	opts := &reviewsOptions{}

	cmd := &cobra.Command{
		Use:   "reviews",
		Short: "Print pending reviews of a learner",
		Long: `Print the pending reviews the adaptive learning service holds for a learner
in one course, exactly as the service returns them.

With --revisions the command prints the learner's revisions across the whole
catalog instead, the way GET /api/revisions/ does.

Examples:
  server reviews --course course-v1:org+course+run --user 42
  server reviews --user 42 --revisions`,
		Args: cobra.NoArgs,
		PreRunE: func(*cobra.Command, []string) error {
			if opts.user <= 0 {
				return fmt.Errorf("--user must be a positive id")
			}
			if !opts.revisions && opts.course == "" {
				return fmt.Errorf("--course is required unless --revisions is set")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReviews(cmd, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.course, "course", "", "course key")
	cmd.Flags().Int64Var(&opts.user, "user", 0, "platform user id")
	cmd.Flags().BoolVar(&opts.revisions, "revisions", false, "list revisions across all courses")
	return cmd
}

func runReviews(cmd *cobra.Command, root *rootOptions, opts *reviewsOptions) error {
	ctx := cmd.Context()
	cfg, log, err := root.load()
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	var out any
	if opts.revisions {
		h := query.NewGetPendingRevisionsHandler(a.courses, a.learning, log)
		if out, err = h.Handle(ctx, query.GetPendingRevisionsQuery{UserID: opts.user}); err != nil {
			return err
		}
	} else {
		c, err := a.courses.GetCourse(ctx, opts.course)
		if err != nil {
			return err
		}
		if out, err = a.learning.PendingReviews(ctx, c, opts.user); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
