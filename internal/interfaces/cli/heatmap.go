package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
	"github.com/turtacn/FieldScout-Intelligence/pkg/types/common"
)

type heatmapOptions struct {
	fieldID string
	date    string
	crop    string
	out     string
}

func newHeatmapCmd(op Opener) *cobra.Command {
	opts := &heatmapOptions{}
	cmd := &cobra.Command{
		Use:   "heatmap",
		Short: "Render a stored pest density heat map to a PNG file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if opts.date == "" {
				opts.date = common.DateKey(time.Now().UTC())
			} else if _, err := common.ParseDate(opts.date); err != nil {
				return errors.NewValidation("date %q must be formatted YYYY-MM-DD", opts.date)
			}
			if opts.out == "" {
				crop := strings.ToLower(strings.TrimSpace(opts.crop))
				if crop == "" {
					crop = "all"
				}
				opts.out = fmt.Sprintf("%s_%s_%s.png", opts.fieldID, opts.date, crop)
			}

			ctx, cancel := cc.withTimeout(cmd.Context())
			defer cancel()
			src, release, err := op.Heatmaps(ctx, cc)
			if err != nil {
				return err
			}
			defer release()

			png, err := src.HeatmapPNG(ctx, opts.fieldID, opts.date, opts.crop)
			if err != nil {
				return err
			}
			if err := os.WriteFile(opts.out, png, 0o644); err != nil {
				return errors.Wrap(err, errors.ErrCodeInternal, "cannot write heat map").WithDetail(opts.out)
			}
			return PrintResult(cmd, heatmapOutput{Path: opts.out, Bytes: len(png)})
		},
	}
	cmd.Flags().StringVar(&opts.fieldID, "field", "", "field id (required)")
	cmd.Flags().StringVar(&opts.date, "date", "", "flight date YYYY-MM-DD (default: today, UTC)")
	cmd.Flags().StringVar(&opts.crop, "crop", "", "crop type (default: all crops summed)")
	cmd.Flags().StringVar(&opts.out, "out", "", "output file (default: <field>_<date>_<crop>.png)")
	_ = cmd.MarkFlagRequired("field")
	return cmd
}

type heatmapOutput struct {
	Path  string `json:"path"`
	Bytes int    `json:"bytes"`
}

func (o heatmapOutput) Text() string {
	return fmt.Sprintf("Wrote %s (%d bytes)\n", o.Path, o.Bytes)
}

//Personal.AI order the ending
