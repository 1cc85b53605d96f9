package cmd

import (
	"fmt"
	"image"
	"image/draw"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/soocke/reticle-bot/domain/vision"
)

var preprocessCmd = &cobra.Command{
	Use:   "preprocess <image>",
	Short: "Write the gray, blurred and edge stages of an image",
	Long:  "Run an image file through the live preprocessing pipeline and save the intermediates as PNG. With --template, also report the best NCC match of the template on the edge map.",
	Args:  cobra.ExactArgs(1),
	RunE:  runPreprocess,
}

func init() {
	rootCmd.AddCommand(preprocessCmd)
	preprocessCmd.Flags().String("out", ".", "Output directory")
	preprocessCmd.Flags().String("template", "", "Template image to match against the edge map")
}

func runPreprocess(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	out, _ := cmd.Flags().GetString("out")
	tmplPath, _ := cmd.Flags().GetString("template")

	src, err := imaging.Open(args[0])
	if err != nil {
		return fmt.Errorf("open %s: %w", args[0], err)
	}
	frame := image.NewRGBA(image.Rect(0, 0, src.Bounds().Dx(), src.Bounds().Dy()))
	draw.Draw(frame, frame.Bounds(), src, src.Bounds().Min, draw.Src)

	pre := vision.NewPreprocessor(vision.PreprocessConfig{
		BlurSigma: cfg.Preprocess.BlurSigma,
		CannyLow:  cfg.Preprocess.CannyLow,
		CannyHigh: cfg.Preprocess.CannyHigh,
	})
	in := pre.ProcessWithIntermediates(frame)
	prefix := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
	if err := vision.SaveIntermediates(out, prefix, in); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s-{gray,blurred,edges}.png to %s\n", prefix, out)

	if tmplPath == "" {
		return nil
	}
	tmpl, err := vision.LoadTemplate(tmplPath, pre, cfg.Templates.Preprocessed)
	if err != nil {
		return err
	}
	res, ok := vision.Match(in.Edges, tmpl)
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "template larger than image, no match")
		return nil
	}
	tb := tmpl.Bounds()
	fmt.Fprintf(cmd.OutOrStdout(), "match x=%d y=%d center=(%d,%d) score=%.4f\n",
		res.X, res.Y, res.X+tb.Dx()/2, res.Y+tb.Dy()/2, res.Score)
	return nil
}
