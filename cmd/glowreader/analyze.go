package main

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bryanwahyu/glowreader/internal/domain/analysis"
	"github.com/bryanwahyu/glowreader/internal/infra/ai/prompt"
	"github.com/bryanwahyu/glowreader/internal/render"
)

var errAnalysisFailed = errors.New("analysis failed")

const historyNote = "(could not save this analysis to history)"

type analyzeOptions struct {
	Mode      string
	PhotoPath string
	Fields    map[string]string
	Instant   bool
	Stagger   time.Duration
	HTMLPath  string
}

var analyzeOpts analyzeOptions

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a photo (skin-analyzer or makeup-artist)",
	Long: `Uploads a photo with the form fields of the chosen mode and shows the
result section by section.

Fields:
  skin-analyzer:  skinType, skinProblem, ageGroup, lifestyleFactor
  makeup-artist:  eventType, dressType, dressColor, userStylePreference

Example:
  glowreader analyze --photo me.jpg -f skinType=Oily -f skinProblem=Acne
  glowreader analyze --mode makeup-artist --photo me.jpg -f eventType=Wedding -f dressColor=Emerald`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(cmd.Context(), app, analyzeOpts)
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeOpts.Mode, "mode", "m", string(analysis.ModeSkinAnalyzer), "skin-analyzer or makeup-artist")
	analyzeCmd.Flags().StringVarP(&analyzeOpts.PhotoPath, "photo", "p", "", "Path to the photo to upload")
	analyzeCmd.Flags().StringToStringVarP(&analyzeOpts.Fields, "field", "f", nil, "Form field as key=value (repeatable)")
	analyzeCmd.Flags().BoolVar(&analyzeOpts.Instant, "instant", false, "Show every section at once")
	analyzeCmd.Flags().DurationVar(&analyzeOpts.Stagger, "stagger", render.DefaultStagger, "Delay between sections")
	analyzeCmd.Flags().StringVar(&analyzeOpts.HTMLPath, "html", "", "Also write the rendered result to this HTML file")
}

func runAnalyze(ctx context.Context, a *App, opts analyzeOptions) error {
	mode := analysis.Mode(opts.Mode)
	fields := make(map[string]string, len(opts.Fields))
	for k, v := range opts.Fields {
		fields[k] = v
	}
	warnUnknownFields(a, mode, fields)

	var photo *analysis.Photo
	if opts.PhotoPath != "" {
		p, err := readPhoto(opts.PhotoPath)
		if err != nil {
			return err
		}
		photo = p
	}

	ropts := render.Options{Stagger: opts.Stagger, Instant: opts.Instant}
	fmt.Fprintln(a.Out, "Analyzing... this can take a little while.")

	reply, err := a.Session.Submit(ctx, analysis.Request{Mode: mode, Fields: fields, Photo: photo})
	if err != nil {
		a.Log.Debug("analysis failed", zap.String("code", analysis.CodeOf(err)), zap.Error(err))
		show(ctx, a, render.RenderError(err, ropts))
		return errAnalysisFailed
	}
	a.Log.Debug("analysis received",
		zap.String("request_id", reply.RequestID),
		zap.String("photo_url", reply.PhotoURL))

	pres := render.Render(reply.Result, ropts)
	pres.ImageDataURL = photo.DataURL()
	show(ctx, a, pres)

	if opts.HTMLPath != "" {
		if err := writeHTML(opts.HTMLPath, pres); err != nil {
			fmt.Fprintf(a.Out, "Could not write %s: %v\n", opts.HTMLPath, err)
		}
	}

	if a.HistoryOff {
		fmt.Fprintln(a.Out, historyNote)
		return nil
	}
	entry := a.History.NewEntry(mode, fields, pres, photo)
	if err := a.History.Append(ctx, entry); err != nil {
		// history is a convenience; the result was already shown
		fmt.Fprintln(a.Out, historyNote)
	}
	return nil
}

// show plays p to a.Out and blocks until every group is out or ctx ends.
func show(ctx context.Context, a *App, p render.Presentation) {
	pl := render.Play(ctx, p, func(_ int, g render.Group) {
		printGroup(a.Out, g)
	})
	select {
	case <-pl.Done():
	case <-ctx.Done():
		pl.Stop()
		pl.Wait()
	}
}

func readPhoto(path string) (*analysis.Photo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read photo: %w", err)
	}
	mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mt == "" {
		mt = http.DetectContentType(data)
	}
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return &analysis.Photo{Data: data, MimeType: mt, Filename: filepath.Base(path)}, nil
}

func warnUnknownFields(a *App, mode analysis.Mode, fields map[string]string) {
	known := map[string]bool{"concern": mode == analysis.ModeSkinAnalyzer}
	for _, f := range prompt.FieldSets[mode] {
		known[f] = true
	}
	for k := range fields {
		if !known[k] {
			fmt.Fprintf(a.Out, "note: field %q is not used in %s mode\n", k, mode)
		}
	}
}
