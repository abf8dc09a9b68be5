package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"artfolio/internal/portfolio"
	htmlrender "artfolio/internal/render/html"
	pdfrender "artfolio/internal/render/pdf"
)

// contentFile 是 render 子命令读取的 YAML 结构。
type contentFile struct {
	Template string                   `yaml:"template"`
	Theme    portfolio.Customizations `yaml:"theme"`
	Content  portfolio.ContentRecord  `yaml:"content"`
}

type renderOptions struct {
	input    string
	output   string
	format   string
	sanitize bool
}

func newRenderCmd() *cobra.Command {
	opts := renderOptions{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a YAML content file to HTML or PDF without a database",
		Example: `  portfolioctl render --input artist.yaml --format pdf --out portfolio.pdf
  portfolioctl render --input artist.yaml --format html > portfolio.html`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := loadContentFile(opts.input)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if opts.output != "" && opts.output != "-" {
				out, err := os.Create(opts.output)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer out.Close()
				w = out
			}
			return renderDocument(f, opts.format, opts.sanitize, w)
		},
	}
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "YAML content file (required)")
	cmd.Flags().StringVarP(&opts.output, "out", "o", "", "output file, stdout when empty")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "html", "html or pdf")
	cmd.Flags().BoolVar(&opts.sanitize, "sanitize", false, "sanitize free text before rendering HTML")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func loadContentFile(path string) (contentFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return contentFile{}, fmt.Errorf("read content file: %w", err)
	}
	var f contentFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return contentFile{}, fmt.Errorf("parse content file: %w", err)
	}
	if strings.TrimSpace(f.Content.Name) == "" {
		return contentFile{}, errors.New("content.name is required")
	}
	return f, nil
}

func renderDocument(f contentFile, format string, sanitize bool, w io.Writer) error {
	theme := portfolio.ResolveTheme(f.Theme)
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "html":
		out, err := htmlrender.NewComposer(htmlrender.WithSanitizer(sanitize)).
			Compose(f.Content, portfolio.SelectTemplate(f.Template), theme)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	case "pdf":
		return pdfrender.NewComposer().Compose(f.Content, theme, w)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
