package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/myusername/handicap-race/pkg/models"
	"github.com/myusername/handicap-race/pkg/parser"
	"github.com/myusername/handicap-race/pkg/roster"
	"github.com/myusername/handicap-race/pkg/scraper"
)

// loadFinishes reads finish results from a local file or a timing URL.
// Fetched pages are kept under outputDir/html and PDFs under outputDir/pdf.
func loadFinishes(source string, s *scraper.Scraper, outputDir string) ([]models.Finish, error) {
	if scraper.IsURL(source) {
		return fetchFinishes(source, s, outputDir)
	}

	switch strings.ToLower(filepath.Ext(source)) {
	case ".pdf":
		return pdfFinishes(source)
	case ".html", ".htm":
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("read finishes: %w", err)
		}
		return parser.ExtractFinishesFromHTML(string(data))
	case ".txt":
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("read finishes: %w", err)
		}
		return parser.ExtractFinishesFromText(string(data)), nil
	default:
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("read finishes: %w", err)
		}
		return roster.ParseFinishSheet(string(data))
	}
}

func pdfFinishes(path string) ([]models.Finish, error) {
	text, err := parser.ReadPDFText(path)
	if err != nil {
		return nil, err
	}
	return parser.ExtractFinishesFromText(text), nil
}

func downloadFinishes(rawURL string, s *scraper.Scraper, outputDir string) ([]models.Finish, error) {
	pdfDir := filepath.Join(outputDir, "pdf")
	if err := os.MkdirAll(pdfDir, 0755); err != nil {
		return nil, fmt.Errorf("create pdf directory: %w", err)
	}
	localPath := filepath.Join(pdfDir, pdfName(rawURL))
	if err := s.DownloadPDF(rawURL, localPath); err != nil {
		return nil, err
	}
	return pdfFinishes(localPath)
}

// fetchFinishes reads a results table from rawURL. A club page without a
// table is searched for a linked results PDF instead.
func fetchFinishes(rawURL string, s *scraper.Scraper, outputDir string) ([]models.Finish, error) {
	if strings.HasSuffix(strings.ToLower(rawURL), ".pdf") {
		return downloadFinishes(rawURL, s, outputDir)
	}

	htmlContent, err := s.FetchURL(rawURL)
	if err != nil {
		return nil, err
	}
	htmlPath := filepath.Join(outputDir, "html", pageName(rawURL))
	if err := scraper.SaveContentToFile(htmlPath, htmlContent); err != nil {
		return nil, err
	}
	finishes, err := parser.ExtractFinishesFromHTML(htmlContent)
	if !errors.Is(err, parser.ErrNoResultsTable) {
		return finishes, err
	}

	links := scraper.ExtractResultsLinks(htmlContent)
	if len(links) == 0 {
		return nil, err
	}
	pdfURL, err := scraper.ResolveRelativeURL(rawURL, links[0])
	if err != nil {
		return nil, err
	}
	slog.Info("following results link", "url", pdfURL)
	return downloadFinishes(pdfURL, s, outputDir)
}

// lastSegment returns the final path element of rawURL without query or fragment
func lastSegment(rawURL string) string {
	name := rawURL
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}

func pdfName(rawURL string) string {
	name := lastSegment(rawURL)
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name = "results.pdf"
	}
	return name
}

func pageName(rawURL string) string {
	name := lastSegment(rawURL)
	if name == "" {
		return "results.html"
	}
	lower := strings.ToLower(name)
	if !strings.HasSuffix(lower, ".html") && !strings.HasSuffix(lower, ".htm") {
		name += ".html"
	}
	return name
}
