// Package scraper fetches timing results pages and printouts over HTTP
package scraper

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultTimeout applies when a Scraper is built with a zero timeout
const DefaultTimeout = 30 * time.Second

// Scraper downloads results pages with a shared HTTP client
type Scraper struct {
	client *http.Client
}

// New returns a Scraper whose requests give up after timeout
func New(timeout time.Duration) *Scraper {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Scraper{client: &http.Client{Timeout: timeout}}
}

func (s *Scraper) get(rawURL string) (*http.Response, error) {
	resp, err := s.client.Get(rawURL)
	if err != nil {
		return nil, err
	}
	log.Printf("HTTP Status: %d (%s)", resp.StatusCode, resp.Status)
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("non-200 status code: %d %s", resp.StatusCode, resp.Status)
	}
	return resp, nil
}

// FetchURL downloads the HTML content from a URL and returns it as a string
func (s *Scraper) FetchURL(rawURL string) (string, error) {
	log.Printf("Fetching URL: %s", rawURL)

	resp, err := s.get(rawURL)
	if err != nil {
		return "", fmt.Errorf("error fetching URL: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}

	log.Printf("Content-Type: %s, %d bytes", resp.Header.Get("Content-Type"), len(body))

	return string(body), nil
}

// DownloadPDF downloads a PDF file from a URL and saves it locally
func (s *Scraper) DownloadPDF(rawURL string, localPath string) error {
	log.Printf("Downloading PDF from %s to %s", rawURL, localPath)

	resp, err := s.get(rawURL)
	if err != nil {
		return fmt.Errorf("error fetching PDF: %w", err)
	}
	defer resp.Body.Close()

	out, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("error creating file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("error saving PDF to file: %w", err)
	}

	log.Printf("Successfully downloaded PDF to %s", localPath)
	return nil
}

// SaveContentToFile keeps a copy of a fetched page, creating its directory
func SaveContentToFile(filename string, content string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("error creating directory for %s: %w", filename, err)
	}
	if err := os.WriteFile(filename, []byte(content), 0644); err != nil {
		return fmt.Errorf("error saving %s: %w", filename, err)
	}
	log.Printf("Saved page to %s", filename)
	return nil
}

// ExtractResultsLinks returns the hrefs on a club page that point at a
// results PDF, in document order
func ExtractResultsLinks(htmlContent string) []string {
	var links []string

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		log.Printf("Error parsing HTML content: %v", err)
		return links
	}

	doc.Find("a[href]").Each(func(i int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		lower := strings.ToLower(href)
		if strings.HasSuffix(lower, ".pdf") && strings.Contains(lower, "result") {
			log.Printf("Found results link: %s", href)
			links = append(links, href)
		}
	})

	log.Printf("Extracted %d results links", len(links))
	return links
}

// ResolveRelativeURL resolves a link found on baseURL to an absolute URL
func ResolveRelativeURL(baseURL, relativeURL string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("error parsing base URL: %w", err)
	}
	if base.Scheme == "" {
		base, err = url.Parse("https://" + baseURL)
		if err != nil {
			return "", fmt.Errorf("error parsing base URL: %w", err)
		}
	}
	ref, err := url.Parse(relativeURL)
	if err != nil {
		return "", fmt.Errorf("error parsing link: %w", err)
	}
	return base.ResolveReference(ref).String(), nil
}

// IsURL reports whether source names an http or https resource
func IsURL(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
