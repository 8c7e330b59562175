// Package parser extracts finish times from timing-system results pages and printouts
package parser

import (
	"errors"
	"fmt"
	"io"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"

	"github.com/myusername/handicap-race/pkg/models"
	"github.com/myusername/handicap-race/pkg/racetime"
)

// ErrNoResultsTable is returned when a page has no table with member and time columns
var ErrNoResultsTable = errors.New("parser: no results table found")

// Header spellings used by the timing software and hand-made sheets
var (
	memberHeaders = []string{"member_number", "member no", "member", "no", "no.", "bib", "#"}
	timeHeaders   = []string{"finish_time", "finish time", "finish", "time", "elapsed"}
	statusHeaders = []string{"status", "result"}
)

var (
	digitsRegex     = regexp.MustCompile(`\d+`)
	resultLineRegex = regexp.MustCompile(`^\s*(\d+)\s+(.*?)\s*((?:\d+:)?\d+:\d{2}(?:\.\d+)?|DNF|ES|ST)\s*$`)
)

// ReadPDFText reads a PDF file and returns its text content
func ReadPDFText(pdfPath string) (string, error) {
	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return "", fmt.Errorf("error opening PDF: %w", err)
	}
	defer f.Close()

	plainText, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("error extracting text from PDF: %w", err)
	}

	bytes, err := io.ReadAll(plainText)
	if err != nil {
		return "", fmt.Errorf("error reading plain text from PDF: %w", err)
	}

	return string(bytes), nil
}

// ExtractFinishesFromText parses printed results, one runner per line:
// member number first, then anything (usually the name), then a finish time
// or one of DNF, ES, ST. Lines that do not match are skipped.
func ExtractFinishesFromText(text string) []models.Finish {
	var finishes []models.Finish

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		m := resultLineRegex.FindStringSubmatch(line)
		if m == nil {
			log.Printf("Skipping line without a result: %q", line)
			continue
		}

		member, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		finish, ok := parseResultCell(member, m[3])
		if !ok {
			log.Printf("Skipping unreadable result %q for member %d", m[3], member)
			continue
		}
		finishes = append(finishes, finish)
	}

	log.Printf("Extracted %d finishes from text", len(finishes))
	return finishes
}

// parseResultCell reads a time or a status shorthand from a single cell
func parseResultCell(member int, cell string) (models.Finish, bool) {
	finish := models.Finish{MemberNumber: member}
	cell = strings.TrimSpace(cell)
	if d, err := racetime.ParseFinishTime(cell); err == nil {
		finish.Elapsed = &d
		return finish, true
	}
	status, ok := models.ParseStatus(cell)
	if !ok || status.IsFinisher() {
		return finish, false
	}
	finish.Status = status
	return finish, true
}

// columnIndex returns the first header matching one of names, or -1
func columnIndex(headers []string, names []string) int {
	for _, name := range names {
		for i, header := range headers {
			if strings.EqualFold(strings.TrimSpace(header), name) {
				return i
			}
		}
	}
	return -1
}

// ExtractFinishesFromHTML scans every table on a results page for a member
// column and a time column and returns the finishes it can read
func ExtractFinishesFromHTML(htmlContent string) ([]models.Finish, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("error parsing results HTML: %w", err)
	}

	var finishes []models.Finish
	found := false

	doc.Find("table").Each(func(i int, table *goquery.Selection) {
		headers := []string{}
		table.Find("tr").First().Find("th, td").Each(func(j int, cell *goquery.Selection) {
			headers = append(headers, strings.TrimSpace(cell.Text()))
		})

		memberCol := columnIndex(headers, memberHeaders)
		timeCol := columnIndex(headers, timeHeaders)
		statusCol := columnIndex(headers, statusHeaders)
		if memberCol == -1 || timeCol == -1 {
			log.Printf("Table #%d doesn't appear to be a results table (headers: %v)", i, headers)
			return
		}
		found = true
		log.Printf("Found results table #%d with headers: %v", i, headers)

		table.Find("tr").Each(func(rowIdx int, row *goquery.Selection) {
			if rowIdx == 0 {
				return
			}

			cellTexts := []string{}
			row.Find("td, th").Each(func(cellIdx int, cell *goquery.Selection) {
				cellTexts = append(cellTexts, strings.TrimSpace(cell.Text()))
			})
			if len(cellTexts) <= memberCol || len(cellTexts) <= timeCol {
				return
			}

			digits := digitsRegex.FindString(cellTexts[memberCol])
			member, err := strconv.Atoi(digits)
			if err != nil {
				log.Printf("Skipping row %d without a member number: %v", rowIdx, cellTexts)
				return
			}

			finish, ok := parseResultCell(member, cellTexts[timeCol])
			if statusCol != -1 && statusCol < len(cellTexts) {
				status, known := models.ParseStatus(cellTexts[statusCol])
				if known && (!status.IsFinisher() || finish.Elapsed != nil) {
					finish.Status = status
					ok = true
				}
			}
			if !ok {
				log.Printf("Skipping row %d for member %d: no time or status", rowIdx, member)
				return
			}

			finishes = append(finishes, finish)
		})
	})

	if !found {
		return nil, ErrNoResultsTable
	}

	log.Printf("Extracted %d finishes from HTML", len(finishes))
	return finishes, nil
}
