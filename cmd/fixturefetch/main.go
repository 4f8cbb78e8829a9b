// Command fixturefetch downloads ZIL source (.zil) and ZAP assembly
// (.zap) sample listings from an if-archive-style index page, for use
// as compiler test fixtures. It mirrors the archive's own dl/dt listing
// structure the way the story downloader does for compiled .z# files,
// just pointed at a source-code index instead of a compiled-game one.
package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const defaultIndexURL = "https://www.ifarchive.org/indexes/if-archive/infocom/compilers/zilf/"

var sourceFileRE = regexp.MustCompile(`(?i)\.(zil|zap)$`)

type fixture struct {
	name string
	url  string
}

func main() {
	indexURL := flag.String("index", defaultIndexURL, "if-archive index page to scrape for .zil/.zap listings")
	outputDir := flag.String("out", "fixtures", "directory to save downloaded fixtures into")
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "fixturefetch: creating %s: %v\n", *outputDir, err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: 30 * time.Second}

	fixtures, err := findFixtures(client, *indexURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fixturefetch: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Found %d source fixture(s) at %s\n", len(fixtures), *indexURL)

	downloaded, skipped, failed := 0, 0, 0
	for i, f := range fixtures {
		dest := filepath.Join(*outputDir, f.name)
		if _, err := os.Stat(dest); err == nil {
			fmt.Printf("[%d/%d] skipping %s (already present)\n", i+1, len(fixtures), f.name)
			skipped++
			continue
		}

		fmt.Printf("[%d/%d] downloading %s... ", i+1, len(fixtures), f.name)
		data, err := fetch(client, f.url)
		if err != nil {
			fmt.Printf("FAILED: %v\n", err)
			failed++
			continue
		}
		if err := os.WriteFile(dest, data, 0644); err != nil {
			fmt.Printf("FAILED: %v\n", err)
			failed++
			continue
		}
		fmt.Printf("OK (%d bytes)\n", len(data))
		downloaded++

		time.Sleep(100 * time.Millisecond)
	}

	fmt.Printf("\nDone! Downloaded: %d, Skipped: %d, Failed: %d\n", downloaded, skipped, failed)

	manifestPath := filepath.Join(*outputDir, "manifest.txt")
	var manifest strings.Builder
	for _, f := range fixtures {
		manifest.WriteString(f.name + "\n")
	}
	if err := os.WriteFile(manifestPath, []byte(manifest.String()), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "fixturefetch: writing manifest: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote manifest to %s\n", manifestPath)
}

// findFixtures fetches indexURL and extracts every dl/dt, table or
// list-item link whose href
// ends in .zil or .zap, resolving relative links against indexURL's
// origin the same way the archive's own index pages are structured.
func findFixtures(client *http.Client, indexURL string) ([]fixture, error) {
	res, err := client.Get(indexURL)
	if err != nil {
		return nil, fmt.Errorf("fetching index: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching index: status %d", res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing index: %w", err)
	}

	origin := originOf(indexURL)

	var fixtures []fixture
	doc.Find("dl dt a, table a, li a").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || !sourceFileRE.MatchString(href) {
			return
		}
		fixtures = append(fixtures, fixture{
			name: filepath.Base(href),
			url:  resolve(origin, href),
		})
	})
	return fixtures, nil
}

func fetch(client *http.Client, url string) ([]byte, error) {
	res, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", res.StatusCode)
	}
	return io.ReadAll(res.Body)
}

// originOf returns the scheme+host prefix of a URL, for resolving the
// archive's root-relative hrefs ("/indexes/...").
func originOf(u string) string {
	idx := strings.Index(u[len("https://"):], "/")
	if idx < 0 {
		return u
	}
	return u[:len("https://")+idx]
}

func resolve(origin, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if strings.HasPrefix(href, "/") {
		return origin + href
	}
	return origin + "/" + href
}
