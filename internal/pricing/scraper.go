package pricing

import (
	"context"
	"errors"
	"time"

	"github.com/chromedp/chromedp"
)

// quotesExtractJS pulls per-ounce rows out of the quotes table and converts
// them to working values. Row labels look like "Gold USD/OZ".
const quotesExtractJS = `(() => {
	const result = {};
	document.querySelectorAll("table tr").forEach(row => {
		const cells = row.querySelectorAll("td");
		if (cells.length > 2) {
			let metal = cells[0].innerText.trim();
			const price = cells[2].innerText.trim().replace(/,/g, "");
			if (metal.includes("USD/OZ")) {
				metal = metal.replace("USD/OZ", "").trim();
				result[metal] = parseFloat(price) / 28;
			}
		}
	});
	return result;
})()`

// PageScraper is the tier-1 price source: a headless browser session
// against the public quotes page, bounded by a page-load timeout.
type PageScraper struct {
	url     string
	timeout time.Duration
}

func NewPageScraper(url string, timeout time.Duration) *PageScraper {
	return &PageScraper{url: url, timeout: timeout}
}

func (s *PageScraper) Scrape(ctx context.Context) (map[string]float64, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, s.timeout)
	defer cancelRun()

	var prices map[string]float64
	err := chromedp.Run(runCtx,
		chromedp.Navigate(s.url),
		chromedp.Evaluate(quotesExtractJS, &prices),
	)
	if err != nil {
		return nil, err
	}

	valid := false
	for _, v := range prices {
		if v > 0 {
			valid = true
			break
		}
	}
	if !valid {
		return nil, errors.New("no valid prices scraped")
	}
	return prices, nil
}
