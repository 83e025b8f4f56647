// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scholar

import (
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	reCount   = regexp.MustCompile(`([\d][\d,.]*)\s+results?\b`)
	reYear    = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	reCitedBy = regexp.MustCompile(`Cited by (\d+)`)
)

// captchaSelectors mark the pages Scholar serves instead of results when it
// suspects automated traffic.
var captchaSelectors = []string{"#gs_captcha_f", "#gs_captcha_ccl", "#captcha-form", "form[action*='sorry']"}

// Article is one entry of a result page.
type Article struct {
	Title   string
	URL     string
	Authors string
	Year    int
	CitedBy int
}

// ResultSet is a parsed result page.
type ResultSet struct {
	// Total is the result count reported by the banner, or the number of
	// entries on the page when there is no banner.
	Total    int
	Articles []Article
}

// parsePage reads a Scholar result page. blocked is set when the page is
// a captcha or "unusual traffic" interstitial.
func parsePage(r io.Reader) (rs *ResultSet, blocked bool, err error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, false, err
	}

	for _, sel := range captchaSelectors {
		if doc.Find(sel).Length() > 0 {
			return nil, true, nil
		}
	}
	if strings.Contains(doc.Find("body").Text(), "unusual traffic from your computer network") {
		return nil, true, nil
	}

	rs = &ResultSet{}
	doc.Find(".gs_r.gs_or").Each(func(_ int, s *goquery.Selection) {
		rs.Articles = append(rs.Articles, parseArticle(s))
	})

	total, ok := parseCount(doc.Find("#gs_ab_md").Text())
	if !ok {
		total = len(rs.Articles)
	}
	rs.Total = total
	return rs, false, nil
}

// parseCount extracts the count from a banner such as
// "About 1,230 results (0.04 sec)" or "1 result (0.02 sec)".
func parseCount(banner string) (int, bool) {
	m := reCount.FindStringSubmatch(banner)
	if len(m) < 2 {
		return 0, false
	}
	digits := strings.NewReplacer(",", "", ".", "").Replace(m[1])
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseArticle(s *goquery.Selection) Article {
	title := s.Find(".gs_rt")
	link := title.Find("a").First()
	href, _ := link.Attr("href")

	// Drop the "[PDF]" / "[HTML]" / "[CITATION]" markers.
	title.Find(".gs_ctc, .gs_ctg2, .gs_ct1, .gs_ct2").Remove()

	a := Article{
		Title:   strings.TrimSpace(title.Text()),
		URL:     href,
		Authors: strings.TrimSpace(s.Find(".gs_a").Text()),
	}
	if m := reYear.FindString(a.Authors); m != "" {
		a.Year, _ = strconv.Atoi(m)
	}
	s.Find(".gs_fl a").Each(func(_ int, l *goquery.Selection) {
		if m := reCitedBy.FindStringSubmatch(l.Text()); len(m) == 2 {
			a.CitedBy, _ = strconv.Atoi(m[1])
		}
	})
	return a
}
