// scraper/client.go
package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	eventTarget        = "dnn$ctr1025$Etusivu$cmdHaeTulokset"
	viewStateGenerator = "CA0B0334"
	wildcard           = "kaikki"
)

// Client talks to the Finlandia-hiihto results archive. One GET against the
// archive page yields the hidden form tokens; one POST per year, carrying
// those tokens and a "no server-side filter" form, yields that year's full
// result table.
type Client struct {
	http       *resty.Client
	archiveURL string
	origin     string
}

// NewClient builds a client for the given archive URL. origin is sent as the
// Origin/Referer pair on POST requests, which the site requires.
func NewClient(archiveURL, origin string) *Client {
	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetHeader("Connection", "keep-alive")
	client.SetHeader("Upgrade-insecure-requests", "1")

	return &Client{
		http:       client,
		archiveURL: archiveURL,
		origin:     origin,
	}
}

// FetchArchivePage GETs the results-archive landing page.
func (c *Client) FetchArchivePage(ctx context.Context) (string, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(c.archiveURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch archive page: %w", err)
	}
	if res.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("archive page returned status %d", res.StatusCode())
	}
	return string(res.Body()), nil
}

// FetchYearResults POSTs the results form for one year and returns the reply
// page. The form mirrors the archive's own search submission with every
// server-side filter left open, so the reply lists every distance and every
// finisher of that year.
func (c *Client) FetchYearResults(ctx context.Context, year int, viewState, eventValidation string) (string, error) {
	form := map[string]string{
		"__EVENTTARGET":                            eventTarget,
		"__EVENTARGUMENT":                          "",
		"__VIEWSTATE":                              viewState,
		"__VIEWSTATEGENERATOR":                     viewStateGenerator,
		"__EVENTVALIDATION":                        eventValidation,
		"dnn$ctr1025$Etusivu$ddlVuosi2x":           strconv.Itoa(year),
		"dnn$ctr1025$Etusivu$ddlMatka2x":           wildcard,
		"dnn$ctr1025$Etusivu$chkLstSukupuoli2":     wildcard,
		"dnn$ctr1025$Etusivu$ddlIkaluokka2":        wildcard,
		"dnn$ctr1025$Etusivu$txtHakuEtunimi2":      "",
		"dnn$ctr1025$Etusivu$txtHakuSukunimi2":     "",
		"dnn$ctr1025$Etusivu$txtHakuPaikkakunta2":  "",
		"dnn$ctr1025$Etusivu$ddlKansalaisuus2x":    "0",
		"dnn$ctr1025$Etusivu$txtHakuJoukkue2":      "",
		"ScrollTop":                                "",
		"__dnnVariable":                            "",
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Origin", c.origin).
		SetHeader("Referer", c.archiveURL).
		SetMultipartFormData(form).
		Post(c.archiveURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch results for %d: %w", year, err)
	}
	if res.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("results request for %d returned status %d", year, res.StatusCode())
	}
	return string(res.Body()), nil
}
