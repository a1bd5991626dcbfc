package confluence

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"git.home.luguber.info/inful/wikimirror/internal/docmodel"
	syncerrors "git.home.luguber.info/inful/wikimirror/internal/errors"
)

const expandFields = "body.view,ancestors"

// flexID tolerates the API returning ids as either JSON strings or numbers.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

type ancestorPayload struct {
	ID    flexID `json:"id"`
	Title string `json:"title"`
}

type pagePayload struct {
	ID        flexID            `json:"id"`
	Title     string            `json:"title"`
	Ancestors []ancestorPayload `json:"ancestors"`
	Body      struct {
		View struct {
			Value string `json:"value"`
		} `json:"view"`
	} `json:"body"`
}

type childrenPayload struct {
	Results []pagePayload `json:"results"`
	Links   struct {
		Next string `json:"next"`
	} `json:"_links"`
}

func (p pagePayload) toPage() *docmodel.Page {
	page := &docmodel.Page{
		ID:    string(p.ID),
		Title: p.Title,
		Body:  p.Body.View.Value,
	}
	if page.Title == "" {
		page.Title = "Page " + page.ID
	}
	for _, a := range p.Ancestors {
		page.Ancestors = append(page.Ancestors, docmodel.Ancestor{ID: string(a.ID), Title: a.Title})
	}
	if n := len(page.Ancestors); n > 0 {
		page.ParentID = page.Ancestors[n-1].ID
	}
	return page
}

// GetPage fetches a single page with its rendered body and ancestor chain.
func (c *Client) GetPage(ctx context.Context, id string) (*docmodel.Page, error) {
	params := url.Values{"expand": {expandFields}}
	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/content/%s", c.apiURL, id), params)
	if err != nil {
		if syncerrors.IsCategory(err, syncerrors.CategoryNotFound) {
			return nil, syncerrors.NotFoundError(id)
		}
		return nil, err
	}
	defer resp.Body.Close()

	var payload pagePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, syncerrors.Wrap(err, syncerrors.CategoryNetwork, syncerrors.SeverityError, "decode page response").
			WithContext("page_id", id)
	}
	return payload.toPage(), nil
}

// ListChildren fetches all direct children of a page in source order, following
// pagination until the API stops advertising a next link. The caller sees one
// logical sequence.
func (c *Client) ListChildren(ctx context.Context, id string) ([]*docmodel.Page, error) {
	var out []*docmodel.Page
	start := 0
	for {
		params := url.Values{
			"limit":  {strconv.Itoa(pageLimit)},
			"start":  {strconv.Itoa(start)},
			"expand": {expandFields},
		}
		resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/content/%s/child/page", c.apiURL, id), params)
		if err != nil {
			if syncerrors.IsCategory(err, syncerrors.CategoryNotFound) {
				return nil, syncerrors.NotFoundError(id)
			}
			return nil, err
		}

		var payload childrenPayload
		err = json.NewDecoder(resp.Body).Decode(&payload)
		resp.Body.Close()
		if err != nil {
			return nil, syncerrors.Wrap(err, syncerrors.CategoryNetwork, syncerrors.SeverityError, "decode children response").
				WithContext("page_id", id)
		}

		for _, item := range payload.Results {
			out = append(out, item.toPage())
		}
		if payload.Links.Next == "" {
			return out, nil
		}
		start += pageLimit
	}
}
