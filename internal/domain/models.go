package domain

import "time"

// Domain contains core models shared by the crawler, harness and sinks.

// ArticleLink is the absolute URL of one article page. Duplicates are kept.
type ArticleLink string

// Article is the record extracted from one article detail page. Each text
// field holds either the extracted value or its placeholder.
type Article struct {
	Title    string `json:"titulo"`
	Subtitle string `json:"subtitulo"`
	Date     string `json:"fecha"`
	Link     string `json:"link,omitempty"`
}

// RunMode identifies how a harness run scheduled its extractions.
type RunMode string

const (
	ModeSequential RunMode = "sequential"
	ModePooled     RunMode = "pooled"
)

// RunResult is the outcome of one harness run over a fixed link set.
// Articles keep input order and never outnumber Links.
type RunResult struct {
	Mode     RunMode
	Workers  int
	Links    int
	Articles []Article
	Elapsed  time.Duration
}

// Failed reports how many links produced no record.
func (r RunResult) Failed() int {
	return r.Links - len(r.Articles)
}
