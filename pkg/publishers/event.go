package publishers

import (
	"time"

	"github.com/samvad-hq/noticias-harvester/internal/domain"
)

// Event is the payload published for one harvested article.
type Event struct {
	RunID       string         `json:"run_id"`
	Source      string         `json:"source"`
	Link        string         `json:"link"`
	Article     domain.Article `json:"article"`
	CollectedAt time.Time      `json:"collected_at"`
}

// NewEvent wraps article as an event of the harvest runID against source.
func NewEvent(runID, source string, article domain.Article) Event {
	return Event{
		RunID:       runID,
		Source:      source,
		Link:        article.Link,
		Article:     article,
		CollectedAt: time.Now().UTC(),
	}
}

// attributes are the message attributes shared by the queue publishers.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"run_id": e.RunID,
		"source": e.Source,
	}
}
