package services

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/mediaqr/internal/client/client"
	"github.com/dmitrijs2005/mediaqr/internal/logging"
)

type LinkStatus string

const (
	LinkAvailable LinkStatus = "available"
	LinkDeleted   LinkStatus = "deleted"
	LinkProblem   LinkStatus = "problem"
	LinkInvalid   LinkStatus = "invalid"
)

type LinkReport struct {
	Status  LinkStatus
	ID      string
	Message string
	Hint    string
}

var linkMessages = map[LinkStatus][2]string{
	LinkAvailable: {"This QR code is available.", "The file can be opened."},
	LinkDeleted:   {"This QR code was deleted by its owner.", "The file is no longer available on the server."},
	LinkProblem:   {"There was a problem loading this content.", "Contact the administrator or try again later."},
	LinkInvalid:   {"Invalid or malformed QR code.", "Check the link and try again."},
}

func newLinkReport(status LinkStatus, id string) LinkReport {
	m := linkMessages[status]
	return LinkReport{Status: status, ID: id, Message: m[0], Hint: m[1]}
}

// path segments that are followed by a file id in shared links
var idMarkers = map[string]bool{"q": true, "media": true, "error": true}

// ExtractFileID pulls the file id out of a shared link. Links of the form
// .../q/{id}, .../media/{id} and .../error/{id} are recognised, as is a bare
// id without scheme or host. An empty result means the link is malformed.
func ExtractFileID(link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return ""
	}

	path := link
	bare := true
	if u, err := url.Parse(link); err == nil {
		path = u.Path
		bare = u.Scheme == "" && u.Host == ""
	}

	segs := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segs {
		if !idMarkers[seg] {
			continue
		}
		if i+1 < len(segs) {
			return segs[i+1]
		}
		return ""
	}

	// A single segment is only an id when no scheme or host was given.
	if bare && len(segs) == 1 {
		return segs[0]
	}
	return ""
}

type LinkChecker struct {
	client client.Client
	log    logging.Logger
}

func NewLinkChecker(c client.Client, log logging.Logger) *LinkChecker {
	return &LinkChecker{client: c, log: log}
}

func (l *LinkChecker) CheckLink(ctx context.Context, link string) LinkReport {
	id := ExtractFileID(link)
	if id == "" {
		return newLinkReport(LinkInvalid, "")
	}

	err := l.client.Probe(ctx, id)
	switch {
	case err == nil:
		return newLinkReport(LinkAvailable, id)
	case errors.Is(err, client.ErrNotFound):
		return newLinkReport(LinkDeleted, id)
	default:
		l.log.Warn(ctx, "link probe failed", "id", id, "error", err)
		return newLinkReport(LinkProblem, id)
	}
}
