package viewer

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrUnknownNetwork is returned for a share target that is not supported.
var ErrUnknownNetwork = errors.New("unknown share network")

// Networks lists the supported share targets.
var Networks = []string{"twitter", "facebook", "linkedin", "email"}

// ShareURL builds the share link for a document page on a social network.
func ShareURL(network, title, pageURL string) (string, error) {
	switch network {
	case "twitter":
		return "https://twitter.com/intent/tweet?text=" + url.QueryEscape(title) + "&url=" + url.QueryEscape(pageURL), nil
	case "facebook":
		return "https://www.facebook.com/sharer/sharer.php?u=" + url.QueryEscape(pageURL), nil
	case "linkedin":
		return "https://www.linkedin.com/sharing/share-offsite/?url=" + url.QueryEscape(pageURL), nil
	case "email":
		subject := "Documento BOE: " + title
		body := "He encontrado este documento que puede interesarte: " + pageURL
		return "mailto:?subject=" + mailEscape(subject) + "&body=" + mailEscape(body), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownNetwork, network)
}

// mailEscape escapes a mailto header value. Spaces become %20, not "+".
func mailEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
