package assets

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/malkassem/documentcloud/internal/models"
	"github.com/malkassem/documentcloud/pkg/config"
)

// PagePlaceholder marks the spot in a page-image template where the page
// number goes. Clients substitute it themselves when paging.
const PagePlaceholder = "{page}"

// Builder constructs public asset and viewer URLs for documents.
type Builder struct {
	assetBase string
	appBase   string
}

// NewBuilder returns a Builder using the configured hosts.
func NewBuilder(cfg config.AssetsConfig) *Builder {
	return &Builder{
		assetBase: strings.TrimRight(cfg.AssetBaseURL, "/"),
		appBase:   strings.TrimRight(cfg.AppBaseURL, "/"),
	}
}

// PageImageTemplate returns the page-image URL for a document with the page
// number left as a placeholder.
func (b *Builder) PageImageTemplate(d *models.Document) string {
	return fmt.Sprintf("%s/documents/%s/pages/%s-p%s-normal.gif",
		b.assetBase, d.ID, d.Slug, PagePlaceholder)
}

// PageImage returns the image URL of a single page.
func (b *Builder) PageImage(d *models.Document, page int) string {
	return strings.Replace(b.PageImageTemplate(d), PagePlaceholder, strconv.Itoa(page), 1)
}

// DocumentURL returns the document's published URL when one is set,
// otherwise the canonical viewer URL on the application host.
func (b *Builder) DocumentURL(d *models.Document) string {
	if d.PublishedURL != nil && *d.PublishedURL != "" {
		return *d.PublishedURL
	}
	return fmt.Sprintf("%s/documents/%s.html", b.appBase, d.Canonical())
}
