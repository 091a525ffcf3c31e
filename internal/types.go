package internal

import (
	"sjsage522/contactmerge/helpers"
	"sjsage522/contactmerge/services/cache"
	"sjsage522/contactmerge/services/publisher"
)

// Dependencies holds all service dependencies
type Dependencies struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher
	Journal   helpers.Journal
}
