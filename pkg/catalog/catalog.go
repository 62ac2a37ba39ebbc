package catalog

import (
	"context"
	"log"

	"github.com/remixlab/mixctl/pkg/studio"
)

// Catalog holds the enumerated sets of valid moods and genres. It is fetched
// once at startup and read-only afterwards. An empty catalog is valid and
// simply disables mood/genre selection.
type Catalog struct {
	moods  []string
	genres []string
}

// New builds a catalog from fixed slices, mainly for tests and offline use.
func New(moods, genres []string) *Catalog {
	return &Catalog{
		moods:  moods,
		genres: genres,
	}
}

// Fetch loads moods and genres from the service. A failed fetch degrades to
// an empty set instead of blocking the app.
func Fetch(ctx context.Context, client *studio.Client) *Catalog {
	c := &Catalog{}
	moods, err := client.Moods(ctx)
	if err != nil {
		log.Printf("catalog: couldn't fetch moods: %v\n", err)
	} else {
		c.moods = moods
	}
	genres, err := client.Genres(ctx)
	if err != nil {
		log.Printf("catalog: couldn't fetch genres: %v\n", err)
	} else {
		c.genres = genres
	}
	return c
}

// Moods returns a copy of the mood set in catalog order.
func (c *Catalog) Moods() []string {
	return append([]string(nil), c.moods...)
}

// Genres returns a copy of the genre set in catalog order.
func (c *Catalog) Genres() []string {
	return append([]string(nil), c.genres...)
}

func (c *Catalog) HasMood(mood string) bool {
	return contains(c.moods, mood)
}

func (c *Catalog) HasGenre(genre string) bool {
	return contains(c.genres, genre)
}

func contains(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
